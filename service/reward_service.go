package service

import (
	"context"
	"fmt"
	"time"

	"coinbot/config"
	"coinbot/models"
)

type rewardService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewRewardService creates a new reward service
func NewRewardService(uowFactory UnitOfWorkFactory) RewardService {
	return &rewardService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// ClaimDaily credits the configured daily amount once per civil day. The
// user row is locked for the duration of the transaction, so concurrent
// claims for the same user serialize and the second one observes the first
// one's claim timestamp.
func (s *rewardService) ClaimDaily(ctx context.Context, telegramID int64) (*DailyClaimResult, error) {
	now := s.now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	user, err := uow.UserRepository().GetByTelegramIDForUpdate(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if user.LastDailyReward != nil && SameCivilDay(*user.LastDailyReward, now) {
		return nil, ErrAlreadyClaimedToday
	}

	amount, err := settingInt64(ctx, uow.SettingRepository(), models.SettingDailyRewardAmount, config.Get().DailyRewardAmount)
	if err != nil {
		return nil, err
	}

	newStreak := NextStreak(user.LastDailyReward, now, user.Streak)

	if err := uow.UserRepository().ApplyDailyReward(ctx, telegramID, amount, newStreak, now); err != nil {
		return nil, fmt.Errorf("failed to apply daily reward: %w", err)
	}

	tx := &models.Transaction{
		TelegramID:  telegramID,
		Type:        models.TransactionTypeDailyReward,
		Amount:      amount,
		Description: fmt.Sprintf("Daily check-in (streak %d)", newStreak),
		Metadata: map[string]any{
			"streak": newStreak,
		},
	}
	if err := RecordLedgerChange(ctx, uow, tx, user.Coins); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	updated := *user
	updated.Coins += amount
	updated.Streak = newStreak
	updated.LastDailyReward = &now

	return &DailyClaimResult{User: &updated, Amount: amount}, nil
}

// RedeemReferralCode attributes the referee to the code owner and credits
// both sides the configured referral amount. Both user rows are locked in
// ascending id order so two overlapping redemptions cannot deadlock, and the
// attribution column is written conditionally so it is set at most once.
func (s *rewardService) RedeemReferralCode(ctx context.Context, refereeID int64, code string) (*ReferralResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	users := uow.UserRepository()

	owner, err := users.GetByReferralCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up referral code: %w", err)
	}
	if owner == nil {
		return nil, ErrUnknownCode
	}
	if owner.TelegramID == refereeID {
		return nil, ErrSelfReferral
	}

	referrer, referee, err := s.lockPair(ctx, users, owner.TelegramID, refereeID)
	if err != nil {
		return nil, err
	}

	if referee.ReferredBy != nil {
		return nil, ErrAlreadyReferred
	}

	amount, err := settingInt64(ctx, uow.SettingRepository(), models.SettingReferralRewardAmount, config.Get().ReferralRewardAmount)
	if err != nil {
		return nil, err
	}

	if err := users.SetReferredBy(ctx, referee.TelegramID, code); err != nil {
		return nil, err
	}

	if err := users.AddCoins(ctx, referrer.TelegramID, amount); err != nil {
		return nil, fmt.Errorf("failed to credit referrer: %w", err)
	}
	referrerTx := &models.Transaction{
		TelegramID:  referrer.TelegramID,
		Type:        models.TransactionTypeReferral,
		Amount:      amount,
		Description: "Referral bonus (invited a friend)",
		Metadata: map[string]any{
			"referee_telegram_id": referee.TelegramID,
		},
	}
	if err := RecordLedgerChange(ctx, uow, referrerTx, referrer.Coins); err != nil {
		return nil, err
	}

	if err := users.AddCoins(ctx, referee.TelegramID, amount); err != nil {
		return nil, fmt.Errorf("failed to credit referee: %w", err)
	}
	refereeTx := &models.Transaction{
		TelegramID:  referee.TelegramID,
		Type:        models.TransactionTypeReferral,
		Amount:      amount,
		Description: "Referral bonus (joined via invite)",
		Metadata: map[string]any{
			"referrer_telegram_id": referrer.TelegramID,
		},
	}
	if err := RecordLedgerChange(ctx, uow, refereeTx, referee.Coins); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	updatedReferee := *referee
	updatedReferee.Coins += amount
	updatedReferee.ReferredBy = &code

	updatedReferrer := *referrer
	updatedReferrer.Coins += amount

	return &ReferralResult{
		Referee:  &updatedReferee,
		Referrer: &updatedReferrer,
		Amount:   amount,
	}, nil
}

// lockPair locks the referrer and referee rows in ascending id order and
// returns them as (referrer, referee)
func (s *rewardService) lockPair(ctx context.Context, users UserRepository, referrerID, refereeID int64) (*models.User, *models.User, error) {
	first, second := referrerID, refereeID
	if second < first {
		first, second = second, first
	}

	byID := make(map[int64]*models.User, 2)
	for _, id := range []int64{first, second} {
		user, err := users.GetByTelegramIDForUpdate(ctx, id)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to lock user %d: %w", id, err)
		}
		if user == nil {
			return nil, nil, ErrUserNotFound
		}
		byID[id] = user
	}

	return byID[referrerID], byID[refereeID], nil
}
