package service

import (
	"context"
	"fmt"
	"strings"

	"coinbot/config"
	"coinbot/events"
	"coinbot/models"

	"github.com/google/uuid"
)

const referralCodeLength = 8

// maxCodeAttempts bounds referral code collision retries; with 8 hex chars a
// collision is already a one-in-four-billion event.
const maxCodeAttempts = 5

type userService struct {
	uowFactory UnitOfWorkFactory
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory) UserService {
	return &userService{uowFactory: uowFactory}
}

// GetOrCreateUser retrieves an existing user or registers a new one
func (s *userService) GetOrCreateUser(ctx context.Context, telegramID int64, username, firstName string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	code, err := s.generateReferralCode(ctx, uow.UserRepository())
	if err != nil {
		return nil, err
	}

	bonus, err := settingInt64(ctx, uow.SettingRepository(), models.SettingSignupBonus, config.Get().SignupBonus)
	if err != nil {
		return nil, err
	}

	user = &models.User{
		TelegramID:   telegramID,
		Username:     username,
		FirstName:    firstName,
		Coins:        bonus,
		ReferralCode: code,
		Active:       true,
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// The ledger must account for every coin the user holds, including the
	// signup bonus.
	if bonus > 0 {
		tx := &models.Transaction{
			TelegramID:  telegramID,
			Type:        models.TransactionTypeInitial,
			Amount:      bonus,
			Description: "Signup bonus",
		}
		if err := RecordLedgerChange(ctx, uow, tx, 0); err != nil {
			return nil, fmt.Errorf("failed to record signup bonus: %w", err)
		}
	}

	uow.EventBus().Publish(events.UserCreatedEvent{
		TelegramID:   telegramID,
		Username:     username,
		ReferralCode: code,
		SignupBonus:  bonus,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// GetUser retrieves an existing user
func (s *userService) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

// RecentTransactions returns the newest ledger entries for a user
func (s *userService) RecentTransactions(ctx context.Context, telegramID int64, limit int) ([]*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	txs, err := uow.TransactionRepository().GetRecentByUser(ctx, telegramID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	return txs, nil
}

// generateReferralCode produces a short unique invite token
func (s *userService) generateReferralCode(ctx context.Context, repo UserRepository) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		raw := strings.ReplaceAll(uuid.NewString(), "-", "")
		code := strings.ToUpper(raw[:referralCodeLength])

		owner, err := repo.GetByReferralCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check referral code: %w", err)
		}
		if owner == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique referral code after %d attempts", maxCodeAttempts)
}
