package service

import (
	"context"
	"fmt"
	"time"

	"coinbot/events"
	"coinbot/models"
)

type raffleService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewRaffleService creates a new raffle service
func NewRaffleService(uowFactory UnitOfWorkFactory) RaffleService {
	return &raffleService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// ListOpenRaffles returns raffles currently accepting entries
func (s *raffleService) ListOpenRaffles(ctx context.Context) ([]*models.Raffle, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	raffles, err := uow.RaffleRepository().ListOpen(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list raffles: %w", err)
	}

	return raffles, nil
}

// EnterRaffle debits the entry cost and records one entry. The user row is
// locked first, so the balance check and the debit cannot interleave with a
// concurrent spend by the same user.
func (s *raffleService) EnterRaffle(ctx context.Context, telegramID, raffleID int64) (*RaffleReceipt, error) {
	now := s.now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByTelegramIDForUpdate(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	raffle, err := uow.RaffleRepository().GetByID(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle: %w", err)
	}
	if raffle == nil {
		return nil, ErrNotFound
	}
	if !raffle.IsOpen(now) {
		return nil, ErrRaffleClosed
	}

	if user.Coins < raffle.EntryCost {
		return nil, ErrInsufficientBalance
	}

	if err := uow.UserRepository().DeductCoins(ctx, telegramID, raffle.EntryCost); err != nil {
		return nil, err
	}

	// The conditional increment is the authoritative capacity check; the
	// IsOpen call above only avoids a pointless debit.
	if err := uow.RaffleRepository().IncrementEntries(ctx, raffleID, now); err != nil {
		return nil, err
	}

	entry, err := uow.RaffleRepository().AddEntry(ctx, raffleID, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to add raffle entry: %w", err)
	}

	tx := &models.Transaction{
		TelegramID:  telegramID,
		Type:        models.TransactionTypeRaffleEntry,
		Amount:      -raffle.EntryCost,
		Description: fmt.Sprintf("Raffle entry: %s", raffle.Title),
		Metadata: map[string]any{
			"raffle_id": raffleID,
		},
	}
	if err := RecordLedgerChange(ctx, uow, tx, user.Coins); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.RaffleEnteredEvent{
		RaffleID:     raffleID,
		TelegramID:   telegramID,
		EntryCost:    raffle.EntryCost,
		TotalEntries: entry.EntryCount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &RaffleReceipt{
		Raffle:     raffle,
		Entry:      entry,
		NewBalance: user.Coins - raffle.EntryCost,
	}, nil
}
