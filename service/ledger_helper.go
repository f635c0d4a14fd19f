package service

import (
	"context"
	"fmt"

	"coinbot/events"
	"coinbot/models"
)

// RecordLedgerChange appends a transaction entry and publishes the matching
// balance change event. This is the single entry point for all balance
// changes in the system; the event is flushed only after the surrounding
// storage transaction commits.
func RecordLedgerChange(ctx context.Context, uow UnitOfWork, tx *models.Transaction, oldBalance int64) error {
	if err := uow.TransactionRepository().Record(ctx, tx); err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		TelegramID:      tx.TelegramID,
		OldBalance:      oldBalance,
		NewBalance:      oldBalance + tx.Amount,
		ChangeAmount:    tx.Amount,
		TransactionType: tx.Type,
	})

	return nil
}

// settingInt64 reads an integer setting through the given repository,
// falling back to the provided default when the key is absent or malformed.
func settingInt64(ctx context.Context, repo SettingRepository, key string, fallback int64) (int64, error) {
	setting, err := repo.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	if setting == nil {
		return fallback, nil
	}

	var value int64
	if _, err := fmt.Sscanf(setting.Value, "%d", &value); err != nil {
		return fallback, nil
	}
	return value, nil
}
