package service

import (
	"context"
	"fmt"
)

type settingsService struct {
	uowFactory UnitOfWorkFactory
}

// NewSettingsService creates a new settings service
func NewSettingsService(uowFactory UnitOfWorkFactory) SettingsService {
	return &settingsService{uowFactory: uowFactory}
}

// GetInt64 returns the stored value for key, or fallback when absent or
// unparseable
func (s *settingsService) GetInt64(ctx context.Context, key string, fallback int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	return settingInt64(ctx, uow.SettingRepository(), key, fallback)
}

// Set stores a value for key
func (s *settingsService) Set(ctx context.Context, key, value string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.SettingRepository().Set(ctx, key, value); err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
