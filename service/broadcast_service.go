package service

import (
	"context"
	"fmt"
	"time"

	"coinbot/config"

	log "github.com/sirupsen/logrus"
)

type broadcastService struct {
	uowFactory UnitOfWorkFactory
	sender     MessageSender
	pause      time.Duration
}

// NewBroadcastService creates a new broadcast service
func NewBroadcastService(uowFactory UnitOfWorkFactory, sender MessageSender) BroadcastService {
	return &broadcastService{
		uowFactory: uowFactory,
		sender:     sender,
		pause:      config.Get().BroadcastPause,
	}
}

// Broadcast sends text to every active user, pacing sends to stay under the
// transport's rate limits. A per-recipient failure marks that user inactive
// and the batch continues; only a cancelled context aborts it.
func (s *broadcastService) Broadcast(ctx context.Context, text string) (*BroadcastReport, error) {
	users, err := s.listRecipients(ctx)
	if err != nil {
		return nil, err
	}

	log.WithField("recipients", len(users)).Info("Starting broadcast")

	report := &BroadcastReport{}
	for i, user := range users {
		if i > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(s.pause):
			}
		}

		if err := s.sender.SendText(user.TelegramID, text); err != nil {
			report.Failed++
			log.WithError(err).WithField("telegramID", user.TelegramID).
				Warn("Broadcast delivery failed, marking user inactive")
			if markErr := s.markInactive(ctx, user.TelegramID); markErr != nil {
				log.WithError(markErr).WithField("telegramID", user.TelegramID).
					Error("Failed to mark user inactive")
			}
			continue
		}
		report.Sent++
	}

	log.WithFields(log.Fields{
		"sent":   report.Sent,
		"failed": report.Failed,
	}).Info("Broadcast finished")

	return report, nil
}

func (s *broadcastService) listRecipients(ctx context.Context) ([]*userRef, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	users, err := uow.UserRepository().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}

	// Only the ids are needed once the recipient set is fixed; the send loop
	// runs outside any storage transaction.
	refs := make([]*userRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, &userRef{TelegramID: u.TelegramID})
	}
	return refs, nil
}

func (s *broadcastService) markInactive(ctx context.Context, telegramID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().MarkInactive(ctx, telegramID); err != nil {
		return err
	}
	return uow.Commit()
}

type userRef struct {
	TelegramID int64
}
