package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"coinbot/bot"
	"coinbot/config"
	"coinbot/database"
	"coinbot/events"
	"coinbot/repository"
	"coinbot/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting coinbot...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Apply pending migrations on startup
	log.Info("Applying migrations...")
	if err := database.RunMigrationsWithURL(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Initialize event bus
	eventBus := events.NewBus()

	// Audit every balance change through the structured log
	eventBus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		change, ok := event.(events.BalanceChangeEvent)
		if !ok {
			return
		}
		log.WithFields(log.Fields{
			"telegramID": change.TelegramID,
			"oldBalance": change.OldBalance,
			"newBalance": change.NewBalance,
			"change":     change.ChangeAmount,
			"type":       change.TransactionType,
		}).Info("Balance changed")
	})

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	userService := service.NewUserService(uowFactory)
	rewardService := service.NewRewardService(uowFactory)
	raffleService := service.NewRaffleService(uowFactory)
	shopService := service.NewShopService(uowFactory)
	settingsService := service.NewSettingsService(uowFactory)

	// Initialize Telegram bot. A missing token is a configuration problem for
	// the transport only: the process stays up so migrations and storage keep
	// working for the admin tooling that shares this database.
	var telegramBot *bot.Bot
	if cfg.TelegramToken == "" {
		log.Warn("TELEGRAM_BOT_TOKEN is not set, bot transport disabled")
	} else {
		botConfig := bot.Config{
			Token:           cfg.TelegramToken,
			AdminTelegramID: cfg.AdminTelegramID,
			ConversationTTL: cfg.ConversationTTL,
		}
		telegramBot, err = bot.New(botConfig, userService, rewardService, raffleService, shopService, settingsService)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram bot: %w", err)
		}

		broadcastService := service.NewBroadcastService(uowFactory, telegramBot)
		telegramBot.SetBroadcastService(broadcastService)

		telegramBot.Start(ctx)
	}

	// Wait for context cancellation
	log.Infof("Running in %s mode", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Info("Shutting down...")

	if telegramBot != nil {
		telegramBot.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Info("Shutdown completed")
	}

	return nil
}
