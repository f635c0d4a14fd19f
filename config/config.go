package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Telegram configuration
	TelegramToken   string
	AdminTelegramID int64 // Telegram ID allowed to run admin commands

	// Database configuration
	DatabaseURL string

	// Reward defaults, used when no override exists in bot_settings
	DailyRewardAmount    int64
	ReferralRewardAmount int64
	SignupBonus          int64

	// Broadcast pacing between individual sends
	BroadcastPause time.Duration

	// Conversation state time-to-live
	ConversationTTL time.Duration

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A .env file is optional; deployed environments set variables directly
	_ = godotenv.Load()

	config := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),

		// Reward settings with defaults
		DailyRewardAmount:    10,
		ReferralRewardAmount: 5,
		SignupBonus:          0,

		BroadcastPause:  50 * time.Millisecond,
		ConversationTTL: 30 * time.Minute,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if v := os.Getenv("DAILY_REWARD_AMOUNT"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.DailyRewardAmount = parsed
		}
	}
	if v := os.Getenv("REFERRAL_REWARD_AMOUNT"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.ReferralRewardAmount = parsed
		}
	}
	if v := os.Getenv("SIGNUP_BONUS"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.SignupBonus = parsed
		}
	}
	if v := os.Getenv("ADMIN_TELEGRAM_ID"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.AdminTelegramID = parsed
		}
	}
	if v := os.Getenv("BROADCAST_PAUSE_MS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			config.BroadcastPause = time.Duration(parsed) * time.Millisecond
		}
	}
	if v := os.Getenv("CONVERSATION_TTL_MINUTES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			config.ConversationTTL = time.Duration(parsed) * time.Minute
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// The Telegram token is deliberately not required: without it the
		// process still starts and runs migrations, only the bot transport
		// stays down.
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
