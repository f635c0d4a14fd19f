package models

import (
	"time"
)

// User represents a Telegram user with a coin balance
type User struct {
	TelegramID      int64      `db:"telegram_id"`
	Username        string     `db:"username"`
	FirstName       string     `db:"first_name"`
	Coins           int64      `db:"coins"`
	Streak          int        `db:"streak"`
	LastDailyReward *time.Time `db:"last_daily_reward"`
	ReferralCode    string     `db:"referral_code"`
	ReferredBy      *string    `db:"referred_by"`
	Active          bool       `db:"active"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}
