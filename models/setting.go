package models

import (
	"time"
)

// Setting keys understood by the settings service
const (
	SettingDailyRewardAmount    = "daily_reward_amount"
	SettingReferralRewardAmount = "referral_reward_amount"
	SettingSignupBonus          = "signup_bonus"
)

// BotSetting is a tunable key/value pair stored in the database
type BotSetting struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}
