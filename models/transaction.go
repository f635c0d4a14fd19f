package models

import (
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial      TransactionType = "initial"
	TransactionTypeDailyReward  TransactionType = "daily_reward"
	TransactionTypeReferral     TransactionType = "referral"
	TransactionTypeRaffleEntry  TransactionType = "raffle_entry"
	TransactionTypeShopPurchase TransactionType = "shop_purchase"
)

// Transaction represents an append-only record of a single balance change.
// The sum of a user's transaction amounts always equals their coin balance.
type Transaction struct {
	ID          int64           `db:"id"`
	TelegramID  int64           `db:"telegram_id"`
	Type        TransactionType `db:"type"`
	Amount      int64           `db:"amount"`
	Description string          `db:"description"`
	Metadata    map[string]any  `db:"metadata"`
	CreatedAt   time.Time       `db:"created_at"`
}
