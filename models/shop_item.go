package models

import (
	"time"
)

// ShopItem represents a purchasable item. A nil stock means unlimited.
type ShopItem struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Cost        int64     `db:"cost"`
	Stock       *int64    `db:"stock"`
	Active      bool      `db:"active"`
	CreatedAt   time.Time `db:"created_at"`
}

// InStock reports whether at least the given quantity can be purchased
func (i *ShopItem) InStock(quantity int64) bool {
	return i.Stock == nil || *i.Stock >= quantity
}

// PurchaseStatus represents the lifecycle state of a purchase
type PurchaseStatus string

const (
	PurchaseStatusCompleted PurchaseStatus = "completed"
)

// Purchase links a user to a shop item purchase
type Purchase struct {
	ID         int64          `db:"id"`
	TelegramID int64          `db:"telegram_id"`
	ItemID     int64          `db:"item_id"`
	Quantity   int64          `db:"quantity"`
	TotalCost  int64          `db:"total_cost"`
	Status     PurchaseStatus `db:"status"`
	CreatedAt  time.Time      `db:"created_at"`
}
