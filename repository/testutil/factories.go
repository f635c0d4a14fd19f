package testutil

import (
	"fmt"
	"time"

	"coinbot/models"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(telegramID int64, username string) *models.User {
	now := time.Now()
	return &models.User{
		TelegramID:   telegramID,
		Username:     username,
		FirstName:    username,
		Coins:        100,
		ReferralCode: referralCodeFor(telegramID),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CreateTestUserWithCoins creates a test user with a specific balance
func CreateTestUserWithCoins(telegramID int64, username string, coins int64) *models.User {
	user := CreateTestUser(telegramID, username)
	user.Coins = coins
	return user
}

// CreateTestRaffle creates an open raffle ending well in the future
func CreateTestRaffle(title string, entryCost int64) *models.Raffle {
	return &models.Raffle{
		Title:     title,
		Prize:     "Test prize",
		EntryCost: entryCost,
		EndsAt:    time.Now().Add(24 * time.Hour),
		Active:    true,
	}
}

// CreateTestRaffleWithCap creates an open raffle with a maximum entry count
func CreateTestRaffleWithCap(title string, entryCost, maxEntries int64) *models.Raffle {
	raffle := CreateTestRaffle(title, entryCost)
	raffle.MaxEntries = &maxEntries
	return raffle
}

// CreateTestShopItem creates an active item with unlimited stock
func CreateTestShopItem(name string, cost int64) *models.ShopItem {
	return &models.ShopItem{
		Name:        name,
		Description: "Test item",
		Cost:        cost,
		Active:      true,
	}
}

// CreateTestShopItemWithStock creates an active item with tracked stock
func CreateTestShopItemWithStock(name string, cost, stock int64) *models.ShopItem {
	item := CreateTestShopItem(name, cost)
	item.Stock = &stock
	return item
}

// CreateTestTransaction creates a ledger entry of the given type and amount
func CreateTestTransaction(telegramID int64, txType models.TransactionType, amount int64) *models.Transaction {
	return &models.Transaction{
		TelegramID:  telegramID,
		Type:        txType,
		Amount:      amount,
		Description: "Test transaction",
		Metadata: map[string]any{
			"test": true,
		},
	}
}

// referralCodeFor derives a deterministic unique code from the telegram id so
// factory users never collide on the unique constraint
func referralCodeFor(telegramID int64) string {
	return fmt.Sprintf("T%d", telegramID)
}
