package models

import (
	"time"
)

// Raffle represents a prize raffle users can buy entries into
type Raffle struct {
	ID             int64     `db:"id"`
	Title          string    `db:"title"`
	Prize          string    `db:"prize"`
	EntryCost      int64     `db:"entry_cost"`
	CurrentEntries int64     `db:"current_entries"`
	MaxEntries     *int64    `db:"max_entries"`
	EndsAt         time.Time `db:"ends_at"`
	Active         bool      `db:"active"`
	CreatedAt      time.Time `db:"created_at"`
}

// IsOpen reports whether entries can still be purchased at the given time
func (r *Raffle) IsOpen(now time.Time) bool {
	if !r.Active || !now.Before(r.EndsAt) {
		return false
	}
	if r.MaxEntries != nil && r.CurrentEntries >= *r.MaxEntries {
		return false
	}
	return true
}

// RaffleEntry links a user to a raffle with an entry count
type RaffleEntry struct {
	ID         int64     `db:"id"`
	RaffleID   int64     `db:"raffle_id"`
	TelegramID int64     `db:"telegram_id"`
	EntryCount int64     `db:"entry_count"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
