package repository

import (
	"context"
	"fmt"
	"time"

	"coinbot/database"
	"coinbot/models"
	"coinbot/service"

	"github.com/jackc/pgx/v5"
)

// RaffleRepository implements the RaffleRepository interface
type RaffleRepository struct {
	q queryable
}

// NewRaffleRepository creates a new raffle repository
func NewRaffleRepository(db *database.DB) *RaffleRepository {
	return &RaffleRepository{q: db.Pool}
}

// newRaffleRepositoryWithTx creates a new raffle repository with a transaction
func newRaffleRepositoryWithTx(tx queryable) *RaffleRepository {
	return &RaffleRepository{q: tx}
}

// ListOpen returns active raffles that have not ended, ordered by id
func (r *RaffleRepository) ListOpen(ctx context.Context, now time.Time) ([]*models.Raffle, error) {
	query := `
		SELECT id, title, prize, entry_cost, current_entries, max_entries, ends_at, active, created_at
		FROM raffles
		WHERE active AND ends_at > $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list open raffles: %w", err)
	}
	defer rows.Close()

	var raffles []*models.Raffle
	for rows.Next() {
		var raffle models.Raffle
		err := rows.Scan(
			&raffle.ID,
			&raffle.Title,
			&raffle.Prize,
			&raffle.EntryCost,
			&raffle.CurrentEntries,
			&raffle.MaxEntries,
			&raffle.EndsAt,
			&raffle.Active,
			&raffle.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan raffle: %w", err)
		}
		raffles = append(raffles, &raffle)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate raffles: %w", err)
	}

	return raffles, nil
}

// GetByID retrieves a raffle by id
func (r *RaffleRepository) GetByID(ctx context.Context, id int64) (*models.Raffle, error) {
	query := `
		SELECT id, title, prize, entry_cost, current_entries, max_entries, ends_at, active, created_at
		FROM raffles
		WHERE id = $1
	`

	var raffle models.Raffle
	err := r.q.QueryRow(ctx, query, id).Scan(
		&raffle.ID,
		&raffle.Title,
		&raffle.Prize,
		&raffle.EntryCost,
		&raffle.CurrentEntries,
		&raffle.MaxEntries,
		&raffle.EndsAt,
		&raffle.Active,
		&raffle.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get raffle %d: %w", id, err)
	}

	return &raffle, nil
}

// Create inserts a new raffle
func (r *RaffleRepository) Create(ctx context.Context, raffle *models.Raffle) error {
	query := `
		INSERT INTO raffles (title, prize, entry_cost, max_entries, ends_at, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		raffle.Title,
		raffle.Prize,
		raffle.EntryCost,
		raffle.MaxEntries,
		raffle.EndsAt,
		raffle.Active,
	).Scan(&raffle.ID, &raffle.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create raffle: %w", err)
	}

	return nil
}

// IncrementEntries bumps current_entries under the raffle's openness
// conditions. The guards are in the WHERE clause so a concurrent close or a
// filled capacity makes the update affect zero rows.
func (r *RaffleRepository) IncrementEntries(ctx context.Context, id int64, now time.Time) error {
	query := `
		UPDATE raffles
		SET current_entries = current_entries + 1
		WHERE id = $1
		  AND active
		  AND ends_at > $2
		  AND (max_entries IS NULL OR current_entries < max_entries)
	`

	result, err := r.q.Exec(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("failed to increment entries for raffle %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		raffle, err := r.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check raffle: %w", err)
		}
		if raffle == nil {
			return service.ErrNotFound
		}
		return service.ErrRaffleClosed
	}

	return nil
}

// AddEntry creates or increments the user's entry record for a raffle
func (r *RaffleRepository) AddEntry(ctx context.Context, raffleID, telegramID int64) (*models.RaffleEntry, error) {
	query := `
		INSERT INTO raffle_entries (raffle_id, telegram_id, entry_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (raffle_id, telegram_id)
		DO UPDATE SET entry_count = raffle_entries.entry_count + 1, updated_at = NOW()
		RETURNING id, raffle_id, telegram_id, entry_count, created_at, updated_at
	`

	var entry models.RaffleEntry
	err := r.q.QueryRow(ctx, query, raffleID, telegramID).Scan(
		&entry.ID,
		&entry.RaffleID,
		&entry.TelegramID,
		&entry.EntryCount,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to add entry for raffle %d user %d: %w", raffleID, telegramID, err)
	}

	return &entry, nil
}

// GetEntry returns the user's entry record for a raffle
func (r *RaffleRepository) GetEntry(ctx context.Context, raffleID, telegramID int64) (*models.RaffleEntry, error) {
	query := `
		SELECT id, raffle_id, telegram_id, entry_count, created_at, updated_at
		FROM raffle_entries
		WHERE raffle_id = $1 AND telegram_id = $2
	`

	var entry models.RaffleEntry
	err := r.q.QueryRow(ctx, query, raffleID, telegramID).Scan(
		&entry.ID,
		&entry.RaffleID,
		&entry.TelegramID,
		&entry.EntryCount,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry for raffle %d user %d: %w", raffleID, telegramID, err)
	}

	return &entry, nil
}
