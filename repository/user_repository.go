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

const userColumns = `telegram_id, username, first_name, coins, streak, last_daily_reward,
	       referral_code, referred_by, active, created_at, updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.TelegramID,
		&user.Username,
		&user.FirstName,
		&user.Coins,
		&user.Streak,
		&user.LastDailyReward,
		&user.ReferralCode,
		&user.ReferredBy,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByTelegramID retrieves a user by their Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE telegram_id = $1
	`, userColumns)

	user, err := scanUser(r.q.QueryRow(ctx, query, telegramID))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by telegram ID %d: %w", telegramID, err)
	}
	return user, nil
}

// GetByTelegramIDForUpdate retrieves a user and locks their row for the
// duration of the surrounding transaction. Concurrent operations on the same
// user queue up behind the lock instead of interleaving.
func (r *UserRepository) GetByTelegramIDForUpdate(ctx context.Context, telegramID int64) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE telegram_id = $1
		FOR UPDATE
	`, userColumns)

	user, err := scanUser(r.q.QueryRow(ctx, query, telegramID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", telegramID, err)
	}
	return user, nil
}

// GetByReferralCode retrieves the user owning a referral code
func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE referral_code = $1
	`, userColumns)

	user, err := scanUser(r.q.QueryRow(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by referral code: %w", err)
	}
	return user, nil
}

// Create inserts a new user row
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (telegram_id, username, first_name, coins, streak, referral_code, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.Coins,
		user.Streak,
		user.ReferralCode,
		user.Active,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user with telegram ID %d: %w", user.TelegramID, err)
	}

	return nil
}

// AddCoins adds to a user's balance atomically
func (r *UserRepository) AddCoins(ctx context.Context, telegramID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET coins = coins + $1, updated_at = NOW()
		WHERE telegram_id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, telegramID)
	if err != nil {
		return fmt.Errorf("failed to add coins for user %d: %w", telegramID, err)
	}

	if result.RowsAffected() == 0 {
		return service.ErrUserNotFound
	}

	return nil
}

// DeductCoins deducts from a user's balance atomically, failing if the
// balance would go negative
func (r *UserRepository) DeductCoins(ctx context.Context, telegramID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	// The balance guard in the WHERE clause is what makes this safe under
	// concurrency; callers holding a row lock never hit it, but it protects
	// any path that does not.
	query := `
		UPDATE users
		SET coins = coins - $1, updated_at = NOW()
		WHERE telegram_id = $2 AND coins >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, telegramID)
	if err != nil {
		return fmt.Errorf("failed to deduct coins for user %d: %w", telegramID, err)
	}

	if result.RowsAffected() == 0 {
		user, err := r.GetByTelegramID(ctx, telegramID)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if user == nil {
			return service.ErrUserNotFound
		}
		return service.ErrInsufficientBalance
	}

	return nil
}

// ApplyDailyReward credits the daily amount and updates streak bookkeeping in
// a single statement
func (r *UserRepository) ApplyDailyReward(ctx context.Context, telegramID int64, amount int64, newStreak int, claimedAt time.Time) error {
	query := `
		UPDATE users
		SET coins = coins + $1,
		    streak = $2,
		    last_daily_reward = $3,
		    updated_at = NOW()
		WHERE telegram_id = $4
	`

	result, err := r.q.Exec(ctx, query, amount, newStreak, claimedAt, telegramID)
	if err != nil {
		return fmt.Errorf("failed to apply daily reward for user %d: %w", telegramID, err)
	}

	if result.RowsAffected() == 0 {
		return service.ErrUserNotFound
	}

	return nil
}

// SetReferredBy records the referral attribution exactly once. The NULL guard
// makes the write idempotent-safe under races: the second writer affects zero
// rows and gets the already-referred error.
func (r *UserRepository) SetReferredBy(ctx context.Context, telegramID int64, code string) error {
	query := `
		UPDATE users
		SET referred_by = $1, updated_at = NOW()
		WHERE telegram_id = $2 AND referred_by IS NULL
	`

	result, err := r.q.Exec(ctx, query, code, telegramID)
	if err != nil {
		return fmt.Errorf("failed to set referrer for user %d: %w", telegramID, err)
	}

	if result.RowsAffected() == 0 {
		user, err := r.GetByTelegramID(ctx, telegramID)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if user == nil {
			return service.ErrUserNotFound
		}
		return service.ErrAlreadyReferred
	}

	return nil
}

// ListActive returns all users still reachable for broadcasts
func (r *UserRepository) ListActive(ctx context.Context) ([]*models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users
		WHERE active
		ORDER BY created_at
	`, userColumns)

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.TelegramID,
			&user.Username,
			&user.FirstName,
			&user.Coins,
			&user.Streak,
			&user.LastDailyReward,
			&user.ReferralCode,
			&user.ReferredBy,
			&user.Active,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// MarkInactive flags a user as unreachable
func (r *UserRepository) MarkInactive(ctx context.Context, telegramID int64) error {
	query := `
		UPDATE users
		SET active = FALSE, updated_at = NOW()
		WHERE telegram_id = $1
	`

	result, err := r.q.Exec(ctx, query, telegramID)
	if err != nil {
		return fmt.Errorf("failed to mark user %d inactive: %w", telegramID, err)
	}

	if result.RowsAffected() == 0 {
		return service.ErrUserNotFound
	}

	return nil
}
