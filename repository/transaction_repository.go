package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"coinbot/database"
	"coinbot/models"
)

// TransactionRepository implements the TransactionRepository interface
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepositoryWithTx creates a new transaction repository with a transaction
func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

// Record appends a new transaction entry
func (r *TransactionRepository) Record(ctx context.Context, tx *models.Transaction) error {
	metadataJSON, err := json.Marshal(tx.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	query := `
		INSERT INTO transactions (telegram_id, type, amount, description, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		tx.TelegramID,
		tx.Type,
		tx.Amount,
		tx.Description,
		metadataJSON,
	).Scan(&tx.ID, &tx.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record transaction for user %d: %w", tx.TelegramID, err)
	}

	return nil
}

// GetRecentByUser returns the newest transactions for a user
func (r *TransactionRepository) GetRecentByUser(ctx context.Context, telegramID int64, limit int) ([]*models.Transaction, error) {
	query := `
		SELECT id, telegram_id, type, amount, description, metadata, created_at
		FROM transactions
		WHERE telegram_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, telegramID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for user %d: %w", telegramID, err)
	}
	defer rows.Close()

	var txs []*models.Transaction
	for rows.Next() {
		var tx models.Transaction
		var metadataJSON []byte

		err := rows.Scan(
			&tx.ID,
			&tx.TelegramID,
			&tx.Type,
			&tx.Amount,
			&tx.Description,
			&metadataJSON,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &tx.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
			}
		}

		txs = append(txs, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txs, nil
}

// SumByUser returns the sum of all transaction amounts for a user. For a
// consistent ledger this always equals the user's coin balance.
func (r *TransactionRepository) SumByUser(ctx context.Context, telegramID int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE telegram_id = $1
	`

	var sum int64
	if err := r.q.QueryRow(ctx, query, telegramID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum transactions for user %d: %w", telegramID, err)
	}

	return sum, nil
}
