package repository

import (
	"context"
	"fmt"

	"coinbot/database"
	"coinbot/models"
	"coinbot/service"

	"github.com/jackc/pgx/v5"
)

// ShopRepository implements the ShopRepository interface
type ShopRepository struct {
	q queryable
}

// NewShopRepository creates a new shop repository
func NewShopRepository(db *database.DB) *ShopRepository {
	return &ShopRepository{q: db.Pool}
}

// newShopRepositoryWithTx creates a new shop repository with a transaction
func newShopRepositoryWithTx(tx queryable) *ShopRepository {
	return &ShopRepository{q: tx}
}

// ListActive returns active shop items ordered by id
func (r *ShopRepository) ListActive(ctx context.Context) ([]*models.ShopItem, error) {
	query := `
		SELECT id, name, description, cost, stock, active, created_at
		FROM shop_items
		WHERE active
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list shop items: %w", err)
	}
	defer rows.Close()

	var items []*models.ShopItem
	for rows.Next() {
		var item models.ShopItem
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Description,
			&item.Cost,
			&item.Stock,
			&item.Active,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shop item: %w", err)
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shop items: %w", err)
	}

	return items, nil
}

// GetByID retrieves an item by id
func (r *ShopRepository) GetByID(ctx context.Context, id int64) (*models.ShopItem, error) {
	query := `
		SELECT id, name, description, cost, stock, active, created_at
		FROM shop_items
		WHERE id = $1
	`

	var item models.ShopItem
	err := r.q.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.Cost,
		&item.Stock,
		&item.Active,
		&item.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop item %d: %w", id, err)
	}

	return &item, nil
}

// CreateItem inserts a new shop item
func (r *ShopRepository) CreateItem(ctx context.Context, item *models.ShopItem) error {
	query := `
		INSERT INTO shop_items (name, description, cost, stock, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		item.Name,
		item.Description,
		item.Cost,
		item.Stock,
		item.Active,
	).Scan(&item.ID, &item.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create shop item: %w", err)
	}

	return nil
}

// DecrementStock reduces tracked stock by quantity. Items with NULL stock are
// unlimited and always succeed without a write.
func (r *ShopRepository) DecrementStock(ctx context.Context, id int64, quantity int64) error {
	query := `
		UPDATE shop_items
		SET stock = CASE WHEN stock IS NULL THEN NULL ELSE stock - $1 END
		WHERE id = $2
		  AND active
		  AND (stock IS NULL OR stock >= $1)
	`

	result, err := r.q.Exec(ctx, query, quantity, id)
	if err != nil {
		return fmt.Errorf("failed to decrement stock for item %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		item, err := r.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check shop item: %w", err)
		}
		if item == nil || !item.Active {
			return service.ErrNotFound
		}
		return service.ErrOutOfStock
	}

	return nil
}

// CreatePurchase inserts a purchase record
func (r *ShopRepository) CreatePurchase(ctx context.Context, purchase *models.Purchase) error {
	query := `
		INSERT INTO purchases (telegram_id, item_id, quantity, total_cost, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		purchase.TelegramID,
		purchase.ItemID,
		purchase.Quantity,
		purchase.TotalCost,
		purchase.Status,
	).Scan(&purchase.ID, &purchase.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create purchase for user %d: %w", purchase.TelegramID, err)
	}

	return nil
}

// GetPurchasesByUser returns the newest purchases for a user
func (r *ShopRepository) GetPurchasesByUser(ctx context.Context, telegramID int64, limit int) ([]*models.Purchase, error) {
	query := `
		SELECT id, telegram_id, item_id, quantity, total_cost, status, created_at
		FROM purchases
		WHERE telegram_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, telegramID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchases for user %d: %w", telegramID, err)
	}
	defer rows.Close()

	var purchases []*models.Purchase
	for rows.Next() {
		var purchase models.Purchase
		err := rows.Scan(
			&purchase.ID,
			&purchase.TelegramID,
			&purchase.ItemID,
			&purchase.Quantity,
			&purchase.TotalCost,
			&purchase.Status,
			&purchase.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, &purchase)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate purchases: %w", err)
	}

	return purchases, nil
}
