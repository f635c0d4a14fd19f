package service

import (
	"context"
	"fmt"

	"coinbot/events"
	"coinbot/models"
)

type shopService struct {
	uowFactory UnitOfWorkFactory
}

// NewShopService creates a new shop service
func NewShopService(uowFactory UnitOfWorkFactory) ShopService {
	return &shopService{uowFactory: uowFactory}
}

// ListItems returns active shop items
func (s *shopService) ListItems(ctx context.Context) ([]*models.ShopItem, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	items, err := uow.ShopRepository().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shop items: %w", err)
	}

	return items, nil
}

// PurchaseItem debits the cost and records a completed purchase. Stock is
// checked before the balance, so a sold-out item reports out of stock even
// when the buyer could not afford it either.
func (s *shopService) PurchaseItem(ctx context.Context, telegramID, itemID, quantity int64) (*PurchaseReceipt, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByTelegramIDForUpdate(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	item, err := uow.ShopRepository().GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop item: %w", err)
	}
	if item == nil || !item.Active {
		return nil, ErrNotFound
	}

	if !item.InStock(quantity) {
		return nil, ErrOutOfStock
	}

	totalCost := item.Cost * quantity
	if user.Coins < totalCost {
		return nil, ErrInsufficientBalance
	}

	// The conditional decrement re-checks stock under concurrency; the
	// InStock call above only orders the rejection ahead of the balance one.
	if err := uow.ShopRepository().DecrementStock(ctx, itemID, quantity); err != nil {
		return nil, err
	}

	if err := uow.UserRepository().DeductCoins(ctx, telegramID, totalCost); err != nil {
		return nil, err
	}

	purchase := &models.Purchase{
		TelegramID: telegramID,
		ItemID:     itemID,
		Quantity:   quantity,
		TotalCost:  totalCost,
		Status:     models.PurchaseStatusCompleted,
	}
	if err := uow.ShopRepository().CreatePurchase(ctx, purchase); err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	tx := &models.Transaction{
		TelegramID:  telegramID,
		Type:        models.TransactionTypeShopPurchase,
		Amount:      -totalCost,
		Description: fmt.Sprintf("Shop purchase: %s x%d", item.Name, quantity),
		Metadata: map[string]any{
			"item_id":  itemID,
			"quantity": quantity,
		},
	}
	if err := RecordLedgerChange(ctx, uow, tx, user.Coins); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.PurchaseCompletedEvent{
		ItemID:     itemID,
		TelegramID: telegramID,
		Quantity:   quantity,
		TotalCost:  totalCost,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &PurchaseReceipt{
		Item:       item,
		Purchase:   purchase,
		NewBalance: user.Coins - totalCost,
	}, nil
}
