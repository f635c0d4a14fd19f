package service

import (
	"context"
	"testing"

	"coinbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type shopMocks struct {
	uow      *MockUnitOfWork
	factory  *MockUnitOfWorkFactory
	userRepo *MockUserRepository
	txRepo   *MockTransactionRepository
	shopRepo *MockShopRepository
	eventBus *MockEventPublisher
}

func setupShopMocks(ctx context.Context) *shopMocks {
	m := &shopMocks{
		uow:      new(MockUnitOfWork),
		factory:  new(MockUnitOfWorkFactory),
		userRepo: new(MockUserRepository),
		txRepo:   new(MockTransactionRepository),
		shopRepo: new(MockShopRepository),
		eventBus: new(MockEventPublisher),
	}
	m.uow.SetRepositories(m.userRepo, m.txRepo, nil, m.shopRepo, nil, m.eventBus)
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	return m
}

func TestShopService_PurchaseItem_Success(t *testing.T) {
	ctx := context.Background()

	m := setupShopMocks(ctx)
	m.uow.On("Commit").Return(nil)

	stock := int64(5)
	user := &models.User{TelegramID: 123456, Coins: 100}
	item := &models.ShopItem{ID: 3, Name: "Sticker pack", Cost: 20, Stock: &stock, Active: true}

	m.userRepo.On("GetByTelegramIDForUpdate", ctx, int64(123456)).Return(user, nil)
	m.shopRepo.On("GetByID", ctx, int64(3)).Return(item, nil)
	m.shopRepo.On("DecrementStock", ctx, int64(3), int64(2)).Return(nil)
	m.userRepo.On("DeductCoins", ctx, int64(123456), int64(40)).Return(nil)
	m.shopRepo.On("CreatePurchase", ctx, mock.MatchedBy(func(p *models.Purchase) bool {
		return p.TelegramID == 123456 &&
			p.ItemID == 3 &&
			p.Quantity == 2 &&
			p.TotalCost == 40 &&
			p.Status == models.PurchaseStatusCompleted
	})).Return(nil)
	m.txRepo.On("Record", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
		return tx.Type == models.TransactionTypeShopPurchase && tx.Amount == -40
	})).Return(nil)
	m.eventBus.On("Publish", mock.Anything).Return()

	svc := NewShopService(m.factory)
	receipt, err := svc.PurchaseItem(ctx, 123456, 3, 2)

	assert.NoError(t, err)
	assert.Equal(t, int64(60), receipt.NewBalance)
	assert.Equal(t, int64(40), receipt.Purchase.TotalCost)

	m.uow.AssertExpectations(t)
	m.shopRepo.AssertExpectations(t)
	m.userRepo.AssertExpectations(t)
}

func TestShopService_PurchaseItem_OutOfStockBeforeBalance(t *testing.T) {
	ctx := context.Background()

	m := setupShopMocks(ctx)

	// The user cannot afford the item either; stock exhaustion must win
	stock := int64(0)
	user := &models.User{TelegramID: 123456, Coins: 1}
	item := &models.ShopItem{ID: 3, Cost: 20, Stock: &stock, Active: true}

	m.userRepo.On("GetByTelegramIDForUpdate", ctx, int64(123456)).Return(user, nil)
	m.shopRepo.On("GetByID", ctx, int64(3)).Return(item, nil)

	svc := NewShopService(m.factory)
	receipt, err := svc.PurchaseItem(ctx, 123456, 3, 1)

	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Nil(t, receipt)
	m.userRepo.AssertNotCalled(t, "DeductCoins")
	m.shopRepo.AssertNotCalled(t, "DecrementStock")
	m.uow.AssertNotCalled(t, "Commit")
}

func TestShopService_PurchaseItem_InsufficientBalance(t *testing.T) {
	ctx := context.Background()

	m := setupShopMocks(ctx)

	user := &models.User{TelegramID: 123456, Coins: 10}
	item := &models.ShopItem{ID: 3, Cost: 20, Active: true}

	m.userRepo.On("GetByTelegramIDForUpdate", ctx, int64(123456)).Return(user, nil)
	m.shopRepo.On("GetByID", ctx, int64(3)).Return(item, nil)

	svc := NewShopService(m.factory)
	receipt, err := svc.PurchaseItem(ctx, 123456, 3, 1)

	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Nil(t, receipt)
	m.shopRepo.AssertNotCalled(t, "DecrementStock")
}

func TestShopService_PurchaseItem_UnlimitedStock(t *testing.T) {
	ctx := context.Background()

	m := setupShopMocks(ctx)
	m.uow.On("Commit").Return(nil)

	user := &models.User{TelegramID: 123456, Coins: 100}
	item := &models.ShopItem{ID: 3, Name: "Role color", Cost: 20, Active: true}

	m.userRepo.On("GetByTelegramIDForUpdate", ctx, int64(123456)).Return(user, nil)
	m.shopRepo.On("GetByID", ctx, int64(3)).Return(item, nil)
	m.shopRepo.On("DecrementStock", ctx, int64(3), int64(1)).Return(nil)
	m.userRepo.On("DeductCoins", ctx, int64(123456), int64(20)).Return(nil)
	m.shopRepo.On("CreatePurchase", ctx, mock.Anything).Return(nil)
	m.txRepo.On("Record", ctx, mock.Anything).Return(nil)
	m.eventBus.On("Publish", mock.Anything).Return()

	svc := NewShopService(m.factory)
	receipt, err := svc.PurchaseItem(ctx, 123456, 3, 1)

	assert.NoError(t, err)
	assert.Equal(t, int64(80), receipt.NewBalance)
}

func TestShopService_PurchaseItem_InactiveItem(t *testing.T) {
	ctx := context.Background()

	m := setupShopMocks(ctx)

	user := &models.User{TelegramID: 123456, Coins: 100}
	item := &models.ShopItem{ID: 3, Cost: 20, Active: false}

	m.userRepo.On("GetByTelegramIDForUpdate", ctx, int64(123456)).Return(user, nil)
	m.shopRepo.On("GetByID", ctx, int64(3)).Return(item, nil)

	svc := NewShopService(m.factory)
	receipt, err := svc.PurchaseItem(ctx, 123456, 3, 1)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, receipt)
}

func TestShopService_PurchaseItem_InvalidQuantity(t *testing.T) {
	ctx := context.Background()

	m := setupShopMocks(ctx)

	svc := NewShopService(m.factory)
	receipt, err := svc.PurchaseItem(ctx, 123456, 3, 0)

	assert.Error(t, err)
	assert.Nil(t, receipt)
	m.factory.AssertNotCalled(t, "Create")
}

func TestShopService_ListItems(t *testing.T) {
	ctx := context.Background()

	m := setupShopMocks(ctx)
	items := []*models.ShopItem{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
	m.shopRepo.On("ListActive", ctx).Return(items, nil)

	svc := NewShopService(m.factory)
	got, err := svc.ListItems(ctx)

	assert.NoError(t, err)
	assert.Len(t, got, 2)
}
