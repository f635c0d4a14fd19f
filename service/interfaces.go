package service

import (
	"context"
	"time"

	"coinbot/events"
	"coinbot/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByTelegramID retrieves a user by their Telegram ID, nil if absent
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)

	// GetByTelegramIDForUpdate retrieves a user and locks their row for the
	// duration of the surrounding transaction
	GetByTelegramIDForUpdate(ctx context.Context, telegramID int64) (*models.User, error)

	// GetByReferralCode retrieves the user owning a referral code, nil if absent
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)

	// Create inserts a new user row
	Create(ctx context.Context, user *models.User) error

	// AddCoins adds to a user's balance atomically
	AddCoins(ctx context.Context, telegramID int64, amount int64) error

	// DeductCoins deducts from a user's balance atomically, failing with
	// ErrInsufficientBalance when the balance would go negative
	DeductCoins(ctx context.Context, telegramID int64, amount int64) error

	// ApplyDailyReward credits the daily amount and updates streak bookkeeping
	// in a single statement
	ApplyDailyReward(ctx context.Context, telegramID int64, amount int64, newStreak int, claimedAt time.Time) error

	// SetReferredBy records the referral attribution exactly once, failing
	// with ErrAlreadyReferred when it is already set
	SetReferredBy(ctx context.Context, telegramID int64, code string) error

	// ListActive returns all users still reachable for broadcasts
	ListActive(ctx context.Context) ([]*models.User, error)

	// MarkInactive flags a user as unreachable
	MarkInactive(ctx context.Context, telegramID int64) error
}

// TransactionRepository defines the interface for the append-only ledger log
type TransactionRepository interface {
	// Record appends a new transaction entry
	Record(ctx context.Context, tx *models.Transaction) error

	// GetRecentByUser returns the newest transactions for a user
	GetRecentByUser(ctx context.Context, telegramID int64, limit int) ([]*models.Transaction, error)

	// SumByUser returns the sum of all transaction amounts for a user
	SumByUser(ctx context.Context, telegramID int64) (int64, error)
}

// RaffleRepository defines the interface for raffle data access
type RaffleRepository interface {
	// ListOpen returns active raffles that have not ended, ordered by id
	ListOpen(ctx context.Context, now time.Time) ([]*models.Raffle, error)

	// GetByID retrieves a raffle by id, nil if absent
	GetByID(ctx context.Context, id int64) (*models.Raffle, error)

	// Create inserts a new raffle
	Create(ctx context.Context, raffle *models.Raffle) error

	// IncrementEntries bumps current_entries, failing with ErrRaffleClosed
	// when the raffle is inactive, ended or at max entries
	IncrementEntries(ctx context.Context, id int64, now time.Time) error

	// AddEntry creates or increments the user's entry record for a raffle
	AddEntry(ctx context.Context, raffleID, telegramID int64) (*models.RaffleEntry, error)

	// GetEntry returns the user's entry record for a raffle, nil if absent
	GetEntry(ctx context.Context, raffleID, telegramID int64) (*models.RaffleEntry, error)
}

// ShopRepository defines the interface for shop data access
type ShopRepository interface {
	// ListActive returns active shop items ordered by id
	ListActive(ctx context.Context) ([]*models.ShopItem, error)

	// GetByID retrieves an item by id, nil if absent
	GetByID(ctx context.Context, id int64) (*models.ShopItem, error)

	// CreateItem inserts a new shop item
	CreateItem(ctx context.Context, item *models.ShopItem) error

	// DecrementStock reduces tracked stock, failing with ErrOutOfStock when
	// not enough remains; unlimited (NULL) stock is left untouched
	DecrementStock(ctx context.Context, id int64, quantity int64) error

	// CreatePurchase inserts a purchase record
	CreatePurchase(ctx context.Context, purchase *models.Purchase) error

	// GetPurchasesByUser returns the newest purchases for a user
	GetPurchasesByUser(ctx context.Context, telegramID int64, limit int) ([]*models.Purchase, error)
}

// SettingRepository defines the interface for bot settings access
type SettingRepository interface {
	// Get retrieves a setting by key, nil if absent
	Get(ctx context.Context, key string) (*models.BotSetting, error)

	// Set upserts a setting
	Set(ctx context.Context, key, value string) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	TransactionRepository() TransactionRepository
	RaffleRepository() RaffleRepository
	ShopRepository() ShopRepository
	SettingRepository() SettingRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// DailyClaimResult is returned by a successful daily claim
type DailyClaimResult struct {
	User   *models.User
	Amount int64
}

// ReferralResult is returned by a successful referral redemption
type ReferralResult struct {
	Referee  *models.User
	Referrer *models.User
	Amount   int64
}

// RaffleReceipt is returned by a successful raffle entry
type RaffleReceipt struct {
	Raffle     *models.Raffle
	Entry      *models.RaffleEntry
	NewBalance int64
}

// PurchaseReceipt is returned by a successful shop purchase
type PurchaseReceipt struct {
	Item       *models.ShopItem
	Purchase   *models.Purchase
	NewBalance int64
}

// BroadcastReport summarizes a finished broadcast batch
type BroadcastReport struct {
	Sent   int
	Failed int
}

// UserService defines the interface for user operations
type UserService interface {
	// GetOrCreateUser retrieves an existing user or registers a new one,
	// assigning a referral code and crediting the signup bonus if configured
	GetOrCreateUser(ctx context.Context, telegramID int64, username, firstName string) (*models.User, error)

	// GetUser retrieves an existing user, failing with ErrUserNotFound
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)

	// RecentTransactions returns the newest ledger entries for a user
	RecentTransactions(ctx context.Context, telegramID int64, limit int) ([]*models.Transaction, error)
}

// RewardService defines the interface for daily and referral rewards
type RewardService interface {
	// ClaimDaily credits the configured daily amount once per civil day
	ClaimDaily(ctx context.Context, telegramID int64) (*DailyClaimResult, error)

	// RedeemReferralCode attributes the referee to the code owner and credits
	// both sides the configured referral amount
	RedeemReferralCode(ctx context.Context, refereeID int64, code string) (*ReferralResult, error)
}

// RaffleService defines the interface for raffle operations
type RaffleService interface {
	// ListOpenRaffles returns raffles currently accepting entries
	ListOpenRaffles(ctx context.Context) ([]*models.Raffle, error)

	// EnterRaffle debits the entry cost and records one entry
	EnterRaffle(ctx context.Context, telegramID, raffleID int64) (*RaffleReceipt, error)
}

// ShopService defines the interface for shop operations
type ShopService interface {
	// ListItems returns active shop items
	ListItems(ctx context.Context) ([]*models.ShopItem, error)

	// PurchaseItem debits the cost and records a completed purchase
	PurchaseItem(ctx context.Context, telegramID, itemID, quantity int64) (*PurchaseReceipt, error)
}

// SettingsService defines the interface for tunable bot settings
type SettingsService interface {
	// GetInt64 returns the stored value for key, or fallback when absent or
	// unparseable
	GetInt64(ctx context.Context, key string, fallback int64) (int64, error)

	// Set stores a value for key
	Set(ctx context.Context, key, value string) error
}

// MessageSender abstracts the outbound side of the transport for services
// that push messages without an inbound event
type MessageSender interface {
	SendText(chatID int64, text string) error
}

// BroadcastService defines the interface for paced all-user broadcasts
type BroadcastService interface {
	// Broadcast sends text to every active user, pacing sends and counting
	// per-recipient failures without aborting the batch
	Broadcast(ctx context.Context, text string) (*BroadcastReport, error)
}
