package repository

import (
	"context"
	"testing"

	"coinbot/models"
	"coinbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRepository_Record(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	userRepo := NewUserRepository(testDB.DB)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, userRepo.Create(ctx, testutil.CreateTestUser(100, "alice")))

	t.Run("record assigns id and timestamp", func(t *testing.T) {
		tx := testutil.CreateTestTransaction(100, models.TransactionTypeDailyReward, 10)
		err := repo.Record(ctx, tx)
		require.NoError(t, err)
		assert.NotZero(t, tx.ID)
		assert.False(t, tx.CreatedAt.IsZero())
	})

	t.Run("metadata survives a round trip", func(t *testing.T) {
		tx := &models.Transaction{
			TelegramID:  100,
			Type:        models.TransactionTypeRaffleEntry,
			Amount:      -25,
			Description: "Raffle entry: Weekly draw",
			Metadata: map[string]any{
				"raffle_id": float64(7),
			},
		}
		require.NoError(t, repo.Record(ctx, tx))

		recent, err := repo.GetRecentByUser(ctx, 100, 1)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, tx.Metadata, recent[0].Metadata)
	})

	t.Run("unknown user violates foreign key", func(t *testing.T) {
		tx := testutil.CreateTestTransaction(999, models.TransactionTypeDailyReward, 10)
		assert.Error(t, repo.Record(ctx, tx))
	})
}

func TestTransactionRepository_GetRecentByUser(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	userRepo := NewUserRepository(testDB.DB)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, userRepo.Create(ctx, testutil.CreateTestUser(100, "alice")))
	require.NoError(t, userRepo.Create(ctx, testutil.CreateTestUser(200, "bob")))

	amounts := []int64{10, 20, 30, 40}
	for _, amount := range amounts {
		tx := testutil.CreateTestTransaction(100, models.TransactionTypeDailyReward, amount)
		require.NoError(t, repo.Record(ctx, tx))
	}
	require.NoError(t, repo.Record(ctx, testutil.CreateTestTransaction(200, models.TransactionTypeDailyReward, 99)))

	t.Run("newest first with limit", func(t *testing.T) {
		recent, err := repo.GetRecentByUser(ctx, 100, 3)
		require.NoError(t, err)
		require.Len(t, recent, 3)
		assert.Equal(t, int64(40), recent[0].Amount)
		assert.Equal(t, int64(30), recent[1].Amount)
		assert.Equal(t, int64(20), recent[2].Amount)
	})

	t.Run("scoped to the user", func(t *testing.T) {
		recent, err := repo.GetRecentByUser(ctx, 200, 10)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, int64(99), recent[0].Amount)
	})

	t.Run("empty for user with no entries", func(t *testing.T) {
		recent, err := repo.GetRecentByUser(ctx, 999, 10)
		require.NoError(t, err)
		assert.Empty(t, recent)
	})
}

func TestTransactionRepository_SumByUser(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	userRepo := NewUserRepository(testDB.DB)
	repo := NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, userRepo.Create(ctx, testutil.CreateTestUserWithCoins(100, "alice", 0)))

	t.Run("no entries sums to zero", func(t *testing.T) {
		sum, err := repo.SumByUser(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(0), sum)
	})

	t.Run("sum tracks the balance", func(t *testing.T) {
		entries := []struct {
			txType models.TransactionType
			amount int64
		}{
			{models.TransactionTypeDailyReward, 10},
			{models.TransactionTypeReferral, 5},
			{models.TransactionTypeRaffleEntry, -8},
		}
		var balance int64
		for _, e := range entries {
			require.NoError(t, repo.Record(ctx, testutil.CreateTestTransaction(100, e.txType, e.amount)))
			if e.amount >= 0 {
				require.NoError(t, userRepo.AddCoins(ctx, 100, e.amount))
			} else {
				require.NoError(t, userRepo.DeductCoins(ctx, 100, -e.amount))
			}
			balance += e.amount
		}

		sum, err := repo.SumByUser(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, balance, sum)

		user, err := userRepo.GetByTelegramID(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, user.Coins, sum)
	})
}
