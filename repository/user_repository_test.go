package repository

import (
	"context"
	"testing"
	"time"

	"coinbot/repository/testutil"
	"coinbot/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("absent user returns nil", func(t *testing.T) {
		user, err := repo.GetByTelegramID(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("create then get", func(t *testing.T) {
		original := testutil.CreateTestUserWithCoins(100, "alice", 50)
		err := repo.Create(ctx, original)
		require.NoError(t, err)
		assert.False(t, original.CreatedAt.IsZero())

		user, err := repo.GetByTelegramID(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, int64(50), user.Coins)
		assert.Equal(t, 0, user.Streak)
		assert.Nil(t, user.LastDailyReward)
		assert.Nil(t, user.ReferredBy)
		assert.True(t, user.Active)
	})

	t.Run("get by referral code", func(t *testing.T) {
		created := testutil.CreateTestUser(101, "bob")
		require.NoError(t, repo.Create(ctx, created))

		user, err := repo.GetByReferralCode(ctx, created.ReferralCode)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, int64(101), user.TelegramID)

		missing, err := repo.GetByReferralCode(ctx, "NOSUCHCODE")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("duplicate referral code rejected", func(t *testing.T) {
		first := testutil.CreateTestUser(102, "carol")
		require.NoError(t, repo.Create(ctx, first))

		dup := testutil.CreateTestUser(103, "dave")
		dup.ReferralCode = first.ReferralCode
		err := repo.Create(ctx, dup)
		assert.Error(t, err)
	})
}

func TestUserRepository_CoinOperations(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user := testutil.CreateTestUserWithCoins(100, "alice", 50)
	require.NoError(t, repo.Create(ctx, user))

	t.Run("add coins", func(t *testing.T) {
		err := repo.AddCoins(ctx, 100, 25)
		require.NoError(t, err)

		got, err := repo.GetByTelegramID(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(75), got.Coins)
	})

	t.Run("deduct coins", func(t *testing.T) {
		err := repo.DeductCoins(ctx, 100, 30)
		require.NoError(t, err)

		got, err := repo.GetByTelegramID(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(45), got.Coins)
	})

	t.Run("deduct beyond balance fails", func(t *testing.T) {
		err := repo.DeductCoins(ctx, 100, 1000)
		assert.ErrorIs(t, err, service.ErrInsufficientBalance)

		// Balance untouched
		got, err := repo.GetByTelegramID(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(45), got.Coins)
	})

	t.Run("operations on missing user fail", func(t *testing.T) {
		assert.ErrorIs(t, repo.AddCoins(ctx, 999, 10), service.ErrUserNotFound)
		assert.ErrorIs(t, repo.DeductCoins(ctx, 999, 10), service.ErrUserNotFound)
	})
}

func TestUserRepository_ApplyDailyReward(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user := testutil.CreateTestUserWithCoins(100, "alice", 10)
	require.NoError(t, repo.Create(ctx, user))

	claimedAt := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)
	err := repo.ApplyDailyReward(ctx, 100, 10, 4, claimedAt)
	require.NoError(t, err)

	got, err := repo.GetByTelegramID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.Coins)
	assert.Equal(t, 4, got.Streak)
	require.NotNil(t, got.LastDailyReward)
	assert.True(t, got.LastDailyReward.Equal(claimedAt))
}

func TestUserRepository_SetReferredBy(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	referrer := testutil.CreateTestUser(100, "alice")
	referee := testutil.CreateTestUser(200, "bob")
	require.NoError(t, repo.Create(ctx, referrer))
	require.NoError(t, repo.Create(ctx, referee))

	t.Run("first attribution succeeds", func(t *testing.T) {
		err := repo.SetReferredBy(ctx, 200, referrer.ReferralCode)
		require.NoError(t, err)

		got, err := repo.GetByTelegramID(ctx, 200)
		require.NoError(t, err)
		require.NotNil(t, got.ReferredBy)
		assert.Equal(t, referrer.ReferralCode, *got.ReferredBy)
	})

	t.Run("second attribution fails", func(t *testing.T) {
		other := testutil.CreateTestUser(300, "carol")
		require.NoError(t, repo.Create(ctx, other))

		err := repo.SetReferredBy(ctx, 200, other.ReferralCode)
		assert.ErrorIs(t, err, service.ErrAlreadyReferred)

		// The original attribution survives
		got, err := repo.GetByTelegramID(ctx, 200)
		require.NoError(t, err)
		assert.Equal(t, referrer.ReferralCode, *got.ReferredBy)
	})

	t.Run("missing user fails", func(t *testing.T) {
		err := repo.SetReferredBy(ctx, 999, referrer.ReferralCode)
		assert.ErrorIs(t, err, service.ErrUserNotFound)
	})
}

func TestUserRepository_ActiveFlag(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	for id, name := range map[int64]string{100: "alice", 200: "bob", 300: "carol"} {
		require.NoError(t, repo.Create(ctx, testutil.CreateTestUser(id, name)))
	}

	require.NoError(t, repo.MarkInactive(ctx, 200))

	users, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	for _, u := range users {
		assert.NotEqual(t, int64(200), u.TelegramID)
		assert.True(t, u.Active)
	}
}
