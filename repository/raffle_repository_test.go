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

func TestRaffleRepository_CreateAndList(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRaffleRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now()

	t.Run("no raffles lists empty", func(t *testing.T) {
		raffles, err := repo.ListOpen(ctx, now)
		require.NoError(t, err)
		assert.Empty(t, raffles)
	})

	t.Run("open raffles only", func(t *testing.T) {
		open := testutil.CreateTestRaffle("Weekly draw", 25)
		require.NoError(t, repo.Create(ctx, open))
		assert.NotZero(t, open.ID)

		ended := testutil.CreateTestRaffle("Last week", 25)
		ended.EndsAt = now.Add(-time.Hour)
		require.NoError(t, repo.Create(ctx, ended))

		inactive := testutil.CreateTestRaffle("Cancelled draw", 25)
		inactive.Active = false
		require.NoError(t, repo.Create(ctx, inactive))

		raffles, err := repo.ListOpen(ctx, now)
		require.NoError(t, err)
		require.Len(t, raffles, 1)
		assert.Equal(t, open.ID, raffles[0].ID)
		assert.Equal(t, "Weekly draw", raffles[0].Title)
	})

	t.Run("get by id", func(t *testing.T) {
		capped := testutil.CreateTestRaffleWithCap("Capped draw", 10, 50)
		require.NoError(t, repo.Create(ctx, capped))

		got, err := repo.GetByID(ctx, capped.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.MaxEntries)
		assert.Equal(t, int64(50), *got.MaxEntries)
		assert.Equal(t, int64(0), got.CurrentEntries)

		missing, err := repo.GetByID(ctx, 99999)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestRaffleRepository_IncrementEntries(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewRaffleRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now()

	t.Run("increments while open", func(t *testing.T) {
		raffle := testutil.CreateTestRaffle("Weekly draw", 25)
		require.NoError(t, repo.Create(ctx, raffle))

		require.NoError(t, repo.IncrementEntries(ctx, raffle.ID, now))
		require.NoError(t, repo.IncrementEntries(ctx, raffle.ID, now))

		got, err := repo.GetByID(ctx, raffle.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.CurrentEntries)
	})

	t.Run("rejects at capacity", func(t *testing.T) {
		raffle := testutil.CreateTestRaffleWithCap("Tiny draw", 10, 2)
		require.NoError(t, repo.Create(ctx, raffle))

		require.NoError(t, repo.IncrementEntries(ctx, raffle.ID, now))
		require.NoError(t, repo.IncrementEntries(ctx, raffle.ID, now))

		err := repo.IncrementEntries(ctx, raffle.ID, now)
		assert.ErrorIs(t, err, service.ErrRaffleClosed)

		got, err := repo.GetByID(ctx, raffle.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.CurrentEntries)
	})

	t.Run("rejects after end time", func(t *testing.T) {
		raffle := testutil.CreateTestRaffle("Short draw", 10)
		require.NoError(t, repo.Create(ctx, raffle))

		err := repo.IncrementEntries(ctx, raffle.ID, raffle.EndsAt.Add(time.Minute))
		assert.ErrorIs(t, err, service.ErrRaffleClosed)
	})

	t.Run("missing raffle", func(t *testing.T) {
		err := repo.IncrementEntries(ctx, 99999, now)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestRaffleRepository_Entries(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	userRepo := NewUserRepository(testDB.DB)
	repo := NewRaffleRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, userRepo.Create(ctx, testutil.CreateTestUser(100, "alice")))
	raffle := testutil.CreateTestRaffle("Weekly draw", 25)
	require.NoError(t, repo.Create(ctx, raffle))

	t.Run("no entry yet", func(t *testing.T) {
		entry, err := repo.GetEntry(ctx, raffle.ID, 100)
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("first entry creates the record", func(t *testing.T) {
		entry, err := repo.AddEntry(ctx, raffle.ID, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(1), entry.EntryCount)
	})

	t.Run("repeat entry increments the count", func(t *testing.T) {
		entry, err := repo.AddEntry(ctx, raffle.ID, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(2), entry.EntryCount)

		got, err := repo.GetEntry(ctx, raffle.ID, 100)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, int64(2), got.EntryCount)
	})
}
