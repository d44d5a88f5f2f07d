package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nimasrn/momo-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 10, 16, 30, 51, 0, time.UTC)

func seedTransactions() []*model.Transaction {
	return []*model.Transaction{
		{ID: 1, TransactionType: "receive", Amount: decimal.NewFromInt(2000), Sender: "Jane Smith", Receiver: "You", Timestamp: "2024-05-10T16:30:51"},
		{ID: 2, TransactionType: "payment", Amount: decimal.NewFromInt(1000), Sender: "You", Receiver: "Jane Smith", Timestamp: "2024-05-10T16:31:39"},
		{ID: 5, TransactionType: "airtime", Amount: decimal.NewFromInt(3000), Sender: "You", Receiver: "Airtime", Timestamp: "2024-05-12T11:41:28"},
	}
}

func TestTransactionRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("first id on empty store is 1", func(t *testing.T) {
		repo := NewTransactionRepository(nil, WithClock(func() time.Time { return fixedNow }))

		created, err := repo.Create(ctx, fullPayload("payment", 500, "You", "Shop"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.ID)
		assert.Equal(t, "payment", created.TransactionType)
		assert.True(t, decimal.NewFromInt(500).Equal(created.Amount))
		assert.Equal(t, "2024-05-10T16:30:51.000000Z", created.Timestamp)
		assert.Equal(t, 1, repo.Count())
	})

	t.Run("timestamp is recorded in UTC", func(t *testing.T) {
		nairobi := time.FixedZone("EAT", 3*60*60)
		repo := NewTransactionRepository(nil, WithClock(func() time.Time { return fixedNow.In(nairobi) }))

		created, err := repo.Create(ctx, fullPayload("payment", 500, "You", "Shop"))
		require.NoError(t, err)
		assert.Equal(t, "2024-05-10T16:30:51.000000Z", created.Timestamp)
	})

	t.Run("id follows the maximum seeded id", func(t *testing.T) {
		repo := NewTransactionRepository(seedTransactions())

		created, err := repo.Create(ctx, fullPayload("deposit", 10, "Agent", "You"))
		require.NoError(t, err)
		assert.Equal(t, int64(6), created.ID)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(6), all[len(all)-1].ID)
	})

	t.Run("ids are never reused after deletion", func(t *testing.T) {
		repo := NewTransactionRepository(seedTransactions())

		_, err := repo.Delete(ctx, 5)
		require.NoError(t, err)

		created, err := repo.Create(ctx, fullPayload("deposit", 10, "Agent", "You"))
		require.NoError(t, err)
		assert.Equal(t, int64(6), created.ID)

		_, err = repo.Delete(ctx, 6)
		require.NoError(t, err)

		created, err = repo.Create(ctx, fullPayload("deposit", 10, "Agent", "You"))
		require.NoError(t, err)
		assert.Equal(t, int64(7), created.ID)
	})

	t.Run("missing field is rejected without mutation", func(t *testing.T) {
		repo := NewTransactionRepository(seedTransactions())

		p := fullPayload("deposit", 10, "Agent", "You")
		p.Sender = nil
		_, err := repo.Create(ctx, p)

		var mf *model.MissingFieldError
		require.ErrorAs(t, err, &mf)
		assert.Equal(t, model.FieldSender, mf.Field)
		assert.Equal(t, 3, repo.Count())

		created, err := repo.Create(ctx, fullPayload("deposit", 10, "Agent", "You"))
		require.NoError(t, err)
		assert.Equal(t, int64(6), created.ID)
	})

	t.Run("concurrent creates get distinct ids", func(t *testing.T) {
		repo := NewTransactionRepository(nil)

		const n = 200
		ids := make(chan int64, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				created, err := repo.Create(ctx, fullPayload("transfer", 1, "a", "b"))
				if assert.NoError(t, err) {
					ids <- created.ID
				}
			}()
		}
		wg.Wait()
		close(ids)

		seen := make(map[int64]bool)
		for id := range ids {
			assert.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
		assert.Len(t, seen, n)
		assert.Equal(t, n, repo.Count())
	})
}

func TestTransactionRepository_Get(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(seedTransactions())

	got, err := repo.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "payment", got.TransactionType)

	_, err = repo.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	// returned records are copies
	got.Sender = "mutated"
	again, err := repo.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "You", again.Sender)
}

func TestTransactionRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("insertion order", func(t *testing.T) {
		repo := NewTransactionRepository(seedTransactions())
		_, err := repo.Create(ctx, fullPayload("deposit", 10, "Agent", "You"))
		require.NoError(t, err)

		all, err := repo.List(ctx)
		require.NoError(t, err)
		ids := make([]int64, len(all))
		for i, tx := range all {
			ids[i] = tx.ID
		}
		assert.Equal(t, []int64{1, 2, 5, 6}, ids)
	})

	t.Run("empty store", func(t *testing.T) {
		repo := NewTransactionRepository(nil)
		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
	})

	t.Run("result is not a live view", func(t *testing.T) {
		repo := NewTransactionRepository(seedTransactions())
		all, err := repo.List(ctx)
		require.NoError(t, err)

		_, err = repo.Update(ctx, 1, model.TransactionPayload{Sender: strPtr("Changed")})
		require.NoError(t, err)
		assert.Equal(t, "Jane Smith", all[0].Sender)
	})
}

func TestTransactionRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("only supplied fields change", func(t *testing.T) {
		repo := NewTransactionRepository(seedTransactions())
		before, err := repo.Get(ctx, 1)
		require.NoError(t, err)

		updated, err := repo.Update(ctx, 1, model.TransactionPayload{Amount: amountPtr(999)})
		require.NoError(t, err)

		assert.Equal(t, before.ID, updated.ID)
		assert.Equal(t, before.Timestamp, updated.Timestamp)
		assert.Equal(t, before.TransactionType, updated.TransactionType)
		assert.Equal(t, before.Sender, updated.Sender)
		assert.Equal(t, before.Receiver, updated.Receiver)
		assert.True(t, decimal.NewFromInt(999).Equal(updated.Amount))

		stored, err := repo.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, updated, stored)
	})

	t.Run("empty payload changes nothing", func(t *testing.T) {
		repo := NewTransactionRepository(seedTransactions())
		before, _ := repo.Get(ctx, 2)

		updated, err := repo.Update(ctx, 2, model.TransactionPayload{})
		require.NoError(t, err)
		assert.Equal(t, before, updated)
	})

	t.Run("unknown id", func(t *testing.T) {
		repo := NewTransactionRepository(seedTransactions())
		_, err := repo.Update(ctx, 42, model.TransactionPayload{Sender: strPtr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestTransactionRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(seedTransactions())

	removed, err := repo.Delete(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed.ID)
	assert.Equal(t, "payment", removed.TransactionType)

	_, err = repo.Get(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Delete(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(1), all[0].ID)
	assert.Equal(t, int64(5), all[1].ID)
}

func TestNewTransactionRepository_CopiesSeed(t *testing.T) {
	seed := seedTransactions()
	repo := NewTransactionRepository(seed)

	seed[0].Sender = "mutated outside"
	got, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", got.Sender)
}
