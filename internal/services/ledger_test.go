package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_ClaimForRental(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerService(setupTestDB(t))

	t.Run("unregistered number is created with requested flag", func(t *testing.T) {
		entry, err := ledger.ClaimForRental(ctx, "T1", true)
		require.NoError(t, err)
		assert.Equal(t, "T1", entry.TrolleyNumber)
		assert.True(t, entry.IsOutside)
	})

	t.Run("second claim is rejected", func(t *testing.T) {
		_, err := ledger.ClaimForRental(ctx, "T1", true)
		assert.ErrorIs(t, err, ErrAlreadyOutside)
	})

	t.Run("unregistered number can be created inside", func(t *testing.T) {
		entry, err := ledger.ClaimForRental(ctx, "T2", false)
		require.NoError(t, err)
		assert.False(t, entry.IsOutside)

		entry, err = ledger.ClaimForRental(ctx, "T2", true)
		require.NoError(t, err)
		assert.True(t, entry.IsOutside)
	})
}

func TestLedger_SetStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerService(setupTestDB(t))

	_, err := ledger.Create(ctx, "T7", false)
	require.NoError(t, err)

	require.NoError(t, ledger.SetState(ctx, "T7", true))
	_, err = ledger.ClaimForRental(ctx, "T7", true)
	assert.ErrorIs(t, err, ErrAlreadyOutside)

	require.NoError(t, ledger.SetState(ctx, "T7", false))
	entry, err := ledger.ClaimForRental(ctx, "T7", true)
	require.NoError(t, err)
	assert.True(t, entry.IsOutside)

	assert.ErrorIs(t, ledger.SetState(ctx, "missing", true), ErrTrolleyNumberNotFound)
}

func TestLedger_ConcurrentClaims(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerService(setupTestDB(t))

	_, err := ledger.Create(ctx, "T9", false)
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.ClaimForRental(ctx, "T9", true)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if assert.ErrorIs(t, err, ErrAlreadyOutside) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, conflicts)
}

func TestLedger_CRUD(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerService(setupTestDB(t))

	_, err := ledger.Create(ctx, "A1", false)
	require.NoError(t, err)
	_, err = ledger.Create(ctx, "A2", true)
	require.NoError(t, err)

	_, err = ledger.Create(ctx, "A1", false)
	assert.ErrorIs(t, err, ErrTrolleyNumberExists)

	count, entries, err := ledger.List(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.Len(t, entries, 2)

	got, err := ledger.Get(ctx, "A2")
	require.NoError(t, err)
	assert.True(t, got.IsOutside)

	_, err = ledger.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrTrolleyNumberNotFound)

	taken := "A2"
	_, err = ledger.Update(ctx, "A1", UpdateTrolleyNumberInput{TrolleyNumber: &taken})
	assert.ErrorIs(t, err, ErrTrolleyNumberExists)

	renamed := "A3"
	outside := true
	updated, err := ledger.Update(ctx, "A1", UpdateTrolleyNumberInput{TrolleyNumber: &renamed, IsOutside: &outside})
	require.NoError(t, err)
	assert.Equal(t, "A3", updated.TrolleyNumber)
	assert.True(t, updated.IsOutside)

	_, err = ledger.Get(ctx, "A1")
	assert.ErrorIs(t, err, ErrTrolleyNumberNotFound)

	require.NoError(t, ledger.Delete(ctx, "A3"))
	assert.ErrorIs(t, ledger.Delete(ctx, "A3"), ErrTrolleyNumberNotFound)
}
