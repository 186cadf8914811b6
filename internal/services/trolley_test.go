package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"trolley-tracker/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrolleyFixture(t *testing.T) (*TrolleyService, *LedgerService, *events.Recorder) {
	t.Helper()
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	recorder := &events.Recorder{}
	return NewTrolleyService(db, ledger, recorder, nil), ledger, recorder
}

func rental(balance, number string, outside bool) CreateTrolleyInput {
	printed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return CreateTrolleyInput{
		TrolleyNumber:    number,
		IsOutside:        outside,
		BalanceNumber:    balance,
		DepartureTime:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		BalancePrintDate: &printed,
		SecurityDeposit:  100,
		RentalAmount:     50,
	}
}

func TestTrolley_Create(t *testing.T) {
	ctx := context.Background()
	svc, ledger, recorder := newTrolleyFixture(t)

	var conflicts []string
	svc.OnConflict(func(number string) { conflicts = append(conflicts, number) })

	created, err := svc.Create(ctx, rental("B1", "T1", true))
	require.NoError(t, err)
	assert.Equal(t, "B1", created.BalanceNumber)
	assert.Equal(t, "T1", created.TrolleyNumberInfo.TrolleyNumber)
	assert.True(t, created.TrolleyNumberInfo.IsOutside)
	assert.NotEmpty(t, created.ID)

	entry, err := ledger.Get(ctx, "T1")
	require.NoError(t, err)
	assert.True(t, entry.IsOutside)

	t.Run("number already outside", func(t *testing.T) {
		_, err := svc.Create(ctx, rental("B2", "T1", true))
		assert.ErrorIs(t, err, ErrAlreadyOutside)
		assert.Equal(t, []string{"T1"}, conflicts)

		_, err = svc.GetByBalanceNumber(ctx, "B2")
		assert.ErrorIs(t, err, ErrTrolleyNotFound)
	})

	t.Run("duplicate balance number leaves ledger untouched", func(t *testing.T) {
		_, err := svc.Create(ctx, rental("B1", "T5", true))
		assert.ErrorIs(t, err, ErrBalanceNumberExists)

		_, err = ledger.Get(ctx, "T5")
		assert.ErrorIs(t, err, ErrTrolleyNumberNotFound)
	})

	t.Run("trolley number required", func(t *testing.T) {
		_, err := svc.Create(ctx, rental("B3", " ", true))
		assert.ErrorIs(t, err, ErrTrolleyNumberRequired)
	})

	got := recorder.Events()
	require.Len(t, got, 1)
	assert.Equal(t, events.TypeRented, got[0].Type)
	assert.Equal(t, "B1", got[0].BalanceNumber)
	assert.True(t, got[0].IsOutside)
}

func TestTrolley_CreateReusesReturnedNumber(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _ := newTrolleyFixture(t)

	_, err := svc.Create(ctx, rental("B1", "T1", true))
	require.NoError(t, err)
	require.NoError(t, ledger.SetState(ctx, "T1", false))

	_, err = svc.Create(ctx, rental("B2", "T1", true))
	require.NoError(t, err)

	found, err := svc.FindByTrolleyNumber(ctx, "T1")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestTrolley_CreatePublishFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	recorder := &events.Recorder{Err: errors.New("broker down")}
	svc := NewTrolleyService(db, NewLedgerService(db), recorder, nil)

	_, err := svc.Create(ctx, rental("B1", "T1", true))
	require.NoError(t, err)
}

func TestTrolley_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _ := newTrolleyFixture(t)

	const workers = 30
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, rental(fmt.Sprintf("B%d", i), fmt.Sprintf("T%d", i), true))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	count, _, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), count)

	count, _, err = ledger.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), count)
}

func TestTrolley_UpdateByBalanceNumber(t *testing.T) {
	ctx := context.Background()
	svc, ledger, recorder := newTrolleyFixture(t)

	_, err := svc.Create(ctx, rental("B1", "T1", true))
	require.NoError(t, err)
	_, err = ledger.Create(ctx, "T2", false)
	require.NoError(t, err)
	_, err = ledger.Create(ctx, "T3", true)
	require.NoError(t, err)

	t.Run("trolley number required", func(t *testing.T) {
		_, err := svc.UpdateByBalanceNumber(ctx, "B1", UpdateTrolleyInput{})
		assert.ErrorIs(t, err, ErrTrolleyNumberRequired)
	})

	t.Run("unknown rental", func(t *testing.T) {
		_, err := svc.UpdateByBalanceNumber(ctx, "B9", UpdateTrolleyInput{TrolleyNumber: "T1"})
		assert.ErrorIs(t, err, ErrTrolleyNotFound)
	})

	t.Run("unregistered number is not acceptable", func(t *testing.T) {
		_, err := svc.UpdateByBalanceNumber(ctx, "B1", UpdateTrolleyInput{TrolleyNumber: "T404"})
		assert.ErrorIs(t, err, ErrTrolleyNumberNotAcceptable)
	})

	t.Run("target already outside", func(t *testing.T) {
		outside := true
		_, err := svc.UpdateByBalanceNumber(ctx, "B1", UpdateTrolleyInput{TrolleyNumber: "T3", IsOutside: &outside})
		assert.ErrorIs(t, err, ErrAlreadyOutside)

		entry, err := ledger.Get(ctx, "T1")
		require.NoError(t, err)
		assert.True(t, entry.IsOutside)
	})

	t.Run("moving releases the previous number", func(t *testing.T) {
		outside := true
		customer := "ACME"
		updated, err := svc.UpdateByBalanceNumber(ctx, "B1", UpdateTrolleyInput{
			TrolleyNumber: "T2",
			IsOutside:     &outside,
			Customer:      &customer,
		})
		require.NoError(t, err)
		assert.Equal(t, "T2", updated.TrolleyNumberInfo.TrolleyNumber)
		assert.True(t, updated.TrolleyNumberInfo.IsOutside)
		assert.Equal(t, "ACME", updated.Customer)
		assert.Equal(t, 100.0, updated.SecurityDeposit)

		t1, err := ledger.Get(ctx, "T1")
		require.NoError(t, err)
		assert.False(t, t1.IsOutside)

		t2, err := ledger.Get(ctx, "T2")
		require.NoError(t, err)
		assert.True(t, t2.IsOutside)
	})

	t.Run("returning sets both flags", func(t *testing.T) {
		inside := false
		returned := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
		updated, err := svc.UpdateByBalanceNumber(ctx, "B1", UpdateTrolleyInput{
			TrolleyNumber: "T2",
			IsOutside:     &inside,
			ReturnTime:    &returned,
		})
		require.NoError(t, err)
		assert.False(t, updated.TrolleyNumberInfo.IsOutside)
		require.NotNil(t, updated.ReturnTime)
		assert.True(t, returned.Equal(*updated.ReturnTime))

		t2, err := ledger.Get(ctx, "T2")
		require.NoError(t, err)
		assert.False(t, t2.IsOutside)
	})

	updates := 0
	for _, e := range recorder.Events() {
		if e.Type == events.TypeUpdated {
			updates++
		}
	}
	assert.Equal(t, 2, updates)
}

func TestTrolley_UpdateByTrolleyNumber(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _ := newTrolleyFixture(t)

	_, err := svc.Create(ctx, rental("B1", "T1", true))
	require.NoError(t, err)

	updated, err := svc.UpdateByTrolleyNumber(ctx, "T1", false)
	require.NoError(t, err)
	assert.Equal(t, "B1", updated.BalanceNumber)
	assert.False(t, updated.TrolleyNumberInfo.IsOutside)

	entry, err := ledger.Get(ctx, "T1")
	require.NoError(t, err)
	assert.False(t, entry.IsOutside)

	stored, err := svc.GetByBalanceNumber(ctx, "B1")
	require.NoError(t, err)
	assert.False(t, stored.TrolleyNumberInfo.IsOutside)

	_, err = svc.UpdateByTrolleyNumber(ctx, "T404", true)
	assert.ErrorIs(t, err, ErrTrolleyNotFound)
}

func TestTrolley_UpdatesKeepOneRentalOutside(t *testing.T) {
	ctx := context.Background()
	svc, ledger, _ := newTrolleyFixture(t)

	outside, inside := true, false
	conflicts := 0
	svc.OnConflict(func(string) { conflicts++ })

	outsideOn := func(number string) int {
		rentals, err := svc.FindByTrolleyNumber(ctx, number)
		require.NoError(t, err)
		n := 0
		for _, r := range rentals {
			if r.TrolleyNumberInfo.IsOutside {
				n++
			}
		}
		return n
	}

	t.Run("returned rental cannot retake a held number", func(t *testing.T) {
		_, err := svc.Create(ctx, rental("B1", "T1", true))
		require.NoError(t, err)
		_, err = svc.UpdateByBalanceNumber(ctx, "B1", UpdateTrolleyInput{TrolleyNumber: "T1", IsOutside: &inside})
		require.NoError(t, err)
		_, err = svc.Create(ctx, rental("B2", "T1", true))
		require.NoError(t, err)

		_, err = svc.UpdateByBalanceNumber(ctx, "B1", UpdateTrolleyInput{TrolleyNumber: "T1", IsOutside: &outside})
		assert.ErrorIs(t, err, ErrAlreadyOutside)
		assert.Equal(t, 1, outsideOn("T1"))

		stored, err := svc.GetByBalanceNumber(ctx, "B1")
		require.NoError(t, err)
		assert.False(t, stored.TrolleyNumberInfo.IsOutside)
	})

	t.Run("moving an inside rental leaves the target held", func(t *testing.T) {
		_, err := svc.Create(ctx, rental("B3", "T3", true))
		require.NoError(t, err)
		_, err = svc.Create(ctx, rental("B4", "T4", false))
		require.NoError(t, err)

		moved, err := svc.UpdateByBalanceNumber(ctx, "B4", UpdateTrolleyInput{TrolleyNumber: "T3", IsOutside: &inside})
		require.NoError(t, err)
		assert.Equal(t, "T3", moved.TrolleyNumberInfo.TrolleyNumber)
		assert.False(t, moved.TrolleyNumberInfo.IsOutside)

		t3, err := ledger.Get(ctx, "T3")
		require.NoError(t, err)
		assert.True(t, t3.IsOutside)

		_, err = svc.Create(ctx, rental("B5", "T3", true))
		assert.ErrorIs(t, err, ErrAlreadyOutside)
		assert.Equal(t, 1, outsideOn("T3"))
	})

	t.Run("by-number update acts on the rental holding it outside", func(t *testing.T) {
		updated, err := svc.UpdateByTrolleyNumber(ctx, "T3", false)
		require.NoError(t, err)
		assert.Equal(t, "B3", updated.BalanceNumber)

		t3, err := ledger.Get(ctx, "T3")
		require.NoError(t, err)
		assert.False(t, t3.IsOutside)
		assert.Equal(t, 0, outsideOn("T3"))
	})

	assert.Equal(t, 2, conflicts)
}

func TestTrolley_FindDeleteList(t *testing.T) {
	ctx := context.Background()
	svc, ledger, recorder := newTrolleyFixture(t)

	_, err := svc.FindByTrolleyNumber(ctx, "T1")
	assert.ErrorIs(t, err, ErrTrolleysNotFound)

	_, err = svc.Create(ctx, rental("B1", "T1", true))
	require.NoError(t, err)
	_, err = svc.Create(ctx, rental("B2", "T2", true))
	require.NoError(t, err)

	count, all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.Len(t, all, 2)

	require.NoError(t, svc.DeleteByBalanceNumber(ctx, "B1"))
	assert.ErrorIs(t, svc.DeleteByBalanceNumber(ctx, "B1"), ErrTrolleyNotFound)

	// The ledger keeps its own state after a rental is removed.
	entry, err := ledger.Get(ctx, "T1")
	require.NoError(t, err)
	assert.True(t, entry.IsOutside)

	count, _, err = svc.ListAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	last := recorder.Events()[len(recorder.Events())-1]
	assert.Equal(t, events.TypeDeleted, last.Type)
	assert.Equal(t, "B1", last.BalanceNumber)
}
