// Package storetest provides the behaviour every ports.TransactionStore must share.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/txlog/internal/core/ports"
)

// Factory returns a fresh, empty store for one test case.
type Factory func(t *testing.T) ports.TransactionStore

// Run executes the conformance suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, store ports.TransactionStore)
	}{
		{"CreateAndFind", testCreateAndFind},
		{"CreateDuplicate", testCreateDuplicate},
		{"CreateSnapshotFailure", testCreateSnapshotFailure},
		{"FindMissing", testFindMissing},
		{"UpdateAdvancesVersion", testUpdateAdvancesVersion},
		{"UpdateStaleVersion", testUpdateStaleVersion},
		{"UpdateMissing", testUpdateMissing},
		{"UpdateSnapshotFailure", testUpdateSnapshotFailure},
		{"Delete", testDelete},
		{"FindAllUnmodifiedSince", testFindAllUnmodifiedSince},
		{"ConcurrentUpdatesOneWinner", testConcurrentUpdatesOneWinner},
		{"DetachedFromCaller", testDetachedFromCaller},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func newTransaction() *domain.Transaction {
	tx := domain.NewTransaction()
	tx.Enlist(domain.Participant{
		Xid:           domain.NewBranchXid(tx.Xid.GlobalID),
		ConfirmMethod: "confirmOrder",
		CancelMethod:  "cancelOrder",
	})
	tx.Attach("orderId", "o-1001")
	return tx
}

func assertSameRecord(t *testing.T, want, got *domain.Transaction) {
	t.Helper()
	require.NotNil(t, got)
	assert.Equal(t, want.Xid, got.Xid)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Type, got.Type)
	assert.Equal(t, want.Version, got.Version)
	assert.Equal(t, want.RetriedCount, got.RetriedCount)
	assert.Equal(t, want.Participants, got.Participants)
	assert.Equal(t, want.Attachments, got.Attachments)
	assert.True(t, want.CreateTime.Equal(got.CreateTime), "create time %s != %s", want.CreateTime, got.CreateTime)
	assert.True(t, want.LastUpdateTime.Equal(got.LastUpdateTime), "update time %s != %s", want.LastUpdateTime, got.LastUpdateTime)
}

func testCreateAndFind(t *testing.T, store ports.TransactionStore) {
	ctx := context.Background()
	tx := newTransaction()

	n, err := store.Create(ctx, tx)
	require.NoError(t, err)
	assert.Positive(t, n)

	got, err := store.FindOne(ctx, tx.Xid)
	require.NoError(t, err)
	assertSameRecord(t, tx, got)
}

func testCreateDuplicate(t *testing.T, store ports.TransactionStore) {
	ctx := context.Background()
	tx := newTransaction()

	_, err := store.Create(ctx, tx)
	require.NoError(t, err)

	dup := tx.Clone()
	dup.ChangeStatus(domain.StatusCancelling)
	n, err := store.Create(ctx, dup)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := store.FindOne(ctx, tx.Xid)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTrying, got.Status)
}

func testCreateSnapshotFailure(t *testing.T, store ports.TransactionStore) {
	ctx := context.Background()
	tx := newTransaction()
	tx.Attach("callback", func() {})

	_, err := store.Create(ctx, tx)
	require.ErrorIs(t, err, domain.ErrSnapshot)

	got, err := store.FindOne(ctx, tx.Xid)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testFindMissing(t *testing.T, store ports.TransactionStore) {
	got, err := store.FindOne(context.Background(), domain.NewXid())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testUpdateAdvancesVersion(t *testing.T, store ports.TransactionStore) {
	ctx := context.Background()
	tx := newTransaction()
	_, err := store.Create(ctx, tx)
	require.NoError(t, err)

	before := tx.LastUpdateTime
	tx.ChangeStatus(domain.StatusConfirming)
	n, err := store.Update(ctx, tx)
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.Equal(t, int64(2), tx.Version)
	assert.False(t, tx.LastUpdateTime.Before(before))

	got, err := store.FindOne(ctx, tx.Xid)
	require.NoError(t, err)
	assertSameRecord(t, tx, got)
}

func testUpdateStaleVersion(t *testing.T, store ports.TransactionStore) {
	ctx := context.Background()
	tx := newTransaction()
	_, err := store.Create(ctx, tx)
	require.NoError(t, err)

	stale := tx.Clone()

	tx.ChangeStatus(domain.StatusConfirming)
	_, err = store.Update(ctx, tx)
	require.NoError(t, err)

	stale.ChangeStatus(domain.StatusCancelling)
	n, err := store.Update(ctx, stale)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(1), stale.Version, "a rejected update must not advance the caller's version")

	got, err := store.FindOne(ctx, tx.Xid)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirming, got.Status)
}

func testUpdateMissing(t *testing.T, store ports.TransactionStore) {
	n, err := store.Update(context.Background(), newTransaction())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testUpdateSnapshotFailure(t *testing.T, store ports.TransactionStore) {
	ctx := context.Background()
	tx := newTransaction()
	_, err := store.Create(ctx, tx)
	require.NoError(t, err)

	tx.Attach("results", make(chan int))
	_, err = store.Update(ctx, tx)
	require.ErrorIs(t, err, domain.ErrSnapshot)
	assert.Equal(t, int64(1), tx.Version)
}

func testDelete(t *testing.T, store ports.TransactionStore) {
	ctx := context.Background()
	tx := newTransaction()
	_, err := store.Create(ctx, tx)
	require.NoError(t, err)

	n, err := store.Delete(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.FindOne(ctx, tx.Xid)
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err = store.Delete(ctx, tx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testFindAllUnmodifiedSince(t *testing.T, store ports.TransactionStore) {
	ctx := context.Background()
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	old := newTransaction()
	old.UpdateTime(base)
	edge := newTransaction()
	edge.UpdateTime(base.Add(10 * time.Minute))
	recent := newTransaction()
	recent.UpdateTime(base.Add(50 * time.Minute))

	for _, tx := range []*domain.Transaction{old, edge, recent} {
		_, err := store.Create(ctx, tx)
		require.NoError(t, err)
	}

	got, err := store.FindAllUnmodifiedSince(ctx, base.Add(10*time.Minute))
	require.NoError(t, err)

	xids := make([]domain.Xid, 0, len(got))
	for _, tx := range got {
		xids = append(xids, tx.Xid)
	}
	assert.ElementsMatch(t, []domain.Xid{old.Xid, edge.Xid}, xids)

	got, err = store.FindAllUnmodifiedSince(ctx, base.Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testConcurrentUpdatesOneWinner(t *testing.T, store ports.TransactionStore) {
	ctx := context.Background()
	tx := newTransaction()
	_, err := store.Create(ctx, tx)
	require.NoError(t, err)

	var wins atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mine := tx.Clone()
			mine.AddRetriedCount()
			n, err := store.Update(ctx, mine)
			assert.NoError(t, err)
			wins.Add(n)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins.Load())

	got, err := store.FindOne(ctx, tx.Xid)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
}

func testDetachedFromCaller(t *testing.T, store ports.TransactionStore) {
	ctx := context.Background()
	tx := newTransaction()
	_, err := store.Create(ctx, tx)
	require.NoError(t, err)

	tx.ChangeStatus(domain.StatusCancelling)
	tx.Participants[0].CancelMethod = "mutated"

	got, err := store.FindOne(ctx, tx.Xid)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTrying, got.Status)
	assert.Equal(t, "cancelOrder", got.Participants[0].CancelMethod)
}
