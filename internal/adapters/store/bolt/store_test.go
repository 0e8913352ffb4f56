package bolt_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/txlog/internal/adapters/store/bolt"
	"go.trai.ch/txlog/internal/adapters/store/storetest"
	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/txlog/internal/core/ports"
)

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.TransactionStore {
		store, err := bolt.Open(filepath.Join(t.TempDir(), "txlog.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "txlog.db")
	ctx := context.Background()

	store, err := bolt.Open(path)
	require.NoError(t, err)

	tx := domain.NewTransaction()
	_, err = store.Create(ctx, tx)
	require.NoError(t, err)
	tx.ChangeStatus(domain.StatusCancelling)
	_, err = store.Update(ctx, tx)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := bolt.Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.FindOne(ctx, tx.Xid)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StatusCancelling, got.Status)
	assert.Equal(t, int64(2), got.Version)
}

func TestStore_CancelledScan(t *testing.T) {
	store, err := bolt.Open(filepath.Join(t.TempDir(), "txlog.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.Create(context.Background(), domain.NewTransaction())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.FindAllUnmodifiedSince(ctx, domain.NewTransaction().LastUpdateTime)
	require.ErrorIs(t, err, context.Canceled)
}
