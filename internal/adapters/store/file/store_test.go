package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/txlog/internal/adapters/store/file"
	"go.trai.ch/txlog/internal/adapters/store/storetest"
	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/txlog/internal/core/ports"
)

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.TransactionStore {
		store, err := file.NewStore(filepath.Join(t.TempDir(), "txlog.json"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "txlog.json")
	ctx := context.Background()

	// 1. Create store and save data
	store1, err := file.NewStore(path)
	require.NoError(t, err)

	tx := domain.NewTransaction()
	tx.ChangeStatus(domain.StatusConfirming)
	n, err := store1.Create(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.NoError(t, store1.Close())

	// 2. Open a new store instance on the same file
	store2, err := file.NewStore(path)
	require.NoError(t, err)

	got, err := store2.FindOne(ctx, tx.Xid)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StatusConfirming, got.Status)
	assert.Equal(t, tx.Xid, got.Xid)
}

func TestStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "txlog.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	store, err := file.NewStore(path)
	require.NoError(t, err)

	got, err := store.FindOne(context.Background(), domain.NewXid())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "txlog.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := file.NewStore(path)
	require.Error(t, err)
}

func TestStore_Closed(t *testing.T) {
	store, err := file.NewStore(filepath.Join(t.TempDir(), "txlog.json"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Create(context.Background(), domain.NewTransaction())
	require.ErrorIs(t, err, domain.ErrStoreClosed)
}

func TestStore_NoTemporaryFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store, err := file.NewStore(filepath.Join(dir, "txlog.json"))
	require.NoError(t, err)

	for range 3 {
		_, err := store.Create(context.Background(), domain.NewTransaction())
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "txlog.json", entries[0].Name())
}
