package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/txlog/internal/adapters/store/redis"
	"go.trai.ch/txlog/internal/adapters/store/storetest"
	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/txlog/internal/core/ports"
)

func newStore(t *testing.T) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	store := redis.New(srv.Addr(), "txlog:")
	t.Cleanup(func() { _ = store.Close() })
	return store, srv
}

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) ports.TransactionStore {
		store, _ := newStore(t)
		return store
	})
}

func TestStore_KeyLayout(t *testing.T) {
	store, srv := newStore(t)
	ctx := context.Background()

	tx := domain.NewTransaction()
	_, err := store.Create(ctx, tx)
	require.NoError(t, err)

	assert.True(t, srv.Exists("txlog:"+tx.Xid.String()))

	members, err := srv.ZMembers("txlog:index")
	require.NoError(t, err)
	assert.Equal(t, []string{tx.Xid.String()}, members)

	score, err := srv.ZScore("txlog:index", tx.Xid.String())
	require.NoError(t, err)
	assert.InDelta(t, float64(tx.LastUpdateTime.UnixMicro()), score, 0)

	_, err = store.Delete(ctx, tx)
	require.NoError(t, err)
	assert.False(t, srv.Exists("txlog:"+tx.Xid.String()))
}

func TestStore_PrefixIsolation(t *testing.T) {
	srv := miniredis.RunT(t)
	a := redis.New(srv.Addr(), "a:")
	b := redis.New(srv.Addr(), "b:")
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	ctx := context.Background()

	tx := domain.NewTransaction()
	_, err := a.Create(ctx, tx)
	require.NoError(t, err)

	got, err := b.FindOne(ctx, tx.Xid)
	require.NoError(t, err)
	assert.Nil(t, got)

	all, err := b.FindAllUnmodifiedSince(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_SweepSkipsVanishedRecords(t *testing.T) {
	store, srv := newStore(t)
	ctx := context.Background()

	tx := domain.NewTransaction()
	_, err := store.Create(ctx, tx)
	require.NoError(t, err)

	// Record gone but index entry left behind.
	srv.Del("txlog:" + tx.Xid.String())

	got, err := store.FindAllUnmodifiedSince(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_ServerDown(t *testing.T) {
	store, srv := newStore(t)
	srv.Close()

	_, err := store.FindOne(context.Background(), domain.NewXid())
	require.Error(t, err)
}

func TestStore_CreateIndexesEveryRecord(t *testing.T) {
	store, srv := newStore(t)
	ctx := context.Background()

	tx := domain.NewTransaction()
	n, err := store.Create(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	// A duplicate create must leave the record and its index score alone.
	dup := tx.Clone()
	dup.LastUpdateTime = tx.LastUpdateTime.Add(time.Hour)
	n, err = store.Create(ctx, dup)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	score, err := srv.ZScore("txlog:index", tx.Xid.String())
	require.NoError(t, err)
	assert.InDelta(t, float64(tx.LastUpdateTime.UnixMicro()), score, 0)
}

func TestStore_CreateIndexFailureStoresNothing(t *testing.T) {
	store, srv := newStore(t)
	ctx := context.Background()

	// Index key of the wrong type makes ZADD fail.
	require.NoError(t, srv.Set("txlog:index", "not a sorted set"))

	tx := domain.NewTransaction()
	n, err := store.Create(ctx, tx)
	require.Error(t, err)
	assert.Equal(t, int64(0), n)
	assert.False(t, srv.Exists("txlog:"+tx.Xid.String()))
}
