// Package repository implements the cache-aside transaction repository.
package repository

import (
	"context"
	"errors"
	"time"

	"go.trai.ch/txlog/internal/adapters/cache" //nolint:depguard // The repository owns its cache
	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/txlog/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Conflict kinds reported to ports.Metrics.
const (
	ConflictDuplicate      = "duplicate"
	ConflictOptimisticLock = "optimistic_lock"
)

var _ ports.TransactionRepository = (*Repository)(nil)

// Repository keeps a bounded cache coherent with a TransactionStore.
//
// A cached entry always reflects state the store confirmed: it is written
// only after a successful create, update or read, and it is dropped after
// any delete and any update that did not succeed. The repository adds no
// locking of its own; conflicting writers are detected by the store.
type Repository struct {
	store   ports.TransactionStore
	cache   *cache.EntryCache
	fence   *readFence
	logger  ports.Logger
	metrics ports.Metrics
	lookups singleflight.Group
}

// New creates a Repository in front of store.
func New(store ports.TransactionStore, opts ...Option) *Repository {
	o := options{
		expire:     domain.DefaultExpireDuration,
		maxEntries: domain.DefaultMaxEntries,
		shards:     domain.DefaultShards,
		logger:     nopLogger{},
		metrics:    nopMetrics{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Repository{
		store:   store,
		logger:  o.logger,
		metrics: o.metrics,
	}

	r.cache = o.cache
	if r.cache == nil {
		r.cache = cache.New(cache.Options{
			MaxEntries:        o.maxEntries,
			ExpireAfterAccess: o.expire,
			Shards:            o.shards,
		})
	}
	r.cache.AddEvictHook(func(_ domain.Xid, reason cache.EvictReason) {
		r.metrics.CacheEviction(string(reason))
	})

	r.fence = newReadFence(r.cache)

	return r
}

// ExpireDuration returns the cache expiry window.
func (r *Repository) ExpireDuration() time.Duration {
	return r.cache.ExpireAfterAccess()
}

// CacheLen returns the number of cached entries.
func (r *Repository) CacheLen() int {
	return r.cache.Len()
}

// Create persists a new transaction and caches it.
// It fails with domain.ErrDuplicateTransaction if the xid is already stored.
func (r *Repository) Create(ctx context.Context, tx *domain.Transaction) error {
	n, err := r.store.Create(ctx, tx)
	if err != nil {
		r.storeFailed("create", tx.Xid, err)
		return zerr.With(zerr.Wrap(err, "failed to create transaction"), "xid", tx.Xid.String())
	}

	if n <= 0 {
		r.metrics.Conflict(ConflictDuplicate)
		r.logger.Warn("transaction xid duplicated", "xid", tx.Xid.String())
		return zerr.With(zerr.Wrap(domain.ErrDuplicateTransaction, "failed to create transaction"), "xid", tx.Xid.String())
	}

	r.put(tx)
	return nil
}

// Update persists tx using the store's version check and caches the result.
//
// Whenever the update does not succeed, for a version conflict or any other
// reason, the cached entry for tx.Xid is dropped before returning.
func (r *Repository) Update(ctx context.Context, tx *domain.Transaction) (err error) {
	defer func() {
		if err != nil {
			r.invalidate(tx.Xid)
		}
	}()

	n, err := r.store.Update(ctx, tx)
	if err != nil {
		r.storeFailed("update", tx.Xid, err)
		return zerr.With(zerr.Wrap(err, "failed to update transaction"), "xid", tx.Xid.String())
	}

	if n <= 0 {
		r.metrics.Conflict(ConflictOptimisticLock)
		r.logger.Warn("optimistic lock conflict", "xid", tx.Xid.String(), "version", tx.Version)
		return zerr.With(zerr.Wrap(domain.ErrOptimisticLock, "failed to update transaction"), "xid", tx.Xid.String())
	}

	r.put(tx)
	return nil
}

// Delete removes tx from the store. The cached entry is dropped whatever the outcome.
func (r *Repository) Delete(ctx context.Context, tx *domain.Transaction) (int64, error) {
	defer r.invalidate(tx.Xid)

	n, err := r.store.Delete(ctx, tx)
	if err != nil {
		r.storeFailed("delete", tx.Xid, err)
		return n, zerr.With(zerr.Wrap(err, "failed to delete transaction"), "xid", tx.Xid.String())
	}

	return n, nil
}

// FindByXid returns the transaction for xid, reading through the cache.
// Returns nil, nil if the store has no such transaction.
func (r *Repository) FindByXid(ctx context.Context, xid domain.Xid) (*domain.Transaction, error) {
	if tx, ok := r.cache.Get(xid); ok {
		r.metrics.CacheHit()
		r.logger.Debug("transaction cache hit", "xid", xid.String())
		return tx, nil
	}

	r.metrics.CacheMiss()
	r.logger.Debug("transaction cache miss", "xid", xid.String())

	// Concurrent misses for one xid share a single store read. Writes forget
	// the shared read, so lookups that start after a write read the store again.
	v, err, _ := r.lookups.Do(xid.String(), func() (any, error) {
		gen := r.fence.begin(xid)
		tx, err := r.store.FindOne(ctx, xid)
		if err != nil {
			r.fence.finish(xid, gen, nil)
			return nil, err
		}
		r.fence.finish(xid, gen, tx)
		return tx, nil
	})
	if err != nil {
		r.storeFailed("find_one", xid, err)
		return nil, zerr.With(zerr.Wrap(err, "failed to find transaction"), "xid", xid.String())
	}

	tx, _ := v.(*domain.Transaction)
	return tx.Clone(), nil
}

// FindAllUnmodifiedSince returns every transaction last modified at or before ts.
// It always reads the store and refreshes the cache with the results.
func (r *Repository) FindAllUnmodifiedSince(ctx context.Context, ts time.Time) ([]*domain.Transaction, error) {
	txs, err := r.store.FindAllUnmodifiedSince(ctx, ts)
	if err != nil {
		r.metrics.StoreError("find_all_unmodified_since")
		r.logger.Error(err, "op", "find_all_unmodified_since", "since", ts)
		return nil, zerr.With(zerr.Wrap(err, "failed to find unmodified transactions"), "since", ts.String())
	}

	for _, tx := range txs {
		r.put(tx)
	}

	return txs, nil
}

func (r *Repository) put(tx *domain.Transaction) {
	r.fence.put(tx.Xid, tx)
	r.lookups.Forget(tx.Xid.String())
}

func (r *Repository) invalidate(xid domain.Xid) {
	r.fence.invalidate(xid)
	r.lookups.Forget(xid.String())
}

func (r *Repository) storeFailed(op string, xid domain.Xid, err error) {
	r.metrics.StoreError(op)
	if errors.Is(err, domain.ErrSnapshot) {
		r.logger.Error(err, "op", op, "xid", xid.String(), "kind", "snapshot")
		return
	}
	r.logger.Error(err, "op", op, "xid", xid.String())
}
