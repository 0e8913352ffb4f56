// Package memory implements an in-process TransactionStore.
package memory

import (
	"context"
	"sync"
	"time"

	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store keeps encoded transaction snapshots in a map guarded by a RWMutex.
// Records are detached from callers exactly as a remote store would detach them.
type Store struct {
	mu      sync.RWMutex
	records map[domain.Xid][]byte
	now     func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		records: make(map[domain.Xid][]byte),
		now:     time.Now,
	}
}

// Create persists tx unless its xid is already present.
func (s *Store) Create(ctx context.Context, tx *domain.Transaction) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := domain.EncodeTransaction(tx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[tx.Xid]; ok {
		return 0, nil
	}
	s.records[tx.Xid] = data
	return 1, nil
}

// Update persists tx if the stored version matches tx.Version.
func (s *Store) Update(ctx context.Context, tx *domain.Transaction) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	next := tx.Clone()
	next.UpdateTime(s.now())
	next.UpdateVersion()
	data, err := domain.EncodeTransaction(next)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[tx.Xid]
	if !ok {
		return 0, nil
	}
	current, err := domain.DecodeTransaction(stored)
	if err != nil {
		return 0, zerr.With(err, "xid", tx.Xid.String())
	}
	if current.Version != tx.Version {
		return 0, nil
	}

	s.records[tx.Xid] = data
	tx.Version = next.Version
	tx.LastUpdateTime = next.LastUpdateTime
	return 1, nil
}

// Delete removes the record for tx.Xid.
func (s *Store) Delete(ctx context.Context, tx *domain.Transaction) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[tx.Xid]; !ok {
		return 0, nil
	}
	delete(s.records, tx.Xid)
	return 1, nil
}

// FindOne returns the record for xid, or nil if absent.
func (s *Store) FindOne(ctx context.Context, xid domain.Xid) (*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, ok := s.records[xid]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	return domain.DecodeTransaction(data)
}

// FindAllUnmodifiedSince returns every record last modified at or before ts.
func (s *Store) FindAllUnmodifiedSince(ctx context.Context, ts time.Time) ([]*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for xid, data := range s.records {
		tx, err := domain.DecodeTransaction(data)
		if err != nil {
			return nil, zerr.With(err, "xid", xid.String())
		}
		if tx.UnmodifiedSince(ts) {
			result = append(result, tx)
		}
	}
	return result, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op; the records live as long as the Store.
func (s *Store) Close() error {
	return nil
}
