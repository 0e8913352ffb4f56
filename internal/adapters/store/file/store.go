// Package file implements a TransactionStore backed by a flat JSON file.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.TransactionStore using a single JSON document keyed
// by xid. Every write rewrites the document; it suits a single process
// holding a modest transaction log.
type Store struct {
	path    string
	mu      sync.Mutex
	records map[string]json.RawMessage
	closed  bool
	now     func() time.Time
}

// NewStore opens the store at path, loading any existing records.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:    filepath.Clean(path),
		records: make(map[string]json.RawMessage),
		now:     time.Now,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, "failed to read transaction store"), "path", s.path)
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to unmarshal transaction store"), "path", s.path)
	}

	return nil
}

// saveLocked writes the document to a temporary file and renames it over the
// previous one so readers never observe a partial write.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal transaction store")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerr.Wrap(err, "failed to create directory for transaction store")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return zerr.Wrap(err, "failed to create temporary transaction store")
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to write transaction store")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to write transaction store")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to replace transaction store"), "path", s.path)
	}

	return nil
}

func (s *Store) checkLocked(ctx context.Context) error {
	if s.closed {
		return domain.ErrStoreClosed
	}
	return ctx.Err()
}

// Create persists tx unless its xid is already present.
func (s *Store) Create(ctx context.Context, tx *domain.Transaction) (int64, error) {
	data, err := domain.EncodeTransaction(tx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(ctx); err != nil {
		return 0, err
	}

	key := tx.Xid.String()
	if _, ok := s.records[key]; ok {
		return 0, nil
	}

	s.records[key] = data
	if err := s.saveLocked(); err != nil {
		delete(s.records, key)
		return 0, err
	}
	return 1, nil
}

// Update persists tx if the stored version matches tx.Version.
func (s *Store) Update(ctx context.Context, tx *domain.Transaction) (int64, error) {
	next := tx.Clone()
	next.UpdateTime(s.now())
	next.UpdateVersion()
	data, err := domain.EncodeTransaction(next)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(ctx); err != nil {
		return 0, err
	}

	key := tx.Xid.String()
	previous, ok := s.records[key]
	if !ok {
		return 0, nil
	}
	current, err := domain.DecodeTransaction(previous)
	if err != nil {
		return 0, zerr.With(err, "xid", key)
	}
	if current.Version != tx.Version {
		return 0, nil
	}

	s.records[key] = data
	if err := s.saveLocked(); err != nil {
		s.records[key] = previous
		return 0, err
	}

	tx.Version = next.Version
	tx.LastUpdateTime = next.LastUpdateTime
	return 1, nil
}

// Delete removes the record for tx.Xid.
func (s *Store) Delete(ctx context.Context, tx *domain.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(ctx); err != nil {
		return 0, err
	}

	key := tx.Xid.String()
	previous, ok := s.records[key]
	if !ok {
		return 0, nil
	}

	delete(s.records, key)
	if err := s.saveLocked(); err != nil {
		s.records[key] = previous
		return 0, err
	}
	return 1, nil
}

// FindOne returns the record for xid, or nil if absent.
func (s *Store) FindOne(ctx context.Context, xid domain.Xid) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(ctx); err != nil {
		return nil, err
	}

	data, ok := s.records[xid.String()]
	if !ok {
		return nil, nil
	}
	return domain.DecodeTransaction(data)
}

// FindAllUnmodifiedSince returns every record last modified at or before ts.
func (s *Store) FindAllUnmodifiedSince(ctx context.Context, ts time.Time) ([]*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLocked(ctx); err != nil {
		return nil, err
	}

	var result []*domain.Transaction
	for key, data := range s.records {
		tx, err := domain.DecodeTransaction(data)
		if err != nil {
			return nil, zerr.With(err, "xid", key)
		}
		if tx.UnmodifiedSince(ts) {
			result = append(result, tx)
		}
	}
	return result, nil
}

// Close releases the store. Later calls fail with domain.ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
