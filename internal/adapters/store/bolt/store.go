// Package bolt implements a TransactionStore on an embedded BoltDB file.
package bolt

import (
	"context"
	"time"

	"github.com/boltdb/bolt"
	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/zerr"
)

var bucketName = []byte("transactions")

const openTimeout = time.Second

// Store implements ports.TransactionStore. Records live in a single bucket
// keyed by Xid.Bytes; version checks run inside one read-write bolt
// transaction, which bolt serialises.
type Store struct {
	db  *bolt.DB
	now func() time.Time
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open bolt store"), "path", path)
	}

	err = db.Update(func(btx *bolt.Tx) error {
		_, err := btx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, zerr.With(zerr.Wrap(err, "failed to create bucket"), "path", path)
	}

	return &Store{db: db, now: time.Now}, nil
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

	var affected int64
	err = s.db.Update(func(btx *bolt.Tx) error {
		b := btx.Bucket(bucketName)
		key := tx.Xid.Bytes()
		if b.Get(key) != nil {
			return nil
		}
		if err := b.Put(key, data); err != nil {
			return err
		}
		affected = 1
		return nil
	})
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "bolt create failed"), "xid", tx.Xid.String())
	}
	return affected, nil
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

	var affected int64
	err = s.db.Update(func(btx *bolt.Tx) error {
		b := btx.Bucket(bucketName)
		key := tx.Xid.Bytes()
		stored := b.Get(key)
		if stored == nil {
			return nil
		}
		current, err := domain.DecodeTransaction(stored)
		if err != nil {
			return err
		}
		if current.Version != tx.Version {
			return nil
		}
		if err := b.Put(key, data); err != nil {
			return err
		}
		affected = 1
		return nil
	})
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "bolt update failed"), "xid", tx.Xid.String())
	}

	if affected > 0 {
		tx.Version = next.Version
		tx.LastUpdateTime = next.LastUpdateTime
	}
	return affected, nil
}

// Delete removes the record for tx.Xid.
func (s *Store) Delete(ctx context.Context, tx *domain.Transaction) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var affected int64
	err := s.db.Update(func(btx *bolt.Tx) error {
		b := btx.Bucket(bucketName)
		key := tx.Xid.Bytes()
		if b.Get(key) == nil {
			return nil
		}
		if err := b.Delete(key); err != nil {
			return err
		}
		affected = 1
		return nil
	})
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "bolt delete failed"), "xid", tx.Xid.String())
	}
	return affected, nil
}

// FindOne returns the record for xid, or nil if absent.
func (s *Store) FindOne(ctx context.Context, xid domain.Xid) (*domain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var found *domain.Transaction
	err := s.db.View(func(btx *bolt.Tx) error {
		data := btx.Bucket(bucketName).Get(xid.Bytes())
		if data == nil {
			return nil
		}
		// Values are only valid for the life of the bolt transaction, decoding copies them.
		tx, err := domain.DecodeTransaction(data)
		if err != nil {
			return err
		}
		found = tx
		return nil
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "bolt read failed"), "xid", xid.String())
	}
	return found, nil
}

// FindAllUnmodifiedSince returns every record last modified at or before ts.
func (s *Store) FindAllUnmodifiedSince(ctx context.Context, ts time.Time) ([]*domain.Transaction, error) {
	var result []*domain.Transaction
	err := s.db.View(func(btx *bolt.Tx) error {
		return btx.Bucket(bucketName).ForEach(func(_, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tx, err := domain.DecodeTransaction(v)
			if err != nil {
				return err
			}
			if tx.UnmodifiedSince(ts) {
				result = append(result, tx)
			}
			return nil
		})
	})
	if err != nil {
		return nil, zerr.Wrap(err, "bolt scan failed")
	}
	return result, nil
}

// Close closes the database file.
func (s *Store) Close() error {
	return s.db.Close()
}
