// Package redis implements a TransactionStore on a Redis server.
//
// Each record is stored as a JSON string under keyPrefix+xid. A sorted set
// under keyPrefix+"index" scores every xid by its last update time in
// microseconds and serves the unmodified-since sweep.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/gomodule/redigo/redis"
	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	maxIdle     = 8
	idleTimeout = 4 * time.Minute
	indexSuffix = "index"
)

// createScript stores a record and indexes it in one step. The index write
// goes first so a failure there leaves no unindexed record behind.
// KEYS: record, index. ARGV: snapshot, score, member.
var createScript = redis.NewScript(2, `
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[3])
redis.call('SET', KEYS[1], ARGV[1])
return 1
`)

// Store implements ports.TransactionStore.
type Store struct {
	pool   *redis.Pool
	prefix string
	now    func() time.Time
}

// New dials address lazily through a connection pool.
func New(address, keyPrefix string) *Store {
	pool := &redis.Pool{
		MaxIdle:     maxIdle,
		IdleTimeout: idleTimeout,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", address)
		},
	}
	return NewWithPool(pool, keyPrefix)
}

// NewWithPool uses an existing pool. The store takes ownership of it.
func NewWithPool(pool *redis.Pool, keyPrefix string) *Store {
	return &Store{pool: pool, prefix: keyPrefix, now: time.Now}
}

func (s *Store) key(xid domain.Xid) string {
	return s.prefix + xid.String()
}

func (s *Store) indexKey() string {
	return s.prefix + indexSuffix
}

func score(ts time.Time) int64 {
	return ts.UnixMicro()
}

func (s *Store) conn(ctx context.Context) (redis.Conn, error) {
	c, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to get redis connection")
	}
	return c, nil
}

// Create persists tx unless its xid is already present.
func (s *Store) Create(ctx context.Context, tx *domain.Transaction) (int64, error) {
	data, err := domain.EncodeTransaction(tx)
	if err != nil {
		return 0, err
	}

	c, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = c.Close() }()

	n, err := redis.Int64(createScript.Do(c, s.key(tx.Xid), s.indexKey(), data, score(tx.LastUpdateTime), tx.Xid.String()))
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "redis create failed"), "xid", tx.Xid.String())
	}
	return n, nil
}

// Update persists tx if the stored version matches tx.Version. The check and
// write run under WATCH so a concurrent writer aborts the EXEC.
func (s *Store) Update(ctx context.Context, tx *domain.Transaction) (int64, error) {
	next := tx.Clone()
	next.UpdateTime(s.now())
	next.UpdateVersion()
	data, err := domain.EncodeTransaction(next)
	if err != nil {
		return 0, err
	}

	c, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = c.Close() }()

	key := s.key(tx.Xid)
	if _, err := redis.DoContext(c, ctx, "WATCH", key); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "redis watch failed"), "xid", tx.Xid.String())
	}

	stored, err := redis.Bytes(redis.DoContext(c, ctx, "GET", key))
	if errors.Is(err, redis.ErrNil) {
		_, _ = c.Do("UNWATCH")
		return 0, nil
	}
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "redis read failed"), "xid", tx.Xid.String())
	}

	current, err := domain.DecodeTransaction(stored)
	if err != nil {
		_, _ = c.Do("UNWATCH")
		return 0, zerr.With(err, "xid", tx.Xid.String())
	}
	if current.Version != tx.Version {
		_, _ = c.Do("UNWATCH")
		return 0, nil
	}

	if err := c.Send("MULTI"); err != nil {
		return 0, zerr.Wrap(err, "redis multi failed")
	}
	if err := c.Send("SET", key, data); err != nil {
		return 0, zerr.Wrap(err, "redis set failed")
	}
	if err := c.Send("ZADD", s.indexKey(), score(next.LastUpdateTime), tx.Xid.String()); err != nil {
		return 0, zerr.Wrap(err, "redis index failed")
	}
	_, err = redis.Values(redis.DoContext(c, ctx, "EXEC"))
	if errors.Is(err, redis.ErrNil) {
		return 0, nil
	}
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "redis update failed"), "xid", tx.Xid.String())
	}

	tx.Version = next.Version
	tx.LastUpdateTime = next.LastUpdateTime
	return 1, nil
}

// Delete removes the record for tx.Xid and its index entry.
func (s *Store) Delete(ctx context.Context, tx *domain.Transaction) (int64, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = c.Close() }()

	if err := c.Send("MULTI"); err != nil {
		return 0, zerr.Wrap(err, "redis multi failed")
	}
	if err := c.Send("DEL", s.key(tx.Xid)); err != nil {
		return 0, zerr.Wrap(err, "redis delete failed")
	}
	if err := c.Send("ZREM", s.indexKey(), tx.Xid.String()); err != nil {
		return 0, zerr.Wrap(err, "redis index failed")
	}
	replies, err := redis.Int64s(redis.DoContext(c, ctx, "EXEC"))
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "redis delete failed"), "xid", tx.Xid.String())
	}
	return replies[0], nil
}

// FindOne returns the record for xid, or nil if absent.
func (s *Store) FindOne(ctx context.Context, xid domain.Xid) (*domain.Transaction, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = c.Close() }()

	data, err := redis.Bytes(redis.DoContext(c, ctx, "GET", s.key(xid)))
	if errors.Is(err, redis.ErrNil) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "redis read failed"), "xid", xid.String())
	}
	return domain.DecodeTransaction(data)
}

// FindAllUnmodifiedSince returns every record last modified at or before ts.
// Records removed between the index scan and the read are skipped.
func (s *Store) FindAllUnmodifiedSince(ctx context.Context, ts time.Time) ([]*domain.Transaction, error) {
	c, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = c.Close() }()

	ids, err := redis.Strings(redis.DoContext(c, ctx, "ZRANGEBYSCORE", s.indexKey(), "-inf", score(ts)))
	if err != nil {
		return nil, zerr.Wrap(err, "redis index scan failed")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, s.prefix+id)
	}
	values, err := redis.ByteSlices(redis.DoContext(c, ctx, "MGET", args...))
	if err != nil {
		return nil, zerr.Wrap(err, "redis read failed")
	}

	result := make([]*domain.Transaction, 0, len(values))
	for i, data := range values {
		if data == nil {
			continue
		}
		tx, err := domain.DecodeTransaction(data)
		if err != nil {
			return nil, zerr.With(err, "xid", ids[i])
		}
		if tx.UnmodifiedSince(ts) {
			result = append(result, tx)
		}
	}
	return result, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	return s.pool.Close()
}
