// Package cache implements the bounded, access-expiring transaction cache.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/txlog/internal/core/domain"
)

// EvictReason explains why an entry left the cache without being invalidated.
type EvictReason string

const (
	// EvictCapacity means the entry was the least recently used when the shard was full.
	EvictCapacity EvictReason = "capacity"
	// EvictExpired means the entry had not been accessed within the expiry window.
	EvictExpired EvictReason = "expired"
)

// EvictFunc observes capacity and expiry removals.
type EvictFunc func(xid domain.Xid, reason EvictReason)

// Options configures an EntryCache. Zero values select the defaults.
type Options struct {
	// MaxEntries bounds the total number of entries.
	MaxEntries int
	// ExpireAfterAccess is how long an entry survives without a Get or Put.
	ExpireAfterAccess time.Duration
	// Shards is the number of independently locked partitions. Least recently
	// used ordering is exact within a shard, so a single shard gives global LRU.
	Shards int
	// OnEvict is called, with the shard lock held, for capacity and expiry removals.
	OnEvict EvictFunc
}

type entry struct {
	xid        domain.Xid
	tx         *domain.Transaction
	accessedAt time.Time
}

// shard owns a slice of the key space. ordering keeps the most recently
// accessed entry at the front; since expiry is access based, the back is
// always the entry closest to (or past) expiry.
type shard struct {
	mu       sync.Mutex
	capacity int
	entries  map[domain.Xid]*list.Element
	ordering *list.List
}

// EntryCache maps transaction ids to the last confirmed transaction state.
// It is safe for concurrent use.
type EntryCache struct {
	shards  []*shard
	expire  time.Duration
	onEvict atomic.Pointer[EvictFunc]
	now     func() time.Time
}

// New creates an EntryCache.
func New(opts Options) *EntryCache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = domain.DefaultMaxEntries
	}
	if opts.ExpireAfterAccess <= 0 {
		opts.ExpireAfterAccess = domain.DefaultExpireDuration
	}
	if opts.Shards <= 0 {
		opts.Shards = domain.DefaultShards
	}
	if opts.Shards > opts.MaxEntries {
		opts.Shards = opts.MaxEntries
	}

	// Spread the remainder so shard capacities add up to MaxEntries exactly.
	base, rem := opts.MaxEntries/opts.Shards, opts.MaxEntries%opts.Shards
	shards := make([]*shard, opts.Shards)
	for i := range shards {
		capacity := base
		if i < rem {
			capacity++
		}
		shards[i] = &shard{
			capacity: capacity,
			entries:  make(map[domain.Xid]*list.Element),
			ordering: list.New(),
		}
	}

	onEvict := opts.OnEvict
	if onEvict == nil {
		onEvict = func(domain.Xid, EvictReason) {}
	}

	c := &EntryCache{
		shards: shards,
		expire: opts.ExpireAfterAccess,
		now:    time.Now,
	}
	c.onEvict.Store(&onEvict)
	return c
}

// AddEvictHook registers fn to run after any previously registered callbacks
// on every capacity or expiry removal.
func (c *EntryCache) AddEvictHook(fn EvictFunc) {
	for {
		old := c.onEvict.Load()
		prev := *old
		next := EvictFunc(func(xid domain.Xid, reason EvictReason) {
			prev(xid, reason)
			fn(xid, reason)
		})
		if c.onEvict.CompareAndSwap(old, &next) {
			return
		}
	}
}

// ExpireAfterAccess returns the configured expiry window.
func (c *EntryCache) ExpireAfterAccess() time.Duration {
	return c.expire
}

// Capacity returns the maximum number of entries.
func (c *EntryCache) Capacity() int {
	total := 0
	for _, s := range c.shards {
		total += s.capacity
	}
	return total
}

// Put stores a copy of tx under xid, replacing any previous entry.
func (c *EntryCache) Put(xid domain.Xid, tx *domain.Transaction) {
	s := c.shardFor(xid)
	now := c.now()
	value := tx.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[xid]; ok {
		e := el.Value.(*entry)
		e.tx = value
		e.accessedAt = now
		s.ordering.MoveToFront(el)
		return
	}

	c.removeExpiredLocked(s, now)
	for len(s.entries) >= s.capacity {
		back := s.ordering.Back()
		if back == nil {
			break
		}
		c.evictLocked(s, back, EvictCapacity)
	}

	s.entries[xid] = s.ordering.PushFront(&entry{xid: xid, tx: value, accessedAt: now})
}

// Get returns a copy of the cached transaction for xid.
// Expired entries are removed and reported as absent.
func (c *EntryCache) Get(xid domain.Xid) (*domain.Transaction, bool) {
	s := c.shardFor(xid)
	now := c.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[xid]
	if !ok {
		return nil, false
	}

	e := el.Value.(*entry)
	if c.expired(e, now) {
		c.evictLocked(s, el, EvictExpired)
		return nil, false
	}

	e.accessedAt = now
	s.ordering.MoveToFront(el)
	return e.tx.Clone(), true
}

// Contains reports whether a live entry exists without refreshing it.
func (c *EntryCache) Contains(xid domain.Xid) bool {
	s := c.shardFor(xid)
	now := c.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[xid]
	return ok && !c.expired(el.Value.(*entry), now)
}

// Invalidate removes the entry for xid if present.
func (c *EntryCache) Invalidate(xid domain.Xid) {
	s := c.shardFor(xid)

	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[xid]; ok {
		s.remove(el)
	}
}

// Len returns the number of stored entries, including expired entries not yet removed.
func (c *EntryCache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// RemoveExpired drops every expired entry and returns how many were removed.
func (c *EntryCache) RemoveExpired() int {
	now := c.now()
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += c.removeExpiredLocked(s, now)
		s.mu.Unlock()
	}
	return n
}

// Purge drops every entry.
func (c *EntryCache) Purge() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[domain.Xid]*list.Element)
		s.ordering.Init()
		s.mu.Unlock()
	}
}

func (c *EntryCache) shardFor(xid domain.Xid) *shard {
	if len(c.shards) == 1 {
		return c.shards[0]
	}
	return c.shards[xxhash.Sum64(xid.Bytes())%uint64(len(c.shards))]
}

func (c *EntryCache) expired(e *entry, now time.Time) bool {
	return now.Sub(e.accessedAt) >= c.expire
}

func (c *EntryCache) removeExpiredLocked(s *shard, now time.Time) int {
	n := 0
	for back := s.ordering.Back(); back != nil; back = s.ordering.Back() {
		if !c.expired(back.Value.(*entry), now) {
			break
		}
		c.evictLocked(s, back, EvictExpired)
		n++
	}
	return n
}

func (c *EntryCache) evictLocked(s *shard, el *list.Element, reason EvictReason) {
	e := s.remove(el)
	(*c.onEvict.Load())(e.xid, reason)
}

func (s *shard) remove(el *list.Element) *entry {
	e := el.Value.(*entry)
	delete(s.entries, e.xid)
	s.ordering.Remove(el)
	return e
}
