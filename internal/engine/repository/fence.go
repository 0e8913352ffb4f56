package repository

import (
	"sync"

	"go.trai.ch/txlog/internal/adapters/cache" //nolint:depguard // The repository owns its cache
	"go.trai.ch/txlog/internal/core/domain"
)

// readFence orders cache writes against in-flight store reads. A read may
// only populate the cache if no write or invalidation for the same xid
// happened after the read began.
type readFence struct {
	mu      sync.Mutex
	cache   *cache.EntryCache
	pending map[domain.Xid]*pendingRead
}

type pendingRead struct {
	gen     uint64
	readers int
}

func newReadFence(c *cache.EntryCache) *readFence {
	return &readFence{cache: c, pending: make(map[domain.Xid]*pendingRead)}
}

// begin registers a store read for xid and returns its starting generation.
func (f *readFence) begin(xid domain.Xid) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.pending[xid]
	if !ok {
		p = &pendingRead{}
		f.pending[xid] = p
	}
	p.readers++
	return p.gen
}

// finish ends a read started at gen and caches tx unless the xid was
// written or invalidated meanwhile. It reports whether tx was cached.
func (f *readFence) finish(xid domain.Xid, gen uint64, tx *domain.Transaction) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := f.pending[xid]
	p.readers--
	if p.readers == 0 {
		delete(f.pending, xid)
	}

	if tx == nil || p.gen != gen {
		return false
	}
	f.cache.Put(xid, tx)
	return true
}

func (f *readFence) put(xid domain.Xid, tx *domain.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.bumpLocked(xid)
	f.cache.Put(xid, tx)
}

func (f *readFence) invalidate(xid domain.Xid) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.bumpLocked(xid)
	f.cache.Invalidate(xid)
}

func (f *readFence) bumpLocked(xid domain.Xid) {
	if p, ok := f.pending[xid]; ok {
		p.gen++
	}
}
