package ports

// Metrics records repository and cache activity.
//
//go:generate go run go.uber.org/mock/mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// CacheHit counts a lookup answered from the cache.
	CacheHit()
	// CacheMiss counts a lookup that went to the store.
	CacheMiss()
	// CacheEviction counts an entry removed for the given reason ("capacity" or "expired").
	CacheEviction(reason string)
	// Conflict counts a write rejected by the store ("duplicate" or "optimistic_lock").
	Conflict(kind string)
	// StoreError counts a failed store call for the given operation.
	StoreError(op string)
}
