// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"time"

	"go.trai.ch/txlog/internal/core/domain"
)

// TransactionStore is the durable transaction log the repository caches.
//
// Write methods return the number of records they affected. Stores detect
// conflicting writers themselves and report them as a zero effect count
// rather than an error.
//
//go:generate go run go.uber.org/mock/mockgen -source=transaction_store.go -destination=mocks/mock_transaction_store.go -package=mocks
type TransactionStore interface {
	// Create persists a new record. It returns 0 if the xid already exists.
	Create(ctx context.Context, tx *domain.Transaction) (int64, error)

	// Update persists tx if the stored version equals tx.Version, then
	// advances tx.Version and tx.LastUpdateTime. It returns 0 on a version conflict.
	Update(ctx context.Context, tx *domain.Transaction) (int64, error)

	// Delete removes the record for tx.Xid.
	Delete(ctx context.Context, tx *domain.Transaction) (int64, error)

	// FindOne returns the record for xid.
	// Returns nil, nil if not found.
	FindOne(ctx context.Context, xid domain.Xid) (*domain.Transaction, error)

	// FindAllUnmodifiedSince returns every record last modified at or before ts.
	FindAllUnmodifiedSince(ctx context.Context, ts time.Time) ([]*domain.Transaction, error)
}
