package ports

import (
	"context"
	"time"

	"go.trai.ch/txlog/internal/core/domain"
)

// TransactionRepository is the cache-aside view of the transaction log used
// by the application layer.
//
//go:generate go run go.uber.org/mock/mockgen -source=transaction_repository.go -destination=mocks/mock_transaction_repository.go -package=mocks
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	Update(ctx context.Context, tx *domain.Transaction) error
	Delete(ctx context.Context, tx *domain.Transaction) (int64, error)
	FindByXid(ctx context.Context, xid domain.Xid) (*domain.Transaction, error)
	FindAllUnmodifiedSince(ctx context.Context, ts time.Time) ([]*domain.Transaction, error)
}
