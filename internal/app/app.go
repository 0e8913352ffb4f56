// Package app implements the application layer for txlog.
package app

import (
	"context"
	"slices"
	"time"

	"go.trai.ch/txlog/internal/core/domain"
	"go.trai.ch/txlog/internal/core/ports"
	"go.trai.ch/zerr"
)

// App exposes the administrative operations of the transaction log.
type App struct {
	repo   ports.TransactionRepository
	logger ports.Logger
	now    func() time.Time
}

// New creates a new App instance.
func New(repo ports.TransactionRepository, logger ports.Logger) *App {
	return &App{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the clock used by Recover.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// BeginOptions describes a transaction to create.
type BeginOptions struct {
	// Root makes the new transaction a branch of the given root.
	Root *domain.Xid
	// Participants with a zero Xid are given a fresh branch of the new transaction.
	Participants []domain.Participant
	Attachments  map[string]string
}

// Begin creates and persists a new transaction in the TRYING state.
func (a *App) Begin(ctx context.Context, opts BeginOptions) (*domain.Transaction, error) {
	tx := domain.NewTransaction()
	if opts.Root != nil {
		tx = domain.NewBranchTransaction(*opts.Root)
	}

	for _, p := range opts.Participants {
		if p.Xid.IsZero() {
			p.Xid = domain.NewBranchXid(tx.Xid.GlobalID)
		}
		tx.Enlist(p)
	}
	for k, v := range opts.Attachments {
		tx.Attach(k, v)
	}

	if err := a.repo.Create(ctx, tx); err != nil {
		return nil, err
	}

	a.logger.Info("transaction created", "xid", tx.Xid.String(), "type", string(tx.Type))
	return tx, nil
}

// Show returns the transaction for xid or domain.ErrTransactionNotFound.
func (a *App) Show(ctx context.Context, xid domain.Xid) (*domain.Transaction, error) {
	tx, err := a.repo.FindByXid(ctx, xid)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrTransactionNotFound, "no such transaction"), "xid", xid.String())
	}
	return tx, nil
}

// ChangeStatus moves the transaction to status.
func (a *App) ChangeStatus(ctx context.Context, xid domain.Xid, status domain.TransactionStatus) (*domain.Transaction, error) {
	return a.modify(ctx, xid, func(tx *domain.Transaction) {
		tx.ChangeStatus(status)
	})
}

// Retry increments the retried count of the transaction.
func (a *App) Retry(ctx context.Context, xid domain.Xid) (*domain.Transaction, error) {
	return a.modify(ctx, xid, (*domain.Transaction).AddRetriedCount)
}

func (a *App) modify(ctx context.Context, xid domain.Xid, mutate func(*domain.Transaction)) (*domain.Transaction, error) {
	tx, err := a.Show(ctx, xid)
	if err != nil {
		return nil, err
	}

	mutate(tx)

	if err := a.repo.Update(ctx, tx); err != nil {
		return nil, err
	}

	a.logger.Info("transaction updated",
		"xid", tx.Xid.String(),
		"status", string(tx.Status),
		"version", tx.Version,
		"retriedCount", tx.RetriedCount)
	return tx, nil
}

// Delete removes the transaction for xid.
func (a *App) Delete(ctx context.Context, xid domain.Xid) error {
	tx, err := a.Show(ctx, xid)
	if err != nil {
		return err
	}

	n, err := a.repo.Delete(ctx, tx)
	if err != nil {
		return err
	}
	if n == 0 {
		// Removed by another writer between the read and the delete.
		return zerr.With(zerr.Wrap(domain.ErrTransactionNotFound, "no such transaction"), "xid", xid.String())
	}

	a.logger.Info("transaction deleted", "xid", xid.String())
	return nil
}

// Recover lists transactions left untouched for at least olderThan, oldest first.
func (a *App) Recover(ctx context.Context, olderThan time.Duration) ([]*domain.Transaction, error) {
	if olderThan < 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidArgument, "age must not be negative"), "olderThan", olderThan.String())
	}

	since := a.now().Add(-olderThan)
	txs, err := a.repo.FindAllUnmodifiedSince(ctx, since)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(txs, func(a, b *domain.Transaction) int {
		return a.LastUpdateTime.Compare(b.LastUpdateTime)
	})

	a.logger.Info("recovery sweep", "since", since, "found", len(txs))
	return txs, nil
}
