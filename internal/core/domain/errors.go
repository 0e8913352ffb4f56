package domain

import "go.trai.ch/zerr"

var (
	// ErrDuplicateTransaction is returned when a transaction with the same xid already exists in the store.
	ErrDuplicateTransaction = zerr.New("transaction xid duplicated")

	// ErrOptimisticLock is returned when an update lost the race against another writer.
	ErrOptimisticLock = zerr.New("optimistic lock conflict")

	// ErrSnapshot is returned when a transaction cannot be copied before it is written.
	// It indicates a defect in the record, not contention.
	ErrSnapshot = zerr.New("transaction snapshot failed")

	// ErrInvalidXid is returned when an xid cannot be parsed.
	ErrInvalidXid = zerr.New("invalid xid")

	// ErrUnknownBackend is returned when the configured store backend does not exist.
	ErrUnknownBackend = zerr.New("unknown store backend")

	// ErrStoreClosed is returned when a store is used after Close.
	ErrStoreClosed = zerr.New("store is closed")

	// ErrInvalidConfig is returned when the configuration fails validation.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrInvalidArgument is returned when a caller passes a value outside its accepted range.
	ErrInvalidArgument = zerr.New("invalid argument")

	// ErrTransactionNotFound is returned by callers that require a transaction to exist.
	ErrTransactionNotFound = zerr.New("transaction not found")
)
