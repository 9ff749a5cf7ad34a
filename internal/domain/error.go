package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Payment protocol errors
	ErrOrderAlreadyPaid        = errors.New("order already paid")
	ErrAmountMismatch          = errors.New("payment amount does not match order")
	ErrTransactionInProgress   = errors.New("another transaction is in progress for this order")
	ErrInvalidTransactionState = errors.New("transaction is in an invalid state")

	// Lifecycle errors
	ErrSweepLocked = errors.New("lifecycle sweep already running")
)
