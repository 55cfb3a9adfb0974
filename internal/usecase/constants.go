package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// OutcomeCacheTTL is how long terminal intent outcomes stay cached.
	// PENDING outcomes are never cached.
	OutcomeCacheTTL = 24 * time.Hour

	// outcomeCachePrefix namespaces terminal-outcome cache keys by
	// idempotency key.
	outcomeCachePrefix = "outcome:"
)
