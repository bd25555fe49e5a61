package reindex

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when a retry policy allows no attempts.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrBlockRepositoryRequired is returned when no block repository is given.
	ErrBlockRepositoryRequired = errors.New("block repository is required")
)
