package search

import "errors"

var (
	// ErrExecutorRequired is returned when a query executor is not provided.
	ErrExecutorRequired = errors.New("query executor required")

	// ErrNoCriteria is returned when a request names no search criteria.
	ErrNoCriteria = errors.New("no search criteria")

	// ErrInvalidInputFormat is returned when declarative query inputs are not a JSON array.
	ErrInvalidInputFormat = errors.New("invalid input format")

	// ErrInvalidPattern is returned when a regex filter or its flags cannot be compiled.
	ErrInvalidPattern = errors.New("invalid regex pattern")

	// ErrPatternTimeout is returned when a regex filter exceeds its match timeout.
	ErrPatternTimeout = errors.New("regex match timed out")

	// ErrQueryFailed is returned when the query executor reports a failure.
	ErrQueryFailed = errors.New("query execution failed")
)
