package core

import "errors"

var (
	// ErrInvalidPage indicates a Page failed validation.
	ErrInvalidPage = errors.New("invalid page")

	// ErrInvalidBlock indicates a Block failed validation.
	ErrInvalidBlock = errors.New("invalid block")

	// ErrEmptyTitle indicates the page Title field is empty.
	ErrEmptyTitle = errors.New("page title cannot be empty")

	// ErrEmptyUID indicates the UID field is empty.
	ErrEmptyUID = errors.New("uid cannot be empty")

	// ErrMissingPage indicates a block is not attached to a page.
	ErrMissingPage = errors.New("block must belong to a page")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")
)
