package listgo

import "errors"

var (
	// ErrInvalidPage is returned when the page index is negative.
	ErrInvalidPage = errors.New("page index must be non-negative")

	// ErrInvalidLimit is returned when the page size is not positive.
	ErrInvalidLimit = errors.New("page size must be positive")

	// ErrClosed is returned when the engine has been closed.
	ErrClosed = errors.New("engine is closed")
)
