package lists

import "errors"

var (
	// ErrAlreadyListed means the user already holds an entry for the book.
	// Callers treat it as an informational outcome, not a failure.
	ErrAlreadyListed = errors.New("that book is already in your list")

	// ErrListFull means the user's list is at the 10-entry cap.
	ErrListFull = errors.New("your list already has 10 books")
)

// ValidationError is returned when a reorder request does not describe a
// permutation of the user's current entries. Nothing is mutated when one is
// returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid order: " + e.Reason
}

// IsValidationError reports whether err is a reorder validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
