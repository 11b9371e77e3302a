package expense

import (
	"errors"
	"fmt"
)

var (
	// ErrBlobUpload indicates the receipt file could not be stored; the
	// record append is never attempted in that case.
	ErrBlobUpload = errors.New("uploading receipt blob failed")

	// ErrPersist indicates the record append failed. An already-uploaded
	// blob is left orphaned; callers decide whether to retry.
	ErrPersist = errors.New("persisting expense record failed")
)

// InvalidInputError reports a form field that failed validation.
// No side effects have been performed when it is returned.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input for %q: %s", e.Field, e.Reason)
}

func invalidInput(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}
