package tracker

import (
	"errors"
	"fmt"
)

// Error variables for reconciliation errors
var (
	// ErrFetchTimeout is returned when a single catalog fetch exceeds its timeout
	ErrFetchTimeout = errors.New("catalog fetch timed out")
	// ErrFetchFailed is returned when the catalog transport or process fails
	ErrFetchFailed = errors.New("catalog fetch failed")
	// ErrParse is returned when a catalog record is malformed
	ErrParse = errors.New("malformed catalog record")
	// ErrNotFound is returned when the catalog has no record for a name
	ErrNotFound = errors.New("package not found in catalog")
	// ErrAmbiguous marks a match the matcher could not decide
	ErrAmbiguous = errors.New("ambiguous match")
	// ErrIncomparable marks a version pair that cannot be ordered
	ErrIncomparable = errors.New("versions are not comparable")
	// ErrDeadlineExceeded is returned when the overall run deadline expires
	ErrDeadlineExceeded = errors.New("run deadline exceeded")
	// ErrUnavailable marks a catalog record that could not be obtained
	ErrUnavailable = errors.New("catalog record unavailable")
)

// FetchError describes why the catalog record for a name could not be obtained.
type FetchError struct {
	// Name is the canonical name that was requested
	Name string
	// Attempts is the number of fetch attempts made
	Attempts int
	// Err is the underlying cause
	Err error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.Name, e.Attempts, e.Err)
}

// Unwrap returns the underlying cause
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports every fetch error as ErrUnavailable
func (e *FetchError) Is(target error) bool {
	return target == ErrUnavailable
}

// isRetryable reports whether another attempt could succeed.
func isRetryable(err error) bool {
	return !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrParse) && !errors.Is(err, ErrDeadlineExceeded)
}
