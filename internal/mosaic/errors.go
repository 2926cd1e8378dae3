package mosaic

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidInput reports a missing or non-positive pipeline setting, or a
	// pixel block that cannot be reduced. No work is attempted when it is
	// returned.
	ErrInvalidInput = errors.New("invalid input")

	// ErrResolutionFailure reports that a substitute image could not be
	// obtained for a color key.
	ErrResolutionFailure = errors.New("substitute resolution failed")

	// ErrCompositeFailure reports that a row could not be drawn onto the
	// composite target.
	ErrCompositeFailure = errors.New("row composite failed")

	// ErrBusy is returned when ProcessImage is called while a run is already
	// in progress on the same pipeline.
	ErrBusy = errors.New("pipeline run already in progress")
)

// ResolutionError is the failure cached for a color key. Every tile that
// requested Key observes the same value.
type ResolutionError struct {
	Key ColorKey
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Key, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrResolutionFailure) hold for any ResolutionError.
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolutionFailure
}

// RowError reports why a single row was not composited.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrCompositeFailure) hold for any RowError.
func (e *RowError) Is(target error) bool {
	return target == ErrCompositeFailure
}
