package export

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned for requests rejected before capture starts.
	ErrInvalidRequest = errors.New("invalid export request")

	// ErrBusy is returned when the renderer is already owned by another export.
	ErrBusy = errors.New("renderer is already exporting")

	// ErrStaleFrame is returned when the renderer never drew the pinned time.
	ErrStaleFrame = errors.New("renderer did not draw the pinned time")
)

// AcquisitionError reports that the renderer could not produce a readable frame.
// It is fatal to the export and never retried.
type AcquisitionError struct {
	Frame int
	Time  float64
	Err   error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquiring frame %d at t=%.3fs: %v", e.Frame, e.Time, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// EncoderError reports that an encoder rejected input or failed to finalize.
type EncoderError struct {
	Stage string
	Err   error
}

func (e *EncoderError) Error() string {
	return fmt.Sprintf("encoder %s: %v", e.Stage, e.Err)
}

func (e *EncoderError) Unwrap() error { return e.Err }
