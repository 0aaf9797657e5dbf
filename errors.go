package retouch

import "errors"

var (
	// ErrUnsupported is returned by New when the backend reports that it
	// cannot render on this device.
	ErrUnsupported = errors.New("retouch: graphics backend not available")

	// ErrProgram wraps a backend failure to prepare a shader program.
	ErrProgram = errors.New("retouch: program setup failed")

	// ErrEmptyImage is returned by Reset for an image with no pixels.
	ErrEmptyImage = errors.New("retouch: image has no pixels")

	// ErrDestroyed is returned by operations on an engine after Destroy.
	ErrDestroyed = errors.New("retouch: engine destroyed")
)
