package atomicfile

import "errors"

// Sentinel errors for the failure cases callers are expected to branch on.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	f, err := atomicfile.OpenFile(path, flags, atomicfile.WithTempFile(true))
//	if errors.Is(err, atomicfile.ErrTempUnavailable) {
//	    // Fall back to a direct, non-staged open
//	}
var (
	// ErrTempUnavailable indicates staging was requested for a mode that
	// must operate on the target file directly (read, read-write, append,
	// or exclusive-create).
	ErrTempUnavailable = errors.New("temporary file unavailable for this mode")

	// ErrTempNamesExhausted indicates every generated temporary symlink
	// name was already taken within the attempt bound.
	ErrTempNamesExhausted = errors.New("no usable temporary name found")
)
