package atomicfile

import "os"

// DefaultTempSuffix is appended to staged temporary file names unless
// WithTempSuffix overrides it.
const DefaultTempSuffix = ".tmp"

type config struct {
	useTemp  *bool
	keepTemp bool
	perm     os.FileMode
	permSet  bool
	suffix   string
}

// Option adjusts how Create and OpenFile stage and finalize a file.
type Option func(*config)

// WithTempFile forces temp-file staging on or off, overriding the default
// derived from the open flags. Forcing staging on for a mode that must
// operate on the target directly (read, read-write, append, or
// exclusive-create) makes OpenFile fail with ErrTempUnavailable.
//
// Turning staging off trades atomicity for an in-place write; a crash
// mid-write can then leave a partial file at the target path.
func WithTempFile(useTemp bool) Option {
	return func(c *config) {
		c.useTemp = &useTemp
	}
}

// WithKeepTempOnError preserves the staged temporary file when the scope
// fails, instead of removing it during Cleanup. The orphaned file holds
// whatever was written before the failure and is the caller's to delete.
func WithKeepTempOnError() Option {
	return func(c *config) {
		c.keepTemp = true
	}
}

// WithPerm sets the permission bits Commit applies to the file. Without this
// option the bits default to 0666 masked by the process umask, matching what
// a plain open would have granted.
//
// WithPerm(0) is explicit: it disables the permission step entirely, leaving
// whatever mode the file was created with.
func WithPerm(perm os.FileMode) Option {
	return func(c *config) {
		c.perm = perm
		c.permSet = true
	}
}

// WithTempSuffix replaces the DefaultTempSuffix on staged temporary file
// names. The suffix only affects the staged name; the target path is used
// verbatim.
func WithTempSuffix(suffix string) Option {
	return func(c *config) {
		c.suffix = suffix
	}
}
