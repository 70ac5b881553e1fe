package atomicfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"atomiccreate/internal/logging"
)

// Replaceable for testing error paths.
var (
	osChmod  = os.Chmod
	osRename = os.Rename
	osRemove = os.Remove
)

// File is a scoped handle for writing a file that becomes visible atomically.
// It embeds the underlying *os.File, so reads, writes, and seeks go straight
// to the staged file.
//
// A File must be finished with Commit or Cleanup. Calling both is fine and is
// the intended shape: defer Cleanup right after opening, Commit explicitly on
// the success path. Whichever finalization runs first wins; the other becomes
// a no-op.
//
// A File is not safe for concurrent use.
type File struct {
	*os.File

	target   string
	flag     int
	perm     os.FileMode
	useTemp  bool
	keepTemp bool
	done     bool
}

// Create opens name for writing through a staged temporary file, with the
// same truncate-or-create semantics as os.Create. The target path is not
// touched until Commit renames the staged file onto it.
//
// Parameters:
//   - name: Final path for the file (relative or absolute)
//   - opts: Optional staging, permission, and suffix adjustments
//
// Returns:
//   - *File: Scoped handle for the staged file
//   - error: Parent directory or temporary file creation errors
//
// Usage example:
//
//	f, err := atomicfile.Create("/etc/app/config.yml")
//	if err != nil {
//	    return err
//	}
//	defer f.Cleanup()
//	if _, err := f.WriteString("threads: 4\n"); err != nil {
//	    return err
//	}
//	return f.Commit()
func Create(name string, opts ...Option) (*File, error) {
	return OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, opts...)
}

// OpenFile is the generalized form of Create. It opens name with the given
// flag (os.O_WRONLY, os.O_APPEND, and so on) and decides from that flag
// whether the write can be staged through a temporary file.
//
// Staging is on by default exactly when the flag permits it. A mode that
// depends on the file already at the target path cannot stage: reads
// (os.O_RDONLY), read-write updates (os.O_RDWR), appends (os.O_APPEND), and
// exclusive creation (os.O_EXCL) all open the target directly and modify it
// in place. WithTempFile overrides the default, but forcing staging on for
// one of the direct modes fails with ErrTempUnavailable before any
// filesystem access.
//
// For any mode that can write, the parent directory of name is created
// first, including missing ancestors. Concurrent creation of the same
// directory is treated as success.
//
// Parameters:
//   - name: Final path for the file (relative or absolute)
//   - flag: Open flags as passed to os.OpenFile
//   - opts: Optional staging, permission, and suffix adjustments
//
// Returns:
//   - *File: Scoped handle, staged or direct depending on flag and options
//   - error: ErrTempUnavailable for impossible option combinations, or
//     directory creation and open errors
func OpenFile(name string, flag int, opts ...Option) (*File, error) {
	cfg := config{suffix: DefaultTempSuffix}
	for _, opt := range opts {
		opt(&cfg)
	}

	useTemp := !stagingBlocked(flag)
	if cfg.useTemp != nil {
		if *cfg.useTemp && stagingBlocked(flag) {
			return nil, fmt.Errorf("open %s: %w", name, ErrTempUnavailable)
		}
		useTemp = *cfg.useTemp
	}

	perm := cfg.perm
	if !cfg.permSet {
		perm = defaultPerm()
	}

	dir := filepath.Dir(name)
	if writeImplied(flag) {
		logging.Debug("ensuring parent directory", "dir", dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create parent directory: %w", err)
		}
	}

	var fh *os.File
	var err error
	if useTemp {
		// Staged in the target's own directory so the final rename
		// stays on one filesystem.
		fh, err = os.CreateTemp(dir, filepath.Base(name)+".*"+cfg.suffix)
		if err != nil {
			return nil, fmt.Errorf("failed to create temporary file: %w", err)
		}
		logging.Debug("staged temporary file", "target", name, "temp", fh.Name())
	} else {
		fh, err = os.OpenFile(name, flag, 0o666)
		if err != nil {
			return nil, fmt.Errorf("failed to open target file: %w", err)
		}
	}

	return &File{
		File:     fh,
		target:   name,
		flag:     flag,
		perm:     perm,
		useTemp:  useTemp,
		keepTemp: cfg.keepTemp,
	}, nil
}

// stagingBlocked reports whether flag names a mode whose semantics depend on
// the file already at the target path.
func stagingBlocked(flag int) bool {
	switch flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR) {
	case os.O_RDONLY, os.O_RDWR:
		return true
	}
	return flag&(os.O_APPEND|os.O_EXCL) != 0
}

// writeImplied reports whether flag can modify or create the target, which
// is when the parent directory must exist.
func writeImplied(flag int) bool {
	return flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_EXCL) != 0
}

// Commit finalizes the scope: pending writes are synced to disk, the handle
// is closed, permission bits are applied, and a staged temporary file is
// renamed onto the target path in one atomic step. For a direct-mode File
// there is nothing to rename; sync, close, and permissions still apply.
//
// On failure Commit returns the error without deleting anything; the staged
// file is still in place at that point. The File then counts as unfinished,
// so a deferred Cleanup removes the staged file (unless WithKeepTempOnError
// was given) and the target keeps its prior content.
//
// Commit after a completed Commit or Cleanup fails with an error wrapping
// os.ErrClosed.
func (f *File) Commit() error {
	if f.done {
		return fmt.Errorf("commit %s: already finalized: %w", f.target, os.ErrClosed)
	}

	// Read-only handles have nothing to flush and some platforms reject
	// the sync outright. A handle the caller closed already flushed.
	if f.flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND) != 0 {
		if err := f.Sync(); err != nil && !errors.Is(err, os.ErrClosed) {
			return fmt.Errorf("failed to sync file: %w", err)
		}
	}

	if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("failed to close file: %w", err)
	}

	// WithPerm(0) turns the permission step off.
	if f.perm != 0 {
		if err := osChmod(f.Name(), f.perm); err != nil {
			return fmt.Errorf("failed to set permissions: %w", err)
		}
	}

	if f.useTemp {
		logging.Debug("publishing staged file", "temp", f.Name(), "target", f.target)
		// Atomic rename - this is the step that makes the content visible.
		if err := osRename(f.Name(), f.target); err != nil {
			return fmt.Errorf("failed to rename temporary file: %w", err)
		}
	}

	f.done = true
	return nil
}

// Cleanup discards the scope. A staged temporary file is removed; a
// direct-mode target is never touched. After a successful Commit, or a
// previous Cleanup, it does nothing and returns nil, so deferring it
// unconditionally is always safe.
//
// A failed removal is returned for reporting but is deliberately harmless to
// the caller's own error: the usual deferred call discards it.
func (f *File) Cleanup() error {
	if f.done {
		return nil
	}
	f.done = true

	closeErr := f.Close()
	if closeErr != nil && errors.Is(closeErr, os.ErrClosed) {
		closeErr = nil
	}

	if f.useTemp && !f.keepTemp {
		logging.Debug("removing staged file", "temp", f.Name())
		if err := osRemove(f.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			// The deferred call discards this return, so leave a trace.
			logging.Debug("failed to remove staged file", "temp", f.Name(), "err", err)
			return fmt.Errorf("failed to remove temporary file: %w", err)
		}
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close file: %w", closeErr)
	}
	return nil
}
