// Package atomicfile provides all-or-nothing file creation and symlink
// replacement built on the temp-then-rename protocol.
//
// Content staged through this package becomes visible at its final path in a
// single rename step. A concurrent reader observes either the previous state
// or the new complete state, never a partially written file, because the
// staged entry lives in the destination's own directory and the rename is
// same-filesystem and atomic.
//
// # Scoped Writes
//
// Create and OpenFile return a *File that embeds *os.File, so the usual
// io surface is available directly. Every File is finished with exactly one
// effective call out of two:
//
//  1. Commit - flush, close, apply permissions, and rename the staged
//     temporary file onto the target path
//  2. Cleanup - close and remove the staged temporary file, leaving the
//     target untouched
//
// Cleanup after a successful Commit does nothing, so the intended shape is a
// deferred Cleanup guarding an explicit Commit:
//
//	f, err := atomicfile.Create("/etc/app/config.yml")
//	if err != nil {
//	    return err
//	}
//	defer f.Cleanup()
//
//	if _, err := f.WriteString("threads: 4\n"); err != nil {
//	    return err
//	}
//	return f.Commit()
//
// If the write or the Commit fails, the deferred Cleanup removes the staged
// file and the target keeps its prior content. WithKeepTempOnError preserves
// the staged file instead, for diagnosis.
//
// # Modes Without Staging
//
// OpenFile disables staging for flag combinations whose semantics depend on
// the file already at the target path: reads (os.O_RDONLY), read-write
// updates (os.O_RDWR), appends (os.O_APPEND), and exclusive creation
// (os.O_EXCL) all open the target directly. Commit and Cleanup stay valid in
// those modes; they simply have no rename or removal work to do. Forcing
// staging on for one of these modes with WithTempFile(true) fails with
// ErrTempUnavailable before anything touches the filesystem.
//
// # Permissions
//
// By default Commit applies the permission bits a plain open would grant,
// 0666 masked by the process umask. WithPerm overrides them, and WithPerm(0)
// skips the permission step entirely.
//
// # Symlinks
//
// Symlink atomically creates or replaces a symbolic link, staging it under a
// unique temporary name in the same directory first:
//
//	if err := atomicfile.Symlink("releases/v2", "/srv/app/current"); err != nil {
//	    return err
//	}
//
// There is no window where the link is missing; an existing entry is replaced
// by the rename, never removed first.
//
// # Convenience Wrappers
//
// WriteFile and CopyFile bundle the open, write, and commit sequence for the
// common whole-file cases.
package atomicfile
