package atomicfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"atomiccreate/internal/logging"
)

// maxSymlinkAttempts bounds the search for a free temporary link name before
// giving up with ErrTempNamesExhausted.
const maxSymlinkAttempts = 10000

// Replaceable for testing error paths.
var (
	osSymlink = os.Symlink

	symlinkTempName = func(dir, base string) string {
		return filepath.Join(dir, "."+base+"."+uuid.NewString()+".tmp")
	}
)

// Symlink atomically creates or replaces a symbolic link at newname pointing
// to oldname, the counterpart of os.Symlink for destinations that may
// already exist.
//
// The link is first created under a unique temporary name in newname's own
// directory, then renamed onto newname. An existing entry there - file,
// symlink, or anything else renameable - is replaced in that single step, so
// no observer ever finds newname missing or half-written. The parent
// directory of newname is created if absent, including missing ancestors.
//
// Parameters:
//   - oldname: Link target, stored verbatim (may be relative; it is resolved
//     relative to newname's directory when the link is followed)
//   - newname: Path where the symlink should appear
//
// Returns:
//   - error: Directory creation, link creation, or rename errors, or
//     ErrTempNamesExhausted when no free temporary name could be found
//
// Usage example:
//
//	if err := atomicfile.Symlink("releases/v2", "/srv/app/current"); err != nil {
//	    return err
//	}
//
// Note: a temporary-name collision with a concurrent caller is the one
// retried condition, because symlink creation itself is atomic and never
// silently overwrites. Any other failure aborts immediately.
func Symlink(oldname, newname string) error {
	dir := filepath.Dir(newname)
	base := filepath.Base(newname)

	logging.Debug("ensuring parent directory", "dir", dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	for i := 0; i < maxSymlinkAttempts; i++ {
		tmp := symlinkTempName(dir, base)

		if err := osSymlink(oldname, tmp); err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue // Name taken, generate another
			}
			return fmt.Errorf("failed to create temporary symlink: %w", err)
		}

		logging.Debug("staged temporary symlink", "temp", tmp, "points_to", oldname)

		if err := osRename(tmp, newname); err != nil {
			removeTempLink(tmp)
			return fmt.Errorf("failed to rename temporary symlink: %w", err)
		}
		return nil
	}

	return fmt.Errorf("link %s: %w after %d attempts", newname, ErrTempNamesExhausted, maxSymlinkAttempts)
}

// removeTempLink discards a temporary link this call created itself. The
// removal is best-effort: its failure is logged and swallowed so it cannot
// mask the error that brought us here.
func removeTempLink(tmp string) {
	if err := osRemove(tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Debug("failed to remove temporary symlink", "temp", tmp, "err", err)
	}
}
