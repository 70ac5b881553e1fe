//go:build windows

package atomicfile

import "os"

// defaultPerm matches what os.Create grants on Windows, where no process
// umask exists.
func defaultPerm() os.FileMode {
	return 0o644
}
