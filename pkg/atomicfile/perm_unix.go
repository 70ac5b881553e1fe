//go:build !windows

package atomicfile

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// umaskMu serializes the query below so two concurrent opens cannot observe
// each other's momentarily zeroed mask. A different thread mutating the
// process umask at the same time remains a known benign race.
var umaskMu sync.Mutex

// defaultPerm derives the permission bits a plain open would grant: 0666
// masked by the process umask. The umask can only be read by setting it, so
// it is zeroed and immediately restored.
func defaultPerm() os.FileMode {
	umaskMu.Lock()
	mask := unix.Umask(0)
	unix.Umask(mask)
	umaskMu.Unlock()

	return os.FileMode(0o666 &^ mask)
}
