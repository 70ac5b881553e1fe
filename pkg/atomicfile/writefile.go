package atomicfile

import (
	"fmt"
	"io"
	"os"
)

// WriteFile writes data to name atomically, the staged counterpart of
// os.WriteFile. The target either keeps its previous content or holds
// exactly data afterward; readers never see anything in between.
//
// Parameters:
//   - name: Final path for the file
//   - data: Complete file content
//   - opts: Optional staging, permission, and suffix adjustments
//
// Returns:
//   - error: Open, write, or finalization errors
//
// Usage example:
//
//	if err := atomicfile.WriteFile("/etc/app/config.yml", payload); err != nil {
//	    log.Fatalf("write failed: %v", err)
//	}
func WriteFile(name string, data []byte, opts ...Option) error {
	f, err := Create(name, opts...)
	if err != nil {
		return err
	}
	defer f.Cleanup()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write file contents: %w", err)
	}

	return f.Commit()
}

// CopyFile copies src to dst atomically. The copy is staged next to dst and
// renamed into place once fully written and synced, so dst either appears
// fully copied or keeps its previous state. Missing parent directories of
// dst are created.
//
// Parameters:
//   - src: Path of the file to read
//   - dst: Final path for the copy
//   - opts: Optional staging, permission, and suffix adjustments
//
// Returns:
//   - error: Source access, copy, or finalization errors
//
// Note: dst is overwritten without warning if it exists.
func CopyFile(src, dst string, opts ...Option) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	f, err := Create(dst, opts...)
	if err != nil {
		return err
	}
	defer f.Cleanup()

	if _, err := io.Copy(f, srcFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	return f.Commit()
}
