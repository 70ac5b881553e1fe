package atomicfile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers for symlink operations

func skipWithoutSymlinks(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires elevated privileges on Windows")
	}
}

func readLinkTarget(t *testing.T, link string) string {
	t.Helper()
	target, err := os.Readlink(link)
	require.NoError(t, err)
	return target
}

// Tests for Symlink

func TestSymlink(t *testing.T) {
	skipWithoutSymlinks(t)

	t.Run("creates a fresh link", func(t *testing.T) {
		dir := t.TempDir()
		link := filepath.Join(dir, "current")

		require.NoError(t, Symlink("/a/b", link))

		info, err := os.Lstat(link)
		require.NoError(t, err)
		assert.NotZero(t, info.Mode()&os.ModeSymlink)
		assert.Equal(t, "/a/b", readLinkTarget(t, link))
	})

	t.Run("repoints an existing link", func(t *testing.T) {
		dir := t.TempDir()
		link := filepath.Join(dir, "current")

		require.NoError(t, Symlink("/a/b", link))
		require.NoError(t, Symlink("/c/d", link))

		assert.Equal(t, "/c/d", readLinkTarget(t, link))
	})

	t.Run("replaces a regular file", func(t *testing.T) {
		dir := t.TempDir()
		link := filepath.Join(dir, "current")
		writeTestFile(t, link, "plain file")

		require.NoError(t, Symlink("elsewhere", link))

		info, err := os.Lstat(link)
		require.NoError(t, err)
		assert.NotZero(t, info.Mode()&os.ModeSymlink)
		assert.Equal(t, "elsewhere", readLinkTarget(t, link))
	})

	t.Run("creates missing parent directories", func(t *testing.T) {
		dir := t.TempDir()
		link := filepath.Join(dir, "releases", "app", "current")

		require.NoError(t, Symlink("v2", link))

		assert.DirExists(t, filepath.Join(dir, "releases", "app"))
		assert.Equal(t, "v2", readLinkTarget(t, link))
	})

	t.Run("leaves no temporary entries behind", func(t *testing.T) {
		dir := t.TempDir()
		link := filepath.Join(dir, "current")

		require.NoError(t, Symlink("/first", link))
		require.NoError(t, Symlink("/second", link))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "current", entries[0].Name())
	})

	t.Run("relative targets resolve next to the link", func(t *testing.T) {
		dir := t.TempDir()
		writeTestFile(t, filepath.Join(dir, "data.txt"), "payload")

		alias := filepath.Join(dir, "alias")
		require.NoError(t, Symlink("data.txt", alias))

		assert.Equal(t, "payload", readFileContent(t, alias))
	})
}

func TestSymlinkCollisions(t *testing.T) {
	skipWithoutSymlinks(t)

	t.Run("retries taken names until one is free", func(t *testing.T) {
		dir := t.TempDir()
		link := filepath.Join(dir, "current")

		var n int
		orig := symlinkTempName
		symlinkTempName = func(dir, base string) string {
			name := filepath.Join(dir, fmt.Sprintf(".%s.collide%d.tmp", base, n))
			n++
			return name
		}
		defer func() { symlinkTempName = orig }()

		// The first two generated names are already taken by others.
		taken0 := filepath.Join(dir, ".current.collide0.tmp")
		taken1 := filepath.Join(dir, ".current.collide1.tmp")
		writeTestFile(t, taken0, "foreign")
		writeTestFile(t, taken1, "foreign")

		require.NoError(t, Symlink("/target", link))
		assert.Equal(t, "/target", readLinkTarget(t, link))

		// Colliding entries belong to someone else and must survive.
		assert.FileExists(t, taken0)
		assert.FileExists(t, taken1)
		assert.NoFileExists(t, filepath.Join(dir, ".current.collide2.tmp"))
	})

	t.Run("gives up once the attempt bound is reached", func(t *testing.T) {
		dir := t.TempDir()
		link := filepath.Join(dir, "current")

		stuck := filepath.Join(dir, ".current.stuck.tmp")
		writeTestFile(t, stuck, "foreign")

		orig := symlinkTempName
		symlinkTempName = func(string, string) string { return stuck }
		defer func() { symlinkTempName = orig }()

		err := Symlink("/target", link)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTempNamesExhausted)

		// Exhaustion never deletes an entry this call did not create.
		assert.FileExists(t, stuck)
		assert.Equal(t, "foreign", readFileContent(t, stuck))
		assert.NoFileExists(t, link)
	})

	t.Run("aborts on unexpected creation failures", func(t *testing.T) {
		dir := t.TempDir()
		link := filepath.Join(dir, "current")

		var calls int
		orig := osSymlink
		osSymlink = func(oldname, newname string) error {
			calls++
			return &os.LinkError{Op: "symlink", Old: oldname, New: newname, Err: fs.ErrPermission}
		}
		defer func() { osSymlink = orig }()

		err := Symlink("/target", link)
		require.Error(t, err)
		assert.ErrorIs(t, err, fs.ErrPermission)
		assert.NotErrorIs(t, err, ErrTempNamesExhausted)

		// Only name collisions are retried.
		assert.Equal(t, 1, calls)
		assert.NoFileExists(t, link)
	})

	t.Run("removes its own staged link when the rename fails", func(t *testing.T) {
		dir := t.TempDir()
		link := filepath.Join(dir, "current")

		injected := &os.LinkError{Op: "rename", Old: "a", New: "b", Err: fs.ErrPermission}
		orig := osRename
		osRename = func(string, string) error { return injected }
		defer func() { osRename = orig }()

		err := Symlink("/target", link)
		require.Error(t, err)
		assert.ErrorIs(t, err, fs.ErrPermission)

		// The staged link is swept up and the destination stays absent.
		assert.NoFileExists(t, link)
		assert.Empty(t, tempEntries(t, dir, ".tmp"))
	})
}

func TestSymlinkConcurrent(t *testing.T) {
	skipWithoutSymlinks(t)

	dir := t.TempDir()
	link := filepath.Join(dir, "current")

	const writers = 8
	targets := make([]string, writers)
	for i := range targets {
		targets[i] = fmt.Sprintf("release-%d", i)
	}

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = Symlink(targets[i], link)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "writer %d", i)
	}

	// The surviving link points at one complete target, and nothing else
	// is left in the directory.
	assert.Contains(t, targets, readLinkTarget(t, link))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
