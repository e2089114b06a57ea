package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "scans", "b.pdf"))
	touch(t, filepath.Join(dir, "scans", "a.JPG"))
	touch(t, filepath.Join(dir, "scans", "notes.txt"))
	touch(t, filepath.Join(dir, "scans", ".hidden", "c.pdf"))
	single := filepath.Join(dir, "z.png")
	touch(t, single)

	files, stats, err := CollectFiles([]string{single, filepath.Join(dir, "scans")}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		single,
		filepath.Join(dir, "scans", "a.JPG"),
		filepath.Join(dir, "scans", "b.pdf"),
	}, files)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(1), stats.Skipped)

	_, _, err = CollectFiles([]string{filepath.Join(dir, "scans", "notes.txt")}, true)
	assert.Error(t, err)

	_, _, err = CollectFiles(nil, true)
	assert.Error(t, err)
}

func TestAllowedExt(t *testing.T) {
	assert.True(t, AllowedExt(".PDF"))
	assert.True(t, AllowedExt("jpeg"))
	assert.False(t, AllowedExt(".heic"))
	assert.True(t, IsHidden("/x/.DS_Store"))
}

func TestWatcherBatchesBurst(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "old.pdf")
	touch(t, existing)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	batches, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    200 * time.Millisecond,
	}, logger)
	require.NoError(t, err)

	select {
	case b := <-batches:
		assert.Equal(t, []string{existing}, b)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial batch")
	}

	touch(t, filepath.Join(dir, "b.pdf"))
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "ignored.txt"))

	select {
	case b := <-batches:
		assert.Equal(t, []string{filepath.Join(dir, "a.jpg"), filepath.Join(dir, "b.pdf")}, b)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch for new files")
	}
}

func TestWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)
}
