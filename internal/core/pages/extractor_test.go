package pages

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner mimics pdftoppm by writing n numbered JPEGs next to the prefix.
type fakeRunner struct {
	pages int
	err   error
	args  []string
}

func (f *fakeRunner) Run(_ context.Context, _ string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	f.args = args
	if f.err != nil {
		return nil, []byte("boom"), f.err
	}
	prefix := args[len(args)-1]
	for i := 1; i <= f.pages; i++ {
		name := fmt.Sprintf("%s-%d.jpg", prefix, i)
		if err := os.WriteFile(name, []byte(fmt.Sprintf("page %d", i)), 0o644); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func newTestExtractor(cfg Config, r Runner, count int) *Extractor {
	return NewExtractor(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithRunner(r),
		WithPageCounter(func(string) (int, error) { return count, nil }),
	)
}

// writeSource creates a source file whose bytes identify its pages.
func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func digestOf(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func TestExtractPDFOrdersPages(t *testing.T) {
	runner := &fakeRunner{pages: 11}
	e := newTestExtractor(Config{DPI: 200}, runner, 11)
	path := writeSource(t, t.TempDir(), "ballots.pdf", "%PDF ballots")

	pages, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 11)

	for i, p := range pages {
		assert.Equal(t, i+1, p.PageNumber)
		assert.Equal(t, fmt.Sprintf("%s#%d", digestOf("%PDF ballots"), i+1), p.ID)
		assert.Equal(t, "ballots.pdf", p.SourceFile)
		assert.Equal(t, "image/jpeg", p.MimeType)
		assert.Equal(t, fmt.Sprintf("page %d", i+1), string(p.Image))
	}
	assert.Equal(t, []string{"-jpeg", "-r", "200", path}, runner.args[:4])
}

func TestExtractPDFMaxPages(t *testing.T) {
	runner := &fakeRunner{pages: 3}
	e := newTestExtractor(Config{MaxPages: 3}, runner, 10)

	pages, err := e.Extract(context.Background(), writeSource(t, t.TempDir(), "big.pdf", "%PDF big"))
	require.NoError(t, err)
	assert.Len(t, pages, 3)
	assert.Contains(t, runner.args, "-l")
}

func TestExtractPDFRunnerFailure(t *testing.T) {
	e := newTestExtractor(Config{}, &fakeRunner{err: errors.New("exit status 1")}, 1)

	_, err := e.Extract(context.Background(), writeSource(t, t.TempDir(), "broken.pdf", "%PDF broken"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftoppm")
}

func TestExtractPDFNoOutput(t *testing.T) {
	e := newTestExtractor(Config{}, &fakeRunner{pages: 0}, 0)

	_, err := e.Extract(context.Background(), writeSource(t, t.TempDir(), "empty.pdf", "%PDF empty"))
	assert.Error(t, err)
}

func TestExtractPDFMissingFile(t *testing.T) {
	runner := &fakeRunner{pages: 1}
	e := newTestExtractor(Config{}, runner, 1)

	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"))
	require.Error(t, err)
	assert.Nil(t, runner.args)
}

func TestExtractImage(t *testing.T) {
	path := writeSource(t, t.TempDir(), "scan.PNG", "png-bytes")

	e := newTestExtractor(Config{}, &fakeRunner{}, 0)
	pages, err := e.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, digestOf("png-bytes")+"#1", pages[0].ID)
	assert.Equal(t, "scan.PNG", pages[0].SourceFile)
	assert.Equal(t, "image/png", pages[0].MimeType)
	assert.Equal(t, "png-bytes", string(pages[0].Image))
}

func TestExtractUnsupported(t *testing.T) {
	e := newTestExtractor(Config{}, &fakeRunner{}, 0)
	_, err := e.Extract(context.Background(), "notes.docx")
	assert.Error(t, err)
}

func TestExtractAllConcatenates(t *testing.T) {
	dir := t.TempDir()
	pdf := writeSource(t, dir, "first.pdf", "%PDF first")
	img := writeSource(t, dir, "last.jpg", "jpg")

	e := newTestExtractor(Config{}, &fakeRunner{pages: 2}, 2)
	pages, err := e.ExtractAll(context.Background(), []string{pdf, img})
	require.NoError(t, err)
	require.Len(t, pages, 3)
	first := digestOf("%PDF first")
	assert.Equal(t, []string{first + "#1", first + "#2", digestOf("jpg") + "#1"}, []string{pages[0].ID, pages[1].ID, pages[2].ID})
}

func TestSameNameDifferentContentGetsDistinctIDs(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a/scan.png", "first ballot")
	b := writeSource(t, dir, "b/scan.png", "second ballot")
	copied := writeSource(t, dir, "c/renamed.png", "first ballot")

	e := newTestExtractor(Config{}, &fakeRunner{}, 0)
	pages, err := e.ExtractAll(context.Background(), []string{a, b, copied})
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.NotEqual(t, pages[0].ID, pages[1].ID)
	assert.Equal(t, pages[0].ID, pages[2].ID)
	assert.Equal(t, "scan.png", pages[1].SourceFile)
}

func TestSortByPageNumber(t *testing.T) {
	in := []string{"/t/page-10.jpg", "/t/page-2.jpg", "/t/page-1.jpg"}
	assert.Equal(t, []string{"/t/page-1.jpg", "/t/page-2.jpg", "/t/page-10.jpg"}, sortByPageNumber(in))
}
