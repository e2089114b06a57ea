package pages

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/ballot-registry/constants"
	"github.com/joseph-ayodele/ballot-registry/internal/entity"
)

type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // rasterization DPI, default 150
	MaxPages int    // per file, 0 = no limit
}

// Extractor turns source files into ordered page images.
type Extractor struct {
	cfg        Config
	runner     Runner
	countPages func(path string) (int, error)
	logger     *slog.Logger
}

type Option func(*Extractor)

// WithRunner replaces the command runner (tests).
func WithRunner(r Runner) Option {
	return func(e *Extractor) { e.runner = r }
}

// WithPageCounter replaces the PDF page counter (tests).
func WithPageCounter(fn func(path string) (int, error)) Option {
	return func(e *Extractor) { e.countPages = fn }
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 150
	}
	e := &Extractor{cfg: cfg, runner: execRunner{}, countPages: pdfPageCount, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ExtractAll concatenates the pages of every file in argument order.
func (e *Extractor) ExtractAll(ctx context.Context, paths []string) ([]entity.Page, error) {
	var out []entity.Page
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		pages, err := e.Extract(ctx, p)
		if err != nil {
			return out, fmt.Errorf("extract pages from %s: %w", p, err)
		}
		out = append(out, pages...)
	}
	return out, nil
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) ([]entity.Page, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))

	var (
		pages []entity.Page
		err   error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		pages, err = e.extractPDF(ctx, path)
	case constants.IMAGE:
		pages, err = e.extractImage(path)
	default:
		e.logger.Error("pages.extract.unsupported", "path", path, "ext", ext)
		return nil, fmt.Errorf("unsupported extension: %q", ext)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Info("pages.extract.ok",
		"path", path,
		"pages", len(pages),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return pages, nil
}

func (e *Extractor) extractImage(path string) ([]entity.Page, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	sum := sha256.Sum256(b)
	src := filepath.Base(path)
	return []entity.Page{{
		ID:         entity.PageID(hex.EncodeToString(sum[:]), 1),
		SourceFile: src,
		PageNumber: 1,
		MimeType:   constants.MimeTypeForExt(filepath.Ext(path)),
		Image:      b,
	}}, nil
}

func (e *Extractor) extractPDF(ctx context.Context, path string) ([]entity.Page, error) {
	digest, err := fileDigest(path)
	if err != nil {
		return nil, err
	}
	expected, cerr := e.countPages(path)
	if cerr != nil {
		e.logger.Warn("pages.pdf.count_failed", "path", path, "error", cerr)
	}

	tmpDir, err := os.MkdirTemp("", "ballots-pp-*")
	if err != nil {
		return nil, err
	}
	defer func(dir string) {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("pages.pdf.cleanup_failed", "dir", dir, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -jpeg -r 150 [-l N] <in.pdf> <tmp/page>
	args := []string{"-jpeg", "-r", strconv.Itoa(e.cfg.DPI)}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, path, prefix)
	if _, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, e.logger, args...); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	// collect generated images (page-1.jpg ... or zero padded page-01.jpg ...)
	matches, _ := filepath.Glob(prefix + "-*.jpg")
	matches = sortByPageNumber(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no pages rendered")
	}

	want := expected
	if e.cfg.MaxPages > 0 && want > e.cfg.MaxPages {
		want = e.cfg.MaxPages
	}
	if cerr == nil && want != len(matches) {
		e.logger.Warn("pages.pdf.count_mismatch", "path", path, "expected", want, "rendered", len(matches))
	}

	src := filepath.Base(path)
	out := make([]entity.Page, 0, len(matches))
	for i, img := range matches {
		b, err := os.ReadFile(img)
		if err != nil {
			return nil, fmt.Errorf("read rendered page %d: %w", i+1, err)
		}
		out = append(out, entity.Page{
			ID:         entity.PageID(digest, i+1),
			SourceFile: src,
			PageNumber: i + 1,
			MimeType:   "image/jpeg",
			Image:      b,
		})
	}
	return out, nil
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash source: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func pdfPageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return api.PageCount(f, nil)
}

var pageSuffix = regexp.MustCompile(`-(\d+)\.jpg$`)

// sortByPageNumber orders rendered files by their numeric suffix.
func sortByPageNumber(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	num := func(p string) int {
		m := pageSuffix.FindStringSubmatch(p)
		if len(m) < 2 {
			return 0
		}
		n, _ := strconv.Atoi(m[1])
		return n
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return num(sorted[i]) < num(sorted[j])
	})
	return sorted
}
