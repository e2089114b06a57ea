package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/ballot-registry/internal/entity"
)

// PDFFileName names a document's PDF "<lastName>_<snils>.pdf".
func PDFFileName(d entity.GroupedDocument) string {
	last, ok := d.Record.LastName.Get()
	if !ok {
		last = "document"
	}
	snils, ok := d.Record.Snils.Get()
	if !ok {
		snils = "no_snils"
	}
	return safeFileName(last) + "_" + safeFileName(snils) + ".pdf"
}

func safeFileName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\x00':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "_")
}

// WritePDF writes the document's page images, in order, as one PDF.
func (s *Service) WritePDF(w io.Writer, d entity.GroupedDocument) error {
	imgs := make([]io.Reader, 0, len(d.Pages))
	for _, p := range d.Pages {
		if len(p.Image) == 0 {
			continue
		}
		imgs = append(imgs, bytes.NewReader(p.Image))
	}
	if len(imgs) == 0 {
		return fmt.Errorf("document %s has no page images", d.ID)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ImportImages(nil, w, imgs, pdfcpu.DefaultImportConfig(), conf); err != nil {
		return fmt.Errorf("pdf import images %s: %w", d.ID, err)
	}
	return nil
}

// WritePDFs writes one PDF per document into dir and returns the paths.
// Documents without page images are skipped; names that collide get a
// numeric suffix.
func (s *Service) WritePDFs(ctx context.Context, dir string, docs []entity.GroupedDocument) ([]string, error) {
	start := time.Now()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	used := make(map[string]int, len(docs))
	paths := make([]string, 0, len(docs))
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return paths, err
		}

		var buf bytes.Buffer
		if err := s.WritePDF(&buf, d); err != nil {
			s.logger.Warn("export.pdf.skipped", "document_id", d.ID, "error", err)
			continue
		}

		name := PDFFileName(d)
		if n := used[name]; n > 0 {
			name = fmt.Sprintf("%s_%d.pdf", strings.TrimSuffix(name, ".pdf"), n+1)
		}
		used[PDFFileName(d)]++

		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}

	s.logger.Info("export.pdf.ok",
		"dir", dir,
		"files", len(paths),
		"documents", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return paths, nil
}
