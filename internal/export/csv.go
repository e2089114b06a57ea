package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/joseph-ayodele/ballot-registry/internal/entity"
)

// utf8BOM lets spreadsheet apps detect the encoding of Cyrillic text.
const utf8BOM = "\ufeff"

// CSVFileName is the default name of a registry export written on day t.
func CSVFileName(t time.Time) string {
	return fmt.Sprintf("reestr_golosovaniya_%s.csv", t.Format("2006-01-02"))
}

// WriteCSV writes one ';'-separated row per document.
func (s *Service) WriteCSV(w io.Writer, docs []entity.GroupedDocument) error {
	start := time.Now()
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(registryHeaders); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	for _, d := range docs {
		if err := cw.Write(registryRow(d)); err != nil {
			return fmt.Errorf("csv write %s: %w", d.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv flush: %w", err)
	}

	s.logger.Info("export.csv.ok", "rows", len(docs), "elapsed_ms", time.Since(start).Milliseconds())
	return nil
}
