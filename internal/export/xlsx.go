package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/ballot-registry/internal/entity"
)

const registrySheet = "Реестр"

// XLSX returns a workbook (as bytes) with the registry columns plus
// ownership type, page count and document id.
func (s *Service) XLSX(docs []entity.GroupedDocument) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// reuse the default first tab
	if err := f.SetSheetName(f.GetSheetName(0), registrySheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(registrySheet)
	f.SetActiveSheet(activeIndex)

	headers := append(append([]string{}, registryHeaders...), "Вид собственности", "Страниц", "ID документа")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(registrySheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(registrySheet, "A1", last, style)
	}

	row := 2
	for _, d := range docs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(registrySheet, cell, v)
		}

		values := registryRow(d)
		for i, v := range values {
			write(i+1, v)
		}
		col := len(values) + 1
		write(col, d.Record.OwnershipType.String())
		write(col+1, len(d.Pages))
		write(col+2, d.ID)

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(registrySheet, "A", "A", 12) // status
	_ = f.SetColWidth(registrySheet, "B", "B", 40) // address
	_ = f.SetColWidth(registrySheet, "C", "E", 16) // name
	_ = f.SetColWidth(registrySheet, "F", "F", 14) // snils
	_ = f.SetColWidth(registrySheet, "M", "P", 14) // votes
	_ = f.SetColWidth(registrySheet, "Q", "Q", 22) // ownership type
	_ = f.SetColWidth(registrySheet, "S", "S", 38) // id

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(docs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
