package export

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/ballot-registry/constants"
	"github.com/joseph-ayodele/ballot-registry/internal/entity"
)

func newTestService() *Service {
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 60))
	for x := 0; x < 40; x++ {
		img.Set(x, 30, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func sampleDocs() []entity.GroupedDocument {
	return []entity.GroupedDocument{
		{
			ID:         "doc1",
			IsVerified: true,
			Pages:      []entity.Page{{ID: "a#1"}, {ID: "a#2"}},
			Record: entity.BallotRecord{
				Address:       entity.Value("ул. Ленина, 1"),
				LastName:      entity.Value("Иванов"),
				FirstName:     entity.Value("Иван"),
				MiddleName:    entity.Value("Иванович"),
				Snils:         entity.Value("11122233344"),
				RoomNo:        entity.Value("12"),
				OwnershipType: entity.Value("Долевая"),
				Votes:         map[string]constants.Vote{"1": constants.VoteFor, "3": constants.VoteAbstain, "5": constants.VoteAgainst},
			},
		},
		{
			ID:    "doc2",
			Pages: []entity.Page{{ID: "b#1"}},
			Record: entity.BallotRecord{
				LastName: entity.Illegible(),
			},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestService().WriteCSV(&buf, sampleDocs()))

	out := strings.TrimPrefix(buf.String(), utf8BOM)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)

	assert.True(t, strings.HasPrefix(lines[0], "Статус;Адрес;Фамилия;"))
	assert.Equal(t, "Проверено;ул. Ленина, 1;Иванов;Иван;Иванович;11122233344;12;;;;;;ЗА;;ВОЗДЕРЖАЛСЯ;", lines[1])
	assert.Equal(t, "Черновик;;ERROR;ERROR;ERROR;ERROR;;;;;;;;;;", lines[2])
}

func TestXLSX(t *testing.T) {
	data, err := newTestService().XLSX(sampleDocs())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(registrySheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Вид собственности", rows[0][16])
	assert.Equal(t, "ID документа", rows[0][18])
	assert.Equal(t, "Иванов", rows[1][2])
	assert.Equal(t, "Долевая", rows[1][16])
	assert.Equal(t, "2", rows[1][17])
	assert.Equal(t, "doc1", rows[1][18])
	assert.Equal(t, "ERROR", rows[2][2])
}

func TestPDFFileName(t *testing.T) {
	docs := sampleDocs()
	assert.Equal(t, "Иванов_11122233344.pdf", PDFFileName(docs[0]))
	assert.Equal(t, "document_no_snils.pdf", PDFFileName(docs[1]))

	odd := entity.GroupedDocument{Record: entity.BallotRecord{LastName: entity.Value("Иванов/Петров")}}
	assert.Equal(t, "Иванов_Петров_no_snils.pdf", PDFFileName(odd))
}

func TestWritePDFs(t *testing.T) {
	img := testJPEG(t)
	docs := sampleDocs()
	docs[0].Pages = []entity.Page{{ID: "a#1", Image: img}, {ID: "a#2", Image: img}}
	docs[1].Pages = nil
	dup := docs[0]
	dup.ID = "doc3"
	docs = append(docs, dup)

	dir := filepath.Join(t.TempDir(), "pdf")
	paths, err := newTestService().WritePDFs(context.Background(), dir, docs)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "Иванов_11122233344.pdf"), paths[0])
	assert.Equal(t, filepath.Join(dir, "Иванов_11122233344_2.pdf"), paths[1])

	f, err := os.Open(paths[0])
	require.NoError(t, err)
	defer f.Close()
	n, err := api.PageCount(f, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
