package grouping

import (
	"context"

	"github.com/joseph-ayodele/ballot-registry/internal/entity"
)

// Oracle reads one page. Errors other than common.ErrAuthorizationExpired
// and context cancellation are absorbed by the engine.
type Oracle interface {
	ExtractPage(ctx context.Context, page entity.Page) (entity.PageExtraction, error)
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(ctx context.Context, page entity.Page) (entity.PageExtraction, error)

func (f OracleFunc) ExtractPage(ctx context.Context, page entity.Page) (entity.PageExtraction, error) {
	return f(ctx, page)
}

// Progress is reported once per page before the oracle is called.
type Progress struct {
	Current int
	Total   int
	Status  string
}

type ProgressFunc func(Progress)
