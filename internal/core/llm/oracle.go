package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/ballot-registry/internal/common"
	"github.com/joseph-ayodele/ballot-registry/internal/entity"
)

// Oracle adapts a PageExtractor to the grouping engine. It owns error
// classification: credential failures come back as
// common.ErrAuthorizationExpired, everything else as a plain error the
// engine degrades on.
type Oracle struct {
	extractor PageExtractor
	provider  string
	logger    *slog.Logger
}

func NewOracle(extractor PageExtractor, provider string, logger *slog.Logger) *Oracle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Oracle{extractor: extractor, provider: provider, logger: logger}
}

func (o *Oracle) ExtractPage(ctx context.Context, page entity.Page) (entity.PageExtraction, error) {
	if len(page.Image) == 0 {
		return entity.PageExtraction{}, fmt.Errorf("page %s has no image", page.ID)
	}
	if len(page.Image) > MaxVisionBytes {
		return entity.PageExtraction{}, fmt.Errorf("page %s image is %d bytes, over the %d byte limit", page.ID, len(page.Image), MaxVisionBytes)
	}

	start := time.Now()
	res, _, err := o.extractor.ExtractPage(ctx, PageRequest{
		PageID:     page.ID,
		SourceFile: page.SourceFile,
		PageNumber: page.PageNumber,
		MimeType:   page.MimeType,
		Image:      page.Image,
	})
	if err != nil {
		if IsAuthError(err) && !errors.Is(err, common.ErrAuthorizationExpired) {
			err = common.AuthorizationExpired(o.provider, err)
		}
		return entity.PageExtraction{}, err
	}

	ext := res.ToExtraction()
	o.logger.Debug("llm.oracle.page",
		"page_id", page.ID,
		"start_page", ext.IsStartPage,
		"blank", ext.Fields.IsEmpty(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return ext, nil
}

// IsAuthError recognizes credential failures from any provider path.
func IsAuthError(err error) bool {
	if common.IsAuthorizationExpired(err) {
		return true
	}
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.IsUnauthorized()
}
