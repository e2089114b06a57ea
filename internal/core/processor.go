package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ballot-registry/internal/common"
	"github.com/joseph-ayodele/ballot-registry/internal/core/grouping"
	"github.com/joseph-ayodele/ballot-registry/internal/entity"
)

// PageSource renders source files into pages.
type PageSource interface {
	ExtractAll(ctx context.Context, paths []string) ([]entity.Page, error)
}

// RunResult is what one processing run produced.
type RunResult struct {
	RunID     string
	Pages     int
	Documents []*entity.GroupedDocument
	Decisions []grouping.Decision
	Degraded  int // pages whose extraction failed and were grouped blind
	Elapsed   time.Duration
}

// Processor coordinates page extraction then grouping.
type Processor struct {
	logger *slog.Logger
	pages  PageSource
	oracle grouping.Oracle
}

func NewProcessor(logger *slog.Logger, pages PageSource, oracle grouping.Oracle) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, pages: pages, oracle: oracle}
}

// ProcessFiles renders every file, in argument order, then groups all pages
// in one run. On abort the result still carries the documents grouped so far.
func (p *Processor) ProcessFiles(ctx context.Context, paths []string, progress grouping.ProgressFunc) (RunResult, error) {
	start := time.Now()
	runID := common.RunIDFromContext(ctx)
	if runID == "" {
		runID = uuid.New().String()
		ctx = common.WithRunID(ctx, runID)
	}
	res := RunResult{RunID: runID}

	if progress != nil {
		progress(grouping.Progress{Current: 0, Total: len(paths), Status: "rendering pages"})
	}
	pages, err := p.pages.ExtractAll(ctx, paths)
	if err != nil {
		p.logger.Error("processor.pages.failed", "run_id", runID, "files", len(paths), "error", err)
		return res, common.WrapError(err, "extract pages")
	}
	res.Pages = len(pages)
	p.logger.Info("processor.pages.ok", "run_id", runID, "files", len(paths), "pages", len(pages))

	var opts []grouping.Option
	if progress != nil {
		opts = append(opts, grouping.WithProgress(progress))
	}
	engine := grouping.NewEngine(p.oracle, p.logger, opts...)
	state := grouping.NewState()

	decisions, err := engine.Process(ctx, state, pages)
	res.Documents = state.Documents
	res.Decisions = decisions
	for _, d := range decisions {
		if d.Degraded {
			res.Degraded++
		}
	}
	res.Elapsed = time.Since(start)

	if err != nil {
		p.logger.Error("processor.run.aborted",
			"run_id", runID,
			"request_id", common.RequestIDFromContext(ctx),
			"registry", common.RegistryFromContext(ctx),
			"grouped_pages", len(decisions),
			"pages", len(pages),
			"documents", len(res.Documents),
			"auth_expired", common.IsAuthorizationExpired(err),
			"error", err,
		)
		return res, err
	}
	p.logger.Info("processor.run.ok",
		"run_id", runID,
		"request_id", common.RequestIDFromContext(ctx),
		"registry", common.RegistryFromContext(ctx),
		"pages", len(pages),
		"documents", len(res.Documents),
		"degraded", res.Degraded,
		"elapsed_ms", res.Elapsed.Milliseconds(),
	)
	return res, nil
}
