package grouping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ballot-registry/internal/common"
	"github.com/joseph-ayodele/ballot-registry/internal/entity"
)

// State is the mutable part of a grouping run. It is owned by the caller and
// must not be shared between concurrent runs.
type State struct {
	Documents  []*entity.GroupedDocument
	lastActive *entity.GroupedDocument
}

// NewState starts an empty run.
func NewState() *State {
	return &State{}
}

// LastActive is the document continuation pages attach to when nothing matches.
func (s *State) LastActive() *entity.GroupedDocument {
	return s.lastActive
}

// Action is what the engine did with a page.
type Action string

const (
	ActionCreated  Action = "created"
	ActionAppended Action = "appended"
)

// Decision records one grouping step.
type Decision struct {
	PageID     string
	DocumentID string
	Action     Action
	Match      MatchKind // MatchNone when the page went to the last active document
	StartPage  bool
	Degraded   bool // the oracle failed and an empty extraction was used
	Changed    []string
}

// Engine groups pages into documents in arrival order.
type Engine struct {
	oracle   Oracle
	logger   *slog.Logger
	progress ProgressFunc
	newID    func() string
	now      func() time.Time
}

type Option func(*Engine)

func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// WithIDGenerator overrides document ID generation (tests).
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

func NewEngine(oracle Oracle, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		oracle: oracle,
		logger: logger,
		newID:  func() string { return uuid.New().String() },
		now:    time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run groups pages into a fresh state. On abort the documents built so far
// are returned together with the error.
func (e *Engine) Run(ctx context.Context, pages []entity.Page) ([]*entity.GroupedDocument, error) {
	state := NewState()
	_, err := e.Process(ctx, state, pages)
	return state.Documents, err
}

// Process feeds pages into state strictly in order. It stops early only when
// the oracle reports an expired authorization or ctx is done; state keeps
// everything grouped before that point.
func (e *Engine) Process(ctx context.Context, state *State, pages []entity.Page) ([]Decision, error) {
	start := time.Now()
	decisions := make([]Decision, 0, len(pages))
	for i, page := range pages {
		if e.progress != nil {
			e.progress(Progress{Current: i + 1, Total: len(pages), Status: fmt.Sprintf("recognizing page %d of %d", i+1, len(pages))})
		}
		d, err := e.Step(ctx, state, page)
		if err != nil {
			e.logger.Warn("grouping.run.aborted",
				"run_id", common.RunIDFromContext(ctx),
				"request_id", common.RequestIDFromContext(ctx),
				"page_id", page.ID,
				"processed", i,
				"total", len(pages),
				"documents", len(state.Documents),
				"error", err,
			)
			return decisions, err
		}
		decisions = append(decisions, d)
	}
	e.logger.Info("grouping.run.ok",
		"run_id", common.RunIDFromContext(ctx),
		"request_id", common.RequestIDFromContext(ctx),
		"pages", len(pages),
		"documents", len(state.Documents),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return decisions, nil
}

// Step groups a single page.
func (e *Engine) Step(ctx context.Context, state *State, page entity.Page) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	ext, degraded, err := e.extract(ctx, page)
	if err != nil {
		return Decision{}, err
	}
	page.Extraction = &ext
	fields := ext.Fields

	target, match := FindIdentityMatch(state.Documents, fields)

	if ext.IsStartPage || (target == nil && state.LastActive() == nil) {
		doc := &entity.GroupedDocument{
			ID:        e.newID(),
			Name:      entity.DisplayName(fields, len(state.Documents)+1),
			Pages:     []entity.Page{page},
			Record:    fields.Clone(),
			CreatedAt: e.now().UTC(),
		}
		doc.UpdatedAt = doc.CreatedAt
		state.Documents = append(state.Documents, doc)
		state.lastActive = doc

		reason := "start_page"
		if !ext.IsStartPage {
			reason = "first_page"
		}
		e.logger.Info("grouping.page.created",
			"page_id", page.ID,
			"document_id", doc.ID,
			"name", doc.Name,
			"reason", reason,
			"degraded", degraded,
		)
		return Decision{
			PageID:     page.ID,
			DocumentID: doc.ID,
			Action:     ActionCreated,
			StartPage:  ext.IsStartPage,
			Degraded:   degraded,
		}, nil
	}

	if target == nil {
		target = state.LastActive()
	}
	hadLastName := target.Record.LastName.IsPresent()
	before := target.Record
	target.Pages = append(target.Pages, page)
	target.Record = Merge(target.Record, fields)
	target.UpdatedAt = e.now().UTC()
	if !hadLastName && target.Record.LastName.IsPresent() {
		target.Name = entity.DisplayName(target.Record, documentPosition(state.Documents, target))
	}

	changed := mergeChanges(before, target.Record)
	e.logger.Info("grouping.page.appended",
		"page_id", page.ID,
		"document_id", target.ID,
		"name", target.Name,
		"match", string(match),
		"changed", changed,
		"degraded", degraded,
	)
	return Decision{
		PageID:     page.ID,
		DocumentID: target.ID,
		Action:     ActionAppended,
		Match:      match,
		Degraded:   degraded,
		Changed:    changed,
	}, nil
}

// extract calls the oracle and applies the fail-soft policy.
func (e *Engine) extract(ctx context.Context, page entity.Page) (entity.PageExtraction, bool, error) {
	ext, err := e.oracle.ExtractPage(ctx, page)
	if err == nil {
		ext.Fields = ext.Fields.Clone()
		return ext, ext.Failed, nil
	}
	if common.IsAuthorizationExpired(err) {
		return entity.PageExtraction{}, false, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return entity.PageExtraction{}, false, errors.Join(ctxErr, err)
	}
	e.logger.Warn("grouping.page.extract_failed",
		"page_id", page.ID,
		"source_file", page.SourceFile,
		"page_number", page.PageNumber,
		"error", err,
	)
	return entity.PageExtraction{Failed: true}, true, nil
}

func documentPosition(docs []*entity.GroupedDocument, doc *entity.GroupedDocument) int {
	for i, d := range docs {
		if d == doc {
			return i + 1
		}
	}
	return len(docs)
}
