package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/ballot-registry/constants"
	"github.com/joseph-ayodele/ballot-registry/internal/common"
	"github.com/joseph-ayodele/ballot-registry/internal/core"
	"github.com/joseph-ayodele/ballot-registry/internal/core/grouping"
	"github.com/joseph-ayodele/ballot-registry/internal/entity"
	"github.com/joseph-ayodele/ballot-registry/internal/repository"
)

// Runner groups a batch of files into documents.
type Runner interface {
	ProcessFiles(ctx context.Context, paths []string, progress grouping.ProgressFunc) (core.RunResult, error)
}

// Service handles registry business logic: every write to a registry goes
// through it and is serialized.
type Service struct {
	runner Runner
	repo   repository.DocumentRepository
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService creates a new registry service.
func NewService(runner Runner, repo repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		runner: runner,
		repo:   repo,
		logger: logger,
	}
}

// IngestRequest represents one upload of files into a registry.
type IngestRequest struct {
	Registry string
	Paths    []string
}

// IngestResult reports what an upload changed.
type IngestResult struct {
	Run            core.RunResult
	Consolidations []grouping.Consolidation
	Documents      []entity.GroupedDocument // the whole registry after the upload
}

// Ingest groups the files in one run and folds the result into the stored
// registry. When the run is aborted the documents grouped so far are still
// consolidated and saved, and the abort error is returned.
func (s *Service) Ingest(ctx context.Context, req IngestRequest, progress grouping.ProgressFunc) (IngestResult, error) {
	validator := common.NewValidator()
	validator.Field("registry", req.Registry, common.Required, common.MaxLength(128))
	validator.Field("paths", req.Paths, common.Required)
	if err := validator.Error(); err != nil {
		return IngestResult{}, err
	}
	registry := strings.TrimSpace(req.Registry)
	ctx = common.WithRegistry(ctx, registry)

	s.logger.Info("registry.ingest.start",
		"registry", registry,
		"request_id", common.RequestIDFromContext(ctx),
		"files", len(req.Paths),
	)
	run, runErr := s.runner.ProcessFiles(ctx, req.Paths, progress)
	res := IngestResult{Run: run}
	if runErr != nil && len(run.Documents) == 0 {
		return res, runErr
	}

	// saving partial results must not depend on a cancelled run context
	saveCtx := ctx
	if ctx.Err() != nil {
		saveCtx = context.WithoutCancel(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, consolidations, err := s.consolidate(saveCtx, registry, run.Documents)
	if err != nil {
		return res, errors.Join(runErr, err)
	}
	res.Consolidations = consolidations
	res.Documents = docs

	merged := 0
	for _, c := range consolidations {
		if c.Match != grouping.MatchNone {
			merged++
		}
	}
	if runErr != nil {
		s.logger.Warn("registry.ingest.partial",
			"registry", registry,
			"request_id", common.RequestIDFromContext(ctx),
			"run_id", run.RunID,
			"documents", len(run.Documents),
			"merged", merged,
			"error", runErr,
		)
		return res, runErr
	}
	s.logger.Info("registry.ingest.ok",
		"registry", registry,
		"request_id", common.RequestIDFromContext(ctx),
		"run_id", run.RunID,
		"pages", run.Pages,
		"documents", len(run.Documents),
		"merged", merged,
		"degraded", run.Degraded,
		"elapsed_ms", run.Elapsed.Milliseconds(),
	)
	return res, nil
}

func (s *Service) consolidate(ctx context.Context, registry string, incoming []*entity.GroupedDocument) ([]entity.GroupedDocument, []grouping.Consolidation, error) {
	stored, err := s.repo.List(ctx, registry, repository.ListOptions{})
	if err != nil {
		return nil, nil, common.WrapError(err, "load registry "+registry)
	}
	existing := make([]*entity.GroupedDocument, len(stored))
	for i := range stored {
		existing[i] = &stored[i]
	}

	out, report := grouping.Consolidate(existing, incoming)
	docs := make([]entity.GroupedDocument, len(out))
	for i, d := range out {
		docs[i] = *d
	}
	if err := s.repo.SaveAll(ctx, registry, docs); err != nil {
		return nil, nil, err
	}
	return docs, report, nil
}

// List returns the documents of a registry in upload order.
func (s *Service) List(ctx context.Context, registry string, withImages bool) ([]entity.GroupedDocument, error) {
	return s.repo.List(ctx, registry, repository.ListOptions{WithImages: withImages})
}

// Get returns one document with its page images.
func (s *Service) Get(ctx context.Context, registry, id string) (entity.GroupedDocument, error) {
	return s.repo.Get(ctx, registry, id)
}

// Registries lists the names of all registries that hold documents.
func (s *Service) Registries(ctx context.Context) ([]string, error) {
	return s.repo.Registries(ctx)
}

// Verify marks a document as confirmed (or back to draft) by an operator.
func (s *Service) Verify(ctx context.Context, registry, id string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.SetVerified(ctx, registry, id, verified); err != nil {
		return err
	}
	s.logger.Info("registry.document.verified", "registry", registry, "document_id", id, "status", constants.VerificationLabel(verified))
	return nil
}

// Delete removes a document and its pages.
func (s *Service) Delete(ctx context.Context, registry, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Delete(ctx, registry, id); err != nil {
		return err
	}
	s.logger.Info("registry.document.deleted", "registry", registry, "document_id", id)
	return nil
}

// UpdateFieldRequest is an operator correction of one scalar field.
type UpdateFieldRequest struct {
	Registry string
	ID       string
	Field    entity.FieldName
	Value    string // "" clears the field, ERROR marks it illegible
}

// UpdateField overwrites a scalar field. Unlike the merge rules, an operator
// edit always wins.
func (s *Service) UpdateField(ctx context.Context, req UpdateFieldRequest) (entity.GroupedDocument, error) {
	validator := common.NewValidator()
	validator.Field("value", req.Value, common.MaxLength(512))
	if req.Field == entity.FieldSnils {
		validator.Field("snils", req.Value, common.Snils)
	}
	if err := validator.Error(); err != nil {
		return entity.GroupedDocument{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.Get(ctx, req.Registry, req.ID)
	if err != nil {
		return entity.GroupedDocument{}, err
	}
	ref := doc.Record.FieldRef(req.Field)
	if ref == nil {
		return entity.GroupedDocument{}, common.NewAppError("VALIDATION_ERROR", fmt.Sprintf("unknown field %q", req.Field), common.ErrInvalidInput)
	}

	value := req.Value
	if req.Field == entity.FieldSnils {
		value = common.NormalizeSnils(value)
	}
	*ref = entity.ParseField(value)

	if req.Field == entity.FieldLastName || req.Field == entity.FieldFirstName || req.Field == entity.FieldMiddleName {
		position, err := s.position(ctx, req.Registry, req.ID)
		if err != nil {
			return entity.GroupedDocument{}, err
		}
		doc.Name = entity.DisplayName(doc.Record, position)
	}
	doc.UpdatedAt = time.Now().UTC()

	if err := s.save(ctx, req.Registry, doc); err != nil {
		return entity.GroupedDocument{}, err
	}
	s.logger.Info("registry.document.updated",
		"registry", req.Registry,
		"document_id", req.ID,
		"field", req.Field,
		"state", ref.State().String(),
	)
	return doc, nil
}

// save writes one document back in place, keeping its position.
func (s *Service) save(ctx context.Context, registry string, doc entity.GroupedDocument) error {
	docs, err := s.repo.List(ctx, registry, repository.ListOptions{})
	if err != nil {
		return err
	}
	for i := range docs {
		if docs[i].ID == doc.ID {
			docs[i] = doc
		}
	}
	return s.repo.SaveAll(ctx, registry, docs)
}

func (s *Service) position(ctx context.Context, registry, id string) (int, error) {
	docs, err := s.repo.List(ctx, registry, repository.ListOptions{})
	if err != nil {
		return 0, err
	}
	for i := range docs {
		if docs[i].ID == id {
			return i + 1, nil
		}
	}
	return 0, common.NewAppError("NOT_FOUND", "document "+id, common.ErrNotFound)
}
