package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/ballot-registry/internal/common"
	"github.com/joseph-ayodele/ballot-registry/internal/entity"
)

// ListOptions controls how much of a document is loaded.
type ListOptions struct {
	WithImages bool
}

type DocumentRepository interface {
	List(ctx context.Context, registry string, opts ListOptions) ([]entity.GroupedDocument, error)
	Get(ctx context.Context, registry, id string) (entity.GroupedDocument, error)
	SaveAll(ctx context.Context, registry string, docs []entity.GroupedDocument) error
	SetVerified(ctx context.Context, registry, id string, verified bool) error
	Delete(ctx context.Context, registry, id string) error
	Registries(ctx context.Context) ([]string, error)
}

type documentRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewDocumentRepository(db *DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *documentRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect())
}

var documentColumns = []string{"id", "position", "name", "record", "is_verified", "created_at", "updated_at"}

func (r *documentRepository) List(ctx context.Context, registry string, opts ListOptions) ([]entity.GroupedDocument, error) {
	query, args := r.builder().
		Select(documentColumns...).
		From(r.builder().Table(tableDocuments)).
		Where(entsql.EQ("registry", registry)).
		OrderBy("position", "id").
		Query()

	docs, err := r.queryDocuments(ctx, query, args)
	if err != nil {
		r.logger.Error("failed to list documents", "registry", registry, "error", err)
		return nil, err
	}
	if len(docs) == 0 {
		return docs, nil
	}

	pages, err := r.loadPages(ctx, registry, "", opts.WithImages)
	if err != nil {
		r.logger.Error("failed to load pages", "registry", registry, "error", err)
		return nil, err
	}
	for i := range docs {
		docs[i].Pages = pages[docs[i].ID]
	}
	return docs, nil
}

func (r *documentRepository) Get(ctx context.Context, registry, id string) (entity.GroupedDocument, error) {
	query, args := r.builder().
		Select(documentColumns...).
		From(r.builder().Table(tableDocuments)).
		Where(entsql.And(entsql.EQ("registry", registry), entsql.EQ("id", id))).
		Query()

	docs, err := r.queryDocuments(ctx, query, args)
	if err != nil {
		r.logger.Error("failed to get document", "registry", registry, "document_id", id, "error", err)
		return entity.GroupedDocument{}, err
	}
	if len(docs) == 0 {
		return entity.GroupedDocument{}, notFound(registry, id)
	}

	pages, err := r.loadPages(ctx, registry, id, true)
	if err != nil {
		return entity.GroupedDocument{}, err
	}
	doc := docs[0]
	doc.Pages = pages[id]
	return doc, nil
}

func (r *documentRepository) queryDocuments(ctx context.Context, query string, args []any) ([]entity.GroupedDocument, error) {
	rows, err := r.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []entity.GroupedDocument
	for rows.Next() {
		var (
			doc                  entity.GroupedDocument
			position             int
			record               string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&doc.ID, &position, &doc.Name, &record, &doc.IsVerified, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(record), &doc.Record); err != nil {
			return nil, fmt.Errorf("decode record of %s: %w", doc.ID, err)
		}
		doc.CreatedAt = parseTime(createdAt)
		doc.UpdatedAt = parseTime(updatedAt)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// loadPages returns pages keyed by document ID in their stored order. An
// empty documentID loads the whole registry.
func (r *documentRepository) loadPages(ctx context.Context, registry, documentID string, withImages bool) (map[string][]entity.Page, error) {
	columns := []string{"document_id", "page_id", "source_file", "page_number", "mime_type", "extraction"}
	if withImages {
		columns = append(columns, "image")
	}
	where := entsql.EQ("registry", registry)
	if documentID != "" {
		where = entsql.And(where, entsql.EQ("document_id", documentID))
	}
	query, args := r.builder().
		Select(columns...).
		From(r.builder().Table(tablePages)).
		Where(where).
		OrderBy("document_id", "seq").
		Query()

	rows, err := r.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]entity.Page)
	for rows.Next() {
		var (
			docID      string
			p          entity.Page
			extraction sql.NullString
		)
		dest := []any{&docID, &p.ID, &p.SourceFile, &p.PageNumber, &p.MimeType, &extraction}
		if withImages {
			dest = append(dest, &p.Image)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if extraction.Valid && extraction.String != "" {
			var ex entity.PageExtraction
			if err := json.Unmarshal([]byte(extraction.String), &ex); err != nil {
				return nil, fmt.Errorf("decode extraction of %s: %w", p.ID, err)
			}
			p.Extraction = &ex
		}
		out[docID] = append(out[docID], p)
	}
	return out, rows.Err()
}

// SaveAll upserts every given document inside one transaction; a document's
// position is its index in docs. Pages are immutable once stored: existing
// pages only get their order refreshed, so docs may be loaded without images.
func (r *documentRepository) SaveAll(ctx context.Context, registry string, docs []entity.GroupedDocument) error {
	if len(docs) == 0 {
		return nil
	}
	tx, err := r.db.SQL().BeginTx(ctx, nil)
	if err != nil {
		return common.NewAppError("DB_ERROR", "begin transaction", errors.Join(common.ErrDatabase, err))
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for i, doc := range docs {
		if err := r.saveOne(ctx, tx, registry, i+1, doc, now); err != nil {
			r.logger.Error("failed to save document", "registry", registry, "document_id", doc.ID, "error", err)
			return common.NewAppError("DB_ERROR", "save document "+doc.ID, errors.Join(common.ErrDatabase, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return common.NewAppError("DB_ERROR", "commit", errors.Join(common.ErrDatabase, err))
	}
	r.logger.Info("repository.documents.saved", "registry", registry, "count", len(docs))
	return nil
}

func (r *documentRepository) saveOne(ctx context.Context, tx *sql.Tx, registry string, position int, doc entity.GroupedDocument, now time.Time) error {
	record, err := json.Marshal(doc.Record)
	if err != nil {
		return err
	}
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	query, args := r.builder().
		Insert(tableDocuments).
		Columns("registry", "id", "position", "name", "record", "is_verified", "created_at", "updated_at").
		Values(registry, doc.ID, position, doc.Name, string(record), doc.IsVerified, formatTime(createdAt), formatTime(now)).
		OnConflict(
			entsql.ConflictColumns("registry", "id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("position")
				u.SetExcluded("name")
				u.SetExcluded("record")
				u.SetExcluded("is_verified")
				u.SetExcluded("updated_at")
			}),
		).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	for seq, p := range doc.Pages {
		var extraction any
		if p.Extraction != nil {
			b, err := json.Marshal(p.Extraction)
			if err != nil {
				return err
			}
			extraction = string(b)
		}
		query, args := r.builder().
			Insert(tablePages).
			Columns("registry", "document_id", "page_id", "seq", "source_file", "page_number", "mime_type", "image", "extraction").
			Values(registry, doc.ID, p.ID, seq, p.SourceFile, p.PageNumber, p.MimeType, p.Image, extraction).
			OnConflict(
				entsql.ConflictColumns("registry", "document_id", "page_id"),
				entsql.ResolveWith(func(u *entsql.UpdateSet) {
					u.SetExcluded("seq")
				}),
			).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

func (r *documentRepository) SetVerified(ctx context.Context, registry, id string, verified bool) error {
	query, args := r.builder().
		Update(tableDocuments).
		Set("is_verified", verified).
		Set("updated_at", formatTime(time.Now().UTC())).
		Where(entsql.And(entsql.EQ("registry", registry), entsql.EQ("id", id))).
		Query()
	res, err := r.db.SQL().ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to set verified", "registry", registry, "document_id", id, "error", err)
		return common.NewAppError("DB_ERROR", "set verified", errors.Join(common.ErrDatabase, err))
	}
	return expectOne(res, registry, id)
}

func (r *documentRepository) Delete(ctx context.Context, registry, id string) error {
	tx, err := r.db.SQL().BeginTx(ctx, nil)
	if err != nil {
		return common.NewAppError("DB_ERROR", "begin transaction", errors.Join(common.ErrDatabase, err))
	}
	defer func() { _ = tx.Rollback() }()

	query, args := r.builder().
		Delete(tablePages).
		Where(entsql.And(entsql.EQ("registry", registry), entsql.EQ("document_id", id))).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return common.NewAppError("DB_ERROR", "delete pages", errors.Join(common.ErrDatabase, err))
	}

	query, args = r.builder().
		Delete(tableDocuments).
		Where(entsql.And(entsql.EQ("registry", registry), entsql.EQ("id", id))).
		Query()
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return common.NewAppError("DB_ERROR", "delete document", errors.Join(common.ErrDatabase, err))
	}
	if err := expectOne(res, registry, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return common.NewAppError("DB_ERROR", "commit", errors.Join(common.ErrDatabase, err))
	}
	r.logger.Info("repository.documents.deleted", "registry", registry, "document_id", id)
	return nil
}

func (r *documentRepository) Registries(ctx context.Context) ([]string, error) {
	query, args := r.builder().
		Select("registry").
		Distinct().
		From(r.builder().Table(tableDocuments)).
		OrderBy("registry").
		Query()
	rows, err := r.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func expectOne(res sql.Result, registry, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(registry, id)
	}
	return nil
}

func notFound(registry, id string) error {
	return common.NewAppError("NOT_FOUND", fmt.Sprintf("document %s in registry %s", id, registry), common.ErrNotFound)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
