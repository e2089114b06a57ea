package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

const (
	tableDocuments = "ballot_documents"
	tablePages     = "ballot_pages"
)

func schemaStatements(d string) []string {
	blob := "BLOB"
	if d == dialect.Postgres {
		blob = "BYTEA"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + tableDocuments + ` (
			registry    TEXT NOT NULL,
			id          TEXT NOT NULL,
			position    INTEGER NOT NULL,
			name        TEXT NOT NULL,
			record      TEXT NOT NULL,
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL,
			PRIMARY KEY (registry, id)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tablePages + ` (
			registry    TEXT NOT NULL,
			document_id TEXT NOT NULL,
			page_id     TEXT NOT NULL,
			seq         INTEGER NOT NULL,
			source_file TEXT NOT NULL,
			page_number INTEGER NOT NULL,
			mime_type   TEXT NOT NULL,
			image       ` + blob + `,
			extraction  TEXT,
			PRIMARY KEY (registry, document_id, page_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ballot_documents_position ON ` + tableDocuments + ` (registry, position)`,
	}
}

func migrate(ctx context.Context, db *DB) error {
	for _, stmt := range schemaStatements(db.Dialect()) {
		if _, err := db.SQL().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
