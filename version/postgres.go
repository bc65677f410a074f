package version

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/dijonPSU/LiveDocs/delta"
	"github.com/dijonPSU/LiveDocs/domain"
)

// PostgresStore persists documents and their version history in Postgres.
// Version rows are append-only; nothing ever updates or deletes them.
type PostgresStore struct {
	db *sql.DB
}

// Connect opens the database and verifies it is reachable.
func Connect(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(1 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Migrate creates the tables when missing.
func (p *PostgresStore) Migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			content JSONB NOT NULL DEFAULT '{"ops":[]}',
			owner_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS document_versions (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			version_number INTEGER NOT NULL,
			diff JSONB NOT NULL,
			is_snapshot BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL,
			UNIQUE (document_id, version_number)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_versions_document
			ON document_versions (document_id, version_number)`,
	}
	for _, stmt := range statements {
		if _, err := p.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (p *PostgresStore) Close() error {
	return p.db.Close()
}

func (p *PostgresStore) CreateDocument(ctx context.Context, doc domain.Document) error {
	content, err := json.Marshal(doc.Content)
	if err != nil {
		return fmt.Errorf("marshal content: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO documents (id, title, content, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		doc.ID, doc.Title, content, doc.OwnerID, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (p *PostgresStore) ReadDocument(ctx context.Context, documentID string) (domain.Document, error) {
	var doc domain.Document
	var content []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT id, title, content, owner_id, created_at, updated_at
		FROM documents WHERE id = $1`, documentID,
	).Scan(&doc.ID, &doc.Title, &content, &doc.OwnerID, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("read document: %w", err)
	}
	if err := json.Unmarshal(content, &doc.Content); err != nil {
		return domain.Document{}, fmt.Errorf("unmarshal content: %w", err)
	}
	return doc, nil
}

func (p *PostgresStore) UpdateDocumentContent(ctx context.Context, documentID string, content delta.Delta) error {
	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("marshal content: %w", err)
	}
	result, err := p.db.ExecContext(ctx,
		`UPDATE documents SET content = $1, updated_at = $2 WHERE id = $3`,
		data, time.Now().UTC(), documentID,
	)
	if err != nil {
		return fmt.Errorf("update content: %w", err)
	}
	return checkAffected(result)
}

func (p *PostgresStore) UpdateDocumentTitle(ctx context.Context, documentID, title string) error {
	result, err := p.db.ExecContext(ctx,
		`UPDATE documents SET title = $1, updated_at = $2 WHERE id = $3`,
		title, time.Now().UTC(), documentID,
	)
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	return checkAffected(result)
}

func (p *PostgresStore) CreateVersion(ctx context.Context, v domain.Version) error {
	diff, err := json.Marshal(v.Diff)
	if err != nil {
		return fmt.Errorf("marshal diff: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO document_versions (id, document_id, user_id, version_number, diff, is_snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		v.ID, v.DocumentID, v.UserID, v.VersionNumber, diff, v.IsSnapshot, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListVersions(ctx context.Context, documentID string) ([]domain.Version, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, document_id, user_id, version_number, diff, is_snapshot, created_at
		FROM document_versions WHERE document_id = $1 ORDER BY version_number ASC`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.Version
	for rows.Next() {
		var v domain.Version
		var diff []byte
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.UserID, &v.VersionNumber, &diff, &v.IsSnapshot, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		if err := json.Unmarshal(diff, &v.Diff); err != nil {
			return nil, fmt.Errorf("unmarshal diff: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return versions, nil
}

func (p *PostgresStore) LatestVersionNumber(ctx context.Context, documentID string) (int, error) {
	var latest int
	err := p.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version_number), 0) FROM document_versions WHERE document_id = $1`,
		documentID,
	).Scan(&latest)
	if err != nil {
		return 0, fmt.Errorf("read latest version: %w", err)
	}
	return latest, nil
}

func checkAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}
