package domain

import (
	"context"
	"errors"

	"github.com/dijonPSU/LiveDocs/delta"
)

// Store errors.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentExists   = errors.New("document already exists")
	ErrVersionNotFound  = errors.New("version not found")
)

// VersionStore is the append-only persistence collaborator for documents
// and their version history. Versions are only ever created, never
// rewritten; reverts append new rows.
type VersionStore interface {
	CreateDocument(ctx context.Context, doc Document) error
	ReadDocument(ctx context.Context, documentID string) (Document, error)
	UpdateDocumentContent(ctx context.Context, documentID string, content delta.Delta) error
	UpdateDocumentTitle(ctx context.Context, documentID, title string) error

	// CreateVersion appends a version row.
	CreateVersion(ctx context.Context, v Version) error

	// ListVersions returns every version of the document in ascending
	// versionNumber order.
	ListVersions(ctx context.Context, documentID string) ([]Version, error)

	// LatestVersionNumber returns the highest versionNumber for the
	// document, or 0 when it has no versions.
	LatestVersionNumber(ctx context.Context, documentID string) (int, error)
}
