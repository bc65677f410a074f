// Package version implements the document versioning engine: an
// append-only log of patches punctuated by periodic full-content
// snapshots, point-in-time reconstruction, and additive revert.
package version

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dijonPSU/LiveDocs/delta"
	"github.com/dijonPSU/LiveDocs/domain"
)

// DefaultSnapshotInterval is the number of accepted patches between eager
// snapshots; it bounds replay cost during reconstruction.
const DefaultSnapshotInterval = 20

// Service owns the write and read paths over a VersionStore.
type Service struct {
	store            domain.VersionStore
	snapshotInterval int
}

// NewService wraps store. A non-positive interval falls back to
// DefaultSnapshotInterval.
func NewService(store domain.VersionStore, snapshotInterval int) *Service {
	if snapshotInterval <= 0 {
		snapshotInterval = DefaultSnapshotInterval
	}
	return &Service{store: store, snapshotInterval: snapshotInterval}
}

// SavePatch appends an edit as the next patch version. Every
// snapshotInterval accepted patches it also appends a snapshot holding
// the full current content (the caller-supplied state, or a server-side
// reconstruction when the caller sent none) and refreshes the document's
// cached content.
func (s *Service) SavePatch(ctx context.Context, documentID, userID string, diff, content delta.Delta) (domain.Version, error) {
	latest, err := s.store.LatestVersionNumber(ctx, documentID)
	if err != nil {
		return domain.Version{}, fmt.Errorf("read latest version: %w", err)
	}

	patch := domain.Version{
		ID:            uuid.New().String(),
		DocumentID:    documentID,
		UserID:        userID,
		VersionNumber: latest + 1,
		Diff:          diff,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.CreateVersion(ctx, patch); err != nil {
		return domain.Version{}, fmt.Errorf("append patch: %w", err)
	}

	due, err := s.snapshotDue(ctx, documentID)
	if err != nil {
		return domain.Version{}, err
	}
	if due {
		if err := s.snapshot(ctx, documentID, userID, patch.VersionNumber, content); err != nil {
			return domain.Version{}, err
		}
	}
	return patch, nil
}

// snapshotDue reports whether the patches appended since the last
// snapshot have reached the interval.
func (s *Service) snapshotDue(ctx context.Context, documentID string) (bool, error) {
	versions, err := s.store.ListVersions(ctx, documentID)
	if err != nil {
		return false, fmt.Errorf("list versions: %w", err)
	}
	count := 0
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i].IsSnapshot {
			break
		}
		count++
	}
	return count >= s.snapshotInterval, nil
}

func (s *Service) snapshot(ctx context.Context, documentID, userID string, afterVersion int, content delta.Delta) error {
	if len(content.Ops) == 0 {
		reconstructed, err := s.ContentAt(ctx, documentID, afterVersion)
		if err != nil {
			return fmt.Errorf("reconstruct for snapshot: %w", err)
		}
		content = reconstructed
	}

	snap := domain.Version{
		ID:            uuid.New().String(),
		DocumentID:    documentID,
		UserID:        userID,
		VersionNumber: afterVersion + 1,
		Diff:          content,
		IsSnapshot:    true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.CreateVersion(ctx, snap); err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}
	if err := s.store.UpdateDocumentContent(ctx, documentID, content); err != nil {
		return fmt.Errorf("update cached content: %w", err)
	}
	slog.Info("snapshot created", "documentId", documentID, "versionNumber", snap.VersionNumber)
	return nil
}

// ContentAt reconstructs the document content at the target version: the
// latest snapshot at or before it (an empty document when none exists)
// composed with every later patch up to and including the target.
func (s *Service) ContentAt(ctx context.Context, documentID string, target int) (delta.Delta, error) {
	if target < 1 {
		return delta.New(), domain.ErrVersionNotFound
	}
	versions, err := s.store.ListVersions(ctx, documentID)
	if err != nil {
		return delta.New(), fmt.Errorf("list versions: %w", err)
	}

	base := delta.New()
	snapshotVersion := 0
	for _, v := range versions {
		if v.IsSnapshot && v.VersionNumber <= target {
			base = v.Diff
			snapshotVersion = v.VersionNumber
		}
	}

	for _, v := range versions {
		if v.IsSnapshot || v.VersionNumber <= snapshotVersion || v.VersionNumber > target {
			continue
		}
		base = delta.Compose(base, v.Diff)
	}
	return base, nil
}

// Revert reconstructs the content at the target version and appends it as
// a new snapshot at the head of the history. Nothing before it is
// touched; revert is additive, never destructive.
func (s *Service) Revert(ctx context.Context, documentID, userID string, target int) (domain.Version, error) {
	content, err := s.ContentAt(ctx, documentID, target)
	if err != nil {
		return domain.Version{}, err
	}

	latest, err := s.store.LatestVersionNumber(ctx, documentID)
	if err != nil {
		return domain.Version{}, fmt.Errorf("read latest version: %w", err)
	}

	snap := domain.Version{
		ID:            uuid.New().String(),
		DocumentID:    documentID,
		UserID:        userID,
		VersionNumber: latest + 1,
		Diff:          content,
		IsSnapshot:    true,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.CreateVersion(ctx, snap); err != nil {
		return domain.Version{}, fmt.Errorf("append revert snapshot: %w", err)
	}
	if err := s.store.UpdateDocumentContent(ctx, documentID, content); err != nil {
		return domain.Version{}, fmt.Errorf("update cached content: %w", err)
	}
	slog.Info("document reverted", "documentId", documentID, "target", target, "versionNumber", snap.VersionNumber)
	return snap, nil
}

// ListVersions exposes the raw history, ascending.
func (s *Service) ListVersions(ctx context.Context, documentID string) ([]domain.Version, error) {
	return s.store.ListVersions(ctx, documentID)
}
