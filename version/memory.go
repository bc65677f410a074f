package version

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dijonPSU/LiveDocs/delta"
	"github.com/dijonPSU/LiveDocs/domain"
)

// MemoryStore is an in-process VersionStore. It backs tests and runs the
// server without a database configured.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	versions  map[string][]domain.Version
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]domain.Document),
		versions:  make(map[string][]domain.Version),
	}
}

func (m *MemoryStore) CreateDocument(_ context.Context, doc domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.documents[doc.ID]; exists {
		return domain.ErrDocumentExists
	}
	m.documents[doc.ID] = doc
	return nil
}

func (m *MemoryStore) ReadDocument(_ context.Context, documentID string) (domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, exists := m.documents[documentID]
	if !exists {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (m *MemoryStore) UpdateDocumentContent(_ context.Context, documentID string, content delta.Delta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, exists := m.documents[documentID]
	if !exists {
		return domain.ErrDocumentNotFound
	}
	doc.Content = content
	doc.UpdatedAt = time.Now().UTC()
	m.documents[documentID] = doc
	return nil
}

func (m *MemoryStore) UpdateDocumentTitle(_ context.Context, documentID, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, exists := m.documents[documentID]
	if !exists {
		return domain.ErrDocumentNotFound
	}
	doc.Title = title
	doc.UpdatedAt = time.Now().UTC()
	m.documents[documentID] = doc
	return nil
}

func (m *MemoryStore) CreateVersion(_ context.Context, v domain.Version) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[v.DocumentID] = append(m.versions[v.DocumentID], v)
	return nil
}

func (m *MemoryStore) ListVersions(_ context.Context, documentID string) ([]domain.Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.versions[documentID]
	out := make([]domain.Version, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool {
		return out[i].VersionNumber < out[j].VersionNumber
	})
	return out, nil
}

func (m *MemoryStore) LatestVersionNumber(_ context.Context, documentID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	latest := 0
	for _, v := range m.versions[documentID] {
		if v.VersionNumber > latest {
			latest = v.VersionNumber
		}
	}
	return latest, nil
}
