// Package storage contains in-memory metadata stores mirroring the pgx
// repositories. They back service and handler tests without a database.
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dharsanguruparan/LinguaDrop/internal/fault"
	"github.com/dharsanguruparan/LinguaDrop/internal/model"
)

// MemoryDocuments is an in-memory document store guarded by an RWMutex.
type MemoryDocuments struct {
	mu   sync.RWMutex
	docs map[string]*model.Document
	seq  map[string]int
	next int
}

// NewMemoryDocuments constructs an empty store.
func NewMemoryDocuments() *MemoryDocuments {
	return &MemoryDocuments{
		docs: make(map[string]*model.Document),
		seq:  make(map[string]int),
	}
}

// Create inserts a document record.
func (m *MemoryDocuments) Create(_ context.Context, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	cp := *doc
	m.docs[doc.ID] = &cp
	m.next++
	m.seq[doc.ID] = m.next
	return nil
}

// Get returns a copy of the record scoped to owner.
func (m *MemoryDocuments) Get(_ context.Context, id, owner string) (*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok || doc.Owner != owner {
		return nil, fault.New(fault.NotFound, "document not found")
	}
	cp := *doc
	return &cp, nil
}

// List returns owner's documents, most recently created first.
func (m *MemoryDocuments) List(_ context.Context, owner string) ([]*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var docs []*model.Document
	for _, doc := range m.docs {
		if doc.Owner == owner {
			cp := *doc
			docs = append(docs, &cp)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		return m.seq[docs[i].ID] > m.seq[docs[j].ID]
	})
	return docs, nil
}

// Delete removes the record scoped to owner.
func (m *MemoryDocuments) Delete(_ context.Context, id, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok || doc.Owner != owner {
		return fault.New(fault.NotFound, "document not found")
	}
	delete(m.docs, id)
	delete(m.seq, id)
	return nil
}

// SetFolder updates the folder reference scoped to owner.
func (m *MemoryDocuments) SetFolder(_ context.Context, id, owner string, folderID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok || doc.Owner != owner {
		return fault.New(fault.NotFound, "document not found")
	}
	doc.FolderID = folderID
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// MemoryFolders is an in-memory folder store.
type MemoryFolders struct {
	mu      sync.RWMutex
	folders map[string]*model.Folder
}

// NewMemoryFolders constructs an empty store.
func NewMemoryFolders() *MemoryFolders {
	return &MemoryFolders{folders: make(map[string]*model.Folder)}
}

// Create inserts a folder.
func (m *MemoryFolders) Create(_ context.Context, folder *model.Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	folder.CreatedAt = time.Now().UTC()
	cp := *folder
	m.folders[folder.ID] = &cp
	return nil
}

// Get returns a folder scoped to owner.
func (m *MemoryFolders) Get(_ context.Context, id, owner string) (*model.Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	folder, ok := m.folders[id]
	if !ok || folder.Owner != owner {
		return nil, fault.New(fault.NotFound, "folder not found")
	}
	cp := *folder
	return &cp, nil
}

// List returns owner's folders in creation order.
func (m *MemoryFolders) List(_ context.Context, owner string) ([]*model.Folder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var folders []*model.Folder
	for _, folder := range m.folders {
		if folder.Owner == owner {
			cp := *folder
			folders = append(folders, &cp)
		}
	}
	sort.Slice(folders, func(i, j int) bool {
		return folders[i].CreatedAt.Before(folders[j].CreatedAt)
	})
	return folders, nil
}
