package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/wedding-planner/backend/internal/models"
)

// MemorySceneStore keeps encoded scene documents in memory. Used when
// persistence is disabled.
type MemorySceneStore struct {
	mu     sync.RWMutex
	scenes map[string][]byte
	infos  map[string]models.ProjectInfo
}

// NewMemorySceneStore creates an empty store.
func NewMemorySceneStore() *MemorySceneStore {
	return &MemorySceneStore{
		scenes: make(map[string][]byte),
		infos:  make(map[string]models.ProjectInfo),
	}
}

func (m *MemorySceneStore) Save(_ context.Context, doc models.SceneDocument) error {
	payload, err := EncodeScene(doc)
	if err != nil {
		return fmt.Errorf("encoding scene: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenes[doc.ProjectID] = payload
	m.infos[doc.ProjectID] = models.ProjectInfo{
		ID:        doc.ProjectID,
		Revision:  doc.Revision,
		Size:      int64(len(payload)),
		UpdatedAt: doc.UpdatedAt,
	}
	return nil
}

func (m *MemorySceneStore) Load(_ context.Context, projectID string) (models.SceneDocument, error) {
	m.mu.RLock()
	payload, ok := m.scenes[projectID]
	m.mu.RUnlock()
	if !ok {
		return models.SceneDocument{}, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	return DecodeScene(payload)
}

func (m *MemorySceneStore) List(_ context.Context) ([]models.ProjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ProjectInfo, 0, len(m.infos))
	for _, info := range m.infos {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *MemorySceneStore) Delete(_ context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scenes[projectID]; !ok {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	delete(m.scenes, projectID)
	delete(m.infos, projectID)
	return nil
}

func (m *MemorySceneStore) Close() error { return nil }

var (
	_ SceneStore = (*MemorySceneStore)(nil)
	_ SceneStore = (*DuckSceneStore)(nil)
	_ AssetStore = (*LocalStore)(nil)
)
