// mock_storage.go - In-memory store implementations for testing
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/wedding-planner/backend/internal/models"
	"github.com/wedding-planner/backend/internal/storage"
)

// MockAssetStore implements storage.AssetStore in memory
type MockAssetStore struct {
	assets map[string]*models.AssetInfo
	data   map[string][]byte
	mu     sync.RWMutex
}

// NewMockAssetStore creates an empty mock asset store
func NewMockAssetStore() *MockAssetStore {
	return &MockAssetStore{
		assets: make(map[string]*models.AssetInfo),
		data:   make(map[string][]byte),
	}
}

func (m *MockAssetStore) Save(name string, r io.Reader) (*models.AssetInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return m.SaveBytes(name, data)
}

func (m *MockAssetStore) SaveBytes(name string, data []byte) (*models.AssetInfo, error) {
	return m.AddAsset(generateTestID(), name, data), nil
}

func (m *MockAssetStore) Get(id string) (*models.AssetInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", id, storage.ErrNotFound)
	}
	return info, nil
}

func (m *MockAssetStore) List(limit int) ([]*models.AssetInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*models.AssetInfo, 0, len(m.assets))
	for _, info := range m.assets {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (m *MockAssetStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.assets[id]; !ok {
		return fmt.Errorf("asset %s: %w", id, storage.ErrNotFound)
	}
	delete(m.assets, id)
	delete(m.data, id)
	return nil
}

func (m *MockAssetStore) Rename(id string, newName string) (*models.AssetInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", id, storage.ErrNotFound)
	}
	info.Name = newName
	return info, nil
}

func (m *MockAssetStore) Open(id string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", id, storage.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// AddAsset adds an asset directly to the mock
func (m *MockAssetStore) AddAsset(id string, name string, data []byte) *models.AssetInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := &models.AssetInfo{
		ID:         id,
		Name:       name,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
	}
	m.assets[id] = info
	m.data[id] = data
	return info
}

// AssetCount returns the number of stored assets
func (m *MockAssetStore) AssetCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.assets)
}

// MockSceneStore implements storage.SceneStore in memory and records saves
type MockSceneStore struct {
	mu      sync.Mutex
	docs    map[string]models.SceneDocument
	saves   []models.SceneDocument
	SaveErr error
}

// NewMockSceneStore creates an empty mock scene store
func NewMockSceneStore() *MockSceneStore {
	return &MockSceneStore{docs: make(map[string]models.SceneDocument)}
}

func (m *MockSceneStore) Save(_ context.Context, doc models.SceneDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	doc = doc.Clone()
	m.docs[doc.ProjectID] = doc
	m.saves = append(m.saves, doc)
	return nil
}

func (m *MockSceneStore) Load(_ context.Context, projectID string) (models.SceneDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[projectID]
	if !ok {
		return models.SceneDocument{}, fmt.Errorf("project %s: %w", projectID, storage.ErrNotFound)
	}
	return doc.Clone(), nil
}

func (m *MockSceneStore) List(_ context.Context) ([]models.ProjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ProjectInfo, 0, len(m.docs))
	for _, doc := range m.docs {
		out = append(out, models.ProjectInfo{ID: doc.ProjectID, Revision: doc.Revision, UpdatedAt: doc.UpdatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockSceneStore) Delete(_ context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[projectID]; !ok {
		return fmt.Errorf("project %s: %w", projectID, storage.ErrNotFound)
	}
	delete(m.docs, projectID)
	return nil
}

func (m *MockSceneStore) Close() error { return nil }

// Saves returns every document saved so far, oldest first
func (m *MockSceneStore) Saves() []models.SceneDocument {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SceneDocument(nil), m.saves...)
}

// Put stores a document without recording a save
func (m *MockSceneStore) Put(doc models.SceneDocument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ProjectID] = doc.Clone()
}

// Ensure the mocks implement the storage interfaces
var (
	_ storage.AssetStore = (*MockAssetStore)(nil)
	_ storage.SceneStore = (*MockSceneStore)(nil)
)

// generateTestID generates a simple test ID
var testIDCounter int
var testIDMutex sync.Mutex

func generateTestID() string {
	testIDMutex.Lock()
	defer testIDMutex.Unlock()
	testIDCounter++
	return fmt.Sprintf("test-id-%d", testIDCounter)
}
