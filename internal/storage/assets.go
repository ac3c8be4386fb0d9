package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wedding-planner/backend/internal/models"
)

const metaExt = ".meta"

// LocalStore implements AssetStore on the local filesystem. Each asset is
// stored as <id> with its metadata in a msgpack sidecar <id>.meta, so the
// index survives restarts.
type LocalStore struct {
	mu     sync.RWMutex
	dir    string
	assets map[string]*models.AssetInfo
}

// NewLocalStore creates the asset directory if needed and loads the index.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating asset directory: %w", err)
	}

	s := &LocalStore{
		dir:    dir,
		assets: make(map[string]*models.AssetInfo),
	}
	if err := s.loadIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LocalStore) loadIndex() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("reading asset directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), metaExt) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return fmt.Errorf("reading asset metadata: %w", err)
		}
		var info models.AssetInfo
		if err := decode(data, &info); err != nil || info.ID == "" {
			continue
		}
		if _, err := os.Stat(s.path(info.ID)); err != nil {
			continue
		}
		s.assets[info.ID] = &info
	}
	return nil
}

func (s *LocalStore) path(id string) string {
	return filepath.Join(s.dir, filepath.Base(id))
}

func (s *LocalStore) writeMeta(info *models.AssetInfo) error {
	data, err := encode(info)
	if err != nil {
		return fmt.Errorf("encoding asset metadata: %w", err)
	}
	if err := os.WriteFile(s.path(info.ID)+metaExt, data, 0644); err != nil {
		return fmt.Errorf("writing asset metadata: %w", err)
	}
	return nil
}

// Save stores an asset read from r.
func (s *LocalStore) Save(name string, r io.Reader) (*models.AssetInfo, error) {
	id := uuid.New().String()
	path := s.path(id)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating asset: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing asset: %w", err)
	}

	info := &models.AssetInfo{
		ID:         id,
		Name:       name,
		Size:       size,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.writeMeta(info); err != nil {
		os.Remove(path)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[id] = info

	return info, nil
}

// SaveBytes stores an in-memory asset.
func (s *LocalStore) SaveBytes(name string, data []byte) (*models.AssetInfo, error) {
	return s.Save(name, bytes.NewReader(data))
}

// Get retrieves asset metadata by ID.
func (s *LocalStore) Get(id string) (*models.AssetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	return info, nil
}

// List returns the most recent assets. limit <= 0 returns all.
func (s *LocalStore) List(limit int) ([]*models.AssetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.AssetInfo, 0, len(s.assets))
	for _, info := range s.assets {
		list = append(list, info)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Delete removes an asset and its metadata.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assets[id]; !ok {
		return fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}

	path := s.path(id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting asset: %w", err)
	}
	os.Remove(path + metaExt)

	delete(s.assets, id)
	return nil
}

// Rename updates the display name of an asset.
func (s *LocalStore) Rename(id string, newName string) (*models.AssetInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}

	info.Name = newName
	if err := s.writeMeta(info); err != nil {
		return nil, err
	}
	return info, nil
}

// Open returns the asset content.
func (s *LocalStore) Open(id string) (io.ReadCloser, error) {
	s.mu.RLock()
	_, ok := s.assets[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}

	f, err := os.Open(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("opening asset: %w", err)
	}
	return f, nil
}
