// Package storage persists uploaded furniture images and scene documents.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/wedding-planner/backend/internal/models"
)

// ErrNotFound is returned when an asset or project does not exist.
var ErrNotFound = errors.New("not found")

// AssetStore defines the interface for furniture image storage.
type AssetStore interface {
	Save(name string, r io.Reader) (*models.AssetInfo, error)
	SaveBytes(name string, data []byte) (*models.AssetInfo, error)
	Get(id string) (*models.AssetInfo, error)
	List(limit int) ([]*models.AssetInfo, error)
	Delete(id string) error
	Rename(id string, newName string) (*models.AssetInfo, error)
	Open(id string) (io.ReadCloser, error)
}

// SceneStore persists one scene document per project.
type SceneStore interface {
	Save(ctx context.Context, doc models.SceneDocument) error
	Load(ctx context.Context, projectID string) (models.SceneDocument, error)
	List(ctx context.Context) ([]models.ProjectInfo, error)
	Delete(ctx context.Context, projectID string) error
	Close() error
}
