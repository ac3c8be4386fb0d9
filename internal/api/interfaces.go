// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/wedding-planner/backend/internal/engine"
	"github.com/wedding-planner/backend/internal/models"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// CatalogHandler serves the furniture catalog
type CatalogHandler interface {
	HandleGetCatalog(c echo.Context) error
}

// AssetHandler handles furniture image assets
type AssetHandler interface {
	HandleUploadAsset(c echo.Context) error
	HandleListAssets(c echo.Context) error
	HandleGetAsset(c echo.Context) error
	HandleGetAssetContent(c echo.Context) error
	HandleRenameAsset(c echo.Context) error
	HandleDeleteAsset(c echo.Context) error
}

// ProjectHandler handles whole-scene operations
type ProjectHandler interface {
	HandleListProjects(c echo.Context) error
	HandleGetScene(c echo.Context) error
	HandleGetSceneMsgpack(c echo.Context) error
	HandlePutScene(c echo.Context) error
	HandleDeleteProject(c echo.Context) error
}

// CanvasHandler handles content commands that go through history
type CanvasHandler interface {
	HandleAddSpace(c echo.Context) error
	HandlePlaceFurniture(c echo.Context) error
	HandleImportWalls(c echo.Context) error
	HandleUploadWalls(c echo.Context) error
	HandleDeleteWall(c echo.Context) error
	HandleDeleteShape(c echo.Context) error
	HandleDeleteText(c echo.Context) error
	HandleUndo(c echo.Context) error
	HandleRedo(c echo.Context) error
}

// ViewportHandler handles zoom and framing
type ViewportHandler interface {
	HandleGetZoom(c echo.Context) error
	HandleZoom(c echo.Context) error
	HandleFitExtents(c echo.Context) error
}

// AnnotationHandler handles point annotations
type AnnotationHandler interface {
	HandleListAnnotations(c echo.Context) error
	HandleAddAnnotation(c echo.Context) error
	HandleUpdateAnnotation(c echo.Context) error
	HandleDeleteAnnotation(c echo.Context) error
}

// InteractionHandler handles tool selection and pointer input
type InteractionHandler interface {
	HandleSetTool(c echo.Context) error
	HandlePointer(c echo.Context) error
}

// SessionManager defines the project sessions the handlers need.
// This allows mocking in tests
type SessionManager interface {
	Open(ctx context.Context, projectID string) (*engine.Engine, error)
	Projects(ctx context.Context) ([]models.ProjectInfo, error)
	Delete(ctx context.Context, projectID string) error
	Count() int
	Subscribe(l engine.Listener)
}
