// handlers_canvas.go - Content commands: spaces, furniture, walls, removal, undo/redo
package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/wedding-planner/backend/internal/catalog"
	"github.com/wedding-planner/backend/internal/engine"
	"github.com/wedding-planner/backend/internal/models"
	"github.com/wedding-planner/backend/internal/wallmaker"
)

// CanvasHandlerImpl implements the CanvasHandler interface
type CanvasHandlerImpl struct {
	sessions     SessionManager
	catalog      *catalog.Catalog
	placeTimeout time.Duration
}

// NewCanvasHandler creates a new canvas handler. placeTimeout bounds how
// long a furniture request waits for its image; it should exceed the
// engine's image timeout so requests see the placed shape.
func NewCanvasHandler(sessions SessionManager, cat *catalog.Catalog, placeTimeout time.Duration) CanvasHandler {
	if cat == nil {
		cat = catalog.Default()
	}
	if placeTimeout <= 0 {
		placeTimeout = 10 * time.Second
	}
	return &CanvasHandlerImpl{sessions: sessions, catalog: cat, placeTimeout: placeTimeout}
}

// HandleAddSpace creates a Space of a real-world size
func (h *CanvasHandlerImpl) HandleAddSpace(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	var req addSpaceRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	sp, err := eng.AddSpace(req.WidthMeters, req.HeightMeters)
	if err != nil {
		return fromDomainError("failed to add space", "space", "", err)
	}
	return c.JSON(http.StatusCreated, withRevision(eng, map[string]interface{}{"space": sp}))
}

// HandlePlaceFurniture places a furniture object, completing missing
// dimensions from the catalog. Image-backed furniture is inserted once its
// image has loaded or failed.
func (h *CanvasHandlerImpl) HandlePlaceFurniture(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	var req models.FurnitureRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.Kind == "" {
		return NewValidationError("kind")
	}
	if req.WidthMeters < 0 || req.HeightMeters < 0 {
		return NewValidationError("widthMeters")
	}
	req, err = h.catalog.Complete(req)
	if err != nil {
		return fromDomainError("unknown furniture kind", "furniture kind", req.Kind, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.placeTimeout)
	defer cancel()
	sh, err := eng.PlaceFurniture(req).Wait(ctx)
	switch {
	case errors.Is(err, engine.ErrStale):
		return NewConflictError("scene was replaced while the image was loading")
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusAccepted, map[string]string{"status": "pending"})
	case err != nil:
		return fromDomainError("failed to place furniture", "space", req.TargetSpaceID, err)
	}
	return c.JSON(http.StatusCreated, withRevision(eng, map[string]interface{}{"shape": sh}))
}

// HandleImportWalls fits a wall layout onto the page
func (h *CanvasHandlerImpl) HandleImportWalls(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	var req importWallsRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if len(req.Walls) == 0 {
		return NewValidationError("walls")
	}
	return h.importLayout(c, eng, req.Walls, req.Doors)
}

// HandleUploadWalls decodes a wall-maker export and imports it
func (h *CanvasHandlerImpl) HandleUploadWalls(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	var req uploadWallsRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}
	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return NewBadRequestError("invalid base64 data", err)
	}

	layout, err := wallmaker.Decode(req.format(), bytes.NewReader(decoded))
	if err != nil {
		return NewBadRequestError("failed to parse wall layout", err)
	}
	return h.importLayout(c, eng, layout.Walls, layout.Doors)
}

func (h *CanvasHandlerImpl) importLayout(c echo.Context, eng *engine.Engine, walls []models.Wall, doors []models.Door) error {
	res, err := eng.ImportWalls(walls, doors)
	if err != nil {
		return fromDomainError("failed to import walls", "wall layout", "", err)
	}
	return c.JSON(http.StatusCreated, withRevision(eng, map[string]interface{}{
		"import":   res,
		"viewport": eng.Viewport(),
	}))
}

// HandleDeleteWall removes a wall and the doors on it
func (h *CanvasHandlerImpl) HandleDeleteWall(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	id := c.Param("wallId")
	n, err := eng.RemoveWall(id)
	if err != nil {
		return fromDomainError("failed to remove wall", "wall", id, err)
	}
	return c.JSON(http.StatusOK, withRevision(eng, map[string]interface{}{"doorsRemoved": n}))
}

// HandleDeleteShape removes a shape or Space
func (h *CanvasHandlerImpl) HandleDeleteShape(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	id := c.Param("shapeId")
	if err := eng.RemoveShape(id); err != nil {
		return fromDomainError("failed to remove shape", "shape", id, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleDeleteText removes a text element
func (h *CanvasHandlerImpl) HandleDeleteText(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	id := c.Param("textId")
	if err := eng.RemoveText(id); err != nil {
		return fromDomainError("failed to remove text", "text", id, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleUndo restores the previous scene state
func (h *CanvasHandlerImpl) HandleUndo(c echo.Context) error {
	return h.step(c, (*engine.Engine).Undo)
}

// HandleRedo re-applies an undone action
func (h *CanvasHandlerImpl) HandleRedo(c echo.Context) error {
	return h.step(c, (*engine.Engine).Redo)
}

func (h *CanvasHandlerImpl) step(c echo.Context, move func(*engine.Engine) bool) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	applied := move(eng)
	return c.JSON(http.StatusOK, withRevision(eng, map[string]interface{}{
		"applied": applied,
		"canUndo": eng.CanUndo(),
		"canRedo": eng.CanRedo(),
	}))
}

func withRevision(eng *engine.Engine, body map[string]interface{}) map[string]interface{} {
	body["revision"] = eng.Revision()
	return body
}

type addSpaceRequest struct {
	WidthMeters  float64 `json:"widthMeters"`
	HeightMeters float64 `json:"heightMeters"`
}

func (r *addSpaceRequest) validate() error {
	if r.WidthMeters <= 0 {
		return NewValidationError("widthMeters")
	}
	if r.HeightMeters <= 0 {
		return NewValidationError("heightMeters")
	}
	return nil
}

type importWallsRequest struct {
	Walls []models.Wall `json:"walls"`
	Doors []models.Door `json:"doors"`
}

type uploadWallsRequest struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Data   string `json:"data"` // Base64-encoded export
}

func (r *uploadWallsRequest) validate() error {
	if r.Data == "" {
		return NewValidationError("data")
	}
	switch strings.ToLower(r.Format) {
	case "", string(wallmaker.FormatJSON), string(wallmaker.FormatXML):
		return nil
	}
	return NewValidationError("format")
}

func (r *uploadWallsRequest) format() wallmaker.Format {
	if r.Format != "" {
		return wallmaker.Format(strings.ToLower(r.Format))
	}
	if strings.EqualFold(filepath.Ext(r.Name), ".xml") {
		return wallmaker.FormatXML
	}
	return wallmaker.FormatJSON
}
