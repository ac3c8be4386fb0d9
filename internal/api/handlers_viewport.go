// handlers_viewport.go - Zoom and framing handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wedding-planner/backend/internal/engine"
	"github.com/wedding-planner/backend/internal/models"
)

// ViewportHandlerImpl implements the ViewportHandler interface
type ViewportHandlerImpl struct {
	sessions SessionManager
}

// NewViewportHandler creates a new viewport handler
func NewViewportHandler(sessions SessionManager) ViewportHandler {
	return &ViewportHandlerImpl{sessions: sessions}
}

// HandleGetZoom returns the zoom percentage and viewport window
func (h *ViewportHandlerImpl) HandleGetZoom(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, viewportBody(eng))
}

// HandleZoom applies a zoom action
func (h *ViewportHandlerImpl) HandleZoom(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	var req zoomRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	switch req.Action {
	case "in":
		eng.ZoomIn(req.focus())
	case "out":
		eng.ZoomOut(req.focus())
	case "reset":
		eng.ZoomReset()
	case "fit-page":
		eng.FitToPage()
	case "fit-content":
		eng.FitToContent()
	default:
		return NewValidationError("action")
	}
	return c.JSON(http.StatusOK, viewportBody(eng))
}

// HandleFitExtents frames a set of world points
func (h *ViewportHandlerImpl) HandleFitExtents(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	var req fitExtentsRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	body := viewportBody(eng)
	body["fitted"] = eng.FitToExtents(req.Points)
	body["viewport"] = eng.Viewport()
	body["zoomPercent"] = eng.ZoomPercent()
	return c.JSON(http.StatusOK, body)
}

func viewportBody(eng *engine.Engine) map[string]interface{} {
	return map[string]interface{}{
		"zoomPercent": eng.ZoomPercent(),
		"viewport":    eng.Viewport(),
		"page":        eng.Page(),
	}
}

type zoomRequest struct {
	Action string   `json:"action"`
	FocusX *float64 `json:"focusX,omitempty"`
	FocusY *float64 `json:"focusY,omitempty"`
}

func (r *zoomRequest) focus() *models.Point {
	if r.FocusX == nil || r.FocusY == nil {
		return nil
	}
	return &models.Point{X: *r.FocusX, Y: *r.FocusY}
}

type fitExtentsRequest struct {
	Points []models.Point `json:"points"`
}
