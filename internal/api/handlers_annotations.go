// handlers_annotations.go - Point annotation handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wedding-planner/backend/internal/models"
	"github.com/wedding-planner/backend/internal/scene"
)

// AnnotationHandlerImpl implements the AnnotationHandler interface
type AnnotationHandlerImpl struct {
	sessions SessionManager
}

// NewAnnotationHandler creates a new annotation handler
func NewAnnotationHandler(sessions SessionManager) AnnotationHandler {
	return &AnnotationHandlerImpl{sessions: sessions}
}

// HandleListAnnotations returns every point annotation
func (h *AnnotationHandlerImpl) HandleListAnnotations(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, eng.Annotations())
}

// HandleAddAnnotation creates a point annotation
func (h *AnnotationHandlerImpl) HandleAddAnnotation(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	var req addAnnotationRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.X == nil {
		return NewValidationError("x")
	}
	if req.Y == nil {
		return NewValidationError("y")
	}

	a, err := eng.AddAnnotation(models.Point{X: *req.X, Y: *req.Y}, req.Payload)
	if err != nil {
		return fromDomainError("failed to add annotation", "annotation", "", err)
	}
	return c.JSON(http.StatusCreated, a)
}

// HandleUpdateAnnotation patches position and/or payload
func (h *AnnotationHandlerImpl) HandleUpdateAnnotation(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	var patch scene.AnnotationPatch
	if err := c.Bind(&patch); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	id := c.Param("annotationId")
	a, err := eng.UpdateAnnotation(id, patch)
	if err != nil {
		return fromDomainError("failed to update annotation", "annotation", id, err)
	}
	return c.JSON(http.StatusOK, a)
}

// HandleDeleteAnnotation removes a point annotation
func (h *AnnotationHandlerImpl) HandleDeleteAnnotation(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	id := c.Param("annotationId")
	if err := eng.DeleteAnnotation(id); err != nil {
		return fromDomainError("failed to delete annotation", "annotation", id, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type addAnnotationRequest struct {
	X       *float64       `json:"x"`
	Y       *float64       `json:"y"`
	Payload map[string]any `json:"payload,omitempty"`
}
