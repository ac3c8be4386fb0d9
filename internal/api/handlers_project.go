// handlers_project.go - Project and whole-scene handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wedding-planner/backend/internal/engine"
	"github.com/wedding-planner/backend/internal/models"
	"github.com/wedding-planner/backend/internal/storage"
)

// ProjectHandlerImpl implements the ProjectHandler interface
type ProjectHandlerImpl struct {
	sessions      SessionManager
	allowDeletion bool
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(sessions SessionManager, allowDeletion bool) ProjectHandler {
	return &ProjectHandlerImpl{sessions: sessions, allowDeletion: allowDeletion}
}

// openProject resolves the :projectId path parameter to its engine.
func openProject(c echo.Context, sessions SessionManager) (*engine.Engine, error) {
	id := c.Param("projectId")
	if id == "" {
		return nil, NewValidationError("projectId")
	}
	eng, err := sessions.Open(c.Request().Context(), id)
	if err != nil {
		return nil, fromDomainError("failed to open project", "project", id, err)
	}
	return eng, nil
}

// HandleListProjects lists stored and open projects
func (h *ProjectHandlerImpl) HandleListProjects(c echo.Context) error {
	list, err := h.sessions.Projects(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to list projects", err)
	}
	return c.JSON(http.StatusOK, list)
}

// HandleGetScene returns the full scene document
func (h *ProjectHandlerImpl) HandleGetScene(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, eng.Document())
}

// HandleGetSceneMsgpack returns the scene document in MessagePack format
func (h *ProjectHandlerImpl) HandleGetSceneMsgpack(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	data, err := storage.EncodeScene(eng.Document())
	if err != nil {
		return NewInternalError("failed to encode scene", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandlePutScene replaces the scene with the supplied document. History is
// cleared.
func (h *ProjectHandlerImpl) HandlePutScene(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	var doc models.SceneDocument
	if err := c.Bind(&doc); err != nil {
		return NewBadRequestError("invalid scene document", err)
	}
	doc.ProjectID = eng.ProjectID()
	eng.Load(doc)
	return c.JSON(http.StatusOK, eng.Document())
}

// HandleDeleteProject closes and deletes a project
func (h *ProjectHandlerImpl) HandleDeleteProject(c echo.Context) error {
	if !h.allowDeletion {
		return NewForbiddenError("project deletion is disabled")
	}
	id := c.Param("projectId")
	if err := h.sessions.Delete(c.Request().Context(), id); err != nil {
		return fromDomainError("failed to delete project", "project", id, err)
	}
	return c.NoContent(http.StatusNoContent)
}
