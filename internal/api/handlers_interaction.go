// handlers_interaction.go - Tool selection and pointer input handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wedding-planner/backend/internal/engine"
	"github.com/wedding-planner/backend/internal/interaction"
)

// maxPointerBatch bounds the events accepted in one request.
const maxPointerBatch = 1000

// InteractionHandlerImpl implements the InteractionHandler interface
type InteractionHandlerImpl struct {
	sessions SessionManager
}

// NewInteractionHandler creates a new interaction handler
func NewInteractionHandler(sessions SessionManager) InteractionHandler {
	return &InteractionHandlerImpl{sessions: sessions}
}

// HandleSetTool switches the active tool
func (h *InteractionHandlerImpl) HandleSetTool(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	var req setToolRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	tool, ok := interaction.ParseTool(req.Tool)
	if !ok {
		return NewValidationError("tool")
	}
	out := eng.SetTool(tool, req.ToolOptions)
	return c.JSON(http.StatusOK, interactionBody(eng, out))
}

// HandlePointer feeds a batch of pointer events, then an optional key
func (h *InteractionHandlerImpl) HandlePointer(c echo.Context) error {
	eng, err := openProject(c, h.sessions)
	if err != nil {
		return err
	}
	var req pointerRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	out := eng.HandlePointer(req.Events...)
	if req.Key != "" {
		out.Merge(eng.Key(req.Key))
	}
	return c.JSON(http.StatusOK, interactionBody(eng, out))
}

func interactionBody(eng *engine.Engine, out interaction.Outcome) map[string]interface{} {
	return map[string]interface{}{
		"outcome":  out,
		"preview":  eng.Preview(),
		"revision": eng.Revision(),
	}
}

type setToolRequest struct {
	Tool string `json:"tool"`
	interaction.ToolOptions
}

type pointerRequest struct {
	Events []interaction.PointerEvent `json:"events"`
	Key    string                     `json:"key,omitempty"`
}

func (r *pointerRequest) validate() error {
	if len(r.Events) == 0 && r.Key == "" {
		return NewValidationError("events")
	}
	if len(r.Events) > maxPointerBatch {
		return NewValidationError("events")
	}
	for _, ev := range r.Events {
		if !validEventKind(ev.Kind) {
			return NewValidationError("events.kind")
		}
	}
	return nil
}

func validEventKind(k interaction.EventKind) bool {
	switch k {
	case interaction.PointerDown, interaction.PointerMove, interaction.PointerUp, interaction.PointerLeave:
		return true
	}
	return false
}
