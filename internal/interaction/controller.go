// Package interaction turns abstract pointer and key events into scene
// mutations. One tool is active at a time; tools change only through
// SetTool. Every completed gesture pushes at most one history entry.
package interaction

import (
	"errors"
	"log/slog"
	"math"

	"github.com/wedding-planner/backend/internal/geometry"
	"github.com/wedding-planner/backend/internal/history"
	"github.com/wedding-planner/backend/internal/models"
	"github.com/wedding-planner/backend/internal/scene"
	"github.com/wedding-planner/backend/internal/snap"
	"github.com/wedding-planner/backend/internal/viewport"
)

// Tool is an interaction mode.
type Tool string

const (
	ToolSelect   Tool = "select"
	ToolDraw     Tool = "draw"
	ToolErase    Tool = "erase"
	ToolShape    Tool = "shape"
	ToolText     Tool = "text"
	ToolAnnotate Tool = "annotate"
)

// ParseTool validates a tool name.
func ParseTool(s string) (Tool, bool) {
	switch t := Tool(s); t {
	case ToolSelect, ToolDraw, ToolErase, ToolShape, ToolText, ToolAnnotate:
		return t, true
	}
	return "", false
}

// EventKind is the pointer event type.
type EventKind string

const (
	PointerDown  EventKind = "down"
	PointerMove  EventKind = "move"
	PointerUp    EventKind = "up"
	PointerLeave EventKind = "leave"
)

// PointerEvent is a pointer event in screen coordinates.
type PointerEvent struct {
	Kind EventKind `json:"kind"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
}

// KeyEscape reverts an in-progress drag.
const KeyEscape = "Escape"

// Settings holds the tunables for gestures and new entities.
type Settings struct {
	SnapThreshold float64
	EraseRadius   float64
	EraseInterval float64
	StrokeColor   string
	StrokeWidth   float64
	FontSize      float64
	TextColor     string
	ShapeFill     string
	ShapeStroke   string
}

// DefaultSettings returns the stock gesture settings.
func DefaultSettings() Settings {
	return Settings{
		SnapThreshold: snap.DefaultThreshold,
		EraseRadius:   10,
		EraseInterval: 4,
		StrokeColor:   "#222222",
		StrokeWidth:   2,
		FontSize:      16,
		TextColor:     "#222222",
		ShapeFill:     "#ffffff",
		ShapeStroke:   "#222222",
	}
}

// ToolOptions parameterise the active tool.
type ToolOptions struct {
	ShapeKind models.ShapeKind `json:"shapeKind,omitempty"`
	Text      string           `json:"text,omitempty"`
	Color     string           `json:"color,omitempty"`
	Payload   map[string]any   `json:"payload,omitempty"`
}

// Outcome reports what an event did.
type Outcome struct {
	Changed         bool `json:"changed"`
	Committed       bool `json:"committed"`
	Reverted        bool `json:"reverted"`
	ViewportChanged bool `json:"viewportChanged"`
}

// Merge folds another outcome into o.
func (o *Outcome) Merge(other Outcome) {
	o.Changed = o.Changed || other.Changed
	o.Committed = o.Committed || other.Committed
	o.Reverted = o.Reverted || other.Reverted
	o.ViewportChanged = o.ViewportChanged || other.ViewportChanged
}

type gesture string

const (
	idle    gesture = ""
	moving  gesture = "move"
	panning gesture = "pan"
	drawing gesture = "draw"
	erasing gesture = "erase"
	sizing  gesture = "shape"
)

// Preview is the transient state of an in-progress gesture.
type Preview struct {
	Tool     Tool         `json:"tool"`
	Gesture  string       `json:"gesture,omitempty"`
	ShapeID  string       `json:"shapeId,omitempty"`
	Rect     *models.Rect `json:"rect,omitempty"`
	Guides   []snap.Guide `json:"guides,omitempty"`
	PathData string       `json:"pathData,omitempty"`
}

// Controller is the tool state machine. It is not safe for concurrent use.
type Controller struct {
	scene    *scene.Scene
	history  *history.Manager
	view     *viewport.Controller
	screen   models.Rect
	settings Settings
	logger   *slog.Logger

	tool    Tool
	options ToolOptions
	state   gesture

	// move
	moveID  string
	origin  models.Rect
	grab    models.Point
	current models.Rect
	guides  []snap.Guide
	// pan
	panFrom   models.Point
	panWindow models.Rect
	// draw / shape
	points []models.Point
	anchor models.Point
	// erase
	erasePre  models.HistoryEntry
	erasedAny bool
}

// NewController creates a controller in select mode. screen is the drawing
// surface rectangle that pointer coordinates are expressed in.
func NewController(sc *scene.Scene, hist *history.Manager, view *viewport.Controller, screen models.Rect, settings Settings, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		scene:    sc,
		history:  hist,
		view:     view,
		screen:   screen,
		settings: settings,
		logger:   logger,
		tool:     ToolSelect,
		options:  ToolOptions{ShapeKind: models.ShapeRectangle},
	}
}

// Tool returns the active tool.
func (c *Controller) Tool() Tool { return c.tool }

// Options returns the active tool options.
func (c *Controller) Options() ToolOptions { return c.options }

// Busy reports whether a gesture is in progress.
func (c *Controller) Busy() bool { return c.state != idle }

// SetTool switches tools, committing whatever the in-progress gesture has
// produced so far.
func (c *Controller) SetTool(t Tool, opts ToolOptions) Outcome {
	out := c.Finish()
	if opts.ShapeKind != models.ShapeCircle {
		opts.ShapeKind = models.ShapeRectangle
	}
	opts.Payload = models.ClonePayload(opts.Payload)
	c.tool = t
	c.options = opts
	return out
}

// Finish completes the in-progress gesture at its last known position.
func (c *Controller) Finish() Outcome {
	switch c.state {
	case moving:
		return c.finishMove()
	case drawing:
		return c.finishDraw()
	case erasing:
		return c.finishErase()
	case sizing:
		return c.finishShape()
	}
	c.reset()
	return Outcome{}
}

// Key handles a key press. Escape during a drag returns the shape to its
// pre-drag position without committing.
func (c *Controller) Key(key string) Outcome {
	if key == KeyEscape && c.state == moving {
		c.logger.Debug("drag cancelled", "shape", c.moveID)
		c.reset()
		return Outcome{Reverted: true}
	}
	return Outcome{}
}

// Handle processes one pointer event.
func (c *Controller) Handle(ev PointerEvent) Outcome {
	if !geometry.Finite(ev.X, ev.Y) {
		return Outcome{}
	}
	screenPt := models.Point{X: ev.X, Y: ev.Y}
	p := geometry.ScreenToWorld(screenPt, c.view.Window(), c.screen)

	switch ev.Kind {
	case PointerDown:
		out := c.Finish()
		out.Merge(c.down(p, screenPt))
		return out
	case PointerMove:
		return c.move(p, screenPt)
	case PointerUp:
		out := c.move(p, screenPt)
		out.Merge(c.Finish())
		return out
	case PointerLeave:
		return c.Finish()
	}
	return Outcome{}
}

func (c *Controller) down(p, screenPt models.Point) Outcome {
	switch c.tool {
	case ToolSelect:
		if sh, ok := c.scene.ShapeAt(p); ok {
			c.state = moving
			c.moveID = sh.ID
			c.origin = sh.Bounds()
			c.current = c.origin
			c.grab = models.Point{X: p.X - sh.X, Y: p.Y - sh.Y}
			return Outcome{}
		}
		c.state = panning
		c.panFrom = screenPt
		c.panWindow = c.view.Window()
	case ToolDraw:
		c.state = drawing
		c.points = []models.Point{p}
	case ToolErase:
		c.state = erasing
		c.erasePre = c.scene.Snapshot()
		c.erasedAny = false
		return c.erase(p)
	case ToolShape:
		c.state = sizing
		c.anchor = p
		c.points = []models.Point{p}
	case ToolText:
		return c.commit(func() error {
			text := c.options.Text
			if text == "" {
				text = "Text"
			}
			_, err := c.scene.AddText(p, text, c.settings.FontSize, c.color(c.settings.TextColor))
			return err
		})
	case ToolAnnotate:
		if _, err := c.scene.AddAnnotation(p, c.options.Payload); err != nil {
			return Outcome{}
		}
		return Outcome{Changed: true}
	}
	return Outcome{}
}

func (c *Controller) move(p, screenPt models.Point) Outcome {
	switch c.state {
	case moving:
		raw := models.Rect{X: p.X - c.grab.X, Y: p.Y - c.grab.Y, Width: c.origin.Width, Height: c.origin.Height}
		res := snap.Apply(raw, c.otherBounds(), c.scene.Page(), c.settings.SnapThreshold)
		c.current = res.Rect
		c.guides = res.Guides
	case panning:
		w := c.panWindow
		dx := (screenPt.X - c.panFrom.X) * w.Width / c.screen.Width
		dy := (screenPt.Y - c.panFrom.Y) * w.Height / c.screen.Height
		w.X -= dx
		w.Y -= dy
		if c.view.SetWindow(w) {
			return Outcome{ViewportChanged: true}
		}
	case drawing:
		if last := c.points[len(c.points)-1]; last != p {
			c.points = append(c.points, p)
		}
	case erasing:
		return c.erase(p)
	case sizing:
		c.points = []models.Point{c.anchor, p}
	}
	return Outcome{}
}

func (c *Controller) erase(p models.Point) Outcome {
	removed := c.scene.EraseAt(p, c.settings.EraseRadius, c.settings.EraseInterval)
	if len(removed) == 0 {
		return Outcome{}
	}
	c.erasedAny = true
	return Outcome{Changed: true}
}

func (c *Controller) finishMove() Outcome {
	defer c.reset()
	if c.current == c.origin {
		return Outcome{}
	}
	if !c.scene.Page().ContainsRect(c.current) {
		c.logger.Debug("drop outside page reverted", "shape", c.moveID)
		return Outcome{Reverted: true}
	}
	id, target := c.moveID, c.current
	return c.commit(func() error {
		return c.scene.MoveShape(id, target.X, target.Y)
	})
}

func (c *Controller) finishDraw() Outcome {
	pts := c.points
	c.reset()
	return c.commit(func() error {
		_, err := c.scene.AddStroke(pts, c.color(c.settings.StrokeColor), c.settings.StrokeWidth)
		return err
	})
}

func (c *Controller) finishErase() Outcome {
	pre, erased := c.erasePre, c.erasedAny
	c.reset()
	if !erased {
		return Outcome{}
	}
	c.history.Commit(pre)
	return Outcome{Changed: true, Committed: true}
}

func (c *Controller) finishShape() Outcome {
	r, ok := c.sizedRect()
	c.reset()
	if !ok {
		return Outcome{}
	}
	sh := models.Shape{
		Kind:        c.options.ShapeKind,
		X:           r.X,
		Y:           r.Y,
		Width:       r.Width,
		Height:      r.Height,
		Fill:        c.settings.ShapeFill,
		Stroke:      c.color(c.settings.ShapeStroke),
		StrokeWidth: 1,
	}
	return c.commit(func() error {
		_, err := c.scene.AddShape(sh)
		return err
	})
}

// sizedRect is the rectangle spanned from the anchor to the last point.
// Circles take the larger extent as diameter, growing in the drag direction.
func (c *Controller) sizedRect() (models.Rect, bool) {
	if len(c.points) < 2 {
		return models.Rect{}, false
	}
	end := c.points[len(c.points)-1]
	dx, dy := end.X-c.anchor.X, end.Y-c.anchor.Y
	if c.options.ShapeKind == models.ShapeCircle {
		d := math.Max(math.Abs(dx), math.Abs(dy))
		dx = math.Copysign(d, dx)
		dy = math.Copysign(d, dy)
	}
	return models.Rect{
		X:      math.Min(c.anchor.X, c.anchor.X+dx),
		Y:      math.Min(c.anchor.Y, c.anchor.Y+dy),
		Width:  math.Abs(dx),
		Height: math.Abs(dy),
	}, true
}

// commit runs a mutation and pushes the pre-action snapshot when it succeeds.
// Degenerate results are discarded without touching history.
func (c *Controller) commit(mutate func() error) Outcome {
	pre := c.scene.Snapshot()
	if err := mutate(); err != nil {
		if !errors.Is(err, scene.ErrDegenerate) {
			c.logger.Warn("interaction commit failed", "tool", c.tool, "error", err)
		}
		return Outcome{}
	}
	c.history.Commit(pre)
	return Outcome{Changed: true, Committed: true}
}

func (c *Controller) otherBounds() []models.Rect {
	shapes := c.scene.Shapes()
	out := make([]models.Rect, 0, len(shapes))
	for _, sh := range shapes {
		if sh.ID != c.moveID {
			out = append(out, sh.Bounds())
		}
	}
	return out
}

func (c *Controller) color(fallback string) string {
	if c.options.Color != "" {
		return c.options.Color
	}
	return fallback
}

func (c *Controller) reset() {
	c.state = idle
	c.moveID = ""
	c.guides = nil
	c.points = nil
	c.erasePre = models.HistoryEntry{}
	c.erasedAny = false
}

// Preview describes the in-progress gesture for rendering.
func (c *Controller) Preview() Preview {
	pv := Preview{Tool: c.tool, Gesture: string(c.state)}
	switch c.state {
	case moving:
		r := c.current
		pv.ShapeID = c.moveID
		pv.Rect = &r
		pv.Guides = append([]snap.Guide(nil), c.guides...)
	case drawing:
		pv.PathData = geometry.PathData(c.points)
	case sizing:
		if r, ok := c.sizedRect(); ok {
			pv.Rect = &r
		}
	}
	return pv
}
