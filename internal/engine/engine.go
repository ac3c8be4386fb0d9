// Package engine is the canvas engine facade: it wires the scene model,
// history, viewport and interaction controller behind one lock and exposes
// the command surface used by the application shell.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wedding-planner/backend/internal/history"
	"github.com/wedding-planner/backend/internal/interaction"
	"github.com/wedding-planner/backend/internal/models"
	"github.com/wedding-planner/backend/internal/scene"
	"github.com/wedding-planner/backend/internal/viewport"
)

// ErrStale is reported by a pending placement whose scene was replaced
// before its image finished loading.
var ErrStale = errors.New("scene replaced while placement was pending")

// ErrClosed is returned by commands issued after the session was closed.
var ErrClosed = errors.New("editing session closed")

// Prober reports the natural pixel size of an image reference.
type Prober interface {
	Probe(ctx context.Context, ref string) (width, height int, err error)
}

// ChangeKind classifies a change notification.
type ChangeKind string

const (
	// ChangeScene follows every committed content mutation.
	ChangeScene ChangeKind = "scene"
	// ChangeViewport follows pan and zoom.
	ChangeViewport ChangeKind = "viewport"
	// ChangePreview follows in-progress gesture updates.
	ChangePreview ChangeKind = "preview"
	// ChangeClosed is sent once when the engine stops accepting commands.
	ChangeClosed ChangeKind = "closed"
)

// Change is delivered to listeners after the engine state changed.
type Change struct {
	Kind      ChangeKind
	ProjectID string
	Revision  int64
	Document  models.SceneDocument
	Preview   interaction.Preview
}

// Listener receives change notifications.
type Listener func(Change)

// Engine is one project's editing session.
type Engine struct {
	mu sync.Mutex

	projectID string
	cfg       Config
	logger    *slog.Logger
	prober    Prober
	listeners []Listener
	seed      *models.SceneDocument

	scene   *scene.Scene
	history *history.Manager
	view    *viewport.Controller
	ctrl    *interaction.Controller

	revision   int64
	updatedAt  time.Time
	generation int64
	pending    sync.WaitGroup
	closed     bool
}

// New creates an engine for projectID.
func New(projectID string, cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if !cfg.Screen.Valid() {
		cfg.Screen = def.Screen
	}
	if cfg.ImageTimeout <= 0 {
		cfg.ImageTimeout = def.ImageTimeout
	}

	e := &Engine{
		projectID: projectID,
		cfg:       cfg,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("project", projectID)

	page := scene.NewPageRegion(cfg.Screen.Width, cfg.Screen.Height, cfg.PageAspect, cfg.PageMargin)
	page.X += cfg.Screen.X
	page.Y += cfg.Screen.Y
	e.scene = scene.New(page, cfg.Scene, e.logger)
	e.history = history.NewManager(cfg.HistoryLimit)
	e.build(cfg.Screen)

	if e.seed != nil {
		e.load(*e.seed)
		e.seed = nil
	}
	return e
}

// build creates the viewport and controller around the current page.
func (e *Engine) build(initial models.Rect) {
	e.view = viewport.NewController(initial, e.scene.Page(), e.cfg.Viewport)
	e.ctrl = interaction.NewController(e.scene, e.history, e.view, e.cfg.Screen, e.cfg.Interaction, e.logger)
}

// ProjectID returns the project this engine edits.
func (e *Engine) ProjectID() string { return e.projectID }

// Revision returns the number of committed changes.
func (e *Engine) Revision() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revision
}

// Document returns the persistence snapshot of the session.
func (e *Engine) Document() models.SceneDocument {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.document()
}

func (e *Engine) document() models.SceneDocument {
	doc := e.scene.Document(e.projectID, e.view.Window())
	doc.Revision = e.revision
	doc.UpdatedAt = e.updatedAt
	return doc
}

// Load replaces the session with a stored document. History is cleared and
// pending furniture placements become stale.
func (e *Engine) Load(doc models.SceneDocument) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.load(doc)
	ch := e.change(ChangeScene)
	e.mu.Unlock()
	e.emit(ch)
}

func (e *Engine) load(doc models.SceneDocument) {
	e.ctrl.Finish()
	e.scene.Load(doc)
	e.history.Reset()
	e.generation++
	window := e.cfg.Screen
	if doc.Viewport.Valid() {
		window = doc.Viewport
	}
	e.build(e.cfg.Screen)
	e.view.SetWindow(window)
	e.revision = doc.Revision
	e.updatedAt = doc.UpdatedAt
}

// change bumps the revision for content and viewport changes and captures
// the document for listeners. Must be called with e.mu held.
func (e *Engine) change(kind ChangeKind) Change {
	ch := Change{Kind: kind, ProjectID: e.projectID}
	switch kind {
	case ChangeScene, ChangeViewport:
		e.revision++
		e.updatedAt = time.Now().UTC()
		ch.Document = e.document()
	case ChangePreview:
		ch.Preview = e.ctrl.Preview()
	}
	ch.Revision = e.revision
	return ch
}

func (e *Engine) emit(changes ...Change) {
	for _, ch := range changes {
		if ch.Kind == "" {
			continue
		}
		for _, l := range e.listeners {
			l(ch)
		}
	}
}

// apply runs a mutation that should push one history entry. Any in-progress
// gesture is finished first.
func (e *Engine) apply(name string, mutate func() error) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return fmt.Errorf("%s: %w", name, ErrClosed)
	}
	var changes []Change
	if out := e.ctrl.Finish(); out.Changed {
		changes = append(changes, e.change(ChangeScene))
	}
	pre := e.scene.Snapshot()
	err := mutate()
	if err == nil {
		e.history.Commit(pre)
		changes = append(changes, e.change(ChangeScene))
	}
	e.mu.Unlock()

	e.emit(changes...)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// AddSpace creates a Space of the given real-world size and makes it current.
func (e *Engine) AddSpace(widthMeters, heightMeters float64) (models.Shape, error) {
	var sp models.Shape
	err := e.apply("add space", func() error {
		var err error
		sp, err = e.scene.AddSpace(widthMeters, heightMeters)
		return err
	})
	if err == nil {
		e.logger.Info("space added", "id", sp.ID, "ppm", sp.Space.PixelsPerMeter)
	}
	return sp, err
}

// ImportWalls fits a wall layout onto the page, appends it and frames it.
func (e *Engine) ImportWalls(walls []models.Wall, doors []models.Door) (scene.ImportResult, error) {
	var res scene.ImportResult
	err := e.apply("import walls", func() error {
		var err error
		res, err = e.scene.ImportWalls(walls, doors)
		if err == nil {
			e.view.FitToExtents(res.Points)
		}
		return err
	})
	if err != nil {
		e.logger.Warn("wall import rejected", "walls", len(walls), "error", err)
		return res, err
	}
	e.logger.Info("walls imported",
		"walls", len(res.Walls), "doors", len(res.Doors),
		"scale", res.Scale, "ppm", res.PixelsPerMeter)
	return res, nil
}

// RemoveWall deletes a wall and its doors.
func (e *Engine) RemoveWall(id string) (int, error) {
	var n int
	err := e.apply("remove wall", func() error {
		var err error
		n, err = e.scene.RemoveWall(id)
		return err
	})
	return n, err
}

// RemoveShape deletes a shape or Space.
func (e *Engine) RemoveShape(id string) error {
	return e.apply("remove shape", func() error {
		return e.scene.RemoveShape(id)
	})
}

// RemoveText deletes a text element.
func (e *Engine) RemoveText(id string) error {
	return e.apply("remove text", func() error {
		return e.scene.RemoveText(id)
	})
}

// Undo restores the state before the last committed action.
func (e *Engine) Undo() bool {
	return e.step(e.history.Undo)
}

// Redo re-applies the last undone action.
func (e *Engine) Redo() bool {
	return e.step(e.history.Redo)
}

func (e *Engine) step(move func(models.HistoryEntry) (models.HistoryEntry, bool)) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	var changes []Change
	if out := e.ctrl.Finish(); out.Changed {
		changes = append(changes, e.change(ChangeScene))
	}
	entry, ok := move(e.scene.Snapshot())
	if ok {
		e.scene.Restore(entry)
		changes = append(changes, e.change(ChangeScene))
	}
	e.mu.Unlock()
	e.emit(changes...)
	return ok
}

// CanUndo reports whether Undo would do anything.
func (e *Engine) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether Redo would do anything.
func (e *Engine) CanRedo() bool { return e.history.CanRedo() }

// Page returns the fixed page region.
func (e *Engine) Page() models.Rect {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene.Page()
}

// Wait blocks until every pending furniture placement has settled.
func (e *Engine) Wait() {
	e.pending.Wait()
}

// Close commits any in-progress gesture and stops the engine accepting
// commands. Placements already waiting for their image still land so a
// following flush persists them. Listeners get one ChangeClosed notification.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	var changes []Change
	if out := e.ctrl.Finish(); out.Changed {
		changes = append(changes, e.change(ChangeScene))
	}
	e.closed = true
	changes = append(changes, Change{Kind: ChangeClosed, ProjectID: e.projectID, Revision: e.revision})
	e.mu.Unlock()
	e.emit(changes...)
}

// Closed reports whether Close was called.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
