package engine

import "github.com/wedding-planner/backend/internal/models"

// Viewport returns the current viewport window.
func (e *Engine) Viewport() models.Rect {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view.Window()
}

// ZoomPercent returns the current zoom level.
func (e *Engine) ZoomPercent() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view.ZoomPercent()
}

// ZoomIn zooms in one step around focus (world coordinates), or the centre.
func (e *Engine) ZoomIn(focus *models.Point) float64 {
	return e.zoom(func() { e.view.ZoomIn(focus) })
}

// ZoomOut zooms out one step around focus, or the centre.
func (e *Engine) ZoomOut(focus *models.Point) float64 {
	return e.zoom(func() { e.view.ZoomOut(focus) })
}

// ZoomReset returns to the initial 100% window.
func (e *Engine) ZoomReset() float64 {
	return e.zoom(e.view.Reset)
}

// FitToPage frames the page region with padding.
func (e *Engine) FitToPage() float64 {
	return e.zoom(func() { e.view.FitToPage() })
}

// FitToExtents frames the given world points. It returns false when no
// point is usable, leaving the viewport unchanged.
func (e *Engine) FitToExtents(points []models.Point) bool {
	ok := false
	e.zoom(func() { ok = e.view.FitToExtents(points) })
	return ok
}

func (e *Engine) zoom(fn func()) float64 {
	e.mu.Lock()
	if e.closed {
		defer e.mu.Unlock()
		return e.view.ZoomPercent()
	}
	before := e.view.Window()
	fn()
	pct := e.view.ZoomPercent()
	var ch Change
	if e.view.Window() != before {
		ch = e.change(ChangeViewport)
	}
	e.mu.Unlock()
	e.emit(ch)
	return pct
}

// FitToContent frames every wall, shape, stroke and text in the scene.
func (e *Engine) FitToContent() bool {
	ok := false
	e.zoom(func() { ok = e.view.FitToExtents(e.scene.ContentPoints()) })
	return ok
}
