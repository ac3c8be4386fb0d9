// Package viewport manages the world-space window shown on the drawing
// surface: percentage zoom against a session-fixed baseline, pan, and the
// fit-to-page / fit-to-extents framings.
package viewport

import (
	"math"

	"github.com/wedding-planner/backend/internal/geometry"
	"github.com/wedding-planner/backend/internal/models"
)

// Options tunes zoom and framing.
type Options struct {
	StepFactor          float64 // zoomIn multiplies, zoomOut divides
	MinPercent          float64
	MaxPercent          float64
	PagePadding         float64 // world px around the page for FitToPage
	ExtentsPadding      float64 // minimum world px around FitToExtents content
	ExtentsPaddingRatio float64 // fraction of the larger extent used when bigger
}

// DefaultOptions returns the stock zoom behaviour.
func DefaultOptions() Options {
	return Options{
		StepFactor:          1.2,
		MinPercent:          10,
		MaxPercent:          400,
		PagePadding:         20,
		ExtentsPadding:      40,
		ExtentsPaddingRatio: 0.15,
	}
}

// Controller owns the viewport window.
type Controller struct {
	window   models.Rect
	initial  models.Rect
	page     models.Rect
	baseline float64
	opts     Options
}

// NewController starts at initial, which also fixes the 100% baseline width.
func NewController(initial, page models.Rect, opts Options) *Controller {
	def := DefaultOptions()
	if opts.StepFactor <= 1 {
		opts.StepFactor = def.StepFactor
	}
	if opts.MinPercent <= 0 {
		opts.MinPercent = def.MinPercent
	}
	if opts.MaxPercent < opts.MinPercent {
		opts.MaxPercent = def.MaxPercent
	}
	if opts.ExtentsPaddingRatio <= 0 {
		opts.ExtentsPaddingRatio = def.ExtentsPaddingRatio
	}
	return &Controller{
		window:   initial,
		initial:  initial,
		page:     page,
		baseline: initial.Width,
		opts:     opts,
	}
}

// Window returns the current viewport window.
func (c *Controller) Window() models.Rect { return c.window }

// SetWindow replaces the window, ignoring degenerate rectangles.
func (c *Controller) SetWindow(r models.Rect) bool {
	if !r.Valid() || !geometry.Finite(r.X, r.Y, r.Width, r.Height) {
		return false
	}
	c.window = r
	return true
}

// ZoomPercent is the baseline width over the current width, as a percentage.
func (c *Controller) ZoomPercent() float64 {
	return c.baseline / c.window.Width * 100
}

// ZoomIn zooms by one step around focus (or the window center when nil).
func (c *Controller) ZoomIn(focus *models.Point) float64 {
	return c.SetZoom(c.ZoomPercent()*c.opts.StepFactor, focus)
}

// ZoomOut zooms out by one step around focus (or the window center when nil).
func (c *Controller) ZoomOut(focus *models.Point) float64 {
	return c.SetZoom(c.ZoomPercent()/c.opts.StepFactor, focus)
}

// SetZoom sets an absolute percentage, clamped, keeping focus fixed on screen.
func (c *Controller) SetZoom(percent float64, focus *models.Point) float64 {
	percent = c.clamp(percent)
	f := c.window.Center()
	if focus != nil {
		f = *focus
	}

	width := c.baseline * 100 / percent
	height := c.window.Height * width / c.window.Width
	rx := (f.X - c.window.X) / c.window.Width
	ry := (f.Y - c.window.Y) / c.window.Height

	c.window = models.Rect{
		X:      f.X - rx*width,
		Y:      f.Y - ry*height,
		Width:  width,
		Height: height,
	}
	return percent
}

// Reset restores the initial window (100%).
func (c *Controller) Reset() {
	c.window = c.initial
}

// Pan shifts the window by a world-space delta.
func (c *Controller) Pan(dx, dy float64) {
	c.window.X += dx
	c.window.Y += dy
}

// FitToPage frames the page region plus padding, regardless of zoom history.
func (c *Controller) FitToPage() models.Rect {
	c.window = c.withinZoomBounds(c.page.Inset(-c.opts.PagePadding))
	return c.window
}

// FitToExtents frames every point with generous padding. A point set too
// small or too large for the zoom bounds is framed at the nearest bound,
// centred on the points.
// It returns false and leaves the window alone when no point is finite.
func (c *Controller) FitToExtents(points []models.Point) bool {
	b, ok := geometry.BoundsOfPoints(points)
	if !ok {
		return false
	}
	pad := math.Max(c.opts.ExtentsPadding, c.opts.ExtentsPaddingRatio*math.Max(b.Width(), b.Height()))
	r := b.Rect().Inset(-pad)
	if !r.Valid() {
		return false
	}
	c.window = c.withinZoomBounds(r)
	return true
}

// withinZoomBounds resizes r about its centre, keeping its aspect ratio, so
// that its zoom percentage lies in [MinPercent, MaxPercent].
func (c *Controller) withinZoomBounds(r models.Rect) models.Rect {
	pct := c.baseline / r.Width * 100
	clamped := c.clamp(pct)
	if clamped == pct {
		return r
	}
	center := r.Center()
	width := c.baseline * 100 / clamped
	height := r.Height * width / r.Width
	return models.Rect{
		X:      center.X - width/2,
		Y:      center.Y - height/2,
		Width:  width,
		Height: height,
	}
}

func (c *Controller) clamp(p float64) float64 {
	return math.Max(c.opts.MinPercent, math.Min(c.opts.MaxPercent, p))
}
