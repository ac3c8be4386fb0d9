// Package geometry holds the pure coordinate and scale math behind the
// floor-plan canvas: wall bounds, pixels-per-meter derivation, uniform
// fit scaling and screen/world mapping.
package geometry

import (
	"math"

	"github.com/wedding-planner/backend/internal/models"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultUnitsPerMeter is the wall maker's design-unit convention.
const DefaultUnitsPerMeter = 100.0

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

func (b Bounds) Width() float64  { return b.MaxX - b.MinX }
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Center returns the midpoint of the box.
func (b Bounds) Center() models.Point {
	return models.Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// Rect converts the box to an x/y/width/height rectangle.
func (b Bounds) Rect() models.Rect {
	return models.Rect{X: b.MinX, Y: b.MinY, Width: b.Width(), Height: b.Height()}
}

// BoundsOfRect converts a rectangle to a bounding box.
func BoundsOfRect(r models.Rect) Bounds {
	return Bounds{MinX: r.X, MinY: r.Y, MaxX: r.Right(), MaxY: r.Bottom()}
}

// Finite reports whether every value is a finite number.
func Finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// BoundingBox returns the bounds of every finite wall endpoint.
// ok is false when walls is empty or no endpoint is finite.
func BoundingBox(walls []models.Wall) (Bounds, bool) {
	pts := make([]models.Point, 0, len(walls)*2)
	for _, w := range walls {
		pts = append(pts, w.Start(), w.End())
	}
	return BoundsOfPoints(pts)
}

// BoundsOfPoints returns the bounds of the finite points in pts.
func BoundsOfPoints(pts []models.Point) (Bounds, bool) {
	b := Bounds{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	found := false
	for _, p := range pts {
		if !Finite(p.X, p.Y) {
			continue
		}
		found = true
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	if !found {
		return Bounds{}, false
	}
	return b, true
}

// WallLength returns the current pixel length of a wall.
func WallLength(w models.Wall) float64 {
	return Distance(w.Start(), w.End())
}

// Distance returns the euclidean distance between two points.
func Distance(a, b models.Point) float64 {
	return r2.Norm(r2.Sub(vec(b), vec(a)))
}

// DeriveScale returns the layout's pixels-per-meter from the first wall that
// carries a usable original length. ok is false when no wall qualifies.
func DeriveScale(walls []models.Wall, unitsPerMeter float64) (float64, bool) {
	if unitsPerMeter <= 0 {
		unitsPerMeter = DefaultUnitsPerMeter
	}
	for _, w := range walls {
		if w.OriginalLengthUnits <= 0 || !Finite(w.OriginalLengthUnits) {
			continue
		}
		length := WallLength(w)
		if length <= 0 || !Finite(length) {
			continue
		}
		meters := w.OriginalLengthUnits / unitsPerMeter
		return length / meters, true
	}
	return 0, false
}

// FitScale returns the uniform factor that makes content fit entirely
// inside the available area. The binding axis is picked by aspect ratio.
func FitScale(contentWidth, contentHeight, availableWidth, availableHeight float64) float64 {
	if availableWidth <= 0 || availableHeight <= 0 {
		return 1
	}
	switch {
	case contentWidth <= 0 && contentHeight <= 0:
		return 1
	case contentHeight <= 0:
		return availableWidth / contentWidth
	case contentWidth <= 0:
		return availableHeight / contentHeight
	}
	if contentWidth/contentHeight > availableWidth/availableHeight {
		return availableWidth / contentWidth
	}
	return availableHeight / contentHeight
}

// ScaleAbout scales p by factor around center.
func ScaleAbout(p, center models.Point, factor float64) models.Point {
	return point(r2.Add(vec(center), r2.Scale(factor, r2.Sub(vec(p), vec(center)))))
}

// ScreenToWorld maps a screen position inside screen onto the viewport window.
func ScreenToWorld(p models.Point, viewport, screen models.Rect) models.Point {
	return models.Point{
		X: viewport.X + (p.X-screen.X)*viewport.Width/screen.Width,
		Y: viewport.Y + (p.Y-screen.Y)*viewport.Height/screen.Height,
	}
}

// WorldToScreen is the inverse of ScreenToWorld.
func WorldToScreen(p models.Point, viewport, screen models.Rect) models.Point {
	return models.Point{
		X: screen.X + (p.X-viewport.X)*screen.Width/viewport.Width,
		Y: screen.Y + (p.Y-viewport.Y)*screen.Height/viewport.Height,
	}
}

func vec(p models.Point) r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

func point(v r2.Vec) models.Point { return models.Point{X: v.X, Y: v.Y} }
