// Package models contains domain types for the wedding floor-plan designer.
package models

// Point is a position in world (canvas pixel) space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in world space.
// Used for the viewport window, the page region and shape bounds.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Right returns the maximum X edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the maximum Y edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// ContainsRect reports whether other lies entirely inside r (edges inclusive).
func (r Rect) ContainsRect(other Rect) bool {
	return other.X >= r.X && other.Y >= r.Y &&
		other.Right() <= r.Right() && other.Bottom() <= r.Bottom()
}

// ContainsPoint reports whether p lies inside r (edges inclusive).
func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Inset shrinks the rectangle by pad on every side.
func (r Rect) Inset(pad float64) Rect {
	return Rect{X: r.X + pad, Y: r.Y + pad, Width: r.Width - 2*pad, Height: r.Height - 2*pad}
}

// Valid reports whether both dimensions are positive.
func (r Rect) Valid() bool {
	return r.Width > 0 && r.Height > 0
}
