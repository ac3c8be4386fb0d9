// Package snap implements magnet alignment for dragged shapes.
// X and Y snap independently against the edges and centers of every other
// shape and of the page region.
package snap

import (
	"math"

	"github.com/wedding-planner/backend/internal/models"
)

// DefaultThreshold is the snap distance in world pixels.
const DefaultThreshold = 8.0

// Orientation of a guide line.
const (
	Vertical   = "vertical"
	Horizontal = "horizontal"
)

// Guide is an alignment line that fired during a snap.
type Guide struct {
	Orientation string  `json:"orientation"`
	Position    float64 `json:"position"`
}

// Result is the outcome of snapping one drag position.
type Result struct {
	Rect     models.Rect `json:"rect"`
	SnappedX bool        `json:"snappedX"`
	SnappedY bool        `json:"snappedY"`
	Guides   []Guide     `json:"guides,omitempty"`
}

// Candidates collects left/center/right X values and top/middle/bottom Y
// values from the given rectangles plus the page edges and center.
func Candidates(others []models.Rect, page models.Rect) (xs, ys []float64) {
	rects := append([]models.Rect{page}, others...)
	xs = make([]float64, 0, len(rects)*3)
	ys = make([]float64, 0, len(rects)*3)
	for _, r := range rects {
		xs = append(xs, r.X, r.X+r.Width/2, r.Right())
		ys = append(ys, r.Y, r.Y+r.Height/2, r.Bottom())
	}
	return xs, ys
}

// Apply snaps moving against others and page. When nothing lies within
// threshold on an axis, that axis keeps the pointer-derived position.
func Apply(moving models.Rect, others []models.Rect, page models.Rect, threshold float64) Result {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	xs, ys := Candidates(others, page)
	res := Result{Rect: moving}

	own := []float64{moving.X, moving.X + moving.Width/2, moving.Right()}
	if delta, at, ok := nearest(own, xs, threshold); ok {
		res.Rect.X += delta
		res.SnappedX = true
		res.Guides = append(res.Guides, Guide{Orientation: Vertical, Position: at})
	}

	own = []float64{moving.Y, moving.Y + moving.Height/2, moving.Bottom()}
	if delta, at, ok := nearest(own, ys, threshold); ok {
		res.Rect.Y += delta
		res.SnappedY = true
		res.Guides = append(res.Guides, Guide{Orientation: Horizontal, Position: at})
	}
	return res
}

// nearest finds the smallest candidate-minus-own offset within threshold.
func nearest(own, candidates []float64, threshold float64) (delta, at float64, ok bool) {
	best := math.Inf(1)
	for _, o := range own {
		for _, c := range candidates {
			d := c - o
			if ad := math.Abs(d); ad <= threshold && ad < best {
				best = ad
				delta, at, ok = d, c, true
			}
		}
	}
	return delta, at, ok
}
