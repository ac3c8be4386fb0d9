// Package scale decides which pixels-per-meter value applies when a
// real-world-sized object is placed.
//
// Priority: an explicitly targeted Space, then the current Space, then the
// imported wall layout. Wall scale is read from the per-wall cache first and
// derived from wall metadata only on a miss.
package scale

import (
	"math"

	"github.com/wedding-planner/backend/internal/geometry"
	"github.com/wedding-planner/backend/internal/models"
)

// Kind names where a resolution came from.
type Kind string

const (
	FromSpace Kind = "space"
	FromWalls Kind = "walls"
)

// Source is the read side of the scene the resolver needs, plus the single
// write it performs: caching a freshly derived wall scale.
type Source interface {
	Walls() []models.Wall
	Space(id string) (models.Shape, bool)
	CurrentSpaceID() string
	CacheWallScale(pixelsPerMeter float64)
}

// Resolution is an effective scale and the region objects are centred in.
type Resolution struct {
	PixelsPerMeter float64     `json:"pixelsPerMeter"`
	Reference      models.Rect `json:"referenceBounds"`
	Source         Kind        `json:"source"`
	SpaceID        string      `json:"spaceId,omitempty"`
}

// Attachment returns the AttachedSpaceID to record on a placed shape.
func (r Resolution) Attachment() string {
	if r.Source == FromSpace {
		return r.SpaceID
	}
	return models.WallLayoutAttachment
}

// Resolver resolves scale for a scene.
type Resolver struct {
	UnitsPerMeter float64
}

// NewResolver creates a resolver for the given design-unit convention.
func NewResolver(unitsPerMeter float64) *Resolver {
	if unitsPerMeter <= 0 {
		unitsPerMeter = geometry.DefaultUnitsPerMeter
	}
	return &Resolver{UnitsPerMeter: unitsPerMeter}
}

// Resolve returns the effective scale. targetSpaceID is preferred when it
// names an existing Space; a dangling id is treated as absent.
// ok is false when neither a Space nor a derivable wall scale exists.
func (r *Resolver) Resolve(src Source, targetSpaceID string) (Resolution, bool) {
	if targetSpaceID != "" && targetSpaceID != models.WallLayoutAttachment {
		if res, ok := r.fromSpace(src, targetSpaceID); ok {
			return res, true
		}
	}
	if id := src.CurrentSpaceID(); id != "" {
		if res, ok := r.fromSpace(src, id); ok {
			return res, true
		}
	}
	return r.fromWalls(src)
}

// SpaceScale returns a Space's pixels-per-meter: the cached value when set,
// otherwise the tighter of the two axis ratios.
func SpaceScale(s models.Shape) (float64, bool) {
	if s.Space == nil {
		return 0, false
	}
	if ppm := s.Space.PixelsPerMeter; ppm > 0 && geometry.Finite(ppm) {
		return ppm, true
	}
	if s.Space.MetersWidth <= 0 || s.Space.MetersHeight <= 0 {
		return 0, false
	}
	ppm := math.Min(s.Width/s.Space.MetersWidth, s.Height/s.Space.MetersHeight)
	if ppm <= 0 || !geometry.Finite(ppm) {
		return 0, false
	}
	return ppm, true
}

func (r *Resolver) fromSpace(src Source, id string) (Resolution, bool) {
	s, ok := src.Space(id)
	if !ok {
		return Resolution{}, false
	}
	ppm, ok := SpaceScale(s)
	if !ok {
		return Resolution{}, false
	}
	return Resolution{
		PixelsPerMeter: ppm,
		Reference:      s.Bounds(),
		Source:         FromSpace,
		SpaceID:        s.ID,
	}, true
}

func (r *Resolver) fromWalls(src Source) (Resolution, bool) {
	walls := src.Walls()
	bounds, ok := geometry.BoundingBox(walls)
	if !ok {
		return Resolution{}, false
	}

	ppm := 0.0
	for _, w := range walls {
		if w.DerivedScale > 0 && geometry.Finite(w.DerivedScale) {
			ppm = w.DerivedScale
			break
		}
	}
	if ppm == 0 {
		derived, ok := geometry.DeriveScale(walls, r.UnitsPerMeter)
		if !ok {
			return Resolution{}, false
		}
		ppm = derived
		src.CacheWallScale(ppm)
	}

	return Resolution{
		PixelsPerMeter: ppm,
		Reference:      bounds.Rect(),
		Source:         FromWalls,
	}, true
}
