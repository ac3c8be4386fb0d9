package scene

import (
	"math"

	"github.com/wedding-planner/backend/internal/geometry"
	"github.com/wedding-planner/backend/internal/models"
)

// ImportResult describes what an import appended to the scene.
type ImportResult struct {
	Walls          []models.Wall  `json:"walls"`
	Doors          []models.Door  `json:"doors"`
	Scale          float64        `json:"scale"`
	PixelsPerMeter float64        `json:"pixelsPerMeter,omitempty"`
	RejectedWalls  int            `json:"rejectedWalls"`
	DroppedDoors   int            `json:"droppedDoors"`
	Points         []models.Point `json:"-"`
}

// ValidWall reports whether a wall is structurally usable: finite
// coordinates, positive thickness and distinct endpoints.
func ValidWall(w models.Wall) bool {
	if !geometry.Finite(w.StartX, w.StartY, w.EndX, w.EndY, w.Thickness) {
		return false
	}
	if w.Thickness <= 0 {
		return false
	}
	return w.StartX != w.EndX || w.StartY != w.EndY
}

// ImportWalls fits a wall layout into the page interior and appends it.
// The layout's bounding-box centre is mapped to the page centre and scaled
// uniformly so it fits the page minus the import padding. Door ids are
// regenerated. A door whose wall is not part of the batch keeps its
// reference unchanged and is treated as unattached; only doors with
// non-finite position or width are dropped.
func (s *Scene) ImportWalls(walls []models.Wall, doors []models.Door) (ImportResult, error) {
	var res ImportResult

	valid := make([]models.Wall, 0, len(walls))
	for _, w := range walls {
		if ValidWall(w) {
			valid = append(valid, w)
		} else {
			res.RejectedWalls++
		}
	}
	if res.RejectedWalls > 0 {
		s.logger.Warn("rejected structurally invalid walls", "count", res.RejectedWalls)
	}

	bounds, ok := geometry.BoundingBox(valid)
	if !ok {
		return res, ErrEmptyLayout
	}

	avail := s.page.Inset(s.opts.ImportPadding)
	if !avail.Valid() {
		avail = s.page
	}
	factor := geometry.FitScale(bounds.Width(), bounds.Height(), avail.Width, avail.Height)
	if factor <= 0 || !geometry.Finite(factor) {
		return res, ErrDegenerate
	}

	center := bounds.Center()
	target := s.page.Center()
	place := func(x, y float64) models.Point {
		p := models.Point{X: x - center.X + target.X, Y: y - center.Y + target.Y}
		return geometry.ScaleAbout(p, target, factor)
	}

	ids := make(map[string]string, len(valid))
	imported := make([]models.Wall, 0, len(valid))
	var measured []models.Wall // walls whose length came from the wall maker
	for _, w := range valid {
		out := w
		hinted := out.OriginalLengthUnits > 0 && geometry.Finite(out.OriginalLengthUnits)
		if !hinted {
			out.OriginalLengthUnits = geometry.WallLength(w)
		}
		start := place(w.StartX, w.StartY)
		end := place(w.EndX, w.EndY)
		out.StartX, out.StartY = start.X, start.Y
		out.EndX, out.EndY = end.X, end.Y
		out.Thickness = w.Thickness * factor
		out.DerivedScale = 0
		out.ID = newID()
		if w.ID != "" {
			ids[w.ID] = out.ID
		}
		imported = append(imported, out)
		if hinted {
			measured = append(measured, out)
		}
		res.Points = append(res.Points, start, end)
	}

	ppm, ok := geometry.DeriveScale(measured, s.opts.UnitsPerMeter)
	if !ok {
		ppm, ok = geometry.DeriveScale(imported, s.opts.UnitsPerMeter)
	}
	if ok {
		for i := range imported {
			imported[i].DerivedScale = ppm
		}
		res.PixelsPerMeter = ppm
	}

	importedDoors := make([]models.Door, 0, len(doors))
	unattached := 0
	for _, d := range doors {
		if !geometry.Finite(d.Position, d.Width) {
			res.DroppedDoors++
			continue
		}
		if wallID, ok := ids[d.WallID]; ok {
			d.WallID = wallID
		} else {
			unattached++
		}
		d.ID = newID()
		d.Position = math.Min(math.Max(d.Position, 0), 1)
		d.Width = math.Abs(d.Width) * factor
		importedDoors = append(importedDoors, d)
	}
	if res.DroppedDoors > 0 {
		s.logger.Warn("dropped doors with invalid geometry", "count", res.DroppedDoors)
	}
	if unattached > 0 {
		s.logger.Warn("imported doors referencing walls outside the layout", "count", unattached)
	}

	s.walls = append(s.walls, imported...)
	s.doors = append(s.doors, importedDoors...)

	res.Walls = imported
	res.Doors = importedDoors
	res.Scale = factor
	return res, nil
}
