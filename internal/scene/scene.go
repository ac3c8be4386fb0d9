// Package scene is the floor-plan Scene Model: it owns walls, doors, shapes,
// strokes, text and point annotations, and is the single mutation entry point
// for each of them. A Scene is not safe for concurrent use; the engine
// serialises access.
package scene

import (
	"errors"
	"log/slog"
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/wedding-planner/backend/internal/geometry"
	"github.com/wedding-planner/backend/internal/models"
	"github.com/wedding-planner/backend/internal/scale"
)

var (
	// ErrEmptyLayout is returned when an import carries no usable wall.
	ErrEmptyLayout = errors.New("wall layout is empty")
	// ErrNotFound is returned when an entity id does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrDegenerate is returned for zero-length or zero-area geometry.
	ErrDegenerate = errors.New("degenerate geometry")
)

// Options carries the scene's sizing constants.
type Options struct {
	UnitsPerMeter          float64
	ImportPadding          float64
	DefaultFurniturePixels float64
	MinShapeSize           float64
}

// DefaultOptions returns the standard sizing constants.
func DefaultOptions() Options {
	return Options{
		UnitsPerMeter:          geometry.DefaultUnitsPerMeter,
		ImportPadding:          40,
		DefaultFurniturePixels: 200,
		MinShapeSize:           5,
	}
}

// NewPageRegion fits a page of the given aspect ratio (width/height) into a
// screen of screenWidth x screenHeight minus margin on every side, centred.
func NewPageRegion(screenWidth, screenHeight, aspect, margin float64) models.Rect {
	availW := math.Max(screenWidth-2*margin, 1)
	availH := math.Max(screenHeight-2*margin, 1)
	if aspect <= 0 || !geometry.Finite(aspect) {
		aspect = availW / availH
	}
	w, h := availW, availW/aspect
	if h > availH {
		h = availH
		w = availH * aspect
	}
	return models.Rect{
		X:      (screenWidth - w) / 2,
		Y:      (screenHeight - h) / 2,
		Width:  w,
		Height: h,
	}
}

// Scene holds the authored content of one floor plan.
type Scene struct {
	opts     Options
	page     models.Rect
	resolver *scale.Resolver
	logger   *slog.Logger

	walls       []models.Wall
	doors       []models.Door
	shapes      []models.Shape
	strokes     []models.Stroke
	texts       []models.TextElement
	annotations []models.PointAnnotation

	currentSpaceID string
}

// New creates an empty scene over the given page region.
func New(page models.Rect, opts Options, logger *slog.Logger) *Scene {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultOptions()
	if opts.UnitsPerMeter <= 0 {
		opts.UnitsPerMeter = def.UnitsPerMeter
	}
	if opts.DefaultFurniturePixels <= 0 {
		opts.DefaultFurniturePixels = def.DefaultFurniturePixels
	}
	if opts.MinShapeSize <= 0 {
		opts.MinShapeSize = def.MinShapeSize
	}
	if opts.ImportPadding < 0 {
		opts.ImportPadding = 0
	}
	return &Scene{
		opts:     opts,
		page:     page,
		resolver: scale.NewResolver(opts.UnitsPerMeter),
		logger:   logger,
	}
}

func newID() string { return uuid.NewString() }

// Page returns the fixed page region.
func (s *Scene) Page() models.Rect { return s.page }

// Options returns the sizing constants in effect.
func (s *Scene) Options() Options { return s.opts }

// Walls returns the wall list. Callers must not modify it.
func (s *Scene) Walls() []models.Wall { return s.walls }

// Doors returns a copy of the doors.
func (s *Scene) Doors() []models.Door { return slices.Clone(s.doors) }

// Shapes returns a deep copy of the shapes.
func (s *Scene) Shapes() []models.Shape { return models.CloneShapes(s.shapes) }

// Strokes returns a deep copy of the strokes.
func (s *Scene) Strokes() []models.Stroke { return models.CloneStrokes(s.strokes) }

// Texts returns a copy of the text elements.
func (s *Scene) Texts() []models.TextElement { return slices.Clone(s.texts) }

// CurrentSpaceID returns the id of the current Space, or "".
func (s *Scene) CurrentSpaceID() string { return s.currentSpaceID }

// Space returns the Space with the given id.
func (s *Scene) Space(id string) (models.Shape, bool) {
	i := s.shapeIndex(id)
	if i < 0 || !s.shapes[i].IsSpace() {
		return models.Shape{}, false
	}
	return s.shapes[i], true
}

// CacheWallScale stores a derived pixels-per-meter on every wall.
func (s *Scene) CacheWallScale(ppm float64) {
	for i := range s.walls {
		s.walls[i].DerivedScale = ppm
	}
}

// ResolveScale returns the effective scale for a placement.
func (s *Scene) ResolveScale(targetSpaceID string) (scale.Resolution, bool) {
	return s.resolver.Resolve(s, targetSpaceID)
}

// Shape returns the shape with the given id.
func (s *Scene) Shape(id string) (models.Shape, bool) {
	i := s.shapeIndex(id)
	if i < 0 {
		return models.Shape{}, false
	}
	return models.CloneShapes(s.shapes[i : i+1])[0], true
}

// ShapeAt returns the topmost shape whose bounds contain p.
func (s *Scene) ShapeAt(p models.Point) (models.Shape, bool) {
	for i := len(s.shapes) - 1; i >= 0; i-- {
		if s.shapes[i].Bounds().ContainsPoint(p) {
			return models.CloneShapes(s.shapes[i : i+1])[0], true
		}
	}
	return models.Shape{}, false
}

func (s *Scene) shapeIndex(id string) int {
	return slices.IndexFunc(s.shapes, func(sh models.Shape) bool { return sh.ID == id })
}

// AddShape commits a primitive shape. Shapes smaller than the minimum size on
// either axis are rejected with ErrDegenerate.
func (s *Scene) AddShape(sh models.Shape) (models.Shape, error) {
	if !geometry.Finite(sh.X, sh.Y, sh.Width, sh.Height) ||
		sh.Width < s.opts.MinShapeSize || sh.Height < s.opts.MinShapeSize {
		return models.Shape{}, ErrDegenerate
	}
	if sh.ID == "" {
		sh.ID = newID()
	}
	s.shapes = append(s.shapes, sh)
	if sh.IsSpace() {
		s.currentSpaceID = sh.ID
	}
	return sh, nil
}

// MoveShape sets a shape's top-left corner.
func (s *Scene) MoveShape(id string, x, y float64) error {
	i := s.shapeIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	if !geometry.Finite(x, y) {
		return ErrDegenerate
	}
	s.shapes[i].X = x
	s.shapes[i].Y = y
	return nil
}

// RemoveShape deletes a shape. Removing the current Space makes the most
// recently created remaining Space current. References held by other shapes
// are left dangling and treated as absent by the scale resolver.
func (s *Scene) RemoveShape(id string) error {
	i := s.shapeIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	s.shapes = slices.Delete(s.shapes, i, i+1)
	if s.currentSpaceID == id {
		s.currentSpaceID = s.lastSpaceID()
	}
	return nil
}

func (s *Scene) lastSpaceID() string {
	for i := len(s.shapes) - 1; i >= 0; i-- {
		if s.shapes[i].IsSpace() {
			return s.shapes[i].ID
		}
	}
	return ""
}

// RemoveWall deletes a wall and every door that references it.
// It returns the number of doors removed with the wall.
func (s *Scene) RemoveWall(id string) (int, error) {
	i := slices.IndexFunc(s.walls, func(w models.Wall) bool { return w.ID == id })
	if i < 0 {
		return 0, ErrNotFound
	}
	s.walls = slices.Delete(s.walls, i, i+1)
	before := len(s.doors)
	s.doors = slices.DeleteFunc(s.doors, func(d models.Door) bool { return d.WallID == id })
	return before - len(s.doors), nil
}

// AddStroke commits a freehand path. At least two distinct points are needed.
func (s *Scene) AddStroke(points []models.Point, color string, width float64) (models.Stroke, error) {
	pts := make([]models.Point, 0, len(points))
	for _, p := range points {
		if geometry.Finite(p.X, p.Y) {
			pts = append(pts, p)
		}
	}
	if len(pts) < 2 {
		return models.Stroke{}, ErrDegenerate
	}
	if b, _ := geometry.BoundsOfPoints(pts); b.Width() == 0 && b.Height() == 0 {
		return models.Stroke{}, ErrDegenerate
	}
	st := models.Stroke{
		ID:       newID(),
		PathData: geometry.PathData(pts),
		Points:   pts,
		Color:    color,
		Width:    width,
	}
	s.strokes = append(s.strokes, st)
	return models.CloneStrokes([]models.Stroke{st})[0], nil
}

// EraseAt removes every stroke with a sampled path point within radius of p.
// It returns the ids of the removed strokes.
func (s *Scene) EraseAt(p models.Point, radius, interval float64) []string {
	var removed []string
	s.strokes = slices.DeleteFunc(s.strokes, func(st models.Stroke) bool {
		if geometry.NearPath(st.Points, p, radius, interval) {
			removed = append(removed, st.ID)
			return true
		}
		return false
	})
	return removed
}

// AddText commits a text element at p.
func (s *Scene) AddText(p models.Point, text string, fontSize float64, color string) (models.TextElement, error) {
	if !geometry.Finite(p.X, p.Y) || text == "" {
		return models.TextElement{}, ErrDegenerate
	}
	te := models.TextElement{ID: newID(), X: p.X, Y: p.Y, Text: text, FontSize: fontSize, Color: color}
	s.texts = append(s.texts, te)
	return te, nil
}

// RemoveText deletes a text element.
func (s *Scene) RemoveText(id string) error {
	i := slices.IndexFunc(s.texts, func(t models.TextElement) bool { return t.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	s.texts = slices.Delete(s.texts, i, i+1)
	return nil
}

// ContentPoints returns the corners of every wall, shape and text plus every
// stroke point. Used to frame the viewport around authored content.
func (s *Scene) ContentPoints() []models.Point {
	var pts []models.Point
	for _, w := range s.walls {
		pts = append(pts, w.Start(), w.End())
	}
	for _, sh := range s.shapes {
		b := sh.Bounds()
		pts = append(pts, models.Point{X: b.X, Y: b.Y}, models.Point{X: b.Right(), Y: b.Bottom()})
	}
	for _, st := range s.strokes {
		pts = append(pts, st.Points...)
	}
	for _, t := range s.texts {
		pts = append(pts, models.Point{X: t.X, Y: t.Y})
	}
	return pts
}

// Snapshot captures the undoable state.
func (s *Scene) Snapshot() models.HistoryEntry {
	return models.HistoryEntry{
		Strokes:        s.strokes,
		Shapes:         s.shapes,
		Texts:          s.texts,
		Walls:          s.walls,
		Doors:          s.doors,
		CurrentSpaceID: s.currentSpaceID,
	}.Clone()
}

// Restore replaces the undoable state with a snapshot. Annotations are kept.
func (s *Scene) Restore(e models.HistoryEntry) {
	e = e.Clone()
	s.strokes = e.Strokes
	s.shapes = e.Shapes
	s.texts = e.Texts
	s.walls = e.Walls
	s.doors = e.Doors
	s.currentSpaceID = e.CurrentSpaceID
	if s.currentSpaceID != "" {
		if _, ok := s.Space(s.currentSpaceID); !ok {
			s.currentSpaceID = s.lastSpaceID()
		}
	}
}

// Document builds the persistence contract for the scene.
func (s *Scene) Document(projectID string, viewport models.Rect) models.SceneDocument {
	return models.SceneDocument{
		ProjectID:   projectID,
		Walls:       s.walls,
		Doors:       s.doors,
		Shapes:      s.shapes,
		Strokes:     s.strokes,
		Texts:       s.texts,
		Annotations: s.annotations,
		Viewport:    viewport,
		Page:        s.page,
	}.Clone()
}

// Load replaces all content with the document's. A stored page region is
// adopted when valid so content keeps its placement relative to the page.
func (s *Scene) Load(doc models.SceneDocument) {
	doc = doc.Clone()
	s.walls = doc.Walls
	s.doors = doc.Doors
	s.shapes = doc.Shapes
	s.strokes = doc.Strokes
	s.texts = doc.Texts
	s.annotations = doc.Annotations
	if doc.Page.Valid() {
		s.page = doc.Page
	}
	s.currentSpaceID = s.lastSpaceID()
}
