package scene

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wedding-planner/backend/internal/geometry"
	"github.com/wedding-planner/backend/internal/models"
)

func testScene() *Scene {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(models.Rect{X: 0, Y: 0, Width: 800, Height: 600}, DefaultOptions(), logger)
}

func lShape() []models.Wall {
	return []models.Wall{
		{ID: "w1", StartX: 0, StartY: 0, EndX: 400, EndY: 0, Thickness: 10},
		{ID: "w2", StartX: 400, StartY: 0, EndX: 400, EndY: 300, Thickness: 10},
	}
}

func TestNewPageRegion(t *testing.T) {
	page := NewPageRegion(1000, 800, 297.0/210.0, 20)
	assert.InDelta(t, 960, page.Width, 1e-9)
	assert.InDelta(t, 960*210.0/297.0, page.Height, 1e-9)
	assert.InDelta(t, 20, page.X, 1e-9)
	assert.InDelta(t, 500, page.Center().X, 1e-9)
	assert.InDelta(t, 400, page.Center().Y, 1e-9)

	tall := NewPageRegion(400, 1000, 2, 0)
	assert.InDelta(t, 400, tall.Width, 1e-9)
	assert.InDelta(t, 200, tall.Height, 1e-9)
}

func TestImportWalls_FourByThreeLayout(t *testing.T) {
	s := testScene()

	res, err := s.ImportWalls(lShape(), nil)
	require.NoError(t, err)
	require.Len(t, res.Walls, 2)

	// 720x520 available; the 300 unit height binds
	assert.InDelta(t, 520.0/300.0, res.Scale, 1e-9)

	b, ok := geometry.BoundingBox(s.Walls())
	require.True(t, ok)
	assert.InDelta(t, 520, b.Height(), 1e-6)
	assert.LessOrEqual(t, b.Width(), 720.0)
	assert.InDelta(t, 400, b.Center().X, 1e-6)
	assert.InDelta(t, 300, b.Center().Y, 1e-6)

	for _, w := range s.Walls() {
		assert.NotEqual(t, "w1", w.ID)
		assert.NotEqual(t, "w2", w.ID)
		assert.InDelta(t, 10*res.Scale, w.Thickness, 1e-9)
		assert.InDelta(t, res.PixelsPerMeter, w.DerivedScale, 1e-9)
	}
	assert.InDelta(t, 400, s.Walls()[0].OriginalLengthUnits, 1e-9)
	assert.InDelta(t, 100*520.0/300.0, res.PixelsPerMeter, 1e-9)

	table, err := s.PlaceFurniture(models.FurnitureRequest{Kind: "round-table", WidthMeters: 1.2, Round: true}, ImageInfo{})
	require.NoError(t, err)
	assert.Equal(t, models.ShapeCircle, table.Kind)
	assert.InDelta(t, 1.2*res.PixelsPerMeter, table.Width, 1e-9)
	assert.InDelta(t, table.Width, table.Height, 1e-9)
	assert.InDelta(t, 208, table.Width, 1e-6)
	assert.InDelta(t, 400, table.Bounds().Center().X, 1e-6)
	assert.InDelta(t, 300, table.Bounds().Center().Y, 1e-6)
	assert.Equal(t, models.WallLayoutAttachment, table.AttachedSpaceID)
	assert.False(t, table.Placement.Unscaled)
}

func TestImportWalls_KeepsOriginalLength(t *testing.T) {
	s := testScene()
	walls := lShape()
	walls[0].OriginalLengthUnits = 800 // 8 m drawn as 400 units

	res, err := s.ImportWalls(walls, nil)
	require.NoError(t, err)
	assert.Equal(t, 800.0, s.Walls()[0].OriginalLengthUnits)
	assert.InDelta(t, 400*res.Scale/8, res.PixelsPerMeter, 1e-9)
}

func TestImportWalls_ScalePrefersMeasuredWalls(t *testing.T) {
	s := testScene()
	walls := []models.Wall{
		{ID: "a", StartX: 0, StartY: 0, EndX: 400, EndY: 0, Thickness: 10},
		{ID: "b", StartX: 400, StartY: 0, EndX: 400, EndY: 300, Thickness: 10, OriginalLengthUnits: 600},
	}

	res, err := s.ImportWalls(walls, nil)
	require.NoError(t, err)

	// Wall b is 6 m long and spans 300*scale pixels once fitted.
	want := 300 * res.Scale / 6
	assert.InDelta(t, want, res.PixelsPerMeter, 1e-9)
	for _, w := range s.Walls() {
		assert.InDelta(t, want, w.DerivedScale, 1e-9)
	}
	assert.InDelta(t, 400, s.Walls()[0].OriginalLengthUnits, 1e-9, "missing hints are still filled in")

	chair, err := s.PlaceFurniture(models.FurnitureRequest{Kind: "chair", WidthMeters: 0.5, HeightMeters: 0.5}, ImageInfo{})
	require.NoError(t, err)
	assert.InDelta(t, 0.5*want, chair.Width, 1e-9)
}

func TestImportWalls_RejectsInvalid(t *testing.T) {
	s := testScene()

	_, err := s.ImportWalls(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyLayout)

	bad := []models.Wall{
		{ID: "zero", StartX: 5, StartY: 5, EndX: 5, EndY: 5, Thickness: 1},
		{ID: "thin", EndX: 10, Thickness: 0},
	}
	res, err := s.ImportWalls(bad, []models.Door{{WallID: "zero", Width: 1}})
	assert.ErrorIs(t, err, ErrEmptyLayout)
	assert.Equal(t, 2, res.RejectedWalls)
	assert.Empty(t, s.Walls())
	assert.Empty(t, s.Doors())
}

func TestImportWalls_Doors(t *testing.T) {
	s := testScene()
	doors := []models.Door{
		{ID: "d1", WallID: "w1", Position: 1.4, Width: 90, HingeSide: models.HingeLeft},
		{ID: "d2", WallID: "missing", Position: 0.5, Width: 90},
		{ID: "d3", WallID: "w2", Position: math.NaN(), Width: 90},
	}

	res, err := s.ImportWalls(lShape(), doors)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DroppedDoors, "only the non-finite door is dropped")
	require.Len(t, s.Doors(), 2)

	dangling := s.Doors()[1]
	assert.Equal(t, "missing", dangling.WallID, "unknown wall references are kept as-is")
	assert.NotEqual(t, "d2", dangling.ID)
	assert.InDelta(t, 90*res.Scale, dangling.Width, 1e-9)

	d := s.Doors()[0]
	assert.NotEqual(t, "d1", d.ID)
	assert.Equal(t, s.Walls()[0].ID, d.WallID)
	assert.Equal(t, 1.0, d.Position)
	assert.InDelta(t, 90*res.Scale, d.Width, 1e-9)
	assert.Equal(t, models.HingeLeft, d.HingeSide)
}

func TestPlaceFurniture_SpaceScale(t *testing.T) {
	s := testScene()
	_, err := s.ImportWalls(lShape(), nil)
	require.NoError(t, err)

	space, err := s.AddSpace(10, 5)
	require.NoError(t, err)
	k := space.Space.PixelsPerMeter
	// 720x520 interior, 10x5 m: width binds
	assert.InDelta(t, 72, k, 1e-9)
	assert.Equal(t, space.ID, s.CurrentSpaceID())

	sh, err := s.PlaceFurniture(models.FurnitureRequest{Kind: "buffet", WidthMeters: 2, HeightMeters: 0.8}, ImageInfo{})
	require.NoError(t, err)
	assert.Equal(t, models.ShapeRectangle, sh.Kind)
	assert.InDelta(t, 2*k, sh.Width, 1e-9)
	assert.InDelta(t, 0.8*k, sh.Height, 1e-9)
	assert.Equal(t, space.ID, sh.AttachedSpaceID)
	assert.InDelta(t, space.Bounds().Center().X, sh.Bounds().Center().X, 1e-9)
	assert.InDelta(t, space.Bounds().Center().Y, sh.Bounds().Center().Y, 1e-9)
}

func TestPlaceFurniture_Unscaled(t *testing.T) {
	tests := []struct {
		name  string
		req   models.FurnitureRequest
		img   ImageInfo
		wantW float64
		wantH float64
	}{
		{"round", models.FurnitureRequest{Kind: "table", WidthMeters: 1.5}, ImageInfo{}, 200, 200},
		{"metric aspect", models.FurnitureRequest{Kind: "stage", WidthMeters: 4, HeightMeters: 2}, ImageInfo{}, 200, 100},
		{"image aspect", models.FurnitureRequest{Kind: "piano", WidthMeters: 2, HeightMeters: 2, ImageRef: "asset:p"}, ImageInfo{Width: 100, Height: 400}, 50, 200},
		{"failed image", models.FurnitureRequest{Kind: "piano", WidthMeters: 2, HeightMeters: 1, ImageRef: "asset:x"}, ImageInfo{Failed: true}, 200, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testScene()
			sh, err := s.PlaceFurniture(tt.req, tt.img)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantW, sh.Width, 1e-9)
			assert.InDelta(t, tt.wantH, sh.Height, 1e-9)
			assert.True(t, sh.Placement.Unscaled)
			assert.Empty(t, sh.AttachedSpaceID)
			assert.InDelta(t, s.Page().Center().X, sh.Bounds().Center().X, 1e-9)
			assert.InDelta(t, s.Page().Center().Y, sh.Bounds().Center().Y, 1e-9)
			assert.Equal(t, tt.img.Failed, sh.Placement.MissingImage)
		})
	}
}

func TestPlaceFurniture_DanglingTarget(t *testing.T) {
	s := testScene()
	space, err := s.AddSpace(8, 6)
	require.NoError(t, err)

	sh, err := s.PlaceFurniture(models.FurnitureRequest{Kind: "chair", WidthMeters: 0.5, HeightMeters: 0.5, TargetSpaceID: "gone"}, ImageInfo{})
	require.NoError(t, err)
	assert.Equal(t, space.ID, sh.AttachedSpaceID)
}

func TestPlaceFurniture_Degenerate(t *testing.T) {
	s := testScene()
	_, err := s.PlaceFurniture(models.FurnitureRequest{Kind: "nothing"}, ImageInfo{})
	assert.ErrorIs(t, err, ErrDegenerate)
	assert.Empty(t, s.Shapes())
}

func TestRemoveWall_CascadesDoors(t *testing.T) {
	s := testScene()
	_, err := s.ImportWalls(lShape(), []models.Door{
		{WallID: "w1", Position: 0.2, Width: 80},
		{WallID: "w1", Position: 0.7, Width: 80},
		{WallID: "w2", Position: 0.5, Width: 80},
	})
	require.NoError(t, err)

	first := s.Walls()[0].ID
	n, err := s.RemoveWall(first)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, s.Walls(), 1)
	require.Len(t, s.Doors(), 1)
	assert.Equal(t, s.Walls()[0].ID, s.Doors()[0].WallID)

	_, err = s.RemoveWall(first)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveShape_CurrentSpaceFallsBack(t *testing.T) {
	s := testScene()
	a, err := s.AddSpace(10, 5)
	require.NoError(t, err)
	b, err := s.AddSpace(6, 6)
	require.NoError(t, err)
	assert.Equal(t, b.ID, s.CurrentSpaceID())

	require.NoError(t, s.RemoveShape(b.ID))
	assert.Equal(t, a.ID, s.CurrentSpaceID())
	require.NoError(t, s.RemoveShape(a.ID))
	assert.Empty(t, s.CurrentSpaceID())

	assert.ErrorIs(t, s.RemoveShape(a.ID), ErrNotFound)
}

func TestAddShape_Degenerate(t *testing.T) {
	s := testScene()
	_, err := s.AddShape(models.Shape{Kind: models.ShapeRectangle, Width: 3, Height: 50})
	assert.ErrorIs(t, err, ErrDegenerate)

	sh, err := s.AddShape(models.Shape{Kind: models.ShapeCircle, X: 1, Y: 2, Width: 30, Height: 30})
	require.NoError(t, err)
	assert.NotEmpty(t, sh.ID)

	got, ok := s.ShapeAt(models.Point{X: 10, Y: 10})
	require.True(t, ok)
	assert.Equal(t, sh.ID, got.ID)
	_, ok = s.ShapeAt(models.Point{X: 100, Y: 100})
	assert.False(t, ok)
}

func TestStrokes(t *testing.T) {
	s := testScene()
	_, err := s.AddStroke([]models.Point{{X: 1, Y: 1}}, "#000", 2)
	assert.ErrorIs(t, err, ErrDegenerate)
	_, err = s.AddStroke([]models.Point{{X: 1, Y: 1}, {X: 1, Y: 1}}, "#000", 2)
	assert.ErrorIs(t, err, ErrDegenerate)

	st, err := s.AddStroke([]models.Point{{X: 0, Y: 0}, {X: 100, Y: 0}}, "#000", 2)
	require.NoError(t, err)
	assert.Equal(t, "M 0.00 0.00 L 100.00 0.00", st.PathData)

	assert.Empty(t, s.EraseAt(models.Point{X: 50, Y: 30}, 10, 4))
	assert.Equal(t, []string{st.ID}, s.EraseAt(models.Point{X: 50, Y: 5}, 10, 4))
	assert.Empty(t, s.Strokes())
}

func TestSnapshotRestore(t *testing.T) {
	s := testScene()
	_, err := s.ImportWalls(lShape(), nil)
	require.NoError(t, err)
	space, err := s.AddSpace(10, 5)
	require.NoError(t, err)

	snap := s.Snapshot()
	require.NoError(t, s.MoveShape(space.ID, 1, 1))
	_, err = s.AddText(models.Point{X: 5, Y: 5}, "Head table", 14, "")
	require.NoError(t, err)
	_, err = s.AddAnnotation(models.Point{X: 3, Y: 3}, map[string]any{"type": "outlet"})
	require.NoError(t, err)

	s.Restore(snap)
	got, ok := s.Shape(space.ID)
	require.True(t, ok)
	assert.Equal(t, space.X, got.X)
	assert.Empty(t, s.Texts())
	assert.Equal(t, space.ID, s.CurrentSpaceID())
	// annotations are outside undo scope
	assert.Len(t, s.Annotations(), 1)
	assert.Equal(t, snap, s.Snapshot())
}

func TestDocumentLoad(t *testing.T) {
	s := testScene()
	_, err := s.ImportWalls(lShape(), nil)
	require.NoError(t, err)
	space, err := s.AddSpace(4, 4)
	require.NoError(t, err)

	doc := s.Document("p1", models.Rect{Width: 10, Height: 10})
	assert.Equal(t, "p1", doc.ProjectID)

	other := New(models.Rect{Width: 100, Height: 100}, DefaultOptions(), nil)
	other.Load(doc)
	assert.Equal(t, s.Page(), other.Page())
	assert.Equal(t, space.ID, other.CurrentSpaceID())
	assert.Equal(t, s.Walls(), other.Walls())
}

func TestAnnotations(t *testing.T) {
	s := testScene()
	payload := map[string]any{"standard": "NEMA 5-15", "tags": []any{"dj"}}
	a, err := s.AddAnnotation(models.Point{X: 10, Y: 20}, payload)
	require.NoError(t, err)

	payload["standard"] = "changed"
	assert.Equal(t, "NEMA 5-15", s.Annotations()[0].Payload["standard"])

	x := 42.0
	upd, err := s.UpdateAnnotation(a.ID, AnnotationPatch{X: &x})
	require.NoError(t, err)
	assert.Equal(t, 42.0, upd.X)
	assert.Equal(t, 20.0, upd.Y)
	assert.Equal(t, "NEMA 5-15", upd.Payload["standard"])

	_, err = s.UpdateAnnotation("nope", AnnotationPatch{})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeleteAnnotation(a.ID))
	assert.Empty(t, s.Annotations())
	assert.ErrorIs(t, s.DeleteAnnotation(a.ID), ErrNotFound)
}
