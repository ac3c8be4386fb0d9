package interaction

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wedding-planner/backend/internal/history"
	"github.com/wedding-planner/backend/internal/models"
	"github.com/wedding-planner/backend/internal/scene"
	"github.com/wedding-planner/backend/internal/viewport"
)

type fixture struct {
	scene   *scene.Scene
	history *history.Manager
	view    *viewport.Controller
	ctrl    *Controller
}

// newFixture maps screen coordinates 1:1 onto world coordinates.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	page := models.Rect{X: 0, Y: 0, Width: 800, Height: 600}
	sc := scene.New(page, scene.DefaultOptions(), logger)
	hist := history.NewManager(history.DefaultLimit)
	view := viewport.NewController(page, page, viewport.DefaultOptions())
	return &fixture{
		scene:   sc,
		history: hist,
		view:    view,
		ctrl:    NewController(sc, hist, view, page, DefaultSettings(), logger),
	}
}

func (f *fixture) addBox(t *testing.T, x, y float64) models.Shape {
	t.Helper()
	sh, err := f.scene.AddShape(models.Shape{Kind: models.ShapeRectangle, X: x, Y: y, Width: 50, Height: 50})
	require.NoError(t, err)
	return sh
}

func (f *fixture) drag(kind EventKind, x, y float64) Outcome {
	return f.ctrl.Handle(PointerEvent{Kind: kind, X: x, Y: y})
}

func TestParseTool(t *testing.T) {
	tool, ok := ParseTool("erase")
	assert.True(t, ok)
	assert.Equal(t, ToolErase, tool)
	_, ok = ParseTool("lasso")
	assert.False(t, ok)
}

func TestMove_CommitsOnceOnRelease(t *testing.T) {
	f := newFixture(t)
	box := f.addBox(t, 100, 100)

	f.drag(PointerDown, 110, 110)
	for i := 1; i <= 5; i++ {
		out := f.drag(PointerMove, 110+float64(i)*20, 110+float64(i)*10)
		assert.False(t, out.Committed)
	}
	assert.True(t, f.ctrl.Busy())
	got, _ := f.scene.Shape(box.ID)
	assert.Equal(t, 100.0, got.X, "scene is untouched while dragging")

	out := f.drag(PointerUp, 210, 160)
	assert.True(t, out.Committed)
	got, _ = f.scene.Shape(box.ID)
	assert.Equal(t, 200.0, got.X)
	assert.Equal(t, 150.0, got.Y)

	undo, redo := f.history.Depth()
	assert.Equal(t, 1, undo)
	assert.Equal(t, 0, redo)
}

func TestMove_OutOfPageReverts(t *testing.T) {
	f := newFixture(t)
	box := f.addBox(t, 100, 100)

	f.drag(PointerDown, 110, 110)
	f.drag(PointerMove, 500, 110)
	out := f.drag(PointerUp, 790, 110)

	assert.True(t, out.Reverted)
	assert.False(t, out.Committed)
	got, _ := f.scene.Shape(box.ID)
	assert.Equal(t, box.Bounds(), got.Bounds())
	assert.False(t, f.history.CanUndo())
}

func TestMove_SnapsToPageCenter(t *testing.T) {
	f := newFixture(t)
	box := f.addBox(t, 100, 100)

	f.drag(PointerDown, 110, 110)
	f.drag(PointerMove, 383, 200)
	pv := f.ctrl.Preview()
	require.NotNil(t, pv.Rect)
	assert.Equal(t, 375.0, pv.Rect.X)
	assert.Equal(t, 190.0, pv.Rect.Y)
	require.Len(t, pv.Guides, 1)
	assert.Equal(t, 400.0, pv.Guides[0].Position)

	f.drag(PointerUp, 383, 200)
	got, _ := f.scene.Shape(box.ID)
	assert.Equal(t, 375.0, got.X)
}

func TestMove_EscapeReverts(t *testing.T) {
	f := newFixture(t)
	box := f.addBox(t, 100, 100)

	f.drag(PointerDown, 110, 110)
	f.drag(PointerMove, 300, 300)
	out := f.ctrl.Key(KeyEscape)
	assert.True(t, out.Reverted)
	assert.False(t, f.ctrl.Busy())

	out = f.drag(PointerUp, 300, 300)
	assert.False(t, out.Committed)
	got, _ := f.scene.Shape(box.ID)
	assert.Equal(t, box.Bounds(), got.Bounds())
}

func TestPan(t *testing.T) {
	f := newFixture(t)

	f.drag(PointerDown, 500, 500)
	out := f.drag(PointerMove, 450, 480)
	assert.True(t, out.ViewportChanged)
	assert.Equal(t, models.Rect{X: 50, Y: 20, Width: 800, Height: 600}, f.view.Window())

	out = f.drag(PointerUp, 450, 480)
	assert.False(t, out.Committed)
	assert.False(t, f.history.CanUndo())
}

func TestDrawAndErase(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetTool(ToolDraw, ToolOptions{})

	// a click without movement draws nothing
	f.drag(PointerDown, 5, 5)
	out := f.drag(PointerUp, 5, 5)
	assert.False(t, out.Committed)

	f.drag(PointerDown, 10, 10)
	f.drag(PointerMove, 50, 10)
	assert.NotEmpty(t, f.ctrl.Preview().PathData)
	out = f.drag(PointerUp, 90, 10)
	assert.True(t, out.Committed)
	require.Len(t, f.scene.Strokes(), 1)
	assert.Len(t, f.scene.Strokes()[0].Points, 3)

	f.ctrl.SetTool(ToolErase, ToolOptions{})
	f.drag(PointerDown, 300, 300)
	f.drag(PointerMove, 50, 12)
	f.drag(PointerMove, 60, 12)
	out = f.drag(PointerUp, 70, 12)
	assert.True(t, out.Committed)
	assert.Empty(t, f.scene.Strokes())

	undo, _ := f.history.Depth()
	assert.Equal(t, 2, undo)
}

func TestShapeTool(t *testing.T) {
	tests := []struct {
		name     string
		kind     models.ShapeKind
		from, to models.Point
		want     *models.Rect
	}{
		{"rectangle", models.ShapeRectangle, models.Point{X: 100, Y: 100}, models.Point{X: 160, Y: 140}, &models.Rect{X: 100, Y: 100, Width: 60, Height: 40}},
		{"circle dragged up-left", models.ShapeCircle, models.Point{X: 100, Y: 100}, models.Point{X: 60, Y: 130}, &models.Rect{X: 60, Y: 100, Width: 40, Height: 40}},
		{"too thin", models.ShapeRectangle, models.Point{X: 100, Y: 100}, models.Point{X: 102, Y: 150}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.ctrl.SetTool(ToolShape, ToolOptions{ShapeKind: tt.kind})

			f.drag(PointerDown, tt.from.X, tt.from.Y)
			out := f.drag(PointerUp, tt.to.X, tt.to.Y)

			if tt.want == nil {
				assert.False(t, out.Committed)
				assert.Empty(t, f.scene.Shapes())
				assert.False(t, f.history.CanUndo())
				return
			}
			assert.True(t, out.Committed)
			require.Len(t, f.scene.Shapes(), 1)
			sh := f.scene.Shapes()[0]
			assert.Equal(t, tt.kind, sh.Kind)
			assert.Equal(t, *tt.want, sh.Bounds())
		})
	}
}

func TestTextAndAnnotation(t *testing.T) {
	f := newFixture(t)

	f.ctrl.SetTool(ToolText, ToolOptions{Text: "Sweetheart table"})
	out := f.drag(PointerDown, 40, 50)
	assert.True(t, out.Committed)
	require.Len(t, f.scene.Texts(), 1)
	assert.Equal(t, "Sweetheart table", f.scene.Texts()[0].Text)
	f.drag(PointerUp, 40, 50)

	f.ctrl.SetTool(ToolAnnotate, ToolOptions{Payload: map[string]any{"circuit": "A1"}})
	out = f.drag(PointerDown, 70, 80)
	assert.True(t, out.Changed)
	assert.False(t, out.Committed)
	require.Len(t, f.scene.Annotations(), 1)
	assert.Equal(t, "A1", f.scene.Annotations()[0].Payload["circuit"])

	undo, _ := f.history.Depth()
	assert.Equal(t, 1, undo)
}

func TestSetToolCommitsInProgressStroke(t *testing.T) {
	f := newFixture(t)
	f.ctrl.SetTool(ToolDraw, ToolOptions{})
	f.drag(PointerDown, 10, 10)
	f.drag(PointerMove, 40, 40)

	out := f.ctrl.SetTool(ToolSelect, ToolOptions{})
	assert.True(t, out.Committed)
	assert.Len(t, f.scene.Strokes(), 1)
	assert.Equal(t, ToolSelect, f.ctrl.Tool())
	assert.False(t, f.ctrl.Busy())
}

func TestZoomedPointerMapping(t *testing.T) {
	f := newFixture(t)
	f.view.SetZoom(200, nil)
	f.ctrl.SetTool(ToolText, ToolOptions{})

	// screen centre stays on the world centre at any zoom
	f.drag(PointerDown, 400, 300)
	require.Len(t, f.scene.Texts(), 1)
	assert.InDelta(t, 400, f.scene.Texts()[0].X, 1e-9)
	assert.InDelta(t, 300, f.scene.Texts()[0].Y, 1e-9)

	// the top-left screen corner maps to the zoomed window origin
	f.drag(PointerDown, 0, 0)
	require.Len(t, f.scene.Texts(), 2)
	assert.InDelta(t, 200, f.scene.Texts()[1].X, 1e-9)
	assert.InDelta(t, 150, f.scene.Texts()[1].Y, 1e-9)
}
