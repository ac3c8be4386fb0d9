package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wedding-planner/backend/internal/models"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestLocalStore_SaveGetOpen(t *testing.T) {
	store := createTestStore(t)

	info, err := store.Save("chair.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "chair.png", info.Name)
	assert.Equal(t, int64(9), info.Size)
	assert.Equal(t, "asset:"+info.ID, info.Ref())

	got, err := store.Get(info.ID)
	require.NoError(t, err)
	assert.Equal(t, info, got)

	rc, err := store.Open(info.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Open("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_List(t *testing.T) {
	store := createTestStore(t)
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		_, err := store.SaveBytes(name, []byte(name))
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	all, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c.png", all[0].Name)

	limited, err := store.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestLocalStore_RenameDelete(t *testing.T) {
	store := createTestStore(t)
	info, err := store.SaveBytes("old.png", []byte{1, 2, 3})
	require.NoError(t, err)

	renamed, err := store.Rename(info.ID, "arch.png")
	require.NoError(t, err)
	assert.Equal(t, "arch.png", renamed.Name)

	require.NoError(t, store.Delete(info.ID))
	_, err = store.Get(info.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(info.ID), ErrNotFound)
	_, err = store.Rename(info.ID, "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_IndexSurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "assets")
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	info, err := store.SaveBytes("cake.webp", []byte("cake"))
	require.NoError(t, err)
	_, err = store.Rename(info.ID, "wedding-cake.webp")
	require.NoError(t, err)

	reopened, err := NewLocalStore(dir)
	require.NoError(t, err)
	got, err := reopened.Get(info.ID)
	require.NoError(t, err)
	assert.Equal(t, "wedding-cake.webp", got.Name)
	assert.Equal(t, int64(4), got.Size)
}

func sampleDoc(projectID string) models.SceneDocument {
	return models.SceneDocument{
		ProjectID: projectID,
		Revision:  7,
		Walls: []models.Wall{
			{ID: "w1", StartX: 10, StartY: 20, EndX: 410, EndY: 20, Thickness: 8, OriginalLengthUnits: 400, DerivedScale: 100},
		},
		Doors: []models.Door{
			{ID: "d1", WallID: "w1", Position: 0.25, Width: 90, HingeSide: models.HingeRight, OpeningDirection: models.OpeningOutward},
		},
		Shapes: []models.Shape{
			{ID: "s1", Kind: models.ShapeRectangle, X: 1, Y: 2, Width: 300, Height: 200,
				Space: &models.SpaceInfo{MetersWidth: 6, MetersHeight: 4, PixelsPerMeter: 50}},
			{ID: "t1", Kind: models.ShapeCircle, X: 100, Y: 100, Width: 75, Height: 75, AttachedSpaceID: "s1",
				Placement: &models.PlacementMeta{FurnitureKind: "round-table", WidthMeters: 1.5, HeightMeters: 1.5, SeatCount: 8, PixelsPerMeter: 50}},
		},
		Strokes: []models.Stroke{
			{ID: "st1", PathData: "M 0.00 0.00 L 5.00 5.00", Points: []models.Point{{X: 0, Y: 0}, {X: 5, Y: 5}}, Color: "#000", Width: 2},
		},
		Texts:       []models.TextElement{{ID: "x1", X: 4, Y: 5, Text: "Dance floor", FontSize: 16}},
		Annotations: []models.PointAnnotation{{ID: "a1", X: 9, Y: 9, Payload: map[string]any{"standard": "NEMA 5-15", "gfci": true}}},
		Viewport:    models.Rect{Width: 800, Height: 600},
		Page:        models.Rect{X: 20, Y: 20, Width: 760, Height: 537},
		UpdatedAt:   time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

// sameDoc compares documents ignoring the time zone of UpdatedAt.
func sameDoc(t *testing.T, want, got models.SceneDocument) {
	t.Helper()
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updatedAt %v != %v", want.UpdatedAt, got.UpdatedAt)
	want.UpdatedAt, got.UpdatedAt = time.Time{}, time.Time{}
	assert.Equal(t, want, got)
}

func TestSceneCodec(t *testing.T) {
	doc := sampleDoc("p1")
	data, err := EncodeScene(doc)
	require.NoError(t, err)

	got, err := DecodeScene(data)
	require.NoError(t, err)
	sameDoc(t, doc, got)

	_, err = DecodeScene([]byte{0xc1})
	assert.Error(t, err)
}

func testSceneStores(t *testing.T) map[string]SceneStore {
	duck, err := NewDuckSceneStore(filepath.Join(t.TempDir(), "db", "scenes.duckdb"), DuckOptions{Threads: 1}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { duck.Close() })
	return map[string]SceneStore{
		"duckdb": duck,
		"memory": NewMemorySceneStore(),
	}
}

func TestSceneStores(t *testing.T) {
	ctx := context.Background()
	for name, store := range testSceneStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load(ctx, "p1")
			assert.ErrorIs(t, err, ErrNotFound)

			doc := sampleDoc("p1")
			require.NoError(t, store.Save(ctx, doc))
			got, err := store.Load(ctx, "p1")
			require.NoError(t, err)
			sameDoc(t, doc, got)

			// upsert
			doc.Revision = 8
			doc.Texts = nil
			doc.UpdatedAt = doc.UpdatedAt.Add(time.Minute)
			require.NoError(t, store.Save(ctx, doc))
			got, err = store.Load(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, int64(8), got.Revision)
			assert.Empty(t, got.Texts)

			other := sampleDoc("p2")
			require.NoError(t, store.Save(ctx, other))

			list, err := store.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "p1", list[0].ID)
			assert.Equal(t, int64(8), list[0].Revision)
			assert.Positive(t, list[0].Size)

			require.NoError(t, store.Delete(ctx, "p2"))
			assert.ErrorIs(t, store.Delete(ctx, "p2"), ErrNotFound)
			list, err = store.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestDuckSceneStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenes.duckdb")
	store, err := NewDuckSceneStore(path, DuckOptions{}, nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), sampleDoc("keep")))
	require.NoError(t, store.Close())

	reopened, err := NewDuckSceneStore(path, DuckOptions{}, nil)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Load(context.Background(), "keep")
	require.NoError(t, err)
	assert.Equal(t, "keep", got.ProjectID)
	assert.Len(t, got.Shapes, 2)
	assert.Equal(t, "M 0.00 0.00 L 5.00 5.00", got.Strokes[0].PathData)
}
