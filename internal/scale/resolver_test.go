package scale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wedding-planner/backend/internal/models"
)

type fakeSource struct {
	walls   []models.Wall
	spaces  map[string]models.Shape
	current string
	cached  []float64
}

func (f *fakeSource) Walls() []models.Wall { return f.walls }

func (f *fakeSource) Space(id string) (models.Shape, bool) {
	s, ok := f.spaces[id]
	return s, ok
}

func (f *fakeSource) CurrentSpaceID() string { return f.current }

func (f *fakeSource) CacheWallScale(ppm float64) {
	f.cached = append(f.cached, ppm)
	for i := range f.walls {
		f.walls[i].DerivedScale = ppm
	}
}

func space(id string, w, h, mw, mh, ppm float64) models.Shape {
	return models.Shape{
		ID: id, Kind: models.ShapeRectangle, X: 10, Y: 20, Width: w, Height: h,
		Space: &models.SpaceInfo{MetersWidth: mw, MetersHeight: mh, PixelsPerMeter: ppm},
	}
}

func TestResolve_NothingAvailable(t *testing.T) {
	_, ok := NewResolver(100).Resolve(&fakeSource{}, "")
	assert.False(t, ok)

	// walls without any length metadata cannot be scaled either
	src := &fakeSource{walls: []models.Wall{{EndX: 100, Thickness: 2}}}
	_, ok = NewResolver(100).Resolve(src, "")
	assert.False(t, ok)
}

func TestResolve_WallsDeriveAndCache(t *testing.T) {
	src := &fakeSource{walls: []models.Wall{
		{ID: "a", StartX: 0, StartY: 0, EndX: 400, EndY: 0, OriginalLengthUnits: 200},
		{ID: "b", StartX: 400, StartY: 0, EndX: 400, EndY: 300},
	}}
	r := NewResolver(100)

	res, ok := r.Resolve(src, "")
	require.True(t, ok)
	assert.Equal(t, FromWalls, res.Source)
	assert.InDelta(t, 200, res.PixelsPerMeter, 1e-9)
	assert.Equal(t, models.Rect{X: 0, Y: 0, Width: 400, Height: 300}, res.Reference)
	assert.Equal(t, models.WallLayoutAttachment, res.Attachment())
	assert.Equal(t, []float64{200}, src.cached)

	// second resolve is served from the cache
	_, ok = r.Resolve(src, "")
	require.True(t, ok)
	assert.Len(t, src.cached, 1)
}

func TestResolve_SpaceBeatsWalls(t *testing.T) {
	src := &fakeSource{
		walls:   []models.Wall{{EndX: 400, OriginalLengthUnits: 200, DerivedScale: 200}},
		spaces:  map[string]models.Shape{"s1": space("s1", 500, 300, 10, 6, 50)},
		current: "s1",
	}
	res, ok := NewResolver(100).Resolve(src, "")
	require.True(t, ok)
	assert.Equal(t, FromSpace, res.Source)
	assert.Equal(t, 50.0, res.PixelsPerMeter)
	assert.Equal(t, "s1", res.Attachment())
}

func TestResolve_TargetSpacePreferred(t *testing.T) {
	src := &fakeSource{
		spaces: map[string]models.Shape{
			"s1": space("s1", 500, 300, 10, 6, 50),
			"s2": space("s2", 200, 200, 4, 5, 0),
		},
		current: "s1",
	}
	res, ok := NewResolver(100).Resolve(src, "s2")
	require.True(t, ok)
	assert.Equal(t, "s2", res.SpaceID)
	// uncached: min(200/4, 200/5)
	assert.Equal(t, 40.0, res.PixelsPerMeter)

	// dangling target falls back to the current space
	res, ok = NewResolver(100).Resolve(src, "gone")
	require.True(t, ok)
	assert.Equal(t, "s1", res.SpaceID)
}
