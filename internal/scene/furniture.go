package scene

import (
	"fmt"

	"github.com/wedding-planner/backend/internal/geometry"
	"github.com/wedding-planner/backend/internal/models"
)

const (
	spaceFill       = "#ffffff"
	spaceStroke     = "#4a4a4a"
	furnitureFill   = "#f3e9dc"
	furnitureStroke = "#8b6f47"
)

// ImageInfo is the outcome of probing a furniture image.
type ImageInfo struct {
	Width  int
	Height int
	Failed bool
}

func (i ImageInfo) known() bool {
	return !i.Failed && i.Width > 0 && i.Height > 0
}

// AddSpace creates a Space of the given real-world size fitted into the page
// interior, caches its pixels-per-meter and makes it current.
func (s *Scene) AddSpace(widthMeters, heightMeters float64) (models.Shape, error) {
	if !geometry.Finite(widthMeters, heightMeters) || widthMeters <= 0 || heightMeters <= 0 {
		return models.Shape{}, ErrDegenerate
	}
	avail := s.page.Inset(s.opts.ImportPadding)
	if !avail.Valid() {
		avail = s.page
	}
	ppm := geometry.FitScale(widthMeters, heightMeters, avail.Width, avail.Height)
	w, h := widthMeters*ppm, heightMeters*ppm
	c := s.page.Center()

	sp := models.Shape{
		ID:          newID(),
		Kind:        models.ShapeRectangle,
		X:           c.X - w/2,
		Y:           c.Y - h/2,
		Width:       w,
		Height:      h,
		Fill:        spaceFill,
		Stroke:      spaceStroke,
		StrokeWidth: 2,
		Label:       fmt.Sprintf("%gm x %gm", widthMeters, heightMeters),
		Space: &models.SpaceInfo{
			MetersWidth:    widthMeters,
			MetersHeight:   heightMeters,
			PixelsPerMeter: ppm,
		},
	}
	return s.AddShape(sp)
}

// PlaceFurniture sizes and inserts a furniture object.
//
// With a resolvable scale the pixel size is the metric size times
// pixels-per-meter, centred in the reference bounds. Without one the object
// gets the default major-axis size, aspect preserved from the image (or the
// metric size), centred on the page and flagged unscaled. A failed image
// still yields a shape, flagged with MissingImage.
func (s *Scene) PlaceFurniture(req models.FurnitureRequest, img ImageInfo) (models.Shape, error) {
	if !geometry.Finite(req.WidthMeters, req.HeightMeters) || req.WidthMeters <= 0 {
		return models.Shape{}, ErrDegenerate
	}
	round := req.IsRound()

	meta := &models.PlacementMeta{
		FurnitureKind: req.Kind,
		WidthMeters:   req.WidthMeters,
		HeightMeters:  req.HeightMeters,
		SeatCount:     req.SeatCount,
		MissingImage:  req.ImageRef != "" && img.Failed,
	}
	if round {
		meta.HeightMeters = req.WidthMeters
	}

	var (
		w, h     float64
		center   models.Point
		attached string
	)
	if res, ok := s.ResolveScale(req.TargetSpaceID); ok {
		w = req.WidthMeters * res.PixelsPerMeter
		h = meta.HeightMeters * res.PixelsPerMeter
		center = res.Reference.Center()
		attached = res.Attachment()
		meta.PixelsPerMeter = res.PixelsPerMeter
	} else {
		w, h = s.defaultSize(req, img, round)
		center = s.page.Center()
		meta.Unscaled = true
		s.logger.Warn("no scale reference, placing furniture at default size",
			"kind", req.Kind, "width", w, "height", h)
	}
	if meta.MissingImage {
		s.logger.Warn("furniture image unavailable", "kind", req.Kind, "imageRef", req.ImageRef)
	}

	kind := models.ShapeRectangle
	switch {
	case req.ImageRef != "":
		kind = models.ShapeImage
	case round:
		kind = models.ShapeCircle
	}
	fill := req.Fill
	if fill == "" {
		fill = furnitureFill
	}
	label := req.Label
	if label == "" {
		label = req.Kind
	}

	sh := models.Shape{
		ID:              newID(),
		Kind:            kind,
		X:               center.X - w/2,
		Y:               center.Y - h/2,
		Width:           w,
		Height:          h,
		Fill:            fill,
		Stroke:          furnitureStroke,
		StrokeWidth:     1,
		ImageRef:        req.ImageRef,
		Label:           label,
		AttachedSpaceID: attached,
		Placement:       meta,
	}
	if !geometry.Finite(w, h) || w <= 0 || h <= 0 {
		return models.Shape{}, ErrDegenerate
	}
	s.shapes = append(s.shapes, sh)
	return models.CloneShapes([]models.Shape{sh})[0], nil
}

func (s *Scene) defaultSize(req models.FurnitureRequest, img ImageInfo, round bool) (float64, float64) {
	major := s.opts.DefaultFurniturePixels
	var aw, ah float64
	switch {
	case img.known():
		aw, ah = float64(img.Width), float64(img.Height)
	case !round:
		aw, ah = req.WidthMeters, req.HeightMeters
	default:
		return major, major
	}
	if aw >= ah {
		return major, major * ah / aw
	}
	return major * aw / ah, major
}
