package models

// ShapeKind identifies how a shape is rendered.
type ShapeKind string

const (
	ShapeRectangle ShapeKind = "rectangle"
	ShapeCircle    ShapeKind = "circle"
	ShapeImage     ShapeKind = "image"
	ShapeText      ShapeKind = "text"
)

// WallLayoutAttachment is the AttachedSpaceID sentinel for objects sized
// against the imported wall layout rather than a Space.
const WallLayoutAttachment = "@walls"

// Shape is any placed object on the canvas: primitives, furniture and Spaces.
type Shape struct {
	ID              string         `json:"id"`
	Kind            ShapeKind      `json:"kind"`
	X               float64        `json:"x"`
	Y               float64        `json:"y"`
	Width           float64        `json:"width"`
	Height          float64        `json:"height"`
	Fill            string         `json:"fill,omitempty"`
	Stroke          string         `json:"stroke,omitempty"`
	StrokeWidth     float64        `json:"strokeWidth,omitempty"`
	ImageRef        string         `json:"imageRef,omitempty"`
	Label           string         `json:"label,omitempty"`
	AttachedSpaceID string         `json:"attachedSpaceId,omitempty"`
	Placement       *PlacementMeta `json:"placementMeta,omitempty"`
	Space           *SpaceInfo     `json:"space,omitempty"`
}

// Bounds returns the shape's bounding rectangle.
func (s Shape) Bounds() Rect {
	return Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

// IsSpace reports whether the shape is an authored Space.
func (s Shape) IsSpace() bool { return s.Space != nil }

// SpaceInfo marks a rectangle as a Space with authoritative real-world size.
type SpaceInfo struct {
	MetersWidth    float64 `json:"metersWidth"`
	MetersHeight   float64 `json:"metersHeight"`
	PixelsPerMeter float64 `json:"pixelsPerMeter,omitempty"`
}

// PlacementMeta records how a furniture object was sized when placed.
type PlacementMeta struct {
	FurnitureKind  string  `json:"furnitureKind"`
	WidthMeters    float64 `json:"widthMeters"`
	HeightMeters   float64 `json:"heightMeters"`
	SeatCount      int     `json:"seatCount,omitempty"`
	PixelsPerMeter float64 `json:"pixelsPerMeter,omitempty"`
	Unscaled       bool    `json:"unscaled,omitempty"`
	MissingImage   bool    `json:"missingImage,omitempty"`
}

// Stroke is a freehand drawing. Immutable once the pointer is released.
type Stroke struct {
	ID       string  `json:"id"`
	PathData string  `json:"pathData"`
	Points   []Point `json:"points"`
	Color    string  `json:"color"`
	Width    float64 `json:"width"`
}

// TextElement is free text placed on the canvas.
type TextElement struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Text     string  `json:"text"`
	FontSize float64 `json:"fontSize"`
	Color    string  `json:"color,omitempty"`
}

// PointAnnotation is a positioned marker whose payload belongs to the
// external catalog (e.g. electrical standards). The core never reads Payload.
type PointAnnotation struct {
	ID      string         `json:"id"`
	X       float64        `json:"x"`
	Y       float64        `json:"y"`
	Payload map[string]any `json:"payload,omitempty"`
}
