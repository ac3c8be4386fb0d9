package models

// Wall is a single wall segment imported from the wall maker.
type Wall struct {
	ID        string  `json:"id"`
	StartX    float64 `json:"startX"`
	StartY    float64 `json:"startY"`
	EndX      float64 `json:"endX"`
	EndY      float64 `json:"endY"`
	Thickness float64 `json:"thickness"`
	// OriginalLengthUnits is the length as encoded by the wall maker
	// (UnitsPerMeter design units = 1 m). Zero when the source omitted it.
	OriginalLengthUnits float64 `json:"originalLengthUnits,omitempty"`
	// DerivedScale is the cached pixels-per-meter of the layout this wall belongs to.
	DerivedScale float64 `json:"derivedScale,omitempty"`
}

// Start returns the start endpoint.
func (w Wall) Start() Point { return Point{X: w.StartX, Y: w.StartY} }

// End returns the end endpoint.
func (w Wall) End() Point { return Point{X: w.EndX, Y: w.EndY} }

// HingeSide is the side of a door leaf that carries the hinge.
type HingeSide string

const (
	HingeLeft  HingeSide = "left"
	HingeRight HingeSide = "right"
)

// OpeningDirection is the direction a door leaf swings.
type OpeningDirection string

const (
	OpeningInward  OpeningDirection = "inward"
	OpeningOutward OpeningDirection = "outward"
)

// Door sits on a wall at a fractional position along it.
// WallID is a non-owning reference; doors are removed with their wall.
type Door struct {
	ID               string           `json:"id"`
	WallID           string           `json:"wallId"`
	Position         float64          `json:"position"` // 0..1 along the wall
	Width            float64          `json:"width"`
	HingeSide        HingeSide        `json:"hingeSide,omitempty"`
	OpeningDirection OpeningDirection `json:"openingDirection,omitempty"`
}
