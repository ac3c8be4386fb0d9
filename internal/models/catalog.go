package models

// Catalog is the YAML furniture catalog.
type Catalog struct {
	DefaultFill string          `json:"defaultFill" yaml:"default_fill"`
	Items       []FurnitureItem `json:"items" yaml:"items"`
}

// FurnitureItem describes a placeable furniture kind with its real-world size.
// Round items only use WidthMeters (the diameter).
type FurnitureItem struct {
	Kind         string  `json:"kind" yaml:"kind"`
	Label        string  `json:"label" yaml:"label"`
	WidthMeters  float64 `json:"widthMeters" yaml:"width_m"`
	HeightMeters float64 `json:"heightMeters,omitempty" yaml:"height_m,omitempty"`
	Round        bool    `json:"round,omitempty" yaml:"round,omitempty"`
	Seats        int     `json:"seats,omitempty" yaml:"seats,omitempty"`
	Image        string  `json:"image,omitempty" yaml:"image,omitempty"`
	Fill         string  `json:"fill,omitempty" yaml:"fill,omitempty"`
}

// FurnitureRequest asks for a furniture object to be placed.
// Zero dimensions are completed from the catalog before placement.
type FurnitureRequest struct {
	Kind          string  `json:"kind"`
	Label         string  `json:"label,omitempty"`
	WidthMeters   float64 `json:"widthMeters,omitempty"`
	HeightMeters  float64 `json:"heightMeters,omitempty"`
	Round         bool    `json:"round,omitempty"`
	SeatCount     int     `json:"seatCount,omitempty"`
	ImageRef      string  `json:"imageRef,omitempty"`
	TargetSpaceID string  `json:"targetSpaceId,omitempty"`
	Fill          string  `json:"fill,omitempty"`
}

// IsRound reports whether the item has a single meaningful dimension.
func (r FurnitureRequest) IsRound() bool {
	return r.Round || r.HeightMeters <= 0
}
