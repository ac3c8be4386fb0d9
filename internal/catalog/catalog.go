// Package catalog loads the furniture catalog: the placeable kinds with
// their real-world size, roundness, default seats and image.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/wedding-planner/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// ErrUnknownKind is returned when a request names no catalog kind and
// carries no size of its own.
var ErrUnknownKind = errors.New("unknown furniture kind")

// Catalog is an indexed furniture catalog.
type Catalog struct {
	models.Catalog
	byKind map[string]int
}

// Load reads a YAML catalog. A missing file yields the built-in catalog.
func Load(filePath string) (*Catalog, error) {
	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads a YAML catalog from r.
func Parse(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var raw models.Catalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return New(raw)
}

// New indexes a catalog, rejecting duplicate kinds and unsized items.
func New(raw models.Catalog) (*Catalog, error) {
	c := &Catalog{Catalog: raw, byKind: make(map[string]int, len(raw.Items))}
	for i, item := range raw.Items {
		if item.Kind == "" {
			return nil, fmt.Errorf("catalog item %d has no kind", i)
		}
		if item.WidthMeters <= 0 {
			return nil, fmt.Errorf("catalog item %q needs a positive width_m", item.Kind)
		}
		if _, dup := c.byKind[item.Kind]; dup {
			return nil, fmt.Errorf("catalog kind %q is defined twice", item.Kind)
		}
		c.byKind[item.Kind] = i
	}
	return c, nil
}

// Lookup returns the item for kind.
func (c *Catalog) Lookup(kind string) (models.FurnitureItem, bool) {
	i, ok := c.byKind[kind]
	if !ok {
		return models.FurnitureItem{}, false
	}
	return c.Items[i], true
}

// Complete fills the fields a request left empty from its catalog item.
// Requests for unknown kinds pass through when they carry a width.
func (c *Catalog) Complete(req models.FurnitureRequest) (models.FurnitureRequest, error) {
	item, ok := c.Lookup(req.Kind)
	if !ok {
		if req.WidthMeters <= 0 {
			return req, fmt.Errorf("%q: %w", req.Kind, ErrUnknownKind)
		}
		if req.Fill == "" {
			req.Fill = c.DefaultFill
		}
		return req, nil
	}

	if req.WidthMeters <= 0 {
		req.WidthMeters = item.WidthMeters
		if req.HeightMeters <= 0 {
			req.HeightMeters = item.HeightMeters
		}
	} else if req.HeightMeters <= 0 && !req.Round && !item.Round {
		req.HeightMeters = item.HeightMeters
	}
	req.Round = req.Round || item.Round
	if req.SeatCount == 0 {
		req.SeatCount = item.Seats
	}
	if req.ImageRef == "" {
		req.ImageRef = item.Image
	}
	if req.Label == "" {
		req.Label = item.Label
	}
	if req.Fill == "" {
		req.Fill = item.Fill
	}
	if req.Fill == "" {
		req.Fill = c.DefaultFill
	}
	return req, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(models.Catalog{
		DefaultFill: "#f3e9dc",
		Items: []models.FurnitureItem{
			{Kind: "round-table-150", Label: "Round table 150cm", WidthMeters: 1.5, Round: true, Seats: 8},
			{Kind: "round-table-180", Label: "Round table 180cm", WidthMeters: 1.8, Round: true, Seats: 10},
			{Kind: "cocktail-table", Label: "Cocktail table", WidthMeters: 0.8, Round: true},
			{Kind: "cake-table", Label: "Cake table", WidthMeters: 0.9, Round: true, Fill: "#fff7f0"},
			{Kind: "banquet-table", Label: "Banquet table", WidthMeters: 2.4, HeightMeters: 0.76, Seats: 8},
			{Kind: "sweetheart-table", Label: "Sweetheart table", WidthMeters: 1.2, HeightMeters: 0.6, Seats: 2},
			{Kind: "buffet", Label: "Buffet", WidthMeters: 2.4, HeightMeters: 0.76},
			{Kind: "bar", Label: "Bar", WidthMeters: 3, HeightMeters: 0.8},
			{Kind: "chair", Label: "Chair", WidthMeters: 0.45, HeightMeters: 0.45, Seats: 1},
			{Kind: "dance-floor", Label: "Dance floor", WidthMeters: 5, HeightMeters: 5, Fill: "#e8e0f0"},
			{Kind: "dj-booth", Label: "DJ booth", WidthMeters: 2, HeightMeters: 1},
			{Kind: "stage", Label: "Stage", WidthMeters: 6, HeightMeters: 3},
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}
