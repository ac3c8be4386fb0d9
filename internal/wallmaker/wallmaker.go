// Package wallmaker decodes wall-layout exports from the wall authoring
// tool. Both the JSON and the XML export are supported; lengths are
// normalised to 100 design units per meter.
package wallmaker

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wedding-planner/backend/internal/geometry"
	"github.com/wedding-planner/backend/internal/models"
)

// ErrInvalidLayout is returned for exports that cannot be decoded.
var ErrInvalidLayout = errors.New("invalid wall layout")

// Format names an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// Layout is a decoded export ready for import.
type Layout struct {
	Walls []models.Wall `json:"walls"`
	Doors []models.Door `json:"doors"`
}

// ParseFile decodes an export, picking the format from the file extension.
func ParseFile(filePath string) (*Layout, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	format := FormatJSON
	if strings.EqualFold(filepath.Ext(filePath), ".xml") {
		format = FormatXML
	}
	return Decode(format, file)
}

// Decode reads an export in the given format.
func Decode(format Format, r io.Reader) (*Layout, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatJSON:
		return DecodeJSON(r)
	case FormatXML:
		return DecodeXML(r)
	}
	return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidLayout, format)
}

type pointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type wallJSON struct {
	ID          string    `json:"id"`
	Start       pointJSON `json:"start"`
	End         pointJSON `json:"end"`
	Thickness   float64   `json:"thickness"`
	LengthUnits float64   `json:"lengthUnits"`
}

type doorJSON struct {
	ID       string  `json:"id"`
	WallID   string  `json:"wallId"`
	Position float64 `json:"position"`
	Width    float64 `json:"width"`
	Hinge    string  `json:"hinge"`
	Opening  string  `json:"opening"`
}

type exportJSON struct {
	Version       string     `json:"version"`
	UnitsPerMeter float64    `json:"unitsPerMeter"`
	Walls         []wallJSON `json:"walls"`
	Doors         []doorJSON `json:"doors"`
}

// DecodeJSON reads the JSON export.
func DecodeJSON(r io.Reader) (*Layout, error) {
	var raw exportJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}

	b := newBuilder(raw.UnitsPerMeter)
	for _, w := range raw.Walls {
		b.wall(w.ID, w.Start.X, w.Start.Y, w.End.X, w.End.Y, w.Thickness, w.LengthUnits)
	}
	for _, d := range raw.Doors {
		b.door(d.ID, d.WallID, d.Position, d.Width, d.Hinge, d.Opening)
	}
	return b.layout()
}

// WallLayoutXML represents the raw XML structure of the export.
type WallLayoutXML struct {
	XMLName       xml.Name      `xml:"WallLayout"`
	Version       string        `xml:"version,attr"`
	UnitsPerMeter string        `xml:"unitsPerMeter,attr"`
	Walls         []WallElement `xml:"Wall"`
	Doors         []DoorElement `xml:"Door"`
}

// WallElement holds coordinates as "x, y" strings.
type WallElement struct {
	ID          string `xml:"id,attr"`
	Start       string `xml:"Start"`
	End         string `xml:"End"`
	Thickness   string `xml:"Thickness"`
	LengthUnits string `xml:"LengthUnits"`
}

type DoorElement struct {
	ID       string `xml:"id,attr"`
	Wall     string `xml:"wall,attr"`
	Position string `xml:"Position"`
	Width    string `xml:"Width"`
	Hinge    string `xml:"Hinge"`
	Opening  string `xml:"Opening"`
}

// DecodeXML reads the XML export.
func DecodeXML(r io.Reader) (*Layout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var raw WallLayoutXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}

	upm, err := parseOptional(raw.UnitsPerMeter)
	if err != nil {
		return nil, fmt.Errorf("%w: unitsPerMeter: %v", ErrInvalidLayout, err)
	}
	b := newBuilder(upm)
	for i, w := range raw.Walls {
		sx, sy, err := parsePair(w.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: wall %d start: %v", ErrInvalidLayout, i, err)
		}
		ex, ey, err := parsePair(w.End)
		if err != nil {
			return nil, fmt.Errorf("%w: wall %d end: %v", ErrInvalidLayout, i, err)
		}
		thick, err := parseOptional(w.Thickness)
		if err != nil {
			return nil, fmt.Errorf("%w: wall %d thickness: %v", ErrInvalidLayout, i, err)
		}
		length, err := parseOptional(w.LengthUnits)
		if err != nil {
			return nil, fmt.Errorf("%w: wall %d length: %v", ErrInvalidLayout, i, err)
		}
		b.wall(w.ID, sx, sy, ex, ey, thick, length)
	}
	for i, d := range raw.Doors {
		pos, err := parseOptional(d.Position)
		if err != nil {
			return nil, fmt.Errorf("%w: door %d position: %v", ErrInvalidLayout, i, err)
		}
		width, err := parseOptional(d.Width)
		if err != nil {
			return nil, fmt.Errorf("%w: door %d width: %v", ErrInvalidLayout, i, err)
		}
		b.door(d.ID, d.Wall, pos, width, d.Hinge, d.Opening)
	}
	return b.layout()
}

// parsePair parses an "x, y" coordinate string.
func parsePair(s string) (float64, float64, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("expected \"x, y\", got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func parseOptional(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

type builder struct {
	scale float64 // converts source length units to the 100/m convention
	out   Layout
}

func newBuilder(unitsPerMeter float64) *builder {
	scale := 1.0
	if unitsPerMeter > 0 && geometry.Finite(unitsPerMeter) {
		scale = geometry.DefaultUnitsPerMeter / unitsPerMeter
	}
	return &builder{scale: scale}
}

func (b *builder) wall(id string, sx, sy, ex, ey, thickness, lengthUnits float64) {
	if id == "" {
		id = fmt.Sprintf("wall-%d", len(b.out.Walls)+1)
	}
	w := models.Wall{
		ID:        id,
		StartX:    sx,
		StartY:    sy,
		EndX:      ex,
		EndY:      ey,
		Thickness: thickness,
	}
	if lengthUnits > 0 {
		w.OriginalLengthUnits = lengthUnits * b.scale
	}
	b.out.Walls = append(b.out.Walls, w)
}

func (b *builder) door(id, wallID string, position, width float64, hinge, opening string) {
	d := models.Door{
		ID:               id,
		WallID:           wallID,
		Position:         position,
		Width:            width,
		HingeSide:        models.HingeLeft,
		OpeningDirection: models.OpeningInward,
	}
	if strings.EqualFold(strings.TrimSpace(hinge), string(models.HingeRight)) {
		d.HingeSide = models.HingeRight
	}
	if strings.EqualFold(strings.TrimSpace(opening), string(models.OpeningOutward)) {
		d.OpeningDirection = models.OpeningOutward
	}
	b.out.Doors = append(b.out.Doors, d)
}

func (b *builder) layout() (*Layout, error) {
	if len(b.out.Walls) == 0 {
		return nil, fmt.Errorf("%w: no walls", ErrInvalidLayout)
	}
	return &b.out, nil
}
