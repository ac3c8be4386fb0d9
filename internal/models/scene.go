package models

import (
	"slices"
	"time"
)

// SceneDocument is the persistence contract exchanged with the storage
// collaborator: everything needed to restore an editing session.
type SceneDocument struct {
	ProjectID   string            `json:"projectId"`
	Revision    int64             `json:"revision"`
	Walls       []Wall            `json:"walls"`
	Doors       []Door            `json:"doors"`
	Shapes      []Shape           `json:"shapes"`
	Strokes     []Stroke          `json:"strokes"`
	Texts       []TextElement     `json:"textElements"`
	Annotations []PointAnnotation `json:"pointAnnotations"`
	Viewport    Rect              `json:"viewport"`
	Page        Rect              `json:"page"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// HistoryEntry is an immutable snapshot of the undoable part of a scene.
// Viewport and point annotations are deliberately not part of it.
type HistoryEntry struct {
	Strokes        []Stroke      `json:"strokes"`
	Shapes         []Shape       `json:"shapes"`
	Texts          []TextElement `json:"textElements"`
	Walls          []Wall        `json:"walls"`
	Doors          []Door        `json:"doors"`
	CurrentSpaceID string        `json:"currentSpaceId,omitempty"`
}

// Clone returns a deep copy of the entry.
func (h HistoryEntry) Clone() HistoryEntry {
	return HistoryEntry{
		Strokes:        CloneStrokes(h.Strokes),
		Shapes:         CloneShapes(h.Shapes),
		Texts:          slices.Clone(h.Texts),
		Walls:          slices.Clone(h.Walls),
		Doors:          slices.Clone(h.Doors),
		CurrentSpaceID: h.CurrentSpaceID,
	}
}

// Clone returns a deep copy of the document.
func (d SceneDocument) Clone() SceneDocument {
	out := d
	out.Walls = slices.Clone(d.Walls)
	out.Doors = slices.Clone(d.Doors)
	out.Shapes = CloneShapes(d.Shapes)
	out.Strokes = CloneStrokes(d.Strokes)
	out.Texts = slices.Clone(d.Texts)
	out.Annotations = CloneAnnotations(d.Annotations)
	return out
}

// CloneShapes deep-copies shapes including their pointer fields.
func CloneShapes(in []Shape) []Shape {
	if in == nil {
		return nil
	}
	out := make([]Shape, len(in))
	for i, s := range in {
		out[i] = s
		if s.Placement != nil {
			p := *s.Placement
			out[i].Placement = &p
		}
		if s.Space != nil {
			sp := *s.Space
			out[i].Space = &sp
		}
	}
	return out
}

// CloneStrokes deep-copies strokes including their point slices.
func CloneStrokes(in []Stroke) []Stroke {
	if in == nil {
		return nil
	}
	out := make([]Stroke, len(in))
	for i, s := range in {
		out[i] = s
		out[i].Points = slices.Clone(s.Points)
	}
	return out
}

// CloneAnnotations deep-copies annotations and their opaque payloads.
func CloneAnnotations(in []PointAnnotation) []PointAnnotation {
	if in == nil {
		return nil
	}
	out := make([]PointAnnotation, len(in))
	for i, a := range in {
		out[i] = a
		out[i].Payload = ClonePayload(a.Payload)
	}
	return out
}

// ClonePayload deep-copies a JSON-like map.
func ClonePayload(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return ClonePayload(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
