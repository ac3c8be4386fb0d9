package scene

import (
	"slices"

	"github.com/wedding-planner/backend/internal/geometry"
	"github.com/wedding-planner/backend/internal/models"
)

// AnnotationPatch updates a point annotation. Nil fields are left unchanged.
type AnnotationPatch struct {
	X       *float64       `json:"x,omitempty"`
	Y       *float64       `json:"y,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Annotations returns a deep copy of the point annotations.
func (s *Scene) Annotations() []models.PointAnnotation {
	return models.CloneAnnotations(s.annotations)
}

// AddAnnotation places a point annotation. The payload is stored as given.
func (s *Scene) AddAnnotation(p models.Point, payload map[string]any) (models.PointAnnotation, error) {
	if !geometry.Finite(p.X, p.Y) {
		return models.PointAnnotation{}, ErrDegenerate
	}
	a := models.PointAnnotation{ID: newID(), X: p.X, Y: p.Y, Payload: models.ClonePayload(payload)}
	s.annotations = append(s.annotations, a)
	return models.CloneAnnotations([]models.PointAnnotation{a})[0], nil
}

// UpdateAnnotation applies a patch to an annotation.
func (s *Scene) UpdateAnnotation(id string, patch AnnotationPatch) (models.PointAnnotation, error) {
	i := slices.IndexFunc(s.annotations, func(a models.PointAnnotation) bool { return a.ID == id })
	if i < 0 {
		return models.PointAnnotation{}, ErrNotFound
	}
	a := &s.annotations[i]
	if patch.X != nil {
		if !geometry.Finite(*patch.X) {
			return models.PointAnnotation{}, ErrDegenerate
		}
		a.X = *patch.X
	}
	if patch.Y != nil {
		if !geometry.Finite(*patch.Y) {
			return models.PointAnnotation{}, ErrDegenerate
		}
		a.Y = *patch.Y
	}
	if patch.Payload != nil {
		a.Payload = models.ClonePayload(patch.Payload)
	}
	return models.CloneAnnotations(s.annotations[i : i+1])[0], nil
}

// DeleteAnnotation removes an annotation.
func (s *Scene) DeleteAnnotation(id string) error {
	i := slices.IndexFunc(s.annotations, func(a models.PointAnnotation) bool { return a.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	s.annotations = slices.Delete(s.annotations, i, i+1)
	return nil
}
