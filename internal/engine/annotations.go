package engine

import (
	"fmt"

	"github.com/wedding-planner/backend/internal/models"
	"github.com/wedding-planner/backend/internal/scene"
)

// Annotations returns every point annotation.
func (e *Engine) Annotations() []models.PointAnnotation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene.Annotations()
}

// AddAnnotation creates a point annotation. Annotations are outside undo
// scope but are persisted.
func (e *Engine) AddAnnotation(p models.Point, payload map[string]any) (models.PointAnnotation, error) {
	var a models.PointAnnotation
	err := e.annotate(func() error {
		var err error
		a, err = e.scene.AddAnnotation(p, payload)
		return err
	})
	return a, err
}

// UpdateAnnotation patches a point annotation.
func (e *Engine) UpdateAnnotation(id string, patch scene.AnnotationPatch) (models.PointAnnotation, error) {
	var a models.PointAnnotation
	err := e.annotate(func() error {
		var err error
		a, err = e.scene.UpdateAnnotation(id, patch)
		return err
	})
	return a, err
}

// DeleteAnnotation removes a point annotation.
func (e *Engine) DeleteAnnotation(id string) error {
	return e.annotate(func() error {
		return e.scene.DeleteAnnotation(id)
	})
}

func (e *Engine) annotate(fn func() error) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return fmt.Errorf("annotation: %w", ErrClosed)
	}
	err := fn()
	var ch Change
	if err == nil {
		ch = e.change(ChangeScene)
	}
	e.mu.Unlock()
	e.emit(ch)
	if err != nil {
		return fmt.Errorf("annotation: %w", err)
	}
	return nil
}
