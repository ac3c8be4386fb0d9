package engine

import (
	"context"
	"fmt"

	"github.com/wedding-planner/backend/internal/models"
	"github.com/wedding-planner/backend/internal/scene"
)

// Placement is a furniture placement that may still be waiting for its image.
type Placement struct {
	done  chan struct{}
	shape models.Shape
	err   error
}

// Done is closed once the placement has settled.
func (p *Placement) Done() <-chan struct{} { return p.done }

// Result returns the placed shape. Only valid after Done is closed.
func (p *Placement) Result() (models.Shape, error) { return p.shape, p.err }

// Wait blocks until the placement settles or ctx ends.
func (p *Placement) Wait(ctx context.Context) (models.Shape, error) {
	select {
	case <-p.done:
		return p.shape, p.err
	case <-ctx.Done():
		return models.Shape{}, ctx.Err()
	}
}

func settled(sh models.Shape, err error) *Placement {
	p := &Placement{done: make(chan struct{}), shape: sh, err: err}
	close(p.done)
	return p
}

// PlaceFurniture sizes and inserts a furniture object. Without an image
// reference it settles immediately. With one, the image is probed in the
// background and the shape is inserted only once its natural size is known
// or the probe fails or times out; the target space is re-validated at that
// point.
func (e *Engine) PlaceFurniture(req models.FurnitureRequest) *Placement {
	if req.ImageRef == "" || e.prober == nil {
		img := scene.ImageInfo{Failed: req.ImageRef != ""}
		return settled(e.insertFurniture(req, img, -1))
	}

	e.mu.Lock()
	gen, closed := e.generation, e.closed
	e.mu.Unlock()
	if closed {
		return settled(models.Shape{}, fmt.Errorf("place furniture: %w", ErrClosed))
	}

	p := &Placement{done: make(chan struct{})}
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		defer close(p.done)

		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.ImageTimeout)
		defer cancel()

		var img scene.ImageInfo
		w, h, err := e.prober.Probe(ctx, req.ImageRef)
		if err != nil {
			e.logger.Warn("furniture image failed to load", "imageRef", req.ImageRef, "error", err)
			img.Failed = true
		} else {
			img.Width, img.Height = w, h
		}
		p.shape, p.err = e.insertFurniture(req, img, gen)
	}()
	return p
}

// insertFurniture commits a placement. gen < 0 skips the staleness check.
func (e *Engine) insertFurniture(req models.FurnitureRequest, img scene.ImageInfo, gen int64) (models.Shape, error) {
	e.mu.Lock()
	if gen < 0 && e.closed {
		e.mu.Unlock()
		return models.Shape{}, fmt.Errorf("place furniture: %w", ErrClosed)
	}
	if gen >= 0 && gen != e.generation {
		e.mu.Unlock()
		e.logger.Warn("dropping furniture placement for replaced scene", "kind", req.Kind)
		return models.Shape{}, ErrStale
	}

	var changes []Change
	if out := e.ctrl.Finish(); out.Changed {
		changes = append(changes, e.change(ChangeScene))
	}
	pre := e.scene.Snapshot()
	sh, err := e.scene.PlaceFurniture(req, img)
	if err == nil {
		e.history.Commit(pre)
		changes = append(changes, e.change(ChangeScene))
	}
	e.mu.Unlock()

	e.emit(changes...)
	if err != nil {
		return models.Shape{}, fmt.Errorf("place furniture: %w", err)
	}
	return sh, nil
}
