package engine

import (
	"log/slog"
	"time"

	"github.com/wedding-planner/backend/internal/interaction"
	"github.com/wedding-planner/backend/internal/models"
	"github.com/wedding-planner/backend/internal/scene"
	"github.com/wedding-planner/backend/internal/viewport"
)

// Config sizes a canvas engine.
type Config struct {
	Screen       models.Rect
	PageAspect   float64
	PageMargin   float64
	HistoryLimit int
	ImageTimeout time.Duration
	Scene        scene.Options
	Viewport     viewport.Options
	Interaction  interaction.Settings
}

// DefaultConfig returns an A4-landscape page on a 1200x800 surface.
func DefaultConfig() Config {
	return Config{
		Screen:       models.Rect{Width: 1200, Height: 800},
		PageAspect:   297.0 / 210.0,
		PageMargin:   20,
		HistoryLimit: 100,
		ImageTimeout: 5 * time.Second,
		Scene:        scene.DefaultOptions(),
		Viewport:     viewport.DefaultOptions(),
		Interaction:  interaction.DefaultSettings(),
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithProber sets the image prober used for furniture with an image.
func WithProber(p Prober) Option {
	return func(e *Engine) {
		e.prober = p
	}
}

// WithListener registers a change listener. Listeners run synchronously,
// outside the engine lock, in registration order.
func WithListener(l Listener) Option {
	return func(e *Engine) {
		if l != nil {
			e.listeners = append(e.listeners, l)
		}
	}
}

// WithDocument seeds the engine with a stored scene.
func WithDocument(doc models.SceneDocument) Option {
	return func(e *Engine) {
		d := doc
		e.seed = &d
	}
}
