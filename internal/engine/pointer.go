package engine

import "github.com/wedding-planner/backend/internal/interaction"

// Tool returns the active tool and its options.
func (e *Engine) Tool() (interaction.Tool, interaction.ToolOptions) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctrl.Tool(), e.ctrl.Options()
}

// SetTool switches the active tool, committing any in-progress gesture.
func (e *Engine) SetTool(t interaction.Tool, opts interaction.ToolOptions) interaction.Outcome {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return interaction.Outcome{}
	}
	out := e.ctrl.SetTool(t, opts)
	ch := e.outcomeChange(out)
	e.mu.Unlock()
	e.emit(ch)
	return out
}

// HandlePointer feeds pointer events (screen coordinates) to the
// interaction controller in order and returns the combined outcome.
func (e *Engine) HandlePointer(events ...interaction.PointerEvent) interaction.Outcome {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return interaction.Outcome{}
	}
	var total interaction.Outcome
	var changes []Change
	for _, ev := range events {
		out := e.ctrl.Handle(ev)
		changes = append(changes, e.outcomeChange(out))
		total.Merge(out)
	}
	e.mu.Unlock()
	e.emit(changes...)
	return total
}

// Key forwards a key press (Escape reverts a drag).
func (e *Engine) Key(key string) interaction.Outcome {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return interaction.Outcome{}
	}
	out := e.ctrl.Key(key)
	ch := e.outcomeChange(out)
	e.mu.Unlock()
	e.emit(ch)
	return out
}

// Preview returns the in-progress gesture state.
func (e *Engine) Preview() interaction.Preview {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctrl.Preview()
}

// outcomeChange maps an interaction outcome to a notification.
// Must be called with e.mu held.
func (e *Engine) outcomeChange(out interaction.Outcome) Change {
	switch {
	case out.Changed:
		return e.change(ChangeScene)
	case out.ViewportChanged:
		return e.change(ChangeViewport)
	default:
		return e.change(ChangePreview)
	}
}
