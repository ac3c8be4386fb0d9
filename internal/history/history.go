// Package history keeps linear undo/redo stacks of full scene snapshots.
//
// One entry corresponds to one user-visible action. Callers capture the
// pre-action state, perform the action, and only then Commit the captured
// state, so aborted actions never leave an entry behind.
package history

import (
	"sync"

	"github.com/wedding-planner/backend/internal/models"
)

// DefaultLimit bounds the undo stack when no limit is configured.
const DefaultLimit = 100

// Manager holds the undo and redo stacks.
type Manager struct {
	mu    sync.Mutex
	undo  []models.HistoryEntry
	redo  []models.HistoryEntry
	limit int
}

// NewManager creates a history manager keeping at most limit undo entries.
func NewManager(limit int) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager{limit: limit}
}

// Commit records the pre-action state and clears the redo stack.
func (m *Manager) Commit(pre models.HistoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.undo = append(m.undo, pre.Clone())
	if len(m.undo) > m.limit {
		m.undo = append([]models.HistoryEntry(nil), m.undo[len(m.undo)-m.limit:]...)
	}
	m.redo = nil
}

// Undo pops the most recent entry, pushing current onto the redo stack.
// ok is false (and nothing changes) when there is nothing to undo.
func (m *Manager) Undo(current models.HistoryEntry) (models.HistoryEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.undo) == 0 {
		return models.HistoryEntry{}, false
	}
	prev := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, current.Clone())
	return prev.Clone(), true
}

// Redo is the mirror of Undo.
func (m *Manager) Redo(current models.HistoryEntry) (models.HistoryEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.redo) == 0 {
		return models.HistoryEntry{}, false
	}
	next := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, current.Clone())
	return next.Clone(), true
}

// CanUndo reports whether Undo would change anything.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) > 0
}

// CanRedo reports whether Redo would change anything.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}

// Depth returns the sizes of the undo and redo stacks.
func (m *Manager) Depth() (undo, redo int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo), len(m.redo)
}

// Reset drops both stacks, e.g. after the scene is replaced wholesale.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = nil
	m.redo = nil
}
