// Package session keeps one canvas engine per open project. Engines are
// created on first access from the stored scene and evicted after idling,
// with their pending autosave flushed first.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/wedding-planner/backend/internal/autosave"
	"github.com/wedding-planner/backend/internal/engine"
	"github.com/wedding-planner/backend/internal/models"
	"github.com/wedding-planner/backend/internal/storage"
)

// MaxSessions limits concurrently open projects to bound memory.
const MaxSessions = 50

// SessionKeepAliveWindow protects recently used sessions from cleanup.
const SessionKeepAliveWindow = 5 * time.Minute

// ErrInvalidProjectID is returned for ids outside [A-Za-z0-9_-]{1,64}.
var ErrInvalidProjectID = errors.New("invalid project id")

var projectIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidProjectID reports whether id can name a project.
func ValidProjectID(id string) bool {
	return projectIDPattern.MatchString(id)
}

// State is one open project.
type State struct {
	Engine       *engine.Engine
	Created      time.Time
	LastAccessed time.Time
}

// Options configures a Manager.
type Options struct {
	Engine      engine.Config
	MaxSessions int
	Prober      engine.Prober
	Logger      *slog.Logger
}

// Manager owns the open projects.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*State

	store  storage.SceneStore
	saver  *autosave.Autosaver
	opts   Options
	logger *slog.Logger

	listenersMu sync.RWMutex
	listeners   []engine.Listener
}

// NewManager creates a session manager persisting through saver into store.
func NewManager(store storage.SceneStore, saver *autosave.Autosaver, opts Options) *Manager {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = MaxSessions
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*State),
		store:    store,
		saver:    saver,
		opts:     opts,
		logger:   logger,
	}
}

// Subscribe registers a listener for changes in every project.
func (m *Manager) Subscribe(l engine.Listener) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = append(m.listeners, l)
}

// notify is every engine's listener. Any activity counts as use, so a
// project edited only over a websocket is never closed as idle.
func (m *Manager) notify(ch engine.Change) {
	if ch.Kind != engine.ChangeClosed {
		m.touch(ch.ProjectID)
	}
	if ch.Kind == engine.ChangeScene || ch.Kind == engine.ChangeViewport {
		m.saver.Schedule(ch.Document)
	}
	m.listenersMu.RLock()
	ls := m.listeners
	m.listenersMu.RUnlock()
	for _, l := range ls {
		l(ch)
	}
}

// Get returns an open project's engine and marks it used.
func (m *Manager) Get(projectID string) (*engine.Engine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[projectID]
	if !ok {
		return nil, false
	}
	state.LastAccessed = time.Now()
	return state.Engine, true
}

func (m *Manager) touch(projectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.sessions[projectID]; ok {
		state.LastAccessed = time.Now()
	}
}

// Open returns the project's engine, loading it from the store on first
// access. Unknown projects start empty.
func (m *Manager) Open(ctx context.Context, projectID string) (*engine.Engine, error) {
	if !ValidProjectID(projectID) {
		return nil, fmt.Errorf("%q: %w", projectID, ErrInvalidProjectID)
	}
	if eng, ok := m.Get(projectID); ok {
		return eng, nil
	}

	doc, err := m.store.Load(ctx, projectID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		doc = models.SceneDocument{ProjectID: projectID}
	case err != nil:
		return nil, fmt.Errorf("loading project %s: %w", projectID, err)
	}

	opts := []engine.Option{
		engine.WithLogger(m.logger),
		engine.WithListener(m.notify),
		engine.WithDocument(doc),
	}
	if m.opts.Prober != nil {
		opts = append(opts, engine.WithProber(m.opts.Prober))
	}
	eng := engine.New(projectID, m.opts.Engine, opts...)

	m.mu.Lock()
	if existing, ok := m.sessions[projectID]; ok {
		existing.LastAccessed = time.Now()
		m.mu.Unlock()
		return existing.Engine, nil
	}
	victim := m.evictLocked()
	now := time.Now()
	m.sessions[projectID] = &State{Engine: eng, Created: now, LastAccessed: now}
	m.mu.Unlock()

	if victim != nil {
		m.release(victim)
	}
	m.logger.Info("project opened", "project", projectID, "revision", doc.Revision, "shapes", len(doc.Shapes), "walls", len(doc.Walls))
	return eng, nil
}

// evictLocked removes the least recently used session when at capacity.
func (m *Manager) evictLocked() *State {
	if len(m.sessions) < m.opts.MaxSessions {
		return nil
	}
	var (
		oldestID string
		oldest   *State
	)
	for id, state := range m.sessions {
		if oldest == nil || state.LastAccessed.Before(oldest.LastAccessed) {
			oldestID, oldest = id, state
		}
	}
	delete(m.sessions, oldestID)
	m.logger.Info("evicting least recently used project", "project", oldestID)
	return oldest
}

// release closes the engine, waits for pending placements and flushes the
// autosave. Handles still held elsewhere reject further commands.
func (m *Manager) release(state *State) {
	state.Engine.Close()
	state.Engine.Wait()
	id := state.Engine.ProjectID()
	if err := m.saver.Flush(id); err != nil {
		m.logger.Error("flush on close failed", "project", id, "error", err)
	}
}

// Close flushes and closes an open project.
func (m *Manager) Close(projectID string) bool {
	m.mu.Lock()
	state, ok := m.sessions[projectID]
	delete(m.sessions, projectID)
	m.mu.Unlock()
	if ok {
		m.release(state)
	}
	return ok
}

// Delete closes a project and removes it from the store.
func (m *Manager) Delete(ctx context.Context, projectID string) error {
	m.mu.Lock()
	state, open := m.sessions[projectID]
	delete(m.sessions, projectID)
	m.mu.Unlock()

	if open {
		state.Engine.Close()
		state.Engine.Wait()
	}
	m.saver.Forget(projectID)

	err := m.store.Delete(ctx, projectID)
	if errors.Is(err, storage.ErrNotFound) && open {
		return nil
	}
	return err
}

// CleanupOldSessions closes sessions idle for longer than maxAge.
// Sessions used within SessionKeepAliveWindow are never closed.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	now := time.Now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-SessionKeepAliveWindow)

	m.mu.Lock()
	var idle []*State
	for id, state := range m.sessions {
		if state.LastAccessed.After(keepAliveCutoff) || state.LastAccessed.After(cutoff) {
			continue
		}
		idle = append(idle, state)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, state := range idle {
		m.release(state)
		m.logger.Info("closed idle project",
			"project", state.Engine.ProjectID(),
			"idle", now.Sub(state.LastAccessed).Round(time.Second))
	}
	return len(idle)
}

// Count returns the number of open projects.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Projects lists stored projects, with open projects reporting their live
// revision.
func (m *Manager) Projects(ctx context.Context) ([]models.ProjectInfo, error) {
	stored, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]int, len(stored))
	for i, p := range stored {
		byID[p.ID] = i
	}

	m.mu.RLock()
	for id, state := range m.sessions {
		doc := state.Engine.Document()
		if i, ok := byID[id]; ok {
			if doc.Revision > stored[i].Revision {
				stored[i].Revision = doc.Revision
				stored[i].UpdatedAt = doc.UpdatedAt
			}
			continue
		}
		stored = append(stored, models.ProjectInfo{ID: id, Revision: doc.Revision, UpdatedAt: doc.UpdatedAt})
	}
	m.mu.RUnlock()

	sort.SliceStable(stored, func(i, j int) bool { return stored[i].UpdatedAt.After(stored[j].UpdatedAt) })
	return stored, nil
}

// Shutdown flushes every open project and the autosaver.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	states := make([]*State, 0, len(m.sessions))
	for _, s := range m.sessions {
		states = append(states, s)
	}
	m.sessions = make(map[string]*State)
	m.mu.Unlock()

	for _, s := range states {
		s.Engine.Close()
		s.Engine.Wait()
	}
	return m.saver.Close()
}
