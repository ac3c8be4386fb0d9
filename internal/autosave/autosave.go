// Package autosave persists scene documents on a debounce: every committed
// change reschedules a save, and only the newest document per project is
// written once changes stop for the configured delay.
package autosave

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/wedding-planner/backend/internal/models"
)

// DefaultDelay is the debounce window.
const DefaultDelay = 1500 * time.Millisecond

// Saver writes a scene document.
type Saver interface {
	Save(ctx context.Context, doc models.SceneDocument) error
}

type pending struct {
	doc   models.SceneDocument
	timer *time.Timer
	seq   uint64
	epoch uint64
}

// Autosaver debounces saves per project.
type Autosaver struct {
	store       Saver
	delay       time.Duration
	saveTimeout time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	pending map[string]*pending
	epochs  map[string]uint64 // bumped by Forget
	seq     uint64
	closed  bool

	saveMu    sync.Mutex
	lastSaved map[string]int64
	wg        sync.WaitGroup
}

// New creates an autosaver. A non-positive delay uses DefaultDelay.
func New(store Saver, delay time.Duration, logger *slog.Logger) *Autosaver {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Autosaver{
		store:       store,
		delay:       delay,
		saveTimeout: 30 * time.Second,
		logger:      logger,
		pending:     make(map[string]*pending),
		epochs:      make(map[string]uint64),
		lastSaved:   make(map[string]int64),
	}
}

// Schedule queues doc for saving after the debounce delay, replacing any
// document already queued for the same project.
func (a *Autosaver) Schedule(doc models.SceneDocument) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || doc.ProjectID == "" {
		return
	}

	a.seq++
	seq := a.seq
	if p, ok := a.pending[doc.ProjectID]; ok {
		p.timer.Stop()
	}
	id := doc.ProjectID
	a.pending[id] = &pending{
		doc:   doc,
		seq:   seq,
		epoch: a.epochs[id],
		timer: time.AfterFunc(a.delay, func() {
			a.fire(id, seq)
		}),
	}
}

func (a *Autosaver) fire(projectID string, seq uint64) {
	a.mu.Lock()
	p, ok := a.pending[projectID]
	if !ok || p.seq != seq {
		a.mu.Unlock()
		return
	}
	delete(a.pending, projectID)
	a.wg.Add(1)
	a.mu.Unlock()

	defer a.wg.Done()
	if err := a.save(p.doc, p.epoch); err != nil {
		a.logger.Error("autosave failed", "project", projectID, "revision", p.doc.Revision, "error", err)
	}
}

// Pending reports whether a save is queued for the project.
func (a *Autosaver) Pending(projectID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.pending[projectID]
	return ok
}

// Flush writes the queued document for a project immediately.
func (a *Autosaver) Flush(projectID string) error {
	a.mu.Lock()
	p, ok := a.pending[projectID]
	if ok {
		p.timer.Stop()
		delete(a.pending, projectID)
	}
	a.mu.Unlock()
	if !ok {
		return nil
	}
	return a.save(p.doc, p.epoch)
}

// FlushAll writes every queued document.
func (a *Autosaver) FlushAll() error {
	a.mu.Lock()
	ids := make([]string, 0, len(a.pending))
	for id := range a.pending {
		ids = append(ids, id)
	}
	a.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := a.Flush(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close flushes everything, waits for in-flight saves and rejects further
// scheduling.
func (a *Autosaver) Close() error {
	err := a.FlushAll()
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.wg.Wait()
	return err
}

// save writes doc unless a newer revision of the project was already saved
// or the project was forgotten after doc was queued.
func (a *Autosaver) save(doc models.SceneDocument, epoch uint64) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.Lock()
	current := a.epochs[doc.ProjectID]
	a.mu.Unlock()
	if current != epoch {
		a.logger.Debug("skipping autosave of forgotten project", "project", doc.ProjectID, "revision", doc.Revision)
		return nil
	}

	if last, ok := a.lastSaved[doc.ProjectID]; ok && doc.Revision < last {
		a.logger.Debug("skipping stale autosave", "project", doc.ProjectID, "revision", doc.Revision, "saved", last)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.saveTimeout)
	defer cancel()
	if err := a.store.Save(ctx, doc); err != nil {
		return err
	}
	a.lastSaved[doc.ProjectID] = doc.Revision
	a.logger.Debug("scene autosaved", "project", doc.ProjectID, "revision", doc.Revision)
	return nil
}

// Forget drops a project's queued save and bookkeeping, e.g. after deletion.
// A save already in flight finishes before Forget returns; one that was
// dequeued but not yet started is skipped.
func (a *Autosaver) Forget(projectID string) {
	a.mu.Lock()
	a.epochs[projectID]++
	if p, ok := a.pending[projectID]; ok {
		p.timer.Stop()
		delete(a.pending, projectID)
	}
	a.mu.Unlock()

	a.saveMu.Lock()
	delete(a.lastSaved, projectID)
	a.saveMu.Unlock()
}
