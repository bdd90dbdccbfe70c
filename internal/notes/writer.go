package notes

import (
	"context"
	"sync"
	"time"

	"github.com/xaenox/stickytab/internal/models"
	"github.com/xaenox/stickytab/internal/storage"
	"go.uber.org/zap"
)

const writeTimeout = 10 * time.Second

// writer persists note snapshots in the background. Only the newest queued
// snapshot is written; older ones that were never picked up are dropped.
type writer struct {
	store  storage.Storage
	logger *zap.Logger

	mu       sync.Mutex
	cond     *sync.Cond
	snapshot []models.Note
	queued   uint64
	written  uint64
	closed   bool
	kick     chan struct{}
	done     chan struct{}
}

func newWriter(store storage.Storage, logger *zap.Logger) *writer {
	w := &writer{
		store:  store,
		logger: logger,
		kick:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

// enqueue hands a snapshot to the background loop without waiting for it.
func (w *writer) enqueue(snapshot []models.Note) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.snapshot = snapshot
	w.queued++
	select {
	case w.kick <- struct{}{}:
	default:
	}
	w.mu.Unlock()
}

func (w *writer) run() {
	defer close(w.done)
	for range w.kick {
		w.mu.Lock()
		snapshot, gen, pending := w.snapshot, w.queued, w.queued > w.written
		w.mu.Unlock()

		if pending {
			w.write(snapshot)
		}

		w.mu.Lock()
		if gen > w.written {
			w.written = gen
		}
		w.cond.Broadcast()
		w.mu.Unlock()
	}
}

func (w *writer) write(snapshot []models.Note) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	start := time.Now()
	if err := w.store.Set(ctx, storage.ScopeLocal, map[string]any{models.KeyNotes: snapshot}); err != nil {
		// Best effort: the in-memory collection stays authoritative.
		w.logger.Warn("Failed to persist notes",
			zap.Error(err),
			zap.Int("count", len(snapshot)))
		return
	}
	w.logger.Debug("Persisted notes",
		zap.Int("count", len(snapshot)),
		zap.Duration("took", time.Since(start)))
}

// flush blocks until every snapshot queued before the call has been handled.
func (w *writer) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	target := w.queued
	for w.written < target {
		w.cond.Wait()
	}
}

func (w *writer) close() {
	w.flush()

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.kick)
	w.mu.Unlock()

	<-w.done
}
