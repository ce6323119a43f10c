// Package watch provides change notification for a shmkv store. There is
// no push channel in the region itself: a Watcher polls the store's
// version counter and emits an Event per observed change. Intermediate
// versions between two polls are not recoverable, only that something
// changed.
package watch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/panjf2000/ants/v2"

	"github.com/srediag/shmkv/internal/logger"
	"github.com/srediag/shmkv/pkg/shmkv"
)

// Event is one observed change of the shared table.
type Event struct {
	Version    uint32
	EntryCount uint32
}

// Handler consumes events. Handlers run on a shared goroutine pool and
// must not block indefinitely.
type Handler func(Event)

// Config tunes a Watcher.
type Config struct {
	// Interval is the poll period for the version counter.
	Interval time.Duration
	// QueueCap bounds the pending-event ring buffer. When the buffer is
	// full the poller holds the change back and offers it again on the
	// next tick; versions coalesce, so backpressure delays, never loses,
	// the "something changed" signal.
	QueueCap uint64
	// Workers sizes the handler dispatch pool.
	Workers int
}

// DefaultConfig returns the configuration used by the demo processes.
func DefaultConfig() Config {
	return Config{
		Interval: 200 * time.Millisecond,
		QueueCap: 64,
		Workers:  4,
	}
}

// VerifyConfig rejects configurations the Watcher cannot run with.
func VerifyConfig(cfg Config) error {
	if cfg.Interval <= 0 {
		return errors.New("watch: interval must be positive")
	}
	if cfg.QueueCap == 0 {
		return errors.New("watch: queue capacity must be positive")
	}
	if cfg.Workers <= 0 {
		return errors.New("watch: worker count must be positive")
	}
	return nil
}

// Watcher polls one store and fans observed changes out to subscribers.
type Watcher struct {
	store   *shmkv.Store
	cfg     Config
	pending *queue.RingBuffer
	pool    *ants.Pool

	mu       sync.Mutex
	handlers []Handler

	closeOnce sync.Once
	done      chan struct{}
}

// New builds a Watcher over the given store handle.
func New(store *shmkv.Store, cfg Config) (*Watcher, error) {
	if err := VerifyConfig(cfg); err != nil {
		return nil, err
	}
	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		store:   store,
		cfg:     cfg,
		pending: queue.NewRingBuffer(cfg.QueueCap),
		pool:    pool,
		done:    make(chan struct{}),
	}
	go w.dispatch()
	return w, nil
}

// Subscribe registers a handler for future events.
func (w *Watcher) Subscribe(h Handler) {
	w.mu.Lock()
	w.handlers = append(w.handlers, h)
	w.mu.Unlock()
}

// Run polls until ctx is done, dispatching events to subscribers. It
// returns nil on cooperative shutdown; cancellation governs only whether
// the next poll is attempted, never an in-flight one.
func (w *Watcher) Run(ctx context.Context) error {
	last := w.store.Version()
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.Close()
			return nil
		case <-ticker.C:
			v := w.store.Version()
			if v == last {
				continue
			}
			ev := Event{Version: v, EntryCount: w.store.EntryCount()}
			ok, err := w.pending.Offer(ev)
			if err != nil {
				// Ring disposed under us; Close already ran.
				return nil
			}
			if !ok {
				// Ring full: leave last where it is so the change is
				// offered again on the next tick instead of being lost.
				logger.Default.Warnf("watch %q: event queue full, retrying version %d next tick", w.store.Name(), v)
				continue
			}
			last = v
		}
	}
}

func (w *Watcher) dispatch() {
	defer close(w.done)
	for {
		item, err := w.pending.Get()
		if err != nil {
			return
		}
		ev, ok := item.(Event)
		if !ok {
			continue
		}
		w.mu.Lock()
		handlers := make([]Handler, len(w.handlers))
		copy(handlers, w.handlers)
		w.mu.Unlock()
		for _, h := range handlers {
			h := h
			if err := w.pool.Submit(func() { h(ev) }); err != nil {
				// Pool released during shutdown; deliver the last events
				// inline rather than dropping them.
				h(ev)
			}
		}
	}
}

// Close stops the watcher and releases the dispatch pool. Safe to call
// more than once.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		w.pending.Dispose()
		<-w.done
		w.pool.Release()
	})
}
