// Package taskhub broadcasts task-collection change notifications to
// interested services. Subscriptions are explicit handles with a cancel
// function, so a session teardown can release its listeners and leave no
// background work behind.
package taskhub

import (
	"sync"

	"go.uber.org/zap"
)

// Change describes one mutation of the task collection. Seq increases
// monotonically per hub so subscribers can discard stale wakeups; the
// payload is deliberately just the owner key, since consumers recompute
// from the authoritative store.
type Change struct {
	Seq   uint64
	Owner string
}

// Subscription is a live handle on the hub. C delivers change
// notifications; Cancel releases the handle and closes C. Cancel is safe to
// call more than once.
type Subscription struct {
	C      <-chan Change
	cancel func()
}

func (s *Subscription) Cancel() {
	if s != nil && s.cancel != nil {
		s.cancel()
	}
}

// Hub fans change notifications out to subscribers. Each subscriber channel
// is buffered one deep and holds only the freshest change: a slow consumer
// never sees an older snapshot after a newer one, it simply skips ahead.
type Hub struct {
	mu     sync.Mutex
	seq    uint64
	subs   map[int]chan Change
	nextID int
	closed bool
	logger *zap.Logger
}

func New(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[int]chan Change),
		logger: logger,
	}
}

// Subscribe registers a listener and returns its handle.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Change, 1)
	if h.closed {
		close(ch)
		return &Subscription{C: ch, cancel: func() {}}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
	return &Subscription{C: ch, cancel: cancel}
}

// NotifyTaskChange publishes a change. Implements usecase.ChangeNotifier.
func (h *Hub) NotifyTaskChange(owner string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	h.seq++
	change := Change{Seq: h.seq, Owner: owner}
	for _, ch := range h.subs {
		// Replace a pending older change with the fresher one.
		select {
		case ch <- change:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- change:
			default:
			}
		}
	}
}

// Close cancels every remaining subscription. Used as a shutdown hook.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.logger.Info("task hub closed")
}
