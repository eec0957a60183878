// Package broadcast keeps the set of live observers and pushes change
// events to them.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ahmetcoskunkizilkaya/jobtracker-backend/internal/models"
)

var (
	ErrHubClosed = errors.New("broadcast hub closed")
	// ErrObserverDropped means the observer left the live set while its
	// snapshot was loading, either unregistered or overrun by events. It
	// received nothing and should reconnect.
	ErrObserverDropped = errors.New("observer dropped before initial snapshot")
)

// Observer is one push-channel connection. Send is only ever called from
// a single goroutine per observer and should give up on a stalled peer.
type Observer interface {
	ID() string
	Send(Event) error
}

// SnapshotFunc loads the full current record set for a new observer.
type SnapshotFunc func(ctx context.Context) ([]models.Application, error)

type client struct {
	observer Observer
	queue    chan Event
	initial  Event
	done     chan struct{}
	once     sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// Hub owns the observer set. Publish never blocks: each observer has a
// bounded queue drained by its own writer goroutine, and an observer whose
// queue is full or whose Send fails is dropped.
type Hub struct {
	snapshot SnapshotFunc
	buffer   int

	mu      sync.RWMutex
	clients map[Observer]*client
	closed  bool
	wg      sync.WaitGroup
}

func NewHub(snapshot SnapshotFunc, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		snapshot: snapshot,
		buffer:   buffer,
		clients:  make(map[Observer]*client),
	}
}

// Register adds the observer and delivers an INITIAL_DATA snapshot before
// any event published after this call began. The observer joins the live
// set before the snapshot is read, so no concurrent mutation can slip
// between the two.
func (h *Hub) Register(ctx context.Context, obs Observer) error {
	c := &client{
		observer: obs,
		queue:    make(chan Event, h.buffer),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	if old, ok := h.clients[obs]; ok {
		old.stop()
	}
	h.clients[obs] = c
	h.mu.Unlock()

	apps, err := h.snapshot(ctx)
	if err != nil {
		h.remove(obs, c)
		return fmt.Errorf("load snapshot: %w", err)
	}
	c.initial = InitialData(apps)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.stop()
		return ErrHubClosed
	}
	if cur, ok := h.clients[obs]; !ok || cur != c {
		h.mu.Unlock()
		c.stop()
		return ErrObserverDropped
	}
	h.wg.Add(1)
	h.mu.Unlock()

	go h.writeLoop(c)

	slog.Info("observer registered", "observer", obs.ID(), "records", len(apps))
	return nil
}

// Unregister removes the observer. Safe to call repeatedly or for an
// observer that was never registered.
func (h *Hub) Unregister(obs Observer) {
	h.mu.Lock()
	c, ok := h.clients[obs]
	if ok {
		delete(h.clients, obs)
	}
	h.mu.Unlock()

	if ok {
		c.stop()
		slog.Info("observer unregistered", "observer", obs.ID())
	}
}

// Publish hands the event to every observer currently registered.
func (h *Hub) Publish(ev Event) {
	var dropped []*client

	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.queue <- ev:
		default:
			dropped = append(dropped, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range dropped {
		slog.Warn("dropping slow observer", "observer", c.observer.ID(), "event", ev.Type)
		h.remove(c.observer, c)
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close drops every observer and waits for their writers to exit.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[Observer]*client)
	h.mu.Unlock()

	for _, c := range clients {
		c.stop()
	}
	h.wg.Wait()
}

// remove deletes obs only if it still maps to c, so a stale writer cannot
// evict a re-registration of the same observer.
func (h *Hub) remove(obs Observer, c *client) {
	h.mu.Lock()
	if cur, ok := h.clients[obs]; ok && cur == c {
		delete(h.clients, obs)
	}
	h.mu.Unlock()
	c.stop()
}

func (h *Hub) writeLoop(c *client) {
	defer h.wg.Done()

	if err := c.observer.Send(c.initial); err != nil {
		slog.Warn("initial snapshot delivery failed", "observer", c.observer.ID(), "error", err)
		h.remove(c.observer, c)
		return
	}

	for {
		select {
		case <-c.done:
			return
		case ev := <-c.queue:
			if err := c.observer.Send(ev); err != nil {
				slog.Warn("event delivery failed", "observer", c.observer.ID(), "event", ev.Type, "error", err)
				h.remove(c.observer, c)
				return
			}
		}
	}
}
