// Package sse streams server events to editor clients: persistence
// outcomes, external store changes and editor load commands.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/lectern/internal/metrics"
	"github.com/starford/lectern/internal/persist"
	"github.com/starford/lectern/internal/richtext"
)

// Event types published by the broker besides persistence outcomes.
const (
	TypeEditorLoad   = "editor.load"
	TypeGraphUpdated = "graph.updated"
)

const (
	defaultThrottle  = 2 * time.Second
	defaultHeartbeat = 15 * time.Second
	clientBuffer     = 64
)

// Event is one message on the stream. Data is sent as JSON.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// hub is the broker state. Only the loop goroutine touches it.
type hub struct {
	subs      map[chan []byte]struct{}
	seq       uint64
	lastGraph time.Time
	throttle  time.Duration
	metrics   *metrics.Metrics
}

func (h *hub) add(ch chan []byte) {
	h.subs[ch] = struct{}{}
	h.metrics.SSEClientDelta(1)
}

func (h *hub) remove(ch chan []byte) {
	if _, ok := h.subs[ch]; !ok {
		return
	}
	delete(h.subs, ch)
	close(ch)
	h.metrics.SSEClientDelta(-1)
}

func (h *hub) closeAll() {
	for ch := range h.subs {
		close(ch)
	}
	h.metrics.SSEClientDelta(-len(h.subs))
	h.subs = nil
}

// send frames ev with the next sequence number and offers it to every
// subscriber. A subscriber whose buffer is full misses the frame.
func (h *hub) send(ev Event) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return
	}
	h.seq++
	frame := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", h.seq, ev.Type, payload))
	for ch := range h.subs {
		select {
		case ch <- frame:
		default:
		}
	}
}

// graphChanged emits graph.updated unless one went out within the throttle window.
func (h *hub) graphChanged(now time.Time) {
	if now.Sub(h.lastGraph) < h.throttle {
		return
	}
	h.lastGraph = now
	h.send(Event{Type: TypeGraphUpdated, Data: map[string]string{}})
}

// Broker fans events out to SSE clients. All state lives in a hub owned
// by one goroutine; callers submit closures over cmds.
type Broker struct {
	heartbeat time.Duration
	h         *hub

	cmds   chan func(*hub)
	quit   chan struct{}
	done   chan struct{}
	closed atomic.Bool
}

// Option configures a Broker.
type Option func(*Broker)

// WithMetrics tracks connected clients.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Broker) { b.h.metrics = m }
}

// WithHeartbeat sets how often idle streams get a keepalive comment.
func WithHeartbeat(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.heartbeat = d
		}
	}
}

// NewBroker starts a broker. graphThrottle bounds how often graph.updated
// is sent for bursts of changes.
func NewBroker(graphThrottle time.Duration, opts ...Option) *Broker {
	if graphThrottle <= 0 {
		graphThrottle = defaultThrottle
	}
	b := &Broker{
		heartbeat: defaultHeartbeat,
		h: &hub{
			subs:     make(map[chan []byte]struct{}),
			throttle: graphThrottle,
		},
		cmds: make(chan func(*hub), 256),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	for _, o := range opts {
		o(b)
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.done)
	for {
		select {
		case <-b.quit:
			b.h.closeAll()
			return
		case cmd := <-b.cmds:
			cmd(b.h)
		}
	}
}

// post queues cmd without waiting for it to run.
func (b *Broker) post(cmd func(*hub)) bool {
	if b.closed.Load() {
		return false
	}
	select {
	case b.cmds <- cmd:
		return true
	case <-b.done:
		return false
	}
}

// call runs cmd on the loop and reports whether it ran before shutdown.
func (b *Broker) call(cmd func(*hub)) bool {
	ran := make(chan struct{})
	if !b.post(func(h *hub) { cmd(h); close(ran) }) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-b.done:
		select {
		case <-ran:
			return true
		default:
			return false
		}
	}
}

// Close stops the loop and closes every subscriber channel. Safe to call twice.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.quit)
	}
	<-b.done
}

// Subscribe registers a client. The channel is closed on Unsubscribe or
// Close; after Close it comes back already closed.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if !b.call(func(h *hub) { h.add(ch) }) {
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.call(func(h *hub) { h.remove(ch) })
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	var n int
	if !b.call(func(h *hub) { n = len(h.subs) }) {
		return 0
	}
	return n
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(ev Event) {
	b.post(func(h *hub) { h.send(ev) })
}

// Report implements persist.Reporter. Successful writes also mark the
// link graph as changed.
func (b *Broker) Report(e persist.Event) {
	b.post(func(h *hub) {
		h.send(Event{Type: e.Type, Data: e})
		if !e.Failed() {
			h.graphChanged(time.Now())
		}
	})
}

// PublishChange announces records of kind ("notes", "tags", ...) changed
// outside this process, followed by a throttled graph.updated.
func (b *Broker) PublishChange(kind, id string) {
	b.post(func(h *hub) {
		h.send(Event{
			Type: kind + ".changed",
			Data: map[string]string{"kind": kind, "id": id},
		})
		h.graphChanged(time.Now())
	})
}

// EditorWidget drives connected editors: loading a note into the session
// is broadcast as an editor.load event carrying the document.
type EditorWidget struct {
	Broker *Broker
}

func (w EditorWidget) SetContent(doc *richtext.Node) {
	w.Broker.Publish(Event{Type: TypeEditorLoad, Data: map[string]any{"content": doc}})
}

// ServeHTTP streams events to one client (GET /api/events) until the
// request is cancelled or the broker closes.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	tick := time.NewTicker(b.heartbeat)
	defer tick.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case frame, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
