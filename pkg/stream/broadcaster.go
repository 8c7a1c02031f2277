// Package stream fans generation events out to SSE subscribers. A single
// Broadcaster owns the bounded event history and the subscriber registry;
// producers hand events off through a queue drained by one goroutine, so
// per-producer emission order is preserved end to end.
package stream

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/ravi-parthasarathy/webforge/pkg/events"
	"github.com/ravi-parthasarathy/webforge/pkg/metrics"
)

const (
	// DefaultHistoryLimit bounds the replay buffer.
	DefaultHistoryLimit = 1000

	subscriberBuffer = 64
	inboxBuffer      = 256
)

// Filter selects which events a subscriber receives. Unset fields match
// everything. The model filter is lenient: events that carry no model name
// pass regardless, so run-level narration is never hidden by it.
type Filter struct {
	ProjectID      string
	ConversationID string
	ModelName      string
}

// Matches reports whether env passes the filter.
func (f Filter) Matches(env events.Envelope) bool {
	if f.ProjectID != "" && env.ProjectID != f.ProjectID {
		return false
	}
	if f.ConversationID != "" && env.ConversationID != f.ConversationID {
		return false
	}
	if f.ModelName != "" && env.ModelName != "" && !strings.EqualFold(f.ModelName, env.ModelName) {
		return false
	}
	return true
}

// Subscription is one registered consumer. Events arrive on a buffered
// channel; a consumer that stops draining loses events, never blocks others.
type Subscription struct {
	id     uint64
	filter Filter
	ch     chan events.Envelope
}

// Events returns the subscription's delivery channel.
func (s *Subscription) Events() <-chan events.Envelope {
	return s.ch
}

// Broadcaster is the in-process event hub. All mutation of the registry and
// history happens under mu; delivery is best-effort and never blocks.
type Broadcaster struct {
	mu           sync.Mutex
	nextID       uint64
	subs         map[uint64]*Subscription
	history      []events.Envelope
	historyLimit int

	inbox chan events.Envelope
}

// New creates a Broadcaster whose history holds at most historyLimit events.
// Non-positive limits fall back to DefaultHistoryLimit.
func New(historyLimit int) *Broadcaster {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Broadcaster{
		subs:         make(map[uint64]*Subscription),
		history:      make([]events.Envelope, 0, historyLimit),
		historyLimit: historyLimit,
		inbox:        make(chan events.Envelope, inboxBuffer),
	}
}

// Run drains the handoff queue until ctx is canceled. Exactly one Run per
// Broadcaster; it is the only goroutine that calls Publish for enqueued
// events, which keeps enqueue order and history order identical.
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-b.inbox:
			b.Publish(env)
		}
	}
}

// Enqueue hands an event to the drain goroutine without blocking the
// producer. If the queue is full the event is dropped with a warning.
func (b *Broadcaster) Enqueue(env events.Envelope) {
	select {
	case b.inbox <- env:
	default:
		slog.Warn("event queue full, dropping event",
			"event_type", env.EventType, "project_id", env.ProjectID)
		metrics.DroppedDeliveries.Inc()
	}
}

// Register adds a subscriber and returns its subscription. Registration
// never blocks event flow.
func (b *Broadcaster) Register(f Filter) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registerLocked(f)
}

// RegisterWithHistory snapshots the retained events matching f and registers
// a subscriber under one lock. Every event published afterwards arrives on
// the subscription channel, so replay plus live delivery covers each event
// exactly once.
func (b *Broadcaster) RegisterWithHistory(f Filter) (*Subscription, []events.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registerLocked(f), b.historyLocked(f)
}

func (b *Broadcaster) registerLocked(f Filter) *Subscription {
	b.nextID++
	sub := &Subscription{
		id:     b.nextID,
		filter: f,
		ch:     make(chan events.Envelope, subscriberBuffer),
	}
	b.subs[sub.id] = sub
	metrics.ActiveStreams.Inc()
	return sub
}

// Unregister removes a subscriber. Safe to call more than once.
func (b *Broadcaster) Unregister(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub.id]; !ok {
		return
	}
	delete(b.subs, sub.id)
	metrics.ActiveStreams.Dec()
}

// Publish appends env to the history, evicting the oldest entry past the
// limit, then delivers it to every matching subscriber. Delivery is
// best-effort: a full subscriber buffer drops that delivery only.
func (b *Broadcaster) Publish(env events.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.history = append(b.history, env)
	if len(b.history) > b.historyLimit {
		b.history = b.history[1:]
	}
	metrics.EventsPublished.WithLabelValues(string(env.EventType)).Inc()

	for _, sub := range b.subs {
		if !sub.filter.Matches(env) {
			continue
		}
		select {
		case sub.ch <- env:
		default:
			metrics.DroppedDeliveries.Inc()
			slog.Warn("subscriber buffer full, dropping delivery",
				"event_type", env.EventType, "subscriber", sub.id)
		}
	}
}

// HistoricalEvents returns the retained events matching f, oldest first.
func (b *Broadcaster) HistoricalEvents(f Filter) []events.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.historyLocked(f)
}

func (b *Broadcaster) historyLocked(f Filter) []events.Envelope {
	out := make([]events.Envelope, 0, len(b.history))
	for _, env := range b.history {
		if f.Matches(env) {
			out = append(out, env)
		}
	}
	return out
}
