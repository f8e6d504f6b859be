package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event types published by the dashboard services.
const (
	TaskScheduled        = "task.scheduled"
	InsightsGenerated    = "insights.generated"
	SuggestionsGenerated = "suggestions.generated"
	ConfigReloaded       = "config.reloaded"
)

// Event is a lightweight, in-memory signal used to decouple components.
//
// Contract:
//   - Publish MUST be non-blocking.
//   - Subscribers MUST use buffered channels.
//   - Slow subscribers may drop events (bounded backpressure).
//
// Data should be small and JSON-serializable.
type Event struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data,omitempty"`
}

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// Nop is a Bus that discards everything. Subscribe returns a channel that is
// never written and closes on unsubscribe.
var Nop Bus = nopBus{}

type nopBus struct{}

func (nopBus) Publish(Event) {}

func (nopBus) Subscribe(int) (<-chan Event, func()) {
	ch := make(chan Event)
	var once sync.Once
	return ch, func() { once.Do(func() { close(ch) }) }
}

// New returns an in-memory fanout bus. It owns no goroutines.
func New() *MemBus {
	return &MemBus{subs: map[uint64]chan Event{}}
}

// MemBus is the in-memory Bus returned by New.
type MemBus struct {
	mu   sync.RWMutex
	subs map[uint64]chan Event
	seq  atomic.Uint64

	published atomic.Uint64
	dropped   atomic.Uint64
}

// Stats reports how many events were published and how many deliveries were
// dropped because a subscriber's buffer was full.
func (b *MemBus) Stats() (published, dropped uint64) {
	return b.published.Load(), b.dropped.Load()
}

func (b *MemBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.published.Add(1)
	// Sends never block, so holding the read lock is cheap. Unsubscribe
	// closes under the write lock, so no send can hit a closed channel.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

func (b *MemBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, unsub
}
