package server

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/playperu/wildkids/internal/notify"
)

// SSEEvent is one frame for an event stream.
type SSEEvent struct {
	Type string
	Data []byte
}

// Broker is an in-process pub/sub for SSE events, keyed by identity topic.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan SSEEvent]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan SSEEvent]struct{}),
	}
}

// Subscribe returns a channel that receives events for topic.
func (b *Broker) Subscribe(topic string) chan SSEEvent {
	ch := make(chan SSEEvent, 16)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[chan SSEEvent]struct{})
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the topic's subscribers.
func (b *Broker) Unsubscribe(topic string, ch chan SSEEvent) {
	b.mu.Lock()
	delete(b.subs[topic], ch)
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
	b.mu.Unlock()
}

// Subscribers counts the open streams of topic.
func (b *Broker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Publish JSON-encodes v and sends it to all subscribers of topic.
func (b *Broker) Publish(topic, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event, err)
	}
	b.mu.RLock()
	for ch := range b.subs[topic] {
		select {
		case ch <- SSEEvent{Type: event, Data: data}:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
	return nil
}

// Deliver publishes an achievement notification. It satisfies notify.Sink.
func (b *Broker) Deliver(topic string, n notify.Notification) error {
	return b.Publish(topic, "achievement", n)
}
