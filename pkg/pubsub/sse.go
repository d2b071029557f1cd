package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/panelwise/panelwright/pkg/logging"
)

// subscriberBuffer is the per-subscription channel depth. A stalled
// client drops events rather than blocking the recalculation pipeline.
const subscriberBuffer = 64

// TopicConfig sets the retention window replayed to subscribers that
// connect after events were published.
type TopicConfig struct {
	BufferSize int  // events retained for replay; 0 disables retention
	ReplayAll  bool // replay the whole window, not just the latest event
}

// SSEPublisher fans calculation events out to event-stream subscribers.
// Each topic carries its own sequence counter and retention window.
type SSEPublisher struct {
	mu       sync.RWMutex
	subs     map[string]map[*sseSubscription]bool
	seq      map[string]int
	retained map[string][]Event
	config   map[string]TopicConfig
	closed   bool
}

// NewSSEPublisher creates a publisher with no configured topics.
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{
		subs:     make(map[string]map[*sseSubscription]bool),
		seq:      make(map[string]int),
		retained: make(map[string][]Event),
		config:   make(map[string]TopicConfig),
	}
}

// ConfigureTopic sets the retention window for a topic.
func (p *SSEPublisher) ConfigureTopic(topic string, cfg TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config[topic] = cfg
}

// Subscribe registers a subscription and replays retained events to it.
// Cancelling the context closes the subscription.
func (p *SSEPublisher) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("publisher is closed")
	}

	sub := &sseSubscription{
		topic:  topic,
		events: make(chan Event, subscriberBuffer),
		pub:    p,
	}
	if p.subs[topic] == nil {
		p.subs[topic] = make(map[*sseSubscription]bool)
	}
	p.subs[topic][sub] = true

	replay := p.replayWindow(topic)
	p.mu.Unlock()

	for _, event := range replay {
		sub.send(event)
	}
	if len(replay) > 0 {
		logging.Debug("replayed retained events", "topic", topic, "count", len(replay))
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()
	return sub, nil
}

// replayWindow returns the retained events a new subscriber should see.
// Callers must hold p.mu.
func (p *SSEPublisher) replayWindow(topic string) []Event {
	retained := p.retained[topic]
	if len(retained) == 0 {
		return nil
	}
	if !p.config[topic].ReplayAll {
		retained = retained[len(retained)-1:]
	}
	out := make([]Event, len(retained))
	copy(out, retained)
	return out
}

// Publish sequences one event, retains it per the topic config, and
// fans it out to the current subscribers.
func (p *SSEPublisher) Publish(topic string, eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("publisher is closed")
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}
	p.seq[topic]++
	event := Event{
		Topic:   topic,
		Type:    eventType,
		Data:    payload,
		Version: p.seq[topic],
	}

	if window := p.config[topic].BufferSize; window > 0 {
		retained := append(p.retained[topic], event)
		if len(retained) > window {
			retained = retained[len(retained)-window:]
		}
		p.retained[topic] = retained
	}

	for sub := range p.subs[topic] {
		sub.send(event)
	}
	return nil
}

// Close shuts down the publisher and every subscription channel.
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	for _, subs := range p.subs {
		for sub := range subs {
			close(sub.events)
		}
	}
	p.subs = make(map[string]map[*sseSubscription]bool)
	return nil
}

func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if subs := p.subs[sub.topic]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(p.subs, sub.topic)
		}
	}
}

// sseSubscription is one client's channel onto a topic.
type sseSubscription struct {
	topic  string
	events chan Event
	pub    *SSEPublisher
	once   sync.Once
}

func (s *sseSubscription) Topic() string { return s.topic }

func (s *sseSubscription) Events() <-chan Event { return s.events }

// Close detaches the subscription from the publisher. The channel is
// closed by the publisher, not here.
func (s *sseSubscription) Close() error {
	s.once.Do(func() { s.pub.unsubscribe(s) })
	return nil
}

// send delivers without blocking; a full channel drops the event.
func (s *sseSubscription) send(event Event) {
	select {
	case s.events <- event:
	default:
		logging.Warn("subscriber channel full, dropping event",
			"topic", s.topic, "version", event.Version)
	}
}

// WriteSSE writes one event in text/event-stream framing.
func WriteSSE(w io.Writer, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal SSE frame: %w", err)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
