package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the calculation pipeline.
const (
	TopicProjectStatus = "project_status"
	TopicLoadResult    = "load_result"
	TopicTopology      = "topology"
	TopicLayout        = "layout"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "project_status", "load_result")
	Type    string          `json:"type"`    // Event type (e.g., "loading", "recalculated", "invalid")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// ProjectStatus reports where the pipeline is after a project change.
type ProjectStatus struct {
	State   string `json:"state"`   // loading, validating, calculating, ready, invalid
	Message string `json:"message"` // Human-readable status message
	Step    int    `json:"step"`    // Current step number (1-based)
	Total   int    `json:"total"`   // Total number of steps
}

// TopologySummary is the light-weight payload pushed on topology changes;
// clients fetch the full tree over the REST surface.
type TopologySummary struct {
	PanelCount       int  `json:"panel_count"`
	TransformerCount int  `json:"transformer_count"`
	AdvisoryCount    int  `json:"advisory_count"`
	Valid            bool `json:"valid"`
}
