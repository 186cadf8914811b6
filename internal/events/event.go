// Package events publishes rental lifecycle events to the message broker.
package events

import (
	"context"
	"sync"
	"time"
)

const (
	TypeRented  = "trolley.rented"
	TypeUpdated = "trolley.updated"
	TypeDeleted = "trolley.deleted"
)

// Event describes a change to a rental after it was committed.
type Event struct {
	Type          string    `json:"type"`
	BalanceNumber string    `json:"balanceNumber"`
	TrolleyNumber string    `json:"trolleyNumber"`
	IsOutside     bool      `json:"isOutside"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events in publish order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
