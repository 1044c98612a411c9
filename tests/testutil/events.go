package testutil

import (
	"context"
	"sync"

	"github.com/dimitrije/trainerhub/internal/events"
)

// EventRecorder is an events.Publisher that keeps everything it receives.
type EventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *EventRecorder) Publish(_ context.Context, event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// OfType returns the recorded events of type t in publish order.
func (r *EventRecorder) OfType(t events.Type) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
