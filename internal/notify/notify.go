// Package notify fans broadcast events out to several transports.
package notify

import (
	"context"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
)

// Multi delivers every event to each of its broadcasters in order.
type Multi []domain.Broadcaster

// New returns a Multi over the non-nil broadcasters.
func New(broadcasters ...domain.Broadcaster) Multi {
	out := make(Multi, 0, len(broadcasters))
	for _, b := range broadcasters {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

func (m Multi) BroadcastGlobal(ctx context.Context, event string, payload any) {
	for _, b := range m {
		b.BroadcastGlobal(ctx, event, payload)
	}
}

func (m Multi) BroadcastToGroup(ctx context.Context, group, event string, payload any) {
	for _, b := range m {
		b.BroadcastToGroup(ctx, group, event, payload)
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) BroadcastGlobal(context.Context, string, any)          {}
func (Discard) BroadcastToGroup(context.Context, string, string, any) {}
