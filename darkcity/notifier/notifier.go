// Package notifier delivers best-effort real-time events to connected actors.
package notifier

import (
	"log/slog"

	"github.com/veszto/darkcity/darkcity/presence"
)

type Notifier struct {
	registry *presence.Registry
}

func New(registry *presence.Registry) *Notifier {
	return &Notifier{registry: registry}
}

// NotifyActor delivers the payload to the actor if connected. Delivery is
// best effort: an offline actor or a failed send is logged and dropped, the
// game state change already happened.
func (n *Notifier) NotifyActor(actorID string, payload map[string]any) {
	conn, ok := n.registry.Get(actorID)
	if !ok {
		return
	}
	if err := conn.Send(payload); err != nil {
		slog.Warn("Failed to deliver notification",
			slog.String("type", "sys"),
			slog.String("actor_id", actorID),
			slog.String("error", err.Error()))
	}
}

// Broadcast delivers the payload to every connected actor.
func (n *Notifier) Broadcast(payload map[string]any) {
	for _, id := range n.registry.Snapshot() {
		n.NotifyActor(id, payload)
	}
}
