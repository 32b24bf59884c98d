package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/library/internal/events"
	"github.com/Skotchmaster/library/pkg/logging"
)

// publish emits ev after commit. Failures are logged only.
func publish(ctx context.Context, pub events.Publisher, ev events.Event) {
	if pub == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := pub.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", ev.Type, "key", ev.Key, "error", err)
	}
}
