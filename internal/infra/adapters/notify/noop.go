package notify

import (
	"context"

	"esengo-membership/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier is used when no Telegram token is configured, and in tests.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, string, adapter.NotificationEvent, map[string]interface{}) {
}
