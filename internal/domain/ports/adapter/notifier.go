package adapter

import "context"

// NotificationEvent names the member-facing events the core emits.
type NotificationEvent string

const (
	EventCommissionReceived NotificationEvent = "commission_received"
	EventPointsGranted      NotificationEvent = "points_granted"
	EventPointsConverted    NotificationEvent = "points_converted"
	EventTokenIssued        NotificationEvent = "token_issued"
)

// Notifier delivers member notifications fire-and-forget. Implementations
// must never block core logic on delivery success.
type Notifier interface {
	Notify(ctx context.Context, memberID string, event NotificationEvent, detail map[string]interface{})
}
