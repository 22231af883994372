package bus

import "time"

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Event kinds published by the core. Front-ends subscribe by namespace
// prefix, e.g. "chat." for everything touching the chat list.
const (
	KindChatUpdated       = "chat.updated"
	KindChatRemoved       = "chat.removed"
	KindItemUpserted      = "item.upserted"
	KindItemRemoved       = "item.removed"
	KindNetworkStatus     = "chat.network_status"
	KindUserUnreadChanged = "user.unread_changed"
	KindActiveUserChanged = "user.active_changed"
	KindCallStateChanged  = "call.state_changed"
	KindCallInvitation    = "call.invitation"
	KindNotification      = "ntf.emitted"
	KindNotificationGone  = "ntf.cancelled"
	KindEngineStopped     = "engine.stopped"
)
