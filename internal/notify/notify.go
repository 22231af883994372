// Package notify turns reconciled chat events into platform notification
// requests, coalescing bursts so one noisy chat alerts at most once per
// window. The platform itself (system tray, desktop daemon, mobile bridge)
// lives outside the core behind the Platform interface.
package notify

import "hash/fnv"

// PreviewMode controls how much content a notification exposes.
type PreviewMode string

const (
	PreviewMessage PreviewMode = "message" // sender and full text
	PreviewContact PreviewMode = "contact" // sender only
	PreviewHidden  PreviewMode = "hidden"  // generic placeholder
)

// Action marks notifications that need a user decision. They always alert,
// regardless of the coalescing window.
type Action string

const (
	ActionNone          Action = ""
	ActionAcceptContact Action = "accept_contact"
	ActionAnswerCall    Action = "answer_call"
)

// Notification ids reserved by the protocol with the platform layer.
const (
	// SummaryID is the per-group summary notification.
	SummaryID = 0
	// CallID is the single call-invitation slot.
	CallID = -1
)

// MessageGroup is the platform group all chat notifications belong to.
const MessageGroup = "echochat.messages"

// Notification is one emission request to the platform layer.
type Notification struct {
	ID      int
	Group   string
	Summary bool
	Silent  bool
	Title   string
	Body    string
	Action  Action
	ChatID  string
	UserID  int64
}

// Platform receives emission and cancellation requests.
type Platform interface {
	Notify(n Notification)
	Cancel(id int)
}

// ChatNtfID derives the stable platform notification id of a chat,
// steering clear of the reserved ids.
func ChatNtfID(chatID string) int {
	h := fnv.New32a()
	h.Write([]byte(chatID))
	id := int(int32(h.Sum32()))
	if id == SummaryID || id == CallID {
		id += 2
	}
	return id
}

// hiddenBody is shown in place of message content in hidden preview mode.
const hiddenBody = "new message"
