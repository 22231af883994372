package chat

import "time"

// ChatInfoType discriminates the conversation kinds.
type ChatInfoType string

const (
	InfoDirect            ChatInfoType = "direct"
	InfoGroup             ChatInfoType = "group"
	InfoContactRequest    ChatInfoType = "contactRequest"
	InfoContactConnection ChatInfoType = "contactConnection"
)

// ChatInfo is the tagged union identifying a conversation. Exactly one of
// the payload fields matching Type is set.
type ChatInfo struct {
	Type              ChatInfoType              `json:"type"`
	Contact           *Contact                  `json:"contact,omitempty"`
	GroupInfo         *GroupInfo                `json:"groupInfo,omitempty"`
	ContactRequest    *UserContactRequest       `json:"contactRequest,omitempty"`
	ContactConnection *PendingContactConnection `json:"contactConnection,omitempty"`
}

// DirectInfo wraps a contact as a ChatInfo.
func DirectInfo(ct Contact) ChatInfo {
	return ChatInfo{Type: InfoDirect, Contact: &ct}
}

// GroupChatInfo wraps a group as a ChatInfo.
func GroupChatInfo(g GroupInfo) ChatInfo {
	return ChatInfo{Type: InfoGroup, GroupInfo: &g}
}

// ContactRequestInfo wraps an inbound contact request as a ChatInfo.
func ContactRequestInfo(cr UserContactRequest) ChatInfo {
	return ChatInfo{Type: InfoContactRequest, ContactRequest: &cr}
}

// ContactConnectionInfo wraps a pending connection as a ChatInfo.
func ContactConnectionInfo(pcc PendingContactConnection) ChatInfo {
	return ChatInfo{Type: InfoContactConnection, ContactConnection: &pcc}
}

// ID returns the stable chat identifier, or "" for a malformed value.
func (ci ChatInfo) ID() ChatID {
	switch ci.Type {
	case InfoDirect:
		if ci.Contact != nil {
			return ci.Contact.ID()
		}
	case InfoGroup:
		if ci.GroupInfo != nil {
			return ci.GroupInfo.ID()
		}
	case InfoContactRequest:
		if ci.ContactRequest != nil {
			return ci.ContactRequest.ID()
		}
	case InfoContactConnection:
		if ci.ContactConnection != nil {
			return ci.ContactConnection.ID()
		}
	}
	return ""
}

// DisplayName returns the user-facing conversation name.
func (ci ChatInfo) DisplayName() string {
	switch ci.Type {
	case InfoDirect:
		if ci.Contact != nil {
			return ci.Contact.DisplayName()
		}
	case InfoGroup:
		if ci.GroupInfo != nil {
			return ci.GroupInfo.DisplayName()
		}
	case InfoContactRequest:
		if ci.ContactRequest != nil {
			return ci.ContactRequest.DisplayName()
		}
	case InfoContactConnection:
		if ci.ContactConnection != nil {
			return "connection " + ci.ContactConnection.ID()
		}
	}
	return ""
}

// NtfsEnabled reports whether the conversation allows message notifications.
// Requests and pending connections never notify through the message channel.
func (ci ChatInfo) NtfsEnabled() bool {
	switch ci.Type {
	case InfoDirect:
		return ci.Contact != nil && ci.Contact.ChatSettings.EnableNtfs
	case InfoGroup:
		return ci.GroupInfo != nil && ci.GroupInfo.ChatSettings.EnableNtfs
	default:
		return false
	}
}

// UpdatedAt returns the engine's last-modified instant for the conversation.
func (ci ChatInfo) UpdatedAt() time.Time {
	switch ci.Type {
	case InfoDirect:
		if ci.Contact != nil {
			return ci.Contact.UpdatedAt
		}
	case InfoGroup:
		if ci.GroupInfo != nil {
			return ci.GroupInfo.UpdatedAt
		}
	case InfoContactRequest:
		if ci.ContactRequest != nil {
			return ci.ContactRequest.UpdatedAt
		}
	case InfoContactConnection:
		if ci.ContactConnection != nil {
			return ci.ContactConnection.UpdatedAt
		}
	}
	return time.Time{}
}

// ChatStats tracks unread state for one conversation.
type ChatStats struct {
	UnreadCount     int   `json:"unreadCount"`
	MinUnreadItemID int64 `json:"minUnreadItemId"`
}

// Chat is one conversation: its identity, its ordered items and counters.
// Item order is engine-assigned; the reconciler only inserts, updates and
// removes by item id.
type Chat struct {
	ChatInfo      ChatInfo      `json:"chatInfo"`
	ChatItems     []ChatItem    `json:"chatItems"`
	ChatStats     ChatStats     `json:"chatStats"`
	NetworkStatus NetworkStatus `json:"-"`
}

// ID returns the conversation identifier.
func (c Chat) ID() ChatID { return c.ChatInfo.ID() }
