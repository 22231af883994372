package chat

import (
	"encoding/json"
	"time"
)

// CIDirectionType discriminates item directions.
type CIDirectionType string

const (
	DirDirectSnd CIDirectionType = "directSnd"
	DirDirectRcv CIDirectionType = "directRcv"
	DirGroupSnd  CIDirectionType = "groupSnd"
	DirGroupRcv  CIDirectionType = "groupRcv"
)

// CIDirection says who produced a chat item; group receives carry the member.
type CIDirection struct {
	Type        CIDirectionType `json:"type"`
	GroupMember *GroupMember    `json:"groupMember,omitempty"`
}

// Sent reports whether the item was produced locally.
func (d CIDirection) Sent() bool {
	return d.Type == DirDirectSnd || d.Type == DirGroupSnd
}

// CIStatusType discriminates delivery/read states.
type CIStatusType string

const (
	StatusSndNew       CIStatusType = "sndNew"
	StatusSndSent      CIStatusType = "sndSent"
	StatusSndErrorAuth CIStatusType = "sndErrorAuth"
	StatusSndError     CIStatusType = "sndError"
	StatusRcvNew       CIStatusType = "rcvNew"
	StatusRcvRead      CIStatusType = "rcvRead"
)

// CIStatus is the delivery/read state of a chat item.
type CIStatus struct {
	Type       CIStatusType    `json:"type"`
	AgentError *AgentErrorType `json:"agentError,omitempty"`
}

// CIDeleteMode says whether a deletion is local or propagated to peers.
type CIDeleteMode string

const (
	DeleteModeInternal  CIDeleteMode = "internal"
	DeleteModeBroadcast CIDeleteMode = "broadcast"
)

// MsgContentType discriminates message payloads.
type MsgContentType string

const (
	MCText    MsgContentType = "text"
	MCLink    MsgContentType = "link"
	MCImage   MsgContentType = "image"
	MCVoice   MsgContentType = "voice"
	MCFile    MsgContentType = "file"
	MCUnknown MsgContentType = "unknown"
)

// LinkPreview accompanies link content.
type LinkPreview struct {
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// MsgContent is the payload of a message. Unknown content kinds keep their
// raw JSON so they can be re-sent or displayed as text.
type MsgContent struct {
	Type     MsgContentType  `json:"type"`
	Text     string          `json:"text"`
	Preview  *LinkPreview    `json:"preview,omitempty"`
	Image    string          `json:"image,omitempty"`
	Duration int             `json:"duration,omitempty"`
	Raw      json.RawMessage `json:"-"`
}

// TextMsgContent builds plain text content.
func TextMsgContent(text string) MsgContent {
	return MsgContent{Type: MCText, Text: text}
}

// CIContentType discriminates chat-item content kinds.
type CIContentType string

const (
	ContentSndMsg          CIContentType = "sndMsgContent"
	ContentRcvMsg          CIContentType = "rcvMsgContent"
	ContentSndDeleted      CIContentType = "sndDeleted"
	ContentRcvDeleted      CIContentType = "rcvDeleted"
	ContentSndCall         CIContentType = "sndCall"
	ContentRcvCall         CIContentType = "rcvCall"
	ContentRcvIntegrityErr CIContentType = "rcvIntegrityError"
	ContentRcvGroupInv     CIContentType = "rcvGroupInvitation"
	ContentSndGroupInv     CIContentType = "sndGroupInvitation"
	ContentRcvGroupEvent   CIContentType = "rcvGroupEvent"
	ContentSndGroupEvent   CIContentType = "sndGroupEvent"
)

// CICallStatus is the call status rendered inside a call chat item.
type CICallStatus string

const (
	CICallPending    CICallStatus = "pending"
	CICallMissed     CICallStatus = "missed"
	CICallRejected   CICallStatus = "rejected"
	CICallAccepted   CICallStatus = "accepted"
	CICallNegotiated CICallStatus = "negotiated"
	CICallProgress   CICallStatus = "progress"
	CICallEnded      CICallStatus = "ended"
	CICallError      CICallStatus = "error"
)

// CIGroupInvitation is the payload of a received group invitation item.
type CIGroupInvitation struct {
	GroupID          int64        `json:"groupId"`
	GroupMemberID    int64        `json:"groupMemberId"`
	LocalDisplayName string       `json:"localDisplayName"`
	GroupProfile     GroupProfile `json:"groupProfile"`
	Status           string       `json:"status"`
}

// CIContent is the tagged union of chat-item content.
type CIContent struct {
	Type            CIContentType      `json:"type"`
	MsgContent      *MsgContent        `json:"msgContent,omitempty"`
	DeleteMode      CIDeleteMode       `json:"deleteMode,omitempty"`
	CallStatus      CICallStatus       `json:"status,omitempty"`
	CallDuration    int                `json:"duration,omitempty"`
	GroupInvitation *CIGroupInvitation `json:"groupInvitation,omitempty"`
	MemberRole      GroupMemberRole    `json:"memberRole,omitempty"`
}

// Text returns the displayable text of the content.
func (c CIContent) Text() string {
	switch c.Type {
	case ContentSndMsg, ContentRcvMsg:
		if c.MsgContent != nil {
			return c.MsgContent.Text
		}
	case ContentSndDeleted, ContentRcvDeleted:
		return "deleted"
	case ContentSndCall, ContentRcvCall:
		return string(c.CallStatus)
	case ContentRcvGroupInv, ContentSndGroupInv:
		if c.GroupInvitation != nil {
			return "invitation to join group " + c.GroupInvitation.GroupProfile.DisplayName
		}
	}
	return ""
}

// Deleted reports whether the content is a tombstone.
func (c CIContent) Deleted() bool {
	return c.Type == ContentSndDeleted || c.Type == ContentRcvDeleted
}

// CIMeta is the engine-assigned metadata of a chat item.
type CIMeta struct {
	ItemID      int64     `json:"itemId"`
	ItemTs      time.Time `json:"itemTs"`
	ItemText    string    `json:"itemText"`
	ItemStatus  CIStatus  `json:"itemStatus"`
	CreatedAt   time.Time `json:"createdAt"`
	ItemDeleted bool      `json:"itemDeleted"`
	ItemEdited  bool      `json:"itemEdited"`
	Editable    bool      `json:"editable"`
}

// CIQuote is the quoted-reply header of an item.
type CIQuote struct {
	ItemID  *int64     `json:"itemId,omitempty"`
	SentAt  time.Time  `json:"sentAt"`
	Content MsgContent `json:"content"`
}

// ChatItem is one message or event unit within a conversation.
type ChatItem struct {
	ChatDir    CIDirection `json:"chatDir"`
	Meta       CIMeta      `json:"meta"`
	Content    CIContent   `json:"content"`
	QuotedItem *CIQuote    `json:"quotedItem,omitempty"`
	File       *CIFile     `json:"file,omitempty"`
}

// ID returns the engine-assigned item id.
func (ci ChatItem) ID() int64 { return ci.Meta.ItemID }

// IsRcvNew reports whether the item is a still-unread inbound item.
func (ci ChatItem) IsRcvNew() bool { return ci.Meta.ItemStatus.Type == StatusRcvNew }

// Text returns the item's displayable text, falling back to an attached
// file name when the content itself is empty.
func (ci ChatItem) Text() string {
	if t := ci.Content.Text(); t != "" {
		return t
	}
	if ci.File != nil {
		return ci.File.FileName
	}
	return ""
}

// AChatItem pairs an item with its conversation, as delivered by the engine.
type AChatItem struct {
	ChatInfo ChatInfo `json:"chatInfo"`
	ChatItem ChatItem `json:"chatItem"`
}
