package chat

import (
	"encoding/json"
	"fmt"
)

// Response kind discriminators, as the engine emits them. The dispatcher
// switches on these; anything outside the set decodes to RespUnknown.
const (
	RespActiveUser                  = "activeUser"
	RespUsersList                   = "usersList"
	RespChatStarted                 = "chatStarted"
	RespChatRunning                 = "chatRunning"
	RespChatStopped                 = "chatStopped"
	RespAPIChats                    = "apiChats"
	RespAPIChat                     = "apiChat"
	RespUserSMPServers              = "userSMPServers"
	RespNetworkConfig               = "networkConfig"
	RespContactInfo                 = "contactInfo"
	RespGroupMemberInfo             = "groupMemberInfo"
	RespInvitation                  = "invitation"
	RespSentConfirmation            = "sentConfirmation"
	RespSentInvitation              = "sentInvitation"
	RespContactAlreadyExists        = "contactAlreadyExists"
	RespContactDeleted              = "contactDeleted"
	RespChatCleared                 = "chatCleared"
	RespUserProfileNoChange         = "userProfileNoChange"
	RespUserProfileUpdated          = "userProfileUpdated"
	RespContactAliasUpdated         = "contactAliasUpdated"
	RespUserContactLink             = "userContactLink"
	RespUserContactLinkUpdated      = "userContactLinkUpdated"
	RespUserContactLinkCreated      = "userContactLinkCreated"
	RespUserContactLinkDeleted      = "userContactLinkDeleted"
	RespContactConnected            = "contactConnected"
	RespContactConnecting           = "contactConnecting"
	RespReceivedContactRequest      = "receivedContactRequest"
	RespAcceptingContactRequest     = "acceptingContactRequest"
	RespContactRequestRejected      = "contactRequestRejected"
	RespContactUpdated              = "contactUpdated"
	RespContactsSubscribed          = "contactsSubscribed"
	RespContactsDisconnected        = "contactsDisconnected"
	RespContactSubError             = "contactSubError"
	RespContactSubSummary           = "contactSubSummary"
	RespContactConnectionDeleted    = "contactConnectionDeleted"
	RespGroupSubscribed             = "groupSubscribed"
	RespMemberSubErrors             = "memberSubErrors"
	RespGroupEmpty                  = "groupEmpty"
	RespUserContactLinkSubscribed   = "userContactLinkSubscribed"
	RespUserContactLinkSubError     = "userContactLinkSubError"
	RespNewChatItem                 = "newChatItem"
	RespChatItemStatusUpdated       = "chatItemStatusUpdated"
	RespChatItemUpdated             = "chatItemUpdated"
	RespChatItemDeleted             = "chatItemDeleted"
	RespContactsList                = "contactsList"
	RespGroupCreated                = "groupCreated"
	RespSentGroupInvitation         = "sentGroupInvitation"
	RespUserAcceptedGroupSent       = "userAcceptedGroupSent"
	RespUserDeletedMember           = "userDeletedMember"
	RespLeftMemberUser              = "leftMemberUser"
	RespGroupMembers                = "groupMembers"
	RespReceivedGroupInvitation     = "receivedGroupInvitation"
	RespGroupDeletedUser            = "groupDeletedUser"
	RespJoinedGroupMemberConnecting = "joinedGroupMemberConnecting"
	RespDeletedMember               = "deletedMember"
	RespLeftMember                  = "leftMember"
	RespGroupDeleted                = "groupDeleted"
	RespGroupUpdated                = "groupUpdated"
	RespJoinedGroupMember           = "joinedGroupMember"
	RespConnectedToGroupMember      = "connectedToGroupMember"
	RespRcvFileAccepted             = "rcvFileAccepted"
	RespRcvFileAcceptedSndCancelled = "rcvFileAcceptedSndCancelled"
	RespRcvFileStart                = "rcvFileStart"
	RespRcvFileComplete             = "rcvFileComplete"
	RespRcvFileSndCancelled         = "rcvFileSndCancelled"
	RespSndFileStart                = "sndFileStart"
	RespSndFileComplete             = "sndFileComplete"
	RespSndFileCancelled            = "sndFileCancelled"
	RespSndFileRcvCancelled         = "sndFileRcvCancelled"
	RespSndGroupFileCancelled       = "sndGroupFileCancelled"
	RespCallInvitation              = "callInvitation"
	RespCallOffer                   = "callOffer"
	RespCallAnswer                  = "callAnswer"
	RespCallExtraInfo               = "callExtraInfo"
	RespCallEnded                   = "callEnded"
	RespCallInvitations             = "callInvitations"
	RespChatItemTTL                 = "chatItemTTL"
	RespPendingSubSummary           = "pendingSubSummary"
	RespCmdOk                       = "cmdOk"
	RespChatCmdError                = "chatCmdError"
	RespChatError                   = "chatError"

	// Decoder fallbacks, never emitted by the engine.
	RespUnknown = "unknown"
	RespInvalid = "invalid"
)

var knownRespTypes = map[string]bool{
	RespActiveUser:                  true,
	RespUsersList:                   true,
	RespChatStarted:                 true,
	RespChatRunning:                 true,
	RespChatStopped:                 true,
	RespAPIChats:                    true,
	RespAPIChat:                     true,
	RespUserSMPServers:              true,
	RespNetworkConfig:               true,
	RespContactInfo:                 true,
	RespGroupMemberInfo:             true,
	RespInvitation:                  true,
	RespSentConfirmation:            true,
	RespSentInvitation:              true,
	RespContactAlreadyExists:        true,
	RespContactDeleted:              true,
	RespChatCleared:                 true,
	RespUserProfileNoChange:         true,
	RespUserProfileUpdated:          true,
	RespContactAliasUpdated:         true,
	RespUserContactLink:             true,
	RespUserContactLinkUpdated:      true,
	RespUserContactLinkCreated:      true,
	RespUserContactLinkDeleted:      true,
	RespContactConnected:            true,
	RespContactConnecting:           true,
	RespReceivedContactRequest:      true,
	RespAcceptingContactRequest:     true,
	RespContactRequestRejected:      true,
	RespContactUpdated:              true,
	RespContactsSubscribed:          true,
	RespContactsDisconnected:        true,
	RespContactSubError:             true,
	RespContactSubSummary:           true,
	RespContactConnectionDeleted:    true,
	RespGroupSubscribed:             true,
	RespMemberSubErrors:             true,
	RespGroupEmpty:                  true,
	RespUserContactLinkSubscribed:   true,
	RespUserContactLinkSubError:     true,
	RespNewChatItem:                 true,
	RespChatItemStatusUpdated:       true,
	RespChatItemUpdated:             true,
	RespChatItemDeleted:             true,
	RespContactsList:                true,
	RespGroupCreated:                true,
	RespSentGroupInvitation:         true,
	RespUserAcceptedGroupSent:       true,
	RespUserDeletedMember:           true,
	RespLeftMemberUser:              true,
	RespGroupMembers:                true,
	RespReceivedGroupInvitation:     true,
	RespGroupDeletedUser:            true,
	RespJoinedGroupMemberConnecting: true,
	RespDeletedMember:               true,
	RespLeftMember:                  true,
	RespGroupDeleted:                true,
	RespGroupUpdated:                true,
	RespJoinedGroupMember:           true,
	RespConnectedToGroupMember:      true,
	RespRcvFileAccepted:             true,
	RespRcvFileAcceptedSndCancelled: true,
	RespRcvFileStart:                true,
	RespRcvFileComplete:             true,
	RespRcvFileSndCancelled:         true,
	RespSndFileStart:                true,
	RespSndFileComplete:             true,
	RespSndFileCancelled:            true,
	RespSndFileRcvCancelled:         true,
	RespSndGroupFileCancelled:       true,
	RespCallInvitation:              true,
	RespCallOffer:                   true,
	RespCallAnswer:                  true,
	RespCallExtraInfo:               true,
	RespCallEnded:                   true,
	RespCallInvitations:             true,
	RespChatItemTTL:                 true,
	RespPendingSubSummary:           true,
	RespCmdOk:                       true,
	RespChatCmdError:                true,
	RespChatError:                   true,
}

// Response is one decoded engine reply or push event. Type selects the
// variant; only the payload fields that variant uses are populated, the
// rest stay zero. User is the profile the event belongs to; it is nil for
// global events (chat lifecycle, network config, decoder fallbacks).
type Response struct {
	Type string `json:"type"`
	User *User  `json:"user,omitempty"`

	Users []UserInfo `json:"users,omitempty"`
	Chats []Chat     `json:"chats,omitempty"`
	Chat  *Chat      `json:"chat,omitempty"`

	ChatInfo        *ChatInfo  `json:"chatInfo,omitempty"`
	ChatItem        *AChatItem `json:"chatItem,omitempty"`
	DeletedChatItem *AChatItem `json:"deletedChatItem,omitempty"`
	ToChatItem      *AChatItem `json:"toChatItem,omitempty"`

	Contact        *Contact                  `json:"contact,omitempty"`
	ToContact      *Contact                  `json:"toContact,omitempty"`
	Contacts       []Contact                 `json:"contacts,omitempty"`
	ContactRequest *UserContactRequest       `json:"contactRequest,omitempty"`
	Connection     *PendingContactConnection `json:"connection,omitempty"`

	FromProfile *Profile `json:"fromProfile,omitempty"`
	ToProfile   *Profile `json:"toProfile,omitempty"`

	Server               string             `json:"server,omitempty"`
	ContactRefs          []ContactRef       `json:"contactRefs,omitempty"`
	ContactSubscriptions []ContactSubStatus `json:"contactSubscriptions,omitempty"`
	PendingSubscriptions []PendingSubStatus `json:"pendingSubscriptions,omitempty"`
	MemberSubErrors      []MemberSubError   `json:"memberSubErrors,omitempty"`

	GroupInfo     *GroupInfo      `json:"groupInfo,omitempty"`
	ToGroup       *GroupInfo      `json:"toGroup,omitempty"`
	Group         *Group          `json:"group,omitempty"`
	Member        *GroupMember    `json:"member,omitempty"`
	HostMember    *GroupMember    `json:"hostMember,omitempty"`
	ByMember      *GroupMember    `json:"byMember,omitempty"`
	DeletedMember *GroupMember    `json:"deletedMember,omitempty"`
	MemberRole    GroupMemberRole `json:"memberRole,omitempty"`

	ConnReqInvitation string `json:"connReqInvitation,omitempty"`
	ConnReqContact    string `json:"connReqContact,omitempty"`
	AutoAccept        bool   `json:"autoAccept,omitempty"`

	SMPServers      []string         `json:"smpServers,omitempty"`
	NetCfg          *NetCfg          `json:"networkConfig,omitempty"`
	ConnectionStats *ConnectionStats `json:"connectionStats,omitempty"`

	RcvFileTransfer *RcvFileTransfer `json:"rcvFileTransfer,omitempty"`
	SndFileTransfer *SndFileTransfer `json:"sndFileTransfer,omitempty"`

	CallInvitation  *RcvCallInvitation  `json:"callInvitation,omitempty"`
	CallInvitations []RcvCallInvitation `json:"callInvitations,omitempty"`
	CallType        *CallType           `json:"callType,omitempty"`
	Offer           *WebRTCSession      `json:"offer,omitempty"`
	Answer          *WebRTCSession      `json:"answer,omitempty"`
	ExtraInfo       *WebRTCExtraInfo    `json:"extraInfo,omitempty"`
	SharedKey       string              `json:"sharedKey,omitempty"`
	AskConfirmation bool                `json:"askConfirmation,omitempty"`

	ChatItemTTL *int64 `json:"chatItemTTL,omitempty"`

	ChatError *ChatError `json:"chatError,omitempty"`

	// RawType and Raw preserve the original discriminator and payload for
	// the decoder fallbacks.
	RawType string          `json:"-"`
	Raw     json.RawMessage `json:"-"`
}

// ChatRespUnknown wraps an event whose discriminator the client does not
// model. The original body is preserved for logging.
func ChatRespUnknown(respType string, raw json.RawMessage) Response {
	return Response{Type: RespUnknown, RawType: respType, Raw: raw}
}

// ChatRespInvalid wraps a payload with no locatable discriminator.
func ChatRespInvalid(raw []byte) Response {
	return Response{Type: RespInvalid, Raw: json.RawMessage(raw)}
}

// UnknownType reports the original discriminator of an unknown response.
func (r Response) UnknownType() string {
	if r.Type == RespUnknown {
		return r.RawType
	}
	return r.Type
}

// IsError reports whether the response is one of the error envelopes.
func (r Response) IsError() bool {
	return r.Type == RespChatCmdError || r.Type == RespChatError
}

// Err returns the carried ChatError of an error envelope, or nil.
func (r Response) Err() *ChatError {
	if r.IsError() {
		return r.ChatError
	}
	return nil
}

// String renders the response for logs: the discriminator plus the detail
// that identifies it, never full message content.
func (r Response) String() string {
	switch r.Type {
	case RespUnknown:
		return fmt.Sprintf("unknown(%s)", r.RawType)
	case RespInvalid:
		return "invalid"
	case RespChatCmdError, RespChatError:
		if r.ChatError != nil {
			return fmt.Sprintf("%s: %s", r.Type, r.ChatError)
		}
		return r.Type
	default:
		return r.Type
	}
}
