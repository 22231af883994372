// Package chat defines the protocol surface shared with the engine core:
// the domain model, the outbound command set, the inbound response set with
// its defensive decoder, and the error taxonomy.
package chat

import (
	"fmt"
	"time"
)

// ChatID is the stable identifier of a conversation ("@<contactId>",
// "#<groupId>", "<@<contactRequestId>", ":<connId>").
type ChatID = string

// User is one local profile. Exactly one user is active at a time.
type User struct {
	UserID           int64        `json:"userId"`
	UserContactID    int64        `json:"userContactId"`
	LocalDisplayName string       `json:"localDisplayName"`
	Profile          LocalProfile `json:"profile"`
	ActiveUser       bool         `json:"activeUser"`
	ShowNtfs         bool         `json:"showNtfs"`
	ViewPwdHash      *UserPwdHash `json:"viewPwdHash,omitempty"`
}

// Hidden reports whether the profile is protected by a view password.
func (u User) Hidden() bool { return u.ViewPwdHash != nil }

// ShowNotifications reports whether events for this user may surface
// user-visible notifications.
func (u User) ShowNotifications() bool { return u.ActiveUser || u.ShowNtfs }

// DisplayName returns the profile display name.
func (u User) DisplayName() string { return u.Profile.DisplayName }

// UserPwdHash protects hidden profiles.
type UserPwdHash struct {
	Hash string `json:"hash"`
	Salt string `json:"salt"`
}

// UserInfo pairs a user with its unseen-activity counter. Background
// profiles track unread counts only; their full chat state is not kept.
type UserInfo struct {
	User        User `json:"user"`
	UnreadCount int  `json:"unreadCount"`
}

// Profile is the shareable part of an identity.
type Profile struct {
	DisplayName string `json:"displayName"`
	FullName    string `json:"fullName"`
	Image       string `json:"image,omitempty"`
}

// LocalProfile is a profile as stored locally, with its row id and alias.
type LocalProfile struct {
	ProfileID   int64  `json:"profileId"`
	DisplayName string `json:"displayName"`
	FullName    string `json:"fullName"`
	Image       string `json:"image,omitempty"`
	LocalAlias  string `json:"localAlias,omitempty"`
}

// ConnStatus is the lifecycle of an agent connection.
type ConnStatus string

const (
	ConnNew       ConnStatus = "new"
	ConnJoined    ConnStatus = "joined"
	ConnRequested ConnStatus = "requested"
	ConnAccepted  ConnStatus = "accepted"
	ConnSndReady  ConnStatus = "snd-ready"
	ConnReady     ConnStatus = "ready"
	ConnDeleted   ConnStatus = "deleted"
)

// Connection is the agent connection backing a contact or member.
type Connection struct {
	ConnID              int64      `json:"connId"`
	ConnStatus          ConnStatus `json:"connStatus"`
	ConnLevel           int        `json:"connLevel"`
	ViaContact          *int64     `json:"viaContact,omitempty"`
	CustomUserProfileID *int64     `json:"customUserProfileId,omitempty"`
}

// ChatSettings are per-conversation toggles owned by the engine.
type ChatSettings struct {
	EnableNtfs bool `json:"enableNtfs"`
}

// Contact is a direct conversation peer.
type Contact struct {
	ContactID        int64        `json:"contactId"`
	LocalDisplayName string       `json:"localDisplayName"`
	Profile          LocalProfile `json:"profile"`
	ActiveConn       Connection   `json:"activeConn"`
	ViaGroup         *int64       `json:"viaGroup,omitempty"`
	ChatSettings     ChatSettings `json:"chatSettings"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// ID returns the contact's chat id.
func (c Contact) ID() ChatID { return fmt.Sprintf("@%d", c.ContactID) }

// Ready reports whether the backing connection is established end to end.
func (c Contact) Ready() bool { return c.ActiveConn.ConnStatus == ConnReady }

// DisplayName prefers the full name, then the local display name.
func (c Contact) DisplayName() string {
	if c.Profile.FullName != "" {
		return c.Profile.FullName
	}
	return c.LocalDisplayName
}

// IsIndirect reports whether the contact was reached through a group or
// another contact rather than a direct invitation.
func (c Contact) IsIndirect() bool {
	return c.ActiveConn.ConnLevel > 0 || c.ViaGroup != nil
}

// ContactRef is a minimal contact reference used in merge events.
type ContactRef struct {
	ContactID        int64  `json:"contactId"`
	LocalDisplayName string `json:"localDisplayName"`
}

// ID returns the referenced contact's chat id.
func (r ContactRef) ID() ChatID { return fmt.Sprintf("@%d", r.ContactID) }

// ContactSubStatus carries one contact's subscription result.
type ContactSubStatus struct {
	Contact      Contact    `json:"contact"`
	ContactError *ChatError `json:"contactError,omitempty"`
}

// PendingSubStatus summarizes subscriptions still being established.
type PendingSubStatus struct {
	Total      int `json:"total"`
	Subscribed int `json:"subscribed"`
}

// UserContactRequest is an inbound request to connect.
type UserContactRequest struct {
	ContactRequestID int64     `json:"contactRequestId"`
	LocalDisplayName string    `json:"localDisplayName"`
	Profile          Profile   `json:"profile"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ID returns the request's chat id.
func (r UserContactRequest) ID() ChatID { return fmt.Sprintf("<@%d", r.ContactRequestID) }

// DisplayName prefers the full name, then the local display name.
func (r UserContactRequest) DisplayName() string {
	if r.Profile.FullName != "" {
		return r.Profile.FullName
	}
	return r.LocalDisplayName
}

// PendingContactConnection is an invitation that has not become a contact yet.
type PendingContactConnection struct {
	PccConnID      int64      `json:"pccConnId"`
	PccAgentConnID string     `json:"pccAgentConnId"`
	PccConnStatus  ConnStatus `json:"pccConnStatus"`
	ViaContactURI  bool       `json:"viaContactUri"`
	ConnReqInv     string     `json:"connReqInv,omitempty"`
	LocalAlias     string     `json:"localAlias,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// ID returns the pending connection's chat id.
func (p PendingContactConnection) ID() ChatID { return fmt.Sprintf(":%d", p.PccConnID) }

// GroupInfo describes a group and the user's membership in it.
type GroupInfo struct {
	GroupID          int64        `json:"groupId"`
	LocalDisplayName string       `json:"localDisplayName"`
	GroupProfile     GroupProfile `json:"groupProfile"`
	Membership       GroupMember  `json:"membership"`
	ChatSettings     ChatSettings `json:"chatSettings"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// ID returns the group's chat id.
func (g GroupInfo) ID() ChatID { return fmt.Sprintf("#%d", g.GroupID) }

// DisplayName prefers the profile full name, then the local display name.
func (g GroupInfo) DisplayName() string {
	if g.GroupProfile.FullName != "" {
		return g.GroupProfile.FullName
	}
	return g.LocalDisplayName
}

// GroupProfile is the shareable part of a group.
type GroupProfile struct {
	DisplayName string `json:"displayName"`
	FullName    string `json:"fullName"`
	Image       string `json:"image,omitempty"`
}

// GroupMemberRole orders member privileges.
type GroupMemberRole string

const (
	RoleMember GroupMemberRole = "member"
	RoleAdmin  GroupMemberRole = "admin"
	RoleOwner  GroupMemberRole = "owner"
)

// GroupMemberStatus is the membership lifecycle.
type GroupMemberStatus string

const (
	MemRemoved      GroupMemberStatus = "removed"
	MemLeft         GroupMemberStatus = "left"
	MemGroupDeleted GroupMemberStatus = "deleted"
	MemInvited      GroupMemberStatus = "invited"
	MemIntroduced   GroupMemberStatus = "introduced"
	MemIntroInvited GroupMemberStatus = "intro-inv"
	MemAccepted     GroupMemberStatus = "accepted"
	MemAnnounced    GroupMemberStatus = "announced"
	MemConnected    GroupMemberStatus = "connected"
	MemComplete     GroupMemberStatus = "complete"
	MemCreator      GroupMemberStatus = "creator"
)

// GroupMember is one member of a group.
type GroupMember struct {
	GroupMemberID    int64             `json:"groupMemberId"`
	MemberID         string            `json:"memberId"`
	MemberRole       GroupMemberRole   `json:"memberRole"`
	MemberStatus     GroupMemberStatus `json:"memberStatus"`
	LocalDisplayName string            `json:"localDisplayName"`
	MemberProfile    LocalProfile      `json:"memberProfile"`
	MemberContactID  *int64            `json:"memberContactId,omitempty"`
}

// DisplayName prefers the member profile's full name.
func (m GroupMember) DisplayName() string {
	if m.MemberProfile.FullName != "" {
		return m.MemberProfile.FullName
	}
	return m.LocalDisplayName
}

// Group is a group with its full member list.
type Group struct {
	GroupInfo GroupInfo     `json:"groupInfo"`
	Members   []GroupMember `json:"members"`
}

// ConnectionStats summarizes the relays a connection uses.
type ConnectionStats struct {
	RcvServers []string `json:"rcvServers"`
	SndServers []string `json:"sndServers"`
}

// MemberSubError carries one member's subscription failure.
type MemberSubError struct {
	Member      GroupMember `json:"member"`
	MemberError ChatError   `json:"memberError"`
}

// NetworkStatusKind enumerates per-connection network states.
type NetworkStatusKind string

const (
	NetUnknown      NetworkStatusKind = "unknown"
	NetConnected    NetworkStatusKind = "connected"
	NetConnecting   NetworkStatusKind = "connecting"
	NetDisconnected NetworkStatusKind = "disconnected"
	NetError        NetworkStatusKind = "error"
)

// NetworkStatus is the subscription-driven connection state of a chat.
type NetworkStatus struct {
	Kind  NetworkStatusKind `json:"type"`
	Error string            `json:"error,omitempty"`
}

func (s NetworkStatus) String() string {
	switch s.Kind {
	case NetConnected:
		return "connected"
	case NetConnecting:
		return "connecting"
	case NetDisconnected:
		return "disconnected (messages will be received when you connect)"
	case NetError:
		return "error: " + s.Error
	default:
		return "server connection status unknown"
	}
}
