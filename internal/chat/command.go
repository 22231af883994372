package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Command is one outbound operation. CmdString renders the exact wire line
// the engine parses positionally; rendering is pure and total. CmdType is a
// stable human-readable tag for logs and metrics.
type Command interface {
	CmdString() string
	CmdType() string
}

// obfuscator is implemented by commands carrying secrets. Obfuscated
// returns a copy safe for logging.
type obfuscator interface {
	Obfuscated() Command
}

// Obfuscated returns a log-safe rendering of c: commands with secret fields
// return a redacted copy, everything else is returned unchanged.
func Obfuscated(c Command) Command {
	if o, ok := c.(obfuscator); ok {
		return o.Obfuscated()
	}
	return c
}

const redacted = "***"

func obfuscate(secret string) string {
	if secret == "" {
		return ""
	}
	return redacted
}

// ChatType is the single-character prefix of a chat reference.
type ChatType string

const (
	ChatTypeDirect         ChatType = "@"
	ChatTypeGroup          ChatType = "#"
	ChatTypeContactRequest ChatType = "<@"
	ChatTypeConnection     ChatType = ":"
)

func chatRef(chatType ChatType, apiID int64) string {
	return fmt.Sprintf("%s%d", chatType, apiID)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// jsonString marshals v for embedding in a command line. The command
// payload types are all marshalable by construction.
func jsonString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ComposedMessage is the structured body of a send command.
type ComposedMessage struct {
	FilePath     string     `json:"filePath,omitempty"`
	QuotedItemID *int64     `json:"quotedItemId,omitempty"`
	MsgContent   MsgContent `json:"msgContent"`
}

// ShowActiveUser requests the current active profile.
type ShowActiveUser struct{}

func (ShowActiveUser) CmdString() string { return "/u" }
func (ShowActiveUser) CmdType() string   { return "showActiveUser" }

// CreateActiveUser creates a profile and makes it active.
type CreateActiveUser struct {
	Profile Profile
}

func (c CreateActiveUser) CmdString() string {
	return fmt.Sprintf("/u %s %s", c.Profile.DisplayName, c.Profile.FullName)
}
func (CreateActiveUser) CmdType() string { return "createActiveUser" }

// ListUsers lists all local profiles with unread counters.
type ListUsers struct{}

func (ListUsers) CmdString() string { return "/users" }
func (ListUsers) CmdType() string   { return "listUsers" }

// APISetActiveUser switches the foreground profile.
type APISetActiveUser struct {
	UserID int64
}

func (c APISetActiveUser) CmdString() string { return fmt.Sprintf("/_user %d", c.UserID) }
func (APISetActiveUser) CmdType() string     { return "apiSetActiveUser" }

// APIHideUser protects a profile with a view password.
type APIHideUser struct {
	UserID  int64
	ViewPwd string
}

func (c APIHideUser) CmdString() string {
	return fmt.Sprintf("/_hide user %d %s", c.UserID, jsonString(c.ViewPwd))
}
func (APIHideUser) CmdType() string { return "apiHideUser" }
func (c APIHideUser) Obfuscated() Command {
	return APIHideUser{UserID: c.UserID, ViewPwd: obfuscate(c.ViewPwd)}
}

// APIUnhideUser removes a profile's view password.
type APIUnhideUser struct {
	UserID  int64
	ViewPwd string
}

func (c APIUnhideUser) CmdString() string {
	return fmt.Sprintf("/_unhide user %d %s", c.UserID, jsonString(c.ViewPwd))
}
func (APIUnhideUser) CmdType() string { return "apiUnhideUser" }
func (c APIUnhideUser) Obfuscated() Command {
	return APIUnhideUser{UserID: c.UserID, ViewPwd: obfuscate(c.ViewPwd)}
}

// StartChat starts the engine, optionally subscribing connections.
type StartChat struct {
	SubscribeConnections bool
	ExpireChatItems      bool
}

func (c StartChat) CmdString() string {
	return fmt.Sprintf("/_start subscribe=%s expire=%s", onOff(c.SubscribeConnections), onOff(c.ExpireChatItems))
}
func (StartChat) CmdType() string { return "startChat" }

// APIStopChat stops the engine.
type APIStopChat struct{}

func (APIStopChat) CmdString() string { return "/_stop" }
func (APIStopChat) CmdType() string   { return "apiStopChat" }

// SetTempFolder points the engine at a scratch directory.
type SetTempFolder struct {
	Path string
}

func (c SetTempFolder) CmdString() string { return "/_temp_folder " + c.Path }
func (SetTempFolder) CmdType() string     { return "setTempFolder" }

// SetFilesFolder points the engine at the received-files directory.
type SetFilesFolder struct {
	Path string
}

func (c SetFilesFolder) CmdString() string { return "/_files_folder " + c.Path }
func (SetFilesFolder) CmdType() string     { return "setFilesFolder" }

// APIStorageEncryption re-encrypts engine storage. Both keys are secrets.
type APIStorageEncryption struct {
	CurrentKey string
	NewKey     string
}

func (c APIStorageEncryption) CmdString() string {
	body := struct {
		CurrentKey string `json:"currentKey"`
		NewKey     string `json:"newKey"`
	}{c.CurrentKey, c.NewKey}
	return "/_db encryption " + jsonString(body)
}
func (APIStorageEncryption) CmdType() string { return "apiStorageEncryption" }
func (c APIStorageEncryption) Obfuscated() Command {
	return APIStorageEncryption{CurrentKey: obfuscate(c.CurrentKey), NewKey: obfuscate(c.NewKey)}
}

// APIGetChats loads all chats of a profile.
type APIGetChats struct {
	UserID int64
}

func (c APIGetChats) CmdString() string { return fmt.Sprintf("/_get chats %d pcc=on", c.UserID) }
func (APIGetChats) CmdType() string     { return "apiGetChats" }

// APIGetChat loads one chat with a page of items.
type APIGetChat struct {
	ChatType ChatType
	APIID    int64
	Count    int
}

func (c APIGetChat) CmdString() string {
	count := c.Count
	if count <= 0 {
		count = 100
	}
	return fmt.Sprintf("/_get chat %s count=%d", chatRef(c.ChatType, c.APIID), count)
}
func (APIGetChat) CmdType() string { return "apiGetChat" }

// APISendMessage sends a composed message to a chat.
type APISendMessage struct {
	ChatType ChatType
	APIID    int64
	Live     bool
	Message  ComposedMessage
}

func (c APISendMessage) CmdString() string {
	return fmt.Sprintf("/_send %s live=%s json %s", chatRef(c.ChatType, c.APIID), onOff(c.Live), jsonString(c.Message))
}
func (APISendMessage) CmdType() string { return "apiSendMessage" }

// APIUpdateChatItem replaces an item's content.
type APIUpdateChatItem struct {
	ChatType ChatType
	APIID    int64
	ItemID   int64
	Live     bool
	Content  MsgContent
}

func (c APIUpdateChatItem) CmdString() string {
	return fmt.Sprintf("/_update item %s %d live=%s json %s",
		chatRef(c.ChatType, c.APIID), c.ItemID, onOff(c.Live), jsonString(c.Content))
}
func (APIUpdateChatItem) CmdType() string { return "apiUpdateChatItem" }

// APIDeleteChatItem deletes an item, locally or for everyone.
type APIDeleteChatItem struct {
	ChatType ChatType
	APIID    int64
	ItemID   int64
	Mode     CIDeleteMode
}

func (c APIDeleteChatItem) CmdString() string {
	return fmt.Sprintf("/_delete item %s %d %s", chatRef(c.ChatType, c.APIID), c.ItemID, c.Mode)
}
func (APIDeleteChatItem) CmdType() string { return "apiDeleteChatItem" }

// ItemRange is an inclusive item-id range.
type ItemRange struct {
	From int64
	To   int64
}

// APIChatRead marks items read, optionally within a range.
type APIChatRead struct {
	ChatType ChatType
	APIID    int64
	Range    *ItemRange
}

func (c APIChatRead) CmdString() string {
	if c.Range == nil {
		return fmt.Sprintf("/_read chat %s", chatRef(c.ChatType, c.APIID))
	}
	return fmt.Sprintf("/_read chat %s from=%d to=%d", chatRef(c.ChatType, c.APIID), c.Range.From, c.Range.To)
}
func (APIChatRead) CmdType() string { return "apiChatRead" }

// APIChatUnread toggles a chat's unread marker.
type APIChatUnread struct {
	ChatType ChatType
	APIID    int64
	Unread   bool
}

func (c APIChatUnread) CmdString() string {
	return fmt.Sprintf("/_unread chat %s %s", chatRef(c.ChatType, c.APIID), onOff(c.Unread))
}
func (APIChatUnread) CmdType() string { return "apiChatUnread" }

// APIDeleteChat deletes a conversation.
type APIDeleteChat struct {
	ChatType ChatType
	APIID    int64
}

func (c APIDeleteChat) CmdString() string {
	return fmt.Sprintf("/_delete %s", chatRef(c.ChatType, c.APIID))
}
func (APIDeleteChat) CmdType() string { return "apiDeleteChat" }

// APIClearChat removes all items of a conversation.
type APIClearChat struct {
	ChatType ChatType
	APIID    int64
}

func (c APIClearChat) CmdString() string {
	return fmt.Sprintf("/_clear chat %s", chatRef(c.ChatType, c.APIID))
}
func (APIClearChat) CmdType() string { return "apiClearChat" }

// APIAcceptContact accepts an inbound contact request.
type APIAcceptContact struct {
	ContactReqID int64
}

func (c APIAcceptContact) CmdString() string { return fmt.Sprintf("/_accept %d", c.ContactReqID) }
func (APIAcceptContact) CmdType() string     { return "apiAcceptContact" }

// APIRejectContact rejects an inbound contact request.
type APIRejectContact struct {
	ContactReqID int64
}

func (c APIRejectContact) CmdString() string { return fmt.Sprintf("/_reject %d", c.ContactReqID) }
func (APIRejectContact) CmdType() string     { return "apiRejectContact" }

// APIUpdateProfile replaces the active user's profile.
type APIUpdateProfile struct {
	Profile Profile
}

func (c APIUpdateProfile) CmdString() string { return "/_profile " + jsonString(c.Profile) }
func (APIUpdateProfile) CmdType() string     { return "apiUpdateProfile" }

// APISetContactAlias sets the local alias of a contact.
type APISetContactAlias struct {
	ContactID int64
	Alias     string
}

func (c APISetContactAlias) CmdString() string {
	return fmt.Sprintf("/_set alias @%d %s", c.ContactID, strings.TrimSpace(c.Alias))
}
func (APISetContactAlias) CmdType() string { return "apiSetContactAlias" }

// APIContactInfo fetches connection stats for a contact.
type APIContactInfo struct {
	ContactID int64
}

func (c APIContactInfo) CmdString() string { return fmt.Sprintf("/_info @%d", c.ContactID) }
func (APIContactInfo) CmdType() string     { return "apiContactInfo" }

// APIGroupMemberInfo fetches connection stats for a group member.
type APIGroupMemberInfo struct {
	GroupID  int64
	MemberID int64
}

func (c APIGroupMemberInfo) CmdString() string {
	return fmt.Sprintf("/_info #%d %d", c.GroupID, c.MemberID)
}
func (APIGroupMemberInfo) CmdType() string { return "apiGroupMemberInfo" }

// AddContact creates a one-time invitation link.
type AddContact struct{}

func (AddContact) CmdString() string { return "/connect" }
func (AddContact) CmdType() string   { return "addContact" }

// Connect joins a connection request link.
type Connect struct {
	ConnReq string
}

func (c Connect) CmdString() string { return "/connect " + c.ConnReq }
func (Connect) CmdType() string     { return "connect" }

// ListContacts lists the active user's contacts.
type ListContacts struct{}

func (ListContacts) CmdString() string { return "/contacts" }
func (ListContacts) CmdType() string   { return "listContacts" }

// NewGroup creates a group with the given profile.
type NewGroup struct {
	GroupProfile GroupProfile
}

func (c NewGroup) CmdString() string { return "/_group " + jsonString(c.GroupProfile) }
func (NewGroup) CmdType() string     { return "newGroup" }

// APIAddMember invites a contact into a group.
type APIAddMember struct {
	GroupID   int64
	ContactID int64
	Role      GroupMemberRole
}

func (c APIAddMember) CmdString() string {
	return fmt.Sprintf("/_add #%d %d %s", c.GroupID, c.ContactID, c.Role)
}
func (APIAddMember) CmdType() string { return "apiAddMember" }

// APIJoinGroup accepts a group invitation.
type APIJoinGroup struct {
	GroupID int64
}

func (c APIJoinGroup) CmdString() string { return fmt.Sprintf("/_join #%d", c.GroupID) }
func (APIJoinGroup) CmdType() string     { return "apiJoinGroup" }

// APIRemoveMember removes a member from a group.
type APIRemoveMember struct {
	GroupID  int64
	MemberID int64
}

func (c APIRemoveMember) CmdString() string {
	return fmt.Sprintf("/_remove #%d %d", c.GroupID, c.MemberID)
}
func (APIRemoveMember) CmdType() string { return "apiRemoveMember" }

// APILeaveGroup leaves a group.
type APILeaveGroup struct {
	GroupID int64
}

func (c APILeaveGroup) CmdString() string { return fmt.Sprintf("/_leave #%d", c.GroupID) }
func (APILeaveGroup) CmdType() string     { return "apiLeaveGroup" }

// APIListMembers lists a group's members.
type APIListMembers struct {
	GroupID int64
}

func (c APIListMembers) CmdString() string { return fmt.Sprintf("/_members #%d", c.GroupID) }
func (APIListMembers) CmdType() string     { return "apiListMembers" }

// APIUpdateGroupProfile replaces a group's profile.
type APIUpdateGroupProfile struct {
	GroupID      int64
	GroupProfile GroupProfile
}

func (c APIUpdateGroupProfile) CmdString() string {
	return fmt.Sprintf("/_group_profile #%d %s", c.GroupID, jsonString(c.GroupProfile))
}
func (APIUpdateGroupProfile) CmdType() string { return "apiUpdateGroupProfile" }

// CreateMyAddress creates the user's long-term contact address.
type CreateMyAddress struct{}

func (CreateMyAddress) CmdString() string { return "/address" }
func (CreateMyAddress) CmdType() string   { return "createMyAddress" }

// DeleteMyAddress deletes the long-term contact address.
type DeleteMyAddress struct{}

func (DeleteMyAddress) CmdString() string { return "/delete_address" }
func (DeleteMyAddress) CmdType() string   { return "deleteMyAddress" }

// ShowMyAddress shows the long-term contact address.
type ShowMyAddress struct{}

func (ShowMyAddress) CmdString() string { return "/show_address" }
func (ShowMyAddress) CmdType() string   { return "showMyAddress" }

// AddressAutoAccept toggles auto-accepting requests to the address.
type AddressAutoAccept struct {
	On bool
}

func (c AddressAutoAccept) CmdString() string { return "/auto_accept " + onOff(c.On) }
func (AddressAutoAccept) CmdType() string     { return "addressAutoAccept" }

// GetUserSMPServers lists the user's configured messaging relays.
type GetUserSMPServers struct{}

func (GetUserSMPServers) CmdString() string { return "/smp_servers" }
func (GetUserSMPServers) CmdType() string   { return "getUserSMPServers" }

// SetUserSMPServers replaces the user's messaging relays; empty resets to
// the preset servers.
type SetUserSMPServers struct {
	Servers []string
}

func (c SetUserSMPServers) CmdString() string {
	if len(c.Servers) == 0 {
		return "/smp_servers default"
	}
	return "/smp_servers " + strings.Join(c.Servers, ";")
}
func (SetUserSMPServers) CmdType() string { return "setUserSMPServers" }

// NetCfg mirrors the engine's network configuration document.
type NetCfg struct {
	SocksProxy        string `json:"socksProxy,omitempty"`
	TCPTimeout        int64  `json:"tcpTimeout"`
	TCPConnectTimeout int64  `json:"tcpConnectTimeout"`
}

// APISetNetworkConfig replaces the engine network configuration.
type APISetNetworkConfig struct {
	Config NetCfg
}

func (c APISetNetworkConfig) CmdString() string { return "/_network " + jsonString(c.Config) }
func (APISetNetworkConfig) CmdType() string     { return "apiSetNetworkConfig" }

// APIGetNetworkConfig reads the engine network configuration.
type APIGetNetworkConfig struct{}

func (APIGetNetworkConfig) CmdString() string { return "/network" }
func (APIGetNetworkConfig) CmdType() string   { return "apiGetNetworkConfig" }

// APISetChatSettings updates per-chat toggles.
type APISetChatSettings struct {
	ChatType ChatType
	APIID    int64
	Settings ChatSettings
}

func (c APISetChatSettings) CmdString() string {
	return fmt.Sprintf("/_settings %s %s", chatRef(c.ChatType, c.APIID), jsonString(c.Settings))
}
func (APISetChatSettings) CmdType() string { return "apiSetChatSettings" }

// APISetChatItemTTL sets the retention period for chat items; nil disables.
type APISetChatItemTTL struct {
	Seconds *int64
}

func (c APISetChatItemTTL) CmdString() string {
	if c.Seconds == nil {
		return "/_ttl none"
	}
	return fmt.Sprintf("/_ttl %d", *c.Seconds)
}
func (APISetChatItemTTL) CmdType() string { return "apiSetChatItemTTL" }

// APIGetChatItemTTL reads the retention period.
type APIGetChatItemTTL struct{}

func (APIGetChatItemTTL) CmdString() string { return "/ttl" }
func (APIGetChatItemTTL) CmdType() string   { return "apiGetChatItemTTL" }

// APISendCallInvitation invites a contact to a call.
type APISendCallInvitation struct {
	ContactID int64
	CallType  CallType
}

func (c APISendCallInvitation) CmdString() string {
	return fmt.Sprintf("/_call invite @%d %s", c.ContactID, jsonString(c.CallType))
}
func (APISendCallInvitation) CmdType() string { return "apiSendCallInvitation" }

// APIRejectCall rejects an inbound call invitation.
type APIRejectCall struct {
	ContactID int64
}

func (c APIRejectCall) CmdString() string { return fmt.Sprintf("/_call reject @%d", c.ContactID) }
func (APIRejectCall) CmdType() string     { return "apiRejectCall" }

// APISendCallOffer sends the local WebRTC offer.
type APISendCallOffer struct {
	ContactID int64
	Offer     WebRTCCallOffer
}

func (c APISendCallOffer) CmdString() string {
	return fmt.Sprintf("/_call offer @%d %s", c.ContactID, jsonString(c.Offer))
}
func (APISendCallOffer) CmdType() string { return "apiSendCallOffer" }

// APISendCallAnswer sends the local WebRTC answer.
type APISendCallAnswer struct {
	ContactID int64
	Answer    WebRTCSession
}

func (c APISendCallAnswer) CmdString() string {
	return fmt.Sprintf("/_call answer @%d %s", c.ContactID, jsonString(c.Answer))
}
func (APISendCallAnswer) CmdType() string { return "apiSendCallAnswer" }

// APISendCallExtraInfo sends late ICE candidates.
type APISendCallExtraInfo struct {
	ContactID int64
	ExtraInfo WebRTCExtraInfo
}

func (c APISendCallExtraInfo) CmdString() string {
	return fmt.Sprintf("/_call extra @%d %s", c.ContactID, jsonString(c.ExtraInfo))
}
func (APISendCallExtraInfo) CmdType() string { return "apiSendCallExtraInfo" }

// APIEndCall hangs up.
type APIEndCall struct {
	ContactID int64
}

func (c APIEndCall) CmdString() string { return fmt.Sprintf("/_call end @%d", c.ContactID) }
func (APIEndCall) CmdType() string     { return "apiEndCall" }

// APIGetCallInvitations lists pending inbound calls.
type APIGetCallInvitations struct{}

func (APIGetCallInvitations) CmdString() string { return "/_call get" }
func (APIGetCallInvitations) CmdType() string   { return "apiGetCallInvitations" }

// APICallStatus reports the local call status to the engine.
type APICallStatus struct {
	ContactID int64
	Status    CallStatusAPI
}

func (c APICallStatus) CmdString() string {
	return fmt.Sprintf("/_call status @%d %s", c.ContactID, c.Status)
}
func (APICallStatus) CmdType() string { return "apiCallStatus" }

// ReceiveFile accepts an inbound file transfer.
type ReceiveFile struct {
	FileID int64
}

func (c ReceiveFile) CmdString() string { return fmt.Sprintf("/freceive %d", c.FileID) }
func (ReceiveFile) CmdType() string     { return "receiveFile" }

// CancelFile cancels a transfer in either direction.
type CancelFile struct {
	FileID int64
}

func (c CancelFile) CmdString() string { return fmt.Sprintf("/fcancel %d", c.FileID) }
func (CancelFile) CmdType() string     { return "cancelFile" }
