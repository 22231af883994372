package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmaia/echochat/internal/call"
	"github.com/dmaia/echochat/internal/chat"
	"github.com/dmaia/echochat/internal/linkqr"
	"github.com/dmaia/echochat/internal/prefs"
)

// ErrNoActiveUser is returned when an operation needs a logged-in profile.
var ErrNoActiveUser = errors.New("no active user")

// respError turns a non-matching reply into the generic surfaced failure:
// operation, discriminator, details.
func respError(op string, r chat.Response) error {
	if ce := r.Err(); ce != nil {
		return fmt.Errorf("%s: %s", op, ce)
	}
	return fmt.Errorf("%s: unexpected response %s", op, r)
}

// CreateActiveUser creates a profile and makes it the active user.
// A duplicate display name is reported specifically.
func (c *Controller) CreateActiveUser(ctx context.Context, p chat.Profile) (*chat.User, error) {
	r, err := c.SendCmd(ctx, chat.CreateActiveUser{Profile: p})
	if err != nil {
		return nil, err
	}
	if r.Type == chat.RespActiveUser && r.User != nil {
		c.processReceivedMsg(r)
		return r.User, nil
	}
	if ce := r.Err(); ce != nil && ce.IsDuplicateName() {
		return nil, fmt.Errorf("display name %q is already used", p.DisplayName)
	}
	return nil, respError("creating user", r)
}

// GetActiveUser returns the active profile, or nil when none exists yet.
func (c *Controller) GetActiveUser(ctx context.Context) (*chat.User, error) {
	r, err := c.SendCmd(ctx, chat.ShowActiveUser{})
	if err != nil {
		return nil, err
	}
	if r.Type == chat.RespActiveUser && r.User != nil {
		c.processReceivedMsg(r)
		return r.User, nil
	}
	if ce := r.Err(); ce != nil && ce.Type == chat.ErrKindChat &&
		ce.ErrorType != nil && ce.ErrorType.Type == chat.ChatErrNoActiveUser {
		return nil, nil
	}
	return nil, respError("loading active user", r)
}

// ListUsers loads all local profiles with their unread counters.
func (c *Controller) ListUsers(ctx context.Context) ([]chat.UserInfo, error) {
	r, err := c.SendCmd(ctx, chat.ListUsers{})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespUsersList {
		return nil, respError("listing users", r)
	}
	c.model.SetUsers(r.Users)
	return r.Users, nil
}

// SetActiveUser switches the foreground profile and reloads its chats.
func (c *Controller) SetActiveUser(ctx context.Context, userID int64) (*chat.User, error) {
	r, err := c.SendCmd(ctx, chat.APISetActiveUser{UserID: userID})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespActiveUser || r.User == nil {
		return nil, respError("switching user", r)
	}
	c.model.SetCurrentUser(r.User)
	if err := c.LoadChats(ctx); err != nil {
		return nil, err
	}
	return r.User, nil
}

// StartChat starts the engine. It reports whether the engine was already
// running.
func (c *Controller) StartChat(ctx context.Context) (alreadyRunning bool, err error) {
	r, err := c.SendCmd(ctx, chat.StartChat{SubscribeConnections: true, ExpireChatItems: true})
	if err != nil {
		return false, err
	}
	switch r.Type {
	case chat.RespChatStarted:
		c.model.SetChatRunning(true)
		return false, nil
	case chat.RespChatRunning:
		c.model.SetChatRunning(true)
		return true, nil
	}
	return false, respError("starting chat", r)
}

// StopChat stops the engine.
func (c *Controller) StopChat(ctx context.Context) error {
	r, err := c.SendCmd(ctx, chat.APIStopChat{})
	if err != nil {
		return err
	}
	if r.Type != chat.RespChatStopped {
		return respError("stopping chat", r)
	}
	c.model.SetChatRunning(false)
	return nil
}

// LoadChats replaces the chat list with the active user's chats.
func (c *Controller) LoadChats(ctx context.Context) error {
	userID, ok := c.model.ActiveUserID()
	if !ok {
		return ErrNoActiveUser
	}
	r, err := c.SendCmd(ctx, chat.APIGetChats{UserID: userID})
	if err != nil {
		return err
	}
	if r.Type != chat.RespAPIChats {
		return respError("loading chats", r)
	}
	c.model.ReplaceChats(r.Chats)
	return nil
}

// LoadChat loads one chat with a page of items into the model.
func (c *Controller) LoadChat(ctx context.Context, ct chat.ChatType, apiID int64, count int) (*chat.Chat, error) {
	r, err := c.SendCmd(ctx, chat.APIGetChat{ChatType: ct, APIID: apiID, Count: count})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespAPIChat || r.Chat == nil {
		return nil, respError("loading chat", r)
	}
	c.model.AddChat(*r.Chat)
	return r.Chat, nil
}

// SendMessage sends a composed message and reconciles the echoed item.
func (c *Controller) SendMessage(ctx context.Context, ct chat.ChatType, apiID int64, msg chat.ComposedMessage) (*chat.AChatItem, error) {
	r, err := c.SendCmd(ctx, chat.APISendMessage{ChatType: ct, APIID: apiID, Message: msg})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespNewChatItem || r.ChatItem == nil {
		return nil, respError("sending message", r)
	}
	c.processReceivedMsg(r)
	return r.ChatItem, nil
}

// UpdateChatItem edits an item's content in place.
func (c *Controller) UpdateChatItem(ctx context.Context, ct chat.ChatType, apiID, itemID int64, mc chat.MsgContent) (*chat.AChatItem, error) {
	r, err := c.SendCmd(ctx, chat.APIUpdateChatItem{ChatType: ct, APIID: apiID, ItemID: itemID, Content: mc})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespChatItemUpdated || r.ChatItem == nil {
		return nil, respError("updating item", r)
	}
	c.processReceivedMsg(r)
	return r.ChatItem, nil
}

// DeleteChatItem deletes an item, locally or for everyone.
func (c *Controller) DeleteChatItem(ctx context.Context, ct chat.ChatType, apiID, itemID int64, mode chat.CIDeleteMode) error {
	r, err := c.SendCmd(ctx, chat.APIDeleteChatItem{ChatType: ct, APIID: apiID, ItemID: itemID, Mode: mode})
	if err != nil {
		return err
	}
	if r.Type != chat.RespChatItemDeleted {
		return respError("deleting item", r)
	}
	c.processReceivedMsg(r)
	return nil
}

// MarkChatRead marks items read on the engine and in the model.
func (c *Controller) MarkChatRead(ctx context.Context, ct chat.ChatType, apiID int64, rng *chat.ItemRange) error {
	r, err := c.SendCmd(ctx, chat.APIChatRead{ChatType: ct, APIID: apiID, Range: rng})
	if err != nil {
		return err
	}
	if r.Type != chat.RespCmdOk {
		return respError("marking chat read", r)
	}
	c.model.MarkItemsRead(fmt.Sprintf("%s%d", ct, apiID), rng)
	c.ntf.CancelChat(fmt.Sprintf("%s%d", ct, apiID))
	return nil
}

// DeleteChat deletes a conversation and drops its notifications.
func (c *Controller) DeleteChat(ctx context.Context, ct chat.ChatType, apiID int64) error {
	r, err := c.SendCmd(ctx, chat.APIDeleteChat{ChatType: ct, APIID: apiID})
	if err != nil {
		return err
	}
	if r.IsError() {
		return respError("deleting chat", r)
	}
	id := fmt.Sprintf("%s%d", ct, apiID)
	c.model.DeleteChat(id)
	c.ntf.CancelChat(id)
	return nil
}

// ClearChat removes all items of a conversation.
func (c *Controller) ClearChat(ctx context.Context, ct chat.ChatType, apiID int64) error {
	r, err := c.SendCmd(ctx, chat.APIClearChat{ChatType: ct, APIID: apiID})
	if err != nil {
		return err
	}
	if r.Type != chat.RespChatCleared {
		return respError("clearing chat", r)
	}
	c.processReceivedMsg(r)
	return nil
}

// AcceptContactRequest accepts an inbound request and replaces the request
// chat with the new contact.
func (c *Controller) AcceptContactRequest(ctx context.Context, req chat.UserContactRequest) (*chat.Contact, error) {
	r, err := c.SendCmd(ctx, chat.APIAcceptContact{ContactReqID: req.ContactRequestID})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespAcceptingContactRequest || r.Contact == nil {
		if ce := r.Err(); ce != nil && ce.IsAuthError() {
			return nil, fmt.Errorf("connection authorization failed: the sender may have deleted the request")
		}
		return nil, respError("accepting contact request", r)
	}
	c.model.DeleteChat(req.ID())
	c.ntf.CancelChat(req.ID())
	c.processReceivedMsg(r)
	return r.Contact, nil
}

// RejectContactRequest rejects and removes an inbound request.
func (c *Controller) RejectContactRequest(ctx context.Context, req chat.UserContactRequest) error {
	r, err := c.SendCmd(ctx, chat.APIRejectContact{ContactReqID: req.ContactRequestID})
	if err != nil {
		return err
	}
	if r.Type != chat.RespContactRequestRejected {
		return respError("rejecting contact request", r)
	}
	c.model.DeleteChat(req.ID())
	c.ntf.CancelChat(req.ID())
	return nil
}

// AddContact creates a one-time invitation link.
func (c *Controller) AddContact(ctx context.Context) (string, error) {
	r, err := c.SendCmd(ctx, chat.AddContact{})
	if err != nil {
		return "", err
	}
	if r.Type != chat.RespInvitation || r.ConnReqInvitation == "" {
		return "", respError("creating invitation", r)
	}
	return r.ConnReqInvitation, nil
}

// Connect joins a connection link. It reports whether the peer was already
// a known contact.
func (c *Controller) Connect(ctx context.Context, connReq string) (alreadyKnown bool, err error) {
	r, err := c.SendCmd(ctx, chat.Connect{ConnReq: connReq})
	if err != nil {
		return false, err
	}
	switch r.Type {
	case chat.RespSentConfirmation, chat.RespSentInvitation:
		return false, nil
	case chat.RespContactAlreadyExists:
		return true, nil
	}
	if ce := r.Err(); ce != nil {
		if ce.IsAuthError() {
			return false, fmt.Errorf("connection authorization failed: the link may have been deleted")
		}
		if ce.Type == chat.ErrKindChat && ce.ErrorType != nil && ce.ErrorType.Type == chat.ChatErrInvalidConnReq {
			return false, fmt.Errorf("invalid connection link")
		}
	}
	return false, respError("connecting", r)
}

// CreateAddress creates the user's long-term contact address and returns
// the link.
func (c *Controller) CreateAddress(ctx context.Context) (string, error) {
	r, err := c.SendCmd(ctx, chat.CreateMyAddress{})
	if err != nil {
		return "", err
	}
	if r.Type != chat.RespUserContactLinkCreated || r.ConnReqContact == "" {
		return "", respError("creating address", r)
	}
	return r.ConnReqContact, nil
}

// ShowAddress returns the long-term contact address, or "" when none is set.
func (c *Controller) ShowAddress(ctx context.Context) (string, error) {
	r, err := c.SendCmd(ctx, chat.ShowMyAddress{})
	if err != nil {
		return "", err
	}
	if r.Type == chat.RespUserContactLink {
		return r.ConnReqContact, nil
	}
	if ce := r.Err(); ce != nil && ce.IsNotFound() {
		return "", nil
	}
	return "", respError("loading address", r)
}

// DeleteAddress removes the long-term contact address.
func (c *Controller) DeleteAddress(ctx context.Context) error {
	r, err := c.SendCmd(ctx, chat.DeleteMyAddress{})
	if err != nil {
		return err
	}
	if r.Type != chat.RespUserContactLinkDeleted {
		return respError("deleting address", r)
	}
	return nil
}

// AddressQR renders the contact address as a PNG QR code for display.
func (c *Controller) AddressQR(ctx context.Context, size int) ([]byte, error) {
	link, err := c.ShowAddress(ctx)
	if err != nil {
		return nil, err
	}
	if link == "" {
		return nil, fmt.Errorf("no address to render")
	}
	return linkqr.PNG(link, size)
}

// SetContactAlias sets the local alias shown for a contact.
func (c *Controller) SetContactAlias(ctx context.Context, contactID int64, alias string) (*chat.Contact, error) {
	r, err := c.SendCmd(ctx, chat.APISetContactAlias{ContactID: contactID, Alias: alias})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespContactAliasUpdated || r.ToContact == nil {
		return nil, respError("updating alias", r)
	}
	c.processReceivedMsg(r)
	return r.ToContact, nil
}

// SetChatSettings updates per-chat toggles such as notification enablement.
func (c *Controller) SetChatSettings(ctx context.Context, ct chat.ChatType, apiID int64, s chat.ChatSettings) error {
	r, err := c.SendCmd(ctx, chat.APISetChatSettings{ChatType: ct, APIID: apiID, Settings: s})
	if err != nil {
		return err
	}
	if r.Type != chat.RespCmdOk {
		return respError("updating chat settings", r)
	}
	return nil
}

// GetChatItemTTL reads the retention period; nil means keep forever.
func (c *Controller) GetChatItemTTL(ctx context.Context) (*int64, error) {
	r, err := c.SendCmd(ctx, chat.APIGetChatItemTTL{})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespChatItemTTL {
		return nil, respError("loading item ttl", r)
	}
	c.model.SetChatItemTTL(r.ChatItemTTL)
	return r.ChatItemTTL, nil
}

// SetChatItemTTL sets the retention period and refreshes the chat list,
// since expiry may have removed items.
func (c *Controller) SetChatItemTTL(ctx context.Context, seconds *int64) error {
	r, err := c.SendCmd(ctx, chat.APISetChatItemTTL{Seconds: seconds})
	if err != nil {
		return err
	}
	if r.Type != chat.RespCmdOk {
		return respError("setting item ttl", r)
	}
	c.model.SetChatItemTTL(seconds)
	return c.LoadChats(ctx)
}

// MarkChatUnread flags a conversation as unread without touching items.
func (c *Controller) MarkChatUnread(ctx context.Context, ct chat.ChatType, apiID int64, unread bool) error {
	r, err := c.SendCmd(ctx, chat.APIChatUnread{ChatType: ct, APIID: apiID, Unread: unread})
	if err != nil {
		return err
	}
	if r.Type != chat.RespCmdOk {
		return respError("marking chat unread", r)
	}
	return nil
}

// EncryptStorage re-keys the engine database. The start instant is
// committed synchronously before the command is sent, so an interrupted
// re-encryption is detectable on the next start.
func (c *Controller) EncryptStorage(ctx context.Context, currentKey, newKey string) error {
	if err := c.prefs.SetTimeSync(prefs.KeyEncryptionStartedAt, time.Now()); err != nil {
		return err
	}
	r, err := c.SendCmd(ctx, chat.APIStorageEncryption{CurrentKey: currentKey, NewKey: newKey})
	if err != nil {
		return err
	}
	if r.IsError() {
		return respError("encrypting storage", r)
	}
	return c.prefs.Delete(prefs.KeyEncryptionStartedAt)
}

// StartCall invites a contact to a call and tracks it as the active call.
func (c *Controller) StartCall(ctx context.Context, ct chat.Contact, media chat.CallMediaType) error {
	if err := c.calls.StartOutgoing(ct, media); err != nil {
		return err
	}
	callType := chat.CallType{Media: media, Capabilities: chat.CallCapabilities{Encryption: true}}
	r, err := c.SendCmd(ctx, chat.APISendCallInvitation{ContactID: ct.ContactID, CallType: callType})
	if err != nil {
		c.calls.End(ct.ContactID)
		return err
	}
	if r.Type != chat.RespCmdOk {
		c.calls.End(ct.ContactID)
		return respError("inviting to call", r)
	}
	return nil
}

// SendCallOffer answers an invitation with the local WebRTC offer.
func (c *Controller) SendCallOffer(ctx context.Context, contactID int64, offer chat.WebRTCCallOffer) error {
	r, err := c.SendCmd(ctx, chat.APISendCallOffer{ContactID: contactID, Offer: offer})
	if err != nil {
		return err
	}
	if r.Type != chat.RespCmdOk {
		return respError("sending call offer", r)
	}
	return c.calls.Transition(contactID, call.OfferSent)
}

// SendCallAnswer completes negotiation with the local WebRTC answer.
func (c *Controller) SendCallAnswer(ctx context.Context, contactID int64, answer chat.WebRTCSession) error {
	r, err := c.SendCmd(ctx, chat.APISendCallAnswer{ContactID: contactID, Answer: answer})
	if err != nil {
		return err
	}
	if r.Type != chat.RespCmdOk {
		return respError("sending call answer", r)
	}
	return c.calls.Transition(contactID, call.AnswerSent)
}

// EndCall hangs up and clears the active call.
func (c *Controller) EndCall(ctx context.Context, contactID int64) error {
	r, err := c.SendCmd(ctx, chat.APIEndCall{ContactID: contactID})
	if err != nil {
		return err
	}
	c.calls.End(contactID)
	c.ntf.CancelCall()
	if r.IsError() {
		return respError("ending call", r)
	}
	return nil
}

// RejectCall declines an inbound invitation without becoming a call.
func (c *Controller) RejectCall(ctx context.Context, contactID int64) error {
	r, err := c.SendCmd(ctx, chat.APIRejectCall{ContactID: contactID})
	if err != nil {
		return err
	}
	c.calls.End(contactID)
	c.ntf.CancelCall()
	if r.IsError() {
		return respError("rejecting call", r)
	}
	return nil
}

// SendCallExtraInfo forwards late ICE candidates to the peer.
func (c *Controller) SendCallExtraInfo(ctx context.Context, contactID int64, info chat.WebRTCExtraInfo) error {
	r, err := c.SendCmd(ctx, chat.APISendCallExtraInfo{ContactID: contactID, ExtraInfo: info})
	if err != nil {
		return err
	}
	if r.Type != chat.RespCmdOk {
		return respError("sending call info", r)
	}
	return nil
}

// ReportCallStatus tells the engine the local media state of the call.
func (c *Controller) ReportCallStatus(ctx context.Context, contactID int64, status chat.CallStatusAPI) error {
	r, err := c.SendCmd(ctx, chat.APICallStatus{ContactID: contactID, Status: status})
	if err != nil {
		return err
	}
	if r.IsError() {
		return respError("reporting call status", r)
	}
	if status == chat.CallStatusConnected {
		return c.calls.Transition(contactID, call.Connected)
	}
	return nil
}

// GetCallInvitations reloads pending inbound calls, typically after a
// reconnect, and records each with the call machine.
func (c *Controller) GetCallInvitations(ctx context.Context) ([]chat.RcvCallInvitation, error) {
	r, err := c.SendCmd(ctx, chat.APIGetCallInvitations{})
	if err != nil {
		return nil, err
	}
	if r.Type != chat.RespCallInvitations {
		return nil, respError("loading call invitations", r)
	}
	for _, inv := range r.CallInvitations {
		c.calls.Invite(inv)
	}
	return r.CallInvitations, nil
}

// ReceiveFile accepts an inbound transfer.
func (c *Controller) ReceiveFile(ctx context.Context, fileID int64) (*chat.AChatItem, error) {
	r, err := c.SendCmd(ctx, chat.ReceiveFile{FileID: fileID})
	if err != nil {
		return nil, err
	}
	if r.Type == chat.RespRcvFileAcceptedSndCancelled {
		return nil, fmt.Errorf("sender cancelled the transfer")
	}
	if r.Type != chat.RespRcvFileAccepted || r.ChatItem == nil {
		return nil, respError("receiving file", r)
	}
	c.processReceivedMsg(r)
	return r.ChatItem, nil
}

// CancelFile cancels a transfer in either direction.
func (c *Controller) CancelFile(ctx context.Context, fileID int64) error {
	r, err := c.SendCmd(ctx, chat.CancelFile{FileID: fileID})
	if err != nil {
		return err
	}
	if r.IsError() {
		return respError("cancelling file", r)
	}
	c.processReceivedMsg(r)
	return nil
}
