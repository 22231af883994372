package client

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dmaia/echochat/internal/bus"
	"github.com/dmaia/echochat/internal/call"
	"github.com/dmaia/echochat/internal/chat"
	"github.com/dmaia/echochat/internal/prefs"
)

// processReceivedMsg reconciles one decoded event into shared state. It
// runs on the receive goroutine only, strictly one event at a time, so
// events for the same entity apply in engine-delivery order.
func (c *Controller) processReceivedMsg(r chat.Response) {
	user, active := c.eventUser(r)

	switch r.Type {
	case chat.RespActiveUser:
		if r.User != nil {
			c.model.SetCurrentUser(r.User)
			c.publish(bus.KindActiveUserChanged, *r.User)
		}

	case chat.RespUsersList:
		c.model.SetUsers(r.Users)

	case chat.RespChatStarted, chat.RespChatRunning:
		c.model.SetChatRunning(true)

	case chat.RespChatStopped:
		c.model.SetChatRunning(false)

	case chat.RespAPIChats:
		if active {
			c.model.ReplaceChats(r.Chats)
		}

	case chat.RespAPIChat:
		if active && r.Chat != nil {
			c.model.AddChat(*r.Chat)
			c.publish(bus.KindChatUpdated, r.Chat.ChatInfo)
		}

	case chat.RespUserProfileUpdated:
		if r.User != nil {
			c.model.SetCurrentUser(r.User)
			c.publish(bus.KindActiveUserChanged, *r.User)
		}

	case chat.RespNewChatItem:
		c.newChatItem(r, user, active)

	case chat.RespChatItemStatusUpdated, chat.RespChatItemUpdated,
		chat.RespRcvFileAccepted, chat.RespRcvFileStart, chat.RespRcvFileComplete,
		chat.RespSndFileStart, chat.RespSndFileComplete, chat.RespSndFileRcvCancelled:
		// classic and chunked transfers converge here: progress and
		// terminal states all arrive as item updates
		if active && r.ChatItem != nil {
			c.upsertItem(*r.ChatItem)
		}

	case chat.RespChatItemDeleted:
		c.chatItemDeleted(r, active)

	case chat.RespContactConnected:
		if r.Contact != nil {
			info := chat.DirectInfo(*r.Contact)
			if active {
				c.model.UpdateContact(*r.Contact)
				c.model.UpdateNetworkStatus(chat.NetworkStatus{Kind: chat.NetConnected}, info.ID())
				c.publish(bus.KindChatUpdated, info)
			}
			if user != nil {
				c.ntf.ContactConnected(*user, info)
			}
		}

	case chat.RespContactConnecting:
		if active && r.Contact != nil {
			c.model.UpdateContact(*r.Contact)
			c.publish(bus.KindChatUpdated, chat.DirectInfo(*r.Contact))
		}

	case chat.RespReceivedContactRequest:
		c.receivedContactRequest(r, user, active)

	case chat.RespAcceptingContactRequest:
		if active && r.Contact != nil {
			c.model.UpdateContact(*r.Contact)
			c.publish(bus.KindChatUpdated, chat.DirectInfo(*r.Contact))
		}

	case chat.RespContactUpdated, chat.RespContactAliasUpdated:
		if active && r.ToContact != nil {
			c.model.UpdateContact(*r.ToContact)
			c.publish(bus.KindChatUpdated, chat.DirectInfo(*r.ToContact))
		}

	case chat.RespContactDeleted:
		if active && r.Contact != nil {
			id := chat.DirectInfo(*r.Contact).ID()
			c.model.DeleteChat(id)
			c.ntf.CancelChat(id)
			c.publish(bus.KindChatRemoved, id)
		}

	case chat.RespContactConnectionDeleted:
		if active && r.Connection != nil {
			id := r.Connection.ID()
			c.model.DeleteChat(id)
			c.publish(bus.KindChatRemoved, id)
		}

	case chat.RespChatCleared:
		if active && r.ChatInfo != nil {
			c.model.ClearChat(r.ChatInfo.ID())
			c.publish(bus.KindChatUpdated, *r.ChatInfo)
		}

	case chat.RespContactsSubscribed:
		c.refsNetworkStatus(r.ContactRefs, chat.NetworkStatus{Kind: chat.NetConnected})

	case chat.RespContactsDisconnected:
		c.refsNetworkStatus(r.ContactRefs, chat.NetworkStatus{Kind: chat.NetDisconnected})

	case chat.RespContactSubError:
		if r.Contact != nil && r.ChatError != nil {
			c.model.UpdateNetworkStatus(
				chat.NetworkStatus{Kind: chat.NetError, Error: r.ChatError.String()},
				chat.DirectInfo(*r.Contact).ID())
			c.publish(bus.KindNetworkStatus, chat.DirectInfo(*r.Contact).ID())
		}

	case chat.RespContactSubSummary:
		c.contactSubSummary(r.ContactSubscriptions)

	case chat.RespPendingSubSummary:
		c.log.Debug("pending subscriptions", zap.Int("count", len(r.PendingSubscriptions)))

	case chat.RespMemberSubErrors:
		for _, me := range r.MemberSubErrors {
			c.log.Info("member subscription error",
				zap.String("member", me.Member.DisplayName()),
				zap.String("error", me.MemberError.String()))
		}

	case chat.RespGroupCreated, chat.RespUserAcceptedGroupSent,
		chat.RespReceivedGroupInvitation, chat.RespGroupDeletedUser:
		if r.GroupInfo != nil {
			if r.Type == chat.RespGroupDeletedUser {
				if active {
					id := chat.GroupChatInfo(*r.GroupInfo).ID()
					c.model.DeleteChat(id)
					c.ntf.CancelChat(id)
					c.publish(bus.KindChatRemoved, id)
				}
			} else if active {
				c.model.UpdateGroup(*r.GroupInfo)
				c.publish(bus.KindChatUpdated, chat.GroupChatInfo(*r.GroupInfo))
			}
		}

	case chat.RespGroupUpdated:
		if active && r.ToGroup != nil {
			c.model.UpdateGroup(*r.ToGroup)
			c.publish(bus.KindChatUpdated, chat.GroupChatInfo(*r.ToGroup))
		}

	case chat.RespJoinedGroupMember, chat.RespConnectedToGroupMember,
		chat.RespJoinedGroupMemberConnecting, chat.RespDeletedMember,
		chat.RespLeftMember, chat.RespUserDeletedMember, chat.RespLeftMemberUser,
		chat.RespGroupDeleted:
		if active && r.GroupInfo != nil {
			c.model.UpdateGroup(*r.GroupInfo)
			c.publish(bus.KindChatUpdated, chat.GroupChatInfo(*r.GroupInfo))
		}

	case chat.RespGroupSubscribed, chat.RespGroupEmpty:
		if active && r.Group != nil {
			c.model.UpdateGroup(r.Group.GroupInfo)
		}

	case chat.RespRcvFileSndCancelled:
		if r.RcvFileTransfer != nil {
			c.log.Info("sender cancelled file",
				zap.Int64("fileId", r.RcvFileTransfer.FileID))
		}

	case chat.RespSndFileCancelled, chat.RespSndGroupFileCancelled:
		// terminal on the sending side; item updates carry the state

	case chat.RespCallInvitation:
		c.callInvitation(r, user)

	case chat.RespCallOffer:
		if r.Contact != nil {
			c.callTransition(r.Contact.ContactID, call.OfferReceived)
		}

	case chat.RespCallAnswer:
		if r.Contact != nil {
			c.callTransition(r.Contact.ContactID, call.AnswerReceived)
		}

	case chat.RespCallExtraInfo:
		// late ICE candidates carry no state change

	case chat.RespCallEnded:
		if r.Contact != nil {
			c.calls.End(r.Contact.ContactID)
			c.ntf.CancelCall()
		}

	case chat.RespChatItemTTL:
		c.model.SetChatItemTTL(r.ChatItemTTL)

	case chat.RespUserContactLinkSubscribed, chat.RespUserContactLink,
		chat.RespUserContactLinkCreated, chat.RespUserContactLinkUpdated,
		chat.RespUserContactLinkDeleted, chat.RespCmdOk,
		chat.RespSentConfirmation, chat.RespSentInvitation,
		chat.RespInvitation, chat.RespContactsList, chat.RespGroupMembers,
		chat.RespUserProfileNoChange, chat.RespContactRequestRejected,
		chat.RespContactAlreadyExists, chat.RespSentGroupInvitation,
		chat.RespUserSMPServers, chat.RespNetworkConfig,
		chat.RespContactInfo, chat.RespGroupMemberInfo,
		chat.RespCallInvitations:
		// command replies consumed at their call sites

	case chat.RespUserContactLinkSubError:
		if r.ChatError != nil {
			c.log.Info("address subscription error", zap.String("error", r.ChatError.String()))
		}

	case chat.RespChatCmdError, chat.RespChatError:
		c.logChatError(r)

	case chat.RespUnknown:
		c.log.Info("unknown engine event", zap.String("respType", r.UnknownType()))

	case chat.RespInvalid:
		c.log.Error("invalid engine payload", zap.Int("size", len(r.Raw)))

	default:
		c.log.Info("unhandled engine event", zap.String("respType", r.Type))
	}
}

// eventUser resolves the profile an event belongs to and whether it is the
// active one. Events without a user are global and treated as active.
func (c *Controller) eventUser(r chat.Response) (*chat.User, bool) {
	if r.User == nil {
		return c.model.CurrentUser(), true
	}
	activeID, ok := c.model.ActiveUserID()
	return r.User, ok && r.User.UserID == activeID
}

func (c *Controller) newChatItem(r chat.Response, user *chat.User, active bool) {
	if r.ChatItem == nil {
		return
	}
	aci := *r.ChatItem

	if active {
		c.model.AddChatItem(aci.ChatInfo, aci.ChatItem)
		c.publish(bus.KindItemUpserted, aci)
		c.publish(bus.KindChatUpdated, aci.ChatInfo)
		c.maybeAutoReceive(aci)
	} else if user != nil && aci.ChatItem.IsRcvNew() {
		// background profiles keep a counter, not chat state
		c.model.IncrementUserUnread(user.UserID)
		c.publish(bus.KindUserUnreadChanged, user.UserID)
	}

	if user != nil && aci.ChatItem.IsRcvNew() && !aci.ChatItem.Content.Deleted() {
		c.ntf.MessageReceived(*user, aci.ChatInfo, aci.ChatItem)
	}
}

func (c *Controller) chatItemDeleted(r chat.Response, active bool) {
	if !active || r.DeletedChatItem == nil {
		return
	}
	deleted := *r.DeletedChatItem
	if r.ToChatItem == nil {
		// deletion with no replacement removes the item
		c.model.RemoveChatItem(deleted.ChatInfo.ID(), deleted.ChatItem.ID())
		c.publish(bus.KindItemRemoved, deleted)
		return
	}
	// deletion with a tombstone upserts the tombstone, never both
	c.upsertItem(*r.ToChatItem)
}

func (c *Controller) receivedContactRequest(r chat.Response, user *chat.User, active bool) {
	if r.ContactRequest == nil {
		return
	}
	info := chat.ContactRequestInfo(*r.ContactRequest)
	if active {
		c.model.UpsertChatInfo(info)
		c.publish(bus.KindChatUpdated, info)
	} else if user != nil {
		c.model.IncrementUserUnread(user.UserID)
		c.publish(bus.KindUserUnreadChanged, user.UserID)
	}
	if user != nil {
		c.ntf.ContactRequestReceived(*user, info)
	}
}

func (c *Controller) callInvitation(r chat.Response, user *chat.User) {
	if r.CallInvitation == nil {
		return
	}
	inv := *r.CallInvitation
	// call signaling bypasses active-user gating: the single call slot is
	// global
	c.calls.Invite(inv)
	c.publish(bus.KindCallInvitation, inv)
	if user != nil {
		c.ntf.CallInvitationReceived(*user, inv)
	}
}

func (c *Controller) callTransition(contactID int64, to call.State) {
	if err := c.calls.Transition(contactID, to); err != nil {
		c.log.Info("call transition rejected", zap.Error(err))
	}
}

func (c *Controller) upsertItem(aci chat.AChatItem) {
	c.model.UpsertChatItem(aci.ChatInfo, aci.ChatItem)
	c.publish(bus.KindItemUpserted, aci)
}

func (c *Controller) refsNetworkStatus(refs []chat.ContactRef, status chat.NetworkStatus) {
	if len(refs) == 0 {
		return
	}
	ids := make([]chat.ChatID, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID())
	}
	c.model.UpdateNetworkStatus(status, ids...)
	c.publish(bus.KindNetworkStatus, ids)
}

func (c *Controller) contactSubSummary(subs []chat.ContactSubStatus) {
	for _, sub := range subs {
		id := chat.DirectInfo(sub.Contact).ID()
		if sub.ContactError != nil {
			c.model.UpdateNetworkStatus(
				chat.NetworkStatus{Kind: chat.NetError, Error: sub.ContactError.String()}, id)
		} else {
			c.model.UpdateNetworkStatus(chat.NetworkStatus{Kind: chat.NetConnected}, id)
		}
	}
	if len(subs) > 0 {
		c.publish(bus.KindNetworkStatus, len(subs))
	}
}

// maybeAutoReceive schedules the download of small inbound media when the
// privacy setting allows. It runs off the dispatch loop so reconciliation
// never blocks on a command round-trip.
func (c *Controller) maybeAutoReceive(aci chat.AChatItem) {
	file := aci.ChatItem.File
	if file == nil || file.FileStatus != chat.FileRcvInvitation {
		return
	}
	mc := aci.ChatItem.Content.MsgContent
	if mc == nil || (mc.Type != chat.MCImage && mc.Type != chat.MCVoice) {
		return
	}
	if file.FileSize > c.cfg.AutoReceiveMaxSize {
		return
	}
	if !c.prefs.GetBool(prefs.KeyPrivacyAcceptImages, true) {
		return
	}

	fileID := file.FileID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := c.SendCmd(ctx, chat.ReceiveFile{FileID: fileID}); err != nil {
			c.log.Info("auto-receive failed", zap.Int64("fileId", fileID), zap.Error(err))
		}
	}()
}

// logChatError classifies the kinds call sites react to and logs the rest
// verbatim, so no failure disappears silently.
func (c *Controller) logChatError(r chat.Response) {
	ce := r.Err()
	if ce == nil {
		c.log.Error("engine error with no detail", zap.String("respType", r.Type))
		return
	}
	switch {
	case ce.IsAuthError():
		c.log.Info("connection authorization failed", zap.String("error", ce.String()))
	case ce.IsNetworkTimeout():
		c.log.Info("connection timeout", zap.String("error", ce.String()))
	case ce.IsNetworkError():
		c.log.Info("connection error", zap.String("error", ce.String()))
	default:
		c.log.Error("engine error", zap.String("error", ce.String()))
	}
}

func (c *Controller) publish(kind string, payload any) {
	c.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
}
