package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dmaia/echochat/internal/chat"
)

// DefaultWindow is the coalescing window: repeated events for the same
// chat inside it are emitted silently instead of alerting again.
const DefaultWindow = 30 * time.Second

// Prefs supplies the user-facing notification settings at emission time.
type Prefs interface {
	NotificationPreviewMode() PreviewMode
}

// Manager decides alert/silent/suppress per event and keeps the group
// summary alive exactly as long as it has children.
type Manager struct {
	platform Platform
	prefs    Prefs
	log      *zap.Logger
	window   time.Duration
	now      func() time.Time

	mu             sync.Mutex
	lastNotifiedAt map[string]time.Time
	groupChildren  map[string]map[int]bool
}

func NewManager(platform Platform, prefs Prefs, log *zap.Logger) *Manager {
	return &Manager{
		platform:       platform,
		prefs:          prefs,
		log:            log,
		window:         DefaultWindow,
		now:            time.Now,
		lastNotifiedAt: make(map[string]time.Time),
		groupChildren:  make(map[string]map[int]bool),
	}
}

// MessageReceived evaluates a new inbound item. Suppressed entirely when
// the owning profile hides notifications or the chat has them off.
func (m *Manager) MessageReceived(user chat.User, info chat.ChatInfo, item chat.ChatItem) {
	if !user.ShowNotifications() {
		return
	}
	if !info.NtfsEnabled() {
		return
	}

	title, body := m.preview(info.DisplayName(), item.Text())
	m.emit(Notification{
		ID:     ChatNtfID(info.ID()),
		Group:  MessageGroup,
		Title:  title,
		Body:   body,
		ChatID: info.ID(),
		UserID: user.UserID,
	})
}

// ContactRequestReceived always alerts: the event carries an accept action.
func (m *Manager) ContactRequestReceived(user chat.User, info chat.ChatInfo) {
	if !user.ShowNotifications() {
		return
	}
	title, _ := m.preview(info.DisplayName(), "")
	m.emit(Notification{
		ID:     ChatNtfID(info.ID()),
		Group:  MessageGroup,
		Title:  title,
		Body:   "wants to connect",
		Action: ActionAcceptContact,
		ChatID: info.ID(),
		UserID: user.UserID,
	})
}

// ContactConnected announces a contact becoming ready to message.
func (m *Manager) ContactConnected(user chat.User, info chat.ChatInfo) {
	if !user.ShowNotifications() {
		return
	}
	title, _ := m.preview(info.DisplayName(), "")
	m.emit(Notification{
		ID:     ChatNtfID(info.ID()),
		Group:  MessageGroup,
		Title:  title,
		Body:   "is connected",
		ChatID: info.ID(),
		UserID: user.UserID,
	})
}

// CallInvitationReceived posts into the dedicated call slot, replacing any
// previous call notification. Calls always alert.
func (m *Manager) CallInvitationReceived(user chat.User, inv chat.RcvCallInvitation) {
	if !user.ShowNotifications() {
		return
	}
	title, _ := m.preview(inv.Contact.DisplayName(), "")
	body := "incoming call"
	if inv.CallType.Media == chat.MediaVideo {
		body = "incoming video call"
	}
	m.platform.Notify(Notification{
		ID:     CallID,
		Title:  title,
		Body:   body,
		Action: ActionAnswerCall,
		UserID: user.UserID,
	})
}

// CancelChat removes a chat's notification; the last removal in a group
// also removes the group summary.
func (m *Manager) CancelChat(chatID string) {
	id := ChatNtfID(chatID)
	m.platform.Cancel(id)

	m.mu.Lock()
	defer m.mu.Unlock()
	children := m.groupChildren[MessageGroup]
	if children == nil {
		return
	}
	delete(children, id)
	if len(children) == 0 {
		delete(m.groupChildren, MessageGroup)
		m.platform.Cancel(SummaryID)
	}
}

// CancelCall clears the call slot.
func (m *Manager) CancelCall() {
	m.platform.Cancel(CallID)
}

// emit classifies the emission against the window and ships it plus the
// group summary. The window timestamp is bumped on every emission, alert
// or silent, so it measures from the latest event.
func (m *Manager) emit(n Notification) {
	m.mu.Lock()
	now := m.now()
	last, seen := m.lastNotifiedAt[n.ChatID]
	n.Silent = n.Action == ActionNone && seen && now.Sub(last) < m.window
	m.lastNotifiedAt[n.ChatID] = now

	children := m.groupChildren[n.Group]
	if children == nil {
		children = make(map[int]bool)
		m.groupChildren[n.Group] = children
	}
	firstChild := len(children) == 0
	children[n.ID] = true
	m.mu.Unlock()

	m.platform.Notify(n)
	if firstChild {
		m.platform.Notify(Notification{
			ID:      SummaryID,
			Group:   n.Group,
			Summary: true,
			Silent:  true,
		})
	}
	m.log.Debug("notification emitted",
		zap.String("chatId", n.ChatID), zap.Bool("silent", n.Silent))
}

// preview applies the user's content-redaction preference.
func (m *Manager) preview(sender, text string) (title, body string) {
	switch m.prefs.NotificationPreviewMode() {
	case PreviewHidden:
		return "echochat", hiddenBody
	case PreviewContact:
		return sender, hiddenBody
	default:
		return sender, text
	}
}
