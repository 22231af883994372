package chat

import "sync"

// Model is the shared chat-state container. The event dispatcher is its
// sole writer; UI-facing callers read through copy-on-read snapshots. The
// lock exists for those outside readers, not for writer/writer races.
type Model struct {
	mu sync.RWMutex

	currentUser *User
	users       []UserInfo
	chats       []Chat
	chatRunning bool
	chatItemTTL *int64
}

func NewModel() *Model {
	return &Model{}
}

// CurrentUser returns a copy of the active profile, or nil before login.
func (m *Model) CurrentUser() *User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.currentUser == nil {
		return nil
	}
	u := *m.currentUser
	return &u
}

func (m *Model) SetCurrentUser(u *User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u == nil {
		m.currentUser = nil
		return
	}
	cp := *u
	m.currentUser = &cp
}

// ActiveUserID reports the active profile id, false before login.
func (m *Model) ActiveUserID() (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.currentUser == nil {
		return 0, false
	}
	return m.currentUser.UserID, true
}

func (m *Model) SetUsers(users []UserInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append([]UserInfo(nil), users...)
}

func (m *Model) Users() []UserInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]UserInfo(nil), m.users...)
}

// IncrementUserUnread bumps the unread counter of a background profile.
func (m *Model) IncrementUserUnread(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].User.UserID == userID {
			m.users[i].UnreadCount++
			return
		}
	}
}

func (m *Model) ChatRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chatRunning
}

func (m *Model) SetChatRunning(running bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatRunning = running
}

func (m *Model) ChatItemTTL() *int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.chatItemTTL == nil {
		return nil
	}
	ttl := *m.chatItemTTL
	return &ttl
}

func (m *Model) SetChatItemTTL(seconds *int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seconds == nil {
		m.chatItemTTL = nil
		return
	}
	ttl := *seconds
	m.chatItemTTL = &ttl
}

// ReplaceChats installs a freshly loaded chat list, most recent first.
func (m *Model) ReplaceChats(chats []Chat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats = append([]Chat(nil), chats...)
}

// Chats returns a snapshot of the chat list. Item slices are shared with
// the container; callers must treat them as read-only.
func (m *Model) Chats() []Chat {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Chat(nil), m.chats...)
}

func (m *Model) HasChat(id ChatID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.indexOf(id) >= 0
}

func (m *Model) ChatByID(id ChatID) (Chat, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(id)
	if i < 0 {
		return Chat{}, false
	}
	c := m.chats[i]
	c.ChatItems = append([]ChatItem(nil), c.ChatItems...)
	return c, true
}

// indexOf requires the lock held.
func (m *Model) indexOf(id ChatID) int {
	for i := range m.chats {
		if m.chats[i].ChatInfo.ID() == id {
			return i
		}
	}
	return -1
}

// AddChat prepends a new chat; an existing chat with the same id is
// replaced in place instead.
func (m *Model) AddChat(c Chat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(c.ChatInfo.ID()); i >= 0 {
		m.chats[i] = c
		return
	}
	m.chats = append([]Chat{c}, m.chats...)
}

// UpdateChatInfo replaces the info of an existing chat, keeping its items
// and stats.
func (m *Model) UpdateChatInfo(info ChatInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(info.ID()); i >= 0 {
		m.chats[i].ChatInfo = info
	}
}

// UpsertChatInfo updates an existing chat's info or inserts an empty chat
// for it.
func (m *Model) UpsertChatInfo(info ChatInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(info.ID()); i >= 0 {
		m.chats[i].ChatInfo = info
		return
	}
	m.chats = append([]Chat{{ChatInfo: info}}, m.chats...)
}

// UpdateContact upserts the direct chat of a contact.
func (m *Model) UpdateContact(ct Contact) {
	m.UpsertChatInfo(DirectInfo(ct))
}

// UpdateGroup upserts the chat of a group.
func (m *Model) UpdateGroup(g GroupInfo) {
	m.UpsertChatInfo(GroupChatInfo(g))
}

func (m *Model) DeleteChat(id ChatID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(id); i >= 0 {
		m.chats = append(m.chats[:i], m.chats[i+1:]...)
	}
}

// ClearChat drops a chat's items and resets its counters, keeping the chat.
func (m *Model) ClearChat(id ChatID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexOf(id); i >= 0 {
		m.chats[i].ChatItems = nil
		m.chats[i].ChatStats = ChatStats{}
	}
}

// AddChatItem appends a new item, moves the chat to the top and counts
// inbound-new items as unread. The chat is created if missing.
func (m *Model) AddChatItem(info ChatInfo, item ChatItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(info.ID())
	if i < 0 {
		m.chats = append([]Chat{{ChatInfo: info}}, m.chats...)
		i = 0
	}
	c := m.chats[i]
	c.ChatInfo = info
	c.ChatItems = append(c.ChatItems, item)
	if item.IsRcvNew() {
		c.ChatStats.UnreadCount++
		if c.ChatStats.MinUnreadItemID == 0 || item.ID() < c.ChatStats.MinUnreadItemID {
			c.ChatStats.MinUnreadItemID = item.ID()
		}
	}
	// move to top
	m.chats = append(m.chats[:i], m.chats[i+1:]...)
	m.chats = append([]Chat{c}, m.chats...)
}

// UpsertChatItem replaces the item with the same id, or appends it when
// absent. It reports whether the item was newly inserted.
func (m *Model) UpsertChatItem(info ChatInfo, item ChatItem) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(info.ID())
	if i < 0 {
		m.chats = append([]Chat{{ChatInfo: info, ChatItems: []ChatItem{item}}}, m.chats...)
		return true
	}
	m.chats[i].ChatInfo = info
	items := m.chats[i].ChatItems
	for j := range items {
		if items[j].ID() == item.ID() {
			items[j] = item
			return false
		}
	}
	m.chats[i].ChatItems = append(items, item)
	return true
}

// RemoveChatItem deletes the item with the given id, adjusting the unread
// counter if the item was still unread.
func (m *Model) RemoveChatItem(chatID ChatID, itemID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(chatID)
	if i < 0 {
		return
	}
	items := m.chats[i].ChatItems
	for j := range items {
		if items[j].ID() == itemID {
			if items[j].IsRcvNew() && m.chats[i].ChatStats.UnreadCount > 0 {
				m.chats[i].ChatStats.UnreadCount--
			}
			m.chats[i].ChatItems = append(items[:j], items[j+1:]...)
			return
		}
	}
}

// MarkItemsRead flips inbound-new items to read, all of them or only those
// inside the given id range.
func (m *Model) MarkItemsRead(chatID ChatID, r *ItemRange) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(chatID)
	if i < 0 {
		return
	}
	items := m.chats[i].ChatItems
	for j := range items {
		if !items[j].IsRcvNew() {
			continue
		}
		if r != nil && (items[j].ID() < r.From || items[j].ID() > r.To) {
			continue
		}
		items[j].Meta.ItemStatus = CIStatus{Type: StatusRcvRead}
		if m.chats[i].ChatStats.UnreadCount > 0 {
			m.chats[i].ChatStats.UnreadCount--
		}
	}
	if m.chats[i].ChatStats.UnreadCount == 0 {
		m.chats[i].ChatStats.MinUnreadItemID = 0
	}
}

// UpdateNetworkStatus sets the connection status shown for the given chats.
func (m *Model) UpdateNetworkStatus(status NetworkStatus, chatIDs ...ChatID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range chatIDs {
		if i := m.indexOf(id); i >= 0 {
			m.chats[i].NetworkStatus = status
		}
	}
}
