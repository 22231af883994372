package chat

import (
	"fmt"
	"testing"
	"time"
)

func testContact(id int64, name string) Contact {
	return Contact{
		ContactID:        id,
		LocalDisplayName: name,
		Profile:          LocalProfile{ProfileID: id, DisplayName: name},
		ActiveConn:       Connection{ConnID: id, ConnStatus: ConnReady},
		ChatSettings:     ChatSettings{EnableNtfs: true},
		CreatedAt:        time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
	}
}

func rcvItem(id int64, text string) ChatItem {
	mc := TextMsgContent(text)
	return ChatItem{
		ChatDir: CIDirection{Type: DirDirectRcv},
		Meta: CIMeta{
			ItemID:     id,
			ItemTs:     time.Date(2026, 1, 2, 10, 0, int(id), 0, time.UTC),
			ItemText:   text,
			ItemStatus: CIStatus{Type: StatusRcvNew},
		},
		Content: CIContent{Type: ContentRcvMsg, MsgContent: &mc},
	}
}

func TestAddChatItemOrdersAndCounts(t *testing.T) {
	m := NewModel()
	a := DirectInfo(testContact(1, "alice"))
	b := DirectInfo(testContact(2, "bob"))
	m.AddChat(Chat{ChatInfo: a})
	m.AddChat(Chat{ChatInfo: b})

	m.AddChatItem(a, rcvItem(10, "first"))
	m.AddChatItem(a, rcvItem(11, "second"))

	chats := m.Chats()
	if len(chats) != 2 {
		t.Fatalf("len(chats) = %d, want 2", len(chats))
	}
	if chats[0].ChatInfo.ID() != "@1" {
		t.Errorf("top chat = %q, want @1 after new items", chats[0].ChatInfo.ID())
	}
	if got := chats[0].ChatStats.UnreadCount; got != 2 {
		t.Errorf("unread = %d, want 2", got)
	}
	if got := chats[0].ChatStats.MinUnreadItemID; got != 10 {
		t.Errorf("minUnreadItemId = %d, want 10", got)
	}
	if len(chats[0].ChatItems) != 2 || chats[0].ChatItems[0].ID() != 10 || chats[0].ChatItems[1].ID() != 11 {
		t.Errorf("items out of order: %+v", chats[0].ChatItems)
	}
}

func TestUpsertChatItemInPlace(t *testing.T) {
	m := NewModel()
	info := DirectInfo(testContact(1, "alice"))
	m.AddChatItem(info, rcvItem(10, "original"))

	updated := rcvItem(10, "edited")
	updated.Meta.ItemEdited = true
	if inserted := m.UpsertChatItem(info, updated); inserted {
		t.Error("UpsertChatItem inserted, want in-place update")
	}

	c, _ := m.ChatByID("@1")
	if len(c.ChatItems) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(c.ChatItems))
	}
	if c.ChatItems[0].Text() != "edited" || !c.ChatItems[0].Meta.ItemEdited {
		t.Errorf("item = %+v, want edited content", c.ChatItems[0])
	}

	if inserted := m.UpsertChatItem(info, rcvItem(11, "new")); !inserted {
		t.Error("UpsertChatItem updated, want insert for fresh id")
	}
}

// Applying a chat's events one at a time in delivery order must reproduce
// the engine's final item set.
func TestSequentialItemReconciliation(t *testing.T) {
	m := NewModel()
	info := DirectInfo(testContact(1, "alice"))

	for i := int64(1); i <= 5; i++ {
		m.AddChatItem(info, rcvItem(i, fmt.Sprintf("msg %d", i)))
	}
	edited := rcvItem(3, "msg 3 v2")
	m.UpsertChatItem(info, edited)
	m.RemoveChatItem("@1", 2)

	c, ok := m.ChatByID("@1")
	if !ok {
		t.Fatal("chat @1 missing")
	}
	wantIDs := []int64{1, 3, 4, 5}
	if len(c.ChatItems) != len(wantIDs) {
		t.Fatalf("len(items) = %d, want %d", len(c.ChatItems), len(wantIDs))
	}
	for i, id := range wantIDs {
		if c.ChatItems[i].ID() != id {
			t.Errorf("items[%d] = %d, want %d", i, c.ChatItems[i].ID(), id)
		}
	}
	if c.ChatItems[1].Text() != "msg 3 v2" {
		t.Errorf("edited item text = %q, want msg 3 v2", c.ChatItems[1].Text())
	}
	if c.ChatStats.UnreadCount != 4 {
		t.Errorf("unread = %d, want 4 after deleting one unread", c.ChatStats.UnreadCount)
	}
}

func TestMarkItemsRead(t *testing.T) {
	m := NewModel()
	info := DirectInfo(testContact(1, "alice"))
	for i := int64(1); i <= 4; i++ {
		m.AddChatItem(info, rcvItem(i, "m"))
	}

	m.MarkItemsRead("@1", &ItemRange{From: 1, To: 2})
	c, _ := m.ChatByID("@1")
	if c.ChatStats.UnreadCount != 2 {
		t.Errorf("unread = %d, want 2 after partial read", c.ChatStats.UnreadCount)
	}

	m.MarkItemsRead("@1", nil)
	c, _ = m.ChatByID("@1")
	if c.ChatStats.UnreadCount != 0 {
		t.Errorf("unread = %d, want 0 after full read", c.ChatStats.UnreadCount)
	}
	if c.ChatStats.MinUnreadItemID != 0 {
		t.Errorf("minUnreadItemId = %d, want 0", c.ChatStats.MinUnreadItemID)
	}
	for _, it := range c.ChatItems {
		if it.IsRcvNew() {
			t.Errorf("item %d still rcvNew", it.ID())
		}
	}
}

func TestUpsertChatInfoKeepsItems(t *testing.T) {
	m := NewModel()
	ct := testContact(1, "alice")
	m.AddChatItem(DirectInfo(ct), rcvItem(1, "hello"))

	ct.Profile.LocalAlias = "work"
	m.UpdateContact(ct)

	c, ok := m.ChatByID("@1")
	if !ok {
		t.Fatal("chat @1 missing after contact update")
	}
	if len(c.ChatItems) != 1 {
		t.Errorf("len(items) = %d, want 1", len(c.ChatItems))
	}
	if c.ChatInfo.Contact.Profile.LocalAlias != "work" {
		t.Errorf("alias = %q, want work", c.ChatInfo.Contact.Profile.LocalAlias)
	}
}

func TestClearAndDeleteChat(t *testing.T) {
	m := NewModel()
	info := DirectInfo(testContact(1, "alice"))
	m.AddChatItem(info, rcvItem(1, "hello"))

	m.ClearChat("@1")
	c, ok := m.ChatByID("@1")
	if !ok {
		t.Fatal("chat deleted by ClearChat")
	}
	if len(c.ChatItems) != 0 || c.ChatStats.UnreadCount != 0 {
		t.Errorf("chat not cleared: %d items, %d unread", len(c.ChatItems), c.ChatStats.UnreadCount)
	}

	m.DeleteChat("@1")
	if m.HasChat("@1") {
		t.Error("chat still present after DeleteChat")
	}
}

func TestIncrementUserUnread(t *testing.T) {
	m := NewModel()
	m.SetUsers([]UserInfo{
		{User: User{UserID: 1, ActiveUser: true}},
		{User: User{UserID: 2}},
	})

	m.IncrementUserUnread(2)
	m.IncrementUserUnread(2)
	m.IncrementUserUnread(99) // unknown id is a no-op

	users := m.Users()
	if users[0].UnreadCount != 0 {
		t.Errorf("active user unread = %d, want 0", users[0].UnreadCount)
	}
	if users[1].UnreadCount != 2 {
		t.Errorf("background user unread = %d, want 2", users[1].UnreadCount)
	}
}

func TestUpdateNetworkStatus(t *testing.T) {
	m := NewModel()
	m.AddChat(Chat{ChatInfo: DirectInfo(testContact(1, "alice"))})
	m.AddChat(Chat{ChatInfo: DirectInfo(testContact(2, "bob"))})

	m.UpdateNetworkStatus(NetworkStatus{Kind: NetConnected}, "@1", "@2")
	for _, c := range m.Chats() {
		if c.NetworkStatus.Kind != NetConnected {
			t.Errorf("chat %s status = %q, want connected", c.ChatInfo.ID(), c.NetworkStatus.Kind)
		}
	}
}

func TestCurrentUserCopies(t *testing.T) {
	m := NewModel()
	u := User{UserID: 1, ActiveUser: true, LocalDisplayName: "alice"}
	m.SetCurrentUser(&u)

	got := m.CurrentUser()
	got.LocalDisplayName = "mutated"
	if m.CurrentUser().LocalDisplayName != "alice" {
		t.Error("CurrentUser returned a shared reference")
	}

	if id, ok := m.ActiveUserID(); !ok || id != 1 {
		t.Errorf("ActiveUserID() = %d,%v, want 1,true", id, ok)
	}
}
