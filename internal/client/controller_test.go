package client

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dmaia/echochat/internal/bus"
	"github.com/dmaia/echochat/internal/call"
	"github.com/dmaia/echochat/internal/chat"
	"github.com/dmaia/echochat/internal/config"
	"github.com/dmaia/echochat/internal/engine"
	"github.com/dmaia/echochat/internal/notify"
	"github.com/dmaia/echochat/internal/prefs"
)

// fakeEngine scripts command replies and lets tests push events into the
// receive side.
type fakeEngine struct {
	mu        sync.Mutex
	sent      []string
	replies   []string // queued resp objects, consumed in order
	events    chan []byte
	closed    bool
	receivers int32
	maxRecv   int32
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{events: make(chan []byte, 16)}
}

func (f *fakeEngine) reply(resp string) {
	f.mu.Lock()
	f.replies = append(f.replies, resp)
	f.mu.Unlock()
}

func (f *fakeEngine) sentCmds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeEngine) SendCmd(ctx context.Context, corrID, cmd string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, engine.ErrClosed
	}
	f.sent = append(f.sent, cmd)
	resp := `{"type":"cmdOk"}`
	if len(f.replies) > 0 {
		resp = f.replies[0]
		f.replies = f.replies[1:]
	}
	return []byte(fmt.Sprintf(`{"corr":%q,"resp":%s}`, corrID, resp)), nil
}

func (f *fakeEngine) RecvMsgWait(ctx context.Context, timeout time.Duration) ([]byte, error) {
	n := atomic.AddInt32(&f.receivers, 1)
	if max := atomic.LoadInt32(&f.maxRecv); n > max {
		atomic.CompareAndSwapInt32(&f.maxRecv, max, n)
	}
	defer atomic.AddInt32(&f.receivers, -1)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-f.events:
		if !ok {
			return nil, engine.ErrClosed
		}
		return msg, nil
	case <-time.After(timeout):
		return nil, nil
	}
}

func (f *fakeEngine) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// ntfSink records emitted notifications.
type ntfSink struct {
	mu    sync.Mutex
	shown []notify.Notification
	gone  []int
}

func (s *ntfSink) Notify(n notify.Notification) {
	s.mu.Lock()
	s.shown = append(s.shown, n)
	s.mu.Unlock()
}

func (s *ntfSink) Cancel(id int) {
	s.mu.Lock()
	s.gone = append(s.gone, id)
	s.mu.Unlock()
}

func (s *ntfSink) alerts() []notify.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []notify.Notification
	for _, n := range s.shown {
		if !n.Summary && !n.Silent {
			out = append(out, n)
		}
	}
	return out
}

type stubPrefs struct{}

func (stubPrefs) NotificationPreviewMode() notify.PreviewMode { return notify.PreviewMessage }

func newTestController(t *testing.T, eng engine.Engine) (*Controller, *ntfSink) {
	t.Helper()
	db, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatalf("open prefs db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := zap.NewNop()
	b := bus.New()
	sink := &ntfSink{}
	cfg := config.Default()
	cfg.PollWaitMs = 20

	c := New(
		eng,
		chat.NewModel(),
		call.NewMachine(b, log),
		notify.NewManager(sink, stubPrefs{}, log),
		prefs.NewStore(db),
		cfg,
		b,
		log,
	)
	return c, sink
}

func process(t *testing.T, c *Controller, raw string) {
	t.Helper()
	r, _ := chat.DecodeResponse([]byte(raw))
	if r.Type == chat.RespInvalid {
		t.Fatalf("test payload did not decode: %s", raw)
	}
	c.processReceivedMsg(r)
}

const activeUserJSON = `{"type":"activeUser","user":{"userId":1,"activeUser":true,"showNtfs":true,"profile":{"displayName":"alice","fullName":""}}}`

func newItemJSON(userID, itemID int64, text string) string {
	return fmt.Sprintf(`{"type":"newChatItem",
		"user":{"userId":%d,"activeUser":false,"showNtfs":true,"profile":{"displayName":"u","fullName":""}},
		"chatItem":{
			"chatInfo":{"type":"direct","contact":{"contactId":7,"localDisplayName":"bob","profile":{"displayName":"bob","fullName":""},"chatSettings":{"enableNtfs":true}}},
			"chatItem":{
				"chatDir":{"type":"directRcv"},
				"meta":{"itemId":%d,"itemTs":"2026-08-31T10:00:00Z","itemText":%q,"itemStatus":{"type":"rcvNew"},"createdAt":"2026-08-31T10:00:00Z"},
				"content":{"type":"rcvMsgContent","msgContent":{"type":"text","text":%q}}
			}
		}}`, userID, itemID, text, text)
}

func TestCreateActiveUserFlow(t *testing.T) {
	eng := newFakeEngine()
	eng.reply(`{"type":"activeUser","user":{"userId":1,"activeUser":true,"showNtfs":true,"profile":{"displayName":"alice","fullName":"Alice"}}}`)
	eng.reply(`{"type":"usersList","users":[{"user":{"userId":1,"activeUser":true,"showNtfs":true,"profile":{"displayName":"alice","fullName":"Alice"}},"unreadCount":0}]}`)
	c, _ := newTestController(t, eng)

	u, err := c.CreateActiveUser(context.Background(), chat.Profile{DisplayName: "alice", FullName: "Alice"})
	if err != nil {
		t.Fatalf("CreateActiveUser: %v", err)
	}
	if u.UserID != 1 || !u.ActiveUser {
		t.Fatalf("unexpected user: %+v", u)
	}
	cur := c.model.CurrentUser()
	if cur == nil || cur.DisplayName() != "alice" {
		t.Fatalf("current user not set: %+v", cur)
	}

	users, err := c.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("got %d users, want 1", len(users))
	}

	cmds := eng.sentCmds()
	if len(cmds) != 2 || cmds[0] != "/u alice Alice" || cmds[1] != "/users" {
		t.Fatalf("unexpected wire commands: %v", cmds)
	}
}

func TestCreateActiveUserDuplicateName(t *testing.T) {
	eng := newFakeEngine()
	eng.reply(`{"type":"chatCmdError","chatError":{"type":"errorStore","storeError":{"type":"duplicateName"}}}`)
	c, _ := newTestController(t, eng)

	_, err := c.CreateActiveUser(context.Background(), chat.Profile{DisplayName: "alice"})
	if err == nil || !strings.Contains(err.Error(), "already used") {
		t.Fatalf("want duplicate-name error, got %v", err)
	}
}

func TestActiveUserEventAddsItem(t *testing.T) {
	eng := newFakeEngine()
	c, _ := newTestController(t, eng)
	process(t, c, activeUserJSON)

	process(t, c, newItemJSON(1, 10, "hello"))

	chats := c.model.Chats()
	if len(chats) != 1 {
		t.Fatalf("got %d chats, want 1", len(chats))
	}
	if got := chats[0].ChatInfo.ID(); got != "@7" {
		t.Fatalf("chat id = %q, want @7", got)
	}
	if len(chats[0].ChatItems) != 1 || chats[0].ChatItems[0].ID() != 10 {
		t.Fatalf("unexpected items: %+v", chats[0].ChatItems)
	}
	if chats[0].ChatStats.UnreadCount != 1 {
		t.Fatalf("unread = %d, want 1", chats[0].ChatStats.UnreadCount)
	}
}

func TestBackgroundUserEventOnlyCounts(t *testing.T) {
	eng := newFakeEngine()
	c, sink := newTestController(t, eng)
	process(t, c, activeUserJSON)
	process(t, c, `{"type":"usersList","users":[
		{"user":{"userId":1,"activeUser":true,"showNtfs":true,"profile":{"displayName":"alice","fullName":""}},"unreadCount":0},
		{"user":{"userId":2,"activeUser":false,"showNtfs":true,"profile":{"displayName":"carol","fullName":""}},"unreadCount":0}]}`)

	process(t, c, newItemJSON(2, 10, "for carol"))

	if chats := c.model.Chats(); len(chats) != 0 {
		t.Fatalf("background event leaked into chat list: %+v", chats)
	}
	var carol *chat.UserInfo
	for _, ui := range c.model.Users() {
		if ui.User.UserID == 2 {
			u := ui
			carol = &u
		}
	}
	if carol == nil || carol.UnreadCount != 1 {
		t.Fatalf("background unread not counted: %+v", carol)
	}
	// the notification still fires, attributed to the event's own user
	alerts := sink.alerts()
	if len(alerts) != 1 || alerts[0].UserID != 2 {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
}

func TestSequentialEditAndDelete(t *testing.T) {
	eng := newFakeEngine()
	c, _ := newTestController(t, eng)
	process(t, c, activeUserJSON)

	for i := int64(1); i <= 3; i++ {
		process(t, c, newItemJSON(1, i, fmt.Sprintf("m%d", i)))
	}
	// edit item 2 in place
	process(t, c, `{"type":"chatItemUpdated",
		"user":{"userId":1,"activeUser":true,"showNtfs":true,"profile":{"displayName":"alice","fullName":""}},
		"chatItem":{
			"chatInfo":{"type":"direct","contact":{"contactId":7,"localDisplayName":"bob","profile":{"displayName":"bob","fullName":""}}},
			"chatItem":{
				"chatDir":{"type":"directRcv"},
				"meta":{"itemId":2,"itemTs":"2026-08-31T10:01:00Z","itemText":"edited","itemStatus":{"type":"rcvNew"},"createdAt":"2026-08-31T10:00:00Z"},
				"content":{"type":"rcvMsgContent","msgContent":{"type":"text","text":"edited"}}
			}
		}}`)
	// delete item 1 with no tombstone
	process(t, c, `{"type":"chatItemDeleted",
		"user":{"userId":1,"activeUser":true,"showNtfs":true,"profile":{"displayName":"alice","fullName":""}},
		"deletedChatItem":{
			"chatInfo":{"type":"direct","contact":{"contactId":7,"localDisplayName":"bob","profile":{"displayName":"bob","fullName":""}}},
			"chatItem":{
				"chatDir":{"type":"directRcv"},
				"meta":{"itemId":1,"itemTs":"2026-08-31T10:00:00Z","itemText":"m1","itemStatus":{"type":"rcvNew"},"createdAt":"2026-08-31T10:00:00Z"},
				"content":{"type":"rcvMsgContent","msgContent":{"type":"text","text":"m1"}}
			}
		}}`)

	ch, ok := c.model.ChatByID("@7")
	if !ok {
		t.Fatal("chat missing")
	}
	if len(ch.ChatItems) != 2 {
		t.Fatalf("got %d items, want 2", len(ch.ChatItems))
	}
	if ch.ChatItems[0].ID() != 2 || ch.ChatItems[0].Text() != "edited" {
		t.Fatalf("edit not applied in place: %+v", ch.ChatItems[0])
	}
	if ch.ChatItems[1].ID() != 3 {
		t.Fatalf("unexpected trailing item: %+v", ch.ChatItems[1])
	}
}

func TestContactRequestInsertsChatAndAlerts(t *testing.T) {
	eng := newFakeEngine()
	c, sink := newTestController(t, eng)
	process(t, c, activeUserJSON)

	process(t, c, `{"type":"receivedContactRequest",
		"user":{"userId":1,"activeUser":true,"showNtfs":true,"profile":{"displayName":"alice","fullName":""}},
		"contactRequest":{"contactRequestId":3,"localDisplayName":"dave","profile":{"displayName":"dave","fullName":""}}}`)

	chats := c.model.Chats()
	if len(chats) != 1 || chats[0].ChatInfo.ID() != "<@3" {
		t.Fatalf("request chat not inserted: %+v", chats)
	}
	alerts := sink.alerts()
	if len(alerts) != 1 || alerts[0].Action != notify.ActionAcceptContact {
		t.Fatalf("unexpected alerts: %+v", alerts)
	}
}

func TestSingleCallSlot(t *testing.T) {
	eng := newFakeEngine()
	c, _ := newTestController(t, eng)
	process(t, c, activeUserJSON)

	inv := `{"type":"callInvitation",
		"user":{"userId":1,"activeUser":true,"showNtfs":true,"profile":{"displayName":"alice","fullName":""}},
		"callInvitation":{"contact":{"contactId":%d,"localDisplayName":"c%d","profile":{"displayName":"c%d","fullName":""}},"callType":{"media":"audio","capabilities":{"encryption":true}}}}`
	process(t, c, fmt.Sprintf(inv, 1, 1, 1))
	process(t, c, fmt.Sprintf(inv, 2, 2, 2))

	active := c.calls.Active()
	if active == nil || active.Contact.ContactID != 1 {
		t.Fatalf("active call = %+v, want contact 1", active)
	}
	if got := len(c.calls.Invitations()); got != 2 {
		t.Fatalf("got %d invitations, want 2", got)
	}

	// ending the active call leaves the second invitation answerable
	process(t, c, `{"type":"callEnded",
		"user":{"userId":1,"activeUser":true,"showNtfs":true,"profile":{"displayName":"alice","fullName":""}},
		"contact":{"contactId":1,"localDisplayName":"c1","profile":{"displayName":"c1","fullName":""}}}`)
	if c.calls.Active() != nil {
		t.Fatal("call not cleared after callEnded")
	}
	if _, ok := c.calls.Invitation(2); !ok {
		t.Fatal("second invitation lost")
	}
}

func TestAutoReceiveSmallImage(t *testing.T) {
	eng := newFakeEngine()
	c, _ := newTestController(t, eng)
	process(t, c, activeUserJSON)

	process(t, c, `{"type":"newChatItem",
		"user":{"userId":1,"activeUser":true,"showNtfs":true,"profile":{"displayName":"alice","fullName":""}},
		"chatItem":{
			"chatInfo":{"type":"direct","contact":{"contactId":7,"localDisplayName":"bob","profile":{"displayName":"bob","fullName":""}}},
			"chatItem":{
				"chatDir":{"type":"directRcv"},
				"meta":{"itemId":1,"itemTs":"2026-08-31T10:00:00Z","itemText":"","itemStatus":{"type":"rcvNew"},"createdAt":"2026-08-31T10:00:00Z"},
				"content":{"type":"rcvMsgContent","msgContent":{"type":"image","text":"","image":"data:image/jpg;base64,x"}},
				"file":{"fileId":5,"fileName":"p.jpg","fileSize":1024,"fileStatus":"rcv_invitation"}
			}
		}}`)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, cmd := range eng.sentCmds() {
			if cmd == "/freceive 5" {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("auto-receive never sent, commands: %v", eng.sentCmds())
}

func TestAutoReceiveSkipsLargeFiles(t *testing.T) {
	eng := newFakeEngine()
	c, _ := newTestController(t, eng)
	process(t, c, activeUserJSON)

	aci := chat.AChatItem{
		ChatInfo: chat.DirectInfo(chat.Contact{ContactID: 7}),
		ChatItem: chat.ChatItem{
			Content: chat.CIContent{Type: "rcvMsgContent", MsgContent: &chat.MsgContent{Type: chat.MCImage}},
			File:    &chat.CIFile{FileID: 6, FileSize: c.cfg.AutoReceiveMaxSize + 1, FileStatus: chat.FileRcvInvitation},
		},
	}
	c.maybeAutoReceive(aci)

	time.Sleep(50 * time.Millisecond)
	if cmds := eng.sentCmds(); len(cmds) != 0 {
		t.Fatalf("oversized file was auto-received: %v", cmds)
	}
}

func TestReceiverStartsExactlyOnce(t *testing.T) {
	eng := newFakeEngine()
	c, _ := newTestController(t, eng)

	c.StartReceiver()
	c.StartReceiver()
	c.StartReceiver()
	time.Sleep(100 * time.Millisecond)
	c.Stop()

	if max := atomic.LoadInt32(&eng.maxRecv); max != 1 {
		t.Fatalf("%d concurrent receive loops, want 1", max)
	}
}

func TestReceiverStopsWhenEngineGone(t *testing.T) {
	eng := newFakeEngine()
	c, _ := newTestController(t, eng)

	stopped, unsub := c.bus.Subscribe(bus.KindEngineStopped, 1)
	defer unsub()

	c.StartReceiver()
	close(eng.events)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("receiver did not stop after engine closed")
	}

	// a restart after failure arms exactly one new loop
	eng.events = make(chan []byte, 1)
	c.StartReceiver()
	eng.events <- []byte(activeUserJSON)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if u := c.model.CurrentUser(); u != nil {
			c.Stop()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("restarted receiver processed no events")
}

func TestReceiverDeliversEventsInOrder(t *testing.T) {
	eng := newFakeEngine()
	c, _ := newTestController(t, eng)

	eng.events <- []byte(activeUserJSON)
	for i := int64(1); i <= 5; i++ {
		eng.events <- []byte(newItemJSON(1, i, fmt.Sprintf("m%d", i)))
	}
	c.StartReceiver()
	defer c.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ch, ok := c.model.ChatByID("@7"); ok && len(ch.ChatItems) == 5 {
			for i, it := range ch.ChatItems {
				if it.ID() != int64(i+1) {
					t.Fatalf("items out of order: %+v", ch.ChatItems)
				}
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("items never all arrived")
}

func TestUnknownEventIsIgnored(t *testing.T) {
	eng := newFakeEngine()
	c, _ := newTestController(t, eng)
	process(t, c, activeUserJSON)

	r, _ := chat.DecodeResponse([]byte(`{"type":"somethingNewer","payload":{"a":1}}`))
	c.processReceivedMsg(r)
	r, _ = chat.DecodeResponse([]byte(`not json at all`))
	c.processReceivedMsg(r)

	if u := c.model.CurrentUser(); u == nil || u.UserID != 1 {
		t.Fatal("state disturbed by unrecognized events")
	}
}

func TestConnectOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		resp    string
		known   bool
		wantErr string
	}{
		{"confirmation", `{"type":"sentConfirmation"}`, false, ""},
		{"invitation", `{"type":"sentInvitation"}`, false, ""},
		{"already known", `{"type":"contactAlreadyExists","contact":{"contactId":7,"localDisplayName":"bob","profile":{"displayName":"bob","fullName":""}}}`, true, ""},
		{"deleted link", `{"type":"chatCmdError","chatError":{"type":"errorAgent","agentError":{"type":"SMP","smpErr":{"type":"AUTH"}}}}`, false, "authorization"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eng := newFakeEngine()
			eng.reply(tc.resp)
			c, _ := newTestController(t, eng)

			known, err := c.Connect(context.Background(), "https://link.echochat.io/invitation#abc")
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Connect: %v", err)
				}
				if known != tc.known {
					t.Fatalf("alreadyKnown = %v, want %v", known, tc.known)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("want error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
