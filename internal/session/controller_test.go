package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/Teyk0o/wwsnb/internal/dom"
	"github.com/Teyk0o/wwsnb/internal/render"
	"github.com/Teyk0o/wwsnb/internal/session"
	"github.com/Teyk0o/wwsnb/pkg/config"
	"github.com/Teyk0o/wwsnb/pkg/storage"
	"github.com/Teyk0o/wwsnb/pkg/transport"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

type fakeConn struct {
	mu      sync.Mutex
	writes  [][]byte
	inbound chan []byte
	done    chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 16), done: make(chan struct{})}
}

func (f *fakeConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	select {
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	case <-f.done:
		return 0, nil, io.EOF
	case data := <-f.inbound:
		return websocket.MessageText, data, nil
	}
}

func (f *fakeConn) Write(_ context.Context, _ websocket.MessageType, p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, append([]byte(nil), p...))
	return nil
}

func (f *fakeConn) Close(websocket.StatusCode, string) error {
	f.once.Do(func() { close(f.done) })
	return nil
}

type fixture struct {
	doc        *dom.Document
	controller *session.Controller
	store      *storage.Store
	conn       *fakeConn
	up         *atomic.Bool
	closeStore func()
}

func testClientConfig() config.ClientConfig {
	return config.ClientConfig{
		ScanInterval:     time.Hour,
		MutationDebounce: time.Hour,
	}
}

func newFixture(t *testing.T, dir string) *fixture {
	t.Helper()
	logger := newTestLogger()

	store, err := storage.Open(dir, logger)
	if err != nil {
		t.Fatalf("storage.Open failed: %v", err)
	}
	var closeOnce sync.Once
	closeStore := func() { closeOnce.Do(func() { _ = store.Close() }) }
	t.Cleanup(closeStore)

	doc := dom.NewDocument("https://class.example/join?sessionToken=lesson-7")
	conn := newFakeConn()
	up := &atomic.Bool{}
	up.Store(true)
	dial := func(context.Context, string) (transport.Conn, error) {
		if !up.Load() {
			return nil, errors.New("relay down")
		}
		return conn, nil
	}
	client := transport.NewClient(context.Background(), transport.ClientConfig{
		URL:          "ws://relay.test/ws",
		SessionToken: "lesson-7",
		MaxRetries:   1,
		RetryDelay:   time.Millisecond,
		SendTimeout:  time.Second,
		Dial:         dial,
	}, logger)

	ctl := session.NewController(doc, "alice", testClientConfig(), client, store, logger)
	return &fixture{doc: doc, controller: ctl, store: store, conn: conn, up: up, closeStore: closeStore}
}

func addMessage(d *dom.Document, author, body, ts string) *dom.Element {
	msg := d.CreateElement("div")
	msg.AddClass(dom.ClassMessage)
	name := d.CreateElement("span")
	name.SetAttr(dom.AttrTest, dom.TestUserName)
	name.Text = author
	text := d.CreateElement("p")
	text.SetAttr(dom.AttrTest, dom.TestMessageText)
	text.Text = body
	when := d.CreateElement("time")
	when.SetAttr(dom.AttrTest, dom.TestMessageTime)
	when.Text = ts
	msg.AppendChild(name)
	msg.AppendChild(text)
	msg.AppendChild(when)
	d.Root.AppendChild(msg)
	return msg
}

func TestToggleCommitsAfterConfirmedSend(t *testing.T) {
	f := newFixture(t, t.TempDir())
	msg := addMessage(f.doc, "bob", "hello", "10:00")
	f.controller.Setup()
	defer f.controller.Cleanup(false)

	id := render.MessageIdentity(msg)
	f.controller.ToggleReaction(id, "👍")

	if !f.controller.State().UserReacted(id, "👍", "alice") {
		t.Error("confirmed send did not commit the toggle")
	}
	badge := msg.QueryByClass(dom.ClassReactionBadge)
	if badge == nil || badge.Text != "👍 1" {
		t.Errorf("badge not rendered after commit: %v", badge)
	}
}

func TestToggleWhileDisconnectedCommitsOnDrain(t *testing.T) {
	f := newFixture(t, t.TempDir())
	msg := addMessage(f.doc, "bob", "hello", "10:00")
	f.up.Store(false)
	f.controller.Setup()
	defer f.controller.Cleanup(false)

	id := render.MessageIdentity(msg)
	f.controller.ToggleReaction(id, "🔥")

	if f.controller.State().UserReacted(id, "🔥", "alice") {
		t.Fatal("toggle committed before any send was confirmed")
	}

	// Relay comes back; the queued frame drains and commits.
	f.up.Store(true)
	if err := f.controller.Client().Connect(); err != nil {
		t.Fatalf("reconnect failed: %v", err)
	}
	if !f.controller.State().UserReacted(id, "🔥", "alice") {
		t.Error("drained send did not commit the toggle")
	}
}

func TestRemotePushOverridesLocalState(t *testing.T) {
	f := newFixture(t, t.TempDir())
	msg := addMessage(f.doc, "bob", "hello", "10:00")
	f.controller.Setup()
	defer f.controller.Cleanup(false)

	id := render.MessageIdentity(msg)
	push, _ := transport.NewStatePush("", `[["`+id+`",[["👍",["alice","bob"]]]]]`)
	f.conn.inbound <- push

	// Wait for the asynchronous apply-and-redraw to land.
	var badge *dom.Element
	deadline := time.After(2 * time.Second)
	for {
		badge = msg.QueryByClass(dom.ClassReactionBadge)
		if badge != nil && badge.Text == "👍 2" {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("relay push never redrew the badge, got %v", badge)
		case <-time.After(5 * time.Millisecond):
		}
	}
	if !badge.HasClass(dom.ClassReactionBadgeOwn) {
		t.Error("own reaction not highlighted")
	}
	if !f.controller.State().UserReacted(id, "👍", "bob") {
		t.Error("push not applied to local state")
	}
}

func TestRefreshTeardownPersistsAndReloads(t *testing.T) {
	dir := t.TempDir()

	f := newFixture(t, dir)
	msg := addMessage(f.doc, "bob", "hello", "10:00")
	f.controller.Setup()
	id := render.MessageIdentity(msg)
	f.controller.ToggleReaction(id, "👍")
	f.controller.Cleanup(true)
	f.closeStore()

	// Reload with the same data dir and session token.
	g := newFixture(t, dir)
	addMessage(g.doc, "bob", "hello", "10:00")
	g.controller.Setup()
	defer g.controller.Cleanup(false)

	if !g.controller.State().UserReacted(id, "👍", "alice") {
		t.Error("persisted state not restored after refresh")
	}
}

func TestFinalTeardownErasesState(t *testing.T) {
	dir := t.TempDir()

	f := newFixture(t, dir)
	msg := addMessage(f.doc, "bob", "hello", "10:00")
	f.controller.Setup()
	id := render.MessageIdentity(msg)
	f.controller.ToggleReaction(id, "👍")
	f.controller.Cleanup(false)

	snap, err := f.store.LoadSnapshot("lesson-7")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(snap) != 0 {
		t.Errorf("final teardown left stored state behind: %v", snap)
	}
}

func TestScanTagsModeratorsAndAttachesControls(t *testing.T) {
	f := newFixture(t, t.TempDir())

	item := f.doc.CreateElement("li")
	item.AddClass(dom.ClassMessageItem)
	avatar := f.doc.CreateElement("div")
	avatar.AddClass(dom.ClassModeratorAvatar)
	item.AppendChild(avatar)
	name := f.doc.CreateElement("span")
	name.SetAttr(dom.AttrTest, dom.TestUserName)
	name.Text = "teacher"
	header := f.doc.CreateElement("div")
	header.AppendChild(name)
	item.AppendChild(header)
	msg := f.doc.CreateElement("div")
	msg.AddClass(dom.ClassMessage)
	item.AppendChild(msg)
	f.doc.Root.AppendChild(item)

	f.controller.Setup()
	defer f.controller.Cleanup(false)

	if !item.HasClass(dom.ClassModeratorMessage) {
		t.Error("initial pass did not tag the moderator message")
	}
	if msg.QueryByClass(dom.ClassReactionTrigger) == nil {
		t.Error("initial pass did not attach reaction controls")
	}
}
