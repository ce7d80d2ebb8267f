// Package session wires the reaction subsystem together for one chat
// session and tears it down again. Setup order matters: local controls
// render before remote sync applies, and the relay's full-state push
// overrides and redraws.
package session

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/Teyk0o/wwsnb/internal/dom"
	"github.com/Teyk0o/wwsnb/internal/moderator"
	"github.com/Teyk0o/wwsnb/internal/render"
	"github.com/Teyk0o/wwsnb/pkg/config"
	"github.com/Teyk0o/wwsnb/pkg/reactions"
	"github.com/Teyk0o/wwsnb/pkg/storage"
	"github.com/Teyk0o/wwsnb/pkg/transport"
)

type Controller struct {
	doc    *dom.Document
	token  string
	userID string
	logger *slog.Logger

	// domMu stands in for the page's single UI thread: scans arrive from
	// the watcher goroutine and redraws from the transport read loop, and
	// exactly one of them may touch the tree at a time.
	domMu sync.Mutex

	state    *reactions.State
	store    *storage.Store
	client   *transport.Client
	renderer *render.Renderer
	tagger   *moderator.Tagger
	watcher  *dom.Watcher
}

// NewController assembles the per-session object graph. The transport
// client must have been built for the same session token Token(doc.Location)
// yields; the controller installs its state callbacks on it.
func NewController(doc *dom.Document, userID string, cfg config.ClientConfig, client *transport.Client, store *storage.Store, logger *slog.Logger) *Controller {
	c := &Controller{
		doc:    doc,
		token:  Token(doc.Location),
		userID: userID,
		logger: logger.With(slog.String("component", "session")),
		state:  reactions.NewState(),
		store:  store,
		client: client,
	}
	c.tagger = moderator.NewTagger(doc, logger)
	c.renderer = render.NewRenderer(doc, c.state, userID, c.ToggleReaction, logger)
	c.watcher = dom.NewWatcher(doc, c.scan, cfg.ScanInterval, cfg.MutationDebounce, logger)

	client.SetSnapshotFunc(c.state.Snapshot)
	client.SetUpdateFunc(c.applyRemote)
	return c
}

// State exposes the session's reaction state.
func (c *Controller) State() *reactions.State { return c.state }

// Renderer exposes the UI layer, the entry point for click routing.
func (c *Controller) Renderer() *render.Renderer { return c.renderer }

// Client exposes the transport, the hook for external reconnect
// initiation once the bounded retry cycle gave up.
func (c *Controller) Client() *transport.Client { return c.client }

// Setup starts observation and the periodic scan, runs the initial pass,
// then connects the transport and loads the persisted snapshot. A failed
// connect is not fatal; the transport retries on its own.
func (c *Controller) Setup() {
	c.watcher.Start()
	c.scan()

	if err := c.client.Connect(); err != nil {
		c.logger.Warn("Initial relay connect failed, reconnect cycle running", slog.Any("error", err))
	}
	c.loadSnapshot()
	c.logger.Info("Session started", slog.String("sessionToken", c.token))
}

// Cleanup tears the session down. A page refresh persists the current
// state for the reload to pick up; a final teardown erases it. Storage
// errors are logged and never block the remaining teardown.
func (c *Controller) Cleanup(isRefresh bool) {
	c.watcher.Stop()

	reason := "session teardown"
	if isRefresh {
		reason = "page refresh"
	}
	c.client.Close(reason)

	if isRefresh {
		if err := c.store.SaveSnapshot(c.token, c.state.Snapshot()); err != nil {
			c.logger.Error("Failed to persist state during refresh teardown", slog.Any("error", err))
		}
	} else {
		if err := c.store.EraseSnapshot(c.token); err != nil {
			c.logger.Error("Failed to erase stored session state", slog.Any("error", err))
		}
	}
	c.logger.Info("Session stopped", slog.String("reason", reason))
}

// ToggleReaction runs the confirm-then-commit path for one picker
// selection: the local mutation is applied only after the transport
// confirmed the send, or later when a queued frame drains successfully.
func (c *Controller) ToggleReaction(messageID, emoji string) {
	action := transport.ActionAdd
	if c.state.UserReacted(messageID, emoji, c.userID) {
		action = transport.ActionRemove
	}
	payload, err := transport.NewReactionUpdate(messageID, emoji, c.userID, action)
	if err != nil {
		c.logger.Error("Failed to build reaction frame", slog.Any("error", err))
		return
	}

	commit := func() {
		c.state.Toggle(messageID, emoji, c.userID)
		c.persist()
		c.domMu.Lock()
		c.renderer.RenderMessage(messageID)
		c.domMu.Unlock()
	}

	if err := c.client.Send(payload); err != nil {
		if errors.Is(err, transport.ErrNotReady) {
			c.client.Enqueue(payload, commit)
			return
		}
		c.logger.Warn("Reaction send failed", slog.Any("error", err))
		return
	}
	commit()
}

// scan is the single discovery routine both the interval and the
// debounced mutation signal invoke.
func (c *Controller) scan() {
	c.domMu.Lock()
	defer c.domMu.Unlock()
	c.tagger.ScanAll(c.doc.Root)
	c.renderer.Scan()
}

// applyRemote replaces local state with a relay snapshot and redraws
// everything. Last write wins.
func (c *Controller) applyRemote(snap reactions.Snapshot) {
	c.state.ReplaceAll(snap)
	c.persist()
	c.domMu.Lock()
	c.renderer.RenderAll()
	c.domMu.Unlock()
}

func (c *Controller) loadSnapshot() {
	snap, err := c.store.LoadSnapshot(c.token)
	if err != nil {
		c.logger.Error("Failed to load stored session state", slog.Any("error", err))
		return
	}
	if len(snap) == 0 {
		return
	}
	c.state.ReplaceAll(snap)
	c.domMu.Lock()
	c.renderer.RenderAll()
	c.domMu.Unlock()
}

func (c *Controller) persist() {
	if err := c.store.SaveSnapshot(c.token, c.state.Snapshot()); err != nil {
		c.logger.Error("Failed to persist reaction state", slog.Any("error", err))
	}
}
