package relay

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/Teyk0o/wwsnb/internal/relay/events"
	"github.com/Teyk0o/wwsnb/pkg/reactions"
	"github.com/Teyk0o/wwsnb/pkg/transport"
)

// session groups the member connections of one chat session with the
// last known authoritative reaction state.
type session struct {
	token   string
	members map[uuid.UUID]*Conn
	state   *reactions.State
}

// Hub tracks sessions and fans frames out to their members. The relay
// keeps whole states, not deltas: every change broadcasts the full
// table for the session.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*session

	logger    *slog.Logger
	metrics   *Metrics
	publisher *events.Publisher
}

// NewHub builds the session registry. publisher may be nil; events are
// then not fanned out.
func NewHub(logger *slog.Logger, metrics *Metrics, publisher *events.Publisher) *Hub {
	return &Hub{
		sessions:  make(map[string]*session),
		logger:    logger.With(slog.String("component", "hub")),
		metrics:   metrics,
		publisher: publisher,
	}
}

// Join registers a connection with its session, creating the session on
// first member, and pushes the current state to the newcomer when the
// session already holds one.
func (h *Hub) Join(conn *Conn) {
	h.mu.Lock()
	sess, ok := h.sessions[conn.SessionToken()]
	if !ok {
		sess = &session{
			token:   conn.SessionToken(),
			members: make(map[uuid.UUID]*Conn),
			state:   reactions.NewState(),
		}
		h.sessions[sess.token] = sess
		h.logger.Debug("Created session", slog.String("sessionToken", sess.token))
	}
	sess.members[conn.ID()] = conn
	snap := sess.state.Snapshot()
	h.mu.Unlock()

	h.metrics.Connections.Inc()
	if len(snap) > 0 {
		if push, err := statePush(snap); err == nil {
			conn.Send(push)
		}
	}
	h.logger.Debug("Member joined", slog.String("connID", conn.ID().String()))
}

// Leave deregisters a connection. Empty sessions are removed for memory
// hygiene, dropping their in-memory state with them.
func (h *Hub) Leave(conn *Conn) {
	h.mu.Lock()
	sess, ok := h.sessions[conn.SessionToken()]
	if ok {
		delete(sess.members, conn.ID())
		if len(sess.members) == 0 {
			delete(h.sessions, sess.token)
			h.logger.Debug("Removed empty session", slog.String("sessionToken", sess.token))
		}
	}
	h.mu.Unlock()

	if ok {
		h.metrics.Connections.Dec()
	}
}

// HandleFrame applies one inbound frame. Malformed frames are counted,
// logged and dropped; they never close the connection.
func (h *Hub) HandleFrame(ctx context.Context, conn *Conn, frame []byte) {
	if !gjson.ValidBytes(frame) {
		h.dropFrame(conn, "invalid JSON")
		return
	}

	switch gjson.GetBytes(frame, "type").String() {
	case transport.TypeUpdateReactions:
		raw := gjson.GetBytes(frame, "data.reactions").String()
		snap, err := reactions.DecodeEntries(raw)
		if err != nil {
			h.dropFrame(conn, "unparseable reactions table")
			return
		}
		h.replaceState(conn, snap)
	case transport.TypeReactionUpdate:
		data := gjson.GetBytes(frame, "data")
		update := transport.ReactionUpdateData{
			MessageID: data.Get("messageId").String(),
			Emoji:     data.Get("emoji").String(),
			UserID:    data.Get("userId").String(),
			Action:    data.Get("action").String(),
		}
		if update.MessageID == "" || update.Emoji == "" || update.UserID == "" {
			h.dropFrame(conn, "incomplete reaction_update")
			return
		}
		h.applyUpdate(ctx, conn, update)
	default:
		h.dropFrame(conn, "unknown frame type")
	}
}

// replaceState installs a client's full table as the session state and
// broadcasts it. Last write wins, with one exception: an empty table
// never displaces existing reactions.
func (h *Hub) replaceState(conn *Conn, snap reactions.Snapshot) {
	h.mu.RLock()
	sess, ok := h.sessions[conn.SessionToken()]
	h.mu.RUnlock()
	if !ok {
		return
	}
	// A just-joined member pushes before it has loaded anything; its
	// empty table must not wipe a session that already holds reactions.
	if len(snap) == 0 && sess.state.Len() > 0 {
		h.logger.Debug("Ignoring empty state push into a populated session",
			slog.String("sessionToken", sess.token))
		return
	}
	sess.state.ReplaceAll(snap)
	h.broadcast(sess)
}

// applyUpdate folds one toggle into the session state and broadcasts
// the resulting full table to every member, sender included.
func (h *Hub) applyUpdate(ctx context.Context, conn *Conn, update transport.ReactionUpdateData) {
	h.mu.RLock()
	sess, ok := h.sessions[conn.SessionToken()]
	h.mu.RUnlock()
	if !ok {
		return
	}

	switch update.Action {
	case transport.ActionAdd:
		sess.state.Add(update.MessageID, update.Emoji, update.UserID)
	case transport.ActionRemove:
		sess.state.Remove(update.MessageID, update.Emoji, update.UserID)
	default:
		h.dropFrame(conn, "unknown action")
		return
	}

	h.broadcast(sess)

	if h.publisher != nil {
		ev := events.ReactionEvent{
			SessionToken: sess.token,
			MessageID:    update.MessageID,
			Emoji:        update.Emoji,
			UserID:       update.UserID,
			Action:       update.Action,
		}
		if err := h.publisher.PublishReaction(ctx, ev); err != nil {
			h.logger.Warn("Failed to publish reaction event", slog.Any("error", err))
		}
	}
}

func (h *Hub) broadcast(sess *session) {
	push, err := statePush(sess.state.Snapshot())
	if err != nil {
		h.logger.Error("Failed to encode session state", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	members := make([]*Conn, 0, len(sess.members))
	for _, m := range sess.members {
		members = append(members, m)
	}
	h.mu.RUnlock()

	for _, m := range members {
		m.Send(push)
	}
	h.metrics.FramesRelayed.Add(float64(len(members)))
}

// Sessions reports how many sessions are live.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// SessionState returns the current state snapshot for one session.
func (h *Hub) SessionState(token string) (reactions.Snapshot, bool) {
	h.mu.RLock()
	sess, ok := h.sessions[token]
	h.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return sess.state.Snapshot(), true
}

func (h *Hub) dropFrame(conn *Conn, why string) {
	h.metrics.MalformedFrames.Inc()
	h.logger.Warn("Dropping frame",
		slog.String("reason", why),
		slog.String("connID", conn.ID().String()),
	)
}

func statePush(snap reactions.Snapshot) ([]byte, error) {
	entries, err := reactions.EncodeEntries(snap)
	if err != nil {
		return nil, err
	}
	return transport.NewStatePush("", entries)
}
