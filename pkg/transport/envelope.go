package transport

import "encoding/json"

// Frame types exchanged with the relay. Frames are ad-hoc JSON envelopes,
// one per websocket text message.
const (
	// TypeUpdateReactions carries the full reaction table, serialized to
	// the entries form and nested as a string inside data.reactions.
	// Client -> relay on connect (with sessionToken), relay -> client on
	// every push.
	TypeUpdateReactions = "update_reactions"
	// TypeReactionUpdate carries a single toggle, client -> relay.
	TypeReactionUpdate = "reaction_update"
)

const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

type Envelope struct {
	Type         string          `json:"type"`
	SessionToken string          `json:"sessionToken,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
}

type UpdateReactionsData struct {
	Reactions string `json:"reactions"`
}

type ReactionUpdateData struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
	UserID    string `json:"userId"`
	Action    string `json:"action"`
}

// NewStatePush builds an update_reactions frame. sessionToken may be
// empty for relay->client pushes.
func NewStatePush(sessionToken, entries string) ([]byte, error) {
	data, err := json.Marshal(UpdateReactionsData{Reactions: entries})
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		Type:         TypeUpdateReactions,
		SessionToken: sessionToken,
		Data:         data,
	})
}

// NewReactionUpdate builds a reaction_update frame for one toggle.
func NewReactionUpdate(messageID, emoji, userID, action string) ([]byte, error) {
	data, err := json.Marshal(ReactionUpdateData{
		MessageID: messageID,
		Emoji:     emoji,
		UserID:    userID,
		Action:    action,
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: TypeReactionUpdate, Data: data})
}
