// Package render keeps the visible reaction controls in sync with the
// reaction state. Discovery attaches controls to new message elements;
// rendering rebuilds a message's badges from scratch on every call
// rather than diffing.
package render

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Teyk0o/wwsnb/internal/dom"
	"github.com/Teyk0o/wwsnb/pkg/identity"
	"github.com/Teyk0o/wwsnb/pkg/reactions"
)

// Catalog is the fixed set of selectable emoji.
var Catalog = []string{"👍", "❤️", "😂", "😮", "😢", "👏", "🔥", "🎉", "🤔", "👀", "💯", "🙏"}

// ToggleFunc routes a picker selection to the sync path.
type ToggleFunc func(messageID, emoji string)

type Renderer struct {
	doc    *dom.Document
	state  *reactions.State
	userID string
	toggle ToggleFunc
	logger *slog.Logger

	picker        *dom.Element
	pickerTrigger *dom.Element
	pickerTarget  *dom.Element
}

func NewRenderer(doc *dom.Document, state *reactions.State, userID string, toggle ToggleFunc, logger *slog.Logger) *Renderer {
	return &Renderer{
		doc:    doc,
		state:  state,
		userID: userID,
		toggle: toggle,
		logger: logger.With(slog.String("component", "renderer")),
	}
}

// MessageIdentity returns the message's derived identity, computing it
// lazily on first sight and caching it on the element for the lifetime
// of that node.
func MessageIdentity(msg *dom.Element) string {
	if id := msg.Data(dom.DataMessageID); id != "" {
		return id
	}
	id := identity.Derive(
		textOf(msg.QueryByAttr(dom.AttrTest, dom.TestUserName)),
		textOf(msg.QueryByAttr(dom.AttrTest, dom.TestMessageText)),
		textOf(msg.QueryByAttr(dom.AttrTest, dom.TestMessageTime)),
	)
	msg.SetData(dom.DataMessageID, id)
	return id
}

func textOf(el *dom.Element) string {
	if el == nil {
		return ""
	}
	return el.TextContent()
}

// Scan attaches reaction controls to every message element that does
// not have them yet. Idempotent per element via the attached flag.
func (r *Renderer) Scan() {
	for _, msg := range r.doc.Root.QueryAllByClass(dom.ClassMessage) {
		r.attach(msg)
	}
}

func (r *Renderer) attach(msg *dom.Element) {
	if msg.Flag(dom.FlagHasReactions) {
		return
	}
	msg.SetFlag(dom.FlagHasReactions)
	MessageIdentity(msg)

	trigger := r.doc.CreateElement("button")
	trigger.AddClass(dom.ClassReactionTrigger)
	trigger.Text = "🙂"
	msg.AppendChild(trigger)

	r.Render(msg)
}

// RenderAll redraws every attached message. Called after full-state
// replacement from the relay or storage.
func (r *Renderer) RenderAll() {
	for _, msg := range r.doc.Root.QueryAllByClass(dom.ClassMessage) {
		if msg.Flag(dom.FlagHasReactions) {
			r.Render(msg)
		}
	}
}

// RenderMessage redraws the attached message carrying messageID, if any.
func (r *Renderer) RenderMessage(messageID string) {
	for _, msg := range r.doc.Root.QueryAllByClass(dom.ClassMessage) {
		if msg.Data(dom.DataMessageID) == messageID {
			r.Render(msg)
			return
		}
	}
}

// Render rebuilds the badge row for one message: container created once
// and reused, badges torn down and rebuilt every call.
func (r *Renderer) Render(msg *dom.Element) {
	set := r.state.Message(MessageIdentity(msg))

	container := msg.QueryByClass(dom.ClassReactionsContainer)
	if len(set) == 0 {
		if container != nil {
			container.ClearChildren()
		}
		return
	}
	if container == nil {
		container = r.doc.CreateElement("div")
		container.AddClass(dom.ClassReactionsContainer)
		msg.AppendChild(container)
	}
	container.ClearChildren()

	for _, emoji := range sortedEmojis(set) {
		users := set[emoji]
		badge := r.doc.CreateElement("span")
		badge.AddClass(dom.ClassReactionBadge)
		badge.Text = fmt.Sprintf("%s %d", emoji, len(users))
		badge.SetAttr("title", strings.Join(users, ", "))
		if contains(users, r.userID) {
			badge.AddClass(dom.ClassReactionBadgeOwn)
		}
		container.AppendChild(badge)
	}
}

func sortedEmojis(set map[string][]string) []string {
	out := make([]string, 0, len(set))
	for emoji := range set {
		out = append(out, emoji)
	}
	sort.Strings(out)
	return out
}

func contains(users []string, userID string) bool {
	for _, u := range users {
		if u == userID {
			return true
		}
	}
	return false
}
