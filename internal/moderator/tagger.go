// Package moderator flags messages posted by moderators: a highlight
// class on the message's list item and an inline "MOD" badge next to the
// username. Stateless, idempotent per element, re-run on every scan.
package moderator

import (
	"log/slog"

	"github.com/Teyk0o/wwsnb/internal/dom"
)

type Tagger struct {
	doc    *dom.Document
	logger *slog.Logger
}

func NewTagger(doc *dom.Document, logger *slog.Logger) *Tagger {
	return &Tagger{
		doc:    doc,
		logger: logger.With(slog.String("component", "moderator_tagger")),
	}
}

// ScanAll inspects every message element under root.
func (t *Tagger) ScanAll(root *dom.Element) {
	for _, msg := range root.QueryAllByClass(dom.ClassMessage) {
		t.Process(msg)
	}
}

// Process inspects one message element exactly once. The processed flag
// is set on first inspection regardless of outcome, so a second pass is
// a no-op. Missing sub-elements are tolerated silently.
func (t *Tagger) Process(msg *dom.Element) {
	if msg.Flag(dom.FlagModChecked) {
		return
	}
	msg.SetFlag(dom.FlagModChecked)

	item := msg.Closest(dom.ClassMessageItem)
	if item == nil {
		return
	}
	if item.QueryByClass(dom.ClassModeratorAvatar) == nil {
		return
	}

	item.AddClass(dom.ClassModeratorMessage)

	name := item.QueryByAttr(dom.AttrTest, dom.TestUserName)
	if name == nil || name.Parent() == nil {
		return
	}
	for _, sibling := range name.Parent().Children() {
		if sibling.HasClass(dom.ClassModBadge) {
			return
		}
	}

	badge := t.doc.CreateElement("span")
	badge.AddClass(dom.ClassModBadge)
	badge.Text = "MOD"
	name.Parent().InsertAfter(badge, name)
	t.logger.Debug("Tagged moderator message")
}
