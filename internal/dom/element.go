// Package dom models the slice of the host chat page this system touches:
// a small element tree with classes, attributes and per-element flags,
// plus mutation notification. The real page's structure is an external,
// unversioned contract; everything here tolerates missing pieces.
package dom

import "strings"

type Element struct {
	Tag  string
	Text string

	doc      *Document
	parent   *Element
	children []*Element
	classes  map[string]struct{}
	attrs    map[string]string
	dataset  map[string]string
}

// The tree is owned by a single goroutine, mirroring the page's single
// UI thread. The session controller serializes all access.

func (e *Element) Parent() *Element { return e.parent }

func (e *Element) Children() []*Element {
	return append([]*Element(nil), e.children...)
}

// AppendChild attaches child as the last child, detaching it from any
// prior parent first.
func (e *Element) AppendChild(child *Element) {
	child.Remove()
	child.parent = e
	e.children = append(e.children, child)
	e.notifyMutation()
}

// InsertAfter places child immediately after ref among e's children.
// An unknown ref degrades to a plain append.
func (e *Element) InsertAfter(child, ref *Element) {
	child.Remove()
	child.parent = e
	for i, c := range e.children {
		if c == ref {
			e.children = append(e.children[:i+1], append([]*Element{child}, e.children[i+1:]...)...)
			e.notifyMutation()
			return
		}
	}
	e.children = append(e.children, child)
	e.notifyMutation()
}

// Remove detaches e from its parent. A detached element is a no-op.
func (e *Element) Remove() {
	p := e.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == e {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	e.parent = nil
	p.notifyMutation()
}

// ClearChildren detaches every child.
func (e *Element) ClearChildren() {
	for _, c := range e.children {
		c.parent = nil
	}
	e.children = nil
	e.notifyMutation()
}

func (e *Element) AddClass(name string) {
	if e.classes == nil {
		e.classes = make(map[string]struct{})
	}
	e.classes[name] = struct{}{}
}

func (e *Element) RemoveClass(name string) {
	delete(e.classes, name)
}

func (e *Element) HasClass(name string) bool {
	_, ok := e.classes[name]
	return ok
}

func (e *Element) SetAttr(key, value string) {
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[key] = value
}

func (e *Element) Attr(key string) string {
	return e.attrs[key]
}

// SetData records a per-element dataset entry, the processed-marker
// mechanism the tagger and renderer use for idempotence.
func (e *Element) SetData(key, value string) {
	if e.dataset == nil {
		e.dataset = make(map[string]string)
	}
	e.dataset[key] = value
}

func (e *Element) Data(key string) string {
	return e.dataset[key]
}

func (e *Element) SetFlag(key string) { e.SetData(key, "true") }

func (e *Element) Flag(key string) bool { return e.Data(key) == "true" }

// TextContent concatenates the element's own text with every
// descendant's, depth-first.
func (e *Element) TextContent() string {
	var b strings.Builder
	e.appendText(&b)
	return b.String()
}

func (e *Element) appendText(b *strings.Builder) {
	b.WriteString(e.Text)
	for _, c := range e.children {
		c.appendText(b)
	}
}

// Closest walks up from e (inclusive) to the nearest element carrying
// class name; nil when no ancestor matches.
func (e *Element) Closest(class string) *Element {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.HasClass(class) {
			return cur
		}
	}
	return nil
}

// IsDescendantOf reports whether e is ancestor or sits below it.
func (e *Element) IsDescendantOf(ancestor *Element) bool {
	for cur := e; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// QueryByClass returns the first descendant (excluding e) with the class,
// depth-first.
func (e *Element) QueryByClass(class string) *Element {
	return e.query(func(c *Element) bool { return c.HasClass(class) })
}

// QueryAllByClass returns every descendant with the class, depth-first.
func (e *Element) QueryAllByClass(class string) []*Element {
	return e.queryAll(func(c *Element) bool { return c.HasClass(class) })
}

// QueryByAttr returns the first descendant whose attribute key equals value.
func (e *Element) QueryByAttr(key, value string) *Element {
	return e.query(func(c *Element) bool { return c.Attr(key) == value })
}

func (e *Element) query(match func(*Element) bool) *Element {
	for _, c := range e.children {
		if match(c) {
			return c
		}
		if found := c.query(match); found != nil {
			return found
		}
	}
	return nil
}

func (e *Element) queryAll(match func(*Element) bool) []*Element {
	var out []*Element
	for _, c := range e.children {
		if match(c) {
			out = append(out, c)
		}
		out = append(out, c.queryAll(match)...)
	}
	return out
}

// connected reports whether e hangs off its document's root.
func (e *Element) connected() bool {
	if e.doc == nil {
		return false
	}
	return e.IsDescendantOf(e.doc.Root)
}

func (e *Element) notifyMutation() {
	if e.connected() {
		e.doc.mutated()
	}
}
