package render

import "github.com/Teyk0o/wwsnb/internal/dom"

// At most one picker is open at a time; opening a new one removes the
// previous instance first.

// OpenPicker shows the emoji picker for one message, anchored at its
// trigger.
func (r *Renderer) OpenPicker(msg, trigger *dom.Element) {
	r.ClosePicker()

	picker := r.doc.CreateElement("div")
	picker.AddClass(dom.ClassPicker)
	for _, emoji := range Catalog {
		option := r.doc.CreateElement("button")
		option.AddClass(dom.ClassPickerOption)
		option.Text = emoji
		picker.AppendChild(option)
	}
	msg.AppendChild(picker)

	r.picker = picker
	r.pickerTrigger = trigger
	r.pickerTarget = msg
}

// ClosePicker removes the open picker, if any.
func (r *Renderer) ClosePicker() {
	if r.picker == nil {
		return
	}
	r.picker.Remove()
	r.picker = nil
	r.pickerTrigger = nil
	r.pickerTarget = nil
}

// PickerOpen reports whether a picker is currently shown.
func (r *Renderer) PickerOpen() bool { return r.picker != nil }

// HandleClick routes one page click, the stand-in for the original's
// global click listener: trigger clicks open (or close) the picker,
// option clicks toggle and close, anything outside the picker closes it.
func (r *Renderer) HandleClick(target *dom.Element) {
	switch {
	case r.picker != nil && target.HasClass(dom.ClassPickerOption) && target.IsDescendantOf(r.picker):
		emoji := target.Text
		msg := r.pickerTarget
		r.ClosePicker()
		if r.toggle != nil && msg != nil {
			r.toggle(MessageIdentity(msg), emoji)
		}
	case target.HasClass(dom.ClassReactionTrigger):
		if r.picker != nil && target == r.pickerTrigger {
			r.ClosePicker()
			return
		}
		msg := target.Closest(dom.ClassMessage)
		if msg == nil {
			return
		}
		r.OpenPicker(msg, target)
	default:
		if r.picker != nil && !target.IsDescendantOf(r.picker) {
			r.ClosePicker()
		}
	}
}
