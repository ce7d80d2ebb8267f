package dom

// Document is the root of a modeled page: an element tree, the page
// location, and mutation observers.
type Document struct {
	Root     *Element
	Location string

	nextObs int
	byID    map[int]func()
}

func NewDocument(location string) *Document {
	d := &Document{
		Location: location,
		byID:     make(map[int]func()),
	}
	d.Root = d.CreateElement("body")
	return d
}

// CreateElement builds a detached element owned by this document.
func (d *Document) CreateElement(tag string) *Element {
	return &Element{Tag: tag, doc: d}
}

// Observe registers a callback fired on every tree mutation under Root.
// The returned func unregisters it.
func (d *Document) Observe(fn func()) (stop func()) {
	id := d.nextObs
	d.nextObs++
	d.byID[id] = fn
	return func() { delete(d.byID, id) }
}

func (d *Document) mutated() {
	for _, fn := range d.byID {
		fn()
	}
}
