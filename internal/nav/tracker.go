package nav

import "sync"

// Tracker owns the active section for one page. It re-resolves on every
// scroll event and tells subscribers when the highlighted section changes.
type Tracker struct {
	reg *Registry
	doc Document

	mu     sync.Mutex
	active string
	subs   map[int]func(id string)
	nextID int
	remove func()
}

// NewTracker returns a tracker whose active section starts at the first
// registered section.
func NewTracker(reg *Registry, doc Document) *Tracker {
	return &Tracker{
		reg:    reg,
		doc:    doc,
		active: reg.First(),
		subs:   make(map[int]func(string)),
	}
}

// Restore seeds the active section, e.g. from the value a client last
// rendered. Unknown ids are ignored.
func (t *Tracker) Restore(id string) {
	if !t.reg.Contains(id) {
		return
	}
	t.mu.Lock()
	t.active = id
	t.mu.Unlock()
}

func (t *Tracker) Active() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Subscribe registers fn to be called with the new id whenever the active
// section changes. The returned func cancels the subscription.
func (t *Tracker) Subscribe(fn func(id string)) (cancel func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
		})
	}
}

// Mount starts listening to src and evaluates the current position once.
// Mounting an already mounted tracker replaces the previous listener.
func (t *Tracker) Mount(src ScrollSource) {
	t.Unmount()
	remove := src.OnScroll(t.Refresh)

	t.mu.Lock()
	t.remove = remove
	t.mu.Unlock()

	t.Refresh()
}

// Unmount removes the scroll listener. Safe to call more than once.
func (t *Tracker) Unmount() {
	t.mu.Lock()
	remove := t.remove
	t.remove = nil
	t.mu.Unlock()

	if remove != nil {
		remove()
	}
}

// Refresh samples the document and resolves the active section.
func (t *Tracker) Refresh() {
	t.Handle(SampleOf(t.doc))
}

// Handle resolves the active section for sample and returns it.
func (t *Tracker) Handle(sample ScrollSample) string {
	t.mu.Lock()
	prev := t.active
	next := Resolve(t.reg, t.doc, sample, prev)
	t.active = next
	var notify []func(string)
	if next != prev {
		notify = make([]func(string), 0, len(t.subs))
		for _, fn := range t.subs {
			notify = append(notify, fn)
		}
	}
	t.mu.Unlock()

	for _, fn := range notify {
		fn(next)
	}
	return next
}
