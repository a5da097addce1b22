package nav

// Document is what the UI shell exposes to the navigation: anchor lookup and
// the current viewport metrics.
type Document interface {
	// AnchorTop returns the document offset of the element with the given id.
	AnchorTop(id string) (float64, bool)
	ScrollY() float64
	ViewportHeight() float64
}

// ScrollSource delivers scroll events. The returned func removes the listener.
type ScrollSource interface {
	OnScroll(fn func()) (remove func())
}

// Scroller performs a smooth, fire-and-forget scroll of the viewport.
type Scroller interface {
	SmoothScrollTo(y float64)
}

// Layout is a Document built from a snapshot of anchor offsets, as posted by
// the browser on each scroll event.
type Layout struct {
	Anchors  map[string]float64
	Offset   float64
	Viewport float64
}

func (l Layout) AnchorTop(id string) (float64, bool) {
	top, ok := l.Anchors[id]
	return top, ok
}

func (l Layout) ScrollY() float64        { return l.Offset }
func (l Layout) ViewportHeight() float64 { return l.Viewport }

// Sample reads the current scroll sample from the layout.
func (l Layout) Sample() ScrollSample {
	return SampleOf(l)
}
