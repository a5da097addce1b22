package nav

// Navigator scrolls the viewport to a section when it is picked from the nav.
type Navigator struct {
	doc      Document
	scroller Scroller
}

func NewNavigator(doc Document, scroller Scroller) *Navigator {
	return &Navigator{doc: doc, scroller: scroller}
}

// Go smooth-scrolls so the anchor's top meets the viewport top. A missing
// anchor is ignored. It reports whether a scroll was issued.
func (n *Navigator) Go(id string) bool {
	top, ok := n.doc.AnchorTop(id)
	if !ok {
		return false
	}
	n.scroller.SmoothScrollTo(top)
	return true
}

