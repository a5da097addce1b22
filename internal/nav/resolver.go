package nav

// TriggerFraction places the trigger line one third of the way down the
// viewport. Sections are highlighted as they cross it, before reaching the
// screen centre.
const TriggerFraction = 3

// ScrollSample is the viewport state at one scroll event.
type ScrollSample struct {
	OffsetY        float64
	ViewportHeight float64
}

// SampleOf reads a ScrollSample from a document.
func SampleOf(doc Document) ScrollSample {
	return ScrollSample{OffsetY: doc.ScrollY(), ViewportHeight: doc.ViewportHeight()}
}

// TriggerLine is the document offset an anchor has to reach to become active.
func (s ScrollSample) TriggerLine() float64 {
	return s.OffsetY + s.ViewportHeight/TriggerFraction
}

// Resolve returns the active section for the sample. The registry is walked
// from last to first and the first section whose anchor top is at or above
// the trigger line wins. Sections without an anchor are skipped. When nothing
// qualifies, current is kept if it is a registered section, otherwise the
// first section is returned.
func Resolve(reg *Registry, doc Document, sample ScrollSample, current string) string {
	line := sample.TriggerLine()
	for i := len(reg.sections) - 1; i >= 0; i-- {
		id := reg.sections[i].ID
		top, ok := doc.AnchorTop(id)
		if !ok {
			continue
		}
		if line >= top {
			return id
		}
	}

	if reg.Contains(current) {
		return current
	}
	return reg.First()
}
