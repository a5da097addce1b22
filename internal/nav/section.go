// Package nav implements the floating navigation: the ordered section
// registry, the scroll-driven active-section resolver and the smooth-scroll
// navigator.
package nav

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyRegistry    = errors.New("nav: registry has no sections")
	ErrInvalidSection   = errors.New("nav: section id is empty")
	ErrDuplicateSection = errors.New("nav: duplicate section id")
)

// Section is a named scroll anchor on the page.
type Section struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

// Registry is the ordered, immutable list of sections. Order defines both
// navigation order and resolution priority.
type Registry struct {
	sections []Section
	index    map[string]int
}

// DefaultSections is the page layout the site ships with.
var DefaultSections = []Section{
	{ID: "home", Label: "Home"},
	{ID: "skills", Label: "Skills"},
	{ID: "education", Label: "Education"},
	{ID: "work", Label: "Projects"},
	{ID: "contact", Label: "Contact"},
}

func NewRegistry(sections ...Section) (*Registry, error) {
	if len(sections) == 0 {
		return nil, ErrEmptyRegistry
	}

	r := &Registry{
		sections: make([]Section, len(sections)),
		index:    make(map[string]int, len(sections)),
	}
	for i, s := range sections {
		if s.ID == "" {
			return nil, fmt.Errorf("%w (position %d)", ErrInvalidSection, i)
		}
		if _, ok := r.index[s.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSection, s.ID)
		}
		r.index[s.ID] = i
		r.sections[i] = s
	}
	return r, nil
}

// MustRegistry is NewRegistry for static configuration known to be valid.
func MustRegistry(sections ...Section) *Registry {
	r, err := NewRegistry(sections...)
	if err != nil {
		panic(err)
	}
	return r
}

// Sections returns a copy of the registry in order.
func (r *Registry) Sections() []Section {
	out := make([]Section, len(r.sections))
	copy(out, r.sections)
	return out
}

func (r *Registry) Len() int { return len(r.sections) }

// First is the fallback active section.
func (r *Registry) First() string { return r.sections[0].ID }

func (r *Registry) Contains(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Index returns the position of id, or -1.
func (r *Registry) Index(id string) int {
	if i, ok := r.index[id]; ok {
		return i
	}
	return -1
}

func (r *Registry) Label(id string) string {
	if i, ok := r.index[id]; ok {
		return r.sections[i].Label
	}
	return ""
}
