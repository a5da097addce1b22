package contact

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sessions keeps one Form per visitor.
type Sessions struct {
	newForm func() *Form
	now     func() time.Time

	mu    sync.Mutex
	forms map[string]*session
}

type session struct {
	form     *Form
	lastSeen time.Time
}

func NewSessions(newForm func() *Form) *Sessions {
	return &Sessions{
		newForm: newForm,
		now:     time.Now,
		forms:   make(map[string]*session),
	}
}

// NewID returns a fresh visitor id.
func (s *Sessions) NewID() string {
	return uuid.NewString()
}

// Form returns the visitor's form, creating it on first use.
func (s *Sessions) Form(id string) *Form {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.forms[id]
	if !ok {
		sess = &session{form: s.newForm()}
		s.forms[id] = sess
	}
	sess.lastSeen = s.now()
	return sess.form
}

// Peek returns the visitor's form if one exists. It never creates one.
func (s *Sessions) Peek(id string) (*Form, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.forms[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.form, true
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.forms)
}

// Sweep drops forms not used for maxIdle and returns how many were removed.
func (s *Sessions) Sweep(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	var stale []*Form
	for id, sess := range s.forms {
		if sess.lastSeen.Before(cutoff) {
			stale = append(stale, sess.form)
			delete(s.forms, id)
		}
	}
	s.mu.Unlock()

	for _, f := range stale {
		f.Close()
	}
	return len(stale)
}
