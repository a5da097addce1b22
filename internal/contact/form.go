package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultConfirmFor is how long the "message sent" state is shown.
const DefaultConfirmFor = 3 * time.Second

// ErrBusy is returned when a submission is in flight or the confirmation is
// still showing.
var ErrBusy = errors.New("contact: form is not idle")

type State int

const (
	Idle State = iota
	Sending
	Submitted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Submitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// View is a snapshot of the form for rendering.
type View struct {
	State  State
	Values Submission
	Err    error
}

// Submitted reports whether the confirmation should be shown.
func (v View) Submitted() bool { return v.State == Submitted }

// Form is the contact form for one visitor.
type Form struct {
	relay      Relay
	confirmFor time.Duration
	log        *slog.Logger
	afterFunc  func(d time.Duration, fn func()) (stop func() bool)

	mu     sync.Mutex
	state  State
	values Submission
	err    error
	gen    int
	stop   func() bool
}

type Option func(*Form)

func WithConfirmFor(d time.Duration) Option {
	return func(f *Form) {
		if d > 0 {
			f.confirmFor = d
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(f *Form) { f.log = log }
}

// WithAfterFunc replaces time.AfterFunc for the confirmation reset.
func WithAfterFunc(fn func(d time.Duration, f func()) (stop func() bool)) Option {
	return func(f *Form) { f.afterFunc = fn }
}

func NewForm(relay Relay, opts ...Option) *Form {
	f := &Form{
		relay:      relay,
		confirmFor: DefaultConfirmFor,
		log:        slog.Default(),
		afterFunc: func(d time.Duration, fn func()) func() bool {
			return time.AfterFunc(d, fn).Stop
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Submit delivers sub once. On failure the values stay on the form. On
// success the form shows the confirmation and returns to Idle after the
// confirmation period.
func (f *Form) Submit(ctx context.Context, sub Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}

	f.mu.Lock()
	if f.state != Idle {
		f.mu.Unlock()
		return ErrBusy
	}
	f.state = Sending
	f.values = sub
	f.err = nil
	f.mu.Unlock()

	err := f.relay.Deliver(ctx, sub)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.log.Error("contact form delivery failed", "submission_id", sub.ID, "error", err)
		f.state = Idle
		f.err = err
		return fmt.Errorf("contact: submit: %w", err)
	}

	f.log.Info("contact form delivered", "submission_id", sub.ID)
	f.state = Submitted
	f.values = Submission{}
	f.gen++
	gen := f.gen
	f.stop = f.afterFunc(f.confirmFor, func() { f.reset(gen) })
	return nil
}

func (f *Form) reset(gen int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Submitted && f.gen == gen {
		f.state = Idle
		f.stop = nil
	}
}

func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return View{State: f.state, Values: f.values, Err: f.err}
}

// Close cancels a pending confirmation reset.
func (f *Form) Close() {
	f.mu.Lock()
	stop := f.stop
	f.stop = nil
	f.mu.Unlock()
	if stop != nil {
		stop()
	}
}
