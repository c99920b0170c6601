package forms

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the lifecycle of one form instance.
type State int

const (
	Idle State = iota
	Submitting
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failed:
		return "error"
	}
	return "unknown"
}

// Variant is the container a form is shown in. It decides how long a success
// confirmation stays visible.
type Variant int

const (
	VariantInline Variant = iota
	VariantModal
	VariantHero
)

// Dwell is how long the success confirmation persists. Zero means until the
// user dismisses it.
func (v Variant) Dwell() time.Duration {
	switch v {
	case VariantModal:
		return 2 * time.Second
	case VariantHero:
		return 15 * time.Second
	}
	return 0
}

// ParseVariant maps the template attribute value to a Variant.
func ParseVariant(s string) Variant {
	switch s {
	case "modal":
		return VariantModal
	case "hero":
		return VariantHero
	}
	return VariantInline
}

const (
	GenericErrorMessage = "Something went wrong. Please try again later."
	InvalidMessage      = "Please fix the highlighted fields."
)

// ErrInFlight is returned when Submit is called while a submission is
// already in progress.
var ErrInFlight = errors.New("submission already in progress")

// Sink delivers a submission. Any error, including a non-2xx response, fails
// the submission; sinks never retry.
type Sink interface {
	Send(ctx context.Context, s Submission) error
}

// Controller drives one form: draft fields, validation, submission and the
// confirmation dwell. Its state belongs to the single form instance.
type Controller[T Submission] struct {
	mu      sync.Mutex
	sink    Sink
	variant Variant
	success string
	now     func() time.Time
	draft   T
	state   State
	message string
	fields  map[string]string
	open    bool
	doneAt  time.Time
}

type ControllerOption func(*controllerOpts)

type controllerOpts struct {
	now     func() time.Time
	success string
}

func WithClock(now func() time.Time) ControllerOption {
	return func(o *controllerOpts) { o.now = now }
}

// WithSuccessMessage sets the confirmation shown after a successful submit.
func WithSuccessMessage(msg string) ControllerOption {
	return func(o *controllerOpts) { o.success = msg }
}

func NewController[T Submission](sink Sink, variant Variant, opts ...ControllerOption) *Controller[T] {
	o := controllerOpts{now: time.Now, success: "Thank you!"}
	for _, opt := range opts {
		opt(&o)
	}
	return &Controller[T]{
		sink:    sink,
		variant: variant,
		success: o.success,
		now:     o.now,
		open:    true,
	}
}

// SetDraft replaces the current field values.
func (c *Controller[T]) SetDraft(d T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = d
}

func (c *Controller[T]) Draft() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Submit validates the draft and, if valid, sends it. Invalid drafts never
// reach the sink. On success the draft is cleared.
func (c *Controller[T]) Submit(ctx context.Context) error {
	c.mu.Lock()
	c.tick()
	if c.state == Submitting {
		c.mu.Unlock()
		return ErrInFlight
	}
	draft, _ := Normalize(c.draft).(T)
	if err := Validate(draft); err != nil {
		c.state = Failed
		c.message = InvalidMessage
		var ve *ValidationError
		if errors.As(err, &ve) {
			c.fields = ve.Fields
		}
		c.mu.Unlock()
		return err
	}
	c.state = Submitting
	c.message = ""
	c.fields = nil
	c.mu.Unlock()

	err := c.sink.Send(ctx, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = Failed
		c.message = GenericErrorMessage
		return err
	}
	var zero T
	c.draft = zero
	c.state = Success
	c.message = c.success
	c.doneAt = c.now()
	return nil
}

// State reports the current state, applying any elapsed dwell first.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick()
	return c.state
}

// Message is the inline status text: an error or the confirmation.
func (c *Controller[T]) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick()
	return c.message
}

// FieldErrors returns per-field messages from the last failed validation.
func (c *Controller[T]) FieldErrors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.fields))
	for k, v := range c.fields {
		out[k] = v
	}
	return out
}

// Open reports whether the form's container is still shown. Modal forms
// close themselves once their confirmation dwell ends.
func (c *Controller[T]) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick()
	return c.open
}

// Dismiss returns a finished form to idle immediately.
func (c *Controller[T]) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Success || c.state == Failed {
		c.state = Idle
		c.message = ""
		c.fields = nil
	}
}

// tick ends the success dwell once it has elapsed. Callers hold mu.
func (c *Controller[T]) tick() {
	if c.state != Success {
		return
	}
	d := c.variant.Dwell()
	if d == 0 || c.now().Sub(c.doneAt) < d {
		return
	}
	c.state = Idle
	c.message = ""
	if c.variant == VariantModal {
		c.open = false
	}
}
