package ui

import (
	"sync"
	"time"
)

// ToastDuration is how long a toast stays visible after Notify.
const ToastDuration = 3 * time.Second

// Kind selects the icon and colour of a notification.
type Kind string

const (
	Info    Kind = "info"
	Success Kind = "success"
	Error   Kind = "error"
)

// Icon returns the icon classes for the kind; unknown kinds fall back to info.
func (k Kind) Icon() string {
	switch k {
	case Error:
		return "fas fa-times-circle text-red-400"
	case Success:
		return "fas fa-check-circle text-green-400"
	default:
		return "fas fa-info-circle text-blue-400"
	}
}

// Notification is a message for the toast.
type Notification struct {
	Message string
	Kind    Kind
}

// ToastState is a snapshot of the toast element.
type ToastState struct {
	Message string
	Kind    Kind
	Icon    string
	Visible bool
	// HideAfterMs is what the browser waits before hiding the toast itself.
	HideAfterMs int64
}

// Toaster is the single persistent toast of a browser session.
//
// Notify overwrites the content and shows the toast, then schedules a hide
// after ToastDuration. Earlier hide timers are not cancelled, so an older timer
// can hide a newer message early.
type Toaster struct {
	mu    sync.Mutex
	state ToastState
	delay time.Duration
	after func(time.Duration, func())
}

// NewToaster returns a hidden toast.
func NewToaster() *Toaster {
	return &Toaster{
		delay: ToastDuration,
		after: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// Notify shows message with the icon of kind.
func (t *Toaster) Notify(message string, kind Kind) {
	t.mu.Lock()
	t.state = ToastState{
		Message:     message,
		Kind:        kind,
		Icon:        kind.Icon(),
		Visible:     true,
		HideAfterMs: t.delay.Milliseconds(),
	}
	t.mu.Unlock()

	t.after(t.delay, t.hide)
}

// Show applies a notification; nil is a no-op.
func (t *Toaster) Show(n *Notification) {
	if n == nil {
		return
	}
	t.Notify(n.Message, n.Kind)
}

func (t *Toaster) hide() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Visible = false
}

// State returns the current toast.
func (t *Toaster) State() ToastState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
