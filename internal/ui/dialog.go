package ui

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MobileBreakpoint is the widest viewport, in CSS pixels, that gets overlay
// dialogs instead of the browser's native ones.
const MobileBreakpoint = 768

// IsMobile reports whether a viewport width gets overlay dialogs. Zero means
// the width is unknown and is treated as desktop.
func IsMobile(width int) bool {
	return width > 0 && width <= MobileBreakpoint
}

// ConfirmKind selects the icon of a markup-driven confirmation.
type ConfirmKind string

const (
	Warning ConfirmKind = "warning"
	Danger  ConfirmKind = "danger"
)

// OverlayVariant tells the template which buttons to draw.
type OverlayVariant int

const (
	// ConfirmOverlay has Cancel/OK buttons that resolve the pending dialog.
	ConfirmOverlay OverlayVariant = iota
	// AlertOverlay has a single acknowledgement button.
	AlertOverlay
	// MarkupConfirmOverlay has Cancel (close) and OK (execute) buttons.
	MarkupConfirmOverlay
)

// Overlay is a modal dialog rendered over the page. Token identifies the
// pending dialog the overlay answers.
type Overlay struct {
	ID        string
	Variant   OverlayVariant
	Title     string
	Message   string
	Icon      string
	IconFrame string
	Token     string
}

// Continuation receives the user's answer and produces the outcome of the
// interaction that asked.
type Continuation[T any] func(ctx context.Context, ok bool) T

type pendingDialog[T any] struct {
	token string
	then  Continuation[T]
}

// MaxPages bounds the pages of one session that may hold a pending dialog.
const MaxPages = 8

// Dialogs holds the pending confirmations of one browser session, at most
// one per page. Pages are told apart by the id each page load is given, so
// tabs of the same browser never answer each other's dialogs.
type Dialogs[T any] struct {
	mu      sync.Mutex
	pending map[string]*pendingDialog[T]
	order   []string
}

// NewDialogs returns a session's empty dialog slots.
func NewDialogs[T any]() *Dialogs[T] {
	return &Dialogs[T]{pending: make(map[string]*pendingDialog[T])}
}

// Slot returns the dialog slot of one page.
func (d *Dialogs[T]) Slot(page string) *Slot[T] {
	return &Slot[T]{dialogs: d, page: page}
}

func (d *Dialogs[T]) open(page string, then Continuation[T]) string {
	token := uuid.NewString()

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pending[page]; !ok {
		d.order = append(d.order, page)
		for len(d.order) > MaxPages {
			delete(d.pending, d.order[0])
			d.order = d.order[1:]
		}
	}
	d.pending[page] = &pendingDialog[T]{token: token, then: then}
	return token
}

// take empties page's slot when its dialog carries token.
func (d *Dialogs[T]) take(page, token string) *pendingDialog[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pending[page]
	if !ok || p.token != token {
		return nil
	}
	delete(d.pending, page)
	for i, k := range d.order {
		if k == page {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return p
}

// Slot is the single pending-dialog slot of one page. Opening a dialog while
// another is pending replaces it; the replaced continuation is dropped
// without being called.
type Slot[T any] struct {
	dialogs *Dialogs[T]
	page    string
}

// Confirm asks the user to confirm message. On a mobile viewport it opens an
// overlay, stores then until Resolve, and returns the overlay. Otherwise it
// asks native, runs then immediately and returns its result with a nil overlay.
func (s *Slot[T]) Confirm(ctx context.Context, width int, message string, native func(string) bool, then Continuation[T]) (T, *Overlay) {
	if !IsMobile(width) {
		return then(ctx, native(message)), nil
	}

	overlay := Overlay{
		ID:        "mobileConfirmModal",
		Variant:   ConfirmOverlay,
		Title:     "确认操作",
		Message:   message,
		Icon:      "fa fa-question text-blue-600 text-xl",
		IconFrame: "mx-auto flex items-center justify-center h-12 w-12 rounded-full bg-blue-100",
	}
	overlay.Token = s.dialogs.open(s.page, then)

	var zero T
	return zero, &overlay
}

// OpenConfirm shows the markup-driven confirmation. Execute runs callback,
// Close discards it.
func (s *Slot[T]) OpenConfirm(title, message string, kind ConfirmKind, callback func(ctx context.Context) T) Overlay {
	overlay := Overlay{
		ID:      "mobileConfirmModal",
		Variant: MarkupConfirmOverlay,
		Title:   title,
		Message: message,
	}
	switch kind {
	case Danger:
		overlay.IconFrame = "w-14 h-14 mx-auto mb-4 rounded-full bg-red-100 flex items-center justify-center"
		overlay.Icon = "fa fa-exclamation text-2xl text-red-500"
	default:
		overlay.IconFrame = "w-14 h-14 mx-auto mb-4 rounded-full bg-orange-100 flex items-center justify-center"
		overlay.Icon = "fa fa-question text-2xl text-orange-500"
	}

	overlay.Token = s.dialogs.open(s.page, func(ctx context.Context, ok bool) T {
		if !ok || callback == nil {
			var zero T
			return zero
		}
		return callback(ctx)
	})
	return overlay
}

// Resolve answers the pending dialog issued with token and empties the slot.
// It reports false when no such dialog is pending, including when a newer
// dialog replaced it.
func (s *Slot[T]) Resolve(ctx context.Context, token string, ok bool) (T, bool) {
	p := s.dialogs.take(s.page, token)
	if p == nil {
		var zero T
		return zero, false
	}
	return p.then(ctx, ok), true
}

// Execute confirms the pending dialog issued with token.
func (s *Slot[T]) Execute(ctx context.Context, token string) (T, bool) {
	return s.Resolve(ctx, token, true)
}

// Close dismisses the dialog issued with token without calling its
// continuation.
func (s *Slot[T]) Close(token string) {
	s.dialogs.take(s.page, token)
}

// Alert shows message. On a mobile viewport it returns a dismissible overlay;
// otherwise it hands the message to native and returns nil.
func Alert(width int, message string, native func(string)) *Overlay {
	if !IsMobile(width) {
		if native != nil {
			native(message)
		}
		return nil
	}
	return &Overlay{
		ID:        "mobileAlertModal",
		Variant:   AlertOverlay,
		Title:     "提示",
		Message:   message,
		Icon:      "fa fa-info-circle text-blue-600 text-xl",
		IconFrame: "mx-auto flex items-center justify-center h-12 w-12 rounded-full bg-blue-100",
	}
}
