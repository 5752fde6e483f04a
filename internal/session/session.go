// Package session keeps the per-browser UI state between requests: the toast
// and each open page's pending dialog.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"xiaofei/internal/cache"
	"xiaofei/internal/log"
	"xiaofei/internal/ui"
)

const CookieName = "xiaofei_session"

// State is one browser's UI state. All fields are safe for concurrent use.
type State struct {
	ID      string
	Toast   *ui.Toaster
	Dialogs *ui.Dialogs[ui.Effect]
}

func newState(id string) *State {
	return &State{
		ID:      id,
		Toast:   ui.NewToaster(),
		Dialogs: ui.NewDialogs[ui.Effect](),
	}
}

// Store holds sessions in an LRU with an idle timeout.
type Store struct {
	sessions *cache.LRUCache[*State]
	secure   bool
}

func NewStore(maxSessions int, idle time.Duration, secureCookie bool) *Store {
	return &Store{
		sessions: cache.NewSlidingLRUCache[*State](maxSessions, idle),
		secure:   secureCookie,
	}
}

// Cache exposes the session cache for the cleanup manager.
func (s *Store) Cache() cache.Cleaner { return s.sessions }

// Len returns the number of live sessions.
func (s *Store) Len() int { return s.sessions.Size() }

// Load returns the session for id, creating a fresh one under a new id when
// id is unknown or expired.
func (s *Store) Load(id string) (*State, bool) {
	if id != "" {
		if st, ok := s.sessions.Get(id); ok {
			return st, true
		}
	}
	st := newState(uuid.NewString())
	s.sessions.Set(st.ID, st)
	return st, false
}

type ctxKey struct{}

// Middleware attaches the browser's session to the request context and
// issues a cookie for new sessions.
func (s *Store) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(CookieName); err == nil {
			id = c.Value
		}
		st, existed := s.Load(id)
		if !existed {
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    st.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.secure,
				SameSite: http.SameSiteLaxMode,
			})
			log.FromContext(r.Context()).Debug("Session started", log.FieldSessionID, st.ID)
		}
		next.ServeHTTP(w, r.WithContext(WithState(r.Context(), st)))
	})
}

// WithState returns ctx carrying st.
func WithState(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, ctxKey{}, st)
}

// FromContext returns the request's session. Outside the middleware it
// returns a throwaway session so callers never handle nil.
func FromContext(ctx context.Context) *State {
	if st, ok := ctx.Value(ctxKey{}).(*State); ok {
		return st
	}
	slog.WarnContext(ctx, "No session in context, using a throwaway one")
	return newState("")
}
