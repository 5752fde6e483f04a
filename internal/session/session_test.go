package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMiddlewareIssuesAndReusesCookie(t *testing.T) {
	store := NewStore(10, time.Minute, false)
	var seen []*State
	h := store.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, FromContext(r.Context()))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if len(rr.Result().Cookies()) != 0 {
		t.Fatal("known session must not get a new cookie")
	}
	if seen[0] != seen[1] {
		t.Fatal("second request did not reuse the session")
	}
	if store.Len() != 1 {
		t.Fatalf("sessions = %d", store.Len())
	}
}

func TestUnknownCookieStartsFreshSession(t *testing.T) {
	store := NewStore(10, time.Minute, false)
	st, existed := store.Load("forged")
	if existed || st.ID == "forged" || st.ID == "" {
		t.Fatalf("st=%+v existed=%v", st, existed)
	}
}

func TestSessionDialogsAreSharedAcrossRequests(t *testing.T) {
	store := NewStore(10, time.Minute, false)
	st, _ := store.Load("")
	overlay := st.Dialogs.Slot("page-1").OpenConfirm("t", "m", "", nil)

	again, existed := store.Load(st.ID)
	if !existed {
		t.Fatal("session not found")
	}
	if _, ok := again.Dialogs.Slot("page-1").Execute(context.Background(), overlay.Token); !ok {
		t.Fatal("pending dialog lost between requests")
	}
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext returned nil")
	}
}
