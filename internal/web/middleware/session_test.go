package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newManager(t *testing.T) *SessionManager {
	t.Helper()
	sm := NewSessionManager("test-secret", nil)
	t.Cleanup(sm.Stop)
	return sm
}

func TestSessionCookieRoundTrip(t *testing.T) {
	sm := newManager(t)

	session, err := sm.CreateSession(context.Background(), "admin-1")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	recorder := httptest.NewRecorder()
	sm.SetSessionCookie(recorder, session)
	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookies[0])

	got := sm.GetSessionFromRequest(req)
	if got == nil {
		t.Fatal("valid cookie rejected")
	}
	if got.AdminID != "admin-1" {
		t.Errorf("admin id = %s, want admin-1", got.AdminID)
	}
}

func TestTamperedCookieRejected(t *testing.T) {
	sm := newManager(t)

	session, err := sm.CreateSession(context.Background(), "admin-1")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	recorder := httptest.NewRecorder()
	sm.SetSessionCookie(recorder, session)
	cookie := recorder.Result().Cookies()[0]

	// Flip the signature part of the cookie value.
	parts := strings.SplitN(cookie.Value, ".", 2)
	if len(parts) != 2 {
		t.Fatalf("unexpected cookie format: %s", cookie.Value)
	}
	cookie.Value = parts[0] + ".AAAA" + parts[1][4:]

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)

	if got := sm.GetSessionFromRequest(req); got != nil {
		t.Error("tampered cookie accepted")
	}
}

func TestBearerTokenFallback(t *testing.T) {
	sm := newManager(t)

	session, err := sm.CreateSession(context.Background(), "kiosk-admin")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+session.ID)

	got := sm.GetSessionFromRequest(req)
	if got == nil {
		t.Fatal("bearer token rejected")
	}
	if got.AdminID != "kiosk-admin" {
		t.Errorf("admin id = %s", got.AdminID)
	}
}

// stubSessionRepo vouches for any session id with a fixed admin and
// lifetime.
type stubSessionRepo struct {
	adminID   string
	createdAt time.Time
	expiresAt time.Time
}

func (r *stubSessionRepo) SaveSession(ctx context.Context, id, adminID string, createdAt, expiresAt time.Time) error {
	return nil
}

func (r *stubSessionRepo) GetSessionAdmin(ctx context.Context, sessionID string) (string, time.Time, time.Time, error) {
	return r.adminID, r.createdAt, r.expiresAt, nil
}

func (r *stubSessionRepo) DeleteSession(ctx context.Context, sessionID string) error {
	return nil
}

func (r *stubSessionRepo) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	return 0, nil
}

func TestRehydratedSessionKeepsPersistedExpiry(t *testing.T) {
	repo := &stubSessionRepo{
		adminID:   "admin-1",
		createdAt: time.Now().Add(-11 * time.Hour),
		expiresAt: time.Now().Add(30 * time.Minute),
	}
	sm := NewSessionManager("test-secret", repo)
	t.Cleanup(sm.Stop)

	// Unknown to this process, so the lookup falls back to the repository.
	session := sm.GetSession(context.Background(), "restored-session")
	if session == nil {
		t.Fatal("persisted session rejected")
	}
	if !session.ExpiresAt.Equal(repo.expiresAt) {
		t.Errorf("expiry = %v, want persisted %v", session.ExpiresAt, repo.expiresAt)
	}
	if !session.CreatedAt.Equal(repo.createdAt) {
		t.Errorf("created = %v, want persisted %v", session.CreatedAt, repo.createdAt)
	}
}

func TestRehydrateRejectsExpiredPersistedSession(t *testing.T) {
	repo := &stubSessionRepo{
		adminID:   "admin-1",
		createdAt: time.Now().Add(-13 * time.Hour),
		expiresAt: time.Now().Add(-time.Minute),
	}
	sm := NewSessionManager("test-secret", repo)
	t.Cleanup(sm.Stop)

	if session := sm.GetSession(context.Background(), "stale-session"); session != nil {
		t.Fatalf("expired persisted session accepted, valid until %v", session.ExpiresAt)
	}
	// And it must not have been cached in memory either.
	if session := sm.GetSession(context.Background(), "stale-session"); session != nil {
		t.Error("expired persisted session cached in memory")
	}
}

func TestDeletedSessionIsGone(t *testing.T) {
	sm := newManager(t)

	session, err := sm.CreateSession(context.Background(), "admin-1")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	sm.DeleteSession(context.Background(), session.ID)

	if got := sm.GetSession(context.Background(), session.ID); got != nil {
		t.Error("deleted session still resolvable")
	}
}

func TestRequireAuthBlocksAnonymous(t *testing.T) {
	sm := newManager(t)

	called := false
	handler := RequireAuth(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("GET", "/api/v1/students", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", recorder.Code)
	}
	if called {
		t.Error("protected handler was reached")
	}
}

func TestRequireAuthPassesValidSession(t *testing.T) {
	sm := newManager(t)

	session, err := sm.CreateSession(context.Background(), "admin-1")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	var seen *Session
	handler := RequireAuth(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSessionFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/v1/students", nil)
	req.Header.Set("Authorization", "Bearer "+session.ID)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if seen == nil || seen.AdminID != "admin-1" {
		t.Errorf("session in context = %+v", seen)
	}
}
