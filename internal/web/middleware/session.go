package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	sessionCookieName = "examgate_session"
	sessionDuration   = 12 * time.Hour
	cleanupInterval   = time.Hour
)

// Session represents an admin login session.
type Session struct {
	ID        string
	AdminID   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionRepository persists sessions so logins survive restarts. Optional;
// without one the manager is memory-only.
type SessionRepository interface {
	SaveSession(ctx context.Context, id, adminID string, createdAt, expiresAt time.Time) error
	GetSessionAdmin(ctx context.Context, sessionID string) (adminID string, createdAt, expiresAt time.Time, err error)
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// SessionManager handles session creation and validation. Cookies carry the
// session id plus an HMAC signature, so a forged cookie fails before any
// lookup.
type SessionManager struct {
	secret   []byte
	repo     SessionRepository
	sessions map[string]*Session
	mu       sync.RWMutex
	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionManager creates a session manager. repo may be nil for
// memory-only sessions.
func NewSessionManager(secret string, repo SessionRepository) *SessionManager {
	if secret == "" {
		secret = "examgate-dev-secret-change-in-production"
	}
	sm := &SessionManager{
		secret:   []byte(secret),
		repo:     repo,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
	if repo != nil {
		go sm.cleanupLoop()
	}
	return sm
}

func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if n, err := sm.repo.DeleteExpiredSessions(ctx); err != nil {
				log.Printf("session cleanup failed: %v", err)
			} else if n > 0 {
				log.Printf("removed %d expired sessions", n)
			}
			cancel()
		case <-sm.stop:
			return
		}
	}
}

// Stop terminates the cleanup goroutine.
func (sm *SessionManager) Stop() {
	sm.stopOnce.Do(func() { close(sm.stop) })
}

// CreateSession creates a new session for an admin.
func (sm *SessionManager) CreateSession(ctx context.Context, adminID string) (*Session, error) {
	idBytes := make([]byte, 32)
	if _, err := rand.Read(idBytes); err != nil {
		return nil, err
	}

	session := &Session{
		ID:        base64.URLEncoding.EncodeToString(idBytes),
		AdminID:   adminID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(sessionDuration),
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	if sm.repo != nil {
		if err := sm.repo.SaveSession(ctx, session.ID, adminID, session.CreatedAt, session.ExpiresAt); err != nil {
			return nil, err
		}
	}

	return session, nil
}

// GetSession retrieves a session by id, falling back to the repository for
// sessions created before the last restart.
func (sm *SessionManager) GetSession(ctx context.Context, sessionID string) *Session {
	sm.mu.RLock()
	session, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()

	if ok {
		if time.Now().After(session.ExpiresAt) {
			sm.DeleteSession(ctx, sessionID)
			return nil
		}
		return session
	}

	if sm.repo == nil {
		return nil
	}
	adminID, createdAt, expiresAt, err := sm.repo.GetSessionAdmin(ctx, sessionID)
	if err != nil {
		return nil
	}
	// The persisted expiry is authoritative; rehydrating must not extend
	// the session's lifetime.
	if time.Now().After(expiresAt) {
		return nil
	}

	session = &Session{
		ID:        sessionID,
		AdminID:   adminID,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
	sm.mu.Lock()
	sm.sessions[sessionID] = session
	sm.mu.Unlock()
	return session
}

// DeleteSession removes a session from memory and the repository.
func (sm *SessionManager) DeleteSession(ctx context.Context, sessionID string) {
	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if sm.repo != nil {
		if err := sm.repo.DeleteSession(ctx, sessionID); err != nil {
			log.Printf("delete session: %v", err)
		}
	}
}

// SetSessionCookie sets the signed session cookie on the response.
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, session *Session) {
	cookieValue := session.ID + "." + sm.signData(session.ID)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    cookieValue,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionDuration.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie.
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// GetSessionFromRequest extracts and validates the session on a request.
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil {
		parts := strings.SplitN(cookie.Value, ".", 2)
		if len(parts) == 2 && sm.verifySignature(parts[0], parts[1]) {
			if session := sm.GetSession(r.Context(), parts[0]); session != nil {
				return session
			}
		}
	}

	// Bearer tokens serve kiosk clients that cannot hold cookies.
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		sessionID := strings.TrimPrefix(authHeader, "Bearer ")
		if session := sm.GetSession(r.Context(), sessionID); session != nil {
			return session
		}
	}

	return nil
}

// signData creates an HMAC signature for data.
func (sm *SessionManager) signData(data string) string {
	h := hmac.New(sha256.New, sm.secret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// verifySignature verifies an HMAC signature.
func (sm *SessionManager) verifySignature(data, signature string) bool {
	expected := sm.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}
