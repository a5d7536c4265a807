package handlers

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"log"
	"math/big"
	"net/http"
	"time"

	"github.com/kbediako/examgate/internal/auth"
	"github.com/kbediako/examgate/internal/mailer"
	"github.com/kbediako/examgate/internal/store"
	"github.com/kbediako/examgate/internal/web/middleware"
)

const (
	otpPurposeLogin = "login"
	otpLifetime     = 10 * time.Minute
)

// AuthHandler handles admin login, logout and OTP flows.
type AuthHandler struct {
	admins   store.AdminStore
	sessions *middleware.SessionManager
	mail     mailer.Mailer
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(admins store.AdminStore, sessions *middleware.SessionManager, mail mailer.Mailer) *AuthHandler {
	return &AuthHandler{admins: admins, sessions: sessions, mail: mail}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates an admin by username and password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	admin, err := h.admins.GetAdminByUsername(r.Context(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		log.Printf("login lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if !auth.VerifyPassword(admin.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.establishSession(w, r, admin)
}

type otpRequest struct {
	Email string `json:"email"`
}

// RequestOTP mails a one-time login code. The response does not reveal
// whether the address belongs to an admin.
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	admin, err := h.admins.GetAdminByEmail(r.Context(), req.Email)
	if err == nil {
		code, genErr := generateOTPCode()
		if genErr != nil {
			log.Printf("otp generation failed: %v", genErr)
			respondError(w, http.StatusInternalServerError, "could not send code")
			return
		}
		otp := &store.OTPCode{
			Email:     admin.Email,
			Code:      code,
			Purpose:   otpPurposeLogin,
			ExpiresAt: time.Now().Add(otpLifetime),
		}
		if err := h.admins.CreateOTP(r.Context(), otp); err != nil {
			log.Printf("otp store failed: %v", err)
			respondError(w, http.StatusInternalServerError, "could not send code")
			return
		}
		if err := h.mail.SendOTP(admin.Email, code); err != nil {
			log.Printf("otp mail failed: %v", err)
			respondError(w, http.StatusInternalServerError, "could not send code")
			return
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("otp lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "could not send code")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "if the address is registered, a code has been sent",
	})
}

type otpVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyOTP exchanges a one-time code for a session.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Email == "" || req.Code == "" {
		respondError(w, http.StatusBadRequest, "email and code are required")
		return
	}

	if err := h.admins.ConsumeOTP(r.Context(), req.Email, req.Code, otpPurposeLogin); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid or expired code")
		return
	}
	admin, err := h.admins.GetAdminByEmail(r.Context(), req.Email)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid or expired code")
		return
	}

	h.establishSession(w, r, admin)
}

func (h *AuthHandler) establishSession(w http.ResponseWriter, r *http.Request, admin *store.Admin) {
	session, err := h.sessions.CreateSession(r.Context(), admin.ID)
	if err != nil {
		log.Printf("session creation failed: %v", err)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	h.sessions.SetSessionCookie(w, session)

	if err := h.admins.TouchLastLogin(r.Context(), admin.ID); err != nil {
		log.Printf("touch last login failed for %s: %v", sanitizeForLog(admin.Username), err)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": session.ID,
		"expires_at": session.ExpiresAt.Format(time.RFC3339),
		"username":   admin.Username,
		"role":       admin.Role,
	})
}

// Logout destroys the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.sessions.GetSessionFromRequest(r); session != nil {
		h.sessions.DeleteSession(r.Context(), session.ID)
	}
	h.sessions.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Status reports whether the request carries a valid session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetSessionFromRequest(r)
	if session == nil {
		respondJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"expires_at":    session.ExpiresAt.Format(time.RFC3339),
	})
}

// generateOTPCode returns a 6-digit numeric code.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	code := n.String()
	for len(code) < 6 {
		code = "0" + code
	}
	return code, nil
}
