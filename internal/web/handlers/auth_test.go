package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbediako/examgate/internal/auth"
	"github.com/kbediako/examgate/internal/mailer"
	"github.com/kbediako/examgate/internal/store"
	"github.com/kbediako/examgate/internal/store/mock"
	"github.com/kbediako/examgate/internal/web/middleware"
)

// recordingMailer captures sent OTP codes.
type recordingMailer struct {
	mailer.NopMailer
	otpTo   string
	otpCode string
}

func (m *recordingMailer) SendOTP(toEmail, code string) error {
	m.otpTo = toEmail
	m.otpCode = code
	return nil
}

func newAuthFixture(t *testing.T) (*AuthHandler, *mock.Store, *recordingMailer) {
	t.Helper()
	m := mock.New()

	hash, err := auth.HashPassword("secret password")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := &store.Admin{
		Username:     "invigilator",
		Email:        "invigilator@example.edu",
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := m.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	mail := &recordingMailer{}
	sessions := middleware.NewSessionManager("test-secret", nil)
	t.Cleanup(sessions.Stop)
	return NewAuthHandler(m, sessions, mail), m, mail
}

func TestLogin(t *testing.T) {
	h, _, _ := newAuthFixture(t)

	recorder := postJSON(t, h.Login, "/api/v1/auth/login", map[string]string{
		"username": "invigilator",
		"password": "secret password",
	})
	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		SessionID string `json:"session_id"`
		Username  string `json:"username"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.SessionID == "" {
		t.Error("session_id missing")
	}
	if resp.Username != "invigilator" {
		t.Errorf("username = %s", resp.Username)
	}

	cookies := recorder.Result().Cookies()
	if len(cookies) == 0 {
		t.Error("session cookie not set")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h, _, _ := newAuthFixture(t)

	recorder := postJSON(t, h.Login, "/api/v1/auth/login", map[string]string{
		"username": "invigilator",
		"password": "wrong",
	})
	assertStatusCode(t, recorder, http.StatusUnauthorized)
}

func TestLoginUnknownUser(t *testing.T) {
	h, _, _ := newAuthFixture(t)

	recorder := postJSON(t, h.Login, "/api/v1/auth/login", map[string]string{
		"username": "ghost",
		"password": "secret password",
	})
	assertStatusCode(t, recorder, http.StatusUnauthorized)
}

func TestOTPFlow(t *testing.T) {
	h, _, mail := newAuthFixture(t)

	recorder := postJSON(t, h.RequestOTP, "/api/v1/auth/otp/request", map[string]string{
		"email": "invigilator@example.edu",
	})
	assertStatusCode(t, recorder, http.StatusOK)

	if mail.otpTo != "invigilator@example.edu" {
		t.Fatalf("OTP mailed to %q", mail.otpTo)
	}
	if len(mail.otpCode) != 6 {
		t.Fatalf("OTP code %q, want 6 digits", mail.otpCode)
	}

	recorder = postJSON(t, h.VerifyOTP, "/api/v1/auth/otp/verify", map[string]string{
		"email": "invigilator@example.edu",
		"code":  mail.otpCode,
	})
	assertStatusCode(t, recorder, http.StatusOK)

	// Codes are single-use.
	recorder = postJSON(t, h.VerifyOTP, "/api/v1/auth/otp/verify", map[string]string{
		"email": "invigilator@example.edu",
		"code":  mail.otpCode,
	})
	assertStatusCode(t, recorder, http.StatusUnauthorized)
}

func TestRequestOTPUnknownEmailDoesNotLeak(t *testing.T) {
	h, _, mail := newAuthFixture(t)

	recorder := postJSON(t, h.RequestOTP, "/api/v1/auth/otp/request", map[string]string{
		"email": "stranger@example.edu",
	})
	assertStatusCode(t, recorder, http.StatusOK)
	if mail.otpTo != "" {
		t.Error("OTP sent to unregistered address")
	}
}

func TestVerifyOTPWrongCode(t *testing.T) {
	h, _, _ := newAuthFixture(t)

	recorder := postJSON(t, h.VerifyOTP, "/api/v1/auth/otp/verify", map[string]string{
		"email": "invigilator@example.edu",
		"code":  "000000",
	})
	assertStatusCode(t, recorder, http.StatusUnauthorized)
}

func TestAuthStatus(t *testing.T) {
	h, _, _ := newAuthFixture(t)

	req := httptest.NewRequest("GET", "/api/v1/auth/status", nil)
	recorder := httptest.NewRecorder()
	h.Status(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)

	var resp struct {
		Authenticated bool `json:"authenticated"`
	}
	parseJSONResponse(t, recorder, &resp)
	if resp.Authenticated {
		t.Error("anonymous request reported as authenticated")
	}
}
