// Package mailer sends transactional email for admin flows.
package mailer

import (
	"fmt"

	"github.com/resend/resend-go/v2"
)

// Mailer sends the emails the admin panel needs. Implementations must be
// safe for concurrent use.
type Mailer interface {
	SendOTP(toEmail, code string) error
	SendWelcome(toEmail, fullName, username string) error
}

// ResendMailer delivers email through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
}

// NewResendMailer creates a mailer using the given API key and sender
// address.
func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (m *ResendMailer) send(toEmail, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{toEmail},
		Subject: subject,
		Html:    html,
	}
	if _, err := m.client.Emails.Send(params); err != nil {
		return fmt.Errorf("send email to %s: %w", toEmail, err)
	}
	return nil
}

// SendOTP mails a one-time login code.
func (m *ResendMailer) SendOTP(toEmail, code string) error {
	html := fmt.Sprintf(
		"<p>Your one-time login code is:</p><h2>%s</h2><p>The code expires in 10 minutes.</p>",
		code)
	return m.send(toEmail, "Your login code", html)
}

// SendWelcome mails new admins their account details.
func (m *ResendMailer) SendWelcome(toEmail, fullName, username string) error {
	html := fmt.Sprintf(
		"<p>Hello %s,</p><p>An administrator account was created for you. Your username is <strong>%s</strong>.</p>",
		fullName, username)
	return m.send(toEmail, "Your administrator account", html)
}

// NopMailer discards all email. Used when no API key is configured and in
// tests.
type NopMailer struct{}

func (NopMailer) SendOTP(string, string) error             { return nil }
func (NopMailer) SendWelcome(string, string, string) error { return nil }
