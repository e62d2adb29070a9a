package utils

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"project-camp/api/config"
	"project-camp/api/logging"

	"github.com/sony/gobreaker"
)

// Email is a transactional message with a single call to action.
type Email struct {
	To         string
	Username   string
	Subject    string
	Intro      string
	ActionText string
	ActionURL  string
	Outro      string
}

type Mailer interface {
	Send(ctx context.Context, email Email) error
}

func VerificationEmail(to, username, verificationURL string) Email {
	return Email{
		To:         to,
		Username:   username,
		Subject:    "Please verify your email",
		Intro:      "Welcome to Project Camp! We're very excited to have you on board.",
		ActionText: "Verify your email",
		ActionURL:  verificationURL,
		Outro:      "Need help, or have questions? Just reply to this email.",
	}
}

func PasswordResetEmail(to, username, resetURL string) Email {
	return Email{
		To:         to,
		Username:   username,
		Subject:    "Password reset request",
		Intro:      "We got a request to reset the password of your account.",
		ActionText: "Reset password",
		ActionURL:  resetURL,
		Outro:      "If you did not request a password reset you can ignore this email.",
	}
}

var emailTemplate = template.Must(template.New("email").Parse(`<html><body>
<p>Hi {{.Username}},</p>
<p>{{.Intro}}</p>
<p><a href="{{.ActionURL}}">{{.ActionText}}</a></p>
<p>{{.Outro}}</p>
</body></html>`))

func RenderEmail(e Email) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, e); err != nil {
		return "", fmt.Errorf("rendering email: %w", err)
	}
	return buf.String(), nil
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers through an SMTP relay behind a circuit breaker.
type SMTPMailer struct {
	cfg     config.MailConfig
	breaker *gobreaker.CircuitBreaker
	send    sendFunc
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:     cfg,
		breaker: newMailBreaker(),
		send:    smtp.SendMail,
	}
}

func newMailBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "smtp-cb",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
}

func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := RenderEmail(email)
	if err != nil {
		return err
	}

	message := []byte("Subject: " + email.Subject + "\r\n" +
		"From: " + m.cfg.From + "\r\n" +
		"To: " + email.To + "\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n" +
		body + "\r\n")

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	_, err = m.breaker.Execute(func() (interface{}, error) {
		return nil, m.send(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.From, []string{email.To}, message)
	})
	if err != nil {
		logging.Logger.Errorf("Event ID: SEND_EMAIL_FAILED, Description: Failed to send email to '%s' with subject '%s': %v", email.To, email.Subject, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	logging.Logger.Infof("Event ID: SEND_EMAIL_SUCCESS, Description: Email sent to '%s' with subject '%s'", email.To, email.Subject)
	return nil
}

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, email Email) error {
	logging.Logger.Infof("Event ID: EMAIL_LOGGED, Description: To '%s', subject '%s', link %s", email.To, email.Subject, email.ActionURL)
	return nil
}
