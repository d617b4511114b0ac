package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Mailer sends transactional emails.
type Mailer interface {
	SendAccessApproved(ctx context.Context, to, name, tempPassword string) error
}

// SMTPConfig holds the mail provider credentials.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	LoginURL string
}

// New returns an SMTP mailer, or a mailer that only logs when no host is configured.
func New(cfg SMTPConfig) Mailer {
	if cfg.Host == "" {
		log.Warn("SMTP_HOST not set, emails will only be logged")
		return &LogMailer{}
	}
	return &SMTPMailer{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		loginURL: cfg.LoginURL,
	}
}

var approvedTemplate = template.Must(template.New("approved").Parse(`<p>Hello {{.Name}},</p>
<p>Your access request has been approved. Sign in with the temporary password below and change it after your first login.</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Temporary password:</strong></p>
<p><code>{{.Password}}</code></p>
<p><a href="{{.LoginURL}}">Sign in</a></p>`))

// Sender abstracts gomail's dialer so tests can capture messages.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	dialer   Sender
	from     string
	loginURL string
}

// NewSMTPMailer builds a mailer on top of an arbitrary sender.
func NewSMTPMailer(sender Sender, from, loginURL string) *SMTPMailer {
	return &SMTPMailer{dialer: sender, from: from, loginURL: loginURL}
}

// SendAccessApproved emails the temporary password of a newly approved account.
func (m *SMTPMailer) SendAccessApproved(ctx context.Context, to, name, tempPassword string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	err := approvedTemplate.Execute(&body, map[string]string{
		"Name":     name,
		"Email":    to,
		"Password": tempPassword,
		"LoginURL": m.loginURL,
	})
	if err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your access request has been approved")
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	log.WithField("to", to).Info("Sent access approval email")
	return nil
}

// LogMailer logs instead of sending. Used when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) SendAccessApproved(ctx context.Context, to, name, tempPassword string) error {
	log.WithFields(log.Fields{"to": to, "name": name}).Info("Access approved email not sent: no SMTP configured")
	return nil
}
