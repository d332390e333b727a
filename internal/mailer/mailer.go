// Package mailer delivers account-confirmation emails. Delivery is
// strictly best-effort: failures are logged by callers and never block
// signup or login.
package mailer

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/contactsbook/apiserver/config"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

const confirmationSubject = "Confirm your email"

// TokenIssuer mints the single-use confirmation token embedded in the
// email link.
type TokenIssuer interface {
	IssueConfirmationToken(email string) (string, error)
}

// Job is the queued representation of one confirmation email.
type Job struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Host     string `json:"host"`
}

// Mailer renders and sends confirmation emails over SMTP.
type Mailer struct {
	dialer    *gomail.Dialer
	from      string
	fromName  string
	templates *template.Template
	tokens    TokenIssuer
}

// New parses the embedded templates and configures the SMTP dialer.
func New(cfg config.MailConfig, tokens TokenIssuer) (*Mailer, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Mailer{
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:      cfg.From,
		fromName:  cfg.FromName,
		templates: templates,
		tokens:    tokens,
	}, nil
}

// SendConfirmation mints a confirmation token for the recipient and
// sends the verification email. host is the base URL the confirmation
// link should point at.
func (m *Mailer) SendConfirmation(job Job) error {
	token, err := m.tokens.IssueConfirmationToken(job.Email)
	if err != nil {
		return err
	}

	body, err := m.renderConfirmation(job, token)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.fromName)
	msg.SetHeader("To", job.Email)
	msg.SetHeader("Subject", confirmationSubject)
	msg.SetBody("text/html", body)

	return m.dialer.DialAndSend(msg)
}

func (m *Mailer) renderConfirmation(job Job, token string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Username string
		Host     string
		Token    string
	}{
		Username: job.Username,
		Host:     job.Host,
		Token:    token,
	}
	if err := m.templates.ExecuteTemplate(&buf, "verify_email.html", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
