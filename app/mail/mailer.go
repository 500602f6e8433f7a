package mail

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-contacts/config"

	"github.com/sirupsen/logrus"
	gomail "github.com/wneessen/go-mail"
)

const (
	KindVerification  = "verification"
	KindPasswordReset = "password_reset"

	sendTimeout = 20 * time.Second
	sslPort     = 465
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type templateData struct {
	Username string
	Link     string
}

type message struct {
	subject  string
	template string
	text     string
}

var messages = map[string]message{
	KindVerification: {
		subject:  "Confirm your email",
		template: "verify_email.html",
		text:     "Hi %s,\n\nPlease confirm your email address by opening this link:\n%s\n",
	},
	KindPasswordReset: {
		subject:  "Password reset request",
		template: "reset_password.html",
		text:     "Hi %s,\n\nUse this link to choose a new password:\n%s\n",
	},
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPMailer renders the embedded templates and delivers them over SMTP.
type SMTPMailer struct {
	client   sender
	from     string
	fromName string
}

func NewSMTPMailer(cfg config.MailConfig) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(sendTimeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	switch {
	case cfg.Port == sslPort:
		opts = append(opts, gomail.WithSSL())
	case cfg.TLS:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	default:
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPMailer{
		client:   client,
		from:     cfg.From,
		fromName: cfg.FromName,
	}, nil
}

func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, to, username, link string) error {
	return m.send(ctx, KindVerification, to, username, link)
}

func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, to, username, link string) error {
	return m.send(ctx, KindPasswordReset, to, username, link)
}

func (m *SMTPMailer) send(ctx context.Context, kind, to, username, link string) error {
	msg, err := m.buildMessage(kind, to, username, link)
	if err != nil {
		return err
	}
	return m.client.DialAndSendWithContext(ctx, msg)
}

func (m *SMTPMailer) buildMessage(kind, to, username, link string) (*gomail.Msg, error) {
	content, ok := messages[kind]
	if !ok {
		return nil, fmt.Errorf("unknown email kind %q", kind)
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.from); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("set to: %w", err)
	}
	msg.Subject(content.subject)
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf(content.text, username, link))

	data := templateData{Username: username, Link: link}
	if err := msg.AddAlternativeHTMLTemplate(templates.Lookup(content.template), data); err != nil {
		return nil, fmt.Errorf("render %s: %w", content.template, err)
	}

	return msg, nil
}

// LogMailer stands in when no SMTP server is configured. The token part of
// the link is only logged at debug level.
type LogMailer struct{}

func (LogMailer) SendVerificationEmail(_ context.Context, to, _, link string) error {
	logSkipped(to, link, "smtp disabled, verification email not sent")
	return nil
}

func (LogMailer) SendPasswordResetEmail(_ context.Context, to, _, link string) error {
	logSkipped(to, link, "smtp disabled, password reset email not sent")
	return nil
}

func logSkipped(to, link, message string) {
	logrus.WithFields(logrus.Fields{"email": to, "link": redactLink(link)}).Info(message)
	logrus.WithFields(logrus.Fields{"email": to, "link": link}).Debug(message)
}

// redactLink drops the last path segment, which carries the token.
func redactLink(link string) string {
	if i := strings.LastIndex(link, "/"); i >= 0 {
		return link[:i+1] + "<redacted>"
	}
	return "<redacted>"
}
