package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"contacts-server/internal/service"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Config carries the SMTP settings for outgoing mail.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer renders and delivers verification emails over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	tokens service.TokenService
	tmpl   *template.Template
	logger *zap.Logger
}

// NewMailer parses the embedded templates and prepares the SMTP dialer.
func NewMailer(cfg Config, tokens service.TokenService, logger *zap.Logger) (*Mailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail templates: %w", err)
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		tokens: tokens,
		tmpl:   tmpl,
		logger: logger.Named("Mailer"),
	}, nil
}

type verifyEmailData struct {
	Username        string
	VerificationURL string
	TrackingURL     string
}

// SendVerification mints an email token, renders the verification letter and
// sends it. The letter carries the confirmation link and a tracking pixel.
func (m *Mailer) SendVerification(ctx context.Context, email, username, baseURL string) error {
	token, err := m.tokens.CreateEmailToken(email)
	if err != nil {
		return fmt.Errorf("failed to create email token: %w", err)
	}

	data := verifyEmailData{
		Username:        username,
		VerificationURL: fmt.Sprintf("%s/auth/confirmed_email/%s", baseURL, token),
		TrackingURL:     fmt.Sprintf("%s/auth/check/%s", baseURL, email),
	}

	var body bytes.Buffer
	if err := m.tmpl.ExecuteTemplate(&body, "verify_email.html", data); err != nil {
		return fmt.Errorf("failed to render verification letter: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Confirm your email")
	msg.SetBody("text/html", body.String())

	// gomail has no context support; honor cancellation before dialing.
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send verification letter: %w", err)
	}

	m.logger.Debug("Verification letter delivered", zap.String("email", email))
	return nil
}
