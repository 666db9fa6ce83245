package email

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

// ErrNotConfigured is returned when no SMTP host is set; nothing is sent.
var ErrNotConfigured = errors.New("smtp is not configured")

// EmailService defines the interface for sending emails
type EmailService interface {
	SendReceipt(ctx context.Context, to string, data ReceiptEmailData) error
}

// Dialer is the part of *gomail.Dialer the service uses.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailServiceImpl struct {
	cfg       config.SMTPConfig
	dialer    Dialer
	templates *template.Template
	backoff   time.Duration
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg config.SMTPConfig) (EmailService, error) {
	return NewEmailServiceWithDialer(cfg, gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password))
}

func NewEmailServiceWithDialer(cfg config.SMTPConfig, dialer Dialer) (EmailService, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &emailServiceImpl{
		cfg:       cfg,
		dialer:    dialer,
		templates: tmpl,
		backoff:   time.Second,
	}, nil
}

type ReceiptEmailData struct {
	EmployeeName string
	Kind         string
	Period       string
	Amount       string
	PaymentDate  string
	ReceiptID    string
}

// SendReceipt notifies an employee that a salary or commission receipt is available
func (s *emailServiceImpl) SendReceipt(ctx context.Context, to string, data ReceiptEmailData) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "receipt.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	subject := fmt.Sprintf("Your %s receipt for %s", data.Kind, data.Period)
	return s.sendHTML(ctx, to, subject, body.String())
}

func (s *emailServiceImpl) sendHTML(ctx context.Context, to, subject, htmlBody string) error {
	if s.cfg.Host == "" {
		slog.Warn("SMTP not configured, email not sent", "to", to, "subject", subject)
		return ErrNotConfigured
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.From, s.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.dialer.DialAndSend(m)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		// exponential backoff: 1x, 2x, 4x
		if attempt < maxRetries {
			timer := time.NewTimer(s.backoff * time.Duration(1<<(attempt-1)))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("email send cancelled after %d attempts: %w", attempt, ctx.Err())
			case <-timer.C:
			}
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
