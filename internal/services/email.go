package services

import (
	"context"
	"errors"

	"github.com/helpmarq/backend/internal/config"
	"github.com/helpmarq/backend/pkg/logger"
	"gopkg.in/gomail.v2"
)

// Mailer sends one HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// EmailService delivers mail over SMTP.
type EmailService struct {
	cfg    config.EmailConfig
	dialer *gomail.Dialer
}

func NewEmailService(cfg config.EmailConfig) *EmailService {
	return &EmailService{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Enabled reports whether SMTP is configured.
func (s *EmailService) Enabled() bool {
	return s.cfg.Enabled && s.cfg.Host != ""
}

func (s *EmailService) Send(ctx context.Context, to, subject, htmlBody string) error {
	if !s.Enabled() {
		logger.Debug().Str("to", to).Str("subject", subject).Msg("email disabled, not sent")
		return nil
	}
	if to == "" {
		return errors.New("email recipient is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	return s.dialer.DialAndSend(m)
}
