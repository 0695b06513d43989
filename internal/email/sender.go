package email

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"jobbridge_backend/internal/logger"
)

// subjects per template key; the template data may not carry one.
var subjects = map[string]string{
	"welcome":             "Welcome to JobBridge",
	"application_status":  "Your application status changed",
	"job_status":          "Your job posting status changed",
	"subscription_expiry": "Your subscription is about to expire",
	"notification":        "JobBridge notification",
}

// SMTPSender delivers mail over SMTP via gomail. Opt-outs are resolved
// through the injected checker before any dial happens.
type SMTPSender struct {
	config    Config
	dialer    *gomail.Dialer
	templates *TemplateManager
	optOuts   OptOutChecker
}

func NewSMTPSender(config Config, optOuts OptOutChecker) (Sender, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid email config: %w", err)
	}

	tm, err := NewTemplateManager()
	if err != nil {
		return nil, fmt.Errorf("failed to create template manager: %w", err)
	}

	return &SMTPSender{
		config:    config,
		dialer:    gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.Username, config.Password),
		templates: tm,
		optOuts:   optOuts,
	}, nil
}

func (s *SMTPSender) Send(to, templateKey string, data interface{}, meta Meta) Result {
	if meta.UserID != "" && s.optOuts != nil {
		optedOut, err := s.optOuts.IsOptedOut(meta.UserID, meta.Type)
		if err != nil {
			// Preference lookup failure must not block delivery.
			logger.WithError(err).Warn("email opt-out lookup failed", "user_id", meta.UserID)
		} else if optedOut {
			logger.Info("email skipped: recipient opted out",
				"user_id", meta.UserID,
				"email_type", string(meta.Type),
			)
			return Result{Status: StatusSkipped}
		}
	}

	htmlBody, err := s.templates.Render(templateKey, data)
	if err != nil {
		return Result{Status: StatusError, Err: err}
	}

	subject := subjects[templateKey]
	if subject == "" {
		subject = subjects["notification"]
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.config.FromEmail, s.config.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return Result{Status: StatusError, Err: fmt.Errorf("smtp delivery failed: %w", err)}
	}

	return Result{Status: StatusSuccess}
}

// NoopSender logs instead of delivering. Used in development when SMTP
// is not configured.
type NoopSender struct{}

func (NoopSender) Send(to, templateKey string, _ interface{}, meta Meta) Result {
	logger.Info("email suppressed (no SMTP configured)",
		"to", to,
		"template", templateKey,
		"email_type", string(meta.Type),
	)
	return Result{Status: StatusSkipped}
}
