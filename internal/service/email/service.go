package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v3"

	"car-portal/internal/config"
)

var ErrNotConfigured = errors.New("email delivery is not configured")

type Service interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, name, resetLink string) error
}

type service struct {
	client *resend.Client
	config *config.Config
}

func NewService(cfg *config.Config) Service {
	var client *resend.Client
	if cfg.ResendAPIKey != "" {
		client = resend.NewClient(cfg.ResendAPIKey)
	}
	return &service{
		client: client,
		config: cfg,
	}
}

var resetTemplate = template.Must(template.New("reset_password").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>{{.Title}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #1f2937; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h2 style="margin-bottom: 16px;">{{.Title}}</h2>
	<p>Hello {{.Name}},</p>
	<p>We received a request to reset the password of your Car Portal account.</p>
	<p style="margin: 24px 0;">
		<a href="{{.Link}}" style="background: #2563eb; color: #ffffff; padding: 12px 20px; border-radius: 6px; text-decoration: none;">Reset password</a>
	</p>
	<p style="font-size: 13px; color: #6b7280;">The link expires in {{.Expiry}}. If you did not ask for a reset you can ignore this email.</p>
</body>
</html>`))

func (s *service) SendPasswordResetEmail(ctx context.Context, toEmail, name, resetLink string) error {
	data := struct {
		Title  string
		Name   string
		Link   string
		Expiry string
	}{
		Title:  "Password Reset Request",
		Name:   name,
		Link:   resetLink,
		Expiry: s.config.JWTResetExpiry.String(),
	}
	return s.send(toEmail, "Password Reset Request", resetTemplate, data)
}

func (s *service) send(toEmail, subject string, tmpl *template.Template, data any) error {
	if s.client == nil {
		return ErrNotConfigured
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Car Portal <%s>", s.config.FromEmail),
		To:      []string{toEmail},
		Html:    body.String(),
		Subject: subject,
	}

	_, err := s.client.Emails.Send(params)
	return err
}
