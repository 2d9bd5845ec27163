package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/redmonkez12/shop-api/internal/logging"
)

// Service delivers one-time secrets by email over SMTP. When no SMTP host
// is configured it logs the secret to the console instead, so the flows
// stay usable in local development without a mail server.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	frontendURL  string
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, frontendURL string) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    smtpUser,
		frontendURL:  frontendURL,
	}
}

// configured reports whether an SMTP host has been set
func (s *Service) configured() bool {
	return s.smtpHost != ""
}

// SendPasswordResetEmail sends the six-digit password reset code to the user
// This method is designed to be called in a goroutine
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, code string) error {
	logger := logging.GetLoggerFromContext(ctx)

	if !s.configured() {
		logger.Info("smtp not configured, printing password reset code",
			"email", toEmail, "code", code)
		return nil
	}

	subject := "Your password reset code"
	body, err := renderCodeEmail(resetCodeTemplate, code)
	if err != nil {
		logger.Error("failed to render password reset email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, subject, body); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

// SendVerificationEmail sends the six-digit email verification code to the user
// This method is designed to be called in a goroutine
func (s *Service) SendVerificationEmail(ctx context.Context, toEmail, code string) error {
	logger := logging.GetLoggerFromContext(ctx)

	if !s.configured() {
		logger.Info("smtp not configured, printing verification code",
			"email", toEmail, "code", code)
		return nil
	}

	subject := "Your email verification code"
	body, err := renderCodeEmail(verificationCodeTemplate, code)
	if err != nil {
		logger.Error("failed to render verification email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, subject, body); err != nil {
		logger.Error("failed to send verification email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("verification email sent", "email", toEmail)
	return nil
}

// SendConfirmationEmail sends the account confirmation link to the user
// This method is designed to be called in a goroutine
func (s *Service) SendConfirmationEmail(ctx context.Context, toEmail, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	confirmationLink := fmt.Sprintf("%s/confirm?token=%s", s.frontendURL, token)

	if !s.configured() {
		logger.Info("smtp not configured, printing confirmation link",
			"email", toEmail, "link", confirmationLink)
		return nil
	}

	subject := "Confirm your account"
	body, err := renderConfirmationEmail(confirmationLink)
	if err != nil {
		logger.Error("failed to render confirmation email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, subject, body); err != nil {
		logger.Error("failed to send confirmation email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("confirmation email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	// Build message
	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg)
}

// emailStyles is shared by every message body
const emailStyles = `
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .header {
            background-color: #4F46E5;
            color: white;
            padding: 20px;
            text-align: center;
            border-radius: 5px 5px 0 0;
        }
        .content {
            background-color: #f9f9f9;
            padding: 30px;
            border-radius: 0 0 5px 5px;
        }
        .code {
            display: inline-block;
            background-color: #eef2ff;
            color: #4F46E5;
            font-size: 32px;
            font-weight: bold;
            letter-spacing: 8px;
            padding: 12px 30px;
            border-radius: 5px;
            margin: 20px 0;
        }
        .button {
            display: inline-block;
            background-color: #4F46E5;
            color: white !important;
            padding: 12px 30px;
            text-decoration: none;
            border-radius: 5px;
            margin: 20px 0;
        }
        .footer {
            margin-top: 30px;
            font-size: 12px;
            color: #666;
            text-align: center;
        }
`

type codeEmailTemplate struct {
	Title   string
	Heading string
	Intro   string
	Outro   string
	Expiry  string
}

var resetCodeTemplate = codeEmailTemplate{
	Title:   "Password Reset Request",
	Heading: "Reset your password",
	Intro:   "You requested to reset your password. Enter the code below to choose a new one.",
	Outro:   "If you didn't request a password reset, you can safely ignore this email. Your password will remain unchanged.",
	Expiry:  "This code will expire in 15 minutes.",
}

var verificationCodeTemplate = codeEmailTemplate{
	Title:   "Email Verification",
	Heading: "Verify your email address",
	Intro:   "Enter the code below to verify that this email address belongs to you.",
	Outro:   "If you didn't request a verification code, you can safely ignore this email.",
	Expiry:  "This code will expire in 15 minutes.",
}

func renderCodeEmail(kind codeEmailTemplate, code string) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>` + emailStyles + `    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Title}}</h1>
    </div>
    <div class="content">
        <h2>{{.Heading}}</h2>
        <p>{{.Intro}}</p>

        <div class="code">{{.Code}}</div>

        <p style="margin-top: 30px;">{{.Outro}}</p>
    </div>
    <div class="footer">
        <p>{{.Expiry}}</p>
        <p>&copy; 2026 Shop API. All rights reserved.</p>
    </div>
</body>
</html>
`

	t, err := template.New("code").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	data := struct {
		codeEmailTemplate
		Code string
	}{
		codeEmailTemplate: kind,
		Code:              code,
	}

	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

func renderConfirmationEmail(confirmationLink string) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>` + emailStyles + `    </style>
</head>
<body>
    <div class="header">
        <h1>Welcome!</h1>
    </div>
    <div class="content">
        <h2>Confirm your account</h2>
        <p>Thank you for signing up! Please click the button below to confirm your account.</p>

        <a href="{{.ConfirmationLink}}" class="button" style="color: white !important;">Confirm Account</a>

        <p>Or copy and paste this link into your browser:</p>
        <p style="word-break: break-all; color: #4F46E5;">{{.ConfirmationLink}}</p>

        <p style="margin-top: 30px;">If you didn't create an account, you can safely ignore this email.</p>
    </div>
    <div class="footer">
        <p>This link will expire in 24 hours.</p>
        <p>&copy; 2026 Shop API. All rights reserved.</p>
    </div>
</body>
</html>
`

	t, err := template.New("confirmation").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	data := struct {
		ConfirmationLink string
	}{
		ConfirmationLink: confirmationLink,
	}

	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
