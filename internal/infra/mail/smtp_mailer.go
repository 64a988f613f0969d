// Package mail provides the SMTP implementation of the domain Mailer.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"credvault/internal/domain/service"
	"credvault/internal/errors"
)

const resetSubject = "Password Reset Request"

// Config holds the SMTP connection settings.
type Config struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	From     string `json:"from" yaml:"from"`
}

// smtpMailer delivers reset links over SMTP with STARTTLS.
// Dial and IO deadlines come from the caller's context.
type smtpMailer struct {
	cfg *Config
}

// NewSMTPMailer is the constructor for smtpMailer.
func NewSMTPMailer(cfg *Config) service.Mailer {
	return &smtpMailer{cfg: cfg}
}

// SendResetLink connects to the configured SMTP server and sends the reset email.
func (m *smtpMailer) SendResetLink(ctx context.Context, toEmail, resetLink string) error {
	addr := net.JoinHostPort(m.cfg.Host, fmt.Sprintf("%d", m.cfg.Port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrap(err, "dial smtp server")
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()

			return errors.Wrap(err, "set smtp deadline")
		}
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()

		return errors.Wrap(err, "create smtp client")
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}
		if err := client.StartTLS(tlsConfig); err != nil {
			return errors.Wrap(err, "starttls")
		}
	}

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return errors.Wrap(err, "smtp auth")
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return errors.Wrap(err, "smtp mail from")
	}
	if err := client.Rcpt(toEmail); err != nil {
		return errors.Wrap(err, "smtp rcpt to")
	}

	writer, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "smtp data")
	}
	if _, err := writer.Write(buildResetMessage(m.cfg.From, toEmail, resetLink)); err != nil {
		writer.Close()

		return errors.Wrap(err, "write smtp message")
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "close smtp message")
	}

	return errors.Wrap(client.Quit(), "smtp quit")
}

func buildResetMessage(from, to, resetLink string) []byte {
	var builder strings.Builder

	fmt.Fprintf(&builder, "From: %s\r\n", from)
	fmt.Fprintf(&builder, "To: %s\r\n", to)
	fmt.Fprintf(&builder, "Subject: %s\r\n", resetSubject)
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	builder.WriteString("\r\n")
	builder.WriteString("Hello,\r\n\r\n")
	builder.WriteString("You have requested to reset your password. Please click the link below to reset your password:\r\n\r\n")
	builder.WriteString(resetLink + "\r\n\r\n")
	builder.WriteString("This link will expire in 1 hour.\r\n\r\n")
	builder.WriteString("If you did not request this password reset, please ignore this email.\r\n\r\n")
	builder.WriteString("Best regards,\r\nThe Support Team\r\n")

	return []byte(builder.String())
}
