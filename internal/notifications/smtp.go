// Package notifications renders and delivers the outbox notifications. The
// poller hands it pending rows; it resolves the recipient, renders the
// topic's template and sends the email.
package notifications

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/deskflow-io/deskflow/internal/config"
)

// EmailMessage is one rendered outbound email.
type EmailMessage struct {
	To      []string
	Subject string
	Body    string
	HTML    bool
}

// EmailProvider sends a rendered message.
type EmailProvider interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMTPProvider delivers mail over SMTP, with STARTTLS or implicit TLS
// (smtps) per the configured mode. When email is disabled it drops messages
// silently so the outbox keeps draining in environments without a mail
// server.
type SMTPProvider struct {
	cfg *config.EmailConfig
}

// NewSMTPProvider creates a provider for the given email configuration.
func NewSMTPProvider(cfg *config.EmailConfig) EmailProvider {
	return &SMTPProvider{cfg: cfg}
}

// Send delivers one message to all its recipients in a single SMTP session.
func (p *SMTPProvider) Send(ctx context.Context, msg EmailMessage) error {
	if !p.cfg.Enabled {
		return nil
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients")
	}

	client, err := p.connect()
	if err != nil {
		return err
	}
	defer client.Close()

	if auth := p.smtpAuth(); auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth failed: %w", err)
		}
	}

	if err := client.Mail(p.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range msg.To {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data stream: %w", err)
	}
	if _, err := w.Write(formatMessage(p.cfg.From, msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data stream: %w", err)
	}
	if err := client.Quit(); err != nil {
		return fmt.Errorf("failed to quit session: %w", err)
	}
	return nil
}

// connect opens the SMTP session. smtps wraps the TCP connection in TLS
// before the protocol starts; starttls upgrades after the greeting.
func (p *SMTPProvider) connect() (*smtp.Client, error) {
	addr := fmt.Sprintf("%s:%d", p.cfg.SMTP.Host, p.cfg.SMTP.Port)
	tlsCfg := &tls.Config{
		ServerName:         p.cfg.SMTP.Host,
		InsecureSkipVerify: p.cfg.SMTP.SkipVerify,
	}

	switch p.cfg.EffectiveTLSMode() {
	case config.TLSModeSMTPS:
		conn, err := tls.Dial("tcp", addr, tlsCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s over TLS: %w", addr, err)
		}
		client, err := smtp.NewClient(conn, p.cfg.SMTP.Host)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("smtp greeting failed: %w", err)
		}
		return client, nil

	case config.TLSModeStartTLS:
		client, err := smtp.Dial(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
		}
		if err := client.StartTLS(tlsCfg); err != nil {
			client.Close()
			return nil, fmt.Errorf("starttls failed: %w", err)
		}
		return client, nil

	default:
		client, err := smtp.Dial(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
		}
		return client, nil
	}
}

func (p *SMTPProvider) smtpAuth() smtp.Auth {
	s := p.cfg.SMTP
	if s.User == "" || s.Password == "" {
		return nil
	}
	if s.AuthType == "login" {
		return &loginAuth{user: s.User, pass: s.Password}
	}
	return smtp.PlainAuth("", s.User, s.Password, s.Host)
}

// formatMessage renders the message envelope and body. All recipients share
// one message; the To header lists them all.
func formatMessage(from string, msg EmailMessage) []byte {
	contentType := "text/plain; charset=UTF-8"
	if msg.HTML {
		contentType = "text/html; charset=UTF-8"
	}
	return []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: %s\r\n\r\n%s",
		from, strings.Join(msg.To, ", "), msg.Subject, contentType, msg.Body))
}

// loginAuth is the AUTH LOGIN mechanism some providers still require.
type loginAuth struct {
	user, pass string
}

func (a *loginAuth) Start(*smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(challenge []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch string(challenge) {
	case "Username:":
		return []byte(a.user), nil
	case "Password:":
		return []byte(a.pass), nil
	}
	return nil, fmt.Errorf("unexpected LOGIN challenge %q", challenge)
}
