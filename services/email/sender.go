// Package email renders and delivers transactional emails.
package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/cogzy/cogzy-api/config"
	"go.uber.org/zap"
)

// Message is a rendered email ready for delivery
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers rendered messages
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// NewSender returns an SMTP sender when a host is configured and a log sender otherwise
func NewSender(cfg config.SMTPConfig, logger *zap.Logger) Sender {
	if cfg.Host == "" {
		logger.Info("SMTP_HOST not set, emails will be logged instead of sent")
		return NewLogSender(logger)
	}
	return NewSMTPSender(cfg, logger)
}

// LogSender writes messages to the log instead of sending them
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message envelope and its plain text body
func (s *LogSender) Send(_ context.Context, msg *Message) error {
	s.logger.Info("email not sent, no SMTP server configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text))
	return nil
}

// dialFunc opens the SMTP session; replaced in tests
type dialFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers messages through an SMTP relay
type SMTPSender struct {
	cfg      config.SMTPConfig
	logger   *zap.Logger
	sendMail dialFunc
}

// NewSMTPSender creates an SMTPSender
func NewSMTPSender(cfg config.SMTPConfig, logger *zap.Logger) *SMTPSender {
	s := &SMTPSender{
		cfg:    cfg,
		logger: logger,
	}
	s.sendMail = smtp.SendMail
	if cfg.UseTLS {
		s.sendMail = s.sendMailTLS
	}
	return s
}

// Send delivers msg as a multipart/alternative email. The context only guards the
// start of delivery since net/smtp has no cancellation support.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := s.sendMail(addr, auth, envelopeAddress(s.cfg.From), []string{msg.To}, buildMIME(s.cfg.From, msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}

	s.logger.Debug("email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// sendMailTLS connects via implicit TLS (port 465) and sends a message,
// falling back to smtp.SendMail when the TLS dial fails.
func (s *SMTPSender) sendMailTLS(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	tlsConfig := &tls.Config{
		ServerName: s.cfg.Host,
		MinVersion: tls.VersionTLS12,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return smtp.SendMail(addr, a, from, to, msg)
	}
	defer conn.Close()

	hostname, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, hostname)
	if err != nil {
		return fmt.Errorf("smtp new client: %w", err)
	}
	defer c.Quit() //nolint:errcheck

	if a != nil {
		if err := c.Auth(a); err != nil {
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

const mimeBoundary = "cogzy-alternative-boundary"

func buildMIME(from string, msg *Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/alternative; boundary=" + mimeBoundary + "\r\n\r\n")

	b.WriteString("--" + mimeBoundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Text + "\r\n")

	b.WriteString("--" + mimeBoundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(msg.HTML + "\r\n")

	b.WriteString("--" + mimeBoundary + "--\r\n")
	return []byte(b.String())
}

// envelopeAddress extracts the bare address from "Name <addr>"
func envelopeAddress(from string) string {
	if start := strings.LastIndex(from, "<"); start >= 0 {
		if end := strings.LastIndex(from, ">"); end > start {
			return from[start+1 : end]
		}
	}
	return strings.TrimSpace(from)
}
