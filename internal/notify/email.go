package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/CosmoTheDev/cgconsole/internal/config"
)

// EmailChannel sends notifications via SMTP.
type EmailChannel struct {
	cfg config.EmailNotifyConfig
}

func NewEmail(cfg config.EmailNotifyConfig) *EmailChannel { return &EmailChannel{cfg: cfg} }

func (e *EmailChannel) Name() string { return "email" }
func (e *EmailChannel) IsConfigured() bool {
	return e.cfg.SMTPHost != "" && e.cfg.To != "" && e.cfg.From != ""
}

// message renders the RFC 5322 message for evt with CRLF line endings.
func (e *EmailChannel) message(evt Event) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: [cgconsole] %s\r\n", evt.Title)
	fmt.Fprintf(&b, "From: %s\r\nTo: %s\r\n", e.cfg.From, e.cfg.To)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(evt.Body, "\n", "\r\n"))
	if evt.Location != "" {
		fmt.Fprintf(&b, "\r\n\r\nProject: %s\r\nLocation: %s\r\nConfidence: %.2f", evt.Project, evt.Location, evt.Confidence)
	}
	return []byte(b.String())
}

func (e *EmailChannel) Send(_ context.Context, evt Event) error {
	port := e.cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	addr := fmt.Sprintf("%s:%d", e.cfg.SMTPHost, port)
	msg := e.message(evt)

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.SMTPHost)
	}
	if !e.cfg.UseTLS {
		return smtp.SendMail(addr, auth, e.cfg.From, []string{e.cfg.To}, msg)
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: e.cfg.SMTPHost, MinVersion: tls.VersionTLS12})
	if err != nil {
		return fmt.Errorf("email: TLS dial: %w", err)
	}
	defer conn.Close()
	client, err := smtp.NewClient(conn, e.cfg.SMTPHost)
	if err != nil {
		return err
	}
	defer client.Close()
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(e.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(e.cfg.To); err != nil {
		return err
	}
	wc, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(msg); err != nil {
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return client.Quit()
}
