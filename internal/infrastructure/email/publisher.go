// Package email delivers the weekly digest over SMTP.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"tldrist/internal/domain"
	"tldrist/internal/ports"
)

// Publisher sends the digest as an HTML email via SMTP.
type Publisher struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       []string

	// send is smtp.SendMail in production.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now  func() time.Time
}

var _ ports.DigestPublisher = (*Publisher)(nil)

func NewPublisher(host string, port int, username, password, from string, to []string) *Publisher {
	return &Publisher{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		to:       to,
		send:     smtp.SendMail,
		now:      time.Now,
	}
}

func (p *Publisher) Publish(_ context.Context, ref string, intro string, successes []domain.Success) error {
	if len(p.to) == 0 {
		return fmt.Errorf("email: no recipients configured")
	}

	body, err := RenderHTML(intro, successes)
	if err != nil {
		return fmt.Errorf("email: %w", err)
	}

	msg := p.buildMessage(Subject(p.now()), ref, body)

	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	auth := smtp.PlainAuth("", p.username, p.password, p.host)

	if err := p.send(addr, auth, p.from, p.to, msg); err != nil {
		return fmt.Errorf("email: failed to send: %w", err)
	}
	return nil
}

func (p *Publisher) buildMessage(subject, ref, body string) []byte {
	headers := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMessage-ID: <%s@tldrist>\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n",
		p.from,
		strings.Join(p.to, ","),
		subject,
		ref,
	)
	return []byte(headers + body)
}
