// Package mail рендерит и отправляет письмо подтверждения email.
package mail

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

const From = "Postit <support@postit.com>"

//go:embed templates
var templates embed.FS

// Message - готовое к отправке письмо.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender доставляет письма. Реализации: SMTP и тестовые.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Mailer формирует письма приложения.
type Mailer struct {
	sender    Sender
	clientURL string

	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

func NewMailer(sender Sender, clientURL string) (*Mailer, error) {
	subject, err := texttemplate.ParseFS(templates, "templates/verification/subject.tmpl")
	if err != nil {
		return nil, fmt.Errorf("mail: parse subject: %w", err)
	}
	text, err := texttemplate.ParseFS(templates, "templates/verification/text.tmpl")
	if err != nil {
		return nil, fmt.Errorf("mail: parse text: %w", err)
	}
	html, err := htmltemplate.ParseFS(templates, "templates/verification/html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("mail: parse html: %w", err)
	}
	return &Mailer{
		sender:    sender,
		clientURL: strings.TrimRight(clientURL, "/"),
		subject:   subject,
		text:      text,
		html:      html,
	}, nil
}

type verificationData struct {
	Username string
	Email    string
	Link     string
}

// SendVerification отправляет письмо со ссылкой <clientURL>/verify-email/<token>.
func (m *Mailer) SendVerification(ctx context.Context, email, username, token string) error {
	data := verificationData{
		Username: username,
		Email:    email,
		Link:     m.clientURL + "/verify-email/" + url.PathEscape(token),
	}

	var subject, text, html bytes.Buffer
	if err := m.subject.Execute(&subject, data); err != nil {
		return fmt.Errorf("mail: render subject: %w", err)
	}
	if err := m.text.Execute(&text, data); err != nil {
		return fmt.Errorf("mail: render text: %w", err)
	}
	if err := m.html.Execute(&html, data); err != nil {
		return fmt.Errorf("mail: render html: %w", err)
	}

	return m.sender.Send(ctx, Message{
		From:    From,
		To:      email,
		Subject: strings.TrimSpace(subject.String()),
		Text:    text.String(),
		HTML:    html.String(),
	})
}

// NewToken возвращает одноразовый токен подтверждения: base64 от двух UUID.
func NewToken() string {
	raw := uuid.NewString() + "-" + uuid.NewString()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// === SMTP ===

// SMTP отправляет письма через gomail.
type SMTP struct {
	dialer *gomail.Dialer
}

func NewSMTP(host string, port int, user, pass string) *SMTP {
	d := gomail.NewDialer(host, port, user, pass)
	d.SSL = port == 465
	return &SMTP{dialer: d}
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("mail: send to %s: %w", msg.To, err)
	}
	return nil
}
