package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"net/mail"
	"strings"
	"text/template"

	"github.com/google/uuid"

	"github.com/vinciere/coming-soon/internal/models"
)

const SubscriptionSubject = "New Newsletter Subscription"

//go:embed templates/*.tmpl
var templatesFS embed.FS

type Emailer interface {
	Send(ctx context.Context, msg models.Message) error
}

// Service composes the operator notification for a new subscriber.
type Service struct {
	emailer   Emailer
	recipient string
	templates *template.Template
}

func NewService(emailer Emailer, recipient string) (*Service, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}

	return &Service{
		emailer:   emailer,
		recipient: recipient,
		templates: tmpl,
	}, nil
}

// NotifySubscription sends exactly one message to the operator mailbox. The
// subscriber address is embedded verbatim in the text part and HTML-escaped
// in the markup part.
func (s *Service) NotifySubscription(ctx context.Context, subscriber string) error {
	data := map[string]string{"Email": subscriber}

	text, err := s.render("subscription.txt.tmpl", data)
	if err != nil {
		return err
	}
	html, err := s.render("subscription.html.tmpl", data)
	if err != nil {
		return err
	}

	msg := models.Message{
		ID:      uuid.NewString(),
		To:      s.recipient,
		Subject: SubscriptionSubject,
		Text:    text,
		HTML:    html,
	}
	// Reply-To is a convenience; skip it for addresses net/mail cannot
	// represent in a header.
	if _, err := mail.ParseAddress(subscriber); err == nil {
		msg.ReplyTo = subscriber
	}

	if err := s.emailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send subscription notification: %w", err)
	}
	return nil
}

func (s *Service) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
