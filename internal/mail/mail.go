package mail

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Skotchmaster/library/pkg/logging"
)

type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SendGrid struct {
	FromName  string
	FromEmail string
	client    *sendgrid.Client
}

func NewSendGrid(apiKey, fromName, fromEmail string) (*SendGrid, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("sendgrid: empty api key")
	}
	if fromEmail == "" {
		return nil, fmt.Errorf("sendgrid: empty sender")
	}
	return &SendGrid{
		FromName:  fromName,
		FromEmail: fromEmail,
		client:    sendgrid.NewSendClient(apiKey),
	}, nil
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	from := sgmail.NewEmail(s.FromName, s.FromEmail)
	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	email := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	logging.FromContext(ctx).Debug("mail_sent", "to", msg.ToEmail, "status", resp.StatusCode)
	return nil
}

// LogSender only logs. Used when no SENDGRID_API_KEY is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg Message) error {
	logging.FromContext(ctx).Info("mail_skipped", "to", msg.ToEmail, "subject", msg.Subject)
	return nil
}
