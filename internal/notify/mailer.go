package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/pikup-intake/internal/models"
	"github.com/wneessen/go-mail"
)

// Mailer sends one message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a plain text mail with optional attachments.
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []models.Attachment
}

// SMTPConfig holds the relay settings. The account address is also the
// sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPMailer delivers through an authenticated STARTTLS relay.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// NewSMTPMailer configures the relay client. No connection is made until
// the first Send.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("mail.NewClient error: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.Username}, nil
}

// Send dials the relay and delivers msg.
func (s *SMTPMailer) Send(ctx context.Context, msg Message) error {
	m, err := buildMsg(s.from, msg)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func buildMsg(from string, msg Message) (*mail.Msg, error) {
	if msg.To == "" {
		return nil, errors.New("mail recipient is empty")
	}
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	for _, a := range msg.Attachments {
		var opts []mail.FileOption
		if a.ContentType != "" {
			opts = append(opts, mail.WithFileContentType(mail.ContentType(a.ContentType)))
		}
		if err := m.AttachReader(a.Filename, bytes.NewReader(a.Data), opts...); err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Filename, err)
		}
	}
	return m, nil
}
