package mailer

import (
	"assistbot/app/config"
	"context"
	"errors"
	"fmt"

	"github.com/samber/do"
	"github.com/wneessen/go-mail"
)

var ErrDisabled = errors.New("smtp is not configured")

// Client sends plain text mail to a single configured recipient.
type Client struct {
	cfg config.Email
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)
	return New(cfg.Notify.Email), nil
}

func New(cfg config.Email) *Client {
	return &Client{cfg: cfg}
}

func (c *Client) Enabled() bool {
	return c.cfg.Enabled()
}

func (c *Client) Recipient() string {
	return c.cfg.To
}

func (c *Client) Send(ctx context.Context, subject, body string) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	msg, err := c.buildMessage(subject, body)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(c.cfg.Host,
		mail.WithPort(c.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(c.cfg.User),
		mail.WithPassword(c.cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err = client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}

func (c *Client) buildMessage(subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if err := msg.From(c.cfg.User); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(c.cfg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	return msg, nil
}
