package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"

	"github.com/flamingonails/bookings/pkg/validator"
)

type postmarkClient struct {
	client *postmark.Client
	from   string
	reply  string
}

// NewPostmarkClient requires a server token and valid sender and support
// addresses. Replies go to the support address.
func NewPostmarkClient(cfg Config) (EmailSender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	for name, addr := range map[string]string{"SenderEmail": cfg.SenderEmail, "SupportEmail": cfg.SupportEmail} {
		if addr == "" {
			return nil, fmt.Errorf("%w: %s is required", ErrInvalidConfig, name)
		}
		if !validator.IsEmail(addr) {
			return nil, fmt.Errorf("%w: %s must be a valid email address", ErrInvalidConfig, name)
		}
	}
	return &postmarkClient{
		client: postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		from:   cfg.SenderEmail,
		reply:  cfg.SupportEmail,
	}, nil
}

func (c *postmarkClient) SendEmail(ctx context.Context, p SendEmailParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	resp, err := c.client.SendEmail(ctx, postmark.Email{
		From:     c.from,
		ReplyTo:  c.reply,
		To:       p.SendTo,
		Subject:  p.Subject,
		Tag:      p.Tag,
		HTMLBody: p.BodyHTML,
		TextBody: p.BodyText,
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode != 0 {
		return fmt.Errorf("%w: postmark %d: %s", ErrFailedToSendEmail, resp.ErrorCode, resp.Message)
	}
	return nil
}
