package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"github.com/flamingonails/bookings/pkg/validator"
)

var (
	ErrInvalidConfig     = errors.New("email: invalid config")
	ErrInvalidParams     = errors.New("email: invalid params")
	ErrFailedToSendEmail = errors.New("email: send failed")
)

// Config selects the DevSender when PostmarkServerToken is empty.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"bookings@flamingonails.local"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"reception@flamingonails.local"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

type SendEmailParams struct {
	SendTo   string `json:"send_to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"-"`
	BodyText string `json:"body_text,omitempty"`
	Tag      string `json:"tag,omitempty"`
}

// Validate is called by every sender before anything goes out.
func (p SendEmailParams) Validate() error {
	switch {
	case strings.TrimSpace(p.SendTo) == "":
		return fmt.Errorf("%w: SendTo is required", ErrInvalidParams)
	case !validator.IsEmail(p.SendTo):
		return fmt.Errorf("%w: SendTo must be a valid email address", ErrInvalidParams)
	case strings.TrimSpace(p.Subject) == "":
		return fmt.Errorf("%w: Subject is required", ErrInvalidParams)
	case strings.TrimSpace(p.BodyHTML) == "":
		return fmt.Errorf("%w: BodyHTML is required", ErrInvalidParams)
	}
	return nil
}

// NewSender delivers through Postmark when a server token is set and writes
// to cfg.DevDir otherwise.
func NewSender(cfg Config) (EmailSender, error) {
	if cfg.PostmarkServerToken == "" {
		return NewDevSender(cfg.DevDir), nil
	}
	return NewPostmarkClient(cfg)
}

// Render renders a templ component into an email body.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}
