package notify

import (
	"context"
	"log/slog"

	"github.com/flamingonails/bookings/pkg/logger"
	"github.com/flamingonails/bookings/pkg/webhook"
	"github.com/flamingonails/bookings/svc/booking"
)

// whatsAppPayload is the body the n8n workflow expects.
type whatsAppPayload struct {
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	BookingID string `json:"booking_id"`
	Template  string `json:"template"`
}

// WhatsAppChannel posts messages to the n8n workflow that relays them over
// WhatsApp. One breaker guards the workflow endpoint.
type WhatsAppChannel struct {
	sender  *webhook.Sender
	cfg     Config
	breaker *webhook.CircuitBreaker
	log     *slog.Logger
}

// WhatsAppOption configures a WhatsAppChannel.
type WhatsAppOption func(*WhatsAppChannel)

// WithWebhookSender replaces the default webhook sender.
func WithWebhookSender(s *webhook.Sender) WhatsAppOption {
	return func(c *WhatsAppChannel) {
		if s != nil {
			c.sender = s
		}
	}
}

// WithWhatsAppLogger sets the logger for delivery attempts.
func WithWhatsAppLogger(log *slog.Logger) WhatsAppOption {
	return func(c *WhatsAppChannel) {
		if log != nil {
			c.log = log
		}
	}
}

func NewWhatsAppChannel(cfg Config, opts ...WhatsAppOption) *WhatsAppChannel {
	c := &WhatsAppChannel{
		sender:  webhook.NewSender(),
		cfg:     cfg,
		breaker: webhook.NewCircuitBreaker(cfg.BreakerFailures, 1, cfg.BreakerRecovery),
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *WhatsAppChannel) Send(ctx context.Context, to string, tmpl booking.Template, msg booking.Message) error {
	if c.cfg.WhatsAppWebhookURL == "" {
		return delivery(msg.BookingID, ErrChannelNotConfigured)
	}
	content, err := Compose(tmpl, msg)
	if err != nil {
		return delivery(msg.BookingID, err)
	}

	payload := whatsAppPayload{
		Phone:     to,
		Message:   content.Text(),
		BookingID: msg.BookingID,
		Template:  string(tmpl),
	}
	err = c.sender.Send(ctx, c.cfg.WhatsAppWebhookURL, payload,
		webhook.WithMaxRetries(0),
		webhook.WithTimeout(c.cfg.WebhookTimeout),
		webhook.WithSignature(c.cfg.WebhookSecret),
		webhook.WithCircuitBreaker(c.breaker),
		webhook.WithOnDelivery(func(r webhook.DeliveryResult) {
			c.log.DebugContext(ctx, "whatsapp webhook attempt",
				logger.BookingID(msg.BookingID),
				slog.Int("status_code", r.StatusCode),
				logger.Duration(r.Duration),
			)
		}),
	)
	if err != nil {
		return delivery(msg.BookingID, err)
	}
	return nil
}

// BreakerState reports the state of the endpoint breaker.
func (c *WhatsAppChannel) BreakerState() webhook.CircuitState {
	return c.breaker.State()
}
