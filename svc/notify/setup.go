package notify

import (
	"log/slog"

	"github.com/flamingonails/bookings/pkg/email"
	"github.com/flamingonails/bookings/pkg/logger"
	"github.com/flamingonails/bookings/svc/booking"
)

// New builds the production router: email through sender, phone numbers
// through the n8n webhook. Without a webhook URL phone messages are logged.
func New(cfg Config, sender email.EmailSender, log *slog.Logger) *Router {
	log = log.With(logger.Component("notify"))

	var chat booking.Gateway = NewLogChannel(log)
	if cfg.WhatsAppWebhookURL != "" {
		chat = NewWhatsAppChannel(cfg, WithWhatsAppLogger(log))
	}
	return NewRouter(
		WithEmail(NewEmailChannel(sender, cfg.SalonName)),
		WithChat(chat),
	)
}
