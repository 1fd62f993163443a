package notify

import "time"

// Config holds notification settings.
type Config struct {
	// StaffChannel receives intake and final confirmation messages. Usually
	// the reception phone number.
	StaffChannel string `env:"STAFF_CHANNEL"`
	SalonName    string `env:"SALON_NAME" envDefault:"Flamingo Nails"`

	NotifyOnReject bool `env:"NOTIFY_ON_REJECT" envDefault:"true"`

	WhatsAppWebhookURL string        `env:"N8N_WHATSAPP_WEBHOOK_URL"`
	WebhookSecret      string        `env:"N8N_WEBHOOK_SECRET"`
	WebhookTimeout     time.Duration `env:"N8N_WEBHOOK_TIMEOUT" envDefault:"10s"`

	// The breaker opens after BreakerFailures consecutive failed deliveries
	// and tries again after BreakerRecovery.
	BreakerFailures int           `env:"N8N_BREAKER_FAILURES" envDefault:"5"`
	BreakerRecovery time.Duration `env:"N8N_BREAKER_RECOVERY" envDefault:"30s"`
}
