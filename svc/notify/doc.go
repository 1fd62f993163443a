// Package notify delivers booking notifications to customers and staff.
//
// Router implements booking.Gateway and picks a channel from the shape of
// the recipient: email addresses go to an EmailChannel, phone numbers to a
// WhatsAppChannel that hands the message to an n8n workflow webhook.
// LogChannel stands in for both during development.
//
//	gw := notify.NewRouter(
//	    notify.WithEmail(notify.NewEmailChannel(sender, cfg.SalonName)),
//	    notify.WithChat(notify.NewWhatsAppChannel(cfg)),
//	)
//	engine := booking.NewEngine(store, booking.WithGateway(gw))
//
// Every channel makes exactly one delivery attempt. Failures wrap
// booking.ErrDeliveryFailed.
//
// The email layout lives in email.templ; regenerate email_templ.go with
// go generate after editing it.
package notify

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.924 generate -f email.templ
