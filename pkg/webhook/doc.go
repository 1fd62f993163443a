// Package webhook posts JSON payloads to HTTP endpoints and verifies signed
// inbound calls.
//
// Outbound calls are signed with HMAC-SHA256 over "<unix ts>.<body>", retried
// with exponential backoff and guarded by an optional CircuitBreaker:
//
//	err := webhook.NewSender().Send(ctx, url, payload,
//		webhook.WithMaxRetries(0),
//		webhook.WithSignature(secret),
//	)
//
// VerifyRequest checks the X-Webhook-Signature and X-Webhook-Timestamp
// headers of an inbound call against its raw body.
package webhook
