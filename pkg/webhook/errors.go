package webhook

import "errors"

var (
	ErrInvalidURL            = errors.New("webhook: invalid url")
	ErrInvalidPayload        = errors.New("webhook: invalid payload")
	ErrInvalidConfiguration  = errors.New("webhook: invalid configuration")
	ErrInvalidSignature      = errors.New("webhook: invalid signature")
	ErrCircuitOpen           = errors.New("webhook: circuit open")
	ErrTimeout               = errors.New("webhook: request timed out")
	ErrTemporaryFailure      = errors.New("webhook: temporary failure")
	ErrPermanentFailure      = errors.New("webhook: permanent failure")
	ErrWebhookDeliveryFailed = errors.New("webhook: delivery failed")
)

func IsCircuitOpen(err error) bool { return errors.Is(err, ErrCircuitOpen) }
