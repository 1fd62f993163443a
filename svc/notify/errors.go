package notify

import "errors"

var (
	ErrUnsupportedChannel   = errors.New("notify: recipient is neither an email address nor a phone number")
	ErrChannelNotConfigured = errors.New("notify: channel not configured")
	ErrUnknownTemplate      = errors.New("notify: unknown template")
)
