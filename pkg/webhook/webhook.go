package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// DeliveryResult is reported to WithOnDelivery after every attempt.
type DeliveryResult struct {
	Attempt    int
	StatusCode int
	Duration   time.Duration
	Error      error
}

func (r DeliveryResult) Success() bool { return r.Error == nil }

type SendOption func(*sendOptions)

type sendOptions struct {
	timeout    time.Duration
	retries    uint64
	interval   time.Duration
	secret     string
	headers    http.Header
	breaker    *CircuitBreaker
	onDelivery func(DeliveryResult)
}

// WithTimeout bounds each attempt. The default is 10 seconds.
func WithTimeout(d time.Duration) SendOption {
	return func(o *sendOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxRetries sets how many times a failed attempt is retried. The
// default is 3; zero sends once.
func WithMaxRetries(n int) SendOption {
	return func(o *sendOptions) {
		if n >= 0 {
			o.retries = uint64(n)
		}
	}
}

// WithRetryInterval sets the first retry delay. Later delays double, with
// 10% jitter, up to 30 seconds.
func WithRetryInterval(d time.Duration) SendOption {
	return func(o *sendOptions) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithSignature signs the body with secret. An empty secret sends unsigned.
func WithSignature(secret string) SendOption {
	return func(o *sendOptions) { o.secret = secret }
}

func WithHeader(key, value string) SendOption {
	return func(o *sendOptions) { o.headers.Set(key, value) }
}

// WithCircuitBreaker guards the endpoint with cb; share one per endpoint.
func WithCircuitBreaker(cb *CircuitBreaker) SendOption {
	return func(o *sendOptions) { o.breaker = cb }
}

func WithOnDelivery(hook func(DeliveryResult)) SendOption {
	return func(o *sendOptions) { o.onDelivery = hook }
}

// Sender posts JSON payloads to webhook endpoints.
type Sender struct {
	client *http.Client
}

func NewSender() *Sender {
	return &Sender{client: &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}}
}

func NewSenderWithClient(client *http.Client) *Sender {
	if client == nil {
		return NewSender()
	}
	return &Sender{client: client}
}

// Send posts data as JSON to endpoint. A 4xx answer other than 408, 425 or
// 429 fails at once with ErrPermanentFailure; other failures are retried and
// end in ErrWebhookDeliveryFailed. An open breaker fails with ErrCircuitOpen
// without a request.
func (s *Sender) Send(ctx context.Context, endpoint string, data any, opts ...SendOption) error {
	if err := checkURL(endpoint); err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return errors.Join(ErrInvalidPayload, err)
	}
	if len(payload) == 0 || string(payload) == "null" {
		return fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}

	o := &sendOptions{timeout: 10 * time.Second, retries: 3, interval: time.Second, headers: http.Header{}}
	for _, opt := range opts {
		opt(o)
	}
	if o.breaker != nil && !o.breaker.Allow() {
		return ErrCircuitOpen
	}

	backoff := retry.NewExponential(o.interval)
	backoff = retry.WithJitterPercent(10, backoff)
	backoff = retry.WithCappedDuration(30*time.Second, backoff)
	backoff = retry.WithMaxRetries(o.retries, backoff)

	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		res := s.attempt(ctx, endpoint, payload, o)
		res.Attempt = attempt
		if o.onDelivery != nil {
			o.onDelivery(res)
		}
		if o.breaker != nil {
			o.breaker.Record(res.Error == nil)
		}
		switch {
		case res.Error == nil:
			return nil
		case permanent(res.StatusCode):
			return fmt.Errorf("%w: %w", ErrPermanentFailure, res.Error)
		default:
			return retry.RetryableError(res.Error)
		}
	})
	if err == nil || errors.Is(err, ErrPermanentFailure) {
		return err
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrWebhookDeliveryFailed, attempt, err)
}

func checkURL(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: no host", ErrInvalidURL)
	}
	return nil
}

func (s *Sender) attempt(ctx context.Context, endpoint string, payload []byte, o *sendOptions) DeliveryResult {
	start := time.Now()
	res := DeliveryResult{}
	done := func(err error) DeliveryResult {
		res.Duration = time.Since(start)
		res.Error = err
		return res
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return done(err)
	}
	for k, v := range o.headers {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "flamingo-bookings-webhook/1.0")
	if o.secret != "" {
		sig, err := SignPayload(o.secret, payload)
		if err != nil {
			return done(err)
		}
		sig.Apply(req.Header)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return done(fmt.Errorf("%w: %w", ErrTimeout, err))
		}
		return done(fmt.Errorf("%w: %w", ErrTemporaryFailure, err))
	}
	defer func() { _ = resp.Body.Close() }()

	res.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return done(nil)
	}
	return done(statusError(resp))
}

// statusError quotes up to 200 bytes of the response body.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	text := strings.Join(strings.Fields(string(body)), " ")
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	if text == "" {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, text)
}

// permanent reports client errors that will not change on retry.
func permanent(status int) bool {
	switch {
	case status < 400 || status >= 500:
		return false
	case status == http.StatusRequestTimeout, status == http.StatusTooEarly, status == http.StatusTooManyRequests:
		return false
	}
	return true
}
