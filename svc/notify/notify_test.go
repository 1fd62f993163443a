package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flamingonails/bookings/pkg/email"
	"github.com/flamingonails/bookings/pkg/webhook"
	"github.com/flamingonails/bookings/svc/booking"
	"github.com/flamingonails/bookings/svc/notify"
)

var msg = booking.Message{
	BookingID:       "bk-1",
	CustomerName:    "Anu",
	CustomerContact: "a@x.com",
	ServiceName:     "Nail Extensions",
	RequestedDate:   "2025-11-10",
	RequestedTime:   "15:30",
	Status:          booking.StatusPending,
}

type captureSender struct {
	mu   sync.Mutex
	sent []email.SendEmailParams
	err  error
}

func (c *captureSender) SendEmail(_ context.Context, p email.SendEmailParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, p)
	return nil
}

func TestCompose(t *testing.T) {
	t.Parallel()

	for _, tmpl := range booking.Templates {
		content, err := notify.Compose(tmpl, msg)
		require.NoError(t, err, tmpl)
		assert.NotEmpty(t, content.Subject, tmpl)
		assert.Contains(t, content.Text(), "bk-1", tmpl)
	}

	staff, err := notify.Compose(booking.TemplateBookingRequested, msg)
	require.NoError(t, err)
	assert.Contains(t, staff.Text(), "Reply Confirm bk-1 or Rebook bk-1")
	assert.Contains(t, staff.Text(), "Customer: Anu")

	rebook := msg
	rebook.BookingID = "bk-2"
	rebook.RequestedTime = "17:00"
	rebook.PreviousID = "bk-1"
	rebook.PreviousDate = "2025-11-10"
	rebook.PreviousTime = "15:30"
	content, err := notify.Compose(booking.TemplateBookingRebooked, rebook)
	require.NoError(t, err)
	assert.Contains(t, content.Text(), "Requested: 2025-11-10 at 15:30")
	assert.Contains(t, content.Text(), "Suggested: 2025-11-10 at 17:00")
	assert.Contains(t, content.Text(), "Previous booking ID: bk-1")

	_, err = notify.Compose("birthday_card", msg)
	require.ErrorIs(t, err, notify.ErrUnknownTemplate)
}

func TestEmailChannel(t *testing.T) {
	t.Parallel()

	sender := &captureSender{}
	ch := notify.NewEmailChannel(sender, "Flamingo Nails")

	evil := msg
	evil.CustomerName = "<script>alert(1)</script>"
	require.NoError(t, ch.Send(t.Context(), "a@x.com", booking.TemplateBookingConfirmed, evil))

	require.Len(t, sender.sent, 1)
	sent := sender.sent[0]
	assert.Equal(t, "a@x.com", sent.SendTo)
	assert.Equal(t, "Your booking is confirmed", sent.Subject)
	assert.Equal(t, "booking_confirmed", sent.Tag)
	assert.Contains(t, sent.BodyHTML, "Flamingo Nails")
	assert.NotContains(t, sent.BodyHTML, "<script>")
	assert.Contains(t, sent.BodyHTML, "&lt;script&gt;")
	assert.True(t, strings.HasPrefix(sent.BodyHTML, "<!doctype html><html>"))
	assert.Contains(t, sent.BodyHTML, "<h2>Your booking is confirmed</h2>")
	assert.Contains(t, sent.BodyHTML, `<p class="signature">Flamingo Nails</p>`)
	assert.NotContains(t, sent.BodyHTML, "<p></p>")

	sender.err = errors.New("postmark down")
	err := ch.Send(t.Context(), "a@x.com", booking.TemplateBookingConfirmed, msg)
	require.ErrorIs(t, err, booking.ErrDeliveryFailed)
	assert.Equal(t, "bk-1", booking.BookingIDOf(err))
}

func TestLogChannel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ch := notify.NewLogChannel(slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, ch.Send(t.Context(), "+918296584278", booking.TemplateBookingRequested, msg))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "bk-1", entry["booking_id"])
	assert.Equal(t, "booking_requested", entry["template"])
	assert.Contains(t, entry["text"], "Reply Confirm bk-1")
}

type webhookCall struct {
	header http.Header
	body   []byte
}

func webhookServer(t *testing.T, status int) (*httptest.Server, *[]webhookCall, *sync.Mutex) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []webhookCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, webhookCall{header: r.Header.Clone(), body: body})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, &mu
}

func TestWhatsAppChannel_SignedSingleAttempt(t *testing.T) {
	t.Parallel()

	srv, calls, mu := webhookServer(t, http.StatusOK)
	ch := notify.NewWhatsAppChannel(notify.Config{
		WhatsAppWebhookURL: srv.URL,
		WebhookSecret:      "s3cret",
		WebhookTimeout:     time.Second,
	})
	require.NoError(t, ch.Send(t.Context(), "+918296584278", booking.TemplateBookingRequested, msg))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, *calls, 1)
	call := (*calls)[0]

	var payload map[string]string
	require.NoError(t, json.Unmarshal(call.body, &payload))
	assert.Equal(t, "+918296584278", payload["phone"])
	assert.Equal(t, "bk-1", payload["booking_id"])
	assert.Contains(t, payload["message"], "Reply Confirm bk-1 or Rebook bk-1")

	headers, err := webhook.ExtractSignatureHeaders(call.header)
	require.NoError(t, err)
	require.NoError(t, webhook.VerifySignature("s3cret", call.body, headers, time.Minute))
}

func TestWhatsAppChannel_FailureIsNotRetried(t *testing.T) {
	t.Parallel()

	srv, calls, mu := webhookServer(t, http.StatusBadGateway)
	ch := notify.NewWhatsAppChannel(notify.Config{WhatsAppWebhookURL: srv.URL, WebhookTimeout: time.Second})

	err := ch.Send(t.Context(), "+918296584278", booking.TemplateBookingFinalConfirmed, msg)
	require.ErrorIs(t, err, booking.ErrDeliveryFailed)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, *calls, 1)
}

func TestWhatsAppChannel_BreakerOpens(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	ch := notify.NewWhatsAppChannel(notify.Config{
		WhatsAppWebhookURL: srv.URL,
		WebhookTimeout:     time.Second,
		BreakerFailures:    2,
		BreakerRecovery:    time.Hour,
	})
	for range 3 {
		err := ch.Send(t.Context(), "+918296584278", booking.TemplateBookingRequested, msg)
		require.ErrorIs(t, err, booking.ErrDeliveryFailed)
	}
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, webhook.CircuitOpen, ch.BreakerState())
}

func TestWhatsAppChannel_NotConfigured(t *testing.T) {
	t.Parallel()

	err := notify.NewWhatsAppChannel(notify.Config{}).Send(t.Context(), "+918296584278", booking.TemplateBookingRequested, msg)
	require.ErrorIs(t, err, booking.ErrDeliveryFailed)
	require.ErrorIs(t, err, notify.ErrChannelNotConfigured)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, notify.KindEmail, notify.Classify("a@x.com"))
	assert.Equal(t, notify.KindPhone, notify.Classify("+91 82965 84278"))
	assert.Equal(t, notify.KindUnknown, notify.Classify("reception desk"))
	assert.Equal(t, notify.KindUnknown, notify.Classify(""))
}

func TestRouter(t *testing.T) {
	t.Parallel()

	var got []string
	record := func(name string) booking.Gateway {
		return booking.GatewayFunc(func(_ context.Context, to string, _ booking.Template, _ booking.Message) error {
			got = append(got, name+":"+to)
			return nil
		})
	}
	r := notify.NewRouter(notify.WithEmail(record("email")), notify.WithChat(record("chat")))

	require.NoError(t, r.Send(t.Context(), "a@x.com", booking.TemplateBookingConfirmed, msg))
	require.NoError(t, r.Send(t.Context(), "+91 82965-84278", booking.TemplateBookingRequested, msg))
	assert.Equal(t, []string{"email:a@x.com", "chat:+918296584278"}, got)

	err := r.Send(t.Context(), "front desk", booking.TemplateBookingRequested, msg)
	require.ErrorIs(t, err, booking.ErrDeliveryFailed)
	require.ErrorIs(t, err, notify.ErrUnsupportedChannel)

	emailOnly := notify.NewRouter(notify.WithEmail(record("email")))
	err = emailOnly.Send(t.Context(), "+918296584278", booking.TemplateBookingRequested, msg)
	require.ErrorIs(t, err, notify.ErrChannelNotConfigured)
}

func TestNew_LogsPhoneMessagesWithoutWebhook(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sender := &captureSender{}
	r := notify.New(notify.Config{SalonName: "Flamingo Nails"}, sender, slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, r.Send(t.Context(), "+918296584278", booking.TemplateBookingRequested, msg))
	assert.Contains(t, buf.String(), `"component":"notify"`)

	require.NoError(t, r.Send(t.Context(), "a@x.com", booking.TemplateBookingConfirmed, msg))
	assert.Len(t, sender.sent, 1)
}
