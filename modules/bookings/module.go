package bookings

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flamingonails/bookings/handler"
	"github.com/flamingonails/bookings/pkg/binder"
	"github.com/flamingonails/bookings/pkg/broadcast"
	"github.com/flamingonails/bookings/pkg/clientip"
	"github.com/flamingonails/bookings/pkg/httpserver"
	"github.com/flamingonails/bookings/pkg/logger"
	"github.com/flamingonails/bookings/pkg/ratelimiter"
	"github.com/flamingonails/bookings/pkg/requestid"
	"github.com/flamingonails/bookings/svc/booking"
)

// DefaultWebhookMaxAge bounds the age of signed n8n callbacks.
const DefaultWebhookMaxAge = 5 * time.Minute

// Module serves the booking HTTP API.
type Module struct {
	engine        *booking.Engine
	intake        *booking.Intake
	catalog       *booking.Catalog
	feed          broadcast.Broadcaster[booking.Change]
	log           *slog.Logger
	webhookSecret string
	webhookMaxAge time.Duration
	checks        map[string]httpserver.Check
	intakeLimit   *ratelimiter.Bucket
	errorHandler  handler.ErrorHandler[handler.Context]
}

// Option configures a Module.
type Option func(*Module)

// WithCatalog sets the service menu served on /services.
func WithCatalog(c *booking.Catalog) Option {
	return func(m *Module) {
		if c != nil {
			m.catalog = c
		}
	}
}

// WithChangeFeed enables /bookings/stream. It should be the feed the engine publishes to.
func WithChangeFeed(feed broadcast.Broadcaster[booking.Change]) Option {
	return func(m *Module) {
		m.feed = feed
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Module) {
		if l != nil {
			m.log = l
		}
	}
}

// WithWebhookSecret requires the n8n callbacks to carry a valid signature.
// An empty secret accepts unsigned callbacks.
func WithWebhookSecret(secret string, maxAge time.Duration) Option {
	return func(m *Module) {
		m.webhookSecret = secret
		if maxAge > 0 {
			m.webhookMaxAge = maxAge
		}
	}
}

// WithHealthCheck adds a readiness check.
func WithHealthCheck(name string, check httpserver.Check) Option {
	return func(m *Module) {
		if check != nil {
			m.checks[name] = check
		}
	}
}

// WithIntakeLimit throttles POST /bookings per client IP.
func WithIntakeLimit(b *ratelimiter.Bucket) Option {
	return func(m *Module) {
		m.intakeLimit = b
	}
}

// New creates the module over engine.
//
//	engine := booking.NewEngine(store, booking.WithChangeFeed(feed))
//	r := chi.NewRouter()
//	r.Mount("/", bookings.New(engine, bookings.WithChangeFeed(feed)).Handle())
func New(engine *booking.Engine, opts ...Option) *Module {
	m := &Module{
		engine:        engine,
		intake:        booking.NewIntake(engine),
		catalog:       booking.NewCatalog(),
		log:           slog.New(slog.DiscardHandler),
		webhookMaxAge: DefaultWebhookMaxAge,
		checks:        make(map[string]httpserver.Check),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(logger.Component("http.bookings"))
	m.errorHandler = handler.NewErrorHandler[handler.Context](m.log, MapBookingError)
	return m
}

// Handle returns the routes of the module.
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware, clientip.Middleware)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(m.log, m.checks))

	r.Get("/services", handler.Wrap(m.services,
		handler.WithErrorHandler[handler.Context, struct{}](m.errorHandler),
	))

	r.Route("/bookings", func(r chi.Router) {
		r.With(m.throttleIntake).Post("/", handler.Wrap(m.submit,
			handler.WithBinders[handler.Context, booking.SubmitRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, booking.SubmitRequest](m.errorHandler),
		))
		r.Get("/", handler.Wrap(m.list,
			handler.WithBinders[handler.Context, ListRequest](binder.Query()),
			handler.WithErrorHandler[handler.Context, ListRequest](m.errorHandler),
		))
		if m.feed != nil {
			r.Get("/stream", handler.Wrap(m.stream,
				handler.WithErrorHandler[handler.Context, struct{}](m.errorHandler),
			))
		}
		r.Get("/{id}", handler.Wrap(m.get,
			handler.WithBinders[handler.Context, GetRequest](binder.Path(chi.URLParam)),
			handler.WithErrorHandler[handler.Context, GetRequest](m.errorHandler),
		))
		r.Post("/{id}/transition", handler.Wrap(m.transition,
			handler.WithBinders[handler.Context, TransitionRequest](
				binder.Path(chi.URLParam),
				binder.JSON(),
			),
			handler.WithErrorHandler[handler.Context, TransitionRequest](m.errorHandler),
			handler.WithDecorators[handler.Context, TransitionRequest](m.entitled),
		))
	})

	r.Route("/api/whatsapp", func(r chi.Router) {
		r.Use(m.verifyWebhook)
		r.Post("/confirm", handler.Wrap(m.whatsAppConfirm,
			handler.WithBinders[handler.Context, WhatsAppCallback](binder.JSON()),
			handler.WithErrorHandler[handler.Context, WhatsAppCallback](m.errorHandler),
		))
		r.Post("/rebook", handler.Wrap(m.whatsAppRebook,
			handler.WithBinders[handler.Context, WhatsAppCallback](binder.JSON()),
			handler.WithErrorHandler[handler.Context, WhatsAppCallback](m.errorHandler),
		))
	})

	return r
}

func (m *Module) throttleIntake(next http.Handler) http.Handler {
	if m.intakeLimit == nil {
		return next
	}
	return ratelimiter.Middleware(m.intakeLimit, clientip.Key,
		ratelimiter.WithDenyHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			if ratelimiter.IsLimitExceeded(err) {
				err = fmt.Errorf("%w: %v", ErrRateLimited, err)
			}
			m.errorHandler(handler.NewContext(w, r), err)
		}),
	)(next)
}
