package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

var (
	ErrStart    = errors.New("httpserver: start")
	ErrShutdown = errors.New("httpserver: graceful shutdown")
	ErrRunning  = errors.New("httpserver: already running")
)

// Config is read from the HTTP_* environment. WriteTimeout defaults to zero
// so event streams stay open.
type Config struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"0s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

type Option func(*Server)

func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.cfg.Addr = addr
		}
	}
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.cfg.ShutdownTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// Server runs an http.Server until its context ends.
type Server struct {
	cfg   Config
	log   *slog.Logger
	ready chan struct{}
	once  sync.Once

	mu   sync.Mutex
	srv  *http.Server
	addr net.Addr
}

func New(opts ...Option) *Server {
	return NewFromConfig(Config{
		Addr:            ":8080",
		ReadTimeout:     30 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}, opts...)
}

// NewFromConfig applies opts on top of cfg.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	s := &Server{cfg: cfg, log: slog.New(slog.DiscardHandler), ready: make(chan struct{})}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Addr is the bound address, or nil before Run binds.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run serves h until ctx ends or Shutdown is called, then drains open
// requests within the shutdown timeout. Request contexts survive ctx.
func (s *Server) Run(ctx context.Context, h http.Handler) error {
	if h == nil {
		h = http.NotFoundHandler()
	}
	srv, ln, err := s.listen(ctx, h)
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "http server listening", slog.String("addr", ln.Addr().String()))
	close(s.ready)

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		err = s.Shutdown(context.WithoutCancel(ctx))
		if serveErr := <-served; !errors.Is(serveErr, http.ErrServerClosed) {
			err = errors.Join(err, serveErr)
		}
		return err
	case err = <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Join(ErrStart, err)
	}
}

func (s *Server) listen(ctx context.Context, h http.Handler) (*http.Server, net.Listener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return nil, nil, errors.Join(ErrStart, ErrRunning)
	}
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return nil, nil, errors.Join(ErrStart, err)
	}
	s.srv = &http.Server{
		Handler:      h,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.addr = ln.Addr()
	return s.srv, ln, nil
}

// Shutdown stops a running server. Calls after the first do nothing.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		srv := s.srv
		s.mu.Unlock()
		if srv == nil {
			return
		}
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
		if err = srv.Shutdown(ctx); err != nil {
			err = errors.Join(ErrShutdown, err)
		}
		s.log.InfoContext(ctx, "http server stopped")
	})
	return err
}
