package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/flamingonails/bookings/pkg/environment"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ContextExtractor pulls one attribute out of the context of a log call.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

type Option func(*options)

type options struct {
	level      slog.Level
	format     Format
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

func WithLevel(l slog.Level) Option {
	return func(o *options) { o.level = l }
}

// WithFormat panics on anything but FormatJSON or FormatText.
func WithFormat(f Format) Option {
	if f != FormatJSON && f != FormatText {
		panic(fmt.Sprintf("logger: unknown format %q", f))
	}
	return func(o *options) { o.format = f }
}

// WithOutput ignores a nil writer.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.output = w
		}
	}
}

// WithAttr adds attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(o *options) { o.attrs = append(o.attrs, attrs...) }
}

// WithContextExtractors runs extractors on every record. Nil entries are
// skipped.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(o *options) {
		for _, ex := range extractors {
			if ex != nil {
				o.extractors = append(o.extractors, ex)
			}
		}
	}
}

type preset struct {
	level  slog.Level
	format Format
}

var presets = map[environment.Environment]preset{
	environment.Development: {slog.LevelDebug, FormatText},
	environment.Staging:     {slog.LevelInfo, FormatJSON},
	environment.Production:  {slog.LevelInfo, FormatJSON},
}

// WithEnvironment applies the level and format of env and tags every record
// with service and env. Development logs text at DEBUG, the others JSON at
// INFO. Options given after it still win.
func WithEnvironment(env environment.Environment, service string) Option {
	return func(o *options) {
		p, ok := presets[env]
		if !ok {
			env, p = environment.Development, presets[environment.Development]
		}
		o.level, o.format = p.level, p.format
		if service != "" {
			o.attrs = append(o.attrs, slog.String("service", service))
		}
		o.attrs = append(o.attrs, slog.String("env", string(env)))
	}
}

// New builds a logger. Without options it writes JSON at INFO to stdout.
func New(opts ...Option) *slog.Logger {
	o := &options{level: slog.LevelInfo, format: FormatJSON, output: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	hopts := &slog.HandlerOptions{Level: o.level}
	var h slog.Handler
	if o.format == FormatText {
		h = slog.NewTextHandler(o.output, hopts)
	} else {
		h = slog.NewJSONHandler(o.output, hopts)
	}
	if len(o.attrs) > 0 {
		h = h.WithAttrs(o.attrs)
	}
	if len(o.extractors) > 0 {
		h = &contextHandler{Handler: h, extractors: o.extractors}
	}
	return slog.New(h)
}

// contextHandler adds the extracted attributes at Handle time, so values that
// change per request are read from each call's context.
type contextHandler struct {
	slog.Handler
	extractors []ContextExtractor
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok {
			rec.AddAttrs(attr)
		}
	}
	return h.Handler.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), extractors: h.extractors}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), extractors: h.extractors}
}
