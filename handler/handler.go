package handler

import (
	"errors"
	"net/http"

	"github.com/flamingonails/bookings/pkg/binder"
)

// HandlerFunc handles a request already decoded into R.
type HandlerFunc[C Context, R any] func(ctx C, req R) Response

// Response writes itself to the client.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Bind decodes part of a request into v.
type Bind func(r *http.Request, v any) error

// ErrorHandler reports binding and rendering failures to the client.
type ErrorHandler[C Context] func(ctx C, err error)

// Decorator wraps a HandlerFunc. Decorators run in the order they are given.
type Decorator[C Context, R any] func(next HandlerFunc[C, R]) HandlerFunc[C, R]

// WrapOption configures Wrap.
type WrapOption[C Context, R any] func(*wrapper[C, R])

type wrapper[C Context, R any] struct {
	binders    []Bind
	onError    ErrorHandler[C]
	decorators []Decorator[C, R]
}

// WithBinders appends binders. Each one reads only its own struct tags.
//
//	handler.WithBinders[handler.Context, TransitionRequest](
//		binder.Path(chi.URLParam),
//		binder.JSON(),
//	)
func WithBinders[C Context, R any](binders ...Bind) WrapOption[C, R] {
	return func(w *wrapper[C, R]) { w.binders = append(w.binders, binders...) }
}

// WithErrorHandler replaces the default error handler.
func WithErrorHandler[C Context, R any](h ErrorHandler[C]) WrapOption[C, R] {
	return func(w *wrapper[C, R]) {
		if h != nil {
			w.onError = h
		}
	}
}

// WithDecorators appends decorators.
func WithDecorators[C Context, R any](decorators ...Decorator[C, R]) WrapOption[C, R] {
	return func(w *wrapper[C, R]) { w.decorators = append(w.decorators, decorators...) }
}

// Wrap adapts h to http.HandlerFunc. Binders reporting
// binder.ErrBinderNotApplicable are skipped. Any other binding error, a
// rendering error or a nil Response goes to the error handler.
//
// C must be Context itself: Wrap builds the value with NewContext.
func Wrap[C Context, R any](h HandlerFunc[C, R], opts ...WrapOption[C, R]) http.HandlerFunc {
	wr := &wrapper[C, R]{
		onError: func(ctx C, err error) {
			_ = JSONError(err).Render(ctx.ResponseWriter(), ctx.Request())
		},
	}
	for _, opt := range opts {
		opt(wr)
	}

	next := h
	for i := len(wr.decorators) - 1; i >= 0; i-- {
		next = wr.decorators[i](next)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, ok := NewContext(w, r).(C)
		if !ok {
			panic("handler: Wrap requires C to be handler.Context")
		}

		var req R
		for _, bind := range wr.binders {
			err := bind(r, &req)
			if errors.Is(err, binder.ErrBinderNotApplicable) {
				continue
			}
			if err != nil {
				wr.onError(ctx, err)
				return
			}
		}

		resp := next(ctx, req)
		if resp == nil {
			wr.onError(ctx, ErrNilResponse)
			return
		}
		if err := resp.Render(w, r); err != nil {
			wr.onError(ctx, err)
		}
	}
}
