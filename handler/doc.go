// Package handler adapts typed handlers to net/http.
//
// A HandlerFunc receives a Context and a request value filled in by binders
// and returns a Response:
//
//	r.Get("/bookings/{id}", handler.Wrap(get,
//		handler.WithBinders[handler.Context, GetRequest](binder.Path(chi.URLParam)),
//		handler.WithErrorHandler[handler.Context, GetRequest](errs),
//	))
//
// JSON and JSONError write the {data, meta, error} envelope. Fail defers to
// the error handler, which each module builds with NewErrorHandler and its
// own ErrorMapper. SSE keeps a DataStar event stream open.
package handler
