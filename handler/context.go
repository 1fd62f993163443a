package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/starfederation/datastar-go/datastar"
)

// Context is the request scope handed to every HandlerFunc. It behaves as
// the request's context.Context.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	// SSE returns the event generator for DataStar requests and nil for
	// everything else. Stream headers are written on the first call.
	SSE() *datastar.ServerSentEventGenerator
}

// NewContext binds w and r into a Context.
func NewContext(w http.ResponseWriter, r *http.Request) Context {
	return &requestContext{Context: r.Context(), w: w, r: r}
}

type requestContext struct {
	context.Context

	w http.ResponseWriter
	r *http.Request

	once sync.Once
	sse  *datastar.ServerSentEventGenerator
}

func (c *requestContext) Request() *http.Request              { return c.r }
func (c *requestContext) ResponseWriter() http.ResponseWriter { return c.w }

func (c *requestContext) SSE() *datastar.ServerSentEventGenerator {
	c.once.Do(func() {
		if IsDataStar(c.r) {
			c.sse = datastar.NewSSE(c.w, c.r)
		}
	})
	return c.sse
}

// signalsParam carries DataStar signals on GET requests.
const signalsParam = "datastar"

// IsDataStar reports whether r was issued by a DataStar client: it accepts
// an event stream or carries the datastar signals parameter.
func IsDataStar(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		return true
	}
	return r.URL.Query().Has(signalsParam)
}
