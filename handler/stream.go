package handler

import (
	"encoding/json"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"
)

// StreamContext is the Context of a running DataStar stream.
type StreamContext interface {
	Context

	// SendSignal patches one frontend signal.
	SendSignal(name string, value any) error
	// SendSignals patches several frontend signals in one event.
	SendSignals(signals map[string]any) error
}

// SSEHandler runs for the lifetime of an event stream. The stream ends when
// it returns or the client goes away.
type SSEHandler func(stream StreamContext) error

// SSE returns a Response that streams through h. Requests that are not from
// a DataStar client are rejected with 400 sse_required.
//
//	return handler.SSE(func(stream handler.StreamContext) error {
//		for change := range updates {
//			if err := stream.SendSignals(toSignals(change)); err != nil {
//				return nil
//			}
//		}
//		return nil
//	})
func SSE(h SSEHandler) Response {
	return streamResponse(h)
}

type streamResponse SSEHandler

func (h streamResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if !IsDataStar(r) {
		return ErrSSERequired
	}
	ctx := NewContext(w, r)
	sse := ctx.SSE()
	if sse == nil {
		return ErrSSENotInitialized
	}
	return h(&stream{Context: ctx, sse: sse})
}

type stream struct {
	Context
	sse *datastar.ServerSentEventGenerator
}

func (s *stream) SendSignal(name string, value any) error {
	return s.SendSignals(map[string]any{name: value})
}

func (s *stream) SendSignals(signals map[string]any) error {
	data, err := json.Marshal(signals)
	if err != nil {
		return err
	}
	return s.sse.PatchSignals(data)
}
