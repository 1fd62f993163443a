package bookings

import (
	"github.com/flamingonails/bookings/handler"
	"github.com/flamingonails/bookings/pkg/logger"
	"github.com/flamingonails/bookings/svc/booking"
)

// changeSignals is the signal patch sent for one change. The dashboard keeps
// its list in sync from lastChange.
func changeSignals(c booking.Change) map[string]any {
	return map[string]any{
		"lastChange": map[string]any{
			"event":    c.Event,
			"actor":    c.Actor,
			"at":       c.At,
			"booking":  c.Booking,
			"previous": c.Previous,
		},
	}
}

func (m *Module) stream(_ handler.Context, _ struct{}) handler.Response {
	return handler.SSE(func(stream handler.StreamContext) error {
		sub := m.feed.Subscribe(stream)
		defer func() { _ = sub.Close() }()

		m.log.DebugContext(stream, "change stream opened")
		updates := sub.Receive(stream)
		for {
			select {
			case <-stream.Done():
				return nil
			case msg, ok := <-updates:
				if !ok {
					return nil
				}
				if err := stream.SendSignals(changeSignals(msg.Data)); err != nil {
					m.log.DebugContext(stream, "change stream closed",
						logger.BookingID(msg.Data.Booking.ID), logger.Error(err))
					return nil
				}
			}
		}
	})
}
