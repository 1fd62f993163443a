package bookings

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/flamingonails/bookings/handler"
	"github.com/flamingonails/bookings/svc/booking"
)

// Identity headers set by the auth proxy in front of the service.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// Roles understood by the entitlement check. Any other role, including none,
// may issue every event.
const (
	RoleStaff    = "staff"
	RoleCustomer = "customer"
)

// ActorWhatsApp is recorded for transitions arriving through the n8n callbacks.
const ActorWhatsApp = "whatsapp"

const anonymousActor = "anonymous"

// Actor is the caller as identified by the auth proxy.
type Actor struct {
	ID   string
	Role string
}

func actorFrom(r *http.Request) Actor {
	a := Actor{
		ID:   strings.TrimSpace(r.Header.Get(HeaderActorID)),
		Role: strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderActorRole))),
	}
	if a.ID == "" {
		a.ID = anonymousActor
	}
	return a
}

// Entitled reports whether role may issue event.
func Entitled(role string, event booking.Event) bool {
	switch role {
	case RoleCustomer:
		return !strings.HasPrefix(string(event), "staff_")
	case RoleStaff:
		return !strings.HasPrefix(string(event), "customer_")
	default:
		return true
	}
}

// entitled refuses transitions the caller's role may not issue.
func (m *Module) entitled(next handler.HandlerFunc[handler.Context, TransitionRequest]) handler.HandlerFunc[handler.Context, TransitionRequest] {
	return func(ctx handler.Context, req TransitionRequest) handler.Response {
		actor := actorFrom(ctx.Request())
		if !Entitled(actor.Role, req.Event) {
			return handler.Fail(fmt.Errorf("%w: %s cannot %s", ErrRoleNotEntitled, actor.Role, req.Event))
		}
		return next(ctx, req)
	}
}
