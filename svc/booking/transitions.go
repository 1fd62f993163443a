package booking

import (
	"context"
	"strings"

	"github.com/flamingonails/bookings/pkg/statemachine"
)

// lifecycle is the transition table shared by every booking. Intake has no
// source state and is handled by Engine.Intake. staff_correct keeps the
// status and only relocates the record.
var lifecycle = statemachine.MustNewTable(
	statemachine.WithTransition(StatusPending, StatusConfirmed, EventStaffConfirm),
	statemachine.WithTransition(StatusPending, StatusCancelled, EventStaffReject),
	statemachine.WithFanIn(
		[]statemachine.State{StatusPending, StatusConfirmed},
		StatusRebookSuggested, EventStaffRebook,
		hasNewTime,
	),
	statemachine.WithTransition(StatusConfirmed, StatusCompleted, EventStaffComplete),
	statemachine.WithTransition(StatusConfirmed, StatusFinalConfirmed, EventCustomerFinalConfirm),
	statemachine.WithTransition(StatusPending, StatusPending, EventStaffCorrect),
	statemachine.WithTransition(StatusConfirmed, StatusConfirmed, EventStaffCorrect),
	statemachine.WithTransition(StatusFinalConfirmed, StatusFinalConfirmed, EventStaffCorrect),
)

func hasNewTime(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	p, ok := data.(Params)
	return ok && strings.TrimSpace(p.NewTime) != ""
}

// AllowedEvents lists the events a booking with status s may receive, in
// table order. Parameter requirements are not checked.
func AllowedEvents(s Status) []Event {
	declared := lifecycle.Events(s)
	out := make([]Event, 0, len(declared))
	for _, e := range declared {
		out = append(out, Event(e.Name()))
	}
	return out
}

// CanTransition reports whether (from, event) is an edge of the lifecycle
// with params satisfying its requirements.
func CanTransition(ctx context.Context, from Status, event Event, params Params) bool {
	return lifecycle.Can(ctx, from, event, params)
}
