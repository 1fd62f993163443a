package statemachine

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

type State interface{ Name() string }

type Event interface{ Name() string }

// StringState and StringEvent suit tables that need no richer types.
type (
	StringState string
	StringEvent string
)

func (s StringState) Name() string { return string(s) }
func (e StringEvent) Name() string { return string(e) }

// Guard vetoes a transition for the given runtime data.
type Guard func(ctx context.Context, from State, event Event, data any) bool

type Transition struct {
	From   State
	To     State
	Event  Event
	Guards []Guard
}

var (
	ErrInvalidTransition = errors.New("statemachine: transition needs from, to and event")
	ErrInvalidState      = errors.New("statemachine: nil state")
	ErrInvalidEvent      = errors.New("statemachine: nil event")
)

// NoTransitionError means the table has no edge for the event from the state.
type NoTransitionError struct{ State, Event string }

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("statemachine: %s does not accept %s", e.State, e.Event)
}

// RejectedError means edges exist but every one was vetoed by a guard.
type RejectedError struct{ State, Event string }

func (e *RejectedError) Error() string {
	return fmt.Sprintf("statemachine: guards rejected %s from %s", e.Event, e.State)
}

func IsNoTransitionAvailableError(err error) bool {
	var e *NoTransitionError
	return errors.As(err, &e)
}

func IsTransitionRejectedError(err error) bool {
	var e *RejectedError
	return errors.As(err, &e)
}

// Table is a transition table with no current state of its own. It is
// read-only once built, so one Table serves any number of records.
type Table struct {
	edges  map[string]map[string][]Transition
	events map[string][]Event
}

type Option func(*Table) error

// NewTable builds a table from opts.
func NewTable(opts ...Option) (*Table, error) {
	t := &Table{
		edges:  map[string]map[string][]Transition{},
		events: map[string][]Event{},
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustNewTable panics if an option fails.
func MustNewTable(opts ...Option) *Table {
	t, err := NewTable(opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// WithTransition adds an edge. Several edges may share from and event; the
// first whose guards pass wins.
func WithTransition(from, to State, event Event, guards ...Guard) Option {
	return func(t *Table) error {
		if from == nil || to == nil || event == nil {
			return fmt.Errorf("%w: %s -> %s on %s", ErrInvalidTransition, name(from), name(to), name(event))
		}
		byEvent, ok := t.edges[from.Name()]
		if !ok {
			byEvent = map[string][]Transition{}
			t.edges[from.Name()] = byEvent
		}
		if _, seen := byEvent[event.Name()]; !seen {
			t.events[from.Name()] = append(t.events[from.Name()], event)
		}
		byEvent[event.Name()] = append(byEvent[event.Name()], Transition{
			From:   from,
			To:     to,
			Event:  event,
			Guards: slices.DeleteFunc(slices.Clone(guards), func(g Guard) bool { return g == nil }),
		})
		return nil
	}
}

// WithFanIn adds the same edge from each of froms.
func WithFanIn(froms []State, to State, event Event, guards ...Guard) Option {
	return func(t *Table) error {
		for _, from := range froms {
			if err := WithTransition(from, to, event, guards...)(t); err != nil {
				return err
			}
		}
		return nil
	}
}

// Resolve returns the edge event takes from the state from.
func (t *Table) Resolve(ctx context.Context, from State, event Event, data any) (Transition, error) {
	if from == nil {
		return Transition{}, ErrInvalidState
	}
	if event == nil {
		return Transition{}, ErrInvalidEvent
	}
	candidates := t.edges[from.Name()][event.Name()]
	if len(candidates) == 0 {
		return Transition{}, &NoTransitionError{State: from.Name(), Event: event.Name()}
	}
	for _, tr := range candidates {
		if allow(ctx, tr, data) {
			return tr, nil
		}
	}
	return Transition{}, &RejectedError{State: from.Name(), Event: event.Name()}
}

func (t *Table) Can(ctx context.Context, from State, event Event, data any) bool {
	_, err := t.Resolve(ctx, from, event, data)
	return err == nil
}

// Events lists the events declared from a state in declaration order,
// without running guards.
func (t *Table) Events(from State) []Event {
	if from == nil {
		return nil
	}
	return slices.Clone(t.events[from.Name()])
}

func allow(ctx context.Context, tr Transition, data any) bool {
	for _, g := range tr.Guards {
		if !g(ctx, tr.From, tr.Event, data) {
			return false
		}
	}
	return true
}

func name(n interface{ Name() string }) string {
	if n == nil {
		return "<nil>"
	}
	return n.Name()
}
