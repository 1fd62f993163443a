package booking

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/flamingonails/bookings/pkg/broadcast"
	"github.com/flamingonails/bookings/pkg/logger"
	"github.com/flamingonails/bookings/pkg/statemachine"
)

// Notification reports what happened to the notification of a transition.
type Notification string

const (
	NotificationSent   Notification = "sent"
	NotificationFailed Notification = "failed"
	NotificationNone   Notification = "none"
)

// Result is the outcome of a committed transition.
type Result struct {
	// Booking is the record after the transition: the replacement for
	// staff_rebook, the voided record for staff_correct.
	Booking *Booking
	// Previous is the record as it was before the transition. Nil for intake.
	Previous *Booking
	// Outcome is the status the transition produced, rebook_suggested for
	// staff_rebook and empty for staff_correct.
	Outcome      Status
	Notification Notification
	DeliveryErr  error
}

// Engine applies lifecycle transitions. It holds no per-booking state; the
// Store's compare-and-set is the only concurrency control, and concurrent
// losers get ErrStaleState without a retry.
type Engine struct {
	store          Store
	gateway        Gateway
	feed           broadcast.Broadcaster[Change]
	log            *slog.Logger
	staffChannel   string
	notifyOnReject bool
	now            func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithGateway sets the notification gateway. Without one notifications are dropped.
func WithGateway(g Gateway) EngineOption {
	return func(e *Engine) {
		if g != nil {
			e.gateway = g
		}
	}
}

// WithChangeFeed publishes a Change after every committed transition.
func WithChangeFeed(feed broadcast.Broadcaster[Change]) EngineOption {
	return func(e *Engine) {
		e.feed = feed
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithStaffChannel sets where staff notifications go.
func WithStaffChannel(channel string) EngineOption {
	return func(e *Engine) {
		e.staffChannel = strings.TrimSpace(channel)
	}
}

// WithNotifyOnReject controls whether customers hear about rejections. Enabled by default.
func WithNotifyOnReject(enabled bool) EngineOption {
	return func(e *Engine) {
		e.notifyOnReject = enabled
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an Engine over store.
func NewEngine(store Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store:          store,
		gateway:        nopGateway{},
		log:            slog.New(slog.DiscardHandler),
		notifyOnReject: true,
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With(logger.Component("booking.engine"))
	return e
}

// Store returns the store the engine writes to.
func (e *Engine) Store() Store {
	return e.store
}

// Intake creates b as a pending booking in the active partition and notifies staff.
func (e *Engine) Intake(ctx context.Context, b *Booking, actor string) (*Result, error) {
	if b == nil {
		return nil, Errorf(ErrValidation, string(EventIntake), "", "booking is nil")
	}
	if b.Status != "" && b.Status != StatusPending {
		return nil, Errorf(ErrInvalidTransition, string(EventIntake), b.ID, "intake creates pending bookings, got %s", b.Status)
	}

	rec := b.Clone()
	rec.Status = StatusPending
	rec.touch(actor, e.now())

	id, err := e.store.Create(ctx, rec)
	if err != nil {
		return nil, e.storeFailed(ctx, EventIntake, rec.ID, err)
	}
	created, err := e.store.Get(ctx, id)
	if err != nil {
		// Committed; report what was written.
		e.log.WarnContext(ctx, "failed to reload created booking", logger.BookingID(id), logger.Error(err))
		rec.ID = id
		rec.Partition = PartitionActive
		created = rec
	}

	res := &Result{Booking: created, Outcome: StatusPending}
	e.commit(ctx, EventIntake, actor, res)
	e.notify(ctx, res, e.staffChannel, TemplateBookingRequested, MessageFor(created))
	return res, nil
}

// RequestTransition applies event to the booking with id. actor is recorded
// in the audit fields and never used for authorization.
func (e *Engine) RequestTransition(ctx context.Context, id string, event Event, actor string, params Params) (*Result, error) {
	op := string(event)
	if !event.Valid() || event == EventIntake {
		return nil, Errorf(ErrInvalidTransition, op, id, "event %q cannot be requested for an existing booking", event)
	}

	current, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, e.storeFailed(ctx, event, id, err)
	}
	if !current.IsActive() {
		return nil, Errorf(ErrInvalidTransition, op, id, "booking is %s in the %s partition", current.Status, current.Partition)
	}

	params.NewTime = strings.TrimSpace(params.NewTime)
	params.NewDate = strings.TrimSpace(params.NewDate)

	t, err := lifecycle.Resolve(ctx, current.Status, event, params)
	if err != nil {
		if statemachine.IsTransitionRejectedError(err) {
			return nil, Errorf(ErrMissingParameter, op, id, "new_time is required")
		}
		return nil, NewError(ErrInvalidTransition, op, id, fmt.Errorf("%s does not accept %s", current.Status, event))
	}
	to, ok := t.To.(Status)
	if !ok {
		return nil, Errorf(ErrInvalidTransition, op, id, "unexpected target state %s", t.To.Name())
	}

	if event == EventStaffRebook {
		return e.rebook(ctx, current, actor, params)
	}

	now := e.now()
	updated, err := e.store.ConditionalUpdate(ctx, id, current.Status, e.mutation(event, to, actor, now))
	if err != nil {
		return nil, e.storeFailed(ctx, event, id, err)
	}

	res := &Result{Booking: updated, Previous: current, Outcome: to}
	if event == EventStaffCorrect {
		res.Outcome = ""
	}
	e.commit(ctx, event, actor, res)

	msg := MessageFor(updated)
	switch event {
	case EventStaffConfirm:
		e.notify(ctx, res, updated.CustomerContact, TemplateBookingConfirmed, msg)
	case EventStaffReject:
		if e.notifyOnReject {
			e.notify(ctx, res, updated.CustomerContact, TemplateBookingRejected, msg)
		} else {
			res.Notification = NotificationNone
		}
	case EventCustomerFinalConfirm:
		e.notify(ctx, res, e.staffChannel, TemplateBookingFinalConfirmed, msg)
	default:
		res.Notification = NotificationNone
	}
	return res, nil
}

func (e *Engine) mutation(event Event, to Status, actor string, now time.Time) func(*Booking) error {
	return func(b *Booking) error {
		switch event {
		case EventStaffReject:
			b.Status = to
			b.void(VoidCancelled, actor, now)
		case EventStaffComplete:
			b.Status = to
			b.Partition = PartitionArchived
			b.CompletedAt = &now
			b.touch(actor, now)
		case EventStaffCorrect:
			b.void(VoidCorrection, actor, now)
		default:
			b.Status = to
			b.touch(actor, now)
		}
		return nil
	}
}

// rebook creates the replacement before the original leaves the active
// partition, so the original is never lost. If the original changed in the
// meantime the replacement is voided and the caller gets ErrStaleState.
func (e *Engine) rebook(ctx context.Context, current *Booking, actor string, params Params) (*Result, error) {
	now := e.now()
	replacement := &Booking{
		CustomerContact: current.CustomerContact,
		CustomerName:    current.CustomerName,
		ServiceName:     current.ServiceName,
		RequestedDate:   cmp.Or(params.NewDate, current.RequestedDate),
		RequestedTime:   params.NewTime,
		Status:          StatusPending,
		Lineage:         current.ID,
		UpdatedAt:       now,
		UpdatedBy:       actor,
	}

	newID, err := e.store.Create(ctx, replacement)
	if err != nil {
		return nil, e.storeFailed(ctx, EventStaffRebook, current.ID, err)
	}

	_, err = e.store.ConditionalUpdate(ctx, current.ID, current.Status, func(b *Booking) error {
		b.SupersededBy = newID
		b.void(VoidSuperseded, actor, now)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStaleState) || errors.Is(err, ErrNotFound) {
			e.discardReplacement(ctx, newID, actor)
		} else {
			e.log.ErrorContext(ctx, "rebook left original and replacement active",
				logger.BookingID(current.ID),
				slog.String("replacement_id", newID),
				logger.Error(err),
			)
		}
		return nil, e.storeFailed(ctx, EventStaffRebook, current.ID, err)
	}

	created, err := e.store.Get(ctx, newID)
	if err != nil {
		e.log.WarnContext(ctx, "failed to reload rebook replacement", logger.BookingID(newID), logger.Error(err))
		created = replacement.Clone()
		created.ID = newID
		created.Partition = PartitionActive
	}

	res := &Result{Booking: created, Previous: current, Outcome: StatusRebookSuggested}
	e.commit(ctx, EventStaffRebook, actor, res)

	msg := MessageFor(created)
	msg.Status = StatusRebookSuggested
	msg.PreviousID = current.ID
	msg.PreviousDate = current.RequestedDate
	msg.PreviousTime = current.RequestedTime
	e.notify(ctx, res, created.CustomerContact, TemplateBookingRebooked, msg)
	return res, nil
}

func (e *Engine) discardReplacement(ctx context.Context, id, actor string) {
	now := e.now()
	_, err := e.store.ConditionalUpdate(ctx, id, StatusPending, func(b *Booking) error {
		b.void(VoidSuperseded, actor, now)
		return nil
	})
	if err != nil {
		e.log.ErrorContext(ctx, "failed to void rebook replacement", logger.BookingID(id), logger.Error(err))
		return
	}
	e.log.WarnContext(ctx, "rebook lost a race, replacement voided", logger.BookingID(id))
}

// commit logs the transition and publishes it on the change feed.
func (e *Engine) commit(ctx context.Context, event Event, actor string, res *Result) {
	from := ""
	if res.Previous != nil {
		from = string(res.Previous.Status)
	}
	e.log.InfoContext(ctx, "booking transition",
		logger.BookingID(res.Booking.ID),
		logger.Event(string(event)),
		logger.Actor(actor),
		logger.Status(from, string(res.Booking.Status)),
		logger.Partition(string(res.Booking.Partition)),
		logger.Lineage(res.Booking.Lineage),
	)

	if e.feed == nil {
		return
	}
	change := Change{
		Event:    event,
		Booking:  res.Booking.Clone(),
		Previous: res.Previous.Clone(),
		Actor:    actor,
		At:       e.now(),
	}
	if err := e.feed.Broadcast(ctx, broadcast.Message[Change]{Data: change}); err != nil {
		e.log.WarnContext(ctx, "failed to publish booking change", logger.BookingID(res.Booking.ID), logger.Error(err))
	}
}

// notify makes the single delivery attempt of a transition. Failures are
// recorded on res and never undo the committed state.
func (e *Engine) notify(ctx context.Context, res *Result, channel string, tmpl Template, msg Message) {
	if channel == "" {
		e.log.WarnContext(ctx, "no channel for notification",
			logger.BookingID(msg.BookingID),
			logger.Template(string(tmpl)),
		)
		res.Notification = NotificationNone
		return
	}

	err := e.gateway.Send(ctx, channel, tmpl, msg)
	if err == nil {
		res.Notification = NotificationSent
		return
	}
	if !errors.Is(err, ErrDeliveryFailed) {
		err = NewError(ErrDeliveryFailed, "notify", msg.BookingID, err)
	}
	res.Notification = NotificationFailed
	res.DeliveryErr = err
	e.log.WarnContext(ctx, "booking notification failed",
		logger.BookingID(msg.BookingID),
		logger.Channel(channel),
		logger.Template(string(tmpl)),
		logger.Error(err),
	)
}

// storeFailed logs storage outages and makes sure err carries a kind.
func (e *Engine) storeFailed(ctx context.Context, event Event, id string, err error) error {
	var be *Error
	if !errors.As(err, &be) {
		err = NewError(ErrStorageUnavailable, string(event), id, err)
	}
	if errors.Is(err, ErrStorageUnavailable) {
		e.log.ErrorContext(ctx, "booking store unavailable",
			logger.BookingID(id),
			logger.Event(string(event)),
			logger.Error(err),
		)
	}
	return err
}
