package bookings

import (
	"net/http"

	"github.com/flamingonails/bookings/handler"
	"github.com/flamingonails/bookings/pkg/validator"
	"github.com/flamingonails/bookings/svc/booking"
)

// GetRequest addresses one booking.
type GetRequest struct {
	ID string `path:"id"`
}

// ListRequest filters a listing. Partition defaults to active.
type ListRequest struct {
	Partition booking.Partition `query:"partition"`
	Status    []booking.Status  `query:"status"`
	Customer  string            `query:"customer"`
	Date      string            `query:"date"`
	Lineage   string            `query:"lineage"`
}

func (r ListRequest) filter() booking.Filter {
	return booking.Filter{
		Partition:       r.Partition,
		Statuses:        r.Status,
		CustomerContact: r.Customer,
		RequestedDate:   r.Date,
		Lineage:         r.Lineage,
	}
}

func (r ListRequest) validate() error {
	partitions := make([]string, len(booking.Partitions))
	for i, p := range booking.Partitions {
		partitions[i] = string(p)
	}
	statuses := make([]string, len(booking.Statuses))
	for i, s := range booking.Statuses {
		statuses[i] = string(s)
	}

	rules := []validator.Rule{
		validator.When(r.Partition != "", validator.OneOfString("partition", string(r.Partition), partitions)),
	}
	for _, s := range r.Status {
		rules = append(rules, validator.OneOfString("status", string(s), statuses))
	}
	return validator.Apply(rules...)
}

// TransitionRequest asks for a lifecycle event on one booking.
type TransitionRequest struct {
	ID     string         `path:"id" json:"-"`
	Event  booking.Event  `json:"event"`
	Params booking.Params `json:"params"`
}

func (m *Module) services(_ handler.Context, _ struct{}) handler.Response {
	services := m.catalog.Services()
	return handler.JSON(services, handler.WithJSONMeta(map[string]any{"count": len(services)}))
}

func (m *Module) submit(ctx handler.Context, req booking.SubmitRequest) handler.Response {
	actor := actorFrom(ctx.Request())
	res, err := m.intake.Submit(ctx, req, actor.ID)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(res.Booking,
		handler.WithJSONStatus(http.StatusCreated),
		handler.WithJSONMeta(resultMeta(res)),
	)
}

func (m *Module) get(ctx handler.Context, req GetRequest) handler.Response {
	b, err := m.engine.Store().Get(ctx, req.ID)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(b)
}

func (m *Module) list(ctx handler.Context, req ListRequest) handler.Response {
	if err := req.validate(); err != nil {
		return handler.Fail(booking.NewError(booking.ErrValidation, "list", "", err))
	}

	filter := req.filter()
	records, err := booking.Collect(m.engine.Store().List(ctx, filter))
	if err != nil {
		return handler.Fail(err)
	}
	if records == nil {
		records = []*booking.Booking{}
	}
	return handler.JSON(records, handler.WithJSONMeta(map[string]any{
		"partition": filter.PartitionOrDefault(),
		"count":     len(records),
	}))
}

func (m *Module) transition(ctx handler.Context, req TransitionRequest) handler.Response {
	actor := actorFrom(ctx.Request())
	res, err := m.engine.RequestTransition(ctx, req.ID, req.Event, actor.ID, req.Params)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(res.Booking, handler.WithJSONMeta(resultMeta(res)))
}

// resultMeta reports the transition outcome next to the record.
func resultMeta(res *booking.Result) map[string]any {
	meta := map[string]any{"notification": res.Notification}
	if res.Outcome != "" {
		meta["outcome"] = res.Outcome
	}
	if res.Previous != nil {
		meta["previous_id"] = res.Previous.ID
	}
	if res.DeliveryErr != nil {
		meta["notification_error"] = booking.ErrorMessage(res.DeliveryErr)
	}
	return meta
}
