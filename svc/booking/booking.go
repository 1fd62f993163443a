package booking

import (
	"slices"
	"time"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending         Status = "pending"
	StatusConfirmed       Status = "confirmed"
	StatusRebookSuggested Status = "rebook_suggested"
	StatusCancelled       Status = "cancelled"
	StatusFinalConfirmed  Status = "final_confirmed"
	StatusCompleted       Status = "completed"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusRebookSuggested,
	StatusCancelled,
	StatusFinalConfirmed,
	StatusCompleted,
}

func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

func (s Status) String() string {
	return string(s)
}

// Name implements statemachine.State.
func (s Status) Name() string {
	return string(s)
}

// Partition is the logical collection holding a booking.
type Partition string

const (
	PartitionActive   Partition = "active"
	PartitionArchived Partition = "archived"
	PartitionVoided   Partition = "voided"
)

// Partitions lists every partition.
var Partitions = []Partition{PartitionActive, PartitionArchived, PartitionVoided}

func (p Partition) Valid() bool {
	return slices.Contains(Partitions, p)
}

func (p Partition) String() string {
	return string(p)
}

// PartitionFor returns the partition a record with status s belongs to when
// it reaches s through a regular transition. Superseded and corrected records
// keep their status and live in the voided partition regardless.
func PartitionFor(s Status) Partition {
	switch s {
	case StatusCompleted:
		return PartitionArchived
	case StatusCancelled:
		return PartitionVoided
	default:
		return PartitionActive
	}
}

// Event is a lifecycle trigger.
type Event string

const (
	EventIntake               Event = "intake"
	EventStaffConfirm         Event = "staff_confirm"
	EventStaffReject          Event = "staff_reject"
	EventStaffRebook          Event = "staff_rebook"
	EventStaffComplete        Event = "staff_complete"
	EventCustomerFinalConfirm Event = "customer_final_confirm"
	EventStaffCorrect         Event = "staff_correct"
)

// Events lists every lifecycle event.
var Events = []Event{
	EventIntake,
	EventStaffConfirm,
	EventStaffReject,
	EventStaffRebook,
	EventStaffComplete,
	EventCustomerFinalConfirm,
	EventStaffCorrect,
}

func (e Event) Valid() bool {
	return slices.Contains(Events, e)
}

// Name implements statemachine.Event.
func (e Event) Name() string {
	return string(e)
}

// VoidReason records why a booking entered the voided partition.
type VoidReason string

const (
	VoidCancelled  VoidReason = "cancelled"
	VoidSuperseded VoidReason = "superseded"
	VoidCorrection VoidReason = "correction"
)

// Booking is a customer's appointment request.
type Booking struct {
	ID              string     `json:"id"`
	CustomerContact string     `json:"customer_contact"`
	CustomerName    string     `json:"customer_name"`
	ServiceName     string     `json:"service_name"`
	RequestedDate   string     `json:"requested_date"`
	RequestedTime   string     `json:"requested_time"`
	Status          Status     `json:"status"`
	Partition       Partition  `json:"partition"`
	Version         int64      `json:"version"`
	Lineage         string     `json:"lineage,omitempty"`
	SupersededBy    string     `json:"superseded_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	UpdatedBy       string     `json:"updated_by,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	VoidedAt        *time.Time `json:"voided_at,omitempty"`
	VoidedBy        string     `json:"voided_by,omitempty"`
	VoidReason      VoidReason `json:"void_reason,omitempty"`
}

// Clone returns a deep copy of b.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	if b.CompletedAt != nil {
		t := *b.CompletedAt
		c.CompletedAt = &t
	}
	if b.VoidedAt != nil {
		t := *b.VoidedAt
		c.VoidedAt = &t
	}
	return &c
}

func (b *Booking) IsActive() bool {
	return b.Partition == PartitionActive
}

// touch stamps the audit fields of a transition.
func (b *Booking) touch(actor string, at time.Time) {
	b.UpdatedAt = at
	b.UpdatedBy = actor
}

// void moves b to the voided partition with the given reason. Status is left untouched.
func (b *Booking) void(reason VoidReason, actor string, at time.Time) {
	b.Partition = PartitionVoided
	b.VoidReason = reason
	b.VoidedBy = actor
	b.VoidedAt = &at
	b.touch(actor, at)
}

// Params carries event-specific input.
type Params struct {
	NewTime string `json:"new_time,omitempty"`
	NewDate string `json:"new_date,omitempty"`
}

// Filter selects bookings in list queries. Zero fields match everything,
// except Partition which defaults to active.
type Filter struct {
	Partition       Partition
	Statuses        []Status
	CustomerContact string
	RequestedDate   string
	Lineage         string
}

// PartitionOrDefault returns the partition the filter reads.
func (f Filter) PartitionOrDefault() Partition {
	if f.Partition == "" {
		return PartitionActive
	}
	return f.Partition
}

// Matches reports whether b satisfies every non-partition criterion.
func (f Filter) Matches(b *Booking) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, b.Status) {
		return false
	}
	if f.CustomerContact != "" && b.CustomerContact != f.CustomerContact {
		return false
	}
	if f.RequestedDate != "" && b.RequestedDate != f.RequestedDate {
		return false
	}
	if f.Lineage != "" && b.Lineage != f.Lineage {
		return false
	}
	return true
}

// Change is published on the change feed after every committed transition.
// Previous is nil for intake.
type Change struct {
	Event    Event     `json:"event"`
	Booking  *Booking  `json:"booking"`
	Previous *Booking  `json:"previous,omitempty"`
	Actor    string    `json:"actor"`
	At       time.Time `json:"at"`
}
