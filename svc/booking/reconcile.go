package booking

import (
	"context"
	"iter"
	"log/slog"

	"github.com/flamingonails/bookings/pkg/logger"
)

// Duplicate is a rebook whose original never left the active partition.
type Duplicate struct {
	Original    *Booking `json:"original"`
	Replacement *Booking `json:"replacement"`
}

// Misplaced is a record whose Partition field disagrees with the partition
// that returned it.
type Misplaced struct {
	Booking  *Booking  `json:"booking"`
	Location Partition `json:"location"`
}

// Report is the result of Reconcile.
type Report struct {
	Scanned    int         `json:"scanned"`
	Duplicates []Duplicate `json:"duplicates"`
	Misplaced  []Misplaced `json:"misplaced"`
}

// Clean reports whether nothing needs attention.
func (r *Report) Clean() bool {
	return len(r.Duplicates) == 0 && len(r.Misplaced) == 0
}

// Reconcile scans every partition for the leftovers of interrupted
// transitions. It only reports; nothing is repaired.
func (e *Engine) Reconcile(ctx context.Context) (*Report, error) {
	report := &Report{}
	active := make(map[string]*Booking)
	var order []*Booking

	for _, p := range Partitions {
		for b, err := range e.scan(ctx, p) {
			if err != nil {
				return nil, e.storeFailed(ctx, "reconcile", "", err)
			}
			report.Scanned++
			if b.Partition != p {
				report.Misplaced = append(report.Misplaced, Misplaced{Booking: b, Location: p})
				continue
			}
			if p == PartitionActive {
				active[b.ID] = b
				order = append(order, b)
			}
		}
	}

	for _, b := range order {
		if b.Lineage == "" {
			continue
		}
		if original, ok := active[b.Lineage]; ok {
			report.Duplicates = append(report.Duplicates, Duplicate{Original: original, Replacement: b})
		}
	}

	for _, d := range report.Duplicates {
		e.log.WarnContext(ctx, "rebook original still active",
			logger.BookingID(d.Original.ID),
			slog.String("replacement_id", d.Replacement.ID),
		)
	}
	for _, m := range report.Misplaced {
		e.log.WarnContext(ctx, "booking stored in the wrong partition",
			logger.BookingID(m.Booking.ID),
			logger.Partition(string(m.Location)),
		)
	}
	return report, nil
}

// scan prefers the raw partition index when the store exposes one.
func (e *Engine) scan(ctx context.Context, p Partition) iter.Seq2[*Booking, error] {
	if il, ok := e.store.(IndexLister); ok {
		return il.ListIndex(ctx, p)
	}
	return e.store.List(ctx, Filter{Partition: p})
}
