// Package booking implements the salon booking lifecycle.
//
// A Booking moves through the statuses pending, confirmed, final_confirmed,
// cancelled and completed, and lives in exactly one of three partitions:
// active, archived or voided. Engine validates every requested event against
// the lifecycle table, commits one logical Store mutation, then makes at most
// one Gateway delivery. A failed delivery is reported on the Result and never
// rolls the transition back.
//
// Concurrency control belongs to the Store: ConditionalUpdate is a
// compare-and-set on the expected status, and a request that loses a race
// fails with ErrStaleState. Callers re-read and retry.
//
//	store := booking.NewMemoryStore()
//	engine := booking.NewEngine(store,
//		booking.WithGateway(gw),
//		booking.WithStaffChannel("+918000000000"),
//	)
//	res, err := booking.NewIntake(engine).Submit(ctx, booking.SubmitRequest{
//		CustomerContact: "a@x.com",
//		CustomerName:    "Anu",
//		ServiceName:     "Manicure",
//		Date:            "2025-11-10",
//		Time:            "15:30",
//	}, "web")
//
// A staff_rebook creates a replacement booking whose Lineage names the
// original, then voids the original with its status unchanged. The
// replacement is written first; Engine.Reconcile reports originals that an
// interrupted rebook left active.
//
// Every error wraps one of the kind sentinels (ErrValidation,
// ErrInvalidTransition, ErrMissingParameter, ErrNotFound, ErrStaleState,
// ErrDeliveryFailed, ErrStorageUnavailable, ErrDuplicateID) and carries the
// booking id through *Error.
package booking
