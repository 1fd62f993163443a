// Package statemachine holds transition tables for records whose current
// state is stored elsewhere, such as a database row.
//
//	table := statemachine.MustNewTable(
//		statemachine.WithTransition(Pending, Confirmed, Confirm),
//		statemachine.WithFanIn([]statemachine.State{Pending, Confirmed}, Pending, Rebook, hasNewTime),
//	)
//	tr, err := table.Resolve(ctx, current, Confirm, nil)
//
// Resolve tells an event the table never accepts from a state
// (IsNoTransitionAvailableError) apart from one every guard vetoed
// (IsTransitionRejectedError).
package statemachine
