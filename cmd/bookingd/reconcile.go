package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/flamingonails/bookings/svc/booking"
)

// ErrNeedsAttention is returned by reconcile when it finds leftovers.
var ErrNeedsAttention = errors.New("bookings need attention")

func newReconcileCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Report leftovers of interrupted transitions",
		Long: `Reconcile scans every partition for rebooks whose original is still
active and for records stored under the wrong partition. It only reports;
resolve findings with staff_correct. It exits non-zero when anything is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			report, err := booking.NewEngine(a.store, booking.WithLogger(c.log)).Reconcile(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.Clean() {
				successf(out, "%d booking(s) scanned, nothing to reconcile\n", report.Scanned)
				return nil
			}
			for _, d := range report.Duplicates {
				warnf(out, "rebook %s and its original %s are both active\n", d.Replacement.ID, d.Original.ID)
			}
			for _, m := range report.Misplaced {
				warnf(out, "booking %s is marked %s but stored in %s\n", m.Booking.ID, m.Booking.Partition, m.Location)
			}
			infof(out, "%d booking(s) scanned, %d duplicate(s), %d misplaced\n",
				report.Scanned, len(report.Duplicates), len(report.Misplaced))
			return ErrNeedsAttention
		},
	}
}
