package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flamingonails/bookings/svc/booking"
)

func newListCmd(c *cli) *cobra.Command {
	var (
		partition string
		statuses  []string
		customer  string
		date      string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookings of a partition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := booking.Filter{
				Partition:       booking.Partition(partition),
				CustomerContact: customer,
				RequestedDate:   date,
			}
			if !filter.Partition.Valid() {
				return fmt.Errorf("unknown partition %q", partition)
			}
			for _, s := range statuses {
				status := booking.Status(strings.TrimSpace(s))
				if !status.Valid() {
					return fmt.Errorf("unknown status %q", s)
				}
				filter.Statuses = append(filter.Statuses, status)
			}

			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			records, err := booking.Collect(a.store.List(cmd.Context(), filter))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				infof(out, "no bookings in %s\n", filter.Partition)
				return nil
			}
			printBookings(out, records)
			infof(out, "%d booking(s) in %s\n", len(records), filter.Partition)
			return nil
		},
	}

	cmd.Flags().StringVarP(&partition, "partition", "p", string(booking.PartitionActive), "partition to list: active, archived or voided")
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "only list these statuses")
	cmd.Flags().StringVar(&customer, "customer", "", "only list bookings of this contact")
	cmd.Flags().StringVar(&date, "date", "", "only list bookings on this date")
	return cmd
}
