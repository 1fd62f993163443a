package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flamingonails/bookings/pkg/config"
	"github.com/flamingonails/bookings/pkg/pg"
	"github.com/flamingonails/bookings/svc/booking/store/pgstore"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Migrate applies the PostgreSQL schema migrations. The SQLite store
migrates itself when opened; the other drivers need no schema.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			switch c.cfg.StoreDriver {
			case DriverPostgres:
			case DriverSQLite:
				a, err := c.open(cmd)
				if err != nil {
					return err
				}
				successf(out, "sqlite schema at %s is up to date\n", c.cfg.SQLitePath)
				return a.Close()
			default:
				infof(out, "store driver %s has no migrations\n", c.cfg.StoreDriver)
				return nil
			}

			var cfg pg.Config
			if err := config.Load(&cfg); err != nil {
				return err
			}
			pool, err := pg.Connect(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pgstore.Migrate(cmd.Context(), pool, cfg, c.log); err != nil {
				return fmt.Errorf("migrate postgres: %w", err)
			}
			successf(out, "postgres schema is up to date\n")
			return nil
		},
	}
}
