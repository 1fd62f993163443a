// Command bookingd runs the salon booking service and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/flamingonails/bookings/pkg/clientip"
	"github.com/flamingonails/bookings/pkg/config"
	"github.com/flamingonails/bookings/pkg/environment"
	"github.com/flamingonails/bookings/pkg/logger"
	"github.com/flamingonails/bookings/pkg/requestid"
)

// Version is set at build time.
var version = "dev"

// cli is the state shared by the subcommands.
type cli struct {
	cfg appConfig
	log *slog.Logger
}

func newRootCmd(logOutput io.Writer) *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "bookingd",
		Short:         "Flamingo Nails booking service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if files, _ := cmd.Flags().GetStringSlice("env-file"); len(files) > 0 {
				if err := config.LoadEnv(files...); err != nil {
					return err
				}
			}
			if err := config.Load(&c.cfg); err != nil {
				return err
			}
			c.log = logger.New(
				logger.WithOutput(logOutput),
				logger.WithEnvironment(environment.Parse(c.cfg.Env), c.cfg.Name),
				logger.WithContextExtractors(requestid.LoggerExtractor(), clientip.LoggerExtractor()),
			)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringSlice("env-file", nil, "dotenv files to read before ./.env")

	root.AddCommand(
		newServeCmd(c),
		newMigrateCmd(c),
		newListCmd(c),
		newReconcileCmd(c),
	)
	return root
}

func main() {
	if err := newRootCmd(os.Stderr).ExecuteContext(context.Background()); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func printError(w io.Writer, err error) {
	_, _ = errorColor.Fprintf(w, "error: %v\n", err)
}

func (c *cli) open(cmd *cobra.Command) (*app, error) {
	a, err := openApp(cmd.Context(), c.cfg, c.log)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", c.cfg.StoreDriver, err)
	}
	return a, nil
}
