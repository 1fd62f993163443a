package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/flamingonails/bookings/modules/bookings"
	"github.com/flamingonails/bookings/pkg/config"
	"github.com/flamingonails/bookings/pkg/email"
	"github.com/flamingonails/bookings/pkg/environment"
	"github.com/flamingonails/bookings/pkg/httpserver"
	"github.com/flamingonails/bookings/pkg/ratelimiter"
	"github.com/flamingonails/bookings/svc/booking"
	"github.com/flamingonails/bookings/svc/notify"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the booking HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var (
				httpCfg   httpserver.Config
				emailCfg  email.Config
				notifyCfg notify.Config
				limitCfg  ratelimiter.Config
			)
			if err := config.Load(&httpCfg); err != nil {
				return err
			}
			if err := config.Load(&emailCfg); err != nil {
				return err
			}
			if err := config.Load(&notifyCfg); err != nil {
				return err
			}
			if err := config.Load(&limitCfg); err != nil {
				return err
			}

			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			limitStore, err := a.limitStore(ctx, limitCfg)
			if err != nil {
				return err
			}
			intakeLimit, err := ratelimiter.NewBucket(limitStore, limitCfg)
			if err != nil {
				return err
			}

			feed, err := a.changeFeed(ctx)
			if err != nil {
				return err
			}
			sender, err := email.NewSender(emailCfg)
			if err != nil {
				return err
			}

			engine := booking.NewEngine(a.store,
				booking.WithGateway(notify.New(notifyCfg, sender, c.log)),
				booking.WithChangeFeed(feed),
				booking.WithLogger(c.log),
				booking.WithStaffChannel(notifyCfg.StaffChannel),
				booking.WithNotifyOnReject(notifyCfg.NotifyOnReject),
			)
			if notifyCfg.StaffChannel == "" {
				c.log.WarnContext(ctx, "STAFF_CHANNEL is empty, staff notifications will fail")
			}

			opts := []bookings.Option{
				bookings.WithChangeFeed(feed),
				bookings.WithLogger(c.log),
				bookings.WithWebhookSecret(notifyCfg.WebhookSecret, 0),
				bookings.WithIntakeLimit(intakeLimit),
			}
			for name, check := range a.checks {
				opts = append(opts, bookings.WithHealthCheck(name, check))
			}

			r := chi.NewRouter()
			r.Use(environment.Middleware(environment.Parse(c.cfg.Env)))
			r.Mount("/", bookings.New(engine, opts...).Handle())

			return httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(c.log)).Run(ctx, r)
		},
	}
}
