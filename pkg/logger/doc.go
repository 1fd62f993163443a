// Package logger builds *slog.Logger values for the booking service.
//
//	log := logger.New(
//		logger.WithEnvironment(environment.Parse(cfg.Env), "bookingd"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "booking confirmed",
//		logger.BookingID(b.ID),
//		logger.Status("pending", "confirmed"),
//	)
package logger
