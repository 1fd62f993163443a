// Package httpserver runs an http.Server until its context is cancelled and
// then shuts it down gracefully. It also provides liveness and readiness
// handlers for orchestrator health checks.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//	    return err
//	}
package httpserver
