// Package redis opens a go-redis client from REDIS_* settings, retrying
// the first ping while the server comes up, and offers Healthcheck for the
// readiness endpoint.
package redis
