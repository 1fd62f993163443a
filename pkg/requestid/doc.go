// Package requestid gives every HTTP request an X-Request-ID and carries it
// into log records.
package requestid
