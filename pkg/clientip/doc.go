// Package clientip works out which address a request came from when the
// service runs behind Cloudflare or another reverse proxy.
//
// The forwarding headers are trusted as-is. Expose the service only through
// proxies that overwrite them.
package clientip
