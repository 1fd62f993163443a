// Package email sends transactional mail through Postmark. Without a
// Postmark token, NewSender returns a DevSender that writes each message to
// disk instead.
package email
