// Package environment tells development, staging and production apart and
// carries the current one through request contexts.
package environment
