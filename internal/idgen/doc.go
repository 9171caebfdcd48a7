// Package idgen wraps identifier generators so that they can be stubbed in
// tests.  Callers should treat identifiers as opaque strings.
package idgen
