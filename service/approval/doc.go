// Package approval applies administrator decisions to moderation items.
// Approval runs the kind-specific side effects exactly once; denial records a
// reason.  Both publish a decision event and notify the requester.
package approval
