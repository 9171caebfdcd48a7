// Package notification renders and delivers requester email: verification
// codes and moderation decisions.  Send only enqueues; background workers
// render the template and hand the result to a Sender, so a delivery failure
// never reaches the caller's state change.
package notification
