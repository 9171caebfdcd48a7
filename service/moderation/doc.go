// Package moderation holds reviewable submissions.  Every action kind shares
// one pending/approved/denied state machine; decisions are made by the
// approval package.
package moderation
