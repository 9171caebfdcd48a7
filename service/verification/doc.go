// Package verification issues and checks one-time codes that bind a
// requester's email address to a captured action.  A successful check proves
// control of the address for this one action only; no session or account is
// created.
package verification
