// Package capture snapshots a submitted action, routes it through the
// verification gate when required, and replays the verified snapshot into the
// moderation queue exactly once.
package capture
