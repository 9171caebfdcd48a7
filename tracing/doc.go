// Package tracing wraps OpenTelemetry so moderation services can open spans
// around verification, capture and review operations without importing the
// SDK directly.  When tracing is not initialised spans are no-ops.
package tracing
