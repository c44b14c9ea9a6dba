// Package otel reserves the OpenTelemetry observer slot for schedulers.
// It currently ships a no-op implementation so callers can wire the
// package without pulling the OTel SDK in.
package otel
