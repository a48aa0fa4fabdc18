// Package telemetry provides tick hooks that export Prometheus metrics and
// OpenTelemetry spans.
//
//	reg := prometheus.NewRegistry()
//	root := quill.New(quill.WithHooks(
//	    telemetry.Prometheus(telemetry.WithRegistry(reg)),
//	    telemetry.OpenTelemetry(telemetry.WithTracerName("inventory")),
//	))
package telemetry
