// Package quill mounts component trees on a reactive runtime and turns
// their re-renders into edit scripts.
//
// A Root owns one reactive.Runtime and one reconciler. Every component
// instance is a view computation living in its own scope. When a source
// the instance read changes, or its parent binds it with different props,
// the instance re-renders and its new output is reconciled against the
// last committed one. Flush runs one tick and returns every edit produced
// since the previous call, in the order a host must apply them.
//
//	root := quill.New()
//	if err := root.Mount(App, nil); err != nil {
//	    return err
//	}
//	script, err := root.Flush(ctx) // initial Insert
//	count.Set(3)
//	script, err = root.Flush(ctx)  // only what changed
//
// Hooks observe ticks. The telemetry, journal and devtools packages provide
// hooks for metrics, tracing, recording and live inspection.
package quill
