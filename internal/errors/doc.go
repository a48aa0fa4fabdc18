// Package errors provides coded, categorised errors for quill.
//
// Every error the runtime can report to an application has a stable code
// (e.g. "Q001") that maps to a short message, a longer explanation and a
// documentation URL. Public packages wrap their typed errors in an *Error so
// that callers keep errors.Is / errors.As semantics while tooling (the CLI,
// the devtools inspector, the tick journal) can render a consistent message.
//
// # Error Categories
//
//   - reactive: signal store, tracker and scheduler failures
//   - reconcile: view diffing failures (duplicate keys)
//   - host: edit script application failures
//   - config: quill.json problems
//   - cli: command line usage problems
//
// # Usage
//
//	err := errors.New("Q001").
//	    WithDetail(`key "sword" appears twice in inventory/ForEach`).
//	    Wrap(dupErr)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR Q001: Duplicate key in list
//	//
//	//   key "sword" appears twice in inventory/ForEach
//	//
//	//   Learn more: https://quill.dev/docs/errors/Q001
package errors
