package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Reconcile and Reactive Errors (Q001-Q099)
	// ============================================

	"Q001": {
		Category: CategoryReconcile,
		Message:  "Duplicate key in list",
		Detail:   "Two items of the same ForEach produced the same key. The list keeps its previous generation for this tick.",
		DocURL:   "https://quill.dev/docs/errors/Q001",
	},
	"Q002": {
		Category: CategoryReactive,
		Message:  "Invalidation cycle detected",
		Detail:   "Computations kept invalidating each other past the configured pass bound. They stay dirty and are retried next tick.",
		DocURL:   "https://quill.dev/docs/errors/Q002",
	},
	"Q003": {
		Category: CategoryReactive,
		Message:  "Invalid reactive handle",
		Detail:   "The signal or computation was destroyed, usually because its owning scope was unmounted.",
		DocURL:   "https://quill.dev/docs/errors/Q003",
	},
	"Q004": {
		Category: CategoryHost,
		Message:  "Unknown host ref",
		Detail:   "An edit referenced a node the host has never materialized or has already despawned.",
		DocURL:   "https://quill.dev/docs/errors/Q004",
	},
	"Q005": {
		Category: CategoryReactive,
		Message:  "Computation panicked",
		Detail:   "A memo, effect or view panicked while evaluating. Its previous output is kept.",
		DocURL:   "https://quill.dev/docs/errors/Q005",
	},
	"Q006": {
		Category: CategoryReactive,
		Message:  "Evaluation budget exceeded",
		Detail:   "The flush reached MaxEvaluationsPerFlush. Remaining dirty computations run next tick.",
		DocURL:   "https://quill.dev/docs/errors/Q006",
	},
	"Q007": {
		Category: CategoryReactive,
		Message:  "Flush called during flush",
		Detail:   "Flush is not re-entrant. Writes made during a flush are picked up by its next pass.",
		DocURL:   "https://quill.dev/docs/errors/Q007",
	},
	"Q008": {
		Category: CategoryReactive,
		Message:  "Nothing mounted",
		Detail:   "The root has no mounted component.",
		DocURL:   "https://quill.dev/docs/errors/Q008",
	},

	// ============================================
	// Config Errors (Q100-Q199)
	// ============================================

	"Q100": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The quill.json file contains invalid configuration.",
		DocURL:   "https://quill.dev/docs/errors/Q100",
	},
	"Q101": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "Could not find quill.json in the project directory.",
		DocURL:   "https://quill.dev/docs/errors/Q101",
	},

	// ============================================
	// CLI Errors (Q200-Q299)
	// ============================================

	"Q200": {
		Category: CategoryCLI,
		Message:  "Invalid scenario",
		Detail:   "The scenario file could not be parsed.",
		DocURL:   "https://quill.dev/docs/errors/Q200",
	},
	"Q201": {
		Category: CategoryCLI,
		Message:  "Unknown error code",
		Detail:   "The requested code is not registered.",
		DocURL:   "https://quill.dev/docs/errors/Q201",
	},
}

// GetAllCodes returns all registered error codes in ascending order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
