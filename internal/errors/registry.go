package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

const docBase = "https://tableview.dev/docs/errors/"

// Registered codes.
const (
	CodeMalformedEntry      = "E101"
	CodeSnapshotUnavailable = "E102"
	CodeSnapshotCorrupt     = "E103"
	CodeSnapshotSaveFailed  = "E104"
	CodeUnrecognizedKey     = "E105"
	CodeUnknownIntent       = "E201"
	CodeSessionNotFound     = "E202"
	CodeInvalidConfig       = "E301"
	CodeUnsupportedBackend  = "E302"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// View state and snapshot errors (E101-E199)
	// ============================================

	CodeMalformedEntry: {
		Category: CategoryState,
		Message:  "Malformed view-state entry",
		Detail:   "A sort or filter entry could not be parsed. Sort entries look like \"colA:asc\" and filter entries like \"colB:=:5\".",
		DocURL:   docBase + CodeMalformedEntry,
	},
	CodeSnapshotUnavailable: {
		Category: CategorySnapshot,
		Message:  "Snapshot store unavailable",
		Detail:   "The snapshot backend could not be reached. The table continues with URL state only.",
		DocURL:   docBase + CodeSnapshotUnavailable,
	},
	CodeSnapshotCorrupt: {
		Category: CategorySnapshot,
		Message:  "Snapshot is corrupt",
		Detail:   "The stored snapshot is not a JSON object of string arrays and was treated as empty.",
		DocURL:   docBase + CodeSnapshotCorrupt,
	},
	CodeSnapshotSaveFailed: {
		Category: CategorySnapshot,
		Message:  "Snapshot save failed",
		Detail:   "The current view state could not be written to the snapshot store. It will be retried on the next change.",
		DocURL:   docBase + CodeSnapshotSaveFailed,
	},
	CodeUnrecognizedKey: {
		Category: CategoryState,
		Message:  "Unrecognized view-state key",
		Detail:   "Only sort, filter, pageSize and pageIndex are part of the view state.",
		DocURL:   docBase + CodeUnrecognizedKey,
	},

	// ============================================
	// Protocol errors (E201-E299)
	// ============================================

	CodeUnknownIntent: {
		Category: CategoryProtocol,
		Message:  "Unknown intent",
		Detail:   "The client sent an intent type the server does not handle.",
		DocURL:   docBase + CodeUnknownIntent,
	},
	CodeSessionNotFound: {
		Category: CategoryProtocol,
		Message:  "Session not found",
		Detail:   "The session expired or never existed. Reload the page to start a new one.",
		DocURL:   docBase + CodeSessionNotFound,
	},

	// ============================================
	// Config errors (E301-E399)
	// ============================================

	CodeInvalidConfig: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file could not be parsed or contains invalid values.",
		DocURL:   docBase + CodeInvalidConfig,
	},
	CodeUnsupportedBackend: {
		Category: CategoryConfig,
		Message:  "Unsupported backend",
		Detail:   "The configured snapshot backend or rows source is not one of the supported kinds.",
		DocURL:   docBase + CodeUnsupportedBackend,
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
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
