package errors

import "sort"

// Registered error codes.
const (
	CodeParse           = "E100"
	CodeRequiredMissing = "E101"
	CodeValidation      = "E102"
	CodeMembership      = "E103"
	CodeTypeMismatch    = "E104"
	CodeRelayClosed     = "E110"
	CodeRelayAdapter    = "E111"
	CodeConfigInvalid   = "E120"
	CodeSchemaFile      = "E121"
	CodeInvalidPort     = "E122"
	CodeConfigNotFound  = "E123"
	CodeBadArgument     = "E140"
)

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
	// Engine Errors (E100-E109)
	// ============================================

	CodeParse: {
		Category: CategoryParse,
		Message:  "Query parameter could not be parsed",
		Detail:   "The converter for this field rejected the raw query value. The field is left unset and reported in the error set.",
		DocURL:   "https://urlsync.dev/docs/errors/E100",
	},
	CodeRequiredMissing: {
		Category: CategoryRequired,
		Message:  "Required query parameter missing",
		Detail:   "The schema marks this field as required but the query string does not contain it.",
		DocURL:   "https://urlsync.dev/docs/errors/E101",
	},
	CodeValidation: {
		Category: CategoryValidation,
		Message:  "Invalid query parameter update",
		Detail:   "The update was rejected before any field was applied.",
		DocURL:   "https://urlsync.dev/docs/errors/E102",
	},
	CodeMembership: {
		Category: CategoryMembership,
		Message:  "Value is not one of the allowed values",
		Detail:   "A one-of converter only accepts values from its fixed set, both when parsing and when serializing.",
		DocURL:   "https://urlsync.dev/docs/errors/E103",
	},
	CodeTypeMismatch: {
		Category: CategoryValidation,
		Message:  "Value has the wrong type for this field",
		Detail:   "The value passed in an update does not match the type of the field's converter.",
		DocURL:   "https://urlsync.dev/docs/errors/E104",
	},

	// ============================================
	// Relay Errors (E110-E119)
	// ============================================

	CodeRelayClosed: {
		Category: CategoryRelay,
		Message:  "Navigation relay is not running",
		Detail:   "The relay was used before Init or after Teardown.",
		DocURL:   "https://urlsync.dev/docs/errors/E110",
	},
	CodeRelayAdapter: {
		Category: CategoryRelay,
		Message:  "Navigation adapter is incomplete",
		Detail:   "An adapter must provide Acquire and Map; WrapFlush is optional.",
		DocURL:   "https://urlsync.dev/docs/errors/E111",
	},

	// ============================================
	// Configuration Errors (E120-E139)
	// ============================================

	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid urlsync.json",
		Detail:   "The urlsync.json configuration file is malformed.",
		DocURL:   "https://urlsync.dev/docs/errors/E120",
	},
	CodeSchemaFile: {
		Category: CategoryConfig,
		Message:  "Invalid schema file",
		Detail:   "The schema document could not be compiled into a query schema.",
		DocURL:   "https://urlsync.dev/docs/errors/E121",
	},
	CodeInvalidPort: {
		Category: CategoryConfig,
		Message:  "Invalid port number",
		Detail:   "The configured port number is outside 1-65535.",
		DocURL:   "https://urlsync.dev/docs/errors/E122",
	},
	CodeConfigNotFound: {
		Category: CategoryConfig,
		Message:  "No urlsync.json found",
		Detail:   "The command expected a urlsync.json in the project directory.",
		DocURL:   "https://urlsync.dev/docs/errors/E123",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	CodeBadArgument: {
		Category: CategoryCLI,
		Message:  "Invalid argument",
		Detail:   "A command line argument could not be interpreted.",
		DocURL:   "https://urlsync.dev/docs/errors/E140",
	},
}

// GetAllCodes returns all registered error codes, sorted.
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
