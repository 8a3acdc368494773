package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	DocURL   string
}

const docBase = "https://github.com/pinterest/teletraan/wiki/deploy-board-errors#"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Usage Errors (E101-E119)
	// ============================================

	"E101": {
		Category: CategoryUsage,
		Message:  "Route not found",
		DocURL:   docBase + "e101",
	},
	"E102": {
		Category: CategoryUsage,
		Message:  "Duplicate route path",
		DocURL:   docBase + "e102",
	},
	"E103": {
		Category: CategoryUsage,
		Message:  "Duplicate route id",
		DocURL:   docBase + "e103",
	},
	"E104": {
		Category: CategoryUsage,
		Message:  "Invalid route definition",
		DocURL:   docBase + "e104",
	},
	"E105": {
		Category: CategoryUsage,
		Message:  "Missing route parameter",
		DocURL:   docBase + "e105",
	},
	"E106": {
		Category: CategoryUsage,
		Message:  "Unknown view component",
		DocURL:   docBase + "e106",
	},

	// ============================================
	// Config Errors (E120-E149)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		DocURL:   docBase + "e120",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		DocURL:   docBase + "e121",
	},
	"E141": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		DocURL:   docBase + "e141",
	},

	// ============================================
	// Transport Errors (E200-E299)
	// ============================================

	"E201": {
		Category: CategoryTransport,
		Message:  "API request failed",
		DocURL:   docBase + "e201",
	},
	"E202": {
		Category: CategoryTransport,
		Message:  "API returned an error status",
		DocURL:   docBase + "e202",
	},
	"E203": {
		Category: CategoryTransport,
		Message:  "Fixture data unavailable",
		DocURL:   docBase + "e203",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
