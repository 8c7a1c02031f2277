// Package router maps a requested model family and operation role to a
// concrete provider and model identifier.
//
// Routing is a pure lookup over a static table. Unknown or empty family
// names silently resolve to the default family; callers never see an
// error from this package.
package router

import "strings"

// Role is the functional purpose of a model invocation.
type Role string

const (
	// RoleRouter selects the small model used for classification-style
	// sub-tasks: intent, page type, query detail, modification complexity
	// and short chat replies.
	RoleRouter Role = "router"
	// RoleMain selects the large model used for full project generation
	// and for modifications classified as complex.
	RoleMain Role = "main"
)

// DefaultFamily is the family used when the requested one is unknown or empty.
const DefaultFamily = "gemini"

// PrimaryProvider is the provider whose models are least prone to wrapping
// JSON output in prose; the pipeline skips the stricter-prompt retry for it.
const PrimaryProvider = "gemini"

type familyConfig struct {
	RouterModel string
	MainModel   string
	Provider    string
}

var table = map[string]familyConfig{
	"gemini": {
		RouterModel: "gemini-2.0-flash-lite",
		MainModel:   "gemini-3-pro-preview",
		Provider:    "gemini",
	},
	"claude": {
		RouterModel: "claude-haiku-4-5-20251001",
		MainModel:   "claude-opus-4-5-20251101",
		Provider:    "anthropic",
	},
	"gpt": {
		RouterModel: "gpt-4o-mini",
		MainModel:   "gpt-5.2",
		Provider:    "openai",
	},
}

// aliases maps the family names accepted at the API boundary to table keys.
var aliases = map[string]string{
	"gemini":    "gemini",
	"anthropic": "claude",
	"claude":    "claude",
	"openai":    "gpt",
	"gpt":       "gpt",
}

// Normalize maps a family name from the API (case-insensitive, e.g.
// "Anthropic") to its internal table key. Unknown names fall back to
// DefaultFamily.
func Normalize(family string) string {
	key, ok := aliases[strings.ToLower(strings.TrimSpace(family))]
	if !ok {
		return DefaultFamily
	}
	return key
}

// Valid reports whether family names a known family (after normalization
// of aliases); empty input is not valid.
func Valid(family string) bool {
	if strings.TrimSpace(family) == "" {
		return false
	}
	_, ok := aliases[strings.ToLower(strings.TrimSpace(family))]
	return ok
}

// Resolve returns the provider and model for the given family and role.
// When complexity is non-empty it takes precedence over role: "complex"
// resolves to the family's main model, everything else to its router model.
func Resolve(family string, role Role, complexity string) (provider, model string) {
	cfg := table[Normalize(family)]
	switch {
	case complexity != "":
		if strings.EqualFold(strings.TrimSpace(complexity), "complex") {
			model = cfg.MainModel
		} else {
			model = cfg.RouterModel
		}
	case role == RoleMain:
		model = cfg.MainModel
	default:
		model = cfg.RouterModel
	}
	return cfg.Provider, model
}

// Provider returns the provider name for the given family.
func Provider(family string) string {
	return table[Normalize(family)].Provider
}
