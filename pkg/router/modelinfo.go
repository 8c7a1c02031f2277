package router

import "strings"

// ModelInfo is the display form of a model identifier, split into the
// vendor-facing family name and the bare model name.
type ModelInfo struct {
	Family string `json:"model_family"`
	Model  string `json:"model_name"`
}

// InfoFor derives ModelInfo from a concrete model identifier by inspecting
// its name. Unrecognized identifiers default to the Gemini family.
func InfoFor(model string) ModelInfo {
	name := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.Contains(name, "gemini"):
		return ModelInfo{Family: "Gemini", Model: strings.TrimPrefix(name, "gemini:")}
	case strings.Contains(name, "claude"):
		return ModelInfo{Family: "Anthropic", Model: strings.TrimPrefix(name, "anthropic:")}
	case strings.Contains(name, "gpt") || strings.Contains(name, "openai"):
		return ModelInfo{Family: "OpenAI", Model: strings.TrimPrefix(name, "openai:")}
	default:
		return ModelInfo{Family: "Gemini", Model: strings.TrimPrefix(name, "gemini:")}
	}
}
