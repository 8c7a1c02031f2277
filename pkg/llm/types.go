package llm

// GenerateRequest is the unified input to a provider client.
type GenerateRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// Usage reports token counts as returned by the provider.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Completion is the unified output from a provider client.
// Truncated is set when the provider stopped at its output token limit,
// which usually means the JSON payload is incomplete.
type Completion struct {
	Text      string `json:"text"`
	Truncated bool   `json:"truncated,omitempty"`
	Usage     Usage  `json:"usage"`
}
