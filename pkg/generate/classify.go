package generate

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/ravi-parthasarathy/webforge/pkg/extract"
	"github.com/ravi-parthasarathy/webforge/pkg/llm"
	"github.com/ravi-parthasarathy/webforge/pkg/router"
)

// Classifier defaults. Classification never blocks the pipeline: a provider
// failure or unparseable output falls back to the conservative choice.
const (
	defaultIntent     = "chat"
	defaultPageType   = "generic"
	defaultComplexity = "medium"
)

var validComplexities = map[string]bool{"small": true, "medium": true, "complex": true}

// ClassifyIntent labels userText as one of webpage_build, greeting_only,
// chat, illegal, other. Falls back to "chat" when the classifier is unusable.
func (p *Pipeline) ClassifyIntent(ctx context.Context, userText, family string) Classification {
	prompt := classifierPrompt(intentInstructions, "User message", userText)
	c := p.classify(ctx, family, prompt, "label", defaultIntent)
	slog.Info("intent classified", "label", c.Label, "confidence", c.Confidence, "model", c.Model)
	return c
}

// ClassifyPageType labels userText with a page-type key. Falls back to
// "generic".
func (p *Pipeline) ClassifyPageType(ctx context.Context, userText, family string) Classification {
	prompt := classifierPrompt(pageTypeInstructions, "User message", userText)
	c := p.classify(ctx, family, prompt, "page_type", defaultPageType)
	slog.Info("page type classified", "page_type", c.Label, "confidence", c.Confidence, "model", c.Model)
	return c
}

// ClassifyComplexity labels a modification instruction as small, medium, or
// complex. Out-of-vocabulary answers collapse to "medium".
func (p *Pipeline) ClassifyComplexity(ctx context.Context, instruction, family string) Classification {
	prompt := classifierPrompt(complexityInstructions, "Modification instruction", instruction)
	c := p.classify(ctx, family, prompt, "complexity", defaultComplexity)
	if !validComplexities[c.Label] {
		c.Label = defaultComplexity
	}
	slog.Info("modification complexity classified", "complexity", c.Label, "confidence", c.Confidence)
	return c
}

// AnalyzeQueryDetail decides whether userText is specific enough to generate
// from directly. Unclear or failed analysis defaults to asking follow-ups.
func (p *Pipeline) AnalyzeQueryDetail(ctx context.Context, userText, family string) (bool, float64) {
	prompt := classifierPrompt(queryDetailInstructions, "User request", userText)

	obj, model, ok := p.classifierCall(ctx, family, prompt)
	if !ok {
		slog.Warn("query detail analysis unusable, defaulting to follow-up", "model", model)
		return true, 0.0
	}

	needsFollowup := true
	if v, ok := obj["needs_followup"].(bool); ok {
		needsFollowup = v
	}
	confidence, _ := obj["confidence"].(float64)
	slog.Info("query detail analyzed", "needs_followup", needsFollowup, "confidence", confidence)
	return needsFollowup, confidence
}

// Chat answers a conversational message on the router model, capped at four
// sentences. Unlike the classifiers this surfaces provider errors.
func (p *Pipeline) Chat(ctx context.Context, userText, family string) (string, string, error) {
	provider, model := router.Resolve(p.family(family), router.RoleRouter, "")
	client, err := p.newClient(provider, model)
	if err != nil {
		return "", model, err
	}

	prompt := "Reply in max 4 sentences.\nUser: " + userText
	comp, err := client.Generate(ctx, llm.GenerateRequest{Prompt: prompt, MaxTokens: p.routerMaxTokens})
	if err != nil {
		return "", model, err
	}

	return capSentences(comp.Text, 4), model, nil
}

// capSentences keeps at most n sentences of text.
func capSentences(text string, n int) string {
	parts := splitSentences(strings.TrimSpace(text))
	if len(parts) > n {
		parts = parts[:n]
	}
	return strings.Join(parts, " ")
}

// splitSentences breaks text at whitespace that follows sentence-ending
// punctuation.
func splitSentences(text string) []string {
	if text == "" {
		return nil
	}
	var parts []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		if (runes[i] == '.' || runes[i] == '!' || runes[i] == '?') && unicode.IsSpace(runes[i+1]) {
			parts = append(parts, strings.TrimSpace(string(runes[start:i+1])))
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				i++
			}
			start = i + 1
		}
	}
	if start < len(runes) {
		parts = append(parts, strings.TrimSpace(string(runes[start:])))
	}
	return parts
}

// classify runs one classifier prompt and reads labelKey out of the JSON
// answer, falling back to def when anything goes wrong.
func (p *Pipeline) classify(ctx context.Context, family, prompt, labelKey, def string) Classification {
	obj, model, ok := p.classifierCall(ctx, family, prompt)
	if !ok {
		return Classification{
			Label:       def,
			Explanation: "Could not parse classifier output",
			Model:       model,
		}
	}

	label, _ := obj[labelKey].(string)
	if label == "" {
		label = def
	}
	explanation, _ := obj["explanation"].(string)
	confidence, _ := obj["confidence"].(float64)

	return Classification{
		Label:       label,
		Explanation: explanation,
		Confidence:  confidence,
		Model:       model,
	}
}

// classifierCall resolves the family's router model, runs the prompt, and
// extracts the JSON object from the answer.
func (p *Pipeline) classifierCall(ctx context.Context, family, prompt string) (map[string]any, string, bool) {
	provider, model := router.Resolve(p.family(family), router.RoleRouter, "")

	client, err := p.newClient(provider, model)
	if err != nil {
		slog.Warn("classifier client unavailable", "provider", provider, "error", err)
		return nil, model, false
	}

	comp, err := client.Generate(ctx, llm.GenerateRequest{Prompt: prompt, MaxTokens: p.routerMaxTokens})
	if err != nil {
		slog.Warn("classifier call failed", "provider", provider, "model", model, "error", err)
		return nil, model, false
	}

	obj, ok := extract.Object(comp.Text)
	return obj, model, ok
}
