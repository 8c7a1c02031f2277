package providers

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ravi-parthasarathy/webforge/pkg/llm"
)

func init() {
	llm.RegisterProvider("openai", func(modelName string) (llm.Client, error) {
		return newOpenAIClient(modelName)
	})
}

type openaiClient struct {
	sdk       *openai.Client
	modelName string
}

func newOpenAIClient(modelName string) (*openaiClient, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("openai: OPENAI_API_KEY environment variable not set")
	}
	return &openaiClient{
		sdk:       openai.NewClient(key),
		modelName: modelName,
	}, nil
}

// Generate performs one blocking generation call.
func (c *openaiClient) Generate(ctx context.Context, req llm.GenerateRequest) (llm.Completion, error) {
	maxTokens := 4096
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	resp, err := c.sdk.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.modelName,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		return llm.Completion{}, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return llm.Completion{}, fmt.Errorf("openai: response contained no choices")
	}

	choice := resp.Choices[0]
	return llm.Completion{
		Text:      choice.Message.Content,
		Truncated: choice.FinishReason == openai.FinishReasonLength,
		Usage: llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func mapOpenAIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		base := llm.LLMError{Code: apiErr.HTTPStatusCode, Message: apiErr.Message, Cause: err}
		switch apiErr.HTTPStatusCode {
		case 429:
			return &llm.RateLimitError{LLMError: base}
		case 401, 403:
			return &llm.AuthError{LLMError: base}
		case 400:
			return &llm.ContextLengthError{LLMError: base}
		case 500, 502, 503:
			return &llm.ServerError{LLMError: base}
		}
	}
	return fmt.Errorf("openai: %w", err)
}
