package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ravi-parthasarathy/webforge/pkg/llm"
)

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := llm.NewClient("unknown_provider", "some-model")
	if err == nil {
		t.Fatal("expected error for unknown provider, got nil")
	}
}

type stubClient struct{}

func (stubClient) Generate(context.Context, llm.GenerateRequest) (llm.Completion, error) {
	return llm.Completion{Text: "ok"}, nil
}

func TestRegisterAndResolve(t *testing.T) {
	llm.RegisterProvider("stub_test_provider", func(model string) (llm.Client, error) {
		if model == "" {
			return nil, errors.New("model required")
		}
		return stubClient{}, nil
	})

	c, err := llm.NewClient("stub_test_provider", "stub-model")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	comp, err := c.Generate(context.Background(), llm.GenerateRequest{Prompt: "hi"})
	if err != nil || comp.Text != "ok" {
		t.Errorf("Generate = %q, %v", comp.Text, err)
	}

	if _, err := llm.NewClient("stub_test_provider", ""); err == nil {
		t.Error("factory error not propagated")
	}
}

func TestRetryable(t *testing.T) {
	base := func(msg string) llm.LLMError { return llm.LLMError{Message: msg} }
	tests := []struct {
		err      error
		wantTrue bool
	}{
		{&llm.RateLimitError{LLMError: base("rate limit")}, true},
		{&llm.ServerError{LLMError: base("5xx")}, true},
		{&llm.AuthError{LLMError: base("auth")}, false},
		{&llm.ContextLengthError{LLMError: base("ctx")}, false},
		{&llm.ContentFilterError{LLMError: base("filter")}, false},
		{errors.New("plain"), false},
		{nil, false},
	}
	for _, tt := range tests {
		got := llm.Retryable(tt.err)
		if got != tt.wantTrue {
			t.Errorf("Retryable(%T) = %v, want %v", tt.err, got, tt.wantTrue)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("network down")
	err := &llm.ServerError{LLMError: llm.LLMError{
		Code:    502,
		Message: "upstream unavailable",
		Cause:   cause,
	}}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
}
