package providers

import (
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"

	"github.com/ravi-parthasarathy/webforge/pkg/llm"
)

func makeAPIError(status int) error {
	return &openai.APIError{
		HTTPStatusCode: status,
		Message:        "test error",
	}
}

func TestMapOpenAIError_RateLimit(t *testing.T) {
	err := mapOpenAIError(makeAPIError(429))
	var rl *llm.RateLimitError
	if !errors.As(err, &rl) {
		t.Errorf("want *llm.RateLimitError, got %T", err)
	}
	if !llm.Retryable(err) {
		t.Error("RateLimitError should be retryable")
	}
}

func TestMapOpenAIError_Auth(t *testing.T) {
	for _, code := range []int{401, 403} {
		err := mapOpenAIError(makeAPIError(code))
		var ae *llm.AuthError
		if !errors.As(err, &ae) {
			t.Errorf("code %d: want *llm.AuthError, got %T", code, err)
		}
		if llm.Retryable(err) {
			t.Errorf("code %d: AuthError should not be retryable", code)
		}
	}
}

func TestMapOpenAIError_Server(t *testing.T) {
	for _, code := range []int{500, 502, 503} {
		err := mapOpenAIError(makeAPIError(code))
		var se *llm.ServerError
		if !errors.As(err, &se) {
			t.Errorf("code %d: want *llm.ServerError, got %T", code, err)
		}
		if !llm.Retryable(err) {
			t.Errorf("code %d: ServerError should be retryable", code)
		}
	}
}

func TestMapOpenAIError_Nil(t *testing.T) {
	if err := mapOpenAIError(nil); err != nil {
		t.Errorf("want nil, got %v", err)
	}
}

func TestMapOpenAIError_Passthrough(t *testing.T) {
	plain := errors.New("connection refused")
	err := mapOpenAIError(plain)
	if !errors.Is(err, plain) {
		t.Errorf("original error lost: %v", err)
	}
	if llm.Retryable(err) {
		t.Error("unclassified error should not be retryable")
	}
}

func TestMapGeminiError_RateLimit(t *testing.T) {
	err := mapGeminiError(&googleapi.Error{Code: 429, Message: "quota exceeded"})
	var rl *llm.RateLimitError
	if !errors.As(err, &rl) {
		t.Errorf("expected RateLimitError, got %T", err)
	}
}

func TestMapGeminiError_Auth(t *testing.T) {
	for _, code := range []int{401, 403} {
		err := mapGeminiError(&googleapi.Error{Code: code, Message: "unauthorized"})
		var ae *llm.AuthError
		if !errors.As(err, &ae) {
			t.Errorf("code %d: expected AuthError, got %T", code, err)
		}
	}
}

func TestMapGeminiError_Server(t *testing.T) {
	err := mapGeminiError(&googleapi.Error{Code: 503, Message: "unavailable"})
	var se *llm.ServerError
	if !errors.As(err, &se) {
		t.Errorf("expected ServerError, got %T", err)
	}
	if !llm.Retryable(err) {
		t.Error("ServerError should be retryable")
	}
}

func TestMapGeminiError_ContextLength(t *testing.T) {
	err := mapGeminiError(&googleapi.Error{Code: 400, Message: "too long"})
	var ce *llm.ContextLengthError
	if !errors.As(err, &ce) {
		t.Errorf("expected ContextLengthError, got %T", err)
	}
}

func TestMapGeminiError_Nil(t *testing.T) {
	if got := mapGeminiError(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
