package router_test

import (
	"testing"

	"github.com/ravi-parthasarathy/webforge/pkg/router"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		family       string
		role         router.Role
		complexity   string
		wantProvider string
		wantModel    string
	}{
		{"gemini router", "gemini", router.RoleRouter, "", "gemini", "gemini-2.0-flash-lite"},
		{"gemini main", "gemini", router.RoleMain, "", "gemini", "gemini-3-pro-preview"},
		{"claude router", "claude", router.RoleRouter, "", "anthropic", "claude-haiku-4-5-20251001"},
		{"claude main", "claude", router.RoleMain, "", "anthropic", "claude-opus-4-5-20251101"},
		{"anthropic alias", "Anthropic", router.RoleMain, "", "anthropic", "claude-opus-4-5-20251101"},
		{"gpt main", "gpt", router.RoleMain, "", "openai", "gpt-5.2"},
		{"openai alias", "OpenAI", router.RoleRouter, "", "openai", "gpt-4o-mini"},
		{"unknown falls back to gemini", "mistral", router.RoleMain, "", "gemini", "gemini-3-pro-preview"},
		{"empty falls back to gemini", "", router.RoleRouter, "", "gemini", "gemini-2.0-flash-lite"},
		{"whitespace and case ignored", "  GeMiNi  ", router.RoleMain, "", "gemini", "gemini-3-pro-preview"},
		{"complex modification uses main", "claude", router.RoleRouter, "complex", "anthropic", "claude-opus-4-5-20251101"},
		{"small modification uses router", "claude", router.RoleMain, "small", "anthropic", "claude-haiku-4-5-20251001"},
		{"medium modification uses router", "gpt", router.RoleMain, "medium", "openai", "gpt-4o-mini"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, model := router.Resolve(tt.family, tt.role, tt.complexity)
			if provider != tt.wantProvider {
				t.Errorf("provider = %q, want %q", provider, tt.wantProvider)
			}
			if model != tt.wantModel {
				t.Errorf("model = %q, want %q", model, tt.wantModel)
			}
		})
	}
}

func TestResolveDeterministic(t *testing.T) {
	p1, m1 := router.Resolve("claude", router.RoleMain, "")
	for i := 0; i < 10; i++ {
		p2, m2 := router.Resolve("claude", router.RoleMain, "")
		if p1 != p2 || m1 != m2 {
			t.Fatalf("resolution changed between calls: (%s,%s) vs (%s,%s)", p1, m1, p2, m2)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"gemini", "gemini"},
		{"anthropic", "claude"},
		{"claude", "claude"},
		{"openai", "gpt"},
		{"gpt", "gpt"},
		{"Gemini", "gemini"},
		{"", "gemini"},
		{"nonsense", "gemini"},
	}
	for _, tt := range tests {
		if got := router.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValid(t *testing.T) {
	if router.Valid("") {
		t.Error("empty family should not be valid")
	}
	if router.Valid("mistral") {
		t.Error("unknown family should not be valid")
	}
	if !router.Valid("Anthropic") {
		t.Error("alias should be valid regardless of case")
	}
}

func TestInfoFor(t *testing.T) {
	tests := []struct {
		model      string
		wantFamily string
	}{
		{"gemini-3-pro-preview", "Gemini"},
		{"claude-opus-4-5-20251101", "Anthropic"},
		{"gpt-5.2", "OpenAI"},
		{"gpt-4o-mini", "OpenAI"},
		{"totally-unknown", "Gemini"},
	}
	for _, tt := range tests {
		info := router.InfoFor(tt.model)
		if info.Family != tt.wantFamily {
			t.Errorf("InfoFor(%q).Family = %q, want %q", tt.model, info.Family, tt.wantFamily)
		}
	}
}
