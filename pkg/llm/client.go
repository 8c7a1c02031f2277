package llm

import (
	"context"
	"fmt"
	"sync"
)

// Client is the provider-agnostic generation interface.
// Implementations perform a single blocking call per Generate invocation;
// retry policy belongs to the caller, not the adapter.
type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (Completion, error)
}

// ProviderFactory creates a Client for a given model name within a provider.
type ProviderFactory func(modelName string) (Client, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]ProviderFactory{}
)

// RegisterProvider registers a factory function for a named provider.
// Call this from init() in provider packages.
func RegisterProvider(name string, factory ProviderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// NewClient constructs a Client for the given provider and model name.
func NewClient(provider, modelName string) (Client, error) {
	registryMu.RLock()
	factory, ok := registry[provider]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no provider registered for %q — did you import the provider package?", provider)
	}
	return factory(modelName)
}
