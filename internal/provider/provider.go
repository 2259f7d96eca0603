// Package provider holds the adapters that turn an ordered message history
// into one assistant reply. Each supported provider implements Adapter;
// selection happens through a closed registry keyed by the provider tag
// stored on the conversation.
package provider

import (
	"context"

	"chatcore/internal/fault"
	"chatcore/internal/models"
)

// Adapter is the single capability the core needs from a provider: complete
// a chat turn against a model, given the full history oldest-first and
// ending at the most recent user message. Failures come back as
// *fault.ProviderError; calls honor ctx cancellation.
type Adapter interface {
	Name() string
	Complete(ctx context.Context, model string, history []models.Message) (string, error)
}

// Registry maps provider tags to adapters. The set is fixed at startup;
// there is no runtime type inspection anywhere in dispatch.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

// Lookup resolves a provider tag. An unknown tag is caller input error:
// conversations only ever carry tags that were valid at creation.
func (r *Registry) Lookup(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, &fault.ValidationError{Field: "provider", Reason: "unknown provider " + name}
	}
	return a, nil
}

// Names returns the registered provider tags.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}

func providerErr(name string, kind fault.ProviderKind, err error) error {
	return &fault.ProviderError{Kind: kind, Provider: name, Err: err}
}
