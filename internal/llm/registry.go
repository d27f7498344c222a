// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Provider registry with factory pattern and graceful fallback

package llm

import (
	"context"
	"sync"

	"github.com/phuslu/log"
)

// ProviderFactory creates a provider from config
type ProviderFactory func(config *ProviderConfig) (Provider, error)

// Registry manages provider factories and handles fallback
type Registry struct {
	mu          sync.RWMutex
	factories   map[ProviderType]ProviderFactory
	mockFactory ProviderFactory
	logger      *log.Logger
}

// DefaultRegistry is the global provider registry
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[ProviderType]ProviderFactory),
		logger:    &log.DefaultLogger,
	}
}

// SetMockFactory sets the mock provider factory for fallback
func (r *Registry) SetMockFactory(factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mockFactory = factory
	r.factories[ProviderMock] = factory
}

// Register adds a provider factory to the registry
func (r *Registry) Register(providerType ProviderType, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[providerType] = factory
}

// SetLogger sets the logger used for fallback warnings
func (r *Registry) SetLogger(logger *log.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if logger != nil {
		r.logger = logger
	}
}

// Get creates a provider. An unknown type or a failing constructor yields
// the mock provider. When config.OfflineFallback is set the result is
// wrapped so failing calls are answered by the mock as well.
func (r *Registry) Get(config *ProviderConfig) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if config == nil {
		config = &ProviderConfig{Type: ProviderMock}
	}
	config = config.WithDefaults()

	factory, ok := r.factories[config.Type]
	if !ok {
		r.logger.Warn().Str("provider", string(config.Type)).Msg("unknown provider, using mock")
		return r.getMockProvider(config)
	}

	prov, err := factory(config)
	if err != nil {
		r.logger.Warn().Str("provider", string(config.Type)).Err(err).Msg("failed to create provider, using mock")
		return r.getMockProvider(config)
	}

	if !config.OfflineFallback || config.Type == ProviderMock {
		return prov
	}

	return &FallbackProvider{
		Primary:  prov,
		Fallback: r.getMockProvider(config),
		logger:   r.logger,
	}
}

func (r *Registry) getMockProvider(config *ProviderConfig) Provider {
	if r.mockFactory == nil {
		return &minimalMockProvider{}
	}
	prov, err := r.mockFactory(config)
	if err != nil {
		return &minimalMockProvider{}
	}
	return prov
}

// minimalMockProvider is a fallback when no mock factory is set.
// It echoes the user message back.
type minimalMockProvider struct{}

func (p *minimalMockProvider) Name() string { return "minimal-mock" }

func (p *minimalMockProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	return &CompletionResponse{Content: req.User, Provider: p.Name()}, nil
}

// FallbackProvider wraps a primary provider with mock fallback
type FallbackProvider struct {
	Primary  Provider
	Fallback Provider
	logger   *log.Logger
}

// Name returns the primary provider name
func (p *FallbackProvider) Name() string {
	return p.Primary.Name()
}

// Complete tries primary, falls back to mock on error.
// Cancellation is never masked.
func (p *FallbackProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	resp, err := p.Primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	if p.logger != nil {
		p.logger.Warn().Str("provider", p.Primary.Name()).Err(err).Msg("completion failed, falling back to mock")
	}
	return p.Fallback.Complete(ctx, req)
}
