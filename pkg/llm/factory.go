package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/config"
	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/retry"
)

// ClientFactory builds one recording client per agent from the LLM config.
// All clients it creates share a circuit breaker.
type ClientFactory struct {
	cfg     *config.LLMConfig
	writer  InteractionLogWriter
	breaker *CircuitBreaker
	logger  *zap.Logger
}

// NewClientFactory creates a new factory.
func NewClientFactory(cfg *config.LLMConfig, writer InteractionLogWriter, logger *zap.Logger) *ClientFactory {
	return &ClientFactory{
		cfg:     cfg,
		writer:  writer,
		breaker: NewCircuitBreaker(DefaultCircuitBreakerConfig()),
		logger:  logger,
	}
}

// ModelFor returns the configured model for an agent.
func (f *ClientFactory) ModelFor(agent string) (string, error) {
	switch agent {
	case models.AgentTableSelector:
		return f.cfg.SelectorModel, nil
	case models.AgentQueryGenerator:
		return f.cfg.GeneratorModel, nil
	case models.AgentResultSummarizer:
		return f.cfg.SummarizerModel, nil
	}
	return "", fmt.Errorf("unknown agent %q", agent)
}

// ForAgent returns a RecordingClient for the agent's model on the configured provider.
func (f *ClientFactory) ForAgent(agent string) (*RecordingClient, error) {
	model, err := f.ModelFor(agent)
	if err != nil {
		return nil, err
	}

	clientCfg := &Config{
		Endpoint:  f.cfg.BaseURL,
		Model:     model,
		APIKey:    f.cfg.APIKey(),
		MaxTokens: f.cfg.MaxTokens,
		JSONMode:  true,
	}

	var inner LLMClient
	switch f.cfg.Provider {
	case config.ProviderAnthropic:
		inner, err = NewAnthropicClient(clientCfg, f.logger)
	case config.ProviderOpenAI:
		inner, err = NewClient(clientCfg, f.logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", f.cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client for %s: %w", f.cfg.Provider, agent, err)
	}

	return NewRecordingClient(inner, f.writer, RecordingConfig{
		Agent:   agent,
		Retry:   retry.DefaultConfig().WithMaxRetries(f.cfg.MaxRetries),
		Timeout: f.cfg.Timeout(),
		Breaker: f.breaker,
	}, f.logger), nil
}
