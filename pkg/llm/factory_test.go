package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ydh4481/llm-ddp/pkg/config"
	"github.com/ydh4481/llm-ddp/pkg/models"
)

func testLLMConfig(provider string) *config.LLMConfig {
	return &config.LLMConfig{
		Provider:        provider,
		OpenAIAPIKey:    "sk-openai",
		AnthropicAPIKey: "sk-ant",
		SelectorModel:   "gpt-4o-mini",
		GeneratorModel:  "gpt-4o",
		SummarizerModel: "gpt-4o",
		MaxRetries:      2,
		TimeoutSeconds:  30,
	}
}

func TestClientFactory_ForAgent(t *testing.T) {
	f := NewClientFactory(testLLMConfig(config.ProviderOpenAI), &MemoryLogWriter{}, zaptest.NewLogger(t))

	selector, err := f.ForAgent(models.AgentTableSelector)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", selector.GetModel())
	assert.Equal(t, DefaultOpenAIEndpoint, selector.GetEndpoint())

	generator, err := f.ForAgent(models.AgentQueryGenerator)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", generator.GetModel())
	assert.Same(t, selector.cfg.Breaker, generator.cfg.Breaker)
	assert.Equal(t, 2, generator.cfg.Retry.MaxRetries)

	_, err = f.ForAgent("planner")
	assert.Error(t, err)
}

func TestClientFactory_Anthropic(t *testing.T) {
	cfg := testLLMConfig(config.ProviderAnthropic)
	cfg.SummarizerModel = "claude-sonnet-4-5"
	f := NewClientFactory(cfg, &MemoryLogWriter{}, zaptest.NewLogger(t))

	c, err := f.ForAgent(models.AgentResultSummarizer)
	require.NoError(t, err)
	_, ok := c.inner.(*AnthropicClient)
	assert.True(t, ok)
	assert.Equal(t, DefaultAnthropicEndpoint, c.GetEndpoint())
}

func TestClientFactory_MissingKey(t *testing.T) {
	cfg := testLLMConfig(config.ProviderOpenAI)
	cfg.OpenAIAPIKey = ""
	f := NewClientFactory(cfg, &MemoryLogWriter{}, zaptest.NewLogger(t))

	_, err := f.ForAgent(models.AgentQueryGenerator)
	assert.ErrorContains(t, err, "api key is required")
}
