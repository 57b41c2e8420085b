package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ydh4481/llm-ddp/pkg/metrics"
	"github.com/ydh4481/llm-ddp/pkg/models"
	"github.com/ydh4481/llm-ddp/pkg/retry"
)

// RecordingConfig controls how RecordingClient calls the inner client.
type RecordingConfig struct {
	// Agent is stored on every log entry (see models.Agent* constants).
	Agent string
	// Retry is applied to transient provider errors. nil means retry.DefaultConfig().
	Retry *retry.Config
	// Timeout bounds each attempt. Zero leaves attempts bounded only by ctx.
	Timeout time.Duration
	// Breaker is optional and usually shared across agents of one provider.
	Breaker *CircuitBreaker
}

// RecordingClient wraps an LLMClient with retries and writes every completed
// call to the interaction log. It is the only writer of that log, and the
// entry id it returns in LogID is the session id handed to callers.
type RecordingClient struct {
	inner  LLMClient
	writer InteractionLogWriter
	cfg    RecordingConfig
	logger *zap.Logger
}

// NewRecordingClient creates a new recording wrapper around an LLMClient.
func NewRecordingClient(inner LLMClient, writer InteractionLogWriter, cfg RecordingConfig, logger *zap.Logger) *RecordingClient {
	if cfg.Retry == nil {
		cfg.Retry = retry.DefaultConfig()
	}
	return &RecordingClient{
		inner:  inner,
		writer: writer,
		cfg:    cfg,
		logger: logger.Named("llm-recorder").With(zap.String("agent", cfg.Agent)),
	}
}

// GenerateResponse calls the inner client, retrying transient failures, and
// persists the reply before returning it. A reply that cannot be logged is
// returned as an error because it could never be resolved as a session.
func (c *RecordingClient) GenerateResponse(
	ctx context.Context,
	prompt string,
	systemMessage string,
	temperature float64,
) (*GenerateResponseResult, error) {
	if c.cfg.Breaker != nil {
		if err := c.cfg.Breaker.Allow(); err != nil {
			metrics.ObserveLLMCall(c.cfg.Agent, c.inner.GetModel(), string(ErrorTypeCircuitOpen), 0, 0, 0)
			return nil, NewError(ErrorTypeCircuitOpen, "provider unavailable", false, err).
				WithContext(c.inner.GetModel(), c.inner.GetEndpoint())
		}
	}

	retryCfg := *c.cfg.Retry
	retryCfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		metrics.IncrementLLMRetry(c.cfg.Agent)
		c.logger.Warn("Retrying LLM call",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	start := time.Now()
	result, err := retry.DoIfRetryableWithResult(ctx, &retryCfg, func() (*GenerateResponseResult, error) {
		attemptCtx := ctx
		if c.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
			defer cancel()
		}
		return c.inner.GenerateResponse(attemptCtx, prompt, systemMessage, temperature)
	})
	elapsed := time.Since(start)

	if err != nil {
		if c.cfg.Breaker != nil && !errors.Is(err, context.Canceled) {
			c.cfg.Breaker.RecordFailure()
		}
		metrics.ObserveLLMCall(c.cfg.Agent, c.inner.GetModel(), string(GetErrorType(err)), 0, 0, elapsed)
		return nil, err
	}
	if c.cfg.Breaker != nil {
		c.cfg.Breaker.RecordSuccess()
	}

	entry := &models.LLMLog{
		ID:               result.ID,
		Question:         QuestionFromContext(ctx),
		ResponseContent:  result.Content,
		ModelName:        result.Model,
		PromptTokens:     result.PromptTokens,
		CompletionTokens: result.CompletionTokens,
		TotalTokens:      result.TotalTokens,
		Agent:            c.cfg.Agent,
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ModelName == "" {
		entry.ModelName = c.inner.GetModel()
	}

	metrics.ObserveLLMCall(c.cfg.Agent, entry.ModelName, "success", result.PromptTokens, result.CompletionTokens, elapsed)

	if err := c.writer.Create(ctx, entry); err != nil {
		c.logger.Error("Failed to record LLM interaction",
			zap.String("log_id", entry.ID),
			zap.Error(err))
		return nil, fmt.Errorf("record interaction: %w", err)
	}

	c.logger.Debug("Recorded LLM interaction",
		zap.String("log_id", entry.ID),
		zap.Int("total_tokens", entry.TotalTokens),
		zap.Duration("elapsed", elapsed))

	out := *result
	out.LogID = entry.ID
	return &out, nil
}

// GetModel returns the inner client's model.
func (c *RecordingClient) GetModel() string {
	return c.inner.GetModel()
}

// GetEndpoint returns the inner client's endpoint.
func (c *RecordingClient) GetEndpoint() string {
	return c.inner.GetEndpoint()
}
