package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// CircuitBreakerConfig configures the trip/reset behavior of a CircuitBreakerClient.
type CircuitBreakerConfig struct {
	// Name identifies the breaker in logs and metrics.
	Name string
	// MaxRequests is the number of calls allowed through while half-open.
	MaxRequests uint32
	// Interval is how often the closed-state failure counters reset. Zero disables the reset.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
	// FailureThreshold trips the breaker once this many consecutive requests fail.
	FailureThreshold uint32
}

// DefaultCircuitBreakerConfig returns sane defaults for an LLM provider call:
// five consecutive failures trips the breaker, which reopens for probing after 30s.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// CircuitBreakerClient wraps a Client, tripping open after repeated upstream
// failures so callers fail fast instead of piling retries onto a downed provider.
type CircuitBreakerClient struct {
	client  Client
	breaker *gobreaker.CircuitBreaker
}

// NewCircuitBreakerClient wraps client with a gobreaker circuit breaker configured per cfg.
func NewCircuitBreakerClient(client Client, cfg CircuitBreakerConfig) *CircuitBreakerClient {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	}

	return &CircuitBreakerClient{
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Chat implements Client, routing the call through the circuit breaker.
func (c *CircuitBreakerClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Chat(ctx, messages)
	})
	if err != nil {
		return nil, fmt.Errorf("llm chat: %w", err)
	}
	return result.(*Response), nil
}

// ChatWithStructuredOutput implements Client, routing the call through the circuit breaker.
func (c *CircuitBreakerClient) ChatWithStructuredOutput(ctx context.Context, messages []Message, schema any) (json.RawMessage, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.ChatWithStructuredOutput(ctx, messages, schema)
	})
	if err != nil {
		return nil, fmt.Errorf("llm chat with structured output: %w", err)
	}
	return result.(json.RawMessage), nil
}

// Close implements Client.
func (c *CircuitBreakerClient) Close() error {
	return c.client.Close()
}

// State reports the breaker's current state, exposed for health checks.
func (c *CircuitBreakerClient) State() gobreaker.State {
	return c.breaker.State()
}
