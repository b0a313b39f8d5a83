package embedder

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// CircuitBreakerConfig configures the trip/reset behavior of a CircuitBreakerClient.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultCircuitBreakerConfig mirrors the LLM client's defaults: five
// consecutive failures trips the breaker for 30s before probing resumes.
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
// embedding failures so callers fail fast instead of hammering a downed provider.
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

// Embed implements Client, routing the call through the circuit breaker.
func (c *CircuitBreakerClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Embed(ctx, texts)
	})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	return result.([][]float32), nil
}

// EmbedSingle implements Client, routing the call through the circuit breaker.
func (c *CircuitBreakerClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.EmbedSingle(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("embed single: %w", err)
	}
	return result.([]float32), nil
}

// Dimensions implements Client.
func (c *CircuitBreakerClient) Dimensions() int {
	return c.client.Dimensions()
}

// Close implements Client.
func (c *CircuitBreakerClient) Close() error {
	return c.client.Close()
}

// State reports the breaker's current state, exposed for health checks.
func (c *CircuitBreakerClient) State() gobreaker.State {
	return c.breaker.State()
}
