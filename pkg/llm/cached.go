package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/temporalmesh/graphiti/pkg/cache"
)

// CachedClient wraps a Client, memoizing completions by the exact message
// sequence so repeated extraction prompts over the same episode content skip
// the round trip entirely.
type CachedClient struct {
	client Client
	cache  cache.Cache
	model  string
}

// NewCachedClient wraps client, memoizing completions in c under keys scoped to model.
func NewCachedClient(client Client, c cache.Cache, model string) *CachedClient {
	return &CachedClient{client: client, cache: c, model: model}
}

// Chat implements Client, serving from cache when the exact message sequence
// has been seen before.
func (c *CachedClient) Chat(ctx context.Context, messages []Message) (*Response, error) {
	key, err := c.cacheKey("chat", messages, nil)
	if err != nil {
		return c.client.Chat(ctx, messages)
	}

	if cached, err := c.cache.Get(key); err == nil {
		var resp Response
		if err := json.Unmarshal(cached, &resp); err == nil {
			return &resp, nil
		}
	}

	resp, err := c.client.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(resp); err == nil {
		_ = c.cache.Set(key, payload, cache.DefaultTTL)
	}

	return resp, nil
}

// ChatWithStructuredOutput implements Client, serving from cache when the
// exact message sequence and schema have been seen before.
func (c *CachedClient) ChatWithStructuredOutput(ctx context.Context, messages []Message, schema any) (json.RawMessage, error) {
	key, err := c.cacheKey("structured", messages, schema)
	if err != nil {
		return c.client.ChatWithStructuredOutput(ctx, messages, schema)
	}

	if cached, err := c.cache.Get(key); err == nil {
		return json.RawMessage(cached), nil
	}

	result, err := c.client.ChatWithStructuredOutput(ctx, messages, schema)
	if err != nil {
		return nil, fmt.Errorf("chat with structured output: %w", err)
	}

	_ = c.cache.Set(key, []byte(result), cache.DefaultTTL)

	return result, nil
}

// Close implements Client.
func (c *CachedClient) Close() error {
	return c.client.Close()
}

func (c *CachedClient) cacheKey(kind string, messages []Message, schema any) (string, error) {
	payload, err := json.Marshal(struct {
		Messages []Message
		Schema   any
	}{messages, schema})
	if err != nil {
		return "", err
	}
	return cache.GenerateCacheKey(kind, c.model, string(payload)), nil
}
