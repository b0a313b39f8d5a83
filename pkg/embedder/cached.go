package embedder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/temporalmesh/graphiti/pkg/cache"
)

// CachedClient wraps a Client, memoizing embeddings by text and model so
// repeated extraction/search calls over the same content skip the round trip.
type CachedClient struct {
	client Client
	cache  cache.Cache
	model  string
}

// NewCachedClient wraps client, memoizing embeddings in c under keys scoped to model.
func NewCachedClient(client Client, c cache.Cache, model string) *CachedClient {
	return &CachedClient{client: client, cache: c, model: model}
}

// Embed implements Client, looking up each text individually so a partial
// cache hit still only embeds the misses.
func (c *CachedClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missTexts []string
	var missIndices []int

	for i, text := range texts {
		key := c.cacheKey(text)
		if cached, err := c.cache.Get(key); err == nil {
			var embedding []float32
			if err := json.Unmarshal(cached, &embedding); err == nil {
				results[i] = embedding
				continue
			}
		}
		missTexts = append(missTexts, text)
		missIndices = append(missIndices, i)
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	embedded, err := c.client.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	for i, embedding := range embedded {
		idx := missIndices[i]
		results[idx] = embedding
		if payload, err := json.Marshal(embedding); err == nil {
			_ = c.cache.Set(c.cacheKey(missTexts[i]), payload, cache.DefaultTTL)
		}
	}

	return results, nil
}

// EmbedSingle implements Client, serving from cache when available.
func (c *CachedClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)
	if cached, err := c.cache.Get(key); err == nil {
		var embedding []float32
		if err := json.Unmarshal(cached, &embedding); err == nil {
			return embedding, nil
		}
	}

	embedding, err := c.client.EmbedSingle(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed single: %w", err)
	}

	if payload, err := json.Marshal(embedding); err == nil {
		_ = c.cache.Set(key, payload, cache.DefaultTTL)
	}

	return embedding, nil
}

// Dimensions implements Client.
func (c *CachedClient) Dimensions() int {
	return c.client.Dimensions()
}

// Close implements Client.
func (c *CachedClient) Close() error {
	return c.client.Close()
}

func (c *CachedClient) cacheKey(text string) string {
	return cache.GenerateCacheKey("embed", c.model, text)
}
