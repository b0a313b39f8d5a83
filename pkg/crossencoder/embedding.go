package crossencoder

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/temporalmesh/graphiti/pkg/embedder"
)

// EmbeddingConfig holds configuration for the embedding-based reranker.
type EmbeddingConfig struct {
	Config
}

// EmbeddingRerankerClient ranks passages by cosine similarity between the
// query embedding and each passage's embedding, avoiding a second LLM round trip.
type EmbeddingRerankerClient struct {
	embedder embedder.Client
	config   EmbeddingConfig
}

// NewEmbeddingRerankerClient creates a new embedding-based reranker client.
func NewEmbeddingRerankerClient(embedderClient embedder.Client, config EmbeddingConfig) *EmbeddingRerankerClient {
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}
	return &EmbeddingRerankerClient{embedder: embedderClient, config: config}
}

// Rank embeds the query and every passage, then ranks by cosine similarity.
func (c *EmbeddingRerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	queryEmbedding, err := c.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	passageEmbeddings, err := c.embedder.Embed(ctx, passages)
	if err != nil {
		return nil, fmt.Errorf("failed to embed passages: %w", err)
	}

	results := make([]RankedPassage, len(passages))
	for i, passage := range passages {
		var score float64
		if i < len(passageEmbeddings) {
			score = cosineSimilarity(queryEmbedding, passageEmbeddings[i])
		}
		results[i] = RankedPassage{Passage: passage, Score: score}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)
	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (normA * normB)
}

// Close cleans up any resources used by the client.
func (c *EmbeddingRerankerClient) Close() error {
	return nil
}
