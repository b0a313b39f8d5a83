package crossencoder

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/temporalmesh/graphiti/pkg/llm"
)

// OpenAIRerankerClient implements cross-encoder functionality by asking an LLM
// to classify each passage as relevant or not and using that classification as
// the ranking score (graphiti-core's boolean-classification reranker pattern).
type OpenAIRerankerClient struct {
	llm    llm.Client
	config Config
}

// NewOpenAIRerankerClient creates a new LLM-backed reranker client.
func NewOpenAIRerankerClient(llmClient llm.Client, config Config) *OpenAIRerankerClient {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 5
	}
	return &OpenAIRerankerClient{llm: llmClient, config: config}
}

// Rank scores each passage by asking the LLM whether it answers the query,
// treating "True" responses as fully relevant and "False" as irrelevant.
func (c *OpenAIRerankerClient) Rank(ctx context.Context, query string, passages []string) ([]RankedPassage, error) {
	if len(passages) == 0 {
		return []RankedPassage{}, nil
	}

	results := make([]RankedPassage, len(passages))
	errs := make([]error, len(passages))

	sem := make(chan struct{}, c.config.MaxConcurrency)
	var wg sync.WaitGroup

	for i, passage := range passages {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, passage string) {
			defer wg.Done()
			defer func() { <-sem }()

			score, err := c.classify(ctx, query, passage)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = RankedPassage{Passage: passage, Score: score}
		}(i, passage)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("failed to classify passage relevance: %w", err)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

func (c *OpenAIRerankerClient) classify(ctx context.Context, query, passage string) (float64, error) {
	messages := []llm.Message{
		llm.NewSystemMessage("You judge whether a passage is relevant to a query. Respond with exactly one word: True or False."),
		llm.NewUserMessage(fmt.Sprintf("Query: %s\n\nPassage: %s\n\nIs the passage relevant to the query?", query, passage)),
	}

	resp, err := c.llm.Chat(ctx, messages)
	if err != nil {
		return 0, err
	}

	answer := strings.ToLower(strings.TrimSpace(resp.Content))
	if strings.HasPrefix(answer, "true") {
		return 1.0, nil
	}
	return 0.0, nil
}

// Close cleans up any resources used by the client.
func (c *OpenAIRerankerClient) Close() error {
	return nil
}
