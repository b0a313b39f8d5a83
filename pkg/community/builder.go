// Package community detects and maintains community nodes: clusters of
// densely-connected entities summarized into a single higher-level node.
package community

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/temporalmesh/graphiti/pkg/driver"
	"github.com/temporalmesh/graphiti/pkg/embedder"
	"github.com/temporalmesh/graphiti/pkg/llm"
	"github.com/temporalmesh/graphiti/pkg/prompts"
	"github.com/temporalmesh/graphiti/pkg/types"
)

// Builder detects communities over a group's entity graph and keeps
// community nodes/edges up to date as entities are added.
type Builder struct {
	driver   driver.GraphDriver
	llm      llm.Client
	embedder embedder.Client
	prompts  prompts.Library
}

// NewBuilder creates a community Builder.
func NewBuilder(d driver.GraphDriver, llmClient llm.Client, embedderClient embedder.Client) *Builder {
	return &Builder{
		driver:   d,
		llm:      llmClient,
		embedder: embedderClient,
		prompts:  prompts.NewLibrary(),
	}
}

// generateUUID mints a new node/edge identifier.
func generateUUID() string {
	return uuid.New().String()
}

// summarizePair merges two entity/community summaries into one, via the
// same summarize-nodes prompt node_operations.go uses for entity summaries.
func (b *Builder) summarizePair(ctx context.Context, a, b2 string) (string, error) {
	a = strings.TrimSpace(a)
	b2 = strings.TrimSpace(b2)
	if a == "" {
		return b2, nil
	}
	if b2 == "" {
		return a, nil
	}

	messages, err := b.prompts.SummarizeNodes().Summarize().Call(map[string]interface{}{
		"previous_episodes": []string{},
		"episode_content":    "",
		"node":               map[string]interface{}{"summary_a": a, "summary_b": b2},
	})
	if err != nil {
		return "", fmt.Errorf("failed to build summarize prompt: %w", err)
	}

	response, err := b.llm.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to summarize community: %w", err)
	}

	summary := strings.TrimSpace(llm.RemoveThinkTags(response.Content))
	if summary == "" {
		return a + " " + b2, nil
	}
	return summary, nil
}

// generateCommunityName asks the LLM for a short label describing summary.
func (b *Builder) generateCommunityName(ctx context.Context, summary string) (string, error) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "Unnamed Community", nil
	}

	messages := []llm.Message{
		llm.NewSystemMessage("You generate short, descriptive names (at most 6 words) for a cluster of related entities, given a summary of the cluster."),
		llm.NewUserMessage(fmt.Sprintf("<SUMMARY>\n%s\n</SUMMARY>\n\nRespond with only the name, no punctuation or quotes.", summary)),
	}

	response, err := b.llm.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate community name: %w", err)
	}

	name := strings.Trim(strings.TrimSpace(llm.RemoveThinkTags(response.Content)), "\"'.")
	if name == "" {
		name = "Unnamed Community"
	}
	return name, nil
}

// generateCommunityEmbedding embeds a community node's name and summary.
func (b *Builder) generateCommunityEmbedding(ctx context.Context, node *types.Node) error {
	text := node.Name
	if node.Summary != "" {
		text += " " + node.Summary
	}

	embedding, err := b.embedder.EmbedSingle(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed community node: %w", err)
	}

	node.NameEmbedding = embedding
	node.Embedding = embedding
	return nil
}
