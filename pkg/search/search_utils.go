package search

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/temporalmesh/graphiti/pkg/driver"
	"github.com/temporalmesh/graphiti/pkg/types"
)

// Constants for search operations
const (
	RelevantSchemaLimit = 10
	DefaultMinScore     = 0.6
	DefaultMMRLambda    = 0.5
	MaxSearchDepth      = 3
	MaxQueryLength      = 32
	DefaultRankConstant = 60
)

// SearchUtilities provides utility functions for graph search operations,
// mirroring the free Searcher but callable without constructing one.
type SearchUtilities struct {
	driver driver.GraphDriver
}

// NewSearchUtilities creates a new SearchUtilities instance
func NewSearchUtilities(d driver.GraphDriver) *SearchUtilities {
	return &SearchUtilities{driver: d}
}

// CalculateCosineSimilarity calculates cosine similarity between two vectors
func CalculateCosineSimilarity(vector1, vector2 []float32) float64 {
	if len(vector1) != len(vector2) {
		return 0.0
	}

	var dotProduct, norm1, norm2 float64
	for i := range vector1 {
		dotProduct += float64(vector1[i]) * float64(vector2[i])
		norm1 += float64(vector1[i]) * float64(vector1[i])
		norm2 += float64(vector2[i]) * float64(vector2[i])
	}

	norm1 = math.Sqrt(norm1)
	norm2 = math.Sqrt(norm2)
	if norm1 == 0 || norm2 == 0 {
		return 0.0
	}

	return dotProduct / (norm1 * norm2)
}

// FulltextQuery constructs a fulltext search query with group ID filtering
func FulltextQuery(query string, groupIDs []string) string {
	if strings.TrimSpace(query) == "" {
		return ""
	}
	if len(strings.Fields(query))+len(groupIDs) > MaxQueryLength {
		return ""
	}

	sanitizedQuery := sanitizeQuery(query)

	if len(groupIDs) > 0 {
		groupFilter := ""
		for i, groupID := range groupIDs {
			if i > 0 {
				groupFilter += " OR "
			}
			groupFilter += fmt.Sprintf(`group_id:"%s"`, groupID)
		}
		return fmt.Sprintf("(%s) AND (%s)", groupFilter, sanitizedQuery)
	}

	return sanitizedQuery
}

// sanitizeQuery performs basic Lucene query sanitization.
func sanitizeQuery(query string) string {
	replacer := strings.NewReplacer(
		"+", "\\+",
		"-", "\\-",
		"&&", "\\&&",
		"||", "\\||",
		"!", "\\!",
		"(", "\\(",
		")", "\\)",
		"{", "\\{",
		"}", "\\}",
		"[", "\\[",
		"]", "\\]",
		"^", "\\^",
		"~", "\\~",
		"*", "\\*",
		"?", "\\?",
		":", "\\:",
		"\"", "\\\"",
	)
	return replacer.Replace(query)
}

// NodeFulltextSearch performs BM25/fulltext search on nodes.
func (su *SearchUtilities) NodeFulltextSearch(ctx context.Context, query string, searchFilter *SearchFilters, groupIDs []string, limit int) ([]*types.Node, error) {
	if limit <= 0 {
		limit = RelevantSchemaLimit
	}

	fulltextQuery := FulltextQuery(query, groupIDs)
	if fulltextQuery == "" {
		return []*types.Node{}, nil
	}

	options := &driver.SearchOptions{
		Limit:       limit,
		UseFullText: true,
	}
	if searchFilter != nil {
		options.NodeTypes = searchFilter.NodeTypes
		options.TimeRange = searchFilter.TimeRange
	}

	var targetGroupID string
	if len(groupIDs) > 0 {
		targetGroupID = groupIDs[0]
	}

	return su.driver.SearchNodes(ctx, fulltextQuery, targetGroupID, options)
}

// NodeSimilaritySearch performs vector similarity search on nodes.
func (su *SearchUtilities) NodeSimilaritySearch(ctx context.Context, searchVector []float32, searchFilter *SearchFilters, groupIDs []string, limit int, minScore float64) ([]*types.Node, error) {
	if limit <= 0 {
		limit = RelevantSchemaLimit
	}
	if minScore == 0 {
		minScore = DefaultMinScore
	}

	options := &driver.VectorSearchOptions{
		Limit:    limit,
		MinScore: minScore,
	}
	if searchFilter != nil {
		options.NodeTypes = searchFilter.NodeTypes
		options.TimeRange = searchFilter.TimeRange
	}

	var targetGroupID string
	if len(groupIDs) > 0 {
		targetGroupID = groupIDs[0]
	}

	return su.driver.SearchNodesByVector(ctx, searchVector, targetGroupID, options)
}

// EdgeFulltextSearch performs BM25/fulltext search on edges.
func (su *SearchUtilities) EdgeFulltextSearch(ctx context.Context, query string, searchFilter *SearchFilters, groupIDs []string, limit int) ([]*types.Edge, error) {
	if limit <= 0 {
		limit = RelevantSchemaLimit
	}

	fulltextQuery := FulltextQuery(query, groupIDs)
	if fulltextQuery == "" {
		return []*types.Edge{}, nil
	}

	options := &driver.SearchOptions{
		Limit:       limit,
		UseFullText: true,
	}
	if searchFilter != nil {
		options.EdgeTypes = searchFilter.EdgeTypes
		options.TimeRange = searchFilter.TimeRange
	}

	var targetGroupID string
	if len(groupIDs) > 0 {
		targetGroupID = groupIDs[0]
	}

	return su.driver.SearchEdges(ctx, fulltextQuery, targetGroupID, options)
}

// EdgeSimilaritySearch performs vector similarity search on edges.
func (su *SearchUtilities) EdgeSimilaritySearch(ctx context.Context, searchVector []float32, sourceNodeID, targetNodeID string, searchFilter *SearchFilters, groupIDs []string, limit int, minScore float64) ([]*types.Edge, error) {
	if limit <= 0 {
		limit = RelevantSchemaLimit
	}
	if minScore == 0 {
		minScore = DefaultMinScore
	}

	options := &driver.VectorSearchOptions{
		Limit:    limit,
		MinScore: minScore,
	}
	if searchFilter != nil {
		options.EdgeTypes = searchFilter.EdgeTypes
		options.TimeRange = searchFilter.TimeRange
	}

	var targetGroupID string
	if len(groupIDs) > 0 {
		targetGroupID = groupIDs[0]
	}

	return su.driver.SearchEdgesByVector(ctx, searchVector, targetGroupID, options)
}

// HybridNodeSearch performs hybrid search combining fulltext and vector similarity, fused with RRF.
func (su *SearchUtilities) HybridNodeSearch(ctx context.Context, queries []string, embeddings [][]float32, searchFilter *SearchFilters, groupIDs []string, limit int) ([]*types.Node, error) {
	if limit <= 0 {
		limit = RelevantSchemaLimit
	}

	var allResults [][]*types.Node

	for _, query := range queries {
		nodes, err := su.NodeFulltextSearch(ctx, query, searchFilter, groupIDs, limit*2)
		if err != nil {
			return nil, fmt.Errorf("fulltext search failed: %w", err)
		}
		allResults = append(allResults, nodes)
	}

	for _, embedding := range embeddings {
		nodes, err := su.NodeSimilaritySearch(ctx, embedding, searchFilter, groupIDs, limit*2, DefaultMinScore)
		if err != nil {
			return nil, fmt.Errorf("similarity search failed: %w", err)
		}
		allResults = append(allResults, nodes)
	}

	nodeIDMap := make(map[string]*types.Node)
	var resultIDs [][]string
	for _, result := range allResults {
		var ids []string
		for _, node := range result {
			nodeIDMap[node.ID] = node
			ids = append(ids, node.ID)
		}
		resultIDs = append(resultIDs, ids)
	}

	rankedIDs, _ := RRF(resultIDs, DefaultRankConstant, 0)

	var relevantNodes []*types.Node
	for _, id := range rankedIDs {
		if node, exists := nodeIDMap[id]; exists {
			relevantNodes = append(relevantNodes, node)
			if len(relevantNodes) >= limit {
				break
			}
		}
	}

	return relevantNodes, nil
}

// deduplicateNodes removes duplicate nodes based on ID.
func (su *SearchUtilities) deduplicateNodes(nodes []*types.Node) []*types.Node {
	nodeMap := make(map[string]*types.Node)
	for _, node := range nodes {
		nodeMap[node.ID] = node
	}
	uniqueNodes := make([]*types.Node, 0, len(nodeMap))
	for _, node := range nodeMap {
		uniqueNodes = append(uniqueNodes, node)
	}
	return uniqueNodes
}

// deduplicateEdges removes duplicate edges based on ID.
func (su *SearchUtilities) deduplicateEdges(edges []*types.Edge) []*types.Edge {
	edgeMap := make(map[string]*types.Edge)
	for _, edge := range edges {
		edgeMap[edge.ID] = edge
	}
	uniqueEdges := make([]*types.Edge, 0, len(edgeMap))
	for _, edge := range edgeMap {
		uniqueEdges = append(uniqueEdges, edge)
	}
	return uniqueEdges
}

// toFloat32Slice coerces a loosely-typed value (as decoded from driver metadata) to []float32.
func toFloat32Slice(v interface{}) []float32 {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case []float32:
		return val
	case []float64:
		result := make([]float32, len(val))
		for i, f := range val {
			result[i] = float32(f)
		}
		return result
	case []interface{}:
		result := make([]float32, 0, len(val))
		for _, item := range val {
			switch v := item.(type) {
			case float64:
				result = append(result, float32(v))
			case float32:
				result = append(result, v)
			case string:
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					result = append(result, float32(f))
				}
			}
		}
		return result
	}
	return nil
}
