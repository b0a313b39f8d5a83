package search

import (
	"context"

	"github.com/temporalmesh/graphiti/pkg/driver"
	"github.com/temporalmesh/graphiti/pkg/types"
)

// EpisodeSearchOptions holds options for episode search.
type EpisodeSearchOptions struct {
	Limit     int
	GroupIDs  []string
	TimeRange *types.TimeRange
}

// CommunitySearchOptions holds options for community search.
type CommunitySearchOptions struct {
	Limit     int
	GroupIDs  []string
	MinScore  float64
	MMRLambda float64
}

// EpisodeFulltextSearch performs fulltext search restricted to episodic nodes.
func (su *SearchUtilities) EpisodeFulltextSearch(ctx context.Context, query string, options *EpisodeSearchOptions) ([]*types.Node, error) {
	if options == nil {
		options = &EpisodeSearchOptions{Limit: RelevantSchemaLimit}
	}
	if options.Limit <= 0 {
		options.Limit = RelevantSchemaLimit
	}

	fulltextQuery := FulltextQuery(query, options.GroupIDs)
	if fulltextQuery == "" {
		return []*types.Node{}, nil
	}

	searchOptions := &driver.SearchOptions{
		Limit:       options.Limit,
		UseFullText: true,
		NodeTypes:   []types.NodeType{types.EpisodicNodeType},
		TimeRange:   options.TimeRange,
	}

	var targetGroupID string
	if len(options.GroupIDs) > 0 {
		targetGroupID = options.GroupIDs[0]
	}

	return su.driver.SearchNodes(ctx, fulltextQuery, targetGroupID, searchOptions)
}

// CommunityFulltextSearch performs fulltext search restricted to community nodes.
func (su *SearchUtilities) CommunityFulltextSearch(ctx context.Context, query string, options *CommunitySearchOptions) ([]*types.Node, error) {
	if options == nil {
		options = &CommunitySearchOptions{Limit: RelevantSchemaLimit, MinScore: DefaultMinScore}
	}
	if options.Limit <= 0 {
		options.Limit = RelevantSchemaLimit
	}

	fulltextQuery := FulltextQuery(query, options.GroupIDs)
	if fulltextQuery == "" {
		return []*types.Node{}, nil
	}

	searchOptions := &driver.SearchOptions{
		Limit:       options.Limit,
		UseFullText: true,
		NodeTypes:   []types.NodeType{types.CommunityNodeType},
	}

	var targetGroupID string
	if len(options.GroupIDs) > 0 {
		targetGroupID = options.GroupIDs[0]
	}

	return su.driver.SearchNodes(ctx, fulltextQuery, targetGroupID, searchOptions)
}

// CommunitySimilaritySearch performs vector similarity search restricted to community nodes.
func (su *SearchUtilities) CommunitySimilaritySearch(ctx context.Context, searchVector []float32, options *CommunitySearchOptions) ([]*types.Node, error) {
	if options == nil {
		options = &CommunitySearchOptions{Limit: RelevantSchemaLimit, MinScore: DefaultMinScore}
	}
	if options.Limit <= 0 {
		options.Limit = RelevantSchemaLimit
	}
	if options.MinScore == 0 {
		options.MinScore = DefaultMinScore
	}

	searchOptions := &driver.VectorSearchOptions{
		Limit:     options.Limit,
		MinScore:  options.MinScore,
		NodeTypes: []types.NodeType{types.CommunityNodeType},
	}

	var targetGroupID string
	if len(options.GroupIDs) > 0 {
		targetGroupID = options.GroupIDs[0]
	}

	return su.driver.SearchNodesByVector(ctx, searchVector, targetGroupID, searchOptions)
}

// MultiModalSearchResult aggregates results from every node/edge/episode/community
// search performed by MultiModalSearch.
type MultiModalSearchResult struct {
	Nodes        []*types.Node
	Edges        []*types.Edge
	Episodes     []*types.Node
	Communities  []*types.Node
	NodeScores   []float64
	EdgeScores   []float64
	TotalResults int
}

// MultiModalSearch runs fulltext and (when a vector is supplied) similarity search
// across entities, edges, episodes and communities, deduplicating each result set.
func (su *SearchUtilities) MultiModalSearch(ctx context.Context, query string, searchVector []float32, groupIDs []string, limit int) (*MultiModalSearchResult, error) {
	if limit <= 0 {
		limit = RelevantSchemaLimit
	}

	result := &MultiModalSearchResult{
		Nodes:       []*types.Node{},
		Edges:       []*types.Edge{},
		Episodes:    []*types.Node{},
		Communities: []*types.Node{},
		NodeScores:  []float64{},
		EdgeScores:  []float64{},
	}

	if query != "" {
		if nodes, err := su.NodeFulltextSearch(ctx, query, &SearchFilters{NodeTypes: []types.NodeType{types.EntityNodeType}}, groupIDs, limit); err == nil {
			result.Nodes = append(result.Nodes, nodes...)
		}
	}
	if len(searchVector) > 0 {
		if nodes, err := su.NodeSimilaritySearch(ctx, searchVector, &SearchFilters{NodeTypes: []types.NodeType{types.EntityNodeType}}, groupIDs, limit, DefaultMinScore); err == nil {
			result.Nodes = append(result.Nodes, nodes...)
		}
	}

	if query != "" {
		if edges, err := su.EdgeFulltextSearch(ctx, query, &SearchFilters{}, groupIDs, limit); err == nil {
			result.Edges = append(result.Edges, edges...)
		}
	}
	if len(searchVector) > 0 {
		if edges, err := su.EdgeSimilaritySearch(ctx, searchVector, "", "", &SearchFilters{}, groupIDs, limit, DefaultMinScore); err == nil {
			result.Edges = append(result.Edges, edges...)
		}
	}

	if query != "" {
		if episodes, err := su.EpisodeFulltextSearch(ctx, query, &EpisodeSearchOptions{Limit: limit, GroupIDs: groupIDs}); err == nil {
			result.Episodes = append(result.Episodes, episodes...)
		}
	}

	if query != "" {
		if communities, err := su.CommunityFulltextSearch(ctx, query, &CommunitySearchOptions{Limit: limit, GroupIDs: groupIDs}); err == nil {
			result.Communities = append(result.Communities, communities...)
		}
	}
	if len(searchVector) > 0 {
		if communities, err := su.CommunitySimilaritySearch(ctx, searchVector, &CommunitySearchOptions{Limit: limit, GroupIDs: groupIDs}); err == nil {
			result.Communities = append(result.Communities, communities...)
		}
	}

	result.Nodes = su.deduplicateNodes(result.Nodes)
	result.Edges = su.deduplicateEdges(result.Edges)
	result.Episodes = su.deduplicateNodes(result.Episodes)
	result.Communities = su.deduplicateNodes(result.Communities)

	result.TotalResults = len(result.Nodes) + len(result.Edges) + len(result.Episodes) + len(result.Communities)

	result.NodeScores = make([]float64, len(result.Nodes))
	result.EdgeScores = make([]float64, len(result.Edges))
	for i := range result.NodeScores {
		result.NodeScores[i] = 1.0
	}
	for i := range result.EdgeScores {
		result.EdgeScores[i] = 1.0
	}

	return result, nil
}
