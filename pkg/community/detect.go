package community

import (
	"context"
	"fmt"
	"time"

	"github.com/temporalmesh/graphiti/pkg/types"
)

// Algorithm selects which clustering algorithm DetectCommunities runs.
type Algorithm string

const (
	AlgorithmLabelPropagation    Algorithm = "label_propagation"
	AlgorithmLouvain             Algorithm = "louvain"
	AlgorithmConnectedComponents Algorithm = "connected_components"
)

// DetectCommunities clusters groupID's entity graph with algorithm,
// persisting one community node (and HAS_MEMBER edges to its members) per
// cluster discovered, and returns what it created.
func (b *Builder) DetectCommunities(ctx context.Context, groupID string, algorithm Algorithm) (*UpdateCommunityResult, error) {
	nodes, err := b.getEntityNodesByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entity nodes: %w", err)
	}
	if len(nodes) == 0 {
		return &UpdateCommunityResult{}, nil
	}

	projection, err := b.buildProjection(ctx, nodes, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to build neighbor projection: %w", err)
	}

	var clusters [][]string
	switch algorithm {
	case AlgorithmLouvain:
		clusters = b.louvain(projection)
	case AlgorithmConnectedComponents:
		clusters = b.connectedComponents(projection)
	case AlgorithmLabelPropagation, "":
		clusters = b.labelPropagation(projection)
	default:
		return nil, fmt.Errorf("unknown community detection algorithm %q", algorithm)
	}

	nodesByID := make(map[string]*types.Node, len(nodes))
	for _, n := range nodes {
		nodesByID[n.ID] = n
	}

	result := &UpdateCommunityResult{}
	for _, cluster := range clusters {
		communityNode, edges, err := b.persistCommunity(ctx, groupID, cluster, nodesByID)
		if err != nil {
			return nil, err
		}
		result.CommunityNodes = append(result.CommunityNodes, communityNode)
		result.CommunityEdges = append(result.CommunityEdges, edges...)
	}

	return result, nil
}

// BuildCommunities runs label propagation community detection across every
// given group and persists the result the same way DetectCommunities does.
// It is the batch counterpart to UpdateCommunity's per-entity incremental path.
func (b *Builder) BuildCommunities(ctx context.Context, groupIDs []string) (*UpdateCommunityResult, error) {
	combined := &UpdateCommunityResult{}
	for _, groupID := range groupIDs {
		result, err := b.DetectCommunities(ctx, groupID, AlgorithmLabelPropagation)
		if err != nil {
			return nil, fmt.Errorf("failed to build communities for group %s: %w", groupID, err)
		}
		combined.CommunityNodes = append(combined.CommunityNodes, result.CommunityNodes...)
		combined.CommunityEdges = append(combined.CommunityEdges, result.CommunityEdges...)
	}
	return combined, nil
}

// persistCommunity folds a cluster's member summaries into one community
// node and links every member to it with a HAS_MEMBER edge.
func (b *Builder) persistCommunity(ctx context.Context, groupID string, clusterUUIDs []string, nodesByID map[string]*types.Node) (*types.Node, []*types.Edge, error) {
	var summary string
	for _, id := range clusterUUIDs {
		member, ok := nodesByID[id]
		if !ok || member.Summary == "" {
			continue
		}
		var err error
		summary, err = b.summarizePair(ctx, summary, member.Summary)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to summarize cluster: %w", err)
		}
	}

	name, err := b.generateCommunityName(ctx, summary)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate community name: %w", err)
	}

	now := time.Now().UTC()
	communityNode := &types.Node{
		ID:        generateUUID(),
		GroupID:   groupID,
		Name:      name,
		Type:      types.CommunityNodeType,
		Summary:   summary,
		Level:     0,
		CreatedAt: now,
		UpdatedAt: now,
		ValidAt:   now,
	}

	if err := b.generateCommunityEmbedding(ctx, communityNode); err != nil {
		return nil, nil, fmt.Errorf("failed to generate community embedding: %w", err)
	}

	if err := b.driver.UpsertNode(ctx, communityNode); err != nil {
		return nil, nil, fmt.Errorf("failed to save community node: %w", err)
	}

	edges := make([]*types.Edge, 0, len(clusterUUIDs))
	for _, entityID := range clusterUUIDs {
		edge := types.NewEntityEdge(generateUUID(), communityNode.ID, entityID, groupID, "HAS_MEMBER", types.CommunityEdgeType)
		edge.SourceIDs = []string{communityNode.ID}
		edge.Metadata = make(map[string]interface{})

		if err := b.driver.UpsertEdge(ctx, edge); err != nil {
			return nil, nil, fmt.Errorf("failed to save community edge: %w", err)
		}
		edges = append(edges, edge)
	}

	return communityNode, edges, nil
}
