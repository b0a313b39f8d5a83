package maintenance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	"github.com/temporalmesh/graphiti/pkg/driver"
	"github.com/temporalmesh/graphiti/pkg/llm"
	"github.com/temporalmesh/graphiti/pkg/prompts"
	"github.com/temporalmesh/graphiti/pkg/types"
)

// TemporalOperations provides temporal analysis and edge dating operations
type TemporalOperations struct {
	driver  driver.GraphDriver
	llm     llm.Client
	prompts prompts.Library
}

// NewTemporalOperations creates a new TemporalOperations instance
func NewTemporalOperations(graphDriver driver.GraphDriver, llm llm.Client, prompts prompts.Library) *TemporalOperations {
	return &TemporalOperations{
		driver:  graphDriver,
		llm:     llm,
		prompts: prompts,
	}
}

// ExtractEdgeDates extracts temporal information for an edge from episode context
func (to *TemporalOperations) ExtractEdgeDates(ctx context.Context, edge *types.Edge, currentEpisode *types.Node, previousEpisodes []*types.Node) (*time.Time, *time.Time, error) {
	start := time.Now()

	// Prepare previous episodes content
	previousEpisodeContents := make([]string, len(previousEpisodes))
	for i, ep := range previousEpisodes {
		previousEpisodeContents[i] = ep.Summary
	}

	// Prepare context for LLM
	promptContext := map[string]interface{}{
		"edge_fact":           edge.Summary,
		"current_episode":     currentEpisode.Summary,
		"previous_episodes":   previousEpisodeContents,
		"reference_timestamp": currentEpisode.ValidAt.Format(time.RFC3339),
		"ensure_ascii":        true,
	}

	// Extract dates using LLM
	messages, err := to.prompts.ExtractEdgeDates().ExtractDates().Call(promptContext)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create edge dates prompt: %w", err)
	}

	response, err := to.llm.ChatWithStructuredOutput(ctx, messages, &prompts.EdgeDates{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract edge dates: %w", err)
	}

	// Repair JSON before unmarshaling
	repairedResponse, _ := jsonrepair.JSONRepair(string(response))

	// Try to unmarshal - if it's a quoted JSON string, unmarshal twice
	var rawJSON json.RawMessage
	if err := json.Unmarshal([]byte(repairedResponse), &rawJSON); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal repaired response: %w", err)
	}

	var edgeDates prompts.EdgeDates
	if err := json.Unmarshal(rawJSON, &edgeDates); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal edge dates response: %w", err)
	}

	var validAt *time.Time
	var invalidAt *time.Time

	// Parse valid_at date
	if edgeDates.ValidAt != nil && *edgeDates.ValidAt != "" {
		// Strip any surrounding quotes (can happen with double JSON encoding)
		cleanValidAt := strings.Trim(*edgeDates.ValidAt, "\"")
		parsed, err := time.Parse(time.RFC3339, strings.ReplaceAll(cleanValidAt, "Z", "+00:00"))
		if err != nil {
			log.Printf("Warning: failed to parse valid_at date '%s': %v", cleanValidAt, err)
		} else {
			utcTime := parsed.UTC()
			validAt = &utcTime
		}
	}

	// Parse invalid_at date
	if edgeDates.InvalidAt != nil && *edgeDates.InvalidAt != "" {
		// Strip any surrounding quotes (can happen with double JSON encoding)
		cleanInvalidAt := strings.Trim(*edgeDates.InvalidAt, "\"")
		parsed, err := time.Parse(time.RFC3339, strings.ReplaceAll(cleanInvalidAt, "Z", "+00:00"))
		if err != nil {
			log.Printf("Warning: failed to parse invalid_at date '%s': %v", cleanInvalidAt, err)
		} else {
			utcTime := parsed.UTC()
			invalidAt = &utcTime
		}
	}

	log.Printf("Extracted edge dates in %v", time.Since(start))
	return validAt, invalidAt, nil
}

// GetEdgeContradictions identifies edges that contradict a new edge
func (to *TemporalOperations) GetEdgeContradictions(ctx context.Context, newEdge *types.Edge, existingEdges []*types.Edge) ([]*types.Edge, error) {
	if len(existingEdges) == 0 {
		return []*types.Edge{}, nil
	}

	start := time.Now()

	// Prepare context for LLM
	newEdgeContext := map[string]interface{}{
		"fact": newEdge.Summary,
	}

	existingEdgeContext := make([]map[string]interface{}, len(existingEdges))
	for i, edge := range existingEdges {
		existingEdgeContext[i] = map[string]interface{}{
			"id":   i,
			"fact": edge.Summary,
		}
	}

	promptContext := map[string]interface{}{
		"new_edge":       newEdgeContext,
		"existing_edges": existingEdgeContext,
		"ensure_ascii":   true,
	}

	// Use LLM to identify contradictions
	messages, err := to.prompts.InvalidateEdges().Invalidate().Call(promptContext)
	if err != nil {
		return nil, fmt.Errorf("failed to create invalidation prompt: %w", err)
	}

	response, err := to.llm.ChatWithStructuredOutput(ctx, messages, &prompts.InvalidatedEdges{})
	if err != nil {
		return nil, fmt.Errorf("failed to identify contradictions: %w", err)
	}

	// Repair JSON before unmarshaling
	repairedResponse, _ := jsonrepair.JSONRepair(string(response))

	// Try to unmarshal - if it's a quoted JSON string, unmarshal twice
	var rawJSON json.RawMessage
	if err := json.Unmarshal([]byte(repairedResponse), &rawJSON); err != nil {
		return nil, fmt.Errorf("failed to unmarshal repaired response: %w", err)
	}

	var invalidatedEdges prompts.InvalidatedEdges
	if err := json.Unmarshal(rawJSON, &invalidatedEdges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invalidation response: %w", err)
	}

	// Extract contradicted edges
	var contradictedEdges []*types.Edge
	for _, factID := range invalidatedEdges.ContradictedFacts {
		if factID >= 0 && factID < len(existingEdges) {
			contradictedEdges = append(contradictedEdges, existingEdges[factID])
		}
	}

	log.Printf("Found %d contradicted edges in %v", len(contradictedEdges), time.Since(start))
	return contradictedEdges, nil
}

// ExtractAndSaveEdgeDates extracts temporal information for edges and updates them
func (to *TemporalOperations) ExtractAndSaveEdgeDates(ctx context.Context, edges []*types.Edge, currentEpisode *types.Node, previousEpisodes []*types.Node) ([]*types.Edge, error) {
	if len(edges) == 0 {
		return []*types.Edge{}, nil
	}

	log.Printf("Extracting dates for %d edges", len(edges))

	var updatedEdges []*types.Edge

	for _, edge := range edges {
		// Extract dates for this edge
		validAt, invalidAt, err := to.ExtractEdgeDates(ctx, edge, currentEpisode, previousEpisodes)
		if err != nil {
			log.Printf("Warning: failed to extract dates for edge %s: %v", edge.ID, err)
			updatedEdges = append(updatedEdges, edge) // Use original edge if extraction fails
			continue
		}

		// Create updated edge with new temporal information
		updatedEdge := *edge // Copy the edge
		if validAt != nil {
			updatedEdge.ValidAt = *validAt
		}
		if invalidAt != nil {
			updatedEdge.InvalidAt = invalidAt
		}
		updatedEdge.UpdatedAt = time.Now().UTC()

		updatedEdges = append(updatedEdges, &updatedEdge)
	}

	log.Printf("Updated temporal information for %d edges", len(updatedEdges))
	return updatedEdges, nil
}

// ValidateEdgeTemporalConsistency checks if edge temporal information is consistent
func (to *TemporalOperations) ValidateEdgeTemporalConsistency(edge *types.Edge) error {
	// Check if InvalidAt is after ValidAt
	if edge.InvalidAt != nil && edge.InvalidAt.Before(edge.ValidAt) {
		return fmt.Errorf("edge %s has invalid temporal range: InvalidAt (%v) is before ValidAt (%v)",
			edge.ID, edge.InvalidAt, edge.ValidAt)
	}

	// Check if edge is already expired at creation time
	now := time.Now().UTC()
	if edge.InvalidAt != nil && edge.InvalidAt.Before(edge.CreatedAt) {
		log.Printf("Warning: edge %s was created already expired (InvalidAt: %v, CreatedAt: %v)",
			edge.ID, edge.InvalidAt, edge.CreatedAt)
	}

	// Check if ValidAt is in the future relative to creation
	if edge.ValidAt.After(now.Add(24 * time.Hour)) {
		log.Printf("Warning: edge %s has ValidAt significantly in the future (%v)",
			edge.ID, edge.ValidAt)
	}

	return nil
}

// ApplyTemporalInvalidation applies temporal invalidation logic to a set of edges
func (to *TemporalOperations) ApplyTemporalInvalidation(newEdge *types.Edge, candidateEdges []*types.Edge) []*types.Edge {
	if len(candidateEdges) == 0 {
		return []*types.Edge{}
	}

	now := time.Now().UTC()
	var invalidatedEdges []*types.Edge

	for _, candidateEdge := range candidateEdges {
		// Skip edges that are already invalid before the new edge becomes valid
		if candidateEdge.InvalidAt != nil && candidateEdge.InvalidAt.Before(newEdge.ValidAt) {
			continue
		}

		// Skip if new edge is invalid before the candidate becomes valid
		if newEdge.InvalidAt != nil && newEdge.InvalidAt.Before(candidateEdge.ValidAt) {
			continue
		}

		// Invalidate edge if the new edge becomes valid after this one
		if candidateEdge.ValidAt.Before(newEdge.ValidAt) {
			invalidatedEdge := *candidateEdge // Copy the edge
			validTo := newEdge.ValidAt
			invalidatedEdge.InvalidAt = &validTo
			invalidatedEdge.UpdatedAt = now

			invalidatedEdges = append(invalidatedEdges, &invalidatedEdge)
		}
	}

	return invalidatedEdges
}

// GetActiveEdgesAtTime returns edges that were active at a specific time
func (to *TemporalOperations) GetActiveEdgesAtTime(edges []*types.Edge, targetTime time.Time) []*types.Edge {
	var activeEdges []*types.Edge

	for _, edge := range edges {
		// Check if edge was valid at the target time
		if edge.ValidAt.After(targetTime) {
			continue // Edge hadn't started yet
		}

		if edge.InvalidAt != nil && edge.InvalidAt.Before(targetTime) {
			continue // Edge had already ended
		}

		activeEdges = append(activeEdges, edge)
	}

	return activeEdges
}

// GetEdgeLifespan calculates the lifespan of an edge
func (to *TemporalOperations) GetEdgeLifespan(edge *types.Edge) *time.Duration {
	if edge.InvalidAt == nil {
		return nil // Edge is still active
	}

	lifespan := edge.InvalidAt.Sub(edge.ValidAt)
	return &lifespan
}

// GraphConsistencyReport groups the structural and temporal defects
// ValidateGraphConsistency found in a group's graph.
type GraphConsistencyReport struct {
	// OrphanedEdges reference a source or target node that no longer exists.
	OrphanedEdges []*types.Edge
	// SelfLoops connect a node to itself.
	SelfLoops []*types.Edge
	// DuplicateNodeNames maps a normalized entity name to every node UUID
	// sharing it, for names claimed by more than one node.
	DuplicateNodeNames map[string][]string
	// TemporalInconsistencies are edges ValidateEdgeTemporalConsistency
	// rejected, paired with the reason.
	TemporalInconsistencies []EdgeTemporalIssue
}

// EdgeTemporalIssue pairs an edge with the reason its temporal range failed validation.
type EdgeTemporalIssue struct {
	Edge   *types.Edge
	Reason string
}

// IsClean reports whether the scan found no defects at all.
func (r *GraphConsistencyReport) IsClean() bool {
	return len(r.OrphanedEdges) == 0 &&
		len(r.SelfLoops) == 0 &&
		len(r.DuplicateNodeNames) == 0 &&
		len(r.TemporalInconsistencies) == 0
}

// epochRange spans from the zero time to far in the future, used to pull
// every node/edge in a group out of GetNodesInTimeRange/GetEdgesInTimeRange.
var epochRange = struct{ start, end time.Time }{
	start: time.Unix(0, 0).UTC(),
	end:   time.Now().UTC().AddDate(100, 0, 0),
}

// ValidateGraphConsistency scans every node and edge in groupID for
// structural and temporal defects: edges pointing at missing nodes,
// self-loops, entities sharing a name, and edges whose temporal range
// fails ValidateEdgeTemporalConsistency.
func (to *TemporalOperations) ValidateGraphConsistency(ctx context.Context, groupID string) (*GraphConsistencyReport, error) {
	nodes, err := to.driver.GetNodesInTimeRange(ctx, epochRange.start, epochRange.end, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load nodes for group %s: %w", groupID, err)
	}

	edges, err := to.driver.GetEdgesInTimeRange(ctx, epochRange.start, epochRange.end, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load edges for group %s: %w", groupID, err)
	}

	nodeIDs := make(map[string]struct{}, len(nodes))
	for _, node := range nodes {
		nodeIDs[node.ID] = struct{}{}
	}

	report := &GraphConsistencyReport{
		DuplicateNodeNames: make(map[string][]string),
	}

	for _, edge := range edges {
		_, sourceExists := nodeIDs[edge.SourceID]
		_, targetExists := nodeIDs[edge.TargetID]
		if !sourceExists || !targetExists {
			report.OrphanedEdges = append(report.OrphanedEdges, edge)
			continue
		}

		if edge.SourceID == edge.TargetID {
			report.SelfLoops = append(report.SelfLoops, edge)
		}

		if err := to.ValidateEdgeTemporalConsistency(edge); err != nil {
			report.TemporalInconsistencies = append(report.TemporalInconsistencies, EdgeTemporalIssue{
				Edge:   edge,
				Reason: err.Error(),
			})
		}
	}

	namesSeen := make(map[string][]string)
	for _, node := range nodes {
		if node.Type != types.EntityNodeType {
			continue
		}
		normalized := strings.ToLower(strings.TrimSpace(node.Name))
		if normalized == "" {
			continue
		}
		namesSeen[normalized] = append(namesSeen[normalized], node.ID)
	}
	for name, ids := range namesSeen {
		if len(ids) > 1 {
			report.DuplicateNodeNames[name] = ids
		}
	}

	return report, nil
}
