package community

import (
	"context"
	"fmt"
	"time"

	"github.com/temporalmesh/graphiti/pkg/driver"
	"github.com/temporalmesh/graphiti/pkg/types"
)

// DetermineEntityCommunityResult represents the result of determining an entity's community
type DetermineEntityCommunityResult struct {
	Community *types.Node
	IsNew     bool
}

// UpdateCommunityResult represents the result of updating a community
type UpdateCommunityResult struct {
	CommunityNodes []*types.Node
	CommunityEdges []*types.Edge
}

// DetermineEntityCommunity determines which community an entity belongs to
func (b *Builder) DetermineEntityCommunity(ctx context.Context, entity *types.Node) (*DetermineEntityCommunityResult, error) {
	// First check if the entity is already part of a community
	existingCommunity, err := b.getExistingCommunity(ctx, entity.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing community: %w", err)
	}

	if existingCommunity != nil {
		return &DetermineEntityCommunityResult{
			Community: existingCommunity,
			IsNew:     false,
		}, nil
	}

	// Find the most common community among connected entities
	modalCommunity, err := b.findModalCommunity(ctx, entity.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find modal community: %w", err)
	}

	if modalCommunity == nil {
		return &DetermineEntityCommunityResult{
			Community: nil,
			IsNew:     false,
		}, nil
	}

	return &DetermineEntityCommunityResult{
		Community: modalCommunity,
		IsNew:     true,
	}, nil
}

// UpdateCommunity updates a community when a new entity is added
func (b *Builder) UpdateCommunity(ctx context.Context, entity *types.Node) (*UpdateCommunityResult, error) {
	// Determine which community the entity should belong to
	result, err := b.DetermineEntityCommunity(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("failed to determine entity community: %w", err)
	}

	if result.Community == nil {
		return &UpdateCommunityResult{
			CommunityNodes: []*types.Node{},
			CommunityEdges: []*types.Edge{},
		}, nil
	}

	community := result.Community

	// Create new summary by combining entity and community summaries
	newSummary, err := b.summarizePair(ctx, entity.Summary, community.Summary)
	if err != nil {
		return nil, fmt.Errorf("failed to create new summary: %w", err)
	}

	// Generate new name based on the updated summary
	newName, err := b.generateCommunityName(ctx, newSummary)
	if err != nil {
		return nil, fmt.Errorf("failed to generate new community name: %w", err)
	}

	// Update community
	community.Summary = newSummary
	community.Name = newName
	community.UpdatedAt = time.Now().UTC()

	// Generate new embedding for the updated name
	if err := b.generateCommunityEmbedding(ctx, community); err != nil {
		return nil, fmt.Errorf("failed to generate community embedding: %w", err)
	}

	// Save updated community
	if err := b.driver.UpsertNode(ctx, community); err != nil {
		return nil, fmt.Errorf("failed to save updated community: %w", err)
	}

	var communityEdges []*types.Edge

	// If this is a new membership, create HAS_MEMBER edge
	if result.IsNew {
		edge := types.NewEntityEdge(
			generateUUID(),
			community.ID,
			entity.ID,
			community.GroupID,
			"HAS_MEMBER",
			types.CommunityEdgeType,
		)
		edge.UpdatedAt = time.Now().UTC()
		edge.ValidAt = time.Now().UTC()
		edge.SourceIDs = []string{community.ID}
		edge.Metadata = make(map[string]interface{})

		if err := b.driver.UpsertEdge(ctx, edge); err != nil {
			return nil, fmt.Errorf("failed to save community edge: %w", err)
		}

		communityEdges = append(communityEdges, edge)
	}

	return &UpdateCommunityResult{
		CommunityNodes: []*types.Node{community},
		CommunityEdges: communityEdges,
	}, nil
}

// getExistingCommunity checks if an entity is already part of a community.
func (b *Builder) getExistingCommunity(ctx context.Context, entityUUID string) (*types.Node, error) {
	switch d := b.driver.(type) {
	case *driver.Neo4jDriver:
		return d.GetExistingCommunity(ctx, entityUUID)
	case *driver.MemgraphDriver:
		return d.GetExistingCommunity(ctx, entityUUID)
	case *driver.KuzuDriver:
		return b.getExistingCommunityKuzu(ctx, d, entityUUID)
	}
	return nil, fmt.Errorf("getExistingCommunity: unsupported driver type %T", b.driver)
}

// getExistingCommunityKuzu looks up an entity's community via a MEMBER_OF edge.
func (b *Builder) getExistingCommunityKuzu(ctx context.Context, kuzuDriver *driver.KuzuDriver, entityUUID string) (*types.Node, error) {
	query := `
		MATCH (e:Entity {uuid: $entity_uuid})-[:MEMBER_OF]->(c:Community)
		RETURN c.uuid AS uuid, c.name AS name, c.summary AS summary, c.group_id AS group_id
		LIMIT 1
	`
	records, _, _, err := kuzuDriver.ExecuteQuery(query, map[string]interface{}{"entity_uuid": entityUUID})
	if err != nil {
		return nil, fmt.Errorf("failed to query existing community: %w", err)
	}

	recordSlice, ok := records.([]map[string]interface{})
	if !ok || len(recordSlice) == 0 {
		return nil, nil
	}

	return communityNodeFromRecord(recordSlice[0]), nil
}

// findModalCommunity finds the most common community among connected entities.
func (b *Builder) findModalCommunity(ctx context.Context, entityUUID string) (*types.Node, error) {
	switch d := b.driver.(type) {
	case *driver.Neo4jDriver:
		return d.FindModalCommunity(ctx, entityUUID)
	case *driver.MemgraphDriver:
		return d.FindModalCommunity(ctx, entityUUID)
	case *driver.KuzuDriver:
		return b.findModalCommunityKuzu(ctx, d, entityUUID)
	}
	return nil, fmt.Errorf("findModalCommunity: unsupported driver type %T", b.driver)
}

// findModalCommunityKuzu finds the community shared by the most neighbors
// of an entity that aren't yet assigned to one themselves.
func (b *Builder) findModalCommunityKuzu(ctx context.Context, kuzuDriver *driver.KuzuDriver, entityUUID string) (*types.Node, error) {
	query := `
		MATCH (e:Entity {uuid: $entity_uuid})-[:RELATES_TO]-(rel)-[:RELATES_TO]-(neighbor:Entity)
		MATCH (neighbor)-[:MEMBER_OF]->(c:Community)
		WITH c, count(*) AS freq
		ORDER BY freq DESC
		LIMIT 1
		RETURN c.uuid AS uuid, c.name AS name, c.summary AS summary, c.group_id AS group_id
	`
	records, _, _, err := kuzuDriver.ExecuteQuery(query, map[string]interface{}{"entity_uuid": entityUUID})
	if err != nil {
		return nil, fmt.Errorf("failed to query modal community: %w", err)
	}

	recordSlice, ok := records.([]map[string]interface{})
	if !ok || len(recordSlice) == 0 {
		return nil, nil
	}

	return communityNodeFromRecord(recordSlice[0]), nil
}

// communityNodeFromRecord builds a community Node from a Kuzu result row.
func communityNodeFromRecord(record map[string]interface{}) *types.Node {
	node := &types.Node{Type: types.CommunityNodeType}
	if v, ok := record["uuid"].(string); ok {
		node.ID = v
	}
	if v, ok := record["name"].(string); ok {
		node.Name = v
	}
	if v, ok := record["summary"].(string); ok {
		node.Summary = v
	}
	if v, ok := record["group_id"].(string); ok {
		node.GroupID = v
	}
	return node
}
