package driver

import (
	"context"
	"time"

	"github.com/temporalmesh/graphiti/pkg/types"
)

// GraphProvider identifies which backend a GraphDriver talks to.
type GraphProvider string

const (
	GraphProviderNeo4j    GraphProvider = "neo4j"
	GraphProviderMemgraph GraphProvider = "memgraph"
	GraphProviderKuzu     GraphProvider = "kuzu"
	GraphProviderFalkorDB GraphProvider = "falkordb"
)

// GraphDriverSession models a single logical transaction/session against the
// backing store, entered and exited like a context manager.
type GraphDriverSession interface {
	Enter(ctx context.Context) (GraphDriverSession, error)
	Exit(ctx context.Context, excType, excVal, excTb interface{}) error
	Close() error
	Run(ctx context.Context, query interface{}, kwargs map[string]interface{}) error
	ExecuteWrite(ctx context.Context, fn func(context.Context, GraphDriverSession, ...interface{}) (interface{}, error), args ...interface{}) (interface{}, error)
	Provider() GraphProvider
}

// GraphDriver defines the interface for graph database operations.
// It provides methods for storing and retrieving nodes and edges
// from a graph database backend.
type GraphDriver interface {
	// Node operations
	GetNode(ctx context.Context, nodeID, groupID string) (*types.Node, error)
	UpsertNode(ctx context.Context, node *types.Node) error
	DeleteNode(ctx context.Context, nodeID, groupID string) error
	GetNodes(ctx context.Context, nodeIDs []string, groupID string) ([]*types.Node, error)

	// Edge operations  
	GetEdge(ctx context.Context, edgeID, groupID string) (*types.Edge, error)
	UpsertEdge(ctx context.Context, edge *types.Edge) error
	DeleteEdge(ctx context.Context, edgeID, groupID string) error
	GetEdges(ctx context.Context, edgeIDs []string, groupID string) ([]*types.Edge, error)

	// Graph traversal operations
	GetNeighbors(ctx context.Context, nodeID, groupID string, maxDistance int) ([]*types.Node, error)
	GetRelatedNodes(ctx context.Context, nodeID, groupID string, edgeTypes []types.EdgeType) ([]*types.Node, error)
	// GetNodeNeighbors returns a node's directly related entities together
	// with how many relation edges connect them, for community-detection's
	// neighbor projection.
	GetNodeNeighbors(ctx context.Context, nodeUUID, groupID string) ([]types.Neighbor, error)

	// Search operations
	SearchNodesByEmbedding(ctx context.Context, embedding []float32, groupID string, limit int) ([]*types.Node, error)
	SearchEdgesByEmbedding(ctx context.Context, embedding []float32, groupID string, limit int) ([]*types.Edge, error)
	SearchNodes(ctx context.Context, query, groupID string, options *SearchOptions) ([]*types.Node, error)
	SearchEdges(ctx context.Context, query, groupID string, options *SearchOptions) ([]*types.Edge, error)
	SearchNodesByVector(ctx context.Context, vector []float32, groupID string, options *VectorSearchOptions) ([]*types.Node, error)
	SearchEdgesByVector(ctx context.Context, vector []float32, groupID string, options *VectorSearchOptions) ([]*types.Edge, error)

	// Bulk operations
	UpsertNodes(ctx context.Context, nodes []*types.Node) error
	UpsertEdges(ctx context.Context, edges []*types.Edge) error

	// Temporal operations
	GetNodesInTimeRange(ctx context.Context, start, end time.Time, groupID string) ([]*types.Node, error)
	GetEdgesInTimeRange(ctx context.Context, start, end time.Time, groupID string) ([]*types.Edge, error)

	// Community operations
	GetCommunities(ctx context.Context, groupID string, level int) ([]*types.Node, error)
	BuildCommunities(ctx context.Context, groupID string) error

	// Group-level maintenance
	DeleteByGroupID(ctx context.Context, groupID string) error

	// Database maintenance
	CreateIndices(ctx context.Context) error
	// DropIndices removes the indices CreateIndices creates, if present.
	// Used by BuildIndicesAndConstraints to rebuild them from scratch.
	DropIndices(ctx context.Context) error
	GetStats(ctx context.Context, groupID string) (*GraphStats, error)

	// Provider identifies the backing graph database (neo4j, memgraph, ...).
	Provider() GraphProvider

	// ExecuteQuery runs a raw backend query, for helpers (pkg/types) that
	// operate in terms of the underlying query language rather than the
	// typed node/edge methods above.
	ExecuteQuery(query string, params map[string]interface{}) (interface{}, interface{}, interface{}, error)

	// Session opens an explicit transactional session against the backend.
	Session(database *string) GraphDriverSession

	// Connection management
	Close() error
}

// GraphStats holds statistics about the graph.
type GraphStats struct {
	NodeCount            int64            `json:"node_count"`
	EdgeCount            int64            `json:"edge_count"`
	NodesByType          map[string]int64 `json:"nodes_by_type"`
	EdgesByType          map[string]int64 `json:"edges_by_type"`
	CommunityCount       int64            `json:"community_count"`
	LastUpdated          time.Time        `json:"last_updated"`
}

// QueryOptions holds options for database queries.
type QueryOptions struct {
	Limit      int
	Offset     int
	SortBy     string
	SortOrder  string
	Filters    map[string]interface{}
}

// SearchOptions holds options for text-based search operations.
type SearchOptions struct {
	Limit       int                  `json:"limit"`
	UseFullText bool                 `json:"use_fulltext"`
	NodeTypes   []types.NodeType     `json:"node_types,omitempty"`
	EdgeTypes   []types.EdgeType     `json:"edge_types,omitempty"`
	TimeRange   *types.TimeRange     `json:"time_range,omitempty"`
}

// VectorSearchOptions holds options for vector similarity search operations.
type VectorSearchOptions struct {
	Limit     int                  `json:"limit"`
	MinScore  float64              `json:"min_score"`
	NodeTypes []types.NodeType     `json:"node_types,omitempty"`
	EdgeTypes []types.EdgeType     `json:"edge_types,omitempty"`
	TimeRange *types.TimeRange     `json:"time_range,omitempty"`
}