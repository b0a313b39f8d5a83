// Package types defines the bitemporal property-graph data model: entities,
// entity edges (facts), episodic nodes, episodic (mention) edges, and
// communities. Every node and edge is modelled as a tagged variant sharing a
// common base of fields rather than through inheritance; serialization
// flattens the base into the leaf record.
package types

import (
	"time"
)

// NodeType discriminates the tagged variants of Node.
type NodeType string

const (
	// EntityNodeType is a thing referred to across episodes.
	EntityNodeType NodeType = "entity"
	// EpisodicNodeType is one instance per ingested input.
	EpisodicNodeType NodeType = "episodic"
	// CommunityNodeType is an optional cluster of entities.
	CommunityNodeType NodeType = "community"
)

// EdgeType discriminates the tagged variants of Edge.
type EdgeType string

const (
	// EntityEdgeType asserts a fact between two entities.
	EntityEdgeType EdgeType = "entity"
	// EpisodicEdgeType connects an episode to an entity it mentions.
	EpisodicEdgeType EdgeType = "episodic"
	// CommunityEdgeType connects an entity to its community.
	CommunityEdgeType EdgeType = "community"
)

// EpisodeSource is the kind of raw content an episode carries.
type EpisodeSource string

const (
	// EpisodeSourceText is free text (a document, a note).
	EpisodeSourceText EpisodeSource = "text"
	// EpisodeSourceMessage is a single conversational message.
	EpisodeSourceMessage EpisodeSource = "message"
	// EpisodeSourceJSON is structured JSON content.
	EpisodeSourceJSON EpisodeSource = "json"
)

// Node is the tagged union of Entity, Episodic, and Community nodes. Which
// fields are meaningful is determined by Type.
type Node struct {
	// Base fields, present on every variant.
	ID        string    `json:"uuid"`
	GroupID   string    `json:"group_id"`
	Name      string    `json:"name"`
	Type      NodeType  `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Entity fields.
	EntityType       string     `json:"entity_type,omitempty"`
	Labels           []string   `json:"labels,omitempty"`
	Summary          string     `json:"summary,omitempty"`
	NameEmbedding    []float32  `json:"name_embedding,omitempty"`
	SummaryEmbedding []float32  `json:"summary_embedding,omitempty"`

	// Episodic fields.
	EpisodeType       EpisodeSource `json:"source,omitempty"`
	SourceDescription string        `json:"source_description,omitempty"`
	Content           string        `json:"content,omitempty"`
	EntityEdges       []string      `json:"entity_edges,omitempty"`
	// SourceIDs tracks provenance pointers written by the graph driver
	// (distinct from an entity edge's Episodes list of referencing episodes).
	SourceIDs []string `json:"source_ids,omitempty"`

	// Community fields.
	Level int `json:"level,omitempty"`

	// Common bitemporal/embedding fields.
	// ValidAt is the DateTime the node's content is anchored to: for an
	// episode this is the reference time the content describes; entities
	// and communities leave it at their CreatedAt.
	ValidAt time.Time `json:"valid_at"`
	// InvalidAt is storage-layer bookkeeping used by community membership
	// versioning (§4.7); it plays no role in the Entity/Episode invariants.
	InvalidAt *time.Time `json:"invalid_at,omitempty"`
	// Embedding is a generic content embedding (used when a variant has no
	// more specific embedding of its own, e.g. community summaries).
	Embedding []float32              `json:"embedding,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Edge is the tagged union of EntityEdge (Fact), EpisodicEdge (Mention), and
// CommunityEdge.
type Edge struct {
	ID        string    `json:"uuid"`
	Type      EdgeType  `json:"type"`
	GroupID   string    `json:"group_id"`
	SourceID  string    `json:"source_node_uuid"`
	TargetID  string    `json:"target_node_uuid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// EntityEdge (Fact) fields.
	Name          string     `json:"name,omitempty"` // SCREAMING_SNAKE_CASE predicate
	Fact          string     `json:"fact,omitempty"`
	FactEmbedding []float32  `json:"fact_embedding,omitempty"`
	Episodes      []string   `json:"episodes,omitempty"`
	ValidAt       time.Time  `json:"valid_at"`
	InvalidAt     *time.Time `json:"invalid_at,omitempty"`
	ExpiredAt     *time.Time `json:"expired_at,omitempty"`
	// SourceIDs tracks the episodes that most recently touched this edge
	// during resolution, ahead of being folded into Episodes on persist.
	SourceIDs []string `json:"source_ids,omitempty"`

	// Generic fields retained for driver/search convenience.
	Summary   string                 `json:"summary,omitempty"`
	Strength  float64                `json:"strength,omitempty"`
	Embedding []float32              `json:"embedding,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewEntityEdge constructs an edge of the given variant between source and
// target nodes, stamped with the current time. Callers fill in Fact/Summary
// and override ValidAt/UpdatedAt as needed.
func NewEntityEdge(id, sourceID, targetID, groupID, name string, edgeType EdgeType) *Edge {
	now := time.Now().UTC()
	return &Edge{
		ID:        id,
		Type:      edgeType,
		GroupID:   groupID,
		SourceID:  sourceID,
		TargetID:  targetID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		ValidAt:   now,
	}
}

// Episode is the caller-facing request to ingest a single piece of content.
// It is distinct from the persisted episodic Node: AddEpisode turns an
// Episode into a Node as its first step.
type Episode struct {
	ID                string
	Name              string
	Content           string
	Source            EpisodeSource
	SourceDescription string
	Reference         time.Time // valid_at; defaults to now() when zero
	CreatedAt         time.Time
	GroupID           string
	ContentEmbedding  []float32
	Metadata          map[string]interface{}
}

// SearchConfig holds configuration for search operations.
type SearchConfig struct {
	Limit              int
	CenterNodeDistance int
	MinScore           float64
	IncludeEdges       bool
	Rerank             bool
	Filters            *SearchFilters
	NodeConfig         *NodeSearchConfig
	EdgeConfig         *EdgeSearchConfig
}

// NodeSearchConfig holds configuration for node search operations.
type NodeSearchConfig struct {
	SearchMethods []string
	Reranker      string
	MinScore      float64
}

// EdgeSearchConfig holds configuration for edge search operations.
type EdgeSearchConfig struct {
	SearchMethods []string
	Reranker      string
	MinScore      float64
}

// SearchFilters holds filters for search operations. Per-field lists are
// OR'd together; distinct fields are AND'd.
type SearchFilters struct {
	GroupIDs    []string
	NodeTypes   []NodeType
	EdgeTypes   []EdgeType
	EntityTypes []string
	TimeRange   *TimeRange
}

// TimeRange represents a time range for filtering.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// SearchResults holds the results of a search operation.
type SearchResults struct {
	Nodes []*Node
	Edges []*Edge
	Query string
	Total int
}

// ExtractedEntity represents an entity extracted from content, prior to
// resolution against existing entities.
type ExtractedEntity struct {
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Summary  string            `json:"summary"`
	Metadata map[string]string `json:"metadata"`
}

// ExtractedRelationship represents a relationship extracted from content,
// prior to resolution against existing edges.
type ExtractedRelationship struct {
	SourceEntity string            `json:"source_entity"`
	TargetEntity string            `json:"target_entity"`
	Name         string            `json:"name"`
	Summary      string            `json:"summary"`
	Strength     float64           `json:"strength"`
	Metadata     map[string]string `json:"metadata"`
}
