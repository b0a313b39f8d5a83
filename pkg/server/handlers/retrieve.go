package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/temporalmesh/graphiti/pkg/server/dto"
	"github.com/temporalmesh/graphiti"
)

// RetrieveHandler handles data retrieval requests
type RetrieveHandler struct {
	graphiti *graphiti.Graphiti
}

// NewRetrieveHandler creates a new retrieve handler
func NewRetrieveHandler(g *graphiti.Graphiti) *RetrieveHandler {
	return &RetrieveHandler{
		graphiti: g,
	}
}

// Search handles POST /search
func (h *RetrieveHandler) Search(c *gin.Context) {
	var req dto.SearchQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	// ctx := context.Background()

	// Set default max facts if not provided
	if req.MaxFacts <= 0 {
		req.MaxFacts = 10
	}

	// TODO: Implement actual search functionality
	// This would involve searching the knowledge graph
	// For now, return a placeholder response
	
	results := dto.SearchResults{
		Facts: []dto.FactResult{
			{
				UUID:         "example-uuid-1",
				Fact:         "Example fact from search",
				SourceName:   "Entity A",
				TargetName:   "Entity B",
				RelationType: "RELATED_TO",
				CreatedAt:    time.Now(),
			},
		},
		Total: 1,
	}

	c.JSON(http.StatusOK, results)
}

// GetEntityEdge handles GET /entity-edge/:uuid
func (h *RetrieveHandler) GetEntityEdge(c *gin.Context) {
	uuid := c.Param("uuid")
	if uuid == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "UUID parameter is required",
		})
		return
	}

	// ctx := context.Background()

	// TODO: Implement entity edge retrieval
	// This would involve fetching an edge from the knowledge graph
	// For now, return a placeholder response

	fact := dto.FactResult{
		UUID:         uuid,
		Fact:         "Example entity edge fact",
		SourceName:   "Source Entity",
		TargetName:   "Target Entity",
		RelationType: "EXAMPLE_RELATION",
		CreatedAt:    time.Now(),
	}

	c.JSON(http.StatusOK, fact)
}

// GetEpisodes handles GET /episodes/:group_id
func (h *RetrieveHandler) GetEpisodes(c *gin.Context) {
	groupID := c.Param("group_id")
	if groupID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "Group ID parameter is required",
		})
		return
	}

	// Parse query parameters
	lastNStr := c.DefaultQuery("last_n", "10")
	_, err := strconv.Atoi(lastNStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: "last_n must be a valid integer",
		})
		return
	}

	// ctx := context.Background()

	// TODO: Implement episode retrieval
	// This would involve fetching episodes from the knowledge graph
	// For now, return a placeholder response

	episodes := dto.GetEpisodesResponse{
		Episodes: []dto.Episode{
			{
				UUID:      "episode-uuid-1",
				GroupID:   groupID,
				Content:   "Example episode content",
				CreatedAt: time.Now(),
			},
		},
		Total: 1,
	}

	c.JSON(http.StatusOK, episodes)
}

// GetMemory handles POST /get-memory
func (h *RetrieveHandler) GetMemory(c *gin.Context) {
	var req dto.GetMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	// ctx := context.Background()

	// Set default max facts if not provided
	if req.MaxFacts <= 0 {
		req.MaxFacts = 10
	}

	// Compose query from messages
	var queryParts []string
	for _, msg := range req.Messages {
		queryParts = append(queryParts, msg.Content)
	}
	combinedQuery := strings.Join(queryParts, " ")

	// TODO: Implement memory retrieval based on messages
	// This would involve searching the knowledge graph based on the message content
	// For now, return a placeholder response

	results := dto.GetMemoryResponse{
		Facts: []dto.FactResult{
			{
				UUID:         "memory-fact-uuid-1",
				Fact:         "Example memory fact based on query: " + combinedQuery,
				SourceName:   "Memory Entity A",
				TargetName:   "Memory Entity B",
				RelationType: "MEMORY_RELATED",
				CreatedAt:    time.Now(),
			},
		},
		Total: 1,
	}

	c.JSON(http.StatusOK, results)
}