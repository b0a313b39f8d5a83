package checkpoint

// This file provides example code showing how to integrate checkpoint support
// into the addEpisodeChunked pipeline. This is not production code, but a guide
// for implementing checkpoint/resume functionality.

/*
Example integration into graphiti.Client.addEpisodeChunked:

func (c *Client) addEpisodeChunked(ctx context.Context, episode types.Episode, options *AddEpisodeOptions, maxCharacters int) (*types.AddEpisodeResults, error) {
	// Initialize checkpoint manager
	manager, err := checkpoint.NewCheckpointManager("")
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}

	// Convert graphiti options to checkpoint options
	cpOptions := convertToCheckpointOptions(options)

	// Try to load existing checkpoint
	cp, existed, err := manager.LoadOrCreate(ctx, episode, cpOptions, maxCharacters)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if existed {
		c.logger.Info("Resuming episode processing from checkpoint",
			"episode_id", episode.ID,
			"step", cp.Step,
			"attempt", cp.AttemptCount)

		// Check if retryable
		if !cp.CanRetry(3, 24*time.Hour) {
			return nil, fmt.Errorf("episode %s exceeded retry limits (attempts: %d)", episode.ID, cp.AttemptCount)
		}
	}

	// Wrap processing with error handling
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic during processing: %v", r)
			manager.SaveWithError(ctx, cp, err)
			panic(r)
		}
	}()

	now := time.Now()

	// STEP 1: Prepare and validate episode
	if cp.Step == checkpoint.StepInitial {
		chunks, err := c.prepareAndValidateEpisode(&episode, options, maxCharacters)
		if err != nil {
			manager.SaveWithError(ctx, cp, err)
			return nil, err
		}
		cp.Chunks = chunks
		if err := manager.SaveWithStep(ctx, cp, checkpoint.StepPrepared); err != nil {
			c.logger.Warn("Failed to save checkpoint", "error", err)
		}
	}

	// STEP 2: Get previous episodes for context
	if cp.Step == checkpoint.StepPrepared {
		previousEpisodes, err := c.getPreviousEpisodesForContext(ctx, episode, options)
		if err != nil {
			manager.SaveWithError(ctx, cp, err)
			return nil, err
		}
		cp.PreviousEpisodes = previousEpisodes
		if err := manager.SaveWithStep(ctx, cp, checkpoint.StepGotPreviousEpisodes); err != nil {
			c.logger.Warn("Failed to save checkpoint", "error", err)
		}
	}

	// STEP 3: Create chunk episode structures
	if cp.Step == checkpoint.StepGotPreviousEpisodes {
		chunkData, err := c.createChunkEpisodeStructures(ctx, episode, cp.Chunks, cp.PreviousEpisodes, options)
		if err != nil {
			manager.SaveWithError(ctx, cp, err)
			return nil, err
		}
		cp.ChunkEpisodeNodes = chunkData.chunkEpisodeNodes
		cp.MainEpisodeNode = chunkData.mainEpisodeNode
		cp.EpisodeTuples = chunkData.episodeTuples
		if err := manager.SaveWithStep(ctx, cp, checkpoint.StepCreatedChunks); err != nil {
			c.logger.Warn("Failed to save checkpoint", "error", err)
		}
	}

	// STEP 4: Initialize maintenance operations (always needed)
	nodeOps := maintenance.NewNodeOperations(c.driver, c.llm, c.embedder, prompts.NewLibrary())
	nodeOps.SetLogger(c.logger)
	edgeOps := maintenance.NewEdgeOperations(c.driver, c.llm, c.embedder, prompts.NewLibrary())
	edgeOps.SetLogger(c.logger)

	// STEP 5: Extract entities from all chunks
	if cp.Step == checkpoint.StepCreatedChunks {
		extractedNodesByChunk, err := c.extractEntitiesFromAllChunks(ctx, episode.ID, cp.ChunkEpisodeNodes, cp.PreviousEpisodes, options, nodeOps)
		if err != nil {
			manager.SaveWithError(ctx, cp, err)
			return nil, err
		}
		cp.ExtractedNodesByChunk = extractedNodesByChunk
		if err := manager.SaveWithStep(ctx, cp, checkpoint.StepExtractedEntities); err != nil {
			c.logger.Warn("Failed to save checkpoint", "error", err)
		}
	}

	// OPTIMIZATION: Filter out chunks with no extracted entities
	var filteredNodesByChunk [][]*types.Node
	var filteredEpisodeTuples []utils.EpisodeTuple
	chunksWithEntities := 0

	for i, nodes := range cp.ExtractedNodesByChunk {
		if len(nodes) > 0 {
			filteredNodesByChunk = append(filteredNodesByChunk, nodes)
			filteredEpisodeTuples = append(filteredEpisodeTuples, cp.EpisodeTuples[i])
			chunksWithEntities++
		}
	}

	c.logger.Info("Filtered chunks for processing",
		"episode_id", episode.ID,
		"chunks_with_entities", chunksWithEntities,
		"chunks_skipped", len(cp.ExtractedNodesByChunk)-chunksWithEntities)

	var hydratedNodes []*types.Node
	var resolvedEdges []*types.Edge
	var invalidatedEdges []*types.Edge
	var episodicEdges []*types.Edge

	// Only process entities and relationships if we have chunks with entities
	if chunksWithEntities > 0 {
		// STEP 6: Deduplicate entities across chunks
		if cp.Step == checkpoint.StepExtractedEntities {
			dedupeResult, allResolvedNodes, err := c.deduplicateEntitiesAcrossChunks(ctx, episode.ID, filteredNodesByChunk, filteredEpisodeTuples, options, nodeOps)
			if err != nil {
				manager.SaveWithError(ctx, cp, err)
				return nil, err
			}
			cp.DedupeChunkIndices = dedupeResult.chunkIndices
			cp.AllResolvedNodes = allResolvedNodes
			if err := manager.SaveWithStep(ctx, cp, checkpoint.StepDeduplicatedEntities); err != nil {
				c.logger.Warn("Failed to save checkpoint", "error", err)
			}
		}

		// STEP 7: Extract relationships
		if cp.Step == checkpoint.StepDeduplicatedEntities {
			dedupeResult := &someDedupeResult{chunkIndices: cp.DedupeChunkIndices}
			allExtractedEdges, err := c.extractRelationshipsFromChunks(ctx, episode.ID, cp.MainEpisodeNode, dedupeResult, cp.PreviousEpisodes, options, edgeOps)
			if err != nil {
				manager.SaveWithError(ctx, cp, err)
				return nil, err
			}
			cp.AllExtractedEdges = allExtractedEdges
			if err := manager.SaveWithStep(ctx, cp, checkpoint.StepExtractedEdges); err != nil {
				c.logger.Warn("Failed to save checkpoint", "error", err)
			}
		}

		// STEP 8: Resolve and persist relationships
		if cp.Step == checkpoint.StepExtractedEdges {
			resolvedEdges, invalidatedEdges, err = c.resolveAndPersistRelationships(ctx, episode.ID, cp.AllExtractedEdges, cp.MainEpisodeNode, cp.AllResolvedNodes, options, edgeOps)
			if err != nil {
				manager.SaveWithError(ctx, cp, err)
				return nil, err
			}
			cp.ResolvedEdges = resolvedEdges
			cp.InvalidatedEdges = invalidatedEdges
			if err := manager.SaveWithStep(ctx, cp, checkpoint.StepResolvedEdges); err != nil {
				c.logger.Warn("Failed to save checkpoint", "error", err)
			}
		} else {
			// Restore from checkpoint
			resolvedEdges = cp.ResolvedEdges
			invalidatedEdges = cp.InvalidatedEdges
		}

		// STEP 9: Extract attributes
		if cp.Step == checkpoint.StepResolvedEdges {
			hydratedNodes, err = c.extractEntityAttributes(ctx, episode.ID, cp.AllResolvedNodes, cp.MainEpisodeNode, cp.PreviousEpisodes, options, nodeOps)
			if err != nil {
				manager.SaveWithError(ctx, cp, err)
				return nil, err
			}
			cp.HydratedNodes = hydratedNodes
			if err := manager.SaveWithStep(ctx, cp, checkpoint.StepExtractedAttributes); err != nil {
				c.logger.Warn("Failed to save checkpoint", "error", err)
			}
		} else {
			hydratedNodes = cp.HydratedNodes
		}

		// STEP 10: Build episodic edges
		if cp.Step == checkpoint.StepExtractedAttributes {
			episodicEdges, err = c.buildEpisodicEdgesForEntities(ctx, hydratedNodes, cp.MainEpisodeNode, now, edgeOps)
			if err != nil {
				manager.SaveWithError(ctx, cp, err)
				return nil, err
			}
			cp.EpisodicEdges = episodicEdges
			if err := manager.SaveWithStep(ctx, cp, checkpoint.StepBuiltEpisodicEdges); err != nil {
				c.logger.Warn("Failed to save checkpoint", "error", err)
			}
		} else {
			episodicEdges = cp.EpisodicEdges
		}

		// STEP 11: Perform final graph updates
		if cp.Step == checkpoint.StepBuiltEpisodicEdges {
			if err := c.performFinalGraphUpdates(ctx, episode.ID, cp.MainEpisodeNode, hydratedNodes, resolvedEdges, invalidatedEdges, episodicEdges); err != nil {
				manager.SaveWithError(ctx, cp, err)
				return nil, err
			}
			if err := manager.SaveWithStep(ctx, cp, checkpoint.StepPerformedGraphUpdate); err != nil {
				c.logger.Warn("Failed to save checkpoint", "error", err)
			}
		}
	} else {
		c.logger.Info("No entities extracted from any chunks, skipping entity and relationship processing",
			"episode_id", episode.ID)

		// Still need to persist the episode node with its content
		if err := c.driver.UpsertNode(ctx, cp.MainEpisodeNode); err != nil {
			manager.SaveWithError(ctx, cp, err)
			return nil, fmt.Errorf("failed to persist episode node: %w", err)
		}
		if err := manager.SaveWithStep(ctx, cp, checkpoint.StepPerformedGraphUpdate); err != nil {
			c.logger.Warn("Failed to save checkpoint", "error", err)
		}
	}

	// STEP 12: Prepare result
	result := &types.AddEpisodeResults{
		Episode:        cp.MainEpisodeNode,
		EpisodicEdges:  episodicEdges,
		Nodes:          hydratedNodes,
		Edges:          append(resolvedEdges, invalidatedEdges...),
		Communities:    []*types.Node{},
		CommunityEdges: []*types.Edge{},
	}

	// STEP 13: Update communities
	if cp.Step == checkpoint.StepPerformedGraphUpdate {
		communities, communityEdges, err := c.UpdateCommunities(ctx, episode.ID, episode.GroupID)
		if err != nil {
			manager.SaveWithError(ctx, cp, err)
			return nil, err
		}
		result.Communities = communities
		result.CommunityEdges = communityEdges
		cp.Communities = communities
		cp.CommunityEdges = communityEdges
		if err := manager.SaveWithStep(ctx, cp, checkpoint.StepUpdatedCommunities); err != nil {
			c.logger.Warn("Failed to save checkpoint", "error", err)
		}
	} else {
		// Restore from checkpoint
		result.Communities = cp.Communities
		result.CommunityEdges = cp.CommunityEdges
	}

	// Persist community nodes and edges (same as before)
	for _, communityNode := range result.Communities {
		if err := c.driver.UpsertNode(ctx, communityNode); err != nil {
			c.logger.Warn("Failed to persist community node",
				"episode_id", episode.ID,
				"community_id", communityNode.ID,
				"error", err)
		}
	}

	for _, communityEdge := range result.CommunityEdges {
		if err := c.driver.UpsertEdge(ctx, communityEdge); err != nil {
			c.logger.Warn("Failed to persist community edge",
				"episode_id", episode.ID,
				"edge_id", communityEdge.ID,
				"error", err)
		}
	}

	// Mark as completed and delete checkpoint
	if err := manager.SaveWithStep(ctx, cp, checkpoint.StepCompleted); err != nil {
		c.logger.Warn("Failed to mark checkpoint complete", "error", err)
	}

	// Delete checkpoint for successful completion
	if err := manager.Delete(ctx, episode.ID); err != nil {
		c.logger.Warn("Failed to delete checkpoint", "episode_id", episode.ID, "error", err)
	}

	c.logger.Info("Chunked episode processing completed with bulk deduplication",
		"episode_id", episode.ID,
		"total_chunks", len(cp.Chunks),
		"total_entities", len(result.Nodes),
		"total_relationships", len(result.Edges),
		"total_episodic_edges", len(result.EpisodicEdges),
		"total_communities", len(result.Communities))

	return result, nil
}

// Helper function to convert graphiti.AddEpisodeOptions to checkpoint.AddEpisodeOptions
func convertToCheckpointOptions(opts *graphiti.AddEpisodeOptions) *checkpoint.AddEpisodeOptions {
	if opts == nil {
		return nil
	}
	return &checkpoint.AddEpisodeOptions{
		EntityTypes:          opts.EntityTypes,
		ExcludedEntityTypes:  opts.ExcludedEntityTypes,
		PreviousEpisodeUUIDs: opts.PreviousEpisodeUUIDs,
		EdgeTypes:            opts.EdgeTypes,
		EdgeTypeMap:          opts.EdgeTypeMap,
		OverwriteExisting:    opts.OverwriteExisting,
		GenerateEmbeddings:   opts.GenerateEmbeddings,
		MaxCharacters:        opts.MaxCharacters,
		DeferGraphIngestion:  opts.DeferGraphIngestion,
		DuckDBPath:           opts.DuckDBPath,
	}
}
*/
