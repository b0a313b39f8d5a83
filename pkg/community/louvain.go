package community

import "github.com/temporalmesh/graphiti/pkg/types"

// louvain runs the local-moving phase of the Louvain algorithm: each node
// starts in its own community, then repeatedly moves to whichever
// neighboring community yields the largest modularity gain until no move
// improves it. This is a single-level pass (no community aggregation/
// recursion), which is sufficient for the entity graphs communities operate
// over here.
func (b *Builder) louvain(projection map[string][]types.Neighbor) [][]string {
	if len(projection) == 0 {
		return nil
	}

	degree := make(map[string]float64, len(projection))
	var totalWeight float64
	for uuid, neighbors := range projection {
		var d float64
		for _, n := range neighbors {
			d += float64(n.EdgeCount)
		}
		degree[uuid] = d
		totalWeight += d
	}
	totalWeight /= 2 // each edge weight was counted from both endpoints
	if totalWeight == 0 {
		totalWeight = 1
	}

	communityOf := make(map[string]string, len(projection))
	communityDegree := make(map[string]float64, len(projection))
	for uuid := range projection {
		communityOf[uuid] = uuid
		communityDegree[uuid] = degree[uuid]
	}

	const maxPasses = 100
	for pass, improved := 0, true; improved && pass < maxPasses; pass++ {
		improved = false

		for uuid, neighbors := range projection {
			currentCommunity := communityOf[uuid]
			communityDegree[currentCommunity] -= degree[uuid]

			weightToCommunity := make(map[string]float64)
			for _, n := range neighbors {
				weightToCommunity[communityOf[n.NodeUUID]] += float64(n.EdgeCount)
			}

			bestCommunity := currentCommunity
			bestGain := weightToCommunity[currentCommunity] - degree[uuid]*communityDegree[currentCommunity]/(2*totalWeight)

			for candidate, weight := range weightToCommunity {
				gain := weight - degree[uuid]*communityDegree[candidate]/(2*totalWeight)
				if gain > bestGain {
					bestGain = gain
					bestCommunity = candidate
				}
			}

			communityOf[uuid] = bestCommunity
			communityDegree[bestCommunity] += degree[uuid]

			if bestCommunity != currentCommunity {
				improved = true
			}
		}
	}

	clusterMap := make(map[string][]string)
	for uuid, c := range communityOf {
		clusterMap[c] = append(clusterMap[c], uuid)
	}

	var clusters [][]string
	for _, cluster := range clusterMap {
		if len(cluster) > 1 {
			clusters = append(clusters, cluster)
		}
	}
	return clusters
}
