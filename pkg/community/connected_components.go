package community

import "github.com/temporalmesh/graphiti/pkg/types"

// connectedComponents groups nodes into connected components, treating the
// neighbor projection as an undirected adjacency list. It is the cheapest of
// the three detection algorithms and the one used by the graph drivers'
// own Cypher-level community marking.
func (b *Builder) connectedComponents(projection map[string][]types.Neighbor) [][]string {
	if len(projection) == 0 {
		return nil
	}

	visited := make(map[string]bool, len(projection))
	var clusters [][]string

	for start := range projection {
		if visited[start] {
			continue
		}

		var component []string
		queue := []string{start}
		visited[start] = true

		for len(queue) > 0 {
			nodeUUID := queue[0]
			queue = queue[1:]
			component = append(component, nodeUUID)

			for _, neighbor := range projection[nodeUUID] {
				if !visited[neighbor.NodeUUID] {
					visited[neighbor.NodeUUID] = true
					queue = append(queue, neighbor.NodeUUID)
				}
			}
		}

		if len(component) > 1 {
			clusters = append(clusters, component)
		}
	}

	return clusters
}
