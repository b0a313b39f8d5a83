package search

import (
	"context"
	"math"
	"sort"

	"github.com/temporalmesh/graphiti/pkg/driver"
)

// RRF (Reciprocal Rank Fusion) reranks search results by combining multiple ranked lists.
func RRF(results [][]string, rankConstant int, minScore float64) ([]string, []float64) {
	if rankConstant <= 0 {
		rankConstant = DefaultRankConstant
	}

	scores := make(map[string]float64)
	for _, result := range results {
		for i, id := range result {
			scores[id] += 1.0 / float64(i+rankConstant)
		}
	}

	type idScore struct {
		id    string
		score float64
	}

	scored := make([]idScore, 0, len(scores))
	for id, score := range scores {
		if score >= minScore {
			scored = append(scored, idScore{id: id, score: score})
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	ids := make([]string, len(scored))
	scoreList := make([]float64, len(scored))
	for i, item := range scored {
		ids[i] = item.id
		scoreList[i] = item.score
	}

	return ids, scoreList
}

// NodeDistanceReranker reranks nodes by their graph distance from a center node,
// keeping the center node first when present in the candidate set.
func NodeDistanceReranker(ctx context.Context, d driver.GraphDriver, nodeIDs []string, centerNodeID string, minScore float64) ([]string, []float64, error) {
	filteredIDs := make([]string, 0, len(nodeIDs))
	containsCenter := false
	for _, id := range nodeIDs {
		if id == centerNodeID {
			containsCenter = true
			continue
		}
		filteredIDs = append(filteredIDs, id)
	}

	neighbors, err := d.GetNodeNeighbors(ctx, centerNodeID, "")
	distances := make(map[string]float64)
	if err == nil {
		for _, n := range neighbors {
			distances[n.NodeUUID] = 1.0
		}
	}

	type idDistance struct {
		id       string
		distance float64
	}

	sortedNodes := make([]idDistance, 0, len(filteredIDs))
	for _, id := range filteredIDs {
		distance, connected := distances[id]
		if !connected {
			distance = math.Inf(1)
		}
		sortedNodes = append(sortedNodes, idDistance{id: id, distance: distance})
	}

	sort.Slice(sortedNodes, func(i, j int) bool {
		return sortedNodes[i].distance < sortedNodes[j].distance
	})

	var resultIDs []string
	var resultScores []float64

	if containsCenter {
		resultIDs = append(resultIDs, centerNodeID)
		resultScores = append(resultScores, 0.1)
	}

	for _, item := range sortedNodes {
		score := 1.0 / (1.0 + item.distance)
		if score >= minScore {
			resultIDs = append(resultIDs, item.id)
			resultScores = append(resultScores, score)
		}
	}

	return resultIDs, resultScores, nil
}

// EpisodeMentionsReranker reranks nodes by how often they're mentioned across
// a set of per-episode node-ID lists, using RRF for the preliminary ordering.
func EpisodeMentionsReranker(ctx context.Context, d driver.GraphDriver, nodeIDsByEpisode [][]string, minScore float64) ([]string, []float64, error) {
	sortedIDs, _ := RRF(nodeIDsByEpisode, DefaultRankConstant, 0)

	mentionCounts := make(map[string]float64, len(sortedIDs))
	for i, id := range sortedIDs {
		mentionCounts[id] = float64(len(sortedIDs) - i)
	}

	type idMentions struct {
		id       string
		mentions float64
	}

	filtered := make([]idMentions, 0, len(sortedIDs))
	for _, id := range sortedIDs {
		if mentions := mentionCounts[id]; mentions >= minScore {
			filtered = append(filtered, idMentions{id: id, mentions: mentions})
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].mentions > filtered[j].mentions
	})

	resultIDs := make([]string, len(filtered))
	resultScores := make([]float64, len(filtered))
	for i, item := range filtered {
		resultIDs[i] = item.id
		resultScores[i] = item.mentions
	}

	return resultIDs, resultScores, nil
}

// MaximalMarginalRelevance reranks candidates to balance query relevance against
// redundancy with other high-scoring candidates: score = λ*sim(query,c) - (1-λ)*max_sim(c,other).
func MaximalMarginalRelevance(queryVector []float32, candidates map[string][]float32, mmrLambda float64, minScore float64) ([]string, []float64) {
	if mmrLambda == 0 {
		mmrLambda = DefaultMMRLambda
	}
	if len(candidates) == 0 {
		return []string{}, []float64{}
	}

	normalized := make(map[string][]float32, len(candidates))
	ids := make([]string, 0, len(candidates))
	for id, embedding := range candidates {
		normalized[id] = normalizeL2(embedding)
		ids = append(ids, id)
	}
	normalizedQuery := normalizeL2(queryVector)

	similarity := make(map[string]map[string]float64, len(ids))
	for _, a := range ids {
		similarity[a] = make(map[string]float64, len(ids))
		for _, b := range ids {
			if a == b {
				similarity[a][b] = 1.0
				continue
			}
			similarity[a][b] = CalculateCosineSimilarity(normalized[a], normalized[b])
		}
	}

	mmrScores := make(map[string]float64, len(ids))
	for _, id := range ids {
		queryDocSim := CalculateCosineSimilarity(normalizedQuery, normalized[id])

		maxSim := 0.0
		for _, other := range ids {
			if other == id {
				continue
			}
			if sim := similarity[id][other]; sim > maxSim {
				maxSim = sim
			}
		}

		mmrScores[id] = mmrLambda*queryDocSim - (1-mmrLambda)*maxSim
	}

	type idMMR struct {
		id  string
		mmr float64
	}

	ranked := make([]idMMR, 0, len(ids))
	for _, id := range ids {
		if mmr := mmrScores[id]; mmr >= minScore {
			ranked = append(ranked, idMMR{id: id, mmr: mmr})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].mmr > ranked[j].mmr
	})

	resultIDs := make([]string, len(ranked))
	resultScores := make([]float64, len(ranked))
	for i, item := range ranked {
		resultIDs[i] = item.id
		resultScores[i] = item.mmr
	}

	return resultIDs, resultScores
}

// normalizeL2 L2-normalizes a vector, returning it unchanged if it has zero norm.
func normalizeL2(vector []float32) []float32 {
	if len(vector) == 0 {
		return vector
	}

	var norm float32
	for _, val := range vector {
		norm += val * val
	}
	norm = float32(math.Sqrt(float64(norm)))
	if norm == 0 {
		return vector
	}

	normalized := make([]float32, len(vector))
	for i, val := range vector {
		normalized[i] = val / norm
	}
	return normalized
}
