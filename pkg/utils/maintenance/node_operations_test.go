package maintenance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temporalmesh/graphiti/pkg/types"
)

func TestCompressExtractedNodesNameMerge(t *testing.T) {
	nodeOps := &NodeOperations{}

	alice := &types.Node{ID: "n1", Name: "Alice"}
	aliceDup := &types.Node{ID: "n2", Name: "  alice  "}
	bob := &types.Node{ID: "n3", Name: "Bob"}

	survivors, uuidMap, err := nodeOps.CompressExtractedNodes(context.Background(),
		[]*types.Node{alice, aliceDup, bob})
	require.NoError(t, err)

	require.Len(t, survivors, 2)
	assert.Equal(t, "n1", uuidMap["n2"])
	_, hasAlice := uuidMap["n1"]
	assert.False(t, hasAlice, "canonical node should not appear as a map source")
	_, hasBob := uuidMap["n3"]
	assert.False(t, hasBob)
}

func TestCompressExtractedNodesEmpty(t *testing.T) {
	nodeOps := &NodeOperations{}

	survivors, uuidMap, err := nodeOps.CompressExtractedNodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, survivors)
	assert.Empty(t, uuidMap)
}

func TestCompressExtractedNodesSingleSurvivorSkipsSemanticPass(t *testing.T) {
	nodeOps := &NodeOperations{}

	only := &types.Node{ID: "n1", Name: "Acme"}

	survivors, uuidMap, err := nodeOps.CompressExtractedNodes(context.Background(), []*types.Node{only})
	require.NoError(t, err)
	require.Len(t, survivors, 1)
	assert.Equal(t, "n1", survivors[0].ID)
	assert.Empty(t, uuidMap)
}
