// This file provides a stub implementation of the Kuzu driver.
// The Kuzu Go library dependency is not yet available.
// To enable full functionality, add the following dependency to go.mod:
//     github.com/kuzudb/go-kuzu
// and replace the stub implementations with actual Kuzu API calls.

package driver

import (
	"context"
	"errors"
	"time"

	"github.com/temporalmesh/graphiti/pkg/types"
)

// KuzuDriver implements the GraphDriver interface for Kuzu databases.
// Kuzu is an embedded graph database management system built for query speed and scalability.
// This is currently a stub implementation.
type KuzuDriver struct {
	database   interface{} // placeholder for *kuzu.Database
	conn       interface{} // placeholder for *kuzu.Connection
	dbPath     string
	numThreads int
}

// NewKuzuDriver creates a new Kuzu driver instance.
// Kuzu is an embedded database, so it works with a local directory path.
// numThreads optionally bounds Kuzu's internal query parallelism; it defaults
// to 1 when omitted.
//
// Example:
//
//	driver, err := driver.NewKuzuDriver("./kuzu_db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer driver.Close()
func NewKuzuDriver(dbPath string, numThreads ...int) (*KuzuDriver, error) {
	if dbPath == "" {
		dbPath = "./kuzu_graphiti_db"
	}

	threads := 1
	if len(numThreads) > 0 && numThreads[0] > 0 {
		threads = numThreads[0]
	}

	driver := &KuzuDriver{
		database:   nil,
		conn:       nil,
		dbPath:     dbPath,
		numThreads: threads,
	}

	return driver, nil
}

const kuzuNotImplemented = "KuzuDriver not implemented - requires github.com/kuzudb/go-kuzu dependency"

// All methods return "not implemented" errors as this is a stub implementation

func (k *KuzuDriver) GetNode(ctx context.Context, nodeID, groupID string) (*types.Node, error) {
	return nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) UpsertNode(ctx context.Context, node *types.Node) error {
	return errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) DeleteNode(ctx context.Context, nodeID, groupID string) error {
	return errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) GetNodes(ctx context.Context, nodeIDs []string, groupID string) ([]*types.Node, error) {
	return nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) GetEdge(ctx context.Context, edgeID, groupID string) (*types.Edge, error) {
	return nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) UpsertEdge(ctx context.Context, edge *types.Edge) error {
	return errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) DeleteEdge(ctx context.Context, edgeID, groupID string) error {
	return errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) GetEdges(ctx context.Context, edgeIDs []string, groupID string) ([]*types.Edge, error) {
	return nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) GetNeighbors(ctx context.Context, nodeID, groupID string, maxDistance int) ([]*types.Node, error) {
	return nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) GetRelatedNodes(ctx context.Context, nodeID, groupID string, edgeTypes []types.EdgeType) ([]*types.Node, error) {
	return nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) SearchNodesByEmbedding(ctx context.Context, embedding []float32, groupID string, limit int) ([]*types.Node, error) {
	return nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) SearchEdgesByEmbedding(ctx context.Context, embedding []float32, groupID string, limit int) ([]*types.Edge, error) {
	return nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) SearchNodes(ctx context.Context, query, groupID string, options *SearchOptions) ([]*types.Node, error) {
	return nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) SearchEdges(ctx context.Context, query, groupID string, options *SearchOptions) ([]*types.Edge, error) {
	return nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) SearchNodesByVector(ctx context.Context, vector []float32, groupID string, options *VectorSearchOptions) ([]*types.Node, error) {
	return nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) SearchEdgesByVector(ctx context.Context, vector []float32, groupID string, options *VectorSearchOptions) ([]*types.Edge, error) {
	return nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) UpsertNodes(ctx context.Context, nodes []*types.Node) error {
	return errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) UpsertEdges(ctx context.Context, edges []*types.Edge) error {
	return errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) GetNodesInTimeRange(ctx context.Context, start, end time.Time, groupID string) ([]*types.Node, error) {
	return nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) GetEdgesInTimeRange(ctx context.Context, start, end time.Time, groupID string) ([]*types.Edge, error) {
	return nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) GetCommunities(ctx context.Context, groupID string, level int) ([]*types.Node, error) {
	return nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) BuildCommunities(ctx context.Context, groupID string) error {
	return errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) DeleteByGroupID(ctx context.Context, groupID string) error {
	return errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) CreateIndices(ctx context.Context) error {
	return errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) DropIndices(ctx context.Context) error {
	return errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) GetNodeNeighbors(ctx context.Context, nodeUUID, groupID string) ([]types.Neighbor, error) {
	return nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) GetStats(ctx context.Context, groupID string) (*GraphStats, error) {
	return nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) Provider() GraphProvider {
	return GraphProviderKuzu
}

func (k *KuzuDriver) ExecuteQuery(query string, params map[string]interface{}) (interface{}, interface{}, interface{}, error) {
	return nil, nil, nil, errors.New(kuzuNotImplemented)
}

func (k *KuzuDriver) Session(database *string) GraphDriverSession {
	return &kuzuDriverSession{driver: k}
}

// Close closes the Kuzu driver.
func (k *KuzuDriver) Close() error {
	// No-op for stub implementation
	return nil
}

// kuzuDriverSession is a stub GraphDriverSession for KuzuDriver.
type kuzuDriverSession struct {
	driver *KuzuDriver
}

func (s *kuzuDriverSession) Enter(ctx context.Context) (GraphDriverSession, error) {
	return s, nil
}

func (s *kuzuDriverSession) Exit(ctx context.Context, excType, excVal, excTb interface{}) error {
	return nil
}

func (s *kuzuDriverSession) Close() error {
	return nil
}

func (s *kuzuDriverSession) Run(ctx context.Context, query interface{}, kwargs map[string]interface{}) error {
	return errors.New(kuzuNotImplemented)
}

func (s *kuzuDriverSession) ExecuteWrite(ctx context.Context, fn func(context.Context, GraphDriverSession, ...interface{}) (interface{}, error), args ...interface{}) (interface{}, error) {
	return fn(ctx, s, args...)
}

func (s *kuzuDriverSession) Provider() GraphProvider {
	return GraphProviderKuzu
}
