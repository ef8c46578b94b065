// Package store defines the persistence collaborator for the event graph
// and its Neo4j and in-memory implementations.
package store

import (
	"context"
	"errors"

	"github.com/inkfell/cairn/internal/core/model"
)

// ErrPersistence marks storage-layer failures. Any operation failing with
// it aborts a clustering run.
var ErrPersistence = errors.New("persistence failure")

// EventStore is the storage collaborator. Events and clusters are value
// records keyed by stable IDs; all mutation goes through explicit calls
// here, never through shared in-place mutation.
type EventStore interface {
	ListEvents(ctx context.Context) ([]model.EventNode, error)
	SaveEvent(ctx context.Context, event model.EventNode) error
	// UpdateEventCluster writes the cluster back-reference on one event.
	// An empty clusterID clears it.
	UpdateEventCluster(ctx context.Context, eventUUID, clusterID string) error
	ListEventsByCluster(ctx context.Context, clusterID string) ([]model.EventNode, error)
	ListUnclusteredEvents(ctx context.Context) ([]model.EventNode, error)

	SaveClusters(ctx context.Context, clusters []model.ClusterNode) error
	ListClusters(ctx context.Context) ([]model.ClusterNode, error)
	// DeleteEmptyClusters removes superseded clusters no event references
	// and returns how many were removed.
	DeleteEmptyClusters(ctx context.Context) (int, error)

	SaveRunRecord(ctx context.Context, record model.RunRecord) error
	ListRunRecords(ctx context.Context, limit int) ([]model.RunRecord, error)

	BuildIndices(ctx context.Context) error
	Close(ctx context.Context) error
}
