package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/inkfell/cairn/internal/core/model"
)

// MemoryStore is a map-backed EventStore. It backs the "memory" storage
// backend for local use and is the fixture the engine tests run against.
// Listing order is insertion order, so runs over it are deterministic.
type MemoryStore struct {
	mu       sync.RWMutex
	events   map[string]model.EventNode
	order    []string
	clusters map[string]model.ClusterNode
	runs     []model.RunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:   make(map[string]model.EventNode),
		clusters: make(map[string]model.ClusterNode),
	}
}

func (s *MemoryStore) ListEvents(ctx context.Context) ([]model.EventNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]model.EventNode, 0, len(s.order))
	for _, uuid := range s.order {
		events = append(events, s.events[uuid])
	}
	return events, nil
}

func (s *MemoryStore) SaveEvent(ctx context.Context, event model.EventNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[event.UUID]; !exists {
		s.order = append(s.order, event.UUID)
	}
	s.events[event.UUID] = event
	return nil
}

func (s *MemoryStore) UpdateEventCluster(ctx context.Context, eventUUID, clusterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, exists := s.events[eventUUID]
	if !exists {
		return fmt.Errorf("%w: unknown event %s", ErrPersistence, eventUUID)
	}
	event.ClusterID = clusterID
	s.events[eventUUID] = event
	return nil
}

func (s *MemoryStore) ListEventsByCluster(ctx context.Context, clusterID string) ([]model.EventNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []model.EventNode
	for _, uuid := range s.order {
		if s.events[uuid].ClusterID == clusterID {
			events = append(events, s.events[uuid])
		}
	}
	return events, nil
}

func (s *MemoryStore) ListUnclusteredEvents(ctx context.Context) ([]model.EventNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []model.EventNode
	for _, uuid := range s.order {
		if s.events[uuid].ClusterID == "" {
			events = append(events, s.events[uuid])
		}
	}
	return events, nil
}

func (s *MemoryStore) SaveClusters(ctx context.Context, clusters []model.ClusterNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range clusters {
		s.clusters[c.UUID] = c
	}
	return nil
}

func (s *MemoryStore) ListClusters(ctx context.Context) ([]model.ClusterNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clusters := make([]model.ClusterNode, 0, len(s.clusters))
	for _, c := range s.clusters {
		clusters = append(clusters, c)
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].CreatedAt.After(clusters[j].CreatedAt)
	})
	return clusters, nil
}

func (s *MemoryStore) DeleteEmptyClusters(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	referenced := make(map[string]bool)
	for _, e := range s.events {
		if e.ClusterID != "" {
			referenced[e.ClusterID] = true
		}
	}

	deleted := 0
	for uuid := range s.clusters {
		if !referenced[uuid] {
			delete(s.clusters, uuid)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) SaveRunRecord(ctx context.Context, record model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, record)
	return nil
}

func (s *MemoryStore) ListRunRecords(ctx context.Context, limit int) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.runs) {
		limit = len(s.runs)
	}

	// Newest first.
	records := make([]model.RunRecord, 0, limit)
	for i := len(s.runs) - 1; i >= 0 && len(records) < limit; i-- {
		records = append(records, s.runs[i])
	}
	return records, nil
}

func (s *MemoryStore) BuildIndices(ctx context.Context) error { return nil }

func (s *MemoryStore) Close(ctx context.Context) error { return nil }
