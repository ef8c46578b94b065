package store

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/inkfell/cairn/internal/core/model"
)

// Neo4jStore persists the event graph in Neo4j (or Memgraph over bolt).
// Times are stored as RFC 3339 strings so records round-trip identically
// across both engines.
type Neo4jStore struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

func NewNeo4jStore(uri, username, password string, logger *zap.Logger) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}
	if err := driver.VerifyConnectivity(context.Background()); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("connected to graph store", zap.String("uri", uri))
	return &Neo4jStore{driver: driver, logger: logger}, nil
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Neo4jStore) BuildIndices(ctx context.Context) error {
	for _, q := range buildIndexQueries {
		if _, err := s.execute(ctx, q, nil); err != nil {
			// The index may already exist.
			s.logger.Warn("failed to create index", zap.String("query", q), zap.Error(err))
		}
	}
	return nil
}

func (s *Neo4jStore) execute(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return *result, nil
}

func (s *Neo4jStore) ListEvents(ctx context.Context) ([]model.EventNode, error) {
	return s.queryEvents(ctx, listEventsQuery, nil)
}

func (s *Neo4jStore) ListEventsByCluster(ctx context.Context, clusterID string) ([]model.EventNode, error) {
	return s.queryEvents(ctx, listEventsByClusterQuery, map[string]interface{}{"cluster_id": clusterID})
}

func (s *Neo4jStore) ListUnclusteredEvents(ctx context.Context) ([]model.EventNode, error) {
	return s.queryEvents(ctx, listUnclusteredEventsQuery, nil)
}

func (s *Neo4jStore) queryEvents(ctx context.Context, query string, params map[string]interface{}) ([]model.EventNode, error) {
	result, err := s.execute(ctx, query, params)
	if err != nil {
		return nil, err
	}

	events := make([]model.EventNode, 0, len(result.Records))
	for _, rec := range result.Records {
		events = append(events, eventFromRecord(rec))
	}
	return events, nil
}

func (s *Neo4jStore) SaveEvent(ctx context.Context, event model.EventNode) error {
	_, err := s.execute(ctx, saveEventQuery, map[string]interface{}{
		"uuid":             event.UUID,
		"name":             event.Name,
		"event_type":       event.EventType,
		"content":          event.Content,
		"embedding":        event.Embedding,
		"start_time":       timePtrParam(event.StartTime),
		"created_at":       event.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":       event.UpdatedAt.Format(time.RFC3339Nano),
		"last_accessed_at": timePtrParam(event.LastAccessedAt),
		"cluster_id":       event.ClusterID,
	})
	return err
}

func (s *Neo4jStore) UpdateEventCluster(ctx context.Context, eventUUID, clusterID string) error {
	_, err := s.execute(ctx, updateEventClusterQuery, map[string]interface{}{
		"uuid":       eventUUID,
		"cluster_id": clusterID,
	})
	return err
}

func (s *Neo4jStore) SaveClusters(ctx context.Context, clusters []model.ClusterNode) error {
	for _, c := range clusters {
		_, err := s.execute(ctx, saveClusterQuery, map[string]interface{}{
			"uuid":           c.UUID,
			"name":           c.Name,
			"node_type":      c.NodeType,
			"description":    c.Description,
			"centroid":       c.Centroid,
			"member_count":   c.MemberCount,
			"avg_similarity": c.AvgSimilarity,
			"earliest_event": c.EarliestEvent.Format(time.RFC3339Nano),
			"latest_event":   c.LatestEvent.Format(time.RFC3339Nano),
			"member_uuids":   c.MemberUUIDs,
			"created_at":     c.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Neo4jStore) ListClusters(ctx context.Context) ([]model.ClusterNode, error) {
	result, err := s.execute(ctx, listClustersQuery, nil)
	if err != nil {
		return nil, err
	}

	clusters := make([]model.ClusterNode, 0, len(result.Records))
	for _, rec := range result.Records {
		clusters = append(clusters, model.ClusterNode{
			UUID:          recString(rec, "uuid"),
			Name:          recString(rec, "name"),
			NodeType:      recString(rec, "node_type"),
			Description:   recString(rec, "description"),
			Centroid:      recVector(rec, "centroid"),
			MemberCount:   recInt(rec, "member_count"),
			AvgSimilarity: recFloat(rec, "avg_similarity"),
			EarliestEvent: recTime(rec, "earliest_event"),
			LatestEvent:   recTime(rec, "latest_event"),
			MemberUUIDs:   recStrings(rec, "member_uuids"),
			CreatedAt:     recTime(rec, "created_at"),
		})
	}
	return clusters, nil
}

func (s *Neo4jStore) DeleteEmptyClusters(ctx context.Context) (int, error) {
	result, err := s.execute(ctx, deleteEmptyClustersQuery, nil)
	if err != nil {
		return 0, err
	}
	if len(result.Records) == 0 {
		return 0, nil
	}
	return recInt(result.Records[0], "deleted"), nil
}

func (s *Neo4jStore) SaveRunRecord(ctx context.Context, record model.RunRecord) error {
	_, err := s.execute(ctx, saveRunRecordQuery, map[string]interface{}{
		"uuid":               record.UUID,
		"run_at":             record.RunAt.Format(time.RFC3339Nano),
		"candidate_count":    record.CandidateCount,
		"clusters_created":   record.ClustersCreated,
		"events_clustered":   record.EventsClustered,
		"events_unclustered": record.EventsUnclustered,
		"algorithm":          record.Algorithm,
		"avg_cluster_size":   record.AvgClusterSize,
		"avg_similarity":     record.AvgSimilarity,
		"threshold":          record.Params.Threshold,
		"window_days":        record.Params.WindowDays,
		"min_size":           record.Params.MinSize,
		"max_size":           record.Params.MaxSize,
	})
	return err
}

func (s *Neo4jStore) ListRunRecords(ctx context.Context, limit int) ([]model.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	result, err := s.execute(ctx, listRunRecordsQuery, map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, err
	}

	records := make([]model.RunRecord, 0, len(result.Records))
	for _, rec := range result.Records {
		records = append(records, model.RunRecord{
			UUID:              recString(rec, "uuid"),
			RunAt:             recTime(rec, "run_at"),
			CandidateCount:    recInt(rec, "candidate_count"),
			ClustersCreated:   recInt(rec, "clusters_created"),
			EventsClustered:   recInt(rec, "events_clustered"),
			EventsUnclustered: recInt(rec, "events_unclustered"),
			Algorithm:         recString(rec, "algorithm"),
			AvgClusterSize:    recFloat(rec, "avg_cluster_size"),
			AvgSimilarity:     recFloat(rec, "avg_similarity"),
			Params: model.ParamSnapshot{
				Threshold:  recFloat(rec, "threshold"),
				WindowDays: recInt(rec, "window_days"),
				MinSize:    recInt(rec, "min_size"),
				MaxSize:    recInt(rec, "max_size"),
			},
		})
	}
	return records, nil
}

func eventFromRecord(rec *neo4j.Record) model.EventNode {
	return model.EventNode{
		UUID:           recString(rec, "uuid"),
		Name:           recString(rec, "name"),
		EventType:      recString(rec, "event_type"),
		Content:        recString(rec, "content"),
		Embedding:      recVector(rec, "embedding"),
		StartTime:      recTimePtr(rec, "start_time"),
		CreatedAt:      recTime(rec, "created_at"),
		UpdatedAt:      recTime(rec, "updated_at"),
		LastAccessedAt: recTimePtr(rec, "last_accessed_at"),
		ClusterID:      recString(rec, "cluster_id"),
	}
}

func timePtrParam(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func recString(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func recInt(rec *neo4j.Record, key string) int {
	v, _ := rec.Get(key)
	n, _ := v.(int64)
	return int(n)
}

func recFloat(rec *neo4j.Record, key string) float64 {
	v, _ := rec.Get(key)
	f, _ := v.(float64)
	return f
}

func recTime(rec *neo4j.Record, key string) time.Time {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func recTimePtr(rec *neo4j.Record, key string) *time.Time {
	v, _ := rec.Get(key)
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil
	}
	return &t
}

func recVector(rec *neo4j.Record, key string) []float32 {
	v, _ := rec.Get(key)
	raw, ok := v.([]interface{})
	if !ok || len(raw) == 0 {
		return nil
	}
	vec := make([]float32, 0, len(raw))
	for _, x := range raw {
		f, _ := x.(float64)
		vec = append(vec, float32(f))
	}
	return vec
}

func recStrings(rec *neo4j.Record, key string) []string {
	v, _ := rec.Get(key)
	raw, ok := v.([]interface{})
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, x := range raw {
		s, _ := x.(string)
		out = append(out, s)
	}
	return out
}
