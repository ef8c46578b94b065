package core

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfell/cairn/internal/core/cluster"
	"github.com/inkfell/cairn/internal/core/model"
	"github.com/inkfell/cairn/internal/store"
)

type mockLLM struct {
	Response string
	Err      error
}

func (m *mockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// recordingStore wraps an EventStore, counts calls and injects failures.
type recordingStore struct {
	store.EventStore
	saveClusterCalls int
	updateCalls      int
	runRecordCalls   int
	saveClustersErr  error
	updateClusterErr error
	orderViolated    bool
}

func (r *recordingStore) SaveClusters(ctx context.Context, clusters []model.ClusterNode) error {
	r.saveClusterCalls++
	if r.saveClustersErr != nil {
		return r.saveClustersErr
	}
	return r.EventStore.SaveClusters(ctx, clusters)
}

func (r *recordingStore) UpdateEventCluster(ctx context.Context, eventUUID, clusterID string) error {
	// Membership writes must never precede the cluster write.
	if r.saveClusterCalls == 0 {
		r.orderViolated = true
	}
	r.updateCalls++
	if r.updateClusterErr != nil {
		return r.updateClusterErr
	}
	return r.EventStore.UpdateEventCluster(ctx, eventUUID, clusterID)
}

func (r *recordingStore) SaveRunRecord(ctx context.Context, record model.RunRecord) error {
	r.runRecordCalls++
	return r.EventStore.SaveRunRecord(ctx, record)
}

func unitVec(degrees float64) []float32 {
	rad := degrees * math.Pi / 180
	return []float32{float32(math.Cos(rad)), float32(math.Sin(rad))}
}

func seedEvent(t *testing.T, st store.EventStore, uuid, eventType string, embedding []float32, occurred time.Time) {
	t.Helper()
	err := st.SaveEvent(context.Background(), model.EventNode{
		UUID:      uuid,
		Name:      uuid,
		EventType: eventType,
		Embedding: embedding,
		StartTime: &occurred,
		CreatedAt: occurred,
		UpdatedAt: occurred,
	})
	require.NoError(t, err)
}

func newTestOrganizer(t *testing.T, st store.EventStore, llmClient *mockLLM) *Organizer {
	t.Helper()
	org, err := NewOrganizer(st, llmClient, cluster.DefaultParams(), "", nil)
	require.NoError(t, err)
	return org
}

func TestOrganizeGraph_EmptyGraph(t *testing.T) {
	mem := store.NewMemoryStore()
	rec := &recordingStore{EventStore: mem}
	org := newTestOrganizer(t, rec, &mockLLM{Response: "title"})

	result := org.OrganizeGraph(context.Background(), false, nil)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.ClustersCreated)
	assert.Equal(t, 0, result.EventsProcessed)

	// Nothing to do means no storage writes at all, not even a run record.
	assert.Zero(t, rec.saveClusterCalls)
	assert.Zero(t, rec.updateCalls)
	assert.Zero(t, rec.runRecordCalls)
}

func TestOrganizeGraph_HappyPath(t *testing.T) {
	mem := store.NewMemoryStore()
	// Old events so the idempotence check below is meaningful.
	occurred := time.Now().UTC().AddDate(0, 0, -60)
	seedEvent(t, mem, "e1", "meeting", unitVec(0), occurred)
	seedEvent(t, mem, "e2", "meeting", unitVec(10), occurred.AddDate(0, 0, 2))
	seedEvent(t, mem, "e3", "meeting", unitVec(5), occurred.AddDate(0, 0, 4))
	seedEvent(t, mem, "outlier", "travel", unitVec(90), occurred.AddDate(0, 0, 1))

	org := newTestOrganizer(t, mem, &mockLLM{Response: "Planning Meetings"})
	ctx := context.Background()

	var stages []string
	result := org.OrganizeGraph(ctx, false, func(stage string, done, total int) {
		stages = append(stages, stage)
	})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, 1, result.ClustersCreated)
	assert.Equal(t, 4, result.EventsProcessed)
	assert.Equal(t, 3, result.EventsClustered)
	assert.Equal(t, 3.0, result.AvgClusterSize)
	assert.Greater(t, result.AvgSimilarity, 0.9)
	assert.Contains(t, stages, "selected")
	assert.Contains(t, stages, "done")

	clusters, err := org.AllClusters(ctx)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, "Planning Meetings", clusters[0].Name)
	assert.Equal(t, 3, clusters[0].MemberCount)

	members, err := org.ClusterMembers(ctx, clusters[0].UUID)
	require.NoError(t, err)
	assert.Len(t, members, 3)

	unclustered, err := org.UnclusteredEvents(ctx)
	require.NoError(t, err)
	require.Len(t, unclustered, 1)
	assert.Equal(t, "outlier", unclustered[0].UUID)

	runs, err := org.RunHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, Algorithm, runs[0].Algorithm)
	assert.Equal(t, 4, runs[0].CandidateCount)
	assert.Equal(t, 1, runs[0].EventsUnclustered)
	assert.Equal(t, 0.85, runs[0].Params.Threshold)
}

func TestOrganizeGraph_Idempotent(t *testing.T) {
	mem := store.NewMemoryStore()
	occurred := time.Now().UTC().AddDate(0, 0, -60)
	seedEvent(t, mem, "e1", "meeting", unitVec(0), occurred)
	seedEvent(t, mem, "e2", "meeting", unitVec(5), occurred.AddDate(0, 0, 1))

	org := newTestOrganizer(t, mem, &mockLLM{Response: "title"})
	ctx := context.Background()

	first := org.OrganizeGraph(ctx, false, nil)
	require.True(t, first.Success)
	assert.Equal(t, 1, first.ClustersCreated)

	// No intervening changes: the candidate set is now empty.
	second := org.OrganizeGraph(ctx, false, nil)
	require.True(t, second.Success)
	assert.Equal(t, 0, second.ClustersCreated)
	assert.Equal(t, 0, second.EventsProcessed)
}

func TestOrganizeGraph_TitleFailureDoesNotAbort(t *testing.T) {
	mem := store.NewMemoryStore()
	occurred := time.Now().UTC().AddDate(0, 0, -60)
	seedEvent(t, mem, "e1", "meeting", unitVec(0), occurred)
	seedEvent(t, mem, "e2", "meeting", unitVec(5), occurred.AddDate(0, 0, 1))
	seedEvent(t, mem, "e3", "meeting", unitVec(10), occurred.AddDate(0, 0, 2))

	org := newTestOrganizer(t, mem, &mockLLM{Err: errors.New("generation timeout")})
	ctx := context.Background()

	result := org.OrganizeGraph(ctx, false, nil)
	require.True(t, result.Success)
	assert.Equal(t, 1, result.ClustersCreated)

	clusters, err := org.AllClusters(ctx)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, "meeting related events (3)", clusters[0].Name)
}

func TestOrganizeGraph_PersistenceFailure(t *testing.T) {
	mem := store.NewMemoryStore()
	occurred := time.Now().UTC().AddDate(0, 0, -60)
	seedEvent(t, mem, "e1", "meeting", unitVec(0), occurred)
	seedEvent(t, mem, "e2", "meeting", unitVec(5), occurred.AddDate(0, 0, 1))

	rec := &recordingStore{EventStore: mem, saveClustersErr: store.ErrPersistence}
	org := newTestOrganizer(t, rec, &mockLLM{Response: "title"})

	result := org.OrganizeGraph(context.Background(), false, nil)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "save clusters")
	// Membership writes never started: cluster-before-members write order.
	assert.Zero(t, rec.updateCalls)
	assert.Zero(t, rec.runRecordCalls)
}

func TestOrganizeGraph_MembershipWriteFailure(t *testing.T) {
	mem := store.NewMemoryStore()
	occurred := time.Now().UTC().AddDate(0, 0, -60)
	seedEvent(t, mem, "e1", "meeting", unitVec(0), occurred)
	seedEvent(t, mem, "e2", "meeting", unitVec(5), occurred.AddDate(0, 0, 1))

	rec := &recordingStore{EventStore: mem, updateClusterErr: store.ErrPersistence}
	org := newTestOrganizer(t, rec, &mockLLM{Response: "title"})

	result := org.OrganizeGraph(context.Background(), false, nil)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "update event cluster")
	// Clusters were already written; the run record was not.
	assert.Equal(t, 1, rec.saveClusterCalls)
	assert.Zero(t, rec.runRecordCalls)
}

func TestOrganizeGraph_WriteOrder(t *testing.T) {
	mem := store.NewMemoryStore()
	occurred := time.Now().UTC().AddDate(0, 0, -60)
	seedEvent(t, mem, "e1", "meeting", unitVec(0), occurred)
	seedEvent(t, mem, "e2", "meeting", unitVec(5), occurred.AddDate(0, 0, 1))

	rec := &recordingStore{EventStore: mem}
	org := newTestOrganizer(t, rec, &mockLLM{Response: "title"})

	result := org.OrganizeGraph(context.Background(), false, nil)
	require.True(t, result.Success)
	assert.False(t, rec.orderViolated)
	assert.Equal(t, 2, rec.updateCalls)
	assert.Equal(t, 1, rec.runRecordCalls)
}

func TestOrganizeGraph_Cancelled(t *testing.T) {
	mem := store.NewMemoryStore()
	occurred := time.Now().UTC().AddDate(0, 0, -60)
	seedEvent(t, mem, "e1", "meeting", unitVec(0), occurred)
	seedEvent(t, mem, "e2", "meeting", unitVec(5), occurred.AddDate(0, 0, 1))

	org := newTestOrganizer(t, mem, &mockLLM{Response: "title"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := org.OrganizeGraph(ctx, false, nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "cancelled")
}

func TestOrganizeGraph_ForceReclusterClearsStale(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()
	occurred := time.Now().UTC().AddDate(0, 0, -60)

	// Two events previously clustered together whose embeddings no longer
	// agree: a forced re-partition must clear the stale assignment.
	orthogonal := [][]float32{unitVec(0), unitVec(90)}
	for i, uuid := range []string{"e1", "e2"} {
		o := occurred.AddDate(0, 0, i)
		require.NoError(t, mem.SaveEvent(ctx, model.EventNode{
			UUID:      uuid,
			Name:      uuid,
			EventType: "meeting",
			Embedding: orthogonal[i],
			StartTime: &o,
			CreatedAt: o,
			UpdatedAt: o,
			ClusterID: "cluster_stale",
		}))
	}

	org := newTestOrganizer(t, mem, &mockLLM{Response: "title"})
	result := org.OrganizeGraph(ctx, true, nil)
	require.True(t, result.Success)
	assert.Equal(t, 0, result.ClustersCreated)

	unclustered, err := org.UnclusteredEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, unclustered, 2)
}

func TestNewOrganizer_InvalidParameters(t *testing.T) {
	mem := store.NewMemoryStore()
	_, err := NewOrganizer(mem, nil, cluster.Params{Threshold: -1}, "", nil)
	assert.ErrorIs(t, err, cluster.ErrInvalidParameters)
}

func TestOrganizeGraph_SweepSupersededClusters(t *testing.T) {
	mem := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, mem.SaveClusters(ctx, []model.ClusterNode{
		{UUID: "cluster_orphan", Name: "orphan", NodeType: model.ClusterNodeType},
	}))

	org := newTestOrganizer(t, mem, nil)
	deleted, err := org.SweepSupersededClusters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}
