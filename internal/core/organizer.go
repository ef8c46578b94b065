// Package core wires the clustering engine together: candidate selection,
// grouping, summarization, persistence and run bookkeeping.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkfell/cairn/internal/core/cluster"
	"github.com/inkfell/cairn/internal/core/model"
	"github.com/inkfell/cairn/internal/llm"
	"github.com/inkfell/cairn/internal/store"
)

// Algorithm identifies the clustering strategy in run records.
const Algorithm = "greedy-anchor-temporal-v1"

// ProgressFunc receives stage-boundary notifications during a run. It is an
// observability aid; passing nil is fine.
type ProgressFunc func(stage string, done, total int)

// Organizer runs the clustering pipeline against the storage and
// text-generation collaborators it was constructed with. Callers must
// serialize runs against the same store; the pipeline reads then writes
// cluster assignments without isolation from a concurrent run.
type Organizer struct {
	store      store.EventStore
	summarizer *cluster.Summarizer
	params     cluster.Params
	logger     *zap.Logger
	now        func() time.Time
}

// NewOrganizer validates params and builds an Organizer. llmClient may be
// nil; cluster titles then always use the deterministic fallback.
func NewOrganizer(st store.EventStore, llmClient llm.LLMClient, params cluster.Params, titlePrompt string, logger *zap.Logger) (*Organizer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Organizer{
		store:      st,
		summarizer: cluster.NewSummarizer(llmClient, titlePrompt, logger),
		params:     params,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// OrganizeGraph executes one clustering run. With force set the whole
// population is re-partitioned; otherwise only the active working set is.
// Per-cluster title failures are absorbed by the summarizer; any other
// failure aborts the run and comes back as a structured failure result,
// never as a fault.
func (o *Organizer) OrganizeGraph(ctx context.Context, force bool, onProgress ProgressFunc) model.RunResult {
	start := o.now()
	progress := func(stage string, done, total int) {
		if onProgress != nil {
			onProgress(stage, done, total)
		}
	}

	events, err := o.store.ListEvents(ctx)
	if err != nil {
		return o.failResult(start, fmt.Errorf("list events: %w", err))
	}

	candidates := cluster.SelectCandidates(events, force, o.params.WindowDays, o.now())
	progress("selected", len(candidates), len(events))
	o.logger.Info("selected clustering candidates",
		zap.Int("candidates", len(candidates)),
		zap.Int("population", len(events)),
		zap.Bool("force", force))

	if len(candidates) == 0 {
		return model.RunResult{
			Success:         true,
			Message:         "no candidates to cluster",
			DurationSeconds: o.now().Sub(start).Seconds(),
		}
	}

	groups, err := cluster.GreedyGroups(candidates, o.params)
	if err != nil {
		return o.failResult(start, fmt.Errorf("group candidates: %w", err))
	}
	progress("clustered", len(groups), len(candidates))

	clusters := make([]model.ClusterNode, 0, len(groups))
	for i, g := range groups {
		// Cancellation is honored at the external-call boundary, before
		// each cluster's title generation.
		if ctx.Err() != nil {
			return o.failResult(start, fmt.Errorf("run cancelled: %w", ctx.Err()))
		}
		node, err := o.summarizer.Summarize(ctx, g)
		if err != nil {
			return o.failResult(start, fmt.Errorf("summarize cluster: %w", err))
		}
		clusters = append(clusters, node)
		progress("summarized", i+1, len(groups))
	}

	// Clusters are persisted before member back-references: a crash between
	// the two can orphan a ClusterNode, but it can never leave an event
	// pointing at a cluster that was not written.
	if err := o.store.SaveClusters(ctx, clusters); err != nil {
		return o.failResult(start, fmt.Errorf("save clusters: %w", err))
	}

	clusterOf := make(map[string]string)
	eventsClustered := 0
	for _, c := range clusters {
		for _, memberUUID := range c.MemberUUIDs {
			clusterOf[memberUUID] = c.UUID
			if err := o.store.UpdateEventCluster(ctx, memberUUID, c.UUID); err != nil {
				return o.failResult(start, fmt.Errorf("update event cluster: %w", err))
			}
			eventsClustered++
		}
	}

	if force {
		// A full re-partition supersedes all previous assignments, so
		// candidates that ended up in no group lose their stale one.
		for _, c := range candidates {
			if c.ClusterID != "" && clusterOf[c.UUID] == "" {
				if err := o.store.UpdateEventCluster(ctx, c.UUID, ""); err != nil {
					return o.failResult(start, fmt.Errorf("clear event cluster: %w", err))
				}
			}
		}
	}
	progress("persisted", eventsClustered, len(candidates))

	avgSize := 0.0
	avgSim := 0.0
	if len(clusters) > 0 {
		for _, c := range clusters {
			avgSim += c.AvgSimilarity
		}
		avgSize = float64(eventsClustered) / float64(len(clusters))
		avgSim /= float64(len(clusters))
	}

	record := model.RunRecord{
		UUID:              uuid.NewString(),
		RunAt:             start.UTC(),
		CandidateCount:    len(candidates),
		ClustersCreated:   len(clusters),
		EventsClustered:   eventsClustered,
		EventsUnclustered: len(candidates) - eventsClustered,
		Algorithm:         Algorithm,
		AvgClusterSize:    avgSize,
		AvgSimilarity:     avgSim,
		Params: model.ParamSnapshot{
			Threshold:  o.params.Threshold,
			WindowDays: o.params.WindowDays,
			MinSize:    o.params.MinSize,
			MaxSize:    o.params.MaxSize,
		},
	}
	if err := o.store.SaveRunRecord(ctx, record); err != nil {
		return o.failResult(start, fmt.Errorf("save run record: %w", err))
	}

	duration := o.now().Sub(start)
	progress("done", len(clusters), len(clusters))
	o.logger.Info("clustering run complete",
		zap.Int("clusters_created", len(clusters)),
		zap.Int("events_clustered", eventsClustered),
		zap.Duration("duration", duration))

	return model.RunResult{
		Success:         true,
		Message:         fmt.Sprintf("created %d clusters from %d candidates", len(clusters), len(candidates)),
		ClustersCreated: len(clusters),
		EventsProcessed: len(candidates),
		EventsClustered: eventsClustered,
		AvgClusterSize:  avgSize,
		AvgSimilarity:   avgSim,
		DurationSeconds: duration.Seconds(),
	}
}

func (o *Organizer) failResult(start time.Time, err error) model.RunResult {
	o.logger.Error("clustering run failed", zap.Error(err))
	return model.RunResult{
		Success:         false,
		Error:           err.Error(),
		DurationSeconds: o.now().Sub(start).Seconds(),
	}
}

// AllClusters is the read-only view over persisted clusters.
func (o *Organizer) AllClusters(ctx context.Context) ([]model.ClusterNode, error) {
	return o.store.ListClusters(ctx)
}

// ClusterMembers lists the events assigned to one cluster.
func (o *Organizer) ClusterMembers(ctx context.Context, clusterID string) ([]model.EventNode, error) {
	return o.store.ListEventsByCluster(ctx, clusterID)
}

// UnclusteredEvents lists events with no cluster assignment.
func (o *Organizer) UnclusteredEvents(ctx context.Context) ([]model.EventNode, error) {
	return o.store.ListUnclusteredEvents(ctx)
}

// RunHistory lists recent run records, newest first.
func (o *Organizer) RunHistory(ctx context.Context, limit int) ([]model.RunRecord, error) {
	return o.store.ListRunRecords(ctx, limit)
}

// SweepSupersededClusters removes clusters no event references anymore.
func (o *Organizer) SweepSupersededClusters(ctx context.Context) (int, error) {
	return o.store.DeleteEmptyClusters(ctx)
}
