package cluster

import (
	"time"

	"github.com/inkfell/cairn/internal/core/model"
)

// SelectCandidates picks the events eligible for this run. With force set,
// every event carrying an embedding is re-partitioned. Otherwise only the
// active working set is considered: events never clustered, or modified or
// accessed within the recency cutoff. An old untouched event is not pulled
// back in just because a new neighbor appeared; that is the documented cost
// of the incremental strategy.
func SelectCandidates(events []model.EventNode, force bool, windowDays int, now time.Time) []model.EventNode {
	cutoff := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	var candidates []model.EventNode
	for _, e := range events {
		if !e.HasEmbedding() {
			continue
		}
		if force {
			candidates = append(candidates, e)
			continue
		}
		switch {
		case e.ClusterID == "":
			candidates = append(candidates, e)
		case e.UpdatedAt.After(cutoff):
			candidates = append(candidates, e)
		case e.LastAccessedAt != nil && e.LastAccessedAt.After(cutoff):
			candidates = append(candidates, e)
		}
	}
	return candidates
}
