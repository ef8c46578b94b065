package cluster

import (
	"time"

	"github.com/inkfell/cairn/internal/core/model"
	"github.com/inkfell/cairn/internal/core/similarity"
)

// Group is a completed grouping of events with the original index of the
// anchor that seeded it.
type Group struct {
	Members     []model.EventNode
	AnchorIndex int
}

// GreedyGroups partitions candidates with a single anchor-based pass,
// deterministic given the input order. Each unassigned candidate in turn
// becomes an anchor; later unassigned candidates join its group when their
// similarity to the anchor meets the threshold AND admitting them keeps the
// group's time span inside the window. Groups below the minimum size are
// discarded; their non-anchor members are released for later groups, the
// anchor is treated as noise for this run and not reconsidered.
//
// Similarity is checked against the anchor only, never pairwise among
// members, so two members can sit in one group while being mutually
// dissimilar. That is a deliberate cost/quality trade-off, not a bug.
func GreedyGroups(candidates []model.EventNode, p Params) ([]Group, error) {
	assigned := make([]bool, len(candidates))
	window := p.Window()

	var groups []Group
	for i := range candidates {
		if assigned[i] {
			continue
		}

		anchor := candidates[i]
		assigned[i] = true
		members := []model.EventNode{anchor}
		memberIdx := []int{i}
		earliest := anchor.OccurredAt()
		latest := earliest

		for j := i + 1; j < len(candidates); j++ {
			if assigned[j] {
				continue
			}
			if len(members) >= p.MaxSize {
				break
			}

			sim, err := similarity.Cosine(anchor.Embedding, candidates[j].Embedding)
			if err != nil {
				return nil, err
			}
			if sim < p.Threshold {
				continue
			}

			// Tentative admit: the span across all members so far, with j
			// included, must stay inside the window.
			t := candidates[j].OccurredAt()
			lo, hi := earliest, latest
			if t.Before(lo) {
				lo = t
			}
			if t.After(hi) {
				hi = t
			}
			if hi.Sub(lo) > window {
				continue
			}

			earliest, latest = lo, hi
			members = append(members, candidates[j])
			memberIdx = append(memberIdx, j)
			assigned[j] = true
		}

		if len(members) < p.MinSize {
			// Release everyone but the anchor for later groups.
			for _, idx := range memberIdx[1:] {
				assigned[idx] = false
			}
			continue
		}

		groups = append(groups, Group{Members: members, AnchorIndex: i})
	}

	return groups, nil
}

// Span returns the earliest and latest occurrence times across members.
func (g Group) Span() (earliest, latest time.Time) {
	earliest = g.Members[0].OccurredAt()
	latest = earliest
	for _, m := range g.Members[1:] {
		t := m.OccurredAt()
		if t.Before(earliest) {
			earliest = t
		}
		if t.After(latest) {
			latest = t
		}
	}
	return earliest, latest
}
