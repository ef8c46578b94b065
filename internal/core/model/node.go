package model

import "time"

// ClusterNodeType is the type tag carried by every ClusterNode.
const ClusterNodeType = "cluster"

// EventNode is a single event record in the knowledge graph. Events are
// created upstream (extraction, import) with their embedding already
// attached; the clustering engine only reads them and writes ClusterID.
type EventNode struct {
	UUID           string     `json:"uuid"`
	Name           string     `json:"name"`
	EventType      string     `json:"event_type"`
	Content        string     `json:"content,omitempty"`
	Embedding      []float32  `json:"embedding,omitempty"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	ClusterID      string     `json:"cluster_id,omitempty"`
}

// HasEmbedding reports whether the event is eligible for clustering at all.
func (e EventNode) HasEmbedding() bool {
	return len(e.Embedding) > 0
}

// OccurredAt is the time used for temporal-window checks: the event's
// occurrence time when known, otherwise its last-modified time.
func (e EventNode) OccurredAt() time.Time {
	if e.StartTime != nil {
		return *e.StartTime
	}
	return e.UpdatedAt
}

// ClusterNode is a derived aggregate over a group of events. Cluster nodes
// are immutable once written; a re-cluster produces fresh nodes and the old
// ones are superseded, never edited.
type ClusterNode struct {
	UUID          string    `json:"uuid"`
	Name          string    `json:"name"`
	NodeType      string    `json:"node_type"`
	Description   string    `json:"description"`
	Centroid      []float32 `json:"centroid,omitempty"`
	MemberCount   int       `json:"member_count"`
	AvgSimilarity float64   `json:"avg_similarity"`
	EarliestEvent time.Time `json:"earliest_event"`
	LatestEvent   time.Time `json:"latest_event"`
	MemberUUIDs   []string  `json:"member_uuids"`
	CreatedAt     time.Time `json:"created_at"`
}
