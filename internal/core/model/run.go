package model

import "time"

// ParamSnapshot records the clustering parameters a run executed with.
type ParamSnapshot struct {
	Threshold  float64 `json:"threshold"`
	WindowDays int     `json:"window_days"`
	MinSize    int     `json:"min_size"`
	MaxSize    int     `json:"max_size"`
}

// RunRecord is the append-only audit record written at the end of each
// clustering run.
type RunRecord struct {
	UUID              string        `json:"uuid"`
	RunAt             time.Time     `json:"run_at"`
	CandidateCount    int           `json:"candidate_count"`
	ClustersCreated   int           `json:"clusters_created"`
	EventsClustered   int           `json:"events_clustered"`
	EventsUnclustered int           `json:"events_unclustered"`
	Algorithm         string        `json:"algorithm"`
	AvgClusterSize    float64       `json:"avg_cluster_size"`
	AvgSimilarity     float64       `json:"avg_similarity"`
	Params            ParamSnapshot `json:"params"`
}

// RunResult is returned to the caller of OrganizeGraph. On failure Success
// is false and Error describes the cause; the counters reflect whatever was
// measured before the failure.
type RunResult struct {
	Success         bool    `json:"success"`
	Message         string  `json:"message,omitempty"`
	Error           string  `json:"error,omitempty"`
	ClustersCreated int     `json:"clusters_created"`
	EventsProcessed int     `json:"events_processed"`
	EventsClustered int     `json:"events_clustered"`
	AvgClusterSize  float64 `json:"avg_cluster_size"`
	AvgSimilarity   float64 `json:"avg_similarity"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// ClusterTitle is the JSON shape some models answer with when asked for a
// cluster title even though the prompt requests free text.
type ClusterTitle struct {
	Title string `json:"title"`
}
