package cluster

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfell/cairn/internal/core/model"
)

func meetingGroup() Group {
	a := eventAt("e1", []float32{1, 0}, 0)
	b := eventAt("e2", []float32{1, 0}, 2)
	c := eventAt("e3", []float32{0, 1}, 4)
	a.EventType, b.EventType, c.EventType = "meeting", "meeting", "meeting"
	return Group{Members: []model.EventNode{a, b, c}, AnchorIndex: 0}
}

func TestSummarize_Statistics(t *testing.T) {
	s := NewSummarizer(&MockLLMClient{Response: "Weekly Meetings"}, "", nil)

	node, err := s.Summarize(context.Background(), meetingGroup())
	require.NoError(t, err)

	assert.Equal(t, model.ClusterNodeType, node.NodeType)
	assert.True(t, strings.HasPrefix(node.UUID, "cluster_"))
	assert.Equal(t, 3, node.MemberCount)
	assert.Equal(t, []string{"e1", "e2", "e3"}, node.MemberUUIDs)

	// Element-wise mean of (1,0), (1,0), (0,1).
	assert.InDelta(t, 2.0/3.0, float64(node.Centroid[0]), 1e-6)
	assert.InDelta(t, 1.0/3.0, float64(node.Centroid[1]), 1e-6)

	// Pairs: (e1,e2)=1, (e1,e3)=0, (e2,e3)=0.
	assert.InDelta(t, 1.0/3.0, node.AvgSimilarity, 1e-9)

	assert.Equal(t, baseTime, node.EarliestEvent)
	assert.Equal(t, baseTime.AddDate(0, 0, 4), node.LatestEvent)
}

func TestSummarize_GeneratedTitle(t *testing.T) {
	mock := &MockLLMClient{Response: "  \"Weekly Planning Meetings\"  \n"}
	s := NewSummarizer(mock, "", nil)

	node, err := s.Summarize(context.Background(), meetingGroup())
	require.NoError(t, err)
	assert.Equal(t, "Weekly Planning Meetings", node.Name)

	// The prompt carries the member names.
	require.Len(t, mock.Prompts, 1)
	assert.Contains(t, mock.Prompts[0], "- e1")
	assert.Contains(t, mock.Prompts[0], "- e3")
}

func TestSummarize_JSONTitleResponse(t *testing.T) {
	s := NewSummarizer(&MockLLMClient{Response: `{"title": "Team Standups"}`}, "", nil)

	node, err := s.Summarize(context.Background(), meetingGroup())
	require.NoError(t, err)
	assert.Equal(t, "Team Standups", node.Name)
}

func TestSummarize_TitleFailureFallback(t *testing.T) {
	s := NewSummarizer(&MockLLMClient{Err: errors.New("service unavailable")}, "", nil)

	node, err := s.Summarize(context.Background(), meetingGroup())
	require.NoError(t, err)
	assert.Equal(t, "meeting related events (3)", node.Name)
}

func TestSummarize_EmptyResponseFallback(t *testing.T) {
	s := NewSummarizer(&MockLLMClient{Response: "   \n"}, "", nil)

	node, err := s.Summarize(context.Background(), meetingGroup())
	require.NoError(t, err)
	assert.Equal(t, "meeting related events (3)", node.Name)
}

func TestSummarize_NilClientFallback(t *testing.T) {
	s := NewSummarizer(nil, "", nil)

	node, err := s.Summarize(context.Background(), meetingGroup())
	require.NoError(t, err)
	assert.Equal(t, "meeting related events (3)", node.Name)
}

func TestSummarize_TitleTruncation(t *testing.T) {
	long := strings.Repeat("Very Long Title ", 10)
	s := NewSummarizer(&MockLLMClient{Response: long}, "", nil)

	node, err := s.Summarize(context.Background(), meetingGroup())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(node.Name, "..."))
	assert.Len(t, []rune(node.Name), titleDisplayLimit+3)
}

func TestSummarize_Description(t *testing.T) {
	a := eventAt("e1", []float32{1, 0}, 0)
	b := eventAt("e2", []float32{1, 0}, 1)
	c := eventAt("e3", []float32{1, 0}, 2)
	d := eventAt("e4", []float32{1, 0}, 3)
	a.EventType, b.EventType = "meeting", "meeting"
	c.EventType, d.EventType = "travel", "email"
	g := Group{Members: []model.EventNode{a, b, c, d}}

	s := NewSummarizer(&MockLLMClient{Response: "whatever"}, "", nil)
	node, err := s.Summarize(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, "Contains 4 related events: meeting(2), email(1), travel(1)", node.Description)
}

func TestSummarize_DimensionMismatch(t *testing.T) {
	g := Group{Members: []model.EventNode{
		eventAt("e1", []float32{1, 0}, 0),
		eventAt("e2", []float32{1, 0, 0}, 1),
	}}

	s := NewSummarizer(&MockLLMClient{Response: "title"}, "", nil)
	_, err := s.Summarize(context.Background(), g)
	assert.Error(t, err)
}

func TestNewClusterID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewClusterID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
