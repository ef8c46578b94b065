package cluster

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkfell/cairn/internal/core/common"
	"github.com/inkfell/cairn/internal/core/model"
	"github.com/inkfell/cairn/internal/core/similarity"
	"github.com/inkfell/cairn/internal/llm"
)

const (
	// DefaultTitlePrompt asks for free text; some models answer with a
	// JSON object anyway, which generateTitle tolerates.
	DefaultTitlePrompt = "Generate a short thematic title (at most ten words) for a group of related events. Respond with the title text only, no quotes, no explanation.\n\nEvents:\n%s"

	titleDisplayLimit = 60
	maxPromptMembers  = 10
)

// Summarizer turns a completed group into a ClusterNode: statistical
// signature from the embeddings, a generated or fallback title, and a
// deterministic description.
type Summarizer struct {
	llm    llm.LLMClient
	prompt string
	logger *zap.Logger
}

func NewSummarizer(llmClient llm.LLMClient, titlePrompt string, logger *zap.Logger) *Summarizer {
	if titlePrompt == "" {
		titlePrompt = DefaultTitlePrompt
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{llm: llmClient, prompt: titlePrompt, logger: logger}
}

// Summarize builds the ClusterNode for a group. A title-generation failure
// degrades the name to the deterministic fallback and is logged, never
// returned; only embedding-dimension errors propagate.
func (s *Summarizer) Summarize(ctx context.Context, g Group) (model.ClusterNode, error) {
	embeddings := make([][]float32, len(g.Members))
	for i, m := range g.Members {
		embeddings[i] = m.Embedding
	}

	centroid, err := similarity.Centroid(embeddings)
	if err != nil {
		return model.ClusterNode{}, fmt.Errorf("cluster centroid: %w", err)
	}
	avgSim, err := similarity.MeanPairwise(embeddings)
	if err != nil {
		return model.ClusterNode{}, fmt.Errorf("cluster cohesion: %w", err)
	}

	earliest, latest := g.Span()

	memberUUIDs := make([]string, len(g.Members))
	for i, m := range g.Members {
		memberUUIDs[i] = m.UUID
	}

	return model.ClusterNode{
		UUID:          NewClusterID(),
		Name:          s.generateTitle(ctx, g.Members),
		NodeType:      model.ClusterNodeType,
		Description:   describeMembers(g.Members),
		Centroid:      centroid,
		MemberCount:   len(g.Members),
		AvgSimilarity: avgSim,
		EarliestEvent: earliest,
		LatestEvent:   latest,
		MemberUUIDs:   memberUUIDs,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// NewClusterID returns a time-derived identifier with a random suffix so
// two clusters minted in the same millisecond cannot collide.
func NewClusterID() string {
	return fmt.Sprintf("cluster_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

func (s *Summarizer) generateTitle(ctx context.Context, members []model.EventNode) string {
	if s.llm == nil {
		return fallbackTitle(members)
	}

	names := make([]string, 0, maxPromptMembers)
	for _, m := range members {
		if len(names) == maxPromptMembers {
			break
		}
		names = append(names, "- "+m.Name)
	}

	response, err := s.llm.Generate(ctx, fmt.Sprintf(s.prompt, strings.Join(names, "\n")))
	if err != nil {
		s.logger.Warn("cluster title generation failed, using fallback", zap.Error(err))
		return fallbackTitle(members)
	}

	title := common.FirstLine(response)
	if parsed, perr := common.ParseJSON[model.ClusterTitle](response); perr == nil && parsed.Title != "" {
		title = parsed.Title
	}
	if title == "" {
		s.logger.Warn("cluster title generation returned empty response, using fallback")
		return fallbackTitle(members)
	}
	return truncateTitle(title)
}

func fallbackTitle(members []model.EventNode) string {
	return fmt.Sprintf("%s related events (%d)", dominantType(members), len(members))
}

func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= titleDisplayLimit {
		return title
	}
	return string(runes[:titleDisplayLimit]) + "..."
}

// describeMembers renders the deterministic description from the top 3
// member types by frequency.
func describeMembers(members []model.EventNode) string {
	counts := typeCounts(members)

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		if counts[types[i]] != counts[types[j]] {
			return counts[types[i]] > counts[types[j]]
		}
		return types[i] < types[j]
	})
	if len(types) > 3 {
		types = types[:3]
	}

	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = fmt.Sprintf("%s(%d)", t, counts[t])
	}
	return fmt.Sprintf("Contains %d related events: %s", len(members), strings.Join(parts, ", "))
}

func dominantType(members []model.EventNode) string {
	counts := typeCounts(members)

	best := ""
	for t, n := range counts {
		if best == "" || n > counts[best] || (n == counts[best] && t < best) {
			best = t
		}
	}
	return best
}

func typeCounts(members []model.EventNode) map[string]int {
	counts := make(map[string]int)
	for _, m := range members {
		t := m.EventType
		if t == "" {
			t = "event"
		}
		counts[t]++
	}
	return counts
}
