package llm

import (
	"context"
)

// LLMClient produces free text for a prompt. The clustering engine uses it
// for exactly one thing: naming a cluster.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EmbedderClient turns text into a fixed-length embedding vector. The
// clustering engine never calls it directly (events arrive with embeddings
// attached); the ingest surface uses it to attach one when missing.
type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
