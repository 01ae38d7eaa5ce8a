package embedding

import "context"

// Provider generates vector embeddings for document search.
type Provider interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}
