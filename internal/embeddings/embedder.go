package embeddings

import "context"

// maxInputChars caps the text sent to an embedding backend. Longer inputs are
// truncated; embeddings stay deterministic for identical input either way.
const maxInputChars = 8000

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}

func capInput(text string) string {
	if len(text) > maxInputChars {
		return text[:maxInputChars]
	}
	return text
}
