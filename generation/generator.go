package generation

import "context"

// Input is the request body of a single generation call.
type Input struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	Style       string `json:"style"`
}

type Image struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
}

type Output struct {
	Images []Image `json:"images"`
}

// Generator produces images for one request. Implementations must be safe
// for concurrent use; the orchestrator calls Generate BatchSize times at once.
type Generator interface {
	Generate(ctx context.Context, modelID string, in Input) (*Output, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, modelID string, in Input) (*Output, error)

func (f GeneratorFunc) Generate(ctx context.Context, modelID string, in Input) (*Output, error) {
	return f(ctx, modelID, in)
}
