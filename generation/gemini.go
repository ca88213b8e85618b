package generation

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/krishkalaria12/snap-gallery/storage"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash-image"

// GeminiModel is the catalog entry registered when a Gemini API key is set.
func GeminiModel(id string) Model {
	if id == "" {
		id = DefaultGeminiModel
	}
	return Model{
		ID:          id,
		Name:        "Gemini Flash Image",
		Description: "Google's native image model",
	}
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator returns raw image bytes, so each image is staged in the
// bucket under generations/ and the bucket URL is reported instead.
type GeminiGenerator struct {
	models contentGenerator
	bucket storage.Bucket
}

var _ Generator = (*GeminiGenerator)(nil)

func NewGeminiGenerator(ctx context.Context, apiKey string, bucket storage.Bucket) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGenerator{models: client.Models, bucket: bucket}, nil
}

// enhancePrompt wraps a user request in the instructions Gemini needs to
// return an image rather than prose.
func enhancePrompt(prompt string) string {
	return fmt.Sprintf(`You are an AI image generation assistant. Create detailed, visual descriptions for image generation models. Focus on:

- Clear visual elements (colors, composition, lighting, style)
- Specific artistic techniques or photographic styles when relevant
- Safe, appropriate content only

Generate one image for the following request.

User request: %s`, prompt)
}

func (g *GeminiGenerator) Generate(ctx context.Context, modelID string, in Input) (*Output, error) {
	contents := []*genai.Content{
		{Parts: []*genai.Part{{Text: enhancePrompt(in.Prompt)}}},
	}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: in.AspectRatio},
	}

	res, err := g.models.GenerateContent(ctx, modelID, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	blob, err := firstImage(res)
	if err != nil {
		return nil, err
	}

	contentType := blob.MIMEType
	if contentType == "" {
		contentType = "image/png"
	}

	handle, err := g.bucket.Upload(ctx, "generations/"+uuid.NewString()+".png", bytes.NewReader(blob.Data), contentType)
	if err != nil {
		return nil, fmt.Errorf("stage gemini image: %w", err)
	}
	url, err := g.bucket.URL(ctx, handle)
	if err != nil {
		return nil, err
	}

	return &Output{Images: []Image{{URL: url, ContentType: contentType}}}, nil
}

func firstImage(res *genai.GenerateContentResponse) (*genai.Blob, error) {
	if res == nil || len(res.Candidates) == 0 {
		return nil, errors.New("empty response from model")
	}
	for _, c := range res.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData, nil
			}
		}
	}
	return nil, ErrNoImages
}
