package generation

import "errors"

// BatchSize is the number of images requested per generation.
const BatchSize = 4

const (
	AspectRatioSquare = "1:1"
	StyleAuto         = "auto"
)

const MaxPromptLength = 1000

var (
	ErrEmptyPrompt   = errors.New("prompt is required")
	ErrPromptTooLong = errors.New("prompt too long (max 1000 characters)")
	ErrUnknownModel  = errors.New("unknown model")
	ErrNoImages      = errors.New("no image in provider response")
)

// Model is one selectable entry of the model picker.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DefaultModels are served by fal.ai. The first entry is the default.
var DefaultModels = []Model{
	{
		ID:          "fal-ai/ideogram/v2",
		Name:        "Ideogram v2",
		Description: "Latest version with enhanced image quality",
	},
	{
		ID:          "fal-ai/fast-sdxl",
		Name:        "Fast SDXL",
		Description: "Optimized for speed with good quality",
	},
	{
		ID:          "stabilityai/stable-diffusion-xl-base-1.0",
		Name:        "Stable Diffusion XL",
		Description: "High quality image generation",
	},
}

type entry struct {
	model     Model
	generator Generator
}

// Catalog is the fixed, ordered set of models and the generator serving each.
// It is built once at startup and read-only afterwards.
type Catalog struct {
	entries []entry
}

func NewCatalog() *Catalog {
	return &Catalog{}
}

func (c *Catalog) Register(m Model, g Generator) *Catalog {
	c.entries = append(c.entries, entry{model: m, generator: g})
	return c
}

func (c *Catalog) Models() []Model {
	out := make([]Model, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.model
	}
	return out
}

// Default returns the first registered model.
func (c *Catalog) Default() (Model, bool) {
	if len(c.entries) == 0 {
		return Model{}, false
	}
	return c.entries[0].model, true
}

func (c *Catalog) Lookup(id string) (Model, Generator, bool) {
	for _, e := range c.entries {
		if e.model.ID == id {
			return e.model, e.generator, true
		}
	}
	return Model{}, nil, false
}
