package generation

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/krishkalaria12/snap-gallery/logger"
	"golang.org/x/sync/errgroup"
)

const logModule = "generation"

type Orchestrator struct {
	catalog *Catalog
	log     logger.ILogger
}

func NewOrchestrator(catalog *Catalog, log logger.ILogger) *Orchestrator {
	return &Orchestrator{catalog: catalog, log: log}
}

func (o *Orchestrator) Catalog() *Catalog {
	return o.catalog
}

// Generate issues BatchSize requests for the prompt in parallel and returns
// one URL per request, indexed by request order. The batch fails as a whole:
// the first error cancels the remaining requests and no URLs are returned.
func (o *Orchestrator) Generate(ctx context.Context, prompt, modelID string) ([]string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if utf8.RuneCountInString(prompt) > MaxPromptLength {
		return nil, ErrPromptTooLong
	}

	model, gen, ok := o.catalog.Lookup(modelID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, modelID)
	}

	in := Input{
		Prompt:      prompt,
		AspectRatio: AspectRatioSquare,
		Style:       StyleAuto,
	}

	var urls [BatchSize]string
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < BatchSize; i++ {
		g.Go(func() error {
			out, err := gen.Generate(context.WithValue(gctx, requestIndexKey{}, i), model.ID, in)
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}
			if out == nil || len(out.Images) == 0 || out.Images[0].URL == "" {
				return fmt.Errorf("request %d: %w", i, ErrNoImages)
			}
			urls[i] = out.Images[0].URL
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		o.log.Error(logModule, "error generating images", map[string]interface{}{
			"model": model.ID,
			"error": err,
		})
		return nil, err
	}

	o.log.Info(logModule, "generated image batch", map[string]interface{}{
		"model": model.ID,
		"count": BatchSize,
	})

	return urls[:], nil
}

type requestIndexKey struct{}

// RequestIndex reports which slot of the batch a Generate call fills.
func RequestIndex(ctx context.Context) (int, bool) {
	i, ok := ctx.Value(requestIndexKey{}).(int)
	return i, ok
}
