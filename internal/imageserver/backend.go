package imageserver

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"murdermystery/internal/debug"
)

// Backend renders prompts into PNG files, consulting the disk cache
// before spending an API call.
type Backend struct {
	client *openai.Client
	model  openai.ImageModel
	size   openai.ImageGenerateParamsSize
	cache  *Cache
	debug  *debug.Logger
}

func NewBackend(apiKey string, cache *Cache, dbg *debug.Logger) *Backend {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Backend{
		client: &client,
		model:  openai.ImageModelDallE3,
		size:   openai.ImageGenerateParamsSize1024x1024,
		cache:  cache,
		debug:  dbg,
	}
}

// Generate returns the path of a PNG for the prompt, from cache when
// an identical prompt has been rendered before.
func (b *Backend) Generate(ctx context.Context, prompt string) (string, error) {
	key := CacheKey(prompt)
	if path, ok := b.cache.Lookup(key); ok {
		if b.debug != nil {
			b.debug.Printf("image cache hit: %s", key)
		}
		return path, nil
	}

	resp, err := b.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          b.model,
		Size:           b.size,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		N:              openai.Int(1),
	})
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", fmt.Errorf("image generation returned no data")
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return "", fmt.Errorf("failed to decode image data: %w", err)
	}

	path, err := b.cache.Store(key, raw)
	if err != nil {
		return "", err
	}
	if b.debug != nil {
		b.debug.Printf("generated image %s (%d bytes)", key, len(raw))
	}
	return path, nil
}
