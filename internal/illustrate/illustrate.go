package illustrate

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"fridgefeast/internal/config"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// PlaceholderURL is shown for every dish while generation is disabled.
const PlaceholderURL = "https://images.unsplash.com/photo-1515003197210-e0cd71810b5f?w=800&q=80&auto=format&fit=crop"

// Illustrator produces a picture of a dish. A nil URL with a nil error means
// there is no picture and the UI keeps its placeholder.
type Illustrator interface {
	Illustrate(ctx context.Context, name string, ingredients []string) (*string, error)
}

type Placeholder struct{}

func (Placeholder) Illustrate(context.Context, string, []string) (*string, error) {
	url := PlaceholderURL
	return &url, nil
}

// None is used when generation is enabled but no provider is configured.
type None struct{}

func (None) Illustrate(context.Context, string, []string) (*string, error) {
	return nil, nil
}

const defaultImageModel = "dall-e-3"

type OpenAIImages struct {
	client openai.Client
	model  string
}

func NewOpenAIImages(apiKey, model, endpoint string) *OpenAIImages {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	if strings.TrimSpace(model) == "" {
		model = defaultImageModel
	}
	return &OpenAIImages{client: openai.NewClient(opts...), model: model}
}

func (o *OpenAIImages) Illustrate(ctx context.Context, name string, ingredients []string) (*string, error) {
	resp, err := o.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt: prompt(name, ingredients),
		Model:  openai.ImageModel(o.model),
		N:      openai.Int(1),
		Size:   openai.ImageGenerateParamsSize1024x1024,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	img := resp.Data[0]
	switch {
	case img.URL != "":
		return &img.URL, nil
	case img.B64JSON != "":
		if _, err := base64.StdEncoding.DecodeString(img.B64JSON); err != nil {
			return nil, fmt.Errorf("image generation returned bad base64: %w", err)
		}
		url := "data:image/png;base64," + img.B64JSON
		return &url, nil
	}
	return nil, nil
}

func prompt(name string, ingredients []string) string {
	p := "Photorealistic overhead photo of a plated home-cooked dish: " + name + "."
	if len(ingredients) > 0 {
		p += " Visible ingredients: " + strings.Join(ingredients, ", ") + "."
	}
	return p + " Natural light, no text, no people."
}

// FromConfig picks the illustration strategy once at startup.
func FromConfig(ctx context.Context, cfg *config.Config) Illustrator {
	if !cfg.Images.Enabled {
		return Placeholder{}
	}
	if cfg.Images.Provider == config.ProviderOpenAI && !cfg.MockMode() {
		slog.InfoContext(ctx, "using openai image generation", "model", cfg.Images.Model)
		return NewOpenAIImages(cfg.AI.APIKey, cfg.Images.Model, cfg.AI.Endpoint)
	}
	slog.InfoContext(ctx, "image generation enabled without a provider", "provider", cfg.Images.Provider)
	return None{}
}
