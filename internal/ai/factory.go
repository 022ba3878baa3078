package ai

import (
	"context"
	"fmt"
	"log/slog"

	"fridgefeast/internal/config"
)

// NewFromConfig picks the model backend once at startup.
func NewFromConfig(ctx context.Context, cfg *config.Config) (Provider, error) {
	if cfg.MockMode() {
		slog.InfoContext(ctx, "using fixture AI provider", "mock_mode", cfg.Mock)
		return NewFixture(), nil
	}

	var (
		p   Provider
		err error
	)
	switch cfg.AI.Provider {
	case config.ProviderOpenAI:
		p = NewOpenAIClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.VisionModel, cfg.AI.Endpoint)
	case config.ProviderOpenRouter:
		p = NewOpenRouterClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.VisionModel, cfg.AI.Endpoint, cfg.AI.HTTPRetries)
	case config.ProviderGemini:
		p, err = NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.VisionModel, cfg.AI.Endpoint)
	default:
		err = fmt.Errorf("unknown AI provider %q", cfg.AI.Provider)
	}
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "using AI provider", "provider", p.Name())
	return p, nil
}

type readyChecker interface {
	Ready(ctx context.Context) error
}

// Ready reports whether the provider can be used. Remote providers confirm
// their configured models exist; fixtures are always ready.
func Ready(ctx context.Context, p Provider) error {
	if p == nil {
		return fmt.Errorf("no AI provider configured")
	}
	if rc, ok := p.(readyChecker); ok {
		if err := rc.Ready(ctx); err != nil {
			return fmt.Errorf("%s provider not ready: %w", p.Name(), err)
		}
	}
	return nil
}

func distinctModels(model, visionModel string) []string {
	if model == visionModel {
		return []string{model}
	}
	return []string{model, visionModel}
}
