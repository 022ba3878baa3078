package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient uses the Gemini API through the genai SDK.
type GeminiClient struct {
	client      *genai.Client
	model       string
	visionModel string
}

var _ Provider = (*GeminiClient)(nil)

func NewGeminiClient(ctx context.Context, apiKey, model, visionModel, endpoint string) (*GeminiClient, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if endpoint != "" {
		cc.HTTPOptions.BaseURL = endpoint
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultGeminiModel
	}
	if strings.TrimSpace(visionModel) == "" {
		visionModel = model
	}
	return &GeminiClient{client: client, model: model, visionModel: visionModel}, nil
}

func (c *GeminiClient) Name() string { return "gemini" }

func (c *GeminiClient) Ready(ctx context.Context) error {
	for _, m := range distinctModels(c.model, c.visionModel) {
		if _, err := c.client.Models.Get(ctx, m, nil); err != nil {
			return fmt.Errorf("failed to look up model %s: %w", m, err)
		}
	}
	return nil
}

func (c *GeminiClient) Ingredients(ctx context.Context, image string) (_ []Ingredient, err error) {
	ctx, span := startSpan(ctx, "vision.ingredients", c.Name(), c.visionModel)
	defer func() { endSpan(span, err) }()

	mimeType, data, err := ParseDataURL(image)
	if err != nil {
		return nil, err
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(visionPrompt),
			genai.NewPartFromBytes(data, mimeType),
		}, genai.RoleUser),
	}
	content, err := c.generate(ctx, c.visionModel, visionSystemMessage, 0.2, contents)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze image: %w", err)
	}
	return DecodeIngredients(content)
}

func (c *GeminiClient) Recipes(ctx context.Context, req RecipeRequest) (_ []Draft, err error) {
	ctx, span := startSpan(ctx, "generator.recipes", c.Name(), c.model)
	defer func() { endSpan(span, err) }()

	contents := []*genai.Content{
		genai.NewContentFromText(recipeUserMessage(req), genai.RoleUser),
	}
	content, err := c.generate(ctx, c.model, recipeSystemMessage(req), 0.9, contents)
	if err != nil {
		return nil, fmt.Errorf("failed to generate recipes: %w", err)
	}
	return DecodeDrafts(content)
}

func (c *GeminiClient) generate(ctx context.Context, model, system string, temperature float32, contents []*genai.Content) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr(temperature),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	if resp.UsageMetadata != nil {
		slog.InfoContext(ctx, "API usage",
			"model", model,
			"prompt_tokens", resp.UsageMetadata.PromptTokenCount,
			"completion_tokens", resp.UsageMetadata.CandidatesTokenCount)
	}
	return candidateText(resp)
}

func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: gemini returned no candidates", ErrUnparseable)
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}
