package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient talks to the OpenAI chat completions API.
type OpenAIClient struct {
	client      openai.Client
	model       string
	visionModel string
}

var _ Provider = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client with SDK retries disabled; a failed call is
// terminal for the stage that made it.
func NewOpenAIClient(apiKey, model, visionModel, endpoint string) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}

	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultOpenAIModel
	}
	visionModel = strings.TrimSpace(visionModel)
	if visionModel == "" {
		visionModel = model
	}

	return &OpenAIClient{
		client:      openai.NewClient(opts...),
		model:       model,
		visionModel: visionModel,
	}
}

func (c *OpenAIClient) Name() string { return "openai" }

func (c *OpenAIClient) Ready(ctx context.Context) error {
	for _, m := range distinctModels(c.model, c.visionModel) {
		if _, err := c.client.Models.Get(ctx, m); err != nil {
			return fmt.Errorf("failed to look up model %s: %w", m, err)
		}
	}
	return nil
}

func (c *OpenAIClient) Ingredients(ctx context.Context, image string) (_ []Ingredient, err error) {
	ctx, span := startSpan(ctx, "vision.ingredients", c.Name(), c.visionModel)
	defer func() { endSpan(span, err) }()

	url, err := asDataURL(image)
	if err != nil {
		return nil, err
	}

	content, err := c.complete(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.visionModel),
		Temperature: openai.Float(0.2),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(visionSystemMessage),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(visionPrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: url}),
			}),
		},
		ResponseFormat: jsonSchemaFormat("ingredients", ingredientSchema),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze image: %w", err)
	}
	return DecodeIngredients(content)
}

func (c *OpenAIClient) Recipes(ctx context.Context, req RecipeRequest) (_ []Draft, err error) {
	ctx, span := startSpan(ctx, "generator.recipes", c.Name(), c.model)
	defer func() { endSpan(span, err) }()

	content, err := c.complete(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(0.9),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(recipeSystemMessage(req)),
			openai.UserMessage(recipeUserMessage(req)),
		},
		ResponseFormat: jsonSchemaFormat("recipes", recipeSchema),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate recipes: %w", err)
	}
	return DecodeDrafts(content)
}

func (c *OpenAIClient) complete(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			slog.ErrorContext(ctx, "openai api error", "status", apiErr.StatusCode, "model", params.Model)
		}
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	slog.InfoContext(ctx, "API usage",
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", ErrUnparseable)
	}
	return resp.Choices[0].Message.Content, nil
}

func jsonSchemaFormat(name string, schema map[string]any) openai.ChatCompletionNewParamsResponseFormatUnion {
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:   name,
				Schema: schema,
			},
		},
	}
}
