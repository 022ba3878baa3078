package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	defaultOpenRouterModel    = "openai/gpt-4o-mini"
	defaultOpenRouterEndpoint = "https://openrouter.ai/api/v1/chat/completions"
)

// OpenRouterClient speaks the OpenAI-compatible chat completions protocol over
// plain HTTP, for OpenRouter or any self-hosted gateway.
type OpenRouterClient struct {
	apiKey      string
	model       string
	visionModel string
	endpoint    string
	httpClient  *retryablehttp.Client
}

var _ Provider = (*OpenRouterClient)(nil)

// NewOpenRouterClient creates an OpenRouter-backed AI client. retries is the
// transport-level retry budget and is normally zero.
func NewOpenRouterClient(apiKey, model, visionModel, endpoint string, retries int) *OpenRouterClient {
	selectedModel := strings.TrimSpace(model)
	if selectedModel == "" {
		selectedModel = defaultOpenRouterModel
	}
	if strings.TrimSpace(visionModel) == "" {
		visionModel = selectedModel
	}
	if endpoint == "" {
		endpoint = defaultOpenRouterEndpoint
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = retries
	rc.Logger = slog.Default()
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &OpenRouterClient{
		apiKey:      apiKey,
		model:       selectedModel,
		visionModel: visionModel,
		endpoint:    endpoint,
		httpClient:  rc,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *imageURLPart `json:"image_url,omitempty"`
}

type imageURLPart struct {
	URL string `json:"url"`
}

type openRouterRequest struct {
	Model          string                   `json:"model"`
	Messages       []chatMessage            `json:"messages"`
	Temperature    float64                  `json:"temperature"`
	ResponseFormat openRouterResponseFormat `json:"response_format"`
}

type openRouterResponseFormat struct {
	Type       string               `json:"type"`
	JSONSchema openRouterJSONSchema `json:"json_schema"`
}

type openRouterJSONSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
}

type openRouterResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage json.RawMessage `json:"usage"`
}

type openRouterErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *OpenRouterClient) Name() string { return "openrouter" }

func (c *OpenRouterClient) Ingredients(ctx context.Context, image string) (_ []Ingredient, err error) {
	ctx, span := startSpan(ctx, "vision.ingredients", c.Name(), c.visionModel)
	defer func() { endSpan(span, err) }()

	url, err := asDataURL(image)
	if err != nil {
		return nil, err
	}
	messages := []chatMessage{
		{Role: "system", Content: visionSystemMessage},
		{Role: "user", Content: []contentPart{
			{Type: "text", Text: visionPrompt},
			{Type: "image_url", ImageURL: &imageURLPart{URL: url}},
		}},
	}
	content, err := c.complete(ctx, c.visionModel, 0.2, messages, "ingredients", ingredientSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze image: %w", err)
	}
	return DecodeIngredients(content)
}

func (c *OpenRouterClient) Recipes(ctx context.Context, req RecipeRequest) (_ []Draft, err error) {
	ctx, span := startSpan(ctx, "generator.recipes", c.Name(), c.model)
	defer func() { endSpan(span, err) }()

	messages := []chatMessage{
		{Role: "system", Content: recipeSystemMessage(req)},
		{Role: "user", Content: recipeUserMessage(req)},
	}
	content, err := c.complete(ctx, c.model, 0.9, messages, "recipes", recipeSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to generate recipes: %w", err)
	}
	return DecodeDrafts(content)
}

func (c *OpenRouterClient) complete(ctx context.Context, model string, temperature float64, messages []chatMessage, schemaName string, schema map[string]any) (string, error) {
	requestBody := openRouterRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		ResponseFormat: openRouterResponseFormat{
			Type: "json_schema",
			JSONSchema: openRouterJSONSchema{
				Name:   schemaName,
				Schema: schema,
			},
		},
	}

	body, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal openrouter request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("failed to build openrouter request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	if referer := strings.TrimSpace(os.Getenv("OPENROUTER_HTTP_REFERER")); referer != "" {
		req.Header.Set("HTTP-Referer", referer)
	}
	if title := strings.TrimSpace(os.Getenv("OPENROUTER_APP_TITLE")); title != "" {
		req.Header.Set("X-Title", title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openrouter request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed reading openrouter response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr openRouterErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("openrouter error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("openrouter error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed openRouterResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode openrouter response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: openrouter returned no choices", ErrUnparseable)
	}

	if len(parsed.Usage) > 0 {
		slog.InfoContext(ctx, "API usage", slog.Any("usage", parsed.Usage))
	}

	return messageContent(parsed.Choices[0].Message.Content)
}

func messageContent(raw json.RawMessage) (string, error) {
	var content string
	if err := json.Unmarshal(raw, &content); err == nil {
		return content, nil
	}

	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", fmt.Errorf("%w: unable to parse response message content: %v", ErrUnparseable, err)
	}

	var builder strings.Builder
	for _, part := range parts {
		if part.Type == "text" {
			builder.WriteString(part.Text)
		}
	}
	return builder.String(), nil
}
