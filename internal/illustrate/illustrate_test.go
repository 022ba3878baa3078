package illustrate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"fridgefeast/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingIllustrator struct {
	calls   atomic.Int32
	release chan struct{}
	url     *string
	err     error
}

func (c *countingIllustrator) Illustrate(ctx context.Context, _ string, _ []string) (*string, error) {
	c.calls.Add(1)
	if c.release != nil {
		<-c.release
	}
	return c.url, c.err
}

func ptr(s string) *string { return &s }

func TestCardFetchesOnce(t *testing.T) {
	ill := &countingIllustrator{url: ptr("https://img.example/1.png")}
	var card Card

	state, _ := card.Snapshot()
	assert.Equal(t, Unrequested, state)

	state, url := card.Fetch(t.Context(), ill, "Soup", nil)
	assert.Equal(t, Resolved, state)
	assert.Equal(t, "https://img.example/1.png", url)

	state, url = card.Fetch(t.Context(), ill, "Soup", nil)
	assert.Equal(t, Resolved, state)
	assert.Equal(t, "https://img.example/1.png", url)
	assert.EqualValues(t, 1, ill.calls.Load())
}

func TestCardConcurrentOpensIssueOneRequest(t *testing.T) {
	ill := &countingIllustrator{url: ptr("https://img.example/2.png"), release: make(chan struct{})}
	var card Card

	var wg sync.WaitGroup
	started := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		close(started)
		card.Fetch(context.Background(), ill, "Soup", nil)
	}()
	<-started

	// wait for the first caller to claim the latch
	for {
		if s, _ := card.Snapshot(); s == InFlight {
			break
		}
	}
	for range 10 {
		state, _ := card.Fetch(t.Context(), ill, "Soup", nil)
		assert.Equal(t, InFlight, state)
	}
	close(ill.release)
	wg.Wait()

	state, url := card.Snapshot()
	assert.Equal(t, Resolved, state)
	assert.Equal(t, "https://img.example/2.png", url)
	assert.EqualValues(t, 1, ill.calls.Load())
}

func TestCardFailureIsTerminal(t *testing.T) {
	for name, ill := range map[string]*countingIllustrator{
		"error": {err: errors.New("boom")},
		"nil":   {},
		"empty": {url: ptr("")},
	} {
		t.Run(name, func(t *testing.T) {
			var card Card
			state, url := card.Fetch(t.Context(), ill, "Soup", nil)
			assert.Equal(t, Failed, state)
			assert.Empty(t, url)

			state, _ = card.Fetch(t.Context(), ill, "Soup", nil)
			assert.Equal(t, Failed, state)
			assert.EqualValues(t, 1, ill.calls.Load())
		})
	}
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{}
	assert.IsType(t, Placeholder{}, FromConfig(t.Context(), cfg))

	cfg.Images.Enabled = true
	assert.IsType(t, None{}, FromConfig(t.Context(), cfg))

	cfg.Images.Provider = config.ProviderOpenAI
	assert.IsType(t, None{}, FromConfig(t.Context(), cfg), "mock mode never calls a real provider")

	cfg.AI.APIKey = "key"
	assert.IsType(t, &OpenAIImages{}, FromConfig(t.Context(), cfg))
}

func TestPlaceholder(t *testing.T) {
	url, err := Placeholder{}.Illustrate(t.Context(), "x", nil)
	require.NoError(t, err)
	require.NotNil(t, url)
	assert.Equal(t, PlaceholderURL, *url)
}

func TestOpenAIImages(t *testing.T) {
	for name, tc := range map[string]struct {
		data []map[string]any
		want *string
	}{
		"url":    {[]map[string]any{{"url": "https://img.example/x.png"}}, ptr("https://img.example/x.png")},
		"base64": {[]map[string]any{{"b64_json": "aGVsbG8="}}, ptr("data:image/png;base64,aGVsbG8=")},
		"empty":  {[]map[string]any{}, nil},
	} {
		t.Run(name, func(t *testing.T) {
			prompts := make(chan string, 1)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body map[string]any
				_ = json.NewDecoder(r.Body).Decode(&body)
				p, _ := body["prompt"].(string)
				prompts <- p
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]any{"created": 1, "data": tc.data})
			}))
			defer srv.Close()

			url, err := NewOpenAIImages("k", "", srv.URL).Illustrate(t.Context(), "Tomato Soup", []string{"tomato", "basil"})
			require.NoError(t, err)
			assert.Equal(t, tc.want, url)
			prompt := <-prompts
			assert.Contains(t, prompt, "Tomato Soup")
			assert.Contains(t, prompt, "tomato, basil")
		})
	}
}
