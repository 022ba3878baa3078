package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

type Config struct {
	Addr      string          `json:"addr"`
	Mock      bool            `json:"mock"`
	AI        AIConfig        `json:"ai"`
	Images    ImageConfig     `json:"images"`
	Cache     CacheConfig     `json:"cache"`
	Azure     AzureConfig     `json:"azure"`
	LogSink   LogSinkConfig   `json:"logsink"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

type AIConfig struct {
	Provider    string `json:"provider"` // "openai", "openrouter" or "gemini"
	APIKey      string `json:"api_key"`
	Model       string `json:"model"`
	VisionModel string `json:"vision_model"`
	Endpoint    string `json:"endpoint"`
	HTTPRetries int    `json:"http_retries"`
}

type ImageConfig struct {
	Enabled  bool   `json:"enabled"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type CacheConfig struct {
	Backend    string   `json:"backend"` // "file", "memory", "sqlite", "postgres", "s3" or "azblob"
	Dir        string   `json:"dir"`
	Container  string   `json:"container"`
	SQLitePath string   `json:"sqlite_path"`
	DSN        string   `json:"-"`
	S3         S3Config `json:"s3"`
}

type S3Config struct {
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
}

type AzureConfig struct {
	AccountName string `json:"account_name"`
	AccountKey  string `json:"-"`
	// Endpoint overrides the public blob endpoint, e.g. for Azurite.
	Endpoint string `json:"endpoint,omitempty"`
}

type LogSinkConfig struct {
	Container string `json:"container"`
	BlobName  string `json:"blob_name"`
}

func (l LogSinkConfig) Enabled() bool {
	return l.Container != ""
}

type TelemetryConfig struct {
	ServiceName  string `json:"service_name"`
	OTLPEndpoint string `json:"otlp_endpoint"`
}

func (t TelemetryConfig) Enabled() bool {
	return t.OTLPEndpoint != ""
}

// MockMode is true when fixtures should stand in for the hosted models.
func (c *Config) MockMode() bool {
	return c.Mock || c.AI.APIKey == ""
}

func Load() (*Config, error) {
	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderOpenAI))
	retries, err := getIntOrDefault("AI_HTTP_RETRIES", 0)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Addr: getEnvOrDefault("ADDR", ":8080"),
		Mock: isTrue(os.Getenv("MOCK_MODE")),
		AI: AIConfig{
			Provider:    provider,
			APIKey:      apiKey(provider),
			Model:       os.Getenv("AI_MODEL"),
			VisionModel: os.Getenv("AI_VISION_MODEL"),
			Endpoint:    os.Getenv("AI_ENDPOINT"),
			HTTPRetries: retries,
		},
		Images: ImageConfig{
			Enabled:  isTrue(os.Getenv("IMAGE_GEN_ENABLED")),
			Provider: strings.ToLower(os.Getenv("IMAGE_PROVIDER")),
			Model:    os.Getenv("IMAGE_MODEL"),
		},
		Cache: CacheConfig{
			Backend:    strings.ToLower(getEnvOrDefault("CACHE_BACKEND", "file")),
			Dir:        getEnvOrDefault("CACHE_DIR", "./data"),
			Container:  getEnvOrDefault("AZURE_STORAGE_CONTAINER", "fridgefeast"),
			SQLitePath: getEnvOrDefault("SQLITE_PATH", "./data/fridgefeast.db"),
			DSN:        os.Getenv("DATABASE_URL"),
			S3: S3Config{
				Bucket:    os.Getenv("S3_BUCKET"),
				Region:    getEnvOrDefault("AWS_REGION", "us-east-1"),
				Endpoint:  os.Getenv("S3_ENDPOINT"),
				AccessKey: os.Getenv("S3_ACCESS_KEY"),
				SecretKey: os.Getenv("S3_SECRET_KEY"),
			},
		},
		Azure: AzureConfig{
			AccountName: os.Getenv("AZURE_STORAGE_ACCOUNT_NAME"),
			AccountKey:  os.Getenv("AZURE_STORAGE_PRIMARY_ACCOUNT_KEY"),
			Endpoint:    os.Getenv("AZURE_STORAGE_BLOB_ENDPOINT"),
		},
		LogSink: LogSinkConfig{
			Container: os.Getenv("LOGSINK_CONTAINER"),
			BlobName:  os.Getenv("LOGSINK_BLOB"),
		},
		Telemetry: TelemetryConfig{
			ServiceName:  getEnvOrDefault("OTEL_SERVICE_NAME", "fridgefeast"),
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	switch c.AI.Provider {
	case ProviderOpenAI, ProviderOpenRouter, ProviderGemini:
	default:
		return fmt.Errorf("unknown AI_PROVIDER %q", c.AI.Provider)
	}
	switch c.Cache.Backend {
	case "file", "memory", "sqlite":
	case "postgres":
		if c.Cache.DSN == "" {
			return fmt.Errorf("CACHE_BACKEND=postgres requires DATABASE_URL")
		}
	case "s3":
		if c.Cache.S3.Bucket == "" {
			return fmt.Errorf("CACHE_BACKEND=s3 requires S3_BUCKET")
		}
		if (c.Cache.S3.AccessKey == "") != (c.Cache.S3.SecretKey == "") {
			return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY must be set together")
		}
	case "azblob":
		if c.Azure.AccountName == "" {
			return fmt.Errorf("CACHE_BACKEND=azblob requires AZURE_STORAGE_ACCOUNT_NAME")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}
	if c.LogSink.Enabled() && c.Azure.AccountName == "" {
		return fmt.Errorf("LOGSINK_CONTAINER requires AZURE_STORAGE_ACCOUNT_NAME")
	}
	if c.AI.HTTPRetries < 0 {
		return fmt.Errorf("AI_HTTP_RETRIES must not be negative")
	}
	return nil
}

// apiKey prefers AI_API_KEY and falls back to the provider's conventional variable.
func apiKey(provider string) string {
	if key := os.Getenv("AI_API_KEY"); key != "" {
		return key
	}
	switch provider {
	case ProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	case ProviderOpenRouter:
		return os.Getenv("OPENROUTER_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func isTrue(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}
