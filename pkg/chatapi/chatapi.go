package chatapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// LLMBuilder constructs an eino chat model from endpoint configuration.
type LLMBuilder interface {
	New(ctx context.Context) (model.ToolCallingChatModel, error)
}

var _ LLMBuilder = (*Config)(nil)

// Config describes one OpenAI-compatible chat-completion endpoint. The same
// shape covers local servers (Ollama, MLX) and hosted gateways (OpenRouter).
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"http://127.0.0.1:11434/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" default:"ollama"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken *int          `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
}

func (c *Config) Validate() error {
	baseURL := strings.TrimSpace(c.BaseURL)
	if baseURL == "" {
		return errors.New("chatapi: base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return fmt.Errorf("chatapi: invalid base url: %w", err)
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("chatapi: model is required")
	}
	return nil
}

// New builds the eino chat model used by the structured LLM graphs.
func (c *Config) New(ctx context.Context) (model.ToolCallingChatModel, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	conf := &openaimodel.ChatModelConfig{
		BaseURL:     strings.TrimRight(c.BaseURL, "/"),
		APIKey:      strings.TrimSpace(c.APIKey),
		Model:       strings.TrimSpace(c.Model),
		MaxTokens:   c.MaxCompletionToken,
		Temperature: &c.Temperature,
		Timeout:     c.Timeout,
	}

	m, err := openaimodel.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("chatapi: create chat model: %w", err)
	}

	return m, nil
}

var thinkPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripReasoning removes the chain-of-thought blocks some local models emit
// around their answer. Dangling tags count as reasoning too.
func StripReasoning(text string) string {
	out := thinkPattern.ReplaceAllString(text, "")
	if i := strings.LastIndex(out, "</think>"); i >= 0 {
		out = out[i+len("</think>"):]
	}
	if i := strings.Index(out, "<think>"); i >= 0 {
		out = out[:i]
	}
	return strings.TrimSpace(out)
}

// NewClient creates an OpenAI SDK client for the endpoint. Returns nil when
// no API key is configured, which callers treat as "endpoint disabled".
func NewClient(cfg Config) *openaisdk.Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}

	// Callers own the retry policy, so the SDK fails fast.
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithMaxRetries(0),
	}

	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}

	// Optional attribution headers for gateways that use them.
	if cfg.SiteURL != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.SiteURL))
	}
	if cfg.SiteName != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.SiteName))
	}

	client := openaisdk.NewClient(opts...)
	return &client
}
