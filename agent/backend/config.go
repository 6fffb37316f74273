package backend

import (
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
)

// Config declares the three tier endpoints. Fast and smart default to a
// local Ollama server and are always enabled; the cloud tier joins the
// registry only when an API key is set, so the robot works fully offline
// out of the box.
type Config struct {
	FastBaseURL   string        `envconfig:"FAST_BASE_URL" split_words:"true" default:"http://127.0.0.1:11434/v1"`
	FastAPIKey    string        `envconfig:"FAST_API_KEY" split_words:"true" default:"ollama"`
	FastModel     string        `envconfig:"FAST_MODEL" split_words:"true" default:"qwen2.5:3b"`
	FastMaxTokens int           `envconfig:"FAST_MAX_TOKENS" split_words:"true" default:"300"`
	FastTimeout   time.Duration `envconfig:"FAST_TIMEOUT" split_words:"true" default:"15s"`

	SmartBaseURL   string        `envconfig:"SMART_BASE_URL" split_words:"true" default:"http://127.0.0.1:11434/v1"`
	SmartAPIKey    string        `envconfig:"SMART_API_KEY" split_words:"true" default:"ollama"`
	SmartModel     string        `envconfig:"SMART_MODEL" split_words:"true" default:"qwen2.5:7b"`
	SmartMaxTokens int           `envconfig:"SMART_MAX_TOKENS" split_words:"true" default:"600"`
	SmartTimeout   time.Duration `envconfig:"SMART_TIMEOUT" split_words:"true" default:"45s"`

	CloudBaseURL   string        `envconfig:"CLOUD_BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	CloudAPIKey    string        `envconfig:"CLOUD_API_KEY" split_words:"true"`
	CloudModel     string        `envconfig:"CLOUD_MODEL" split_words:"true" default:"anthropic/claude-3.5-haiku"`
	CloudMaxTokens int           `envconfig:"CLOUD_MAX_TOKENS" split_words:"true" default:"800"`
	CloudTimeout   time.Duration `envconfig:"CLOUD_TIMEOUT" split_words:"true" default:"60s"`
}

// Configured returns the endpoint config of every enabled tier, least
// capable first.
func (c Config) Configured() []contractx.BackendConfig {
	configs := []contractx.BackendConfig{
		{
			Tier:      contractx.TierFast,
			Provider:  providerFor(c.FastBaseURL),
			BaseURL:   c.FastBaseURL,
			APIKey:    c.FastAPIKey,
			Model:     c.FastModel,
			MaxTokens: c.FastMaxTokens,
			Timeout:   c.FastTimeout,
		},
		{
			Tier:      contractx.TierSmart,
			Provider:  providerFor(c.SmartBaseURL),
			BaseURL:   c.SmartBaseURL,
			APIKey:    c.SmartAPIKey,
			Model:     c.SmartModel,
			MaxTokens: c.SmartMaxTokens,
			Timeout:   c.SmartTimeout,
		},
	}

	if strings.TrimSpace(c.CloudAPIKey) != "" {
		configs = append(configs, contractx.BackendConfig{
			Tier:      contractx.TierCloud,
			Provider:  providerFor(c.CloudBaseURL),
			BaseURL:   c.CloudBaseURL,
			APIKey:    c.CloudAPIKey,
			Model:     c.CloudModel,
			MaxTokens: c.CloudMaxTokens,
			Timeout:   c.CloudTimeout,
		})
	}
	return configs
}

// providerFor labels an endpoint by host for logs.
func providerFor(baseURL string) string {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
