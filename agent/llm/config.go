package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
	chatapix "github.com/tanpawarit/Juno-Tiered-Home-Agent/pkg/chatapi"
)

// Config selects the endpoints behind the LLM-backed maintenance agents.
// Defaults keep summarization and curation on the local server so memory
// upkeep works with the internet down.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"http://127.0.0.1:11434/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" default:"ollama"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"qwen2.5:7b"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.2"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	SummarizerModel       string  `envconfig:"SUMMARIZER_MODEL" split_words:"true"`
	CuratorModel          string  `envconfig:"CURATOR_MODEL" split_words:"true"`
	SummarizerTemperature float32 `envconfig:"SUMMARIZER_TEMPERATURE" split_words:"true" default:"-1"`
	CuratorTemperature    float32 `envconfig:"CURATOR_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: llm base url is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// ChatAPIFor resolves the endpoint for one agent role, applying the
// per-role model and temperature overrides.
func (c Config) ChatAPIFor(role contractx.AgentRole) chatapix.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch role {
	case contractx.AgentSummarizer:
		if v := strings.TrimSpace(c.SummarizerModel); v != "" {
			modelName = v
		}
		if c.SummarizerTemperature >= 0 {
			temp = c.SummarizerTemperature
		}
	case contractx.AgentCurator:
		if v := strings.TrimSpace(c.CuratorModel); v != "" {
			modelName = v
		}
		if c.CuratorTemperature >= 0 {
			temp = c.CuratorTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return chatapix.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
