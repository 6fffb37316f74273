package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
	chatapix "github.com/tanpawarit/Juno-Tiered-Home-Agent/pkg/chatapi"
	logx "github.com/tanpawarit/Juno-Tiered-Home-Agent/pkg/logger"
)

var _ contractx.Backend = (*ChatAdapter)(nil)

// ChatAdapter serves one tier over the chat-completion dialect every
// endpoint in the fleet speaks. Tier differences are configuration only;
// the adapter never branches on provider.
type ChatAdapter struct {
	cfg    contractx.BackendConfig
	client *openaisdk.Client
	log    zerolog.Logger
}

func NewChatAdapter(cfg contractx.BackendConfig) (*ChatAdapter, error) {
	if !cfg.Tier.Valid() {
		return nil, fmt.Errorf("backend: invalid tier %q", cfg.Tier)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("backend %s: base url is required", cfg.Tier)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("backend %s: model is required", cfg.Tier)
	}

	client := chatapix.NewClient(chatapix.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if client == nil {
		return nil, fmt.Errorf("backend %s: api key is required", cfg.Tier)
	}

	return &ChatAdapter{
		cfg:    cfg,
		client: client,
		log:    logx.With("backend." + string(cfg.Tier)),
	}, nil
}

func MustNewChatAdapter(cfg contractx.BackendConfig) *ChatAdapter {
	a, err := NewChatAdapter(cfg)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *ChatAdapter) Tier() contractx.Tier {
	return a.cfg.Tier
}

func (a *ChatAdapter) Invoke(ctx context.Context, req contractx.BackendRequest) (string, error) {
	if strings.TrimSpace(req.Message.Text) == "" {
		return "", fmt.Errorf("%w: message text is empty", contractx.ErrValidation)
	}

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, openaisdk.SystemMessage(system))
	}
	messages = append(messages, openaisdk.UserMessage(req.Message.Text))

	params := openaisdk.ChatCompletionNewParams{
		Model:    shared.ChatModel(a.cfg.Model),
		Messages: messages,
	}
	if a.cfg.MaxTokens > 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(a.cfg.MaxTokens))
	}

	start := time.Now()
	completion, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", a.classify(err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: %s returned no choices", contractx.ErrBackendError, a.cfg.Model)
	}
	// A reply that is all reasoning counts as no reply, so the registry
	// can escalate to a more capable tier.
	reply := chatapix.StripReasoning(completion.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("%w: %s returned an empty completion", contractx.ErrBackendError, a.cfg.Model)
	}

	a.log.Debug().
		Str("model", a.cfg.Model).
		Dur("elapsed", time.Since(start)).
		Msg("completion served")
	return reply, nil
}

// classify sorts a failure into the two classes the registry escalates on:
// the endpoint answered badly, or it did not answer at all.
func (a *ChatAdapter) classify(err error) error {
	var apiErr *openaisdk.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s %s: status %d", contractx.ErrBackendError, a.cfg.Tier, a.cfg.Model, apiErr.StatusCode)
	}
	return fmt.Errorf("%w: %s %s: %v", contractx.ErrBackendUnavailable, a.cfg.Tier, a.cfg.Model, err)
}
