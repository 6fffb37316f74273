package curator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	rcron "github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
	chatapix "github.com/tanpawarit/Juno-Tiered-Home-Agent/pkg/chatapi"
	logx "github.com/tanpawarit/Juno-Tiered-Home-Agent/pkg/logger"
)

const (
	refreshTimeout = 5 * time.Minute

	// Hard cap on the rewritten document so a runaway model cannot grow
	// curated memory without bound.
	maxDocBytes = 8 << 10
)

type Config struct {
	Enabled  bool   `split_words:"true" default:"true"`
	Schedule string `split_words:"true" default:"0 4 * * 0"`
	DaysBack int    `envconfig:"DAYS_BACK" split_words:"true" default:"14"`
}

// Curator rewrites the curated long-term memory document from recent
// session notes. It is the only writer of that document; conversations
// and the summarizer never touch it.
type Curator struct {
	store  contractx.Store
	runner compose.Runnable[map[string]any, *schema.Message]
	cfg    Config
	sweeps []func(context.Context) error
	log    zerolog.Logger
}

type Option func(*Curator)

// WithSweep registers housekeeping to run after each scheduled refresh.
func WithSweep(sweep func(context.Context) error) Option {
	return func(c *Curator) { c.sweeps = append(c.sweeps, sweep) }
}

func New(ctx context.Context, store contractx.Store, chatModel einomodel.BaseChatModel, systemPrompt string, cfg Config, opts ...Option) (*Curator, error) {
	if store == nil {
		return nil, errors.New("curator: memory store is required")
	}
	if chatModel == nil {
		return nil, errors.New("curator: chat model is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: curator prompt", contractx.ErrPromptMissing)
	}
	if cfg.DaysBack <= 0 {
		cfg.DaysBack = 14
	}

	runner, err := compileCuratorGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile curator graph: %v", contractx.ErrModelInvoke, err)
	}

	c := &Curator{
		store:  store,
		runner: runner,
		cfg:    cfg,
		log:    logx.With("curator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Refresh rewrites curated memory once. The current document survives
// untouched when there are no session notes to fold in or when the model
// fails.
func (c *Curator) Refresh(ctx context.Context) error {
	curated, err := c.store.LoadCurated(ctx)
	if err != nil {
		return err
	}
	sessions, err := c.store.LoadSessions(ctx, c.cfg.DaysBack)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		c.log.Debug().Msg("no recent sessions, curated memory kept as is")
		return nil
	}

	out, err := c.runner.Invoke(ctx, map[string]any{
		"input": formatCuratorInput(curated, sessions),
	})
	if err != nil {
		return fmt.Errorf("%w: curator invoke: %v", contractx.ErrModelInvoke, err)
	}

	doc := chatapix.StripReasoning(out.Content)
	if doc == "" {
		return fmt.Errorf("%w: curator produced an empty document", contractx.ErrSchemaViolation)
	}
	doc = clampBytes(doc, maxDocBytes)

	if err := c.store.WriteCurated(ctx, doc+"\n"); err != nil {
		return err
	}
	c.log.Info().
		Int("sessions", len(sessions)).
		Int("bytes", len(doc)).
		Msg("curated memory rewritten")
	return nil
}

// Start registers the refresh job and runs the scheduler until ctx ends.
func (c *Curator) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		c.log.Info().Msg("curation disabled")
		return nil
	}

	runner := rcron.New()
	if _, err := runner.AddFunc(c.cfg.Schedule, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		if err := c.Refresh(jobCtx); err != nil {
			c.log.Error().Err(err).Msg("scheduled curation failed")
		}
		for _, sweep := range c.sweeps {
			if err := sweep(jobCtx); err != nil {
				c.log.Warn().Err(err).Msg("scheduled sweep failed")
			}
		}
	}); err != nil {
		return fmt.Errorf("curator: register schedule %q: %w", c.cfg.Schedule, err)
	}

	runner.Start()
	c.log.Info().Str("schedule", c.cfg.Schedule).Msg("curation scheduled")

	go func() {
		<-ctx.Done()
		runner.Stop()
	}()
	return nil
}

func formatCuratorInput(curated string, sessions []contractx.SessionSummary) string {
	var sb strings.Builder
	sb.WriteString("Current long-term memory:\n\n")
	if text := strings.TrimSpace(curated); text != "" {
		sb.WriteString(text)
	} else {
		sb.WriteString("(empty)")
	}
	sb.WriteString("\n\nSession notes:\n")
	for _, s := range sessions {
		sb.WriteString("\n")
		sb.WriteString(s.Date)
		sb.WriteString("\n")
		for _, block := range s.Blocks {
			sb.WriteString("\n")
			sb.WriteString(block)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func clampBytes(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return strings.TrimSpace(cut)
}
