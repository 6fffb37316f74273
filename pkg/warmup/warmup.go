package warmup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	logx "github.com/tanpawarit/Juno-Tiered-Home-Agent/pkg/logger"
)

// Target is one local inference endpoint kept warm between sessions, so the
// first question of a session does not pay model cold-start latency.
type Target struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
}

type Config struct {
	Enabled     bool          `split_words:"true" default:"true"`
	Interval    time.Duration `split_words:"true" default:"5m"`
	ActiveFrom  int           `split_words:"true" default:"8"`
	ActiveUntil int           `split_words:"true" default:"22"`
	Timeout     time.Duration `split_words:"true" default:"10s"`
}

type Pinger struct {
	targets     []Target
	interval    time.Duration
	activeFrom  int
	activeUntil int
	httpClient  *http.Client
	now         func() time.Time
	log         zerolog.Logger
}

func NewPinger(cfg Config, targets ...Target) (*Pinger, error) {
	cleaned := make([]Target, 0, len(targets))
	for _, t := range targets {
		baseURL := strings.TrimSpace(t.BaseURL)
		if baseURL == "" {
			return nil, fmt.Errorf("warmup: target %q base url is required", t.Name)
		}
		if _, err := url.ParseRequestURI(baseURL); err != nil {
			return nil, fmt.Errorf("warmup: target %q: %w", t.Name, err)
		}
		if strings.TrimSpace(t.Model) == "" {
			return nil, fmt.Errorf("warmup: target %q model is required", t.Name)
		}
		t.BaseURL = strings.TrimRight(baseURL, "/")
		cleaned = append(cleaned, t)
	}
	if len(cleaned) == 0 {
		return nil, errors.New("warmup: at least one target is required")
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Pinger{
		targets:     cleaned,
		interval:    interval,
		activeFrom:  cfg.ActiveFrom,
		activeUntil: cfg.ActiveUntil,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
		log: logx.With("warmup"),
	}, nil
}

func MustNew(cfg Config, targets ...Target) *Pinger {
	pinger, err := NewPinger(cfg, targets...)
	if err != nil {
		panic(err)
	}
	return pinger
}

// Run pings every target once, then again on the configured interval during
// active hours, until ctx is cancelled. Failures are logged, never surfaced.
func (p *Pinger) Run(ctx context.Context) {
	p.PingAll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.withinActiveHours(p.now()) {
				continue
			}
			p.PingAll(ctx)
		}
	}
}

func (p *Pinger) PingAll(ctx context.Context) {
	for _, t := range p.targets {
		if err := p.ping(ctx, t); err != nil {
			p.log.Warn().Err(err).Str("target", t.Name).Msg("warmup ping failed")
			continue
		}
		p.log.Debug().Str("target", t.Name).Msg("warmup ping ok")
	}
}

type pingRequest struct {
	Model     string        `json:"model"`
	Messages  []pingMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type pingMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (p *Pinger) ping(ctx context.Context, t Target) error {
	body, err := json.Marshal(pingRequest{
		Model:     t.Model,
		Messages:  []pingMessage{{Role: "user", Content: "hi"}},
		MaxTokens: 1,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if key := strings.TrimSpace(t.APIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("warmup: %s responded %s", t.Name, resp.Status)
	}
	return nil
}

// withinActiveHours gates interval pings to the configured local-time window.
// ActiveFrom == ActiveUntil disables gating; From > Until spans midnight.
func (p *Pinger) withinActiveHours(t time.Time) bool {
	if p.activeFrom == p.activeUntil {
		return true
	}
	h := t.Hour()
	if p.activeFrom < p.activeUntil {
		return h >= p.activeFrom && h < p.activeUntil
	}
	return h >= p.activeFrom || h < p.activeUntil
}
