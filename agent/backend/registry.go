package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
	logx "github.com/tanpawarit/Juno-Tiered-Home-Agent/pkg/logger"
)

var _ contractx.Registry = (*TierRegistry)(nil)

// TierRegistry holds one backend per configured tier and serves every call
// with monotonic escalation: a request is answered by the requested tier or
// a more capable one, never a less capable one. Escalation happens on
// failure only; routing never consults backend health.
type TierRegistry struct {
	backends map[contractx.Tier]contractx.Backend
	log      zerolog.Logger
}

func NewRegistry(backends ...contractx.Backend) (*TierRegistry, error) {
	if len(backends) == 0 {
		return nil, errors.New("backend: at least one backend is required")
	}

	byTier := make(map[contractx.Tier]contractx.Backend, len(backends))
	for _, b := range backends {
		if b == nil {
			return nil, errors.New("backend: nil backend")
		}
		tier := b.Tier()
		if !tier.Valid() {
			return nil, fmt.Errorf("backend: invalid tier %q", tier)
		}
		if _, dup := byTier[tier]; dup {
			return nil, fmt.Errorf("backend: duplicate tier %q", tier)
		}
		byTier[tier] = b
	}

	return &TierRegistry{backends: byTier, log: logx.With("registry")}, nil
}

func MustNewRegistry(backends ...contractx.Backend) *TierRegistry {
	r, err := NewRegistry(backends...)
	if err != nil {
		panic(err)
	}
	return r
}

// NewRegistryFromConfig builds an adapter per enabled tier and registers
// them.
func NewRegistryFromConfig(cfg Config) (*TierRegistry, error) {
	backends := make([]contractx.Backend, 0, len(contractx.TierOrder))
	for _, bc := range cfg.Configured() {
		adapter, err := NewChatAdapter(bc)
		if err != nil {
			return nil, err
		}
		backends = append(backends, adapter)
	}
	return NewRegistry(backends...)
}

// Tiers lists the configured tiers, least capable first.
func (r *TierRegistry) Tiers() []contractx.Tier {
	tiers := make([]contractx.Tier, 0, len(r.backends))
	for _, tier := range contractx.TierOrder {
		if _, ok := r.backends[tier]; ok {
			tiers = append(tiers, tier)
		}
	}
	return tiers
}

func (r *TierRegistry) Invoke(ctx context.Context, tier contractx.Tier, req contractx.BackendRequest) (contractx.BackendReply, error) {
	if !tier.Valid() {
		return contractx.BackendReply{}, fmt.Errorf("%w: unknown tier %q", contractx.ErrValidation, tier)
	}

	var failures []string
	for _, candidate := range contractx.TierOrder {
		if candidate.Rank() < tier.Rank() {
			continue
		}
		b, ok := r.backends[candidate]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return contractx.BackendReply{}, fmt.Errorf("%w: %v", contractx.ErrAllBackendsUnavailable, err)
		}

		text, err := b.Invoke(ctx, req)
		if err == nil {
			if candidate != tier {
				r.log.Info().
					Str("requested", string(tier)).
					Str("served", string(candidate)).
					Msg("request escalated")
			}
			return contractx.BackendReply{Text: text, Tier: candidate}, nil
		}

		failures = append(failures, fmt.Sprintf("%s: %v", candidate, err))
		r.log.Warn().
			Err(err).
			Str("tier", string(candidate)).
			Msg("backend failed, escalating")
	}

	if len(failures) == 0 {
		return contractx.BackendReply{}, fmt.Errorf("%w: no backend configured at or above tier %q", contractx.ErrAllBackendsUnavailable, tier)
	}
	return contractx.BackendReply{}, fmt.Errorf("%w: %s", contractx.ErrAllBackendsUnavailable, strings.Join(failures, "; "))
}
