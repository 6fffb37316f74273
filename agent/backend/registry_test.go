package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
)

type stubBackend struct {
	tier  contractx.Tier
	reply string
	err   error
	calls int
}

func (s *stubBackend) Tier() contractx.Tier {
	return s.tier
}

func (s *stubBackend) Invoke(ctx context.Context, req contractx.BackendRequest) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func request(text string) contractx.BackendRequest {
	return contractx.BackendRequest{Message: contractx.Message{Text: text}}
}

func TestInvokeServesRequestedTier(t *testing.T) {
	t.Parallel()

	fast := &stubBackend{tier: contractx.TierFast, reply: "fast answer"}
	smart := &stubBackend{tier: contractx.TierSmart, reply: "smart answer"}
	registry := MustNewRegistry(fast, smart)

	reply, err := registry.Invoke(context.Background(), contractx.TierSmart, request("hello"))
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if reply.Tier != contractx.TierSmart || reply.Text != "smart answer" {
		t.Errorf("reply = %+v, want smart answer from smart tier", reply)
	}
	if fast.calls != 0 {
		t.Errorf("fast tier called %d times serving a smart request", fast.calls)
	}
}

func TestInvokeEscalatesOnFailure(t *testing.T) {
	t.Parallel()

	fast := &stubBackend{tier: contractx.TierFast, err: fmt.Errorf("%w: refused", contractx.ErrBackendUnavailable)}
	smart := &stubBackend{tier: contractx.TierSmart, reply: "covered"}
	registry := MustNewRegistry(fast, smart)

	reply, err := registry.Invoke(context.Background(), contractx.TierFast, request("hello"))
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if reply.Tier != contractx.TierSmart {
		t.Errorf("reply.Tier = %q, want escalation to smart", reply.Tier)
	}
	if fast.calls != 1 || smart.calls != 1 {
		t.Errorf("calls = fast %d smart %d, want 1 and 1", fast.calls, smart.calls)
	}
}

func TestInvokeNeverDowngrades(t *testing.T) {
	t.Parallel()

	fast := &stubBackend{tier: contractx.TierFast, reply: "should not serve"}
	smart := &stubBackend{tier: contractx.TierSmart, err: fmt.Errorf("%w: down", contractx.ErrBackendUnavailable)}
	cloud := &stubBackend{tier: contractx.TierCloud, err: fmt.Errorf("%w: down", contractx.ErrBackendUnavailable)}
	registry := MustNewRegistry(fast, smart, cloud)

	_, err := registry.Invoke(context.Background(), contractx.TierSmart, request("hello"))
	if !errors.Is(err, contractx.ErrAllBackendsUnavailable) {
		t.Fatalf("Invoke() error = %v, want ErrAllBackendsUnavailable", err)
	}
	if fast.calls != 0 {
		t.Errorf("fast tier called %d times for a smart request with healthy fast", fast.calls)
	}
}

func TestInvokeReportsEveryTierFailure(t *testing.T) {
	t.Parallel()

	registry := MustNewRegistry(
		&stubBackend{tier: contractx.TierFast, err: fmt.Errorf("%w: refused", contractx.ErrBackendUnavailable)},
		&stubBackend{tier: contractx.TierSmart, err: fmt.Errorf("%w: timeout", contractx.ErrBackendUnavailable)},
		&stubBackend{tier: contractx.TierCloud, err: fmt.Errorf("%w: status 500", contractx.ErrBackendError)},
	)

	_, err := registry.Invoke(context.Background(), contractx.TierFast, request("hello"))
	if !errors.Is(err, contractx.ErrAllBackendsUnavailable) {
		t.Fatalf("Invoke() error = %v, want ErrAllBackendsUnavailable", err)
	}
	for _, tier := range []string{"fast:", "smart:", "cloud:"} {
		if !strings.Contains(err.Error(), tier) {
			t.Errorf("error %q missing detail for %s", err, tier)
		}
	}
}

func TestInvokeSkipsUnconfiguredTiers(t *testing.T) {
	t.Parallel()

	fast := &stubBackend{tier: contractx.TierFast, err: fmt.Errorf("%w: down", contractx.ErrBackendUnavailable)}
	cloud := &stubBackend{tier: contractx.TierCloud, reply: "cloud answer"}
	registry := MustNewRegistry(fast, cloud)

	reply, err := registry.Invoke(context.Background(), contractx.TierFast, request("hello"))
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if reply.Tier != contractx.TierCloud {
		t.Errorf("reply.Tier = %q, want cloud after skipping absent smart", reply.Tier)
	}
}

func TestInvokeUnknownTier(t *testing.T) {
	t.Parallel()

	registry := MustNewRegistry(&stubBackend{tier: contractx.TierFast, reply: "x"})

	_, err := registry.Invoke(context.Background(), contractx.Tier("turbo"), request("hello"))
	if !errors.Is(err, contractx.ErrValidation) {
		t.Errorf("Invoke(turbo) error = %v, want ErrValidation", err)
	}
}

func TestInvokeStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	fast := &stubBackend{tier: contractx.TierFast, reply: "x"}
	registry := MustNewRegistry(fast)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := registry.Invoke(ctx, contractx.TierFast, request("hello"))
	if !errors.Is(err, contractx.ErrAllBackendsUnavailable) {
		t.Fatalf("Invoke() error = %v, want ErrAllBackendsUnavailable", err)
	}
	if fast.calls != 0 {
		t.Errorf("backend called %d times under a canceled context", fast.calls)
	}
}

func TestNewRegistryValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewRegistry(); err == nil {
		t.Error("NewRegistry() with no backends, want error")
	}
	if _, err := NewRegistry(
		&stubBackend{tier: contractx.TierFast},
		&stubBackend{tier: contractx.TierFast},
	); err == nil {
		t.Error("NewRegistry() with duplicate tiers, want error")
	}
	if _, err := NewRegistry(&stubBackend{tier: contractx.Tier("warp")}); err == nil {
		t.Error("NewRegistry() with invalid tier, want error")
	}
}

func TestTiersListsConfiguredInOrder(t *testing.T) {
	t.Parallel()

	registry := MustNewRegistry(
		&stubBackend{tier: contractx.TierCloud},
		&stubBackend{tier: contractx.TierFast},
	)

	tiers := registry.Tiers()
	if len(tiers) != 2 || tiers[0] != contractx.TierFast || tiers[1] != contractx.TierCloud {
		t.Errorf("Tiers() = %v, want [fast cloud]", tiers)
	}
}
