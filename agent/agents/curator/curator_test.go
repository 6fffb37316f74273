package curator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
	memoryx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/memory"
)

type fakeToolCallingModel struct {
	responses []*schema.Message
	err       error
	idx       int
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

func seedStore(t *testing.T) *memoryx.FileStore {
	t.Helper()
	ctx := context.Background()

	store, err := memoryx.NewFileStore(memoryx.Config{Root: t.TempDir()}, memoryx.WithClock(func() time.Time {
		return time.Date(2026, time.March, 14, 4, 0, 0, 0, time.UTC)
	}))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := store.WriteCurated(ctx, "# Memory\n\nThe family lives near the lake.\n"); err != nil {
		t.Fatalf("WriteCurated() error = %v", err)
	}
	if err := store.AppendSession(ctx, "2026-03-13", "Arlo wants to be a pilot."); err != nil {
		t.Fatalf("AppendSession() error = %v", err)
	}
	return store
}

func TestRefreshRewritesCuratedMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := seedStore(t)

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: "# Memory\n\nThe family lives near the lake. Arlo dreams of flying."},
		},
	}
	c, err := New(ctx, store, fake, "curator prompt", Config{DaysBack: 14})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	curated, err := store.LoadCurated(ctx)
	if err != nil {
		t.Fatalf("LoadCurated() error = %v", err)
	}
	if !strings.Contains(curated, "dreams of flying") {
		t.Errorf("curated = %q, want the rewritten document", curated)
	}
}

func TestRefreshSkipsWithoutSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := memoryx.NewFileStore(memoryx.Config{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := store.WriteCurated(ctx, "# Memory\n\nUntouched.\n"); err != nil {
		t.Fatalf("WriteCurated() error = %v", err)
	}

	fake := &fakeToolCallingModel{}
	c, err := New(ctx, store, fake, "curator prompt", Config{DaysBack: 14})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if fake.idx != 0 {
		t.Errorf("model called %d times with no sessions to curate", fake.idx)
	}

	curated, _ := store.LoadCurated(ctx)
	if !strings.Contains(curated, "Untouched") {
		t.Errorf("curated = %q, want the old document kept", curated)
	}
}

func TestRefreshKeepsOldDocumentOnModelFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := seedStore(t)

	c, err := New(ctx, store, &fakeToolCallingModel{err: errors.New("connection refused")}, "curator prompt", Config{DaysBack: 14})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Refresh(ctx); !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("Refresh() error = %v, want ErrModelInvoke", err)
	}

	curated, _ := store.LoadCurated(ctx)
	if !strings.Contains(curated, "lives near the lake") {
		t.Errorf("curated = %q, want the old document kept after failure", curated)
	}
}

func TestRefreshStripsReasoningBlocks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := seedStore(t)

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: "<think>weighing what to keep</think># Memory\n\nClean document."},
		},
	}
	c, err := New(ctx, store, fake, "curator prompt", Config{DaysBack: 14})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	curated, _ := store.LoadCurated(ctx)
	if strings.Contains(curated, "think") {
		t.Errorf("curated = %q, reasoning block leaked", curated)
	}
	if !strings.Contains(curated, "Clean document.") {
		t.Errorf("curated = %q, want the answer kept", curated)
	}
}

func TestRefreshRejectsEmptyRewrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := seedStore(t)

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: "<think>nothing but reasoning</think>"},
		},
	}
	c, err := New(ctx, store, fake, "curator prompt", Config{DaysBack: 14})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Refresh(ctx); !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("Refresh() error = %v, want ErrSchemaViolation", err)
	}

	curated, _ := store.LoadCurated(ctx)
	if !strings.Contains(curated, "lives near the lake") {
		t.Errorf("curated = %q, want the old document kept", curated)
	}
}

func TestRefreshClampsOversizedDocument(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := seedStore(t)

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: "# Memory\n\n" + strings.Repeat("lake ", 4000)},
		},
	}
	c, err := New(ctx, store, fake, "curator prompt", Config{DaysBack: 14})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	curated, _ := store.LoadCurated(ctx)
	if len(curated) > maxDocBytes+1 {
		t.Errorf("curated document is %d bytes, want at most %d", len(curated), maxDocBytes+1)
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := seedStore(t)

	if _, err := New(ctx, nil, &fakeToolCallingModel{}, "prompt", Config{}); err == nil {
		t.Error("New(nil store) error = nil, want error")
	}
	if _, err := New(ctx, store, nil, "prompt", Config{}); err == nil {
		t.Error("New(nil model) error = nil, want error")
	}
	if _, err := New(ctx, store, &fakeToolCallingModel{}, " ", Config{}); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Errorf("New(blank prompt) error = %v, want ErrPromptMissing", err)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := New(ctx, seedStore(t), &fakeToolCallingModel{}, "prompt", Config{Enabled: true, Schedule: "not a schedule", DaysBack: 14})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Start(ctx); err == nil {
		t.Error("Start() with a bad schedule, want error")
	}
}
