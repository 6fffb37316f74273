package memory

import (
	"context"
	"errors"
	"strings"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
)

var _ contractx.ContextBuilder = (*Builder)(nil)

// Builder assembles the model context from the store in a fixed order:
// curated memory first, then family profiles sorted by person id, then
// recent sessions newest first. It never writes.
type Builder struct {
	store contractx.Store
}

func NewBuilder(store contractx.Store) (*Builder, error) {
	if store == nil {
		return nil, errors.New("memory store is required")
	}
	return &Builder{store: store}, nil
}

func MustNewBuilder(store contractx.Store) *Builder {
	b, err := NewBuilder(store)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Builder) Build(ctx context.Context, daysBack int) (contractx.MemoryContext, error) {
	var mc contractx.MemoryContext

	curated, err := b.store.LoadCurated(ctx)
	if err != nil {
		return contractx.MemoryContext{}, err
	}
	if text := strings.TrimSpace(curated); text != "" {
		mc.Sections = append(mc.Sections, contractx.Section{
			Kind: contractx.SectionCurated,
			Text: text,
		})
	}

	profiles, err := b.store.LoadProfiles(ctx)
	if err != nil {
		return contractx.MemoryContext{}, err
	}
	for _, profile := range profiles {
		if profile.Notes == "" {
			continue
		}
		mc.Sections = append(mc.Sections, contractx.Section{
			Kind: contractx.SectionProfile,
			ID:   profile.PersonID,
			Text: profile.Notes,
		})
	}

	sessions, err := b.store.LoadSessions(ctx, daysBack)
	if err != nil {
		return contractx.MemoryContext{}, err
	}
	if text := renderSessions(sessions); text != "" {
		mc.Sections = append(mc.Sections, contractx.Section{
			Kind: contractx.SectionSessions,
			Text: text,
		})
	}

	return mc, nil
}

func renderSessions(sessions []contractx.SessionSummary) string {
	if len(sessions) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("## Recent Sessions")
	for _, session := range sessions {
		sb.WriteString("\n\n### ")
		sb.WriteString(session.Date)
		for _, block := range session.Blocks {
			sb.WriteString("\n\n")
			sb.WriteString(block)
		}
	}
	return sb.String()
}
