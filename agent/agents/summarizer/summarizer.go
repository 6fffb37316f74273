package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
	logx "github.com/tanpawarit/Juno-Tiered-Home-Agent/pkg/logger"
)

const defaultWordLimit = 300

var _ contractx.Summarizer = (*Summarizer)(nil)

// Summarizer condenses one session transcript into the note the memory
// store keeps. The note is a bounded digest, never the raw conversation.
type Summarizer struct {
	runner    compose.Runnable[map[string]any, summaryLLMOutput]
	wordLimit int
	log       zerolog.Logger
}

type summaryLLMOutput struct {
	Summary        string            `json:"summary"`
	ProfileUpdates []profileUpdateIn `json:"profile_updates,omitempty"`
}

type profileUpdateIn struct {
	PersonID string `json:"person_id"`
	Note     string `json:"note"`
}

type Option func(*Summarizer)

func WithWordLimit(limit int) Option {
	return func(s *Summarizer) { s.wordLimit = limit }
}

func New(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string, opts ...Option) (*Summarizer, error) {
	if chatModel == nil {
		return nil, errors.New("summarizer: chat model is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: summarizer prompt", contractx.ErrPromptMissing)
	}

	runner, err := compileSummaryGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile summary graph: %v", contractx.ErrModelInvoke, err)
	}

	s := &Summarizer{
		runner:    runner,
		wordLimit: defaultWordLimit,
		log:       logx.With("summarizer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Summarizer) Summarize(ctx context.Context, entries []contractx.Entry) (contractx.SummaryNote, error) {
	turns := FilterNoise(entries)
	if len(turns) == 0 {
		return contractx.SummaryNote{}, nil
	}

	out, err := s.runner.Invoke(ctx, map[string]any{
		"input": FormatTranscript(turns),
	})
	if err != nil {
		return contractx.SummaryNote{}, fmt.Errorf("%w: summarizer invoke: %v", contractx.ErrModelInvoke, err)
	}

	summary := strings.TrimSpace(out.Summary)
	if summary == "" {
		return contractx.SummaryNote{}, fmt.Errorf("%w: summary is empty", contractx.ErrSchemaViolation)
	}

	note := contractx.SummaryNote{Text: clampWords(summary, s.wordLimit)}

	speakers := speakerSet(turns)
	for _, u := range out.ProfileUpdates {
		id := strings.ToLower(strings.TrimSpace(u.PersonID))
		text := strings.TrimSpace(u.Note)
		if id == "" || text == "" {
			continue
		}
		// Proposals about people who never spoke are hallucinations.
		if !speakers[id] {
			s.log.Warn().Str("person_id", id).Msg("dropped profile update for absent speaker")
			continue
		}
		note.ProfileUpdates = append(note.ProfileUpdates, contractx.ProfileUpdate{PersonID: id, Note: text})
	}

	return note, nil
}

// Digest is the no-model fallback: a clipped turn list so the day still
// leaves a trace in the session log when every summarizer backend is down.
func Digest(entries []contractx.Entry) contractx.SummaryNote {
	turns := FilterNoise(entries)
	if len(turns) == 0 {
		return contractx.SummaryNote{}
	}

	const maxLines = 12
	var sb strings.Builder
	sb.WriteString("Automatic digest, summary model unreachable:")
	for i, e := range turns {
		if i == maxLines {
			fmt.Fprintf(&sb, "\n- and %d more turns", len(turns)-maxLines)
			break
		}
		sb.WriteString("\n- ")
		sb.WriteString(formatTurn(e, 80))
	}
	return contractx.SummaryNote{Text: sb.String()}
}

// FilterNoise drops blank turns and exact repeats, keeping the first
// occurrence, so a chant repeated twelve times is one line of input.
func FilterNoise(entries []contractx.Entry) []contractx.Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]contractx.Entry, 0, len(entries))
	for _, e := range entries {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		key := string(e.Role) + "\x00" + normalizeText(text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

// FormatTranscript renders turns one per line for the model input.
func FormatTranscript(entries []contractx.Entry) string {
	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(formatTurn(e, 0))
	}
	return sb.String()
}

func formatTurn(e contractx.Entry, clip int) string {
	name := strings.TrimSpace(e.Sender)
	if name == "" {
		name = string(e.Role)
	}
	text := strings.TrimSpace(e.Text)
	if clip > 0 {
		if r := []rune(text); len(r) > clip {
			text = string(r[:clip]) + "..."
		}
	}
	return fmt.Sprintf("%s %s (%s): %s", e.At.Format("15:04"), name, e.Role, text)
}

func speakerSet(entries []contractx.Entry) map[string]bool {
	speakers := make(map[string]bool, 2)
	for _, e := range entries {
		if sender := strings.ToLower(strings.TrimSpace(e.Sender)); sender != "" {
			speakers[sender] = true
		}
	}
	return speakers
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func clampWords(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	return strings.Join(words[:limit], " ") + " ..."
}
