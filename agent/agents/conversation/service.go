package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"

	summarizerx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/agents/summarizer"
	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
	nodex "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/nodes/conversation"
	sessionx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/session"
	logx "github.com/tanpawarit/Juno-Tiered-Home-Agent/pkg/logger"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

type Config struct {
	Persona  string
	DaysBack int
}

// Service owns the message path and the session lifecycle. Every message
// runs the same pipeline: validate, attach session, build context, route,
// invoke, record, finalize. Ending a session is what turns its transcript
// into durable memory.
type Service struct {
	models     contractx.Registry
	classifier contractx.Classifier
	builder    contractx.ContextBuilder
	store      contractx.Store
	summarizer contractx.Summarizer
	sink       contractx.TranscriptSink

	sessions *sessionx.Manager

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	persona  string
	daysBack int

	now func() time.Time
	log zerolog.Logger
}

func New(
	models contractx.Registry,
	classifier contractx.Classifier,
	builder contractx.ContextBuilder,
	store contractx.Store,
	summarizer contractx.Summarizer,
	sink contractx.TranscriptSink,
	cfg Config,
) (*Service, error) {
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if builder == nil {
		return nil, errors.New("context builder is required")
	}
	if store == nil {
		return nil, errors.New("memory store is required")
	}
	if summarizer == nil {
		return nil, errors.New("summarizer is required")
	}
	if sink == nil {
		sink = noopSink{}
	}

	persona := strings.TrimSpace(cfg.Persona)
	if persona == "" {
		return nil, fmt.Errorf("%w: persona prompt", contractx.ErrPromptMissing)
	}
	daysBack := cfg.DaysBack
	if daysBack <= 0 {
		daysBack = 7
	}

	s := &Service{
		models:     models,
		classifier: classifier,
		builder:    builder,
		store:      store,
		summarizer: summarizer,
		sink:       sink,
		sessions:   sessionx.NewManager(),
		persona:    persona,
		daysBack:   daysBack,
		now:        time.Now,
		log:        logx.With("conversation"),
	}

	graphRunner, err := s.compileConversationGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.graphRunner = graphRunner

	return s, nil
}

func (s *Service) HandleMessage(ctx context.Context, sessionID, senderID, text string) (string, error) {
	out, err := s.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		SenderID:  senderID,
		Text:      text,
	})
	if err != nil {
		return "", err
	}

	s.log.Info().
		Str("session_id", sessionID).
		Str("tier", string(out.Tier)).
		Str("reason", out.Reason).
		Msg("message answered")
	return out.Reply, nil
}

// EndSession summarizes the session transcript into one dated note and
// applies any proposed profile updates. Ending twice writes once; ending
// a session that never spoke writes nothing.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return ErrInvalidSession
	}

	session, ok := s.sessions.Get(id)
	if !ok {
		return nil
	}
	if !session.MarkEnded() {
		return nil
	}
	defer s.sessions.Remove(id)

	entries := session.Entries()
	if len(entries) == 0 {
		s.log.Debug().Str("session_id", id).Msg("session had no turns")
		return nil
	}

	note, err := s.summarizer.Summarize(ctx, entries)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", id).Msg("summarizer failed, keeping a digest")
		note = summarizerx.Digest(entries)
	}
	if note.Empty() {
		s.log.Debug().Str("session_id", id).Msg("nothing worth keeping")
		return nil
	}

	if err := s.store.AppendSession(ctx, s.now().Format("2006-01-02"), note.Text); err != nil {
		return fmt.Errorf("append session note: %w", err)
	}

	for _, update := range note.ProfileUpdates {
		if err := s.store.AppendProfileNote(ctx, update.PersonID, update.Note); err != nil {
			s.log.Warn().
				Err(err).
				Str("person_id", update.PersonID).
				Msg("profile update not applied")
		}
	}

	s.log.Info().
		Str("session_id", id).
		Int("turns", len(entries)).
		Int("profile_updates", len(note.ProfileUpdates)).
		Msg("session closed")
	return nil
}

// EndAll closes every live session, used at shutdown.
func (s *Service) EndAll(ctx context.Context) {
	for _, id := range s.sessions.ActiveIDs() {
		if err := s.EndSession(ctx, id); err != nil {
			s.log.Error().Err(err).Str("session_id", id).Msg("session close failed")
		}
	}
}

type noopSink struct{}

func (noopSink) Record(context.Context, string, ...contractx.Entry) error {
	return nil
}
