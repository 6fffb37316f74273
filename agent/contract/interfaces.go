package contract

import "context"

// Classifier selects a tier for a message. Pure: no I/O, no side effects,
// deterministic for identical input.
type Classifier interface {
	Classify(msg Message) RoutingDecision
}

// Backend is one configured inference endpoint.
type Backend interface {
	Tier() Tier
	Invoke(ctx context.Context, req BackendRequest) (string, error)
}

// Registry routes a request to the chosen tier, escalating to more capable
// tiers on failure and never downgrading.
type Registry interface {
	Invoke(ctx context.Context, tier Tier, req BackendRequest) (BackendReply, error)
}

// Store owns every persisted memory entity. Reads resolve absence to empty
// values, never errors; AppendSession is atomic per call.
type Store interface {
	LoadCurated(ctx context.Context) (string, error)
	LoadProfile(ctx context.Context, personID string) (FamilyProfile, error)
	LoadProfiles(ctx context.Context) ([]FamilyProfile, error)
	LoadSessions(ctx context.Context, daysBack int) ([]SessionSummary, error)
	AppendSession(ctx context.Context, date string, block string) error
	AppendProfileNote(ctx context.Context, personID string, note string) error
	WriteCurated(ctx context.Context, text string) error
}

// ContextBuilder assembles the ordered MemoryContext from the store.
type ContextBuilder interface {
	Build(ctx context.Context, daysBack int) (MemoryContext, error)
}

// Summarizer reduces a session transcript to a bounded durable note.
type Summarizer interface {
	Summarize(ctx context.Context, transcript []Entry) (SummaryNote, error)
}

// TranscriptSink retains raw transcripts independent of summarization
// success, so a missed summary is recoverable rather than data loss.
type TranscriptSink interface {
	Record(ctx context.Context, sessionID string, entries ...Entry) error
}
