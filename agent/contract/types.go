package contract

import (
	"strings"
	"time"
)

// Tier is one of the discrete inference capability levels a message can be
// routed to. Capability is totally ordered: fast < smart < cloud.
type Tier string

const (
	TierFast  Tier = "fast"
	TierSmart Tier = "smart"
	TierCloud Tier = "cloud"
)

// TierOrder lists tiers from least to most capable; the registry walks it
// upward when escalating.
var TierOrder = []Tier{TierFast, TierSmart, TierCloud}

func (t Tier) Rank() int {
	switch t {
	case TierFast:
		return 0
	case TierSmart:
		return 1
	case TierCloud:
		return 2
	default:
		return -1
	}
}

func (t Tier) Valid() bool {
	return t.Rank() >= 0
}

func ParseTier(s string) (Tier, bool) {
	tier := Tier(strings.ToLower(strings.TrimSpace(s)))
	return tier, tier.Valid()
}

// Message is one incoming user utterance. Immutable once received.
type Message struct {
	Text      string    `json:"text"`
	SenderID  string    `json:"sender_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RoutingDecision is produced per message and never persisted.
type RoutingDecision struct {
	Tier   Tier   `json:"tier"`
	Reason string `json:"reason"`
}

// BackendConfig describes one tier endpoint, loaded once at process start
// and immutable for process lifetime. Provider is carried for logs only;
// adapters never branch on it.
type BackendConfig struct {
	Tier      Tier
	Provider  string
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// BackendRequest is the uniform call surface of every adapter: assembled
// system context plus the user message, nothing provider-specific.
type BackendRequest struct {
	System  string
	Message Message
}

// BackendReply carries the reply text and the tier that actually served it,
// which may be more capable than the tier requested.
type BackendReply struct {
	Text string
	Tier Tier
}

// ProfileSource records which slot of the two-slot profile lookup resolved.
type ProfileSource string

const (
	ProfileFromLocal ProfileSource = "local"
	ProfileFromBase  ProfileSource = "base"
)

// FamilyProfile is the identity of a known person. When both a local and a
// base document exist, the local one strictly overrides the base; the two
// are never merged. An empty Source means no profile exists.
type FamilyProfile struct {
	PersonID  string
	Name      string
	Age       int
	Interests []string
	Notes     string
	Source    ProfileSource
}

func (p FamilyProfile) Empty() bool {
	return p.Source == ""
}

// SessionSummary is one dated session-log document: every block appended
// for that calendar date, oldest first within the date.
type SessionSummary struct {
	Date   string
	Blocks []string
}

type SectionKind string

const (
	SectionCurated  SectionKind = "curated"
	SectionProfile  SectionKind = "profile"
	SectionSessions SectionKind = "sessions"
)

type Section struct {
	Kind SectionKind
	ID   string
	Text string
}

// MemoryContext is the ordered context assembled for a backend call:
// curated memory first, then profiles by person id, then session summaries
// newest first. Order is a contract; it decides what the backend treats as
// authoritative when sources conflict.
type MemoryContext struct {
	Sections []Section
}

func (m MemoryContext) Empty() bool {
	return len(m.Sections) == 0
}

// Text renders the non-empty sections joined by a horizontal rule.
// Identical store contents produce byte-identical output.
func (m MemoryContext) Text() string {
	parts := make([]string, 0, len(m.Sections))
	for _, s := range m.Sections {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// Role tags one transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one transcript turn: the unit the summarizer consumes and the
// transcript sink persists.
type Entry struct {
	At     time.Time `json:"at"`
	Sender string    `json:"sender,omitempty"`
	Role   Role      `json:"role"`
	Text   string    `json:"text"`
	Tier   Tier      `json:"tier,omitempty"`
}

// ProfileUpdate is a summarizer proposal to enrich a person's profile.
type ProfileUpdate struct {
	PersonID string `json:"person_id"`
	Note     string `json:"note"`
}

// SummaryNote is the durable outcome of one session.
type SummaryNote struct {
	Text           string          `json:"summary"`
	ProfileUpdates []ProfileUpdate `json:"profile_updates,omitempty"`
}

func (n SummaryNote) Empty() bool {
	return strings.TrimSpace(n.Text) == ""
}

// AgentRole selects a model configuration for the LLM-backed agents.
type AgentRole string

const (
	AgentSummarizer AgentRole = "summarizer"
	AgentCurator    AgentRole = "curator"
)
