package router

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
)

// Decision reasons carried on RoutingDecision for logs and diagnostics.
const (
	ReasonControlCommand = "control vocabulary"
	ReasonShortQuestion  = "short question"
	ReasonEscalated      = "escalated by default"
)

type Config struct {
	ControlWords  []string      `envconfig:"CONTROL_WORDS" split_words:"true" default:"move,turn,stop,go,come,follow,forward,backward,left,right,up,down,spin,play,pause,resume,speak,say,sing,dance,light,lights,volume,louder,quieter"`
	WordThreshold int           `envconfig:"WORD_THRESHOLD" split_words:"true" default:"8"`
	CapableTier   string        `envconfig:"CAPABLE_TIER" split_words:"true" default:"smart"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" split_words:"true" default:"5m"`
	CacheSize     int           `envconfig:"CACHE_SIZE" split_words:"true" default:"256"`
}

// Lead-in words that mark a message as interrogative; a question mark
// anywhere in the message also qualifies.
var questionWords = map[string]struct{}{
	"what": {}, "why": {}, "how": {}, "when": {}, "where": {}, "who": {},
	"which": {}, "is": {}, "are": {}, "am": {}, "do": {}, "does": {},
	"did": {}, "can": {}, "could": {}, "will": {}, "would": {}, "should": {},
	"may": {}, "might": {},
}

var _ contractx.Classifier = (*Classifier)(nil)

// Classifier picks a tier per message with ordered rules, first match wins:
// control vocabulary routes fast, short questions route fast, everything
// else escalates to the capable tier. The tie-break is asymmetric on
// purpose: a simple question wrongly escalated costs latency, a hard
// question wrongly answered fast costs correctness and trust, which is
// worse for children. Backend availability plays no part in the decision.
type Classifier struct {
	control       *regexp.Regexp
	wordThreshold int
	capableTier   contractx.Tier
}

func New(cfg Config) (*Classifier, error) {
	words := make([]string, 0, len(cfg.ControlWords))
	for _, w := range cfg.ControlWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		words = append(words, regexp.QuoteMeta(w))
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: control vocabulary is empty", contractx.ErrValidation)
	}
	if cfg.WordThreshold <= 0 {
		return nil, fmt.Errorf("%w: word threshold must be positive", contractx.ErrValidation)
	}
	capable, ok := contractx.ParseTier(cfg.CapableTier)
	if !ok || capable == contractx.TierFast {
		return nil, fmt.Errorf("%w: capable tier must be smart or cloud, got %q", contractx.ErrValidation, cfg.CapableTier)
	}

	control, err := regexp.Compile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("%w: control vocabulary: %v", contractx.ErrValidation, err)
	}

	return &Classifier{
		control:       control,
		wordThreshold: cfg.WordThreshold,
		capableTier:   capable,
	}, nil
}

func MustNew(cfg Config) *Classifier {
	c, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Classifier) Classify(msg contractx.Message) contractx.RoutingDecision {
	text := strings.TrimSpace(msg.Text)

	if c.control.MatchString(text) {
		return contractx.RoutingDecision{Tier: contractx.TierFast, Reason: ReasonControlCommand}
	}

	if len(strings.Fields(text)) < c.wordThreshold && isInterrogative(text) {
		return contractx.RoutingDecision{Tier: contractx.TierFast, Reason: ReasonShortQuestion}
	}

	return contractx.RoutingDecision{Tier: c.capableTier, Reason: ReasonEscalated}
}

func isInterrogative(text string) bool {
	if strings.Contains(text, "?") {
		return true
	}
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return false
	}
	lead := strings.Trim(fields[0], `.,!?"'`)
	_, ok := questionWords[lead]
	return ok
}
