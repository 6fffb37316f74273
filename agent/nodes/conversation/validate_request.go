package conversationnode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
	sessionx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/session"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

type GraphInput struct {
	SessionID string
	SenderID  string
	Text      string
}

type GraphOutput struct {
	Reply  string
	Tier   contractx.Tier
	Reason string
}

type GraphState struct {
	SessionID string
	SenderID  string
	Text      string
	Now       time.Time

	Session *sessionx.Session
	Memory  contractx.MemoryContext
	Route   contractx.RoutingDecision
	Reply   contractx.BackendReply
}

// ValidateRequest rejects unusable input before any model or disk work.
// An empty message is the caller's bug, never a reason to call a backend.
func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		SenderID:  strings.TrimSpace(in.SenderID),
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}
