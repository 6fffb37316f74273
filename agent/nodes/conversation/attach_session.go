package conversationnode

import (
	"fmt"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
	sessionx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/session"
)

func AttachSession(in *GraphState, sessions *sessionx.Manager) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	session, err := sessions.GetOrCreate(in.SessionID)
	if err != nil {
		return nil, err
	}
	in.Session = session
	return in, nil
}
