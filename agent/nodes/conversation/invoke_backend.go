package conversationnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
)

// InvokeBackend sends the message to the routed tier. The system prompt is
// the persona followed by the memory context; the context always rides in
// the system role so the child's words are the only user content.
func InvokeBackend(ctx context.Context, in *GraphState, models contractx.Registry, persona string) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	system := persona
	if text := in.Memory.Text(); text != "" {
		system = persona + "\n\n" + text
	}

	reply, err := models.Invoke(ctx, in.Route.Tier, contractx.BackendRequest{
		System: system,
		Message: contractx.Message{
			Text:      in.Text,
			SenderID:  in.SenderID,
			Timestamp: in.Now,
		},
	})
	if err != nil {
		return nil, err
	}
	in.Reply = reply
	return in, nil
}
