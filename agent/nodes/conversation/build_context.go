package conversationnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
)

// BuildContext attaches the memory context, reading the files once per
// session and reusing the cached result for every later message. Writes
// made while a session runs become visible to the next session.
func BuildContext(ctx context.Context, in *GraphState, builder contractx.ContextBuilder, daysBack int, log zerolog.Logger) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	if cached, ok := in.Session.Memory(); ok {
		in.Memory = cached
		return in, nil
	}

	mc, err := builder.Build(ctx, daysBack)
	if err != nil {
		// A broken memory read must not silence the robot. Continue
		// without context and retry on the next message.
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("memory context unavailable")
		in.Memory = contractx.MemoryContext{}
		return in, nil
	}

	in.Session.SetMemory(mc)
	in.Memory = mc
	return in, nil
}
