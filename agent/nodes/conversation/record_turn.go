package conversationnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
)

// RecordTurn appends the exchange to the session transcript and mirrors it
// to the transcript sink. The sink is best effort; a full disk must not
// break the conversation.
func RecordTurn(ctx context.Context, in *GraphState, sink contractx.TranscriptSink, log zerolog.Logger) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	turns := []contractx.Entry{
		{At: in.Now, Sender: in.SenderID, Role: contractx.RoleUser, Text: in.Text},
		{At: in.Now, Role: contractx.RoleAssistant, Text: in.Reply.Text, Tier: in.Reply.Tier},
	}
	in.Session.Append(turns...)

	if err := sink.Record(ctx, in.SessionID, turns...); err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("transcript write failed")
	}
	return in, nil
}
