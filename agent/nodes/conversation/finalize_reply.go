package conversationnode

import (
	"fmt"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
	chatapix "github.com/tanpawarit/Juno-Tiered-Home-Agent/pkg/chatapi"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := chatapix.StripReasoning(in.Reply.Text)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: backend returned an empty reply", contractx.ErrBackendError)
	}

	return GraphOutput{
		Reply:  reply,
		Tier:   in.Reply.Tier,
		Reason: in.Route.Reason,
	}, nil
}
