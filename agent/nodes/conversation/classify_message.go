package conversationnode

import (
	"fmt"

	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
)

func ClassifyMessage(in *GraphState, classifier contractx.Classifier) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Route = classifier.Classify(contractx.Message{
		Text:      in.Text,
		SenderID:  in.SenderID,
		Timestamp: in.Now,
	})
	if !in.Route.Tier.Valid() {
		return nil, fmt.Errorf("%w: classifier produced tier %q", contractx.ErrValidation, in.Route.Tier)
	}
	return in, nil
}
