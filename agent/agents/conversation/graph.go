package conversation

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/nodes/conversation"
)

// compileConversationGraph wires the message pipeline:
//
//	START -> validate_request -> attach_session -> build_context
//	      -> classify_message -> invoke_backend -> record_turn
//	      -> finalize_reply -> END
func (s *Service) compileConversationGraph(ctx context.Context) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, s.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("attach_session",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.AttachSession(in, s.sessions)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node attach_session: %w", err)
	}

	if err := graph.AddLambdaNode("build_context",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.BuildContext(ctx, in, s.builder, s.daysBack, s.log)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node build_context: %w", err)
	}

	if err := graph.AddLambdaNode("classify_message",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ClassifyMessage(in, s.classifier)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_message: %w", err)
	}

	if err := graph.AddLambdaNode("invoke_backend",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.InvokeBackend(ctx, in, s.models, s.persona)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node invoke_backend: %w", err)
	}

	if err := graph.AddLambdaNode("record_turn",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecordTurn(ctx, in, s.sink, s.log)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node record_turn: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "attach_session"},
		{"attach_session", "build_context"},
		{"build_context", "classify_message"},
		{"classify_message", "invoke_backend"},
		{"invoke_backend", "record_turn"},
		{"record_turn", "finalize_reply"},
		{"finalize_reply", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("conversation.handle_message"))
	if err != nil {
		return nil, fmt.Errorf("compile conversation graph: %w", err)
	}
	return runner, nil
}
