package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	conversationx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/agents/conversation"
	curatorx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/agents/curator"
	summarizerx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/agents/summarizer"
	backendx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/backend"
	contractx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/contract"
	llmx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/llm"
	memoryx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/memory"
	promptx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/prompt"
	routerx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/router"
	translogx "github.com/tanpawarit/Juno-Tiered-Home-Agent/agent/translog"
	configx "github.com/tanpawarit/Juno-Tiered-Home-Agent/pkg/config"
	logx "github.com/tanpawarit/Juno-Tiered-Home-Agent/pkg/logger"
	_ "github.com/tanpawarit/Juno-Tiered-Home-Agent/pkg/logger/autoload"
	warmupx "github.com/tanpawarit/Juno-Tiered-Home-Agent/pkg/warmup"
)

// apology is the only thing a child hears when every backend is down.
const apology = "I'm sorry, my thinking is a little slow right now. Can we try again in a minute?"

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logx.With("main")

	memoryCfg := configx.MustNew[memoryx.Config]("MEMORY")
	routerCfg := configx.MustNew[routerx.Config]("ROUTER")
	backendCfg := configx.MustNew[backendx.Config]("BACKEND")
	llmCfg := configx.MustNew[llmx.Config]("LLM")
	warmupCfg := configx.MustNew[warmupx.Config]("WARMUP")
	curatorCfg := configx.MustNew[curatorx.Config]("CURATOR")

	if err := llmCfg.Validate(); err != nil {
		panic(err)
	}

	prompts := promptx.LoadPromptSet()

	store := memoryx.MustNewFileStore(*memoryCfg)
	builder := memoryx.MustNewBuilder(store)
	recorder := translogx.MustNewRecorder(store.Root())

	classifier := routerx.NewCache(routerx.MustNew(*routerCfg), *routerCfg)

	registry, err := backendx.NewRegistryFromConfig(*backendCfg)
	if err != nil {
		panic(err)
	}

	summarizerChatAPI := llmCfg.ChatAPIFor(contractx.AgentSummarizer)
	summarizerModel, err := summarizerChatAPI.New(ctx)
	if err != nil {
		panic(err)
	}
	sum, err := summarizerx.New(ctx, summarizerModel, prompts.Summarizer)
	if err != nil {
		panic(err)
	}

	svc, err := conversationx.New(registry, classifier, builder, store, sum, recorder, conversationx.Config{
		Persona:  prompts.Persona,
		DaysBack: memoryCfg.DaysBack,
	})
	if err != nil {
		panic(err)
	}

	curatorChatAPI := llmCfg.ChatAPIFor(contractx.AgentCurator)
	curatorModel, err := curatorChatAPI.New(ctx)
	if err != nil {
		panic(err)
	}
	keepDays := memoryCfg.TranscriptKeepDays
	cur, err := curatorx.New(ctx, store, curatorModel, prompts.Curator, *curatorCfg,
		curatorx.WithSweep(func(ctx context.Context) error {
			return recorder.Prune(ctx, keepDays)
		}),
	)
	if err != nil {
		panic(err)
	}
	if err := cur.Start(ctx); err != nil {
		panic(err)
	}

	if warmupCfg.Enabled {
		pinger, err := warmupx.NewPinger(*warmupCfg, warmupTargets(*backendCfg)...)
		if err != nil {
			log.Warn().Err(err).Msg("warmup disabled")
		} else {
			go pinger.Run(ctx)
		}
	}

	log.Info().
		Str("memory_root", store.Root()).
		Int("tiers", len(registry.Tiers())).
		Msg("juno is up")

	runConsole(ctx, svc)

	// The signal context is already done here; give the final summarization
	// its own bounded deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	svc.EndAll(shutdownCtx)

	log.Info().Msg("juno is down")
}

// warmupTargets keeps the local tiers warm. The cloud gateway has no cold
// start worth paying tokens for.
func warmupTargets(cfg backendx.Config) []warmupx.Target {
	targets := make([]warmupx.Target, 0, 2)
	for _, bc := range cfg.Configured() {
		if bc.Tier == contractx.TierCloud {
			continue
		}
		targets = append(targets, warmupx.Target{
			Name:    string(bc.Tier),
			BaseURL: bc.BaseURL,
			APIKey:  bc.APIKey,
			Model:   bc.Model,
		})
	}
	return targets
}

func runConsole(ctx context.Context, svc *conversationx.Service) {
	log := logx.With("console")

	sessionID := uuid.NewString()
	senderID := ""

	fmt.Println("Juno is listening. /iam <name> introduces you, /bye ends the session, Ctrl-D quits.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Print("you> ")

		var line string
		var open bool
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case line, open = <-lines:
			if !open {
				fmt.Println()
				return
			}
		}

		text := strings.TrimSpace(line)
		switch {
		case text == "":
			continue

		case strings.HasPrefix(text, "/iam "):
			senderID = strings.TrimSpace(strings.TrimPrefix(text, "/iam "))
			fmt.Printf("juno> Hi %s!\n", senderID)
			continue

		case text == "/bye":
			if err := svc.EndSession(ctx, sessionID); err != nil {
				log.Error().Err(err).Msg("session close failed")
			}
			sessionID = uuid.NewString()
			fmt.Println("juno> Okay, talk to you later!")
			continue
		}

		reply, err := svc.HandleMessage(ctx, sessionID, senderID, text)
		switch {
		case errors.Is(err, contractx.ErrAllBackendsUnavailable):
			fmt.Println("juno> " + apology)
		case err != nil:
			log.Error().Err(err).Msg("message failed")
			fmt.Println("juno> " + apology)
		default:
			fmt.Println("juno> " + reply)
		}
	}
}
