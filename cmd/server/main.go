package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"murdermystery/internal/assistant"
	"murdermystery/internal/config"
	"murdermystery/internal/contradiction"
	"murdermystery/internal/debug"
	"murdermystery/internal/game"
	"murdermystery/internal/images"
	"murdermystery/internal/llm"
	"murdermystery/internal/logging"
	"murdermystery/internal/memory"
	"murdermystery/internal/mystery"
	"murdermystery/internal/observability"
	"murdermystery/internal/server"
	"murdermystery/internal/tts"
	"murdermystery/internal/voice"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load("config.toml")
	if err != nil {
		return err
	}

	dbg := debug.NewLogger(os.Getenv("DEBUG") == "1")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracer, err := observability.InitTracing(ctx, observability.LoadConfigFromEnv())
	if err != nil {
		return err
	}
	defer tracer.Shutdown(context.Background())

	svc := llm.NewService(cfg.LLM.APIKey, dbg)
	voices := voice.NewClient(cfg.ElevenLabs.APIKey, dbg)
	generator := mystery.NewGenerator(svc, voices, cfg.LLM.Model, cfg.LLM.UtilityModel, dbg)
	detector := contradiction.NewDetector(svc, dbg)

	store, err := memory.NewStore(cfg.Storage.MemoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	speech := tts.NewService(tts.Config{
		APIKey:       cfg.ElevenLabs.APIKey,
		NarratorID:   cfg.ElevenLabs.NarratorVoiceID,
		ModelID:      cfg.ElevenLabs.ModelID,
		OutputFormat: cfg.ElevenLabs.OutputFormat,
		AudioDir:     cfg.Storage.AudioDir,
	}, dbg)
	var synth *tts.Service
	if cfg.Game.GenerateSpeech {
		synth = speech
	}

	var imageClient *images.Client
	if cfg.Game.GenerateImages {
		imageClient = images.NewClient(cfg.Images.ServerCommand, cfg.Images.ServerArgs, dbg).
			WithMaxParallel(cfg.Images.MaxParallel)
	}

	manager := game.NewManager(game.Config{
		Era:            cfg.Game.Era,
		Tone:           cfg.Game.Tone,
		ResolverModel:  cfg.LLM.UtilityModel,
		MaxAccusations: cfg.Game.MaxAccusations,
	}, svc, generator, detector, store, synth, imageClient, dbg)

	completions, err := logging.NewCompletionLogger(cfg.Storage.CompletionsDB)
	if err != nil {
		return err
	}
	defer completions.Close()
	manager.WithCompletionLog(completions)

	asst := assistant.New(svc, cfg.LLM.UtilityModel, dbg)

	srv := server.New(manager, asst, speech.AudioDir(), dbg)
	log.Printf("listening on %s", cfg.Server.Addr)
	return srv.SetupRouter().Run(cfg.Server.Addr)
}
