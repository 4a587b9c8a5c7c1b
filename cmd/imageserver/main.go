// The imageserver binary exposes image generation as an MCP tool
// server over stdio. The game server spawns it per call; it can also
// be pointed at from any MCP-capable client for manual testing.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"murdermystery/internal/config"
	"murdermystery/internal/debug"
	"murdermystery/internal/imageserver"
	"murdermystery/internal/llm"
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

	// Stdout carries the MCP wire protocol; debug output goes to the
	// log file, never stdout.
	dbg := debug.NewLogger(os.Getenv("DEBUG") == "1")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := imageserver.NewCache(cfg.Storage.ImageCacheDir)
	if err != nil {
		return err
	}

	backend := imageserver.NewBackend(cfg.LLM.APIKey, cache, dbg)
	enhancer := imageserver.NewEnhancer(llm.NewService(cfg.LLM.APIKey, dbg), cfg.LLM.UtilityModel, dbg)

	return imageserver.NewServer(backend, enhancer, cache, dbg).Run(ctx)
}
