package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/urmzd/homeagent/pkg/app"
	homemcp "github.com/urmzd/homeagent/pkg/mcp"
)

var version = "dev"

func main() {
	var opts app.Options
	flag.StringVar(&opts.DBPath, "db", "", "Path to database file (default: ~/.config/homeagent/homeagent.db)")
	flag.StringVar(&opts.DevicesPath, "devices", "", "Path to a JSON device document (default: devices stored in the database)")
	flag.BoolVar(&opts.SeedDevices, "seed", false, "Write the demo home to --devices if the document does not exist")
	flag.StringVar(&opts.Backend, "backend", "", "Completion backend for process_command: ollama, gemini or none")
	flag.StringVar(&opts.Model, "model", "", "Completion model")
	flag.StringVar(&opts.Host, "llm-host", "", "Ollama base URL")
	flag.StringVar(&opts.Mode, "mode", "", "Resolver mode: agent, direct or rules")
	logLevel := flag.String("log-level", "", "Log level (default: $HOMEAGENT_LOG_LEVEL or info)")
	flag.Parse()

	// stdout is the MCP transport
	if err := app.SetupLogging(*logLevel, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("Invalid logging configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start assistant")
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	go func() {
		if err := a.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Background work stopped")
		}
	}()

	server := homemcp.NewServer(a.Pipeline, version)

	log.Info().Str("path", a.DB.Path()).Msg("Starting MCP server on stdio")

	if err := server.ServeStdio(); err != nil {
		log.Error().Err(err).Msg("MCP server failed")
	}
}
