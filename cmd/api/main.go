package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/urmzd/homeagent/pkg/api"
	"github.com/urmzd/homeagent/pkg/app"

	_ "github.com/urmzd/homeagent/docs"
)

// @title           homeagent API
// @version         1.0
// @description     Natural-language control of a simulated smart home

// @host      localhost:8080
// @BasePath  /api/v1
// @schemes   http https

const shutdownTimeout = 10 * time.Second

func main() {
	var opts app.Options
	flag.StringVar(&opts.DBPath, "db", "", "Path to database file (default: ~/.config/homeagent/homeagent.db)")
	flag.StringVar(&opts.DevicesPath, "devices", "", "Path to a JSON device document (default: devices stored in the database)")
	flag.BoolVar(&opts.SeedDevices, "seed", false, "Write the demo home to --devices if the document does not exist")
	flag.StringVar(&opts.Backend, "backend", "", "Completion backend: ollama, gemini or none")
	flag.StringVar(&opts.Model, "model", "", "Completion model")
	flag.StringVar(&opts.Host, "llm-host", "", "Ollama base URL")
	flag.DurationVar(&opts.Timeout, "llm-timeout", 0, "Timeout for one completion")
	flag.IntVar(&opts.MaxSteps, "max-steps", 0, "Agent step budget")
	flag.StringVar(&opts.Mode, "mode", "", "Resolver mode: agent, direct or rules")
	flag.StringVar(&opts.MQTTBroker, "mqtt", "", "MQTT broker URL, e.g. mqtt://localhost:1883")
	addr := flag.String("addr", "", "Listen address (default: from the active profile)")
	logLevel := flag.String("log-level", "", "Log level (default: $HOMEAGENT_LOG_LEVEL or info)")
	flag.Parse()

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

	log.Info().
		Str("path", a.DB.Path()).
		Str("profile", a.Config.Profile.Name).
		Str("timezone", a.Config.Timezone()).
		Msg("Configuration loaded")

	if err := a.ConnectBroker(); err != nil {
		log.Warn().Err(err).Str("broker", a.Settings.MQTTBroker).Msg("MQTT unavailable, continuing without it")
	}

	router := api.NewRouter(a.Pipeline, api.WithMetrics(a.Metrics), api.WithProber(a.Prober))

	listen := *addr
	if listen == "" {
		listen = a.Config.APIAddress()
	}
	srv := router.Server(listen)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("address", listen).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return a.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server failed")
	}
}
