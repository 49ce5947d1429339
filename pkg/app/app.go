// Package app assembles a running assistant from the profile configuration:
// device store, history, tool set, completion backend and pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/urmzd/homeagent/pkg/agent"
	"github.com/urmzd/homeagent/pkg/db"
	"github.com/urmzd/homeagent/pkg/device"
	"github.com/urmzd/homeagent/pkg/device/jsonstore"
	"github.com/urmzd/homeagent/pkg/history"
	"github.com/urmzd/homeagent/pkg/llm"
	"github.com/urmzd/homeagent/pkg/metrics"
	"github.com/urmzd/homeagent/pkg/mqtt"
	"github.com/urmzd/homeagent/pkg/pipeline"
	"github.com/urmzd/homeagent/pkg/tools"
)

// EnvGeminiAPIKey holds the Gemini API key. Keys are never stored in the
// database.
const EnvGeminiAPIKey = "HOMEAGENT_GEMINI_API_KEY"

// RestoredHistory is how many journal entries are loaded back into memory
// on start.
const RestoredHistory = 100

// Backends understood by Open.
const (
	BackendOllama = "ollama"
	BackendGemini = "gemini"
	BackendNone   = "none"
)

// ErrUnknownBackend is returned for a backend name Open does not know.
var ErrUnknownBackend = errors.New("unknown completion backend")

// Options override the stored settings for one process. Zero values keep
// the stored value.
type Options struct {
	DBPath       string
	DevicesPath  string
	Backend      string
	Model        string
	Host         string
	Timeout      time.Duration
	MaxSteps     int
	Mode         string
	MQTTBroker   string
	GeminiAPIKey string

	// SeedDevices writes the bundled home to DevicesPath when no document
	// exists there yet. Without it a missing document fails Open.
	SeedDevices bool
}

func (o Options) apply(s *db.Settings) {
	if o.DevicesPath != "" {
		s.DevicesPath = o.DevicesPath
	}
	if o.Backend != "" {
		s.Backend = o.Backend
	}
	if o.Model != "" {
		s.Model = o.Model
	}
	if o.Host != "" {
		s.Host = o.Host
	}
	if o.Timeout > 0 {
		s.Timeout = o.Timeout
	}
	if o.MaxSteps > 0 {
		s.MaxSteps = o.MaxSteps
	}
	if o.Mode != "" {
		s.Mode = o.Mode
	}
	if o.MQTTBroker != "" {
		s.MQTTBroker = o.MQTTBroker
	}
}

// Prober reports whether the completion backend is reachable.
type Prober interface {
	Available(ctx context.Context) (bool, error)
}

// App is a wired assistant.
type App struct {
	DB       *db.DB
	Config   *db.Config
	Settings db.Settings
	Metrics  *metrics.Recorder
	Registry *device.Registry
	History  *history.Log
	Journal  *db.HistoryJournal
	Tools    *tools.Set
	Pipeline *pipeline.Pipeline

	// Prober is nil when the backend cannot be probed.
	Prober Prober

	broker mqtt.Client
}

// Open loads the active profile and builds the assistant around it.
func Open(ctx context.Context, opts Options) (*App, error) {
	database, err := db.OpenReady(ctx, opts.DBPath)
	if err != nil {
		return nil, err
	}
	a, err := build(ctx, database, opts)
	if err != nil {
		database.Close()
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, database *db.DB, opts Options) (*App, error) {
	cfg, err := database.ActiveConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	settings := cfg.Settings
	opts.apply(&settings)

	mode, err := pipeline.ParseMode(settings.Mode)
	if err != nil {
		return nil, err
	}

	a := &App{
		DB:       database,
		Config:   cfg,
		Settings: settings,
		Metrics:  metrics.New(),
		Journal:  database.History(cfg.Profile.ID),
	}

	store, err := a.deviceStore(ctx, opts.SeedDevices)
	if err != nil {
		return nil, err
	}
	a.Registry, err = device.Open(ctx, store)
	if err != nil {
		return nil, err
	}

	a.History = history.NewLog()
	recent, err := a.Journal.Recent(ctx, RestoredHistory)
	if err != nil {
		return nil, err
	}
	a.History.Restore(recent)
	a.History.SetSink(a.Journal)

	loc := cfg.Location()
	a.Tools = tools.NewSet(a.Registry, a.History,
		tools.WithMetrics(a.Metrics),
		tools.WithClock(func() time.Time { return time.Now().In(loc) }),
	)

	completer, err := a.completer(ctx, opts.GeminiAPIKey)
	if err != nil {
		return nil, err
	}

	a.Pipeline = pipeline.New(a.Tools, a.History,
		pipeline.WithMode(mode),
		pipeline.WithCompleter(completer),
		pipeline.WithAgentOptions(agent.WithMaxSteps(settings.MaxSteps)),
		pipeline.WithMemoryLimit(settings.MemoryLimit),
		pipeline.WithMetrics(a.Metrics),
	)

	log.Info().
		Str("profile", cfg.Profile.Name).
		Str("mode", string(mode)).
		Str("backend", settings.Backend).
		Str("model", settings.Model).
		Int("devices", a.Registry.Len()).
		Int("history", a.History.Len()).
		Msg("Assistant ready")
	return a, nil
}

// deviceStore returns the JSON document store when a path is configured,
// and the profile's devices table otherwise. The table is seeded with the
// bundled home when empty; a document only when seed is set.
func (a *App) deviceStore(ctx context.Context, seed bool) (device.Store, error) {
	if path := a.Settings.DevicesPath; path != "" {
		if seed {
			seeded, err := jsonstore.Seed(path)
			if err != nil {
				return nil, err
			}
			if seeded {
				log.Info().Str("path", path).Msg("Seeded device document with the default home")
			}
		}
		return jsonstore.New(path), nil
	}

	store := a.DB.Devices(a.Config.Profile.ID)
	n, err := store.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		home, err := jsonstore.DefaultHome()
		if err != nil {
			return nil, err
		}
		if err := store.Save(ctx, home); err != nil {
			return nil, fmt.Errorf("failed to seed devices: %w", err)
		}
		log.Info().Int("devices", len(home.Devices)).Msg("Seeded device table with the default home")
	}
	return store, nil
}

func (a *App) completer(ctx context.Context, geminiKey string) (llm.Completer, error) {
	var c llm.Completer
	switch strings.ToLower(strings.TrimSpace(a.Settings.Backend)) {
	case BackendOllama:
		ollama := llm.NewOllamaClient(a.Settings.Host, a.Settings.Model)
		a.Prober = ollama
		c = ollama
	case BackendGemini:
		if geminiKey == "" {
			geminiKey = os.Getenv(EnvGeminiAPIKey)
		}
		model := a.Settings.Model
		if model == db.DefaultSettings().Model {
			model = ""
		}
		gemini, err := llm.NewGeminiClient(ctx, geminiKey, model)
		if err != nil {
			return nil, err
		}
		c = gemini
	case BackendNone, "":
		return llm.Unavailable{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, a.Settings.Backend)
	}
	return llm.Observe(llm.WithTimeout(c, a.Settings.Timeout), a.Metrics.ObserveCompletion), nil
}

// ConnectBroker dials the configured MQTT broker, if any. It must be called
// before Run for state changes to be published.
func (a *App) ConnectBroker() error {
	if a.Settings.MQTTBroker == "" || a.broker != nil {
		return nil
	}
	c, err := mqtt.Connect(a.Settings.MQTTBroker, "homeagent-"+uuid.NewString())
	if err != nil {
		return err
	}
	a.UseBroker(c)
	return nil
}

// UseBroker attaches an already connected broker client.
func (a *App) UseBroker(c mqtt.Client) {
	a.broker = c
	mqtt.NewPublisher(c, "", a.Metrics).Attach(a.Registry)
}

// Run performs the background work until ctx ends: watching the device
// document and serving broker commands. A failed broker subscription stops
// the watcher and is returned.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if path := a.Settings.DevicesPath; path != "" {
		w := jsonstore.NewWatcher(path, a.Registry.Reload)
		g.Go(func() error { return w.Run(ctx) })
	}

	g.Go(func() error {
		if a.broker != nil {
			if err := a.serveBroker(ctx); err != nil {
				return err
			}
		}
		<-ctx.Done()
		return nil
	})
	return g.Wait()
}

func (a *App) serveBroker(ctx context.Context) error {
	pub := mqtt.NewPublisher(a.broker, "", a.Metrics)
	if err := pub.PublishAll(ctx, a.Registry); err != nil {
		log.Warn().Err(err).Msg("Failed to publish initial device state")
	}
	bridge := mqtt.NewBridge(a.broker, "", a.Pipeline)
	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", bridge.CommandTopic(), err)
	}
	return nil
}

// Close releases the broker connection and the database.
func (a *App) Close() error {
	if a.broker != nil {
		a.broker.Close()
	}
	return a.DB.Close()
}
