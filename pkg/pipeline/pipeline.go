// Package pipeline runs one command through received → parsed → executing →
// logging → responding → done. Process never fails: every error path ends in
// a response string.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/urmzd/homeagent/pkg/agent"
	"github.com/urmzd/homeagent/pkg/device"
	"github.com/urmzd/homeagent/pkg/history"
	"github.com/urmzd/homeagent/pkg/intent"
	"github.com/urmzd/homeagent/pkg/llm"
	"github.com/urmzd/homeagent/pkg/metrics"
	"github.com/urmzd/homeagent/pkg/servicecall"
	"github.com/urmzd/homeagent/pkg/tools"
)

// Fixed responses
const (
	Apology        = "Sorry, I hit a parsing hiccup. Please rephrase or try again."
	NotUnderstood  = "I couldn't understand that command. Please try again."
	EmptyFallback  = "I'm unable to process this right now."
	fallbackPrompt = "You are a smart home assistant. Answer the user's request concisely. " +
		"If you cannot act on devices due to a planning error, still provide a helpful response.\n\nUser: %s"
)

// Mode selects the resolver.
type Mode string

// Resolver modes
const (
	ModeAgent  Mode = "agent"
	ModeDirect Mode = "direct"
	ModeRules  Mode = "rules"
)

// ParseMode maps a configuration string onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAgent, ModeDirect, ModeRules:
		return m, nil
	case "":
		return ModeAgent, nil
	}
	return "", fmt.Errorf("unknown resolver mode %q (want agent, direct or rules)", s)
}

// Stage is a pipeline state.
type Stage string

// Pipeline stages, in order
const (
	StageReceived   Stage = "received"
	StageParsed     Stage = "parsed"
	StageExecuting  Stage = "executing"
	StageLogging    Stage = "logging"
	StageResponding Stage = "responding"
	StageDone       Stage = "done"
)

// Tier names the path that produced a response.
type Tier string

// Resolution tiers
const (
	TierAgent    Tier = "agent"
	TierScene    Tier = "scene"
	TierRules    Tier = "rules"
	TierFallback Tier = "fallback"
	TierApology  Tier = "apology"
	TierNone     Tier = "none"
)

func directTier(t servicecall.Tier) Tier {
	return Tier("direct_" + t.String())
}

// DefaultMemoryLimit bounds the rolling conversation memory, in messages.
const DefaultMemoryLimit = 50

// Pipeline owns the history log and the observation fields.
type Pipeline struct {
	mode     Mode
	registry *device.Registry
	tools    *tools.Set
	history  *history.Log
	parser   *intent.Parser
	executor *Executor
	applier  *servicecall.Applier
	llm      llm.Completer
	agent    *agent.Agent
	agentOps []agent.Option
	metrics  *metrics.Recorder
	memLimit int

	mu   sync.RWMutex
	last Observation
	mem  []Message
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMode selects the resolver. The default is ModeAgent.
func WithMode(m Mode) Option {
	return func(p *Pipeline) { p.mode = m }
}

// WithCompleter sets the completion capability. Without one, model-backed
// modes fall through to the apology.
func WithCompleter(c llm.Completer) Option {
	return func(p *Pipeline) { p.llm = c }
}

// WithAgentOptions passes options to the tool-using agent.
func WithAgentOptions(opts ...agent.Option) Option {
	return func(p *Pipeline) { p.agentOps = append(p.agentOps, opts...) }
}

// WithMetrics records per-command and per-tier counters.
func WithMetrics(m *metrics.Recorder) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithMemoryLimit bounds the rolling memory. Zero or less keeps the default.
func WithMemoryLimit(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.memLimit = n
		}
	}
}

// New creates a pipeline over the tool set's registry. hist must be the log
// the tool set writes to.
func New(set *tools.Set, hist *history.Log, opts ...Option) *Pipeline {
	p := &Pipeline{
		mode:     ModeAgent,
		registry: set.Registry(),
		tools:    set,
		history:  hist,
		executor: NewExecutor(set),
		applier:  servicecall.NewApplier(set),
		llm:      llm.Unavailable{},
		memLimit: DefaultMemoryLimit,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.parser = intent.NewParser(p.registry.Rooms)
	if p.metrics != nil {
		p.agentOps = append(p.agentOps, agent.WithMetrics(p.metrics))
	}
	p.agent = agent.New(p.llm, set, p.agentOps...)
	return p
}

// Mode returns the active resolver mode.
func (p *Pipeline) Mode() Mode {
	return p.mode
}

// Registry returns the registry commands act on.
func (p *Pipeline) Registry() *device.Registry {
	return p.registry
}

// Tools returns the tool set.
func (p *Pipeline) Tools() *tools.Set {
	return p.tools
}

// History returns the command log.
func (p *Pipeline) History() *history.Log {
	return p.history
}

// outcome is what the executing stage hands on.
type outcome struct {
	results []string
	tools   []tools.Result
	tier    Tier
	steps   []agent.Trace
}

// Process runs text through the pipeline and returns the response. It never
// returns an empty string and never panics.
func (p *Pipeline) Process(ctx context.Context, text string) string {
	return p.Run(ctx, text).Response
}

// Run is Process returning the full observation of this command, which stays
// correct when other commands finish concurrently.
func (p *Pipeline) Run(ctx context.Context, text string) (obs Observation) {
	start := time.Now()
	logger := log.With().
		Str("command_id", uuid.NewString()).
		Str("mode", string(p.mode)).
		Logger()

	var (
		in  intent.Intent
		out outcome
	)
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("command processing panicked")
			out.tier = TierApology
			obs = p.finish(text, in, out, Apology, nil)
		}
		p.metrics.ObserveCommand(string(p.mode), string(out.tier), time.Since(start))
		logger.Info().
			Str("tier", string(out.tier)).
			Dur("elapsed", time.Since(start)).
			Msg("command processed")
	}()

	stage(logger, StageReceived).Send()
	if err := p.registry.Reload(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to reload devices, using cached state")
	}

	in = p.parse(text)
	stage(logger, StageParsed).Str("intent", in.String()).Send()

	stage(logger, StageExecuting).Send()
	out = p.execute(ctx, logger, in, text)

	stage(logger, StageLogging).Send()
	patterns := p.history.Learn()

	stage(logger, StageResponding).Send()
	obs = p.finish(text, in, out, respond(out.results), patterns)

	stage(logger, StageDone).Send()
	return obs
}

func stage(logger zerolog.Logger, s Stage) *zerolog.Event {
	return logger.Debug().Str("stage", string(s))
}

func (p *Pipeline) parse(text string) intent.Intent {
	switch p.mode {
	case ModeRules:
		return p.parser.Parse(text)
	case ModeDirect:
		return intent.Wrap(intent.ActionServiceCall, text)
	default:
		return intent.Wrap(intent.ActionToolAgent, text)
	}
}

func (p *Pipeline) execute(ctx context.Context, logger zerolog.Logger, in intent.Intent, text string) outcome {
	switch p.mode {
	case ModeRules:
		return p.executeRules(ctx, in)
	case ModeDirect:
		return p.executeDirect(ctx, logger, text)
	default:
		return p.executeAgent(ctx, logger, text)
	}
}

func (p *Pipeline) executeRules(ctx context.Context, in intent.Intent) outcome {
	results := p.executor.Execute(ctx, in)
	if len(results) == 0 {
		return outcome{tier: TierNone}
	}
	return outcome{results: messages(results), tools: results, tier: TierRules}
}

func (p *Pipeline) executeAgent(ctx context.Context, logger zerolog.Logger, text string) outcome {
	run, err := p.agent.Run(ctx, text)
	if err == nil {
		return outcome{results: []string{run.Answer}, tools: run.Results, tier: TierAgent, steps: run.Steps}
	}

	logger.Warn().Err(err).Int("steps", len(run.Steps)).Msg("agent failed, falling back to plain completion")
	answer, tier := p.fallback(ctx, logger, text)
	return outcome{results: []string{answer}, tools: run.Results, tier: tier, steps: run.Steps}
}

func (p *Pipeline) executeDirect(ctx context.Context, logger zerolog.Logger, text string) outcome {
	if scene, ok := servicecall.SceneFor(text); ok {
		r := p.tools.CreateScene(ctx, scene)
		return outcome{results: []string{r.Message}, tools: []tools.Result{r}, tier: TierScene}
	}

	completion, err := p.llm.Complete(ctx, servicecall.Prompt(p.registry.List(), text))
	if err != nil {
		logger.Warn().Err(err).Msg("service-call completion failed, falling back to plain completion")
		answer, tier := p.fallback(ctx, logger, text)
		return outcome{results: []string{answer}, tier: tier}
	}

	calls, ct := servicecall.Extract(completion)
	logger.Debug().Str("tier", ct.String()).Int("calls", len(calls)).Msg("service calls extracted")

	var results []string
	if prose := servicecall.StripBlocks(completion); prose != "" {
		results = append(results, prose)
	}
	applied := p.applier.Apply(ctx, calls)
	results = append(results, messages(applied)...)
	return outcome{results: results, tools: applied, tier: directTier(ct)}
}

// fallback asks for a plain answer without tools, then gives up with the apology.
func (p *Pipeline) fallback(ctx context.Context, logger zerolog.Logger, text string) (string, Tier) {
	answer, err := p.llm.Complete(ctx, fmt.Sprintf(fallbackPrompt, text))
	if err != nil {
		logger.Error().Err(err).Msg("fallback completion failed")
		return Apology, TierApology
	}
	if answer = strings.TrimSpace(answer); answer == "" {
		return EmptyFallback, TierFallback
	}
	return answer, TierFallback
}

func messages(results []tools.Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Message)
	}
	return out
}

func respond(results []string) string {
	var nonEmpty []string
	for _, r := range results {
		if strings.TrimSpace(r) != "" {
			nonEmpty = append(nonEmpty, r)
		}
	}
	if len(nonEmpty) == 0 {
		return NotUnderstood
	}
	return strings.Join(nonEmpty, "\n")
}
