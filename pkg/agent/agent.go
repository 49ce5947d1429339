// Package agent implements the capability-backed resolver: a bounded
// Thought / Action / Action Input / Observation loop in which the model picks
// tools from the closed catalog until it produces a final answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/urmzd/homeagent/pkg/llm"
	"github.com/urmzd/homeagent/pkg/metrics"
	"github.com/urmzd/homeagent/pkg/tools"
)

// DefaultMaxSteps caps the number of model turns per command.
const DefaultMaxSteps = 6

var (
	// ErrUnparsable indicates a model turn had neither an action nor a final answer
	ErrUnparsable = errors.New("unparsable model output")

	// ErrStepBudget indicates the loop ran out of steps before a final answer
	ErrStepBudget = errors.New("step budget exhausted")
)

// State is a node of the resolver's state machine.
type State string

// Resolver states
const (
	StateThinking  State = "thinking"
	StateActing    State = "acting"
	StateObserving State = "observing"
	StateFinal     State = "final"
	StateFailed    State = "failed"
)

// Trace records one completed tool step.
type Trace struct {
	Thought     string         `json:"thought,omitempty"`
	Action      string         `json:"action"`
	Input       map[string]any `json:"input"`
	Observation string         `json:"observation"`
}

// Outcome is the result of a run. On failure it still carries the steps
// (and the tool results) completed before the failure.
type Outcome struct {
	State   State          `json:"state"`
	Answer  string         `json:"answer,omitempty"`
	Steps   []Trace        `json:"steps"`
	Results []tools.Result `json:"results"`
}

// Agent drives the tool loop.
type Agent struct {
	llm      llm.Completer
	tools    *tools.Set
	maxSteps int
	metrics  *metrics.Recorder
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxSteps overrides the step budget.
func WithMaxSteps(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

// WithMetrics records the steps taken per run.
func WithMetrics(m *metrics.Recorder) Option {
	return func(a *Agent) { a.metrics = m }
}

// New creates an agent over the completion capability and tool set.
func New(c llm.Completer, set *tools.Set, opts ...Option) *Agent {
	a := &Agent{llm: c, tools: set, maxSteps: DefaultMaxSteps}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run resolves command. It returns ErrUnparsable, ErrStepBudget, or a wrapped
// capability error when no final answer is reached.
func (a *Agent) Run(ctx context.Context, command string) (Outcome, error) {
	out := Outcome{State: StateThinking, Steps: []Trace{}, Results: []tools.Result{}}
	logger := log.With().Str("component", "agent").Logger()

	for step := 1; step <= a.maxSteps; step++ {
		out.State = StateThinking
		completion, err := a.llm.Complete(ctx, a.prompt(command, out.Steps))
		if err != nil {
			return a.fail(out, step, fmt.Errorf("step %d: %w", step, err))
		}

		parsed, err := ParseStep(completion)
		if err != nil {
			logger.Debug().Int("step", step).Str("completion", abbreviate(completion, 200)).Msg("unparsable turn")
			return a.fail(out, step, fmt.Errorf("step %d: %w", step, err))
		}

		if parsed.IsFinal() {
			out.State = StateFinal
			out.Answer = parsed.Final
			a.metrics.ObserveAgentSteps(step)
			logger.Debug().Int("steps", step).Msg("final answer")
			return out, nil
		}

		out.State = StateActing
		trace := Trace{Thought: parsed.Thought, Action: parsed.Action}
		var result tools.Result
		if desc, ok := tools.Lookup(parsed.Action); ok {
			trace.Input = ParseInput(parsed.RawInput, desc)
			result = a.tools.Invoke(ctx, parsed.Action, trace.Input)
			out.Results = append(out.Results, result)
		} else {
			trace.Input = map[string]any{}
			result = a.tools.Invoke(ctx, parsed.Action, nil)
		}

		out.State = StateObserving
		trace.Observation = result.Message
		out.Steps = append(out.Steps, trace)
		logger.Debug().
			Int("step", step).
			Str("tool", parsed.Action).
			Bool("success", result.Success).
			Msg("observation")
	}

	return a.fail(out, a.maxSteps, fmt.Errorf("%w after %d steps", ErrStepBudget, a.maxSteps))
}

func (a *Agent) fail(out Outcome, steps int, err error) (Outcome, error) {
	out.State = StateFailed
	a.metrics.ObserveAgentSteps(steps)
	return out, err
}

func (a *Agent) prompt(command string, steps []Trace) string {
	var b strings.Builder
	b.WriteString("You are a smart home assistant. You can use tools to control devices, retrieve room/device status, and make changes.\n")
	b.WriteString("Use the following tools when helpful.\n\nTOOLS AVAILABLE:\n")
	for _, d := range tools.Catalog() {
		fmt.Fprintf(&b, "- %s: %s. Input schema: %s\n", d.Signature(), d.Description, d.Schema())
	}
	b.WriteString("\nWhen you need to use a tool, follow EXACTLY this format:\n")
	b.WriteString("Question: the input question\n")
	b.WriteString(markerThought + " you should always think about what to do\n")
	fmt.Fprintf(&b, "%s one of [%s]\n", markerAction, strings.Join(tools.Names(), ", "))
	b.WriteString(markerActionInput + " the input to the action as a JSON object\n")
	b.WriteString(markerObservation + " the result of the action\n")
	b.WriteString("... (this Thought/Action/Action Input/Observation can repeat N times) ...\n")
	b.WriteString(markerThought + " I now know the final answer\n")
	b.WriteString(markerFinal + " a concise answer for the user.\n\n")
	b.WriteString("Never write an Observation yourself; it is supplied after each Action.\n\n")

	fmt.Fprintf(&b, "Question: %s\n", command)
	b.WriteString("If the user asks to control 'all lights' without a specific room, call control_light with target='all'.\n")
	for _, s := range steps {
		if s.Thought != "" {
			fmt.Fprintf(&b, "%s %s\n", markerThought, s.Thought)
		}
		fmt.Fprintf(&b, "%s %s\n", markerAction, s.Action)
		fmt.Fprintf(&b, "%s %s\n", markerActionInput, encodeInput(s.Input))
		fmt.Fprintf(&b, "%s %s\n", markerObservation, s.Observation)
	}
	b.WriteString(markerThought)
	return b.String()
}
