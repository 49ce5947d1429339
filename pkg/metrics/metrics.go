// Package metrics exposes Prometheus counters for command resolution and
// tool invocations. A nil *Recorder is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry so that several pipelines (and tests)
// never collide on the global default registerer.
type Recorder struct {
	registry    *prometheus.Registry
	commands    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	tools       *prometheus.CounterVec
	agentSteps  prometheus.Histogram
	completions *prometheus.CounterVec
	published   *prometheus.CounterVec
	requests    *prometheus.CounterVec
}

// New creates a Recorder with its collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homeagent_commands_total",
				Help: "Processed commands by resolver mode and the tier that produced the answer.",
			},
			[]string{"mode", "tier"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "homeagent_command_duration_seconds",
				Help:    "End-to-end command processing latency.",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"mode"},
		),
		tools: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homeagent_tool_invocations_total",
				Help: "Tool invocations by tool name and outcome.",
			},
			[]string{"tool", "success"},
		),
		agentSteps: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "homeagent_agent_steps",
				Help:    "Reasoning steps taken per agent run.",
				Buckets: []float64{1, 2, 3, 4, 5, 6},
			},
		),
		completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homeagent_completions_total",
				Help: "Calls to the completion capability by outcome.",
			},
			[]string{"outcome"},
		),
		published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homeagent_state_published_total",
				Help: "Device state messages published to the broker by outcome.",
			},
			[]string{"outcome"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homeagent_http_requests_total",
				Help: "HTTP requests by method, route and status code.",
			},
			[]string{"method", "route", "code"},
		),
	}
	r.registry.MustRegister(
		r.commands, r.duration, r.tools, r.agentSteps, r.completions, r.published, r.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry returns the underlying Prometheus registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) ObserveCommand(mode, tier string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.commands.WithLabelValues(mode, tier).Inc()
	r.duration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveTool(tool string, success bool) {
	if r == nil {
		return
	}
	r.tools.WithLabelValues(tool, strconv.FormatBool(success)).Inc()
}

func (r *Recorder) ObserveAgentSteps(steps int) {
	if r == nil {
		return
	}
	r.agentSteps.Observe(float64(steps))
}

func (r *Recorder) ObserveCompletion(err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.completions.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObservePublish(err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.published.WithLabelValues(outcome).Inc()
}

// ObserveRequest counts one HTTP request. route is the matched pattern, not
// the raw path, to keep cardinality bounded.
func (r *Recorder) ObserveRequest(method, route string, code int) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}
