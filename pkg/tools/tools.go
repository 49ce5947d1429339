package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"

	"github.com/urmzd/homeagent/pkg/device"
	"github.com/urmzd/homeagent/pkg/device/schema"
	"github.com/urmzd/homeagent/pkg/history"
	"github.com/urmzd/homeagent/pkg/metrics"
)

// Result is the outcome of one tool invocation. Message is always a
// human-readable sentence, including for validation failures.
type Result struct {
	Tool    Name     `json:"tool"`
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Devices []string `json:"devices"`

	// Action and Command are the history labels for this invocation.
	Action  string `json:"action"`
	Command string `json:"command"`
}

// Set binds the catalog to a registry and a history log.
type Set struct {
	registry  *device.Registry
	history   *history.Log
	validator *schema.Validator
	metrics   *metrics.Recorder
	now       func() time.Time
}

// Option configures a Set.
type Option func(*Set)

// WithMetrics records invocation counters.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Set) { s.metrics = m }
}

// WithClock overrides the time source of get_time and get_date.
func WithClock(now func() time.Time) Option {
	return func(s *Set) { s.now = now }
}

// WithValidator shares a schema validator (and its compile cache).
func WithValidator(v *schema.Validator) Option {
	return func(s *Set) { s.validator = v }
}

// NewSet creates a tool set over registry, logging to hist.
func NewSet(registry *device.Registry, hist *history.Log, opts ...Option) *Set {
	s := &Set{
		registry:  registry,
		history:   hist,
		validator: schema.NewValidator(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the registry the set mutates.
func (s *Set) Registry() *device.Registry {
	return s.registry
}

// Invoke runs the named tool with loosely typed arguments, as produced by a
// model or a JSON request body. Arguments are normalized, validated against
// the tool's schema, and dispatched. Unknown tool names yield a failed result
// that lists the catalog and is not recorded in history.
func (s *Set) Invoke(ctx context.Context, name string, args map[string]any) Result {
	desc, ok := Lookup(strings.TrimSpace(name))
	if !ok {
		return Result{
			Tool:    Name(name),
			Message: fmt.Sprintf("Unknown tool %q. Available: %s", name, strings.Join(Names(), ", ")),
		}
	}

	args = normalizeArgs(desc, args)
	if err := s.validator.Validate(desc.Schema(), args); err != nil {
		return s.finish(ctx, Result{
			Tool:    desc.Name,
			Message: fmt.Sprintf("Invalid input for %s: %v", desc.Name, err),
			Action:  string(desc.Name),
			Command: fmt.Sprintf("%s with invalid input", desc.Name),
		})
	}

	str := func(key string) string { return cast.ToString(args[key]) }

	switch desc.Name {
	case ControlLight:
		return s.ControlLight(ctx, str("target"), str("action"))
	case SetThermostat:
		return s.SetThermostat(ctx, str("room"), cast.ToFloat64(args["temperature"]))
	case ControlDevice:
		patch, _ := args["state"].(map[string]any)
		return s.ControlDevice(ctx, str("device_id"), device.State(patch))
	case ControlTV:
		return s.ControlTV(ctx, str("device_id"), str("channel"))
	case ControlAC:
		var temp *float64
		if v, ok := args["temperature"]; ok && v != nil {
			f := cast.ToFloat64(v)
			temp = &f
		}
		return s.ControlAC(ctx, str("device_id"), str("power"), temp)
	case ControlDoorLock:
		return s.ControlDoorLock(ctx, str("device_id"), str("action"))
	case GetRoomStatus:
		return s.GetRoomStatus(ctx, str("room"))
	case GetAllDevices:
		return s.GetAllDevices(ctx)
	case GetSecurityStatus:
		return s.GetSecurityStatus(ctx)
	case GetEnergyUsage:
		return s.GetEnergyUsage(ctx)
	case CreateScene:
		return s.CreateScene(ctx, str("scene"))
	case GetTime:
		return s.GetTime(ctx)
	case GetDate:
		return s.GetDate(ctx)
	default:
		panic(fmt.Sprintf("tools: catalog entry %q has no dispatch", desc.Name))
	}
}

// finish records the invocation once, persists mutations, and counts it.
func (s *Set) finish(ctx context.Context, r Result) Result {
	if r.Devices == nil {
		r.Devices = []string{}
	}
	if r.Action == "" {
		r.Action = string(r.Tool)
	}
	if r.Command == "" {
		r.Command = string(r.Tool)
	}

	if r.Success && len(r.Devices) > 0 && r.Tool.mutates() {
		if err := s.registry.Save(ctx); err != nil {
			log.Warn().Err(err).Str("tool", string(r.Tool)).Msg("failed to persist device state")
		}
	}
	if s.history != nil {
		s.history.Record(ctx, r.Command, r.Devices, r.Action, r.Success)
	}
	s.metrics.ObserveTool(string(r.Tool), r.Success)

	log.Debug().
		Str("tool", string(r.Tool)).
		Bool("success", r.Success).
		Strs("devices", r.Devices).
		Msg("tool invoked")
	return r
}

func (n Name) mutates() bool {
	switch n {
	case ControlLight, SetThermostat, ControlDevice, ControlTV, ControlAC, ControlDoorLock, CreateScene:
		return true
	}
	return false
}

// normalizeArgs renames aliased keys and coerces values toward the declared
// parameter types so that "22" validates as a number and a JSON string
// validates as an object.
func normalizeArgs(desc Descriptor, args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	aliases := argAliases[desc.Name]
	for k, v := range args {
		key := strings.ToLower(strings.TrimSpace(k))
		if _, declared := desc.Param(key); !declared {
			if canonical, ok := aliases[key]; ok {
				if _, taken := args[canonical]; taken {
					continue
				}
				key = canonical
			}
		}
		out[key] = v
	}

	for key, v := range out {
		p, ok := desc.Param(key)
		if !ok || v == nil {
			continue
		}
		switch p.Type {
		case TypeNumber:
			if f, err := cast.ToFloat64E(v); err == nil {
				out[key] = f
			}
		case TypeString:
			if _, isString := v.(string); !isString {
				if s, err := cast.ToStringE(v); err == nil {
					out[key] = s
				}
			} else {
				out[key] = strings.TrimSpace(v.(string))
			}
		case TypeObject:
			switch t := v.(type) {
			case string:
				var m map[string]any
				if err := json.Unmarshal([]byte(t), &m); err == nil {
					out[key] = m
				}
			case device.State:
				out[key] = map[string]any(t)
			}
		}
		if len(p.Enum) > 0 {
			if s, ok := out[key].(string); ok {
				out[key] = strings.ToLower(s)
			}
		}
	}
	return out
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
