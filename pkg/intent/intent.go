// Package intent turns free text into a canonical {action, targets, parameters}
// triple with a fixed, priority-ordered set of rules. It has no network or
// model dependency and never touches device state.
package intent

import (
	"strconv"
	"strings"
)

// Action is the canonical label of a classified command.
type Action string

// Actions produced by the resolvers
const (
	ActionSetTemperature    Action = "set_temperature"
	ActionAdjustTemperature Action = "adjust_temperature"
	ActionUnlock            Action = "unlock"
	ActionLock              Action = "lock"
	ActionLightOn           Action = "light_on"
	ActionLightOff          Action = "light_off"
	ActionStatus            Action = "status"
	ActionUnknown           Action = "unknown"

	// ActionToolAgent wraps the raw command for the capability-driven resolver.
	ActionToolAgent Action = "tool_agent"

	// ActionServiceCall wraps the raw command for the direct service-call resolver.
	ActionServiceCall Action = "service_call"
)

// Parameter keys
const (
	ParamRoom        = "room"
	ParamTemperature = "temperature"
	ParamDelta       = "delta"
	ParamScope       = "scope"
	ParamCommand     = "command"
)

// Lock scopes
const (
	ScopeFront = "front"
	ScopeAll   = "all"
)

// FrontDoorLock is the device id targeted when a command names the front door.
const FrontDoorLock = "lock_front_door"

// Intent is the structured form of a command. An empty Targets means "all matching".
type Intent struct {
	Action     Action         `json:"action"`
	Targets    []string       `json:"targets"`
	Parameters map[string]any `json:"parameters"`
}

func newIntent(a Action) Intent {
	return Intent{Action: a, Targets: []string{}, Parameters: map[string]any{}}
}

// Wrap builds the pass-through intent used by model-backed resolvers: the raw
// command travels unchanged in the "command" parameter.
func Wrap(a Action, command string) Intent {
	in := newIntent(a)
	in.Parameters[ParamCommand] = command
	return in
}

// Room returns the "room" parameter.
func (i Intent) Room() string {
	s, _ := i.Parameters[ParamRoom].(string)
	return s
}

// Float returns a numeric parameter.
func (i Intent) Float(key string) (float64, bool) {
	f, ok := i.Parameters[key].(float64)
	return f, ok
}

// Command returns the raw command carried by a pass-through intent.
func (i Intent) Command() string {
	s, _ := i.Parameters[ParamCommand].(string)
	return s
}

// String renders the intent for logs and terminal front ends.
func (i Intent) String() string {
	var b strings.Builder
	b.WriteString(string(i.Action))
	if len(i.Targets) > 0 {
		b.WriteString(" [" + strings.Join(i.Targets, ", ") + "]")
	}
	for _, k := range []string{ParamRoom, ParamTemperature, ParamDelta, ParamScope} {
		v, ok := i.Parameters[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			b.WriteString(" " + k + "=" + strconv.FormatFloat(t, 'g', -1, 64))
		case string:
			b.WriteString(" " + k + "=" + t)
		}
	}
	return b.String()
}
