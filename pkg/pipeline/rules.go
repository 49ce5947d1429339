package pipeline

import (
	"context"

	"github.com/urmzd/homeagent/pkg/intent"
	"github.com/urmzd/homeagent/pkg/tools"
)

// Executor carries out rule-parsed intents through the tool set.
type Executor struct {
	tools *tools.Set
}

// NewExecutor creates an executor over set.
func NewExecutor(set *tools.Set) *Executor {
	return &Executor{tools: set}
}

// Execute runs in and returns the tool results. Unknown and pass-through
// intents produce no results.
func (e *Executor) Execute(ctx context.Context, in intent.Intent) []tools.Result {
	switch in.Action {
	case intent.ActionLightOn:
		return []tools.Result{e.tools.ControlLight(ctx, in.Room(), "on")}
	case intent.ActionLightOff:
		return []tools.Result{e.tools.ControlLight(ctx, in.Room(), "off")}

	case intent.ActionSetTemperature:
		temp, _ := in.Float(intent.ParamTemperature)
		return []tools.Result{e.tools.SetThermostat(ctx, in.Room(), temp)}
	case intent.ActionAdjustTemperature:
		delta, _ := in.Float(intent.ParamDelta)
		return []tools.Result{e.tools.AdjustThermostat(ctx, in.Room(), delta)}

	case intent.ActionLock, intent.ActionUnlock:
		verb := string(in.Action)
		if len(in.Targets) == 0 {
			return []tools.Result{e.tools.ControlDoorLock(ctx, "all", verb)}
		}
		out := make([]tools.Result, 0, len(in.Targets))
		for _, id := range in.Targets {
			out = append(out, e.tools.ControlDoorLock(ctx, id, verb))
		}
		return out

	case intent.ActionStatus:
		if len(in.Targets) == 0 {
			return []tools.Result{e.tools.GetAllDevices(ctx)}
		}
		out := make([]tools.Result, 0, len(in.Targets))
		for _, room := range in.Targets {
			out = append(out, e.tools.GetRoomStatus(ctx, room))
		}
		return out
	}
	return nil
}
