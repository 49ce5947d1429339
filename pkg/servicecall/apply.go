package servicecall

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/urmzd/homeagent/pkg/device"
	"github.com/urmzd/homeagent/pkg/tools"
)

var defaultLightStates = []string{"off", "warm_white", "bright_yellow", "cool_blue"}

// Applier maps service calls onto tool set operations so that they validate
// and log exactly like tool calls made by the agent.
type Applier struct {
	tools *tools.Set
}

// NewApplier creates an applier over set.
func NewApplier(set *tools.Set) *Applier {
	return &Applier{tools: set}
}

// Apply runs every target of every call, in order.
func (a *Applier) Apply(ctx context.Context, calls []Call) []tools.Result {
	var out []tools.Result
	for _, c := range calls {
		for _, target := range c.Targets {
			out = append(out, a.applyOne(ctx, c, target))
		}
	}
	return out
}

func (a *Applier) applyOne(ctx context.Context, c Call, target string) tools.Result {
	id := target
	if _, after, ok := strings.Cut(target, "."); ok {
		id = after
	}
	d, err := a.tools.Registry().Get(id)
	if err != nil {
		return tools.Result{Message: fmt.Sprintf("Device %s not found", id), Devices: []string{}}
	}
	if want := entityDomain(d.Type); want != c.Domain() {
		return tools.Result{
			Message: fmt.Sprintf("Service %s does not apply to %s", c.Service, Entity(d)),
			Devices: []string{},
		}
	}

	switch c.Service {
	case "light.turn_on":
		return a.tools.ControlLight(ctx, id, lightMode(d, c.Parameters))
	case "light.turn_off":
		return a.tools.ControlLight(ctx, id, device.PowerOff)

	case "climate.set_temperature", "climate.turn_on":
		var temp *float64
		if v, ok := c.Parameters["temperature"]; ok {
			if f, err := cast.ToFloat64E(v); err == nil {
				temp = &f
			}
		}
		if d.Type == device.TypeThermostat {
			patch := device.State{device.FieldPower: device.PowerOn}
			if temp != nil {
				patch[device.FieldTargetTemp] = *temp
			}
			return a.tools.ControlDevice(ctx, id, patch)
		}
		return a.tools.ControlAC(ctx, id, device.PowerOn, temp)
	case "climate.turn_off":
		if d.Type == device.TypeThermostat {
			return a.tools.ControlDevice(ctx, id, device.State{device.FieldPower: device.PowerOff})
		}
		return a.tools.ControlAC(ctx, id, device.PowerOff, nil)

	case "media_player.select_source", "media_player.turn_on":
		channel := d.Channel()
		if v, ok := c.Parameters["channel"]; ok {
			return a.tools.ControlTV(ctx, id, cast.ToString(v))
		}
		if channel == 0 {
			channel = 1
		}
		return a.tools.ControlTV(ctx, id, strconv.Itoa(channel))
	case "media_player.turn_off":
		return a.tools.ControlTV(ctx, id, "0")

	case "lock.lock":
		return a.tools.ControlDoorLock(ctx, id, "lock")
	case "lock.unlock":
		return a.tools.ControlDoorLock(ctx, id, "unlock")
	}

	return tools.Result{Message: fmt.Sprintf("Unsupported service %s", c.Service), Devices: []string{}}
}

// lightMode turns the numeric "state" parameter into a color mode of d.
// A missing state means "on" with the light's default color.
func lightMode(d *device.Device, params map[string]any) string {
	v, ok := params["state"]
	if !ok {
		return device.PowerOn
	}
	if s, isString := v.(string); isString {
		if _, err := strconv.Atoi(s); err != nil {
			return strings.ToLower(s)
		}
	}
	idx := cast.ToInt(v)
	modes := d.ColorModes()
	if len(modes) == 0 {
		modes = defaultLightStates
	}
	if idx <= 0 {
		return device.PowerOff
	}
	if idx >= len(modes) {
		return device.PowerOn
	}
	return modes[idx]
}
