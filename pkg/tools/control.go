package tools

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/urmzd/homeagent/pkg/device"
)

// Default climate range applied when a unit declares none.
const (
	DefaultMinTemp = 18.0
	DefaultMaxTemp = 28.0
)

// defaultColorModes applies to lights that declare no color_modes.
var defaultColorModes = []string{"off", "warm_white", "bright_yellow", "cool_blue"}

const targetAll = "all"

// ControlLight switches lights on or off or sets their color mode. target is
// a room, a light id, or "all". Zero matching lights is a failed result, not an error.
func (s *Set) ControlLight(ctx context.Context, target, action string) Result {
	return s.finish(ctx, s.controlLight(target, action))
}

func (s *Set) controlLight(target, action string) Result {
	action = strings.ToLower(strings.TrimSpace(action))
	r := Result{
		Tool:    ControlLight,
		Action:  action,
		Command: fmt.Sprintf("Turn %s lights in %s", action, target),
	}

	lights, label := s.resolveLights(target)
	if len(lights) == 0 {
		r.Message = fmt.Sprintf("No lights found in %s", target)
		return r
	}

	var patch func(d *device.Device) device.State
	switch action {
	case device.PowerOn:
		patch = func(d *device.Device) device.State {
			p := device.State{device.FieldPower: device.PowerOn}
			if d.Mode() == device.PowerOff {
				p[device.FieldMode] = firstColor(d)
			}
			return p
		}
	case device.PowerOff:
		patch = func(d *device.Device) device.State {
			return device.State{device.FieldPower: device.PowerOff, device.FieldMode: device.PowerOff}
		}
	default:
		for i := range lights {
			if modes := colorModes(&lights[i]); !slices.Contains(modes, action) {
				r.Message = fmt.Sprintf("Invalid mode %q for %s. Available: on, %s",
					action, lights[i].ID, strings.Join(modes, ", "))
				return r
			}
		}
		patch = func(*device.Device) device.State {
			return device.State{device.FieldPower: device.PowerOn, device.FieldMode: action}
		}
	}

	for i := range lights {
		if s.registry.UpdateState(lights[i].ID, patch(&lights[i])) {
			r.Devices = append(r.Devices, lights[i].ID)
		}
	}
	r.Success = len(r.Devices) > 0
	switch action {
	case device.PowerOn, device.PowerOff:
		r.Message = fmt.Sprintf("Turned %s %s in %s", action, plural(len(r.Devices), "light"), label)
	default:
		r.Message = fmt.Sprintf("Set %s in %s to %s", plural(len(r.Devices), "light"), label, action)
	}
	return r
}

func (s *Set) resolveLights(target string) ([]device.Device, string) {
	t := strings.TrimSpace(target)
	if t == "" || strings.EqualFold(t, targetAll) || strings.EqualFold(t, "all lights") {
		return s.registry.ListByType(device.TypeLight), "all rooms"
	}
	if d, err := s.registry.Get(t); err == nil {
		if d.Type != device.TypeLight {
			return nil, t
		}
		return []device.Device{*d}, d.Room
	}
	room, ok := s.registry.MatchRoom(t)
	if !ok {
		return nil, t
	}
	var lights []device.Device
	for _, d := range s.registry.ListByRoom(room) {
		if d.Type == device.TypeLight {
			lights = append(lights, d)
		}
	}
	return lights, room
}

func colorModes(d *device.Device) []string {
	if modes := d.ColorModes(); len(modes) > 0 {
		return modes
	}
	return defaultColorModes
}

func firstColor(d *device.Device) string {
	for _, m := range colorModes(d) {
		if m != device.PowerOff {
			return m
		}
	}
	return device.PowerOn
}

// SetThermostat sets the target temperature of the thermostat in room and
// turns it on. Rooms with only an AC are left alone; control_ac covers them.
func (s *Set) SetThermostat(ctx context.Context, room string, temperature float64) Result {
	return s.finish(ctx, s.setThermostat(room, temperature))
}

func (s *Set) setThermostat(room string, temperature float64) Result {
	r := Result{
		Tool:    SetThermostat,
		Action:  fmt.Sprintf("set_temperature_%g", temperature),
		Command: fmt.Sprintf("Set thermostat in %s to %g", room, temperature),
	}

	unit, canonical := s.thermostatIn(room)
	if unit == nil {
		r.Message = fmt.Sprintf("No thermostat found in %s", room)
		return r
	}
	if lo, hi, ok := unit.TempRange(); ok && (temperature < lo || temperature > hi) {
		r.Message = fmt.Sprintf("Temperature must be between %g°C and %g°C", lo, hi)
		return r
	}

	patch := device.State{device.FieldTargetTemp: temperature, device.FieldPower: device.PowerOn}
	if !s.registry.UpdateState(unit.ID, patch) {
		r.Message = fmt.Sprintf("Failed to set thermostat in %s", canonical)
		return r
	}
	r.Success = true
	r.Devices = []string{unit.ID}
	r.Message = fmt.Sprintf("Set thermostat in %s to %g°C", canonical, temperature)
	return r
}

// thermostatIn finds the first thermostat in room.
func (s *Set) thermostatIn(room string) (*device.Device, string) {
	canonical, ok := s.registry.MatchRoom(room)
	if !ok {
		return nil, room
	}
	for _, d := range s.registry.ListByRoom(canonical) {
		if d.Type == device.TypeThermostat {
			return &d, canonical
		}
	}
	return nil, canonical
}

// AdjustThermostat moves the room's set point by delta relative to its
// current target, or its reading when no target is set.
func (s *Set) AdjustThermostat(ctx context.Context, room string, delta float64) Result {
	r := Result{
		Tool:    SetThermostat,
		Action:  fmt.Sprintf("adjust_temperature_%g", delta),
		Command: fmt.Sprintf("Adjust thermostat in %s by %g", room, delta),
	}
	unit, _ := s.thermostatIn(room)
	if unit == nil {
		r.Message = fmt.Sprintf("No thermostat found in %s", room)
		return s.finish(ctx, r)
	}
	current, ok := unit.TargetTemperature()
	if !ok {
		current, ok = unit.CurrentTemperature()
	}
	if !ok {
		r.Devices = []string{unit.ID}
		r.Message = fmt.Sprintf("%s reports no temperature to adjust from", unit.DisplayName())
		return s.finish(ctx, r)
	}
	return s.SetThermostat(ctx, room, current+delta)
}

// ControlDevice merges a raw state patch into a device after checking that it
// exists and that the patch fits its type.
func (s *Set) ControlDevice(ctx context.Context, id string, patch device.State) Result {
	return s.finish(ctx, s.controlDevice(id, patch))
}

func (s *Set) controlDevice(id string, patch device.State) Result {
	r := Result{
		Tool:    ControlDevice,
		Action:  fmt.Sprint(map[string]any(patch)),
		Command: fmt.Sprintf("Control device %s", id),
	}

	d, err := s.registry.Get(id)
	if err != nil {
		r.Message = fmt.Sprintf("Device %s not found", id)
		return r
	}
	if len(patch) == 0 {
		r.Message = fmt.Sprintf("No state changes given for %s", id)
		return r
	}
	if err := s.validator.ValidateState(d.Type, patch); err != nil {
		r.Message = fmt.Sprintf("Invalid state for %s: %v", id, err)
		return r
	}
	if !s.registry.UpdateState(id, patch) {
		r.Message = fmt.Sprintf("Failed to update %s", d.DisplayName())
		return r
	}
	r.Success = true
	r.Devices = []string{id}
	r.Message = fmt.Sprintf("Successfully updated %s", d.DisplayName())
	return r
}

// ControlTV switches a TV to the channel with the given name (case-insensitive)
// or numeric id. Channel 0 turns the set off.
func (s *Set) ControlTV(ctx context.Context, id, channel string) Result {
	return s.finish(ctx, s.controlTV(id, channel))
}

func (s *Set) controlTV(id, channel string) Result {
	r := Result{
		Tool:    ControlTV,
		Action:  "channel_" + strings.ToLower(channel),
		Command: fmt.Sprintf("Set %s to channel %s", id, channel),
	}

	d, err := s.registry.Get(id)
	if err != nil {
		r.Message = fmt.Sprintf("Device %s not found", id)
		return r
	}
	if d.Type != device.TypeTV {
		r.Message = fmt.Sprintf("%s is not a TV", id)
		return r
	}

	table := d.Channels()
	var match *device.Channel
	want := strings.TrimSpace(channel)
	for i := range table {
		if strings.EqualFold(table[i].Name, want) || strconv.Itoa(table[i].ID) == want {
			match = &table[i]
			break
		}
	}
	if match == nil {
		names := make([]string, len(table))
		for i, ch := range table {
			names[i] = ch.Name
		}
		r.Message = fmt.Sprintf("Invalid channel. Available: %s", strings.Join(names, ", "))
		return r
	}

	power := device.PowerOn
	if match.ID == 0 {
		power = device.PowerOff
	}
	if !s.update(&r, id, device.State{device.FieldChannel: match.ID, device.FieldPower: power}) {
		return r
	}
	r.Success = true
	r.Devices = []string{id}
	r.Message = fmt.Sprintf("Set %s to channel: %s", id, match.Name)
	return r
}

// ControlAC powers an air conditioner on or off and optionally sets its
// temperature. An out-of-range temperature rejects the whole call.
func (s *Set) ControlAC(ctx context.Context, id, power string, temperature *float64) Result {
	return s.finish(ctx, s.controlAC(id, power, temperature))
}

func (s *Set) controlAC(id, power string, temperature *float64) Result {
	power = strings.ToLower(strings.TrimSpace(power))
	r := Result{
		Tool:    ControlAC,
		Action:  "power_" + power,
		Command: fmt.Sprintf("Set %s to %s", id, power),
	}

	d, err := s.registry.Get(id)
	if err != nil {
		r.Message = fmt.Sprintf("Device %s not found", id)
		return r
	}
	if !d.Type.IsClimate() {
		r.Message = fmt.Sprintf("%s is not an AC", id)
		return r
	}
	if power != device.PowerOn && power != device.PowerOff {
		r.Message = fmt.Sprintf("Invalid power %q. Use on or off", power)
		return r
	}

	patch := device.State{device.FieldPower: power}
	if temperature != nil {
		lo, hi, ok := d.TempRange()
		if !ok {
			lo, hi = DefaultMinTemp, DefaultMaxTemp
		}
		if *temperature < lo || *temperature > hi {
			r.Message = fmt.Sprintf("Temperature must be between %g°C and %g°C", lo, hi)
			return r
		}
		patch[device.FieldTargetTemp] = *temperature
		r.Action += fmt.Sprintf("_%g", *temperature)
	}

	if !s.update(&r, id, patch) {
		return r
	}
	r.Success = true
	r.Devices = []string{id}
	status := strings.ToUpper(power)
	if power == device.PowerOn && temperature != nil {
		status += fmt.Sprintf(" at %g°C", *temperature)
	}
	r.Message = fmt.Sprintf("Set %s to %s", id, status)
	return r
}

// ControlDoorLock locks or unlocks one lock, or all of them when id is "all".
func (s *Set) ControlDoorLock(ctx context.Context, id, action string) Result {
	return s.finish(ctx, s.controlDoorLock(id, action))
}

func (s *Set) controlDoorLock(id, action string) Result {
	action = strings.ToLower(strings.TrimSpace(action))
	r := Result{
		Tool:    ControlDoorLock,
		Action:  action,
		Command: fmt.Sprintf("%s %s", action, id),
	}
	if action != "lock" && action != "unlock" {
		r.Message = fmt.Sprintf("Invalid action %q. Use lock or unlock", action)
		return r
	}
	locked := action == "lock"
	word := "unlocked"
	if locked {
		word = "locked"
	}

	if id == "" || strings.EqualFold(id, targetAll) {
		locks := s.registry.ListByType(device.TypeLock)
		if len(locks) == 0 {
			r.Message = "No door locks found"
			return r
		}
		for _, d := range locks {
			if s.registry.UpdateState(d.ID, device.State{device.FieldLocked: locked}) {
				r.Devices = append(r.Devices, d.ID)
			}
		}
		r.Success = len(r.Devices) > 0
		r.Message = fmt.Sprintf("%s %s: %s", capitalize(word), plural(len(r.Devices), "door"), strings.Join(r.Devices, ", "))
		return r
	}

	d, err := s.registry.Get(id)
	if err != nil {
		r.Message = fmt.Sprintf("Device %s not found", id)
		return r
	}
	if d.Type != device.TypeLock {
		r.Message = fmt.Sprintf("%s is not a door lock", id)
		return r
	}
	if !s.update(&r, id, device.State{device.FieldLocked: locked}) {
		return r
	}
	r.Success = true
	r.Devices = []string{id}
	r.Message = fmt.Sprintf("%s is now %s", id, word)
	return r
}

// update applies patch to a device found earlier. A reload in between can
// drop the device, which fails r.
func (s *Set) update(r *Result, id string, patch device.State) bool {
	if s.registry.UpdateState(id, patch) {
		return true
	}
	r.Message = fmt.Sprintf("Failed to update %s: device is no longer loaded", id)
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
