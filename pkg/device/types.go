package device

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Type is the closed set of device kinds the registry understands.
type Type string

// Device type constants
const (
	TypeLight      Type = "light"
	TypeThermostat Type = "thermostat"
	TypeAC         Type = "ac"
	TypeLock       Type = "lock"
	TypeTV         Type = "tv"
	TypeFan        Type = "fan"
	TypeBlind      Type = "blind"
	TypeOutlet     Type = "outlet"
	TypeCamera     Type = "camera"
	TypeSpeaker    Type = "speaker"
)

// Types lists every supported device type.
var Types = []Type{
	TypeLight, TypeThermostat, TypeAC, TypeLock, TypeTV,
	TypeFan, TypeBlind, TypeOutlet, TypeCamera, TypeSpeaker,
}

var typeAliases = map[string]Type{
	"door_lock":    TypeLock,
	"media":        TypeTV,
	"media_player": TypeTV,
	"climate":      TypeAC,
	"plug":         TypeOutlet,
}

// ParseType maps a type name (or a known alias such as "door_lock") onto the closed set.
func ParseType(s string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, t := range Types {
		if string(t) == key {
			return t, nil
		}
	}
	if t, ok := typeAliases[key]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown device type %q", ErrValidation, s)
}

// IsClimate reports whether the type carries a target temperature.
func (t Type) IsClimate() bool {
	return t == TypeThermostat || t == TypeAC
}

// State field names shared by the type-specific readers.
const (
	FieldPower       = "power"
	FieldMode        = "mode"
	FieldColorModes  = "color_modes"
	FieldBrightness  = "brightness"
	FieldLocked      = "locked"
	FieldChannel     = "channel"
	FieldChannels    = "channels"
	FieldCurrentTemp = "current_temperature"
	FieldTargetTemp  = "target_temperature"
	FieldMinTemp     = "min_temperature"
	FieldMaxTemp     = "max_temperature"
	FieldSpeed       = "speed"
	FieldPosition    = "position"
	FieldVolume      = "volume"
	FieldRecording   = "recording"
)

// Power values
const (
	PowerOn  = "on"
	PowerOff = "off"
)

// State is the type-specific mapping of named fields to values.
// Unknown fields are carried along untouched.
type State map[string]any

// Clone returns a deep copy of the state map. Nested slices and maps, such
// as color_modes or a channel table, are copied too.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cloneValue(e)
		}
		return out
	case State:
		return v.Clone()
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(v)
	case []Channel:
		return slices.Clone(v)
	case []map[string]any:
		out := make([]map[string]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e).(map[string]any)
		}
		return out
	default:
		return v
	}
}

// Channel is one entry of a TV's fixed channel table.
type Channel struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Device is a single simulated smart-home device.
type Device struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        Type      `json:"type"`
	Room        string    `json:"room"`
	State       State     `json:"state"`
	LastUpdated time.Time `json:"last_updated"`
}

// Clone returns a copy that shares nothing mutable with d.
func (d *Device) Clone() Device {
	c := *d
	c.State = d.State.Clone()
	return c
}

// DisplayName returns the friendly name, falling back to the id.
func (d *Device) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// Power returns "on" or "off". Locks and cameras without a power field report "off".
func (d *Device) Power() string {
	if v, ok := d.State[FieldPower]; ok {
		if b, err := cast.ToBoolE(v); err == nil {
			if b {
				return PowerOn
			}
			return PowerOff
		}
		if strings.EqualFold(cast.ToString(v), PowerOn) {
			return PowerOn
		}
	}
	return PowerOff
}

// IsOn reports whether the device is powered.
func (d *Device) IsOn() bool {
	return d.Power() == PowerOn
}

// Mode returns the light color mode, or "off" when unset.
func (d *Device) Mode() string {
	if m := cast.ToString(d.State[FieldMode]); m != "" {
		return m
	}
	return PowerOff
}

// ColorModes returns the light's declared color modes.
func (d *Device) ColorModes() []string {
	v, ok := d.State[FieldColorModes]
	if !ok {
		return nil
	}
	modes, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil
	}
	return modes
}

// Locked reports the lock state.
func (d *Device) Locked() bool {
	return cast.ToBool(d.State[FieldLocked])
}

// Channel returns the current channel index (0 is "Off" by convention).
func (d *Device) Channel() int {
	return cast.ToInt(d.State[FieldChannel])
}

// Channels returns the device's channel table.
func (d *Device) Channels() []Channel {
	raw, ok := d.State[FieldChannels].([]any)
	if !ok {
		if typed, ok := d.State[FieldChannels].([]Channel); ok {
			return typed
		}
		return nil
	}
	out := make([]Channel, 0, len(raw))
	for i, item := range raw {
		switch v := item.(type) {
		case map[string]any:
			ch := Channel{ID: i, Name: cast.ToString(v["name"])}
			if id, err := cast.ToIntE(v["id"]); err == nil {
				ch.ID = id
			}
			out = append(out, ch)
		case string:
			out = append(out, Channel{ID: i, Name: v})
		}
	}
	return out
}

// ChannelName returns the name of the current channel, if the table knows it.
func (d *Device) ChannelName() string {
	cur := d.Channel()
	for _, ch := range d.Channels() {
		if ch.ID == cur {
			return ch.Name
		}
	}
	return fmt.Sprintf("%d", cur)
}

// TargetTemperature returns the climate set point.
func (d *Device) TargetTemperature() (float64, bool) {
	v, ok := d.State[FieldTargetTemp]
	if !ok {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	return f, err == nil
}

// CurrentTemperature returns the measured temperature.
func (d *Device) CurrentTemperature() (float64, bool) {
	v, ok := d.State[FieldCurrentTemp]
	if !ok {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	return f, err == nil
}

// TempRange returns the declared [min,max] set point range.
func (d *Device) TempRange() (min, max float64, ok bool) {
	lo, okLo := d.State[FieldMinTemp]
	hi, okHi := d.State[FieldMaxTemp]
	if !okLo || !okHi {
		return 0, 0, false
	}
	min, errLo := cast.ToFloat64E(lo)
	max, errHi := cast.ToFloat64E(hi)
	if errLo != nil || errHi != nil {
		return 0, 0, false
	}
	return min, max, true
}

// Change is emitted to registry subscribers after every successful mutation.
type Change struct {
	DeviceID string    `json:"device_id"`
	Type     Type      `json:"type"`
	Room     string    `json:"room"`
	Patch    State     `json:"patch"`
	State    State     `json:"state"`
	At       time.Time `json:"at"`
}
