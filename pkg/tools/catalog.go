// Package tools is the closed catalog of named operations over the device
// registry. Each operation validates its input before mutating anything,
// reports problems as result messages instead of errors, and appends exactly
// one history entry per invocation.
package tools

import (
	"encoding/json"
	"slices"
	"strings"
)

// Name identifies a catalog entry.
type Name string

// Catalog entries
const (
	ControlLight      Name = "control_light"
	SetThermostat     Name = "set_thermostat"
	ControlDevice     Name = "control_device"
	ControlTV         Name = "control_tv"
	ControlAC         Name = "control_ac"
	ControlDoorLock   Name = "control_door_lock"
	GetRoomStatus     Name = "get_room_status"
	GetAllDevices     Name = "get_all_devices"
	GetSecurityStatus Name = "get_security_status"
	GetEnergyUsage    Name = "get_energy_usage"
	CreateScene       Name = "create_scene"
	GetTime           Name = "get_time"
	GetDate           Name = "get_date"
)

// Parameter types understood by the schema generator and the argument coercer.
const (
	TypeString = "string"
	TypeNumber = "number"
	TypeObject = "object"
)

// Param declares one input of a tool.
type Param struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Enum        []string `json:"enum,omitempty"`
}

// Descriptor is the declared shape of a tool: what the model and the MCP
// server are shown, and what inputs are validated against.
type Descriptor struct {
	Name        Name    `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
}

var catalog = []Descriptor{
	{
		Name:        ControlLight,
		Description: "Turn lights on or off, or set a color mode, in a room, for one light, or for all lights",
		Params: []Param{
			{Name: "target", Type: TypeString, Required: true,
				Description: "Room name (e.g. 'living_room'), a light device id, or 'all'"},
			{Name: "action", Type: TypeString, Required: true,
				Description: "'on', 'off', or a color mode such as 'warm_white', 'bright_yellow', 'cool_blue'"},
		},
	},
	{
		Name:        SetThermostat,
		Description: "Set the target temperature of the thermostat in a room and turn it on",
		Params: []Param{
			{Name: "room", Type: TypeString, Required: true, Description: "Room name"},
			{Name: "temperature", Type: TypeNumber, Required: true, Description: "Target temperature in °C"},
		},
	},
	{
		Name:        ControlDevice,
		Description: "Merge raw state fields into any device addressed by id",
		Params: []Param{
			{Name: "device_id", Type: TypeString, Required: true, Description: "Device id"},
			{Name: "state", Type: TypeObject, Required: true,
				Description: "State fields to set, e.g. {\"power\": \"on\", \"speed\": 3}"},
		},
	},
	{
		Name:        ControlTV,
		Description: "Switch a TV to a named channel",
		Params: []Param{
			{Name: "device_id", Type: TypeString, Required: true, Description: "TV device id, e.g. 'tv_living'"},
			{Name: "channel", Type: TypeString, Required: true, Description: "Channel name: Off, News, Cartoon, Sports, Movies"},
		},
	},
	{
		Name:        ControlAC,
		Description: "Turn an air conditioner on or off and optionally set its temperature",
		Params: []Param{
			{Name: "device_id", Type: TypeString, Required: true, Description: "AC device id, e.g. 'ac_living'"},
			{Name: "power", Type: TypeString, Required: true, Description: "'on' or 'off'", Enum: []string{"on", "off"}},
			{Name: "temperature", Type: TypeNumber, Description: "Temperature within the unit's range (18-28)"},
		},
	},
	{
		Name:        ControlDoorLock,
		Description: "Lock or unlock a door, or every door with device_id 'all'",
		Params: []Param{
			{Name: "device_id", Type: TypeString, Required: true, Description: "Lock device id or 'all'"},
			{Name: "action", Type: TypeString, Required: true, Description: "'lock' or 'unlock'", Enum: []string{"lock", "unlock"}},
		},
	},
	{
		Name:        GetRoomStatus,
		Description: "Report the status of every device in a room",
		Params: []Param{
			{Name: "room", Type: TypeString, Required: true, Description: "Room name"},
		},
	},
	{Name: GetAllDevices, Description: "List every device with its current state"},
	{Name: GetSecurityStatus, Description: "Report whether all door locks are locked"},
	{Name: GetEnergyUsage, Description: "Estimate the power draw of active devices"},
	{
		Name:        CreateScene,
		Description: "Activate a predefined scene: movie, sleep, away, morning",
		Params: []Param{
			{Name: "scene", Type: TypeString, Required: true, Description: "Scene name"},
		},
	},
	{Name: GetTime, Description: "Get the current time"},
	{Name: GetDate, Description: "Get the current date"},
}

// argAliases maps spellings models commonly produce onto declared parameter names.
var argAliases = map[Name]map[string]string{
	ControlLight:    {"room": "target", "device_id": "target", "room_name": "target", "mode": "action", "state": "action"},
	SetThermostat:   {"room_name": "room", "target_temperature": "temperature", "temp": "temperature"},
	ControlDevice:   {"action": "state", "patch": "state", "id": "device_id"},
	ControlTV:       {"channel_name": "channel", "id": "device_id"},
	ControlAC:       {"state": "power", "id": "device_id", "target_temperature": "temperature"},
	ControlDoorLock: {"state": "action", "id": "device_id"},
	GetRoomStatus:   {"room_name": "room", "target": "room"},
	CreateScene:     {"scene_name": "scene", "name": "scene"},
}

// Catalog returns every tool descriptor in declaration order.
func Catalog() []Descriptor {
	return slices.Clone(catalog)
}

// Lookup finds a descriptor by name.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range catalog {
		if string(d.Name) == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Names returns the tool names in declaration order.
func Names() []string {
	out := make([]string, len(catalog))
	for i, d := range catalog {
		out[i] = string(d.Name)
	}
	return out
}

// Required returns the names of the required parameters.
func (d Descriptor) Required() []string {
	var out []string
	for _, p := range d.Params {
		if p.Required {
			out = append(out, p.Name)
		}
	}
	return out
}

// Param returns the named parameter declaration.
func (d Descriptor) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Schema renders the parameters as a JSON Schema object. Extra properties are
// allowed; models often add harmless keys.
func (d Descriptor) Schema() json.RawMessage {
	props := make(map[string]any, len(d.Params))
	for _, p := range d.Params {
		prop := map[string]any{"type": p.Type, "description": p.Description}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[p.Name] = prop
	}
	doc := map[string]any{"type": "object", "properties": props}
	if req := d.Required(); len(req) > 0 {
		doc["required"] = req
	}
	raw, _ := json.Marshal(doc)
	return raw
}

// Signature renders "name(param, param?)" for prompts.
func (d Descriptor) Signature() string {
	parts := make([]string, 0, len(d.Params))
	for _, p := range d.Params {
		s := p.Name
		if !p.Required {
			s += "?"
		}
		parts = append(parts, s)
	}
	return string(d.Name) + "(" + strings.Join(parts, ", ") + ")"
}
