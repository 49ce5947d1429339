package schema

import (
	"encoding/json"
	"fmt"

	"github.com/urmzd/homeagent/pkg/device"
)

const powerProp = `"power": {"type": "string", "enum": ["on", "off"]}`

// stateSchemas declares the typed fields of each device type. Unknown fields
// are allowed so that extra attributes never break type-specific readers.
var stateSchemas = map[device.Type]json.RawMessage{
	device.TypeLight: json.RawMessage(`{
		"type": "object",
		"properties": {
			` + powerProp + `,
			"mode": {"type": "string"},
			"brightness": {"type": "number", "minimum": 0, "maximum": 100},
			"color_modes": {"type": "array", "items": {"type": "string"}}
		}
	}`),
	device.TypeThermostat: climateSchema,
	device.TypeAC:         climateSchema,
	device.TypeLock: json.RawMessage(`{
		"type": "object",
		"properties": {
			"locked": {"type": "boolean"}
		}
	}`),
	device.TypeTV: json.RawMessage(`{
		"type": "object",
		"properties": {
			` + powerProp + `,
			"channel": {"type": "integer", "minimum": 0}
		}
	}`),
	device.TypeFan: json.RawMessage(`{
		"type": "object",
		"properties": {
			` + powerProp + `,
			"speed": {"type": "integer", "minimum": 0, "maximum": 5}
		}
	}`),
	device.TypeBlind: json.RawMessage(`{
		"type": "object",
		"properties": {
			"position": {"type": "number", "minimum": 0, "maximum": 100}
		}
	}`),
	device.TypeOutlet: json.RawMessage(`{
		"type": "object",
		"properties": {
			` + powerProp + `
		}
	}`),
	device.TypeCamera: json.RawMessage(`{
		"type": "object",
		"properties": {
			` + powerProp + `,
			"recording": {"type": "boolean"}
		}
	}`),
	device.TypeSpeaker: json.RawMessage(`{
		"type": "object",
		"properties": {
			` + powerProp + `,
			"volume": {"type": "number", "minimum": 0, "maximum": 100}
		}
	}`),
}

var climateSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		` + powerProp + `,
		"target_temperature": {"type": "number"},
		"current_temperature": {"type": "number"},
		"min_temperature": {"type": "number"},
		"max_temperature": {"type": "number"}
	}
}`)

// StateSchema returns the JSON Schema for a device type's state.
func StateSchema(t device.Type) json.RawMessage {
	return stateSchemas[t]
}

// ValidateState checks a state patch against the schema of the device type.
// Failures wrap device.ErrValidation.
func (v *Validator) ValidateState(t device.Type, patch device.State) error {
	doc, ok := stateSchemas[t]
	if !ok {
		return fmt.Errorf("%w: no state schema for type %q", device.ErrValidation, t)
	}
	return v.Validate(doc, patch)
}
