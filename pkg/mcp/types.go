package mcp

import (
	"encoding/json"

	"github.com/urmzd/homeagent/pkg/device"
	"github.com/urmzd/homeagent/pkg/device/schema"
	"github.com/urmzd/homeagent/pkg/history"
	"github.com/urmzd/homeagent/pkg/tools"
)

// ProcessCommandOutput is the output for the process_command tool
type ProcessCommandOutput struct {
	Response    string         `json:"response" jsonschema:"description=Assistant response to show the user"`
	Tier        string         `json:"tier" jsonschema:"description=Resolution path that produced the response"`
	ToolResults []tools.Result `json:"tool_results" jsonschema:"description=Tool invocations made while resolving"`
}

// DeviceInfo represents a device in tool outputs
type DeviceInfo struct {
	ID          string          `json:"id" jsonschema:"description=Device id"`
	Name        string          `json:"name" jsonschema:"description=Display name"`
	Type        string          `json:"type" jsonschema:"description=Device type"`
	Room        string          `json:"room" jsonschema:"description=Canonical room"`
	Status      string          `json:"status" jsonschema:"description=Short human-readable status"`
	StateSchema json.RawMessage `json:"state_schema,omitempty" jsonschema:"description=JSON Schema for settable state"`
	State       map[string]any  `json:"state" jsonschema:"description=Current device state"`
}

// ListDevicesOutput is the output for the list_devices tool
type ListDevicesOutput struct {
	Devices []DeviceInfo `json:"devices"`
	Count   int          `json:"count"`
}

// GetDeviceOutput is the output for the get_device tool
type GetDeviceOutput struct {
	Device DeviceInfo `json:"device"`
}

// GetHistoryOutput is the output for the get_history tool
type GetHistoryOutput struct {
	Entries []history.Entry `json:"entries"`
	Count   int             `json:"count"`
}

// DeviceToInfo converts a device to its tool output form
func DeviceToInfo(d *device.Device) DeviceInfo {
	return DeviceInfo{
		ID:          d.ID,
		Name:        d.DisplayName(),
		Type:        string(d.Type),
		Room:        d.Room,
		Status:      device.Describe(d),
		StateSchema: schema.StateSchema(d.Type),
		State:       d.State,
	}
}
