package types

import (
	"encoding/json"
	"time"

	"github.com/urmzd/homeagent/pkg/agent"
	"github.com/urmzd/homeagent/pkg/history"
	"github.com/urmzd/homeagent/pkg/intent"
	"github.com/urmzd/homeagent/pkg/tools"
)

// --- Request DTOs ---

// CommandRequest is the request body for POST /commands
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
}

// InvokeToolRequest is the request body for POST /tools/:name
type InvokeToolRequest struct {
	Arguments map[string]any `json:"arguments"`
}

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status     string    `json:"status"`
	Capability string    `json:"capability"`
	Mode       string    `json:"mode"`
	Devices    int       `json:"devices"`
	Timestamp  time.Time `json:"timestamp"`
}

// CommandResponse is returned from POST /commands
type CommandResponse struct {
	Command     string         `json:"command"`
	Response    string         `json:"response"`
	Tier        string         `json:"tier"`
	Intent      intent.Intent  `json:"intent"`
	ToolResults []tools.Result `json:"tool_results"`
	Steps       []agent.Trace  `json:"steps,omitempty"`
	At          time.Time      `json:"at"`
}

// DeviceView is a device with its rendered status and state schema
type DeviceView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Room        string          `json:"room"`
	Status      string          `json:"status"`
	State       map[string]any  `json:"state"`
	StateSchema json.RawMessage `json:"state_schema,omitempty"`
	LastUpdated *time.Time      `json:"last_updated,omitempty"`
}

// ListDevicesResponse is returned from GET /devices
type ListDevicesResponse struct {
	Devices []DeviceView `json:"devices"`
	Count   int          `json:"count"`
}

// DeviceResponse is returned from GET /devices/:id
type DeviceResponse struct {
	Device DeviceView `json:"device"`
}

// StateResponse is returned from GET/POST /devices/:id/state
type StateResponse struct {
	Device    string         `json:"device"`
	State     map[string]any `json:"state"`
	Message   string         `json:"message,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// RoomView lists the devices of one room
type RoomView struct {
	Name    string   `json:"name"`
	Devices []string `json:"devices"`
}

// RoomsResponse is returned from GET /rooms
type RoomsResponse struct {
	Rooms []RoomView `json:"rooms"`
}

// ToolsResponse is returned from GET /tools
type ToolsResponse struct {
	Tools []tools.Descriptor `json:"tools"`
	Count int                `json:"count"`
}

// HistoryResponse is returned from GET /history
type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
	Count   int             `json:"count"`
}

// PatternsResponse is returned from GET /history/patterns
type PatternsResponse struct {
	Patterns map[int][]string `json:"patterns"`
}
