package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/homeagent/pkg/api/types"
	"github.com/urmzd/homeagent/pkg/device"
	"github.com/urmzd/homeagent/pkg/device/schema"
	"github.com/urmzd/homeagent/pkg/tools"
)

// DevicesHandler handles device and room endpoints
type DevicesHandler struct {
	registry *device.Registry
	tools    *tools.Set
}

// NewDevicesHandler creates a new devices handler
func NewDevicesHandler(set *tools.Set) *DevicesHandler {
	return &DevicesHandler{registry: set.Registry(), tools: set}
}

func deviceView(d *device.Device) types.DeviceView {
	v := types.DeviceView{
		ID:          d.ID,
		Name:        d.DisplayName(),
		Type:        string(d.Type),
		Room:        d.Room,
		Status:      device.Describe(d),
		State:       d.State,
		StateSchema: schema.StateSchema(d.Type),
	}
	if !d.LastUpdated.IsZero() {
		at := d.LastUpdated
		v.LastUpdated = &at
	}
	return v
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, types.ErrorResponse{
		Error:   "not_found",
		Message: what + " not found",
	})
}

// ListDevices handles GET /devices
// @Summary      List devices
// @Description  Returns every device, optionally filtered by room or type
// @Tags         devices
// @Produce      json
// @Param        room  query     string  false  "Room name, synonyms accepted"
// @Param        type  query     string  false  "Device type"
// @Success      200   {object}  types.ListDevicesResponse
// @Failure      400   {object}  types.ErrorResponse  "Unknown device type"
// @Router       /devices [get]
func (h *DevicesHandler) ListDevices(c *gin.Context) {
	devices := h.registry.List()

	if room := strings.TrimSpace(c.Query("room")); room != "" {
		if matched, ok := h.registry.MatchRoom(room); ok {
			room = matched
		}
		devices = h.registry.ListByRoom(room)
	}
	if typ := strings.TrimSpace(c.Query("type")); typ != "" {
		t, err := device.ParseType(typ)
		if err != nil {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error:   "invalid_type",
				Message: err.Error(),
			})
			return
		}
		devices = filterType(devices, t)
	}

	result := make([]types.DeviceView, 0, len(devices))
	for i := range devices {
		result = append(result, deviceView(&devices[i]))
	}
	c.JSON(http.StatusOK, types.ListDevicesResponse{
		Devices: result,
		Count:   len(result),
	})
}

func filterType(devices []device.Device, t device.Type) []device.Device {
	out := devices[:0]
	for _, d := range devices {
		if d.Type == t {
			out = append(out, d)
		}
	}
	return out
}

// GetDevice handles GET /devices/:id
// @Summary      Get device details
// @Description  Returns one device with its status and state schema
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device id"
// @Success      200  {object}  types.DeviceResponse
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Router       /devices/{id} [get]
func (h *DevicesHandler) GetDevice(c *gin.Context) {
	d, err := h.registry.Get(c.Param("id"))
	if err != nil {
		notFound(c, "Device")
		return
	}
	c.JSON(http.StatusOK, types.DeviceResponse{Device: deviceView(d)})
}

// GetState handles GET /devices/:id/state
// @Summary      Get device state
// @Tags         devices
// @Produce      json
// @Param        id   path      string  true  "Device id"
// @Success      200  {object}  types.StateResponse
// @Failure      404  {object}  types.ErrorResponse  "Device not found"
// @Router       /devices/{id}/state [get]
func (h *DevicesHandler) GetState(c *gin.Context) {
	d, err := h.registry.Get(c.Param("id"))
	if err != nil {
		notFound(c, "Device")
		return
	}
	c.JSON(http.StatusOK, types.StateResponse{
		Device:    d.ID,
		State:     d.State,
		Timestamp: time.Now(),
	})
}

// SetState handles POST /devices/:id/state
// @Summary      Patch device state
// @Description  Merges a JSON object into the device state after validating it against the device type schema. The change is recorded in the command history.
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        id       path      string  true  "Device id"
// @Param        request  body      object  true  "State fields to set"
// @Success      200      {object}  types.StateResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "Device not found"
// @Router       /devices/{id}/state [post]
func (h *DevicesHandler) SetState(c *gin.Context) {
	id := c.Param("id")

	var patch map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&patch); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}
	if _, err := h.registry.Get(id); err != nil {
		notFound(c, "Device")
		return
	}

	res := h.tools.ControlDevice(c.Request.Context(), id, device.State(patch))
	if !res.Success {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: res.Message,
		})
		return
	}

	d, _ := h.registry.Get(id)
	c.JSON(http.StatusOK, types.StateResponse{
		Device:    id,
		State:     d.State,
		Message:   res.Message,
		Timestamp: time.Now(),
	})
}

// ListRooms handles GET /rooms
// @Summary      List rooms
// @Description  Returns every known room with the ids of its devices
// @Tags         devices
// @Produce      json
// @Success      200  {object}  types.RoomsResponse
// @Router       /rooms [get]
func (h *DevicesHandler) ListRooms(c *gin.Context) {
	rooms := h.registry.Rooms()
	out := make([]types.RoomView, 0, len(rooms))
	for _, room := range rooms {
		view := types.RoomView{Name: room, Devices: []string{}}
		for _, d := range h.registry.ListByRoom(room) {
			view.Devices = append(view.Devices, d.ID)
		}
		out = append(out, view)
	}
	c.JSON(http.StatusOK, types.RoomsResponse{Rooms: out})
}
