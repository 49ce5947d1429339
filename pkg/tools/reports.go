package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/urmzd/homeagent/pkg/device"
)

// Estimated draw of an active device, in watts.
const (
	LightWatts   = 10
	ClimateWatts = 1500
	TVWatts      = 100
)

// GetRoomStatus lists the devices of one room with their status.
func (s *Set) GetRoomStatus(ctx context.Context, room string) Result {
	r := Result{Tool: GetRoomStatus, Command: fmt.Sprintf("Get status of %s", room)}

	canonical, ok := s.registry.MatchRoom(room)
	if !ok {
		r.Message = fmt.Sprintf("Room '%s' not found. Available: %s", room, strings.Join(s.registry.Rooms(), ", "))
		return s.finish(ctx, r)
	}
	devices := s.registry.ListByRoom(canonical)
	if len(devices) == 0 {
		r.Message = fmt.Sprintf("No devices found in %s", canonical)
		return s.finish(ctx, r)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Status of %s:", canonical)
	for i := range devices {
		fmt.Fprintf(&b, "\n- %s (%s): %s", devices[i].DisplayName(), devices[i].Type, device.Describe(&devices[i]))
	}
	r.Success = true
	r.Message = b.String()
	return s.finish(ctx, r)
}

// GetAllDevices lists every device with its type, room and status.
func (s *Set) GetAllDevices(ctx context.Context) Result {
	r := Result{Tool: GetAllDevices, Command: "Get all devices"}

	devices := s.registry.List()
	if len(devices) == 0 {
		r.Message = "No devices found"
		return s.finish(ctx, r)
	}
	lines := make([]string, len(devices))
	for i := range devices {
		d := &devices[i]
		lines[i] = fmt.Sprintf("- %s (%s in %s): %s", d.ID, d.Type, d.Room, device.Describe(d))
	}
	r.Success = true
	r.Message = strings.Join(lines, "\n")
	return s.finish(ctx, r)
}

// GetSecurityStatus reports whether every lock is locked.
func (s *Set) GetSecurityStatus(ctx context.Context) Result {
	r := Result{Tool: GetSecurityStatus, Command: "Get security status"}

	locks := s.registry.ListByType(device.TypeLock)
	if len(locks) == 0 {
		r.Message = "No door locks found"
		return s.finish(ctx, r)
	}

	allLocked := true
	lines := make([]string, len(locks))
	for i := range locks {
		status := "Locked"
		if !locks[i].Locked() {
			status = "Unlocked"
			allLocked = false
		}
		lines[i] = fmt.Sprintf("%s: %s", locks[i].ID, status)
	}
	level := "Secure - all doors locked"
	if !allLocked {
		level = "Warning - some doors unlocked"
	}
	r.Success = true
	r.Message = level + "\n" + strings.Join(lines, "\n")
	return s.finish(ctx, r)
}

// GetEnergyUsage estimates power draw with a fixed wattage per active device.
func (s *Set) GetEnergyUsage(ctx context.Context) Result {
	r := Result{Tool: GetEnergyUsage, Command: "Get energy usage"}

	total := 0
	var lines []string
	for _, d := range s.registry.List() {
		w := Watts(&d)
		if w == 0 {
			continue
		}
		total += w
		lines = append(lines, fmt.Sprintf("%s: ~%dW", d.ID, w))
	}
	r.Success = true
	if len(lines) == 0 {
		r.Message = "No devices currently consuming energy"
		return s.finish(ctx, r)
	}
	r.Message = fmt.Sprintf("Active devices:\n%s\n\nTotal: ~%dW", strings.Join(lines, "\n"), total)
	return s.finish(ctx, r)
}

// Watts is the estimated draw of d, zero when it is idle or not metered.
func Watts(d *device.Device) int {
	switch {
	case d.Type == device.TypeLight && d.IsOn():
		return LightWatts
	case d.Type.IsClimate() && d.IsOn():
		return ClimateWatts
	case d.Type == device.TypeTV && d.Channel() != 0:
		return TVWatts
	}
	return 0
}

// GetTime reports the current wall-clock time.
func (s *Set) GetTime(ctx context.Context) Result {
	return s.finish(ctx, Result{
		Tool:    GetTime,
		Success: true,
		Message: "Current time: " + s.now().Format("03:04 PM"),
		Command: "Get time",
	})
}

// GetDate reports the current date.
func (s *Set) GetDate(ctx context.Context) Result {
	return s.finish(ctx, Result{
		Tool:    GetDate,
		Success: true,
		Message: "Today is " + s.now().Format("Monday, January 02, 2006"),
		Command: "Get date",
	})
}
