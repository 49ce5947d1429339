package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/urmzd/homeagent/pkg/device"
)

// SceneStep is one literal patch of a scene.
type SceneStep struct {
	DeviceID string
	Patch    device.State
}

// Scene is a named, fixed bundle of device state patches.
type Scene struct {
	Name        string
	Description string
	Steps       []SceneStep
}

var (
	lightOff  = device.State{device.FieldPower: device.PowerOff, device.FieldMode: device.PowerOff}
	tvOff     = device.State{device.FieldPower: device.PowerOff, device.FieldChannel: 0}
	doorLock  = device.State{device.FieldLocked: true}
	lightMode = func(mode string) device.State {
		return device.State{device.FieldPower: device.PowerOn, device.FieldMode: mode}
	}
	tvChannel = func(ch int) device.State {
		return device.State{device.FieldPower: device.PowerOn, device.FieldChannel: ch}
	}
)

var scenes = map[string]Scene{
	"movie": {
		Name:        "movie",
		Description: "Movie night mode",
		Steps: []SceneStep{
			{"light_living", lightOff},
			{"tv_living", tvChannel(4)},
			{"ac_living", device.State{device.FieldPower: device.PowerOn, device.FieldTargetTemp: 22.0}},
		},
	},
	"sleep": {
		Name:        "sleep",
		Description: "Sleep mode",
		Steps: []SceneStep{
			{"light_living", lightOff},
			{"light_bedroom", lightOff},
			{"tv_living", tvOff},
			{"door_bedroom", doorLock},
		},
	},
	"away": {
		Name:        "away",
		Description: "Away mode - secure home",
		Steps: []SceneStep{
			{"light_living", lightOff},
			{"light_bedroom", lightOff},
			{"tv_living", tvOff},
			{"ac_living", device.State{device.FieldPower: device.PowerOff}},
			{"door_bedroom", doorLock},
			{"lock_front_door", doorLock},
		},
	},
	"morning": {
		Name:        "morning",
		Description: "Morning mode",
		Steps: []SceneStep{
			{"light_living", lightMode("bright_yellow")},
			{"light_bedroom", lightMode("warm_white")},
			{"tv_living", tvChannel(1)},
			{"door_bedroom", device.State{device.FieldLocked: false}},
		},
	},
}

// Scenes returns the scene names in sorted order.
func Scenes() []string {
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupScene returns the named scene.
func LookupScene(name string) (Scene, bool) {
	sc, ok := scenes[strings.ToLower(strings.TrimSpace(name))]
	return sc, ok
}

// CreateScene applies a named scene to the devices that exist. Applying a
// scene twice leaves the same states as applying it once.
func (s *Set) CreateScene(ctx context.Context, name string) Result {
	r := Result{
		Tool:    CreateScene,
		Action:  "scene_" + strings.ToLower(name),
		Command: fmt.Sprintf("Activate scene %s", name),
	}

	sc, ok := LookupScene(name)
	if !ok {
		r.Message = fmt.Sprintf("Scene '%s' not found. Available: %s", name, strings.Join(Scenes(), ", "))
		return s.finish(ctx, r)
	}
	for _, step := range sc.Steps {
		if s.registry.UpdateState(step.DeviceID, step.Patch.Clone()) {
			r.Devices = append(r.Devices, step.DeviceID)
		}
	}
	r.Success = true
	r.Message = fmt.Sprintf("Activated scene: %s", sc.Description)
	if len(r.Devices) == 0 {
		r.Message += " (no matching devices)"
	}
	return s.finish(ctx, r)
}
