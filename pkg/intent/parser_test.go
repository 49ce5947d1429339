package intent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		name string
		text string
		want Intent
	}{
		{
			name: "absolute temperature",
			text: "set living room temperature to 25",
			want: Intent{Action: ActionSetTemperature, Targets: []string{},
				Parameters: map[string]any{"room": "living_room", "temperature": 25.0}},
		},
		{
			name: "absolute temperature with decimal and synonym room",
			text: "Adjust the bedroom temp at 19.5",
			want: Intent{Action: ActionSetTemperature, Targets: []string{},
				Parameters: map[string]any{"room": "master_bedroom", "temperature": 19.5}},
		},
		{
			name: "absolute temperature defaults room",
			text: "change temperature to 21",
			want: Intent{Action: ActionSetTemperature, Targets: []string{},
				Parameters: map[string]any{"room": "living_room", "temperature": 21.0}},
		},
		{
			name: "relative increase",
			text: "increase the living room temperature by 2",
			want: Intent{Action: ActionAdjustTemperature, Targets: []string{},
				Parameters: map[string]any{"room": "living_room", "delta": 2.0}},
		},
		{
			name: "relative decrease default magnitude",
			text: "lower the kitchen temp",
			want: Intent{Action: ActionAdjustTemperature, Targets: []string{},
				Parameters: map[string]any{"room": "kitchen", "delta": -1.0}},
		},
		{
			name: "unlock wins over lock",
			text: "don't forget to lock after you unlock",
			want: Intent{Action: ActionUnlock, Targets: []string{},
				Parameters: map[string]any{"scope": "all"}},
		},
		{
			name: "unlock front door",
			text: "Unlock the front door",
			want: Intent{Action: ActionUnlock, Targets: []string{"lock_front_door"},
				Parameters: map[string]any{"scope": "front"}},
		},
		{
			name: "lock everything",
			text: "lock all doors",
			want: Intent{Action: ActionLock, Targets: []string{},
				Parameters: map[string]any{"scope": "all"}},
		},
		{
			name: "lights on trailing room",
			text: "turn on the lights in the living room",
			want: Intent{Action: ActionLightOn, Targets: []string{},
				Parameters: map[string]any{"room": "living_room"}},
		},
		{
			name: "lights off gazetteer room",
			text: "turn off the garage lights",
			want: Intent{Action: ActionLightOff, Targets: []string{},
				Parameters: map[string]any{"room": "garage"}},
		},
		{
			name: "lights default room",
			text: "lights on",
			want: Intent{Action: ActionLightOn, Targets: []string{},
				Parameters: map[string]any{"room": "kitchen"}},
		},
		{
			name: "status with room",
			text: "What's the status of the bedroom?",
			want: Intent{Action: ActionStatus, Targets: []string{"master_bedroom"},
				Parameters: map[string]any{}},
		},
		{
			name: "status without room",
			text: "show me everything",
			want: Intent{Action: ActionStatus, Targets: []string{}, Parameters: map[string]any{}},
		},
		{
			name: "temperature rule precedes status",
			text: "show me how to set the temperature to 20",
			want: Intent{Action: ActionSetTemperature, Targets: []string{},
				Parameters: map[string]any{"room": "living_room", "temperature": 20.0}},
		},
		{
			name: "bare warmer",
			text: "make it warmer",
			want: Intent{Action: ActionAdjustTemperature, Targets: []string{},
				Parameters: map[string]any{"room": "living_room", "delta": 1.0}},
		},
		{
			name: "bare cooler with room",
			text: "I want the bedroom cooler",
			want: Intent{Action: ActionAdjustTemperature, Targets: []string{},
				Parameters: map[string]any{"room": "master_bedroom", "delta": -1.0}},
		},
		{
			name: "no match",
			text: "tell me a joke",
			want: Intent{Action: ActionUnknown, Targets: []string{}, Parameters: map[string]any{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestParse_TargetsNeverNil(t *testing.T) {
	p := NewParser(nil)
	for _, text := range []string{"", "lights on", "lock", "status", "warmer", "???"} {
		if got := p.Parse(text); got.Targets == nil || got.Parameters == nil {
			t.Errorf("Parse(%q) returned nil targets or parameters", text)
		}
	}
}

func TestParse_UsesRegistryRooms(t *testing.T) {
	p := NewParser(func() []string { return []string{"bedroom", "living"} })

	got := p.Parse("turn on the lights in the living room")
	if got.Room() != "living" {
		t.Errorf("room = %q, want living", got.Room())
	}

	got = p.Parse("turn off the lights in the attic")
	if got.Room() != DefaultLightRoom {
		t.Errorf("room = %q, want fallback %q", got.Room(), DefaultLightRoom)
	}
}

func TestNormalizeRoom_Spellings(t *testing.T) {
	p := NewParser(nil)
	for _, text := range []string{"Living Room", "living_room", "in the living room", "living  room", "LIVING"} {
		room, ok := p.NormalizeRoom(text)
		if !ok || room != "living_room" {
			t.Errorf("NormalizeRoom(%q) = (%q, %v), want living_room", text, room, ok)
		}
	}
	if _, ok := p.NormalizeRoom("the"); ok {
		t.Error("filler-only text should not resolve")
	}
}

func TestWrap(t *testing.T) {
	in := Wrap(ActionToolAgent, "turn on lights")
	if in.Action != ActionToolAgent || in.Command() != "turn on lights" {
		t.Errorf("unexpected wrapped intent: %+v", in)
	}
	if in.Targets == nil {
		t.Error("targets should be empty, not nil")
	}
}
