package agent

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/urmzd/homeagent/pkg/tools"
)

func TestParseStep(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    Step
		wantErr bool
	}{
		{
			name: "action with json input",
			text: "Thought: the user wants light\nAction: control_light\nAction Input: {\"target\": \"kitchen\", \"action\": \"on\"}",
			want: Step{Thought: "the user wants light", Action: "control_light", RawInput: `{"target": "kitchen", "action": "on"}`},
		},
		{
			name: "final answer",
			text: " I now know the final answer\nFinal Answer: The kitchen light is on.",
			want: Step{Thought: "I now know the final answer", Final: "The kitchen light is on."},
		},
		{
			name: "decorated tool name",
			text: "Action: `Get_Time()`\nAction Input: none",
			want: Step{Action: "get_time", RawInput: "none"},
		},
		{
			name: "hallucinated observation is dropped",
			text: "Thought: lock it\nAction: control_door_lock\nAction Input: {\"device_id\":\"all\",\"action\":\"lock\"}\nObservation: Locked 2 doors\nFinal Answer: done",
			want: Step{Thought: "lock it", Action: "control_door_lock", RawInput: `{"device_id":"all","action":"lock"}`},
		},
		{
			name: "action before final answer wins",
			text: "Action: get_date\nAction Input: {}\nFinal Answer: it is monday",
			want: Step{Action: "get_date", RawInput: "{}"},
		},
		{
			name:    "no markers",
			text:    "Sure! I turned on the lights for you.",
			wantErr: true,
		},
		{
			name:    "empty final answer",
			text:    "Final Answer:   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStep(tt.text)
			if tt.wantErr {
				if !errors.Is(err, ErrUnparsable) {
					t.Fatalf("expected ErrUnparsable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseStep() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseInput(t *testing.T) {
	light, _ := tools.Lookup(string(tools.ControlLight))
	room, _ := tools.Lookup(string(tools.GetRoomStatus))
	clock, _ := tools.Lookup(string(tools.GetTime))

	tests := []struct {
		name string
		raw  string
		desc tools.Descriptor
		want map[string]any
	}{
		{"json object", `{"target": "kitchen", "action": "on"}`, light, map[string]any{"target": "kitchen", "action": "on"}},
		{"fenced json", "```json\n{\"target\": \"all\", \"action\": \"off\"}\n```", light, map[string]any{"target": "all", "action": "off"}},
		{"json with trailing prose", `{"room": "garage"} (checking the garage)`, room, map[string]any{"room": "garage"}},
		{"unbraced json", `"target": "kitchen", "action": "on"`, light, map[string]any{"target": "kitchen", "action": "on"}},
		{"key value pairs", `target="living room", action=off`, light, map[string]any{"target": "living room", "action": "off"}},
		{"positional", `kitchen, on`, light, map[string]any{"target": "kitchen", "action": "on"}},
		{"bare string", `'master bedroom'`, room, map[string]any{"room": "master bedroom"}},
		{"none for no params", `None`, clock, map[string]any{}},
		{"empty", ``, light, map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseInput(tt.raw, tt.desc)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseInput(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}
