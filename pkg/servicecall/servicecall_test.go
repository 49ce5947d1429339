package servicecall

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urmzd/homeagent/pkg/device"
	"github.com/urmzd/homeagent/pkg/device/jsonstore"
	"github.com/urmzd/homeagent/pkg/history"
	"github.com/urmzd/homeagent/pkg/tools"
)

const (
	fixtureBlock = "Sure, turning on the living room light.\n```homeassistant\n" +
		`{"service": "light.turn_on", "target_device": "light.light_living", "parameters": {"state": 2}}` +
		"\n```"
	fixtureBlockMany = "```json\n" +
		`{"service": "lock.lock", "target_devices": ["lock.door_bedroom", "lock.lock_front_door"]}` + "\n" +
		`{"service": "media_player.turn_off", "target_device": "media_player.tv_living"}` +
		"\n```"
	fixtureInline = `Okay! {"service": "climate.set_temperature", "target_device": "climate.ac_living", "parameters": {"temperature": 23}} Enjoy.`
	fixtureLoose  = `I'll do it: "service": "light.turn_off", then "target_device": "light.light_kitchen" (done)`
	fixtureLooseN = `"service": "lock.unlock" "target_devices": ["lock.door_bedroom", "lock.lock_front_door"] oops`
	fixtureProse  = "I'm not sure which device you mean. Could you clarify?"
)

func TestExtract_Tiers(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantTier Tier
		want     []Call
	}{
		{
			name:     "homeassistant block",
			text:     fixtureBlock,
			wantTier: TierJSON,
			want: []Call{{
				Service:    "light.turn_on",
				Targets:    []string{"light.light_living"},
				Parameters: map[string]any{"state": float64(2)},
			}},
		},
		{
			name:     "json block with two calls",
			text:     fixtureBlockMany,
			wantTier: TierJSON,
			want: []Call{
				{Service: "lock.lock", Targets: []string{"lock.door_bedroom", "lock.lock_front_door"}},
				{Service: "media_player.turn_off", Targets: []string{"media_player.tv_living"}},
			},
		},
		{
			name:     "inline json",
			text:     fixtureInline,
			wantTier: TierStructured,
			want: []Call{{
				Service:    "climate.set_temperature",
				Targets:    []string{"climate.ac_living"},
				Parameters: map[string]any{"temperature": float64(23)},
			}},
		},
		{
			name:     "loose single target",
			text:     fixtureLoose,
			wantTier: TierLoose,
			want:     []Call{{Service: "light.turn_off", Targets: []string{"light.light_kitchen"}}},
		},
		{
			name:     "no match",
			text:     fixtureProse,
			wantTier: TierNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, tier := Extract(tt.text)
			assert.Equal(t, tt.wantTier, tier)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractTiersIndependently(t *testing.T) {
	assert.Empty(t, ExtractJSON(fixtureInline), "inline json is not a code block")
	assert.Len(t, ExtractStructured(fixtureBlock), 1, "block content is also valid inline json")
	assert.Empty(t, ExtractStructured(fixtureLoose))

	loose := ExtractLoose(fixtureLooseN)
	require.Len(t, loose, 1)
	assert.Equal(t, []string{"lock.door_bedroom", "lock.lock_front_door"}, loose[0].Targets)

	for _, extract := range []func(string) []Call{ExtractJSON, ExtractStructured, ExtractLoose} {
		assert.Empty(t, extract(fixtureProse))
	}
}

func TestExtractJSON_Duplicates(t *testing.T) {
	text := fixtureBlock + "\n\n" + fixtureBlock

	calls := ExtractJSON(text)

	assert.Len(t, calls, 1)
}

func TestCall_Parts(t *testing.T) {
	c := Call{Service: "media_player.select_source"}
	assert.Equal(t, "media_player", c.Domain())
	assert.Equal(t, "select_source", c.Verb())
	assert.Equal(t, "loose", TierLoose.String())
	assert.Equal(t, "none", TierNone.String())
}

func newApplier(t *testing.T) (*Applier, *device.Registry, *history.Log) {
	t.Helper()
	snap, err := jsonstore.DefaultHome()
	require.NoError(t, err)
	reg := device.NewRegistry(nil)
	require.NoError(t, reg.Replace(snap))
	hist := history.NewLog()
	return NewApplier(tools.NewSet(reg, hist)), reg, hist
}

func TestApply(t *testing.T) {
	a, reg, hist := newApplier(t)
	calls, _ := Extract(fixtureBlock + "\n" + fixtureBlockMany)
	calls = append(calls, Call{Service: "climate.turn_on", Targets: []string{"climate.ac_bedroom"}, Parameters: map[string]any{"temperature": 20}})

	results := a.Apply(context.Background(), calls)

	require.Len(t, results, 5)
	for _, r := range results {
		assert.True(t, r.Success, r.Message)
	}
	assert.Equal(t, 5, hist.Len())

	light, _ := reg.Get("light_living")
	assert.Equal(t, "bright_yellow", light.Mode())
	front, _ := reg.Get("lock_front_door")
	assert.True(t, front.Locked())
	ac, _ := reg.Get("ac_bedroom")
	temp, _ := ac.TargetTemperature()
	assert.True(t, ac.IsOn())
	assert.Equal(t, 20.0, temp)
}

func TestApply_TVTurnOnDefaultsToFirstChannel(t *testing.T) {
	a, reg, _ := newApplier(t)

	results := a.Apply(context.Background(), []Call{{Service: "media_player.turn_on", Targets: []string{"media_player.tv_living"}}})

	require.Len(t, results, 1)
	assert.Equal(t, "Set tv_living to channel: News", results[0].Message)
	tv, _ := reg.Get("tv_living")
	assert.Equal(t, 1, tv.Channel())
}

func TestApply_Rejections(t *testing.T) {
	a, _, hist := newApplier(t)

	results := a.Apply(context.Background(), []Call{
		{Service: "light.turn_on", Targets: []string{"light.ghost"}},
		{Service: "lock.lock", Targets: []string{"light.light_living"}},
		{Service: "climate.turn_on", Targets: []string{"climate.ac_living"}, Parameters: map[string]any{"temperature": 35}},
	})

	require.Len(t, results, 3)
	assert.Equal(t, "Device ghost not found", results[0].Message)
	assert.Contains(t, results[1].Message, "does not apply")
	assert.Equal(t, "Temperature must be between 18°C and 28°C", results[2].Message)
	for _, r := range results {
		assert.False(t, r.Success)
	}
	assert.Equal(t, 1, hist.Len(), "only calls that reach a tool are logged")
}

func TestPrompt(t *testing.T) {
	snap, err := jsonstore.DefaultHome()
	require.NoError(t, err)

	p := Prompt(snap.Devices, "movie time")

	assert.Contains(t, p, "light.light_living 'Living Room Light' = off;off")
	assert.Contains(t, p, "climate.thermostat_living 'Living Room Thermostat' = off;22°C")
	assert.Contains(t, p, "media_player.tv_living 'Living Room TV' = channel_0;Off")
	assert.Contains(t, p, "lock.lock_front_door 'Front Door Lock' = locked")
	assert.Contains(t, p, "TV channels: 0=Off, 1=News, 2=Cartoon, 3=Sports, 4=Movies")
	assert.NotContains(t, p, "fan_bedroom")
	assert.True(t, strings.HasSuffix(p, "User: movie time\nAssistant:"))
}

func TestSceneFor(t *testing.T) {
	tests := map[string]string{
		"let's have a movie night":    "movie",
		"Goodnight house":             "sleep",
		"I'm leaving the house now":   "away",
		"good morning!":               "morning",
		"watch the news on the tv":    "",
		"what's the security status?": "",
	}
	for command, want := range tests {
		got, ok := SceneFor(command)
		assert.Equal(t, want, got, command)
		assert.Equal(t, want != "", ok, command)
	}
}
