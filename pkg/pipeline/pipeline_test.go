package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urmzd/homeagent/pkg/device"
	"github.com/urmzd/homeagent/pkg/device/jsonstore"
	"github.com/urmzd/homeagent/pkg/history"
	"github.com/urmzd/homeagent/pkg/intent"
	"github.com/urmzd/homeagent/pkg/llm"
	"github.com/urmzd/homeagent/pkg/metrics"
	"github.com/urmzd/homeagent/pkg/tools"
)

type fixture struct {
	store    *device.MemoryStore
	registry *device.Registry
	history  *history.Log
	set      *tools.Set
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	snap, err := jsonstore.DefaultHome()
	require.NoError(t, err)
	store := device.NewMemoryStore(snap.Devices...)
	reg, err := device.Open(context.Background(), store)
	require.NoError(t, err)
	hist := history.NewLog()
	return fixture{store: store, registry: reg, history: hist, set: tools.NewSet(reg, hist)}
}

func (f fixture) pipeline(opts ...Option) *Pipeline {
	return New(f.set, f.history, opts...)
}

func TestRules_TurnOnLivingRoomLights(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(WithMode(ModeRules))

	resp := p.Process(context.Background(), "turn on the lights in the living room")

	assert.Equal(t, intent.ActionLightOn, p.LastIntent().Action)
	assert.Equal(t, "living_room", p.LastIntent().Room())
	assert.Equal(t, "Turned on 1 light in living_room", resp)
	light, err := f.registry.Get("light_living")
	require.NoError(t, err)
	assert.Equal(t, "on", light.Power())
}

func TestRules_Temperature(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(WithMode(ModeRules))
	ctx := context.Background()

	p.Process(ctx, "set living room temperature to 25")
	in := p.LastIntent()
	assert.Equal(t, intent.ActionSetTemperature, in.Action)
	assert.Equal(t, map[string]any{"room": "living_room", "temperature": 25.0}, in.Parameters)

	p.Process(ctx, "increase the living room temperature by 2")
	in = p.LastIntent()
	assert.Equal(t, intent.ActionAdjustTemperature, in.Action)
	assert.Equal(t, map[string]any{"room": "living_room", "delta": 2.0}, in.Parameters)

	thermo, _ := f.registry.Get("thermostat_living")
	temp, _ := thermo.TargetTemperature()
	assert.Equal(t, 27.0, temp)
}

func TestRules_LockScopes(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(WithMode(ModeRules))
	ctx := context.Background()

	p.Process(ctx, "unlock the front door")
	front, _ := f.registry.Get("lock_front_door")
	bedroom, _ := f.registry.Get("door_bedroom")
	assert.False(t, front.Locked())
	assert.False(t, bedroom.Locked())

	resp := p.Process(ctx, "lock all the doors")
	assert.Equal(t, "Locked 2 doors: door_bedroom, lock_front_door", resp)
}

func TestRules_Unknown(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(WithMode(ModeRules))

	resp := p.Process(context.Background(), "sing me a song")

	assert.Equal(t, NotUnderstood, resp)
	assert.Equal(t, TierNone, p.Snapshot().Tier)
	assert.Zero(t, f.history.Len())
}

func TestAgent_Success(t *testing.T) {
	f := newFixture(t)
	script := llm.NewScripted(
		"Thought: lock everything\nAction: control_door_lock\nAction Input: {\"device_id\": \"all\", \"action\": \"lock\"}",
		"Thought: done\nFinal Answer: All doors are locked.",
	)
	p := f.pipeline(WithCompleter(script))

	resp := p.Process(context.Background(), "lock up")

	assert.Equal(t, "All doors are locked.", resp)
	obs := p.Snapshot()
	assert.Equal(t, TierAgent, obs.Tier)
	assert.Equal(t, intent.ActionToolAgent, obs.Intent.Action)
	assert.Equal(t, "lock up", obs.Intent.Command())
	require.Len(t, obs.ToolResults, 1)
	assert.True(t, obs.ToolResults[0].Success)
	assert.Len(t, obs.Steps, 1)
}

func TestAgent_FallbackToPlainAnswer(t *testing.T) {
	f := newFixture(t)
	script := llm.NewScripted(
		"I'd love to help with that!",
		"Sure - I can't do that right now, but try again soon.",
	)
	p := f.pipeline(WithCompleter(script))

	resp := p.Process(context.Background(), "make me a coffee")

	assert.Equal(t, "Sure - I can't do that right now, but try again soon.", resp)
	assert.Equal(t, TierFallback, p.Snapshot().Tier)
	prompts := script.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[1], "User: make me a coffee")
	assert.NotContains(t, prompts[1], "TOOLS AVAILABLE")
}

func TestAgent_EmptyFallback(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(WithCompleter(llm.NewScripted("gibberish", "   ")))

	assert.Equal(t, EmptyFallback, p.Process(context.Background(), "hello"))
}

func TestAgent_UnavailableCapability(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline()

	resp := p.Process(context.Background(), "turn on lights")

	assert.Equal(t, Apology, resp)
	assert.NotEmpty(t, resp)
	assert.Equal(t, TierApology, p.Snapshot().Tier)
}

func TestAgent_CapabilityErrorsThenApology(t *testing.T) {
	f := newFixture(t)
	boom := llm.Func(func(context.Context, string) (string, error) {
		return "", errors.New("connection refused")
	})
	p := f.pipeline(WithCompleter(boom))

	assert.Equal(t, Apology, p.Process(context.Background(), "lights on"))
}

func TestProcess_RecoversPanics(t *testing.T) {
	f := newFixture(t)
	panicky := llm.Func(func(context.Context, string) (string, error) {
		panic("backend exploded")
	})
	p := f.pipeline(WithCompleter(panicky))

	var resp string
	require.NotPanics(t, func() { resp = p.Process(context.Background(), "lights on") })
	assert.Equal(t, Apology, resp)
	assert.Equal(t, Apology, p.LastResponse())
}

func TestDirect_ServiceCalls(t *testing.T) {
	f := newFixture(t)
	script := llm.NewScripted("Turning on the kitchen light.\n```homeassistant\n" +
		`{"service": "light.turn_on", "target_device": "light.light_kitchen", "parameters": {"state": 3}}` +
		"\n```")
	p := f.pipeline(WithMode(ModeDirect), WithCompleter(script))

	resp := p.Process(context.Background(), "kitchen light blue please")

	assert.Equal(t, "Turning on the kitchen light.\nSet 1 light in kitchen to cool_blue", resp)
	assert.Equal(t, Tier("direct_json"), p.Snapshot().Tier)
	light, _ := f.registry.Get("light_kitchen")
	assert.Equal(t, "cool_blue", light.Mode())
	assert.Contains(t, script.Prompts()[0], "light.light_kitchen 'Kitchen Light' = off;off")
}

func TestDirect_NoCalls(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(WithMode(ModeDirect), WithCompleter(llm.NewScripted("Which room do you mean?")))

	resp := p.Process(context.Background(), "turn it on")

	assert.Equal(t, "Which room do you mean?", resp)
	assert.Equal(t, Tier("direct_none"), p.Snapshot().Tier)
}

func TestDirect_SceneShortcut(t *testing.T) {
	f := newFixture(t)
	script := llm.NewScripted()
	p := f.pipeline(WithMode(ModeDirect), WithCompleter(script))

	resp := p.Process(context.Background(), "goodnight")

	assert.Equal(t, "Activated scene: Sleep mode", resp)
	assert.Zero(t, script.Calls())
	door, _ := f.registry.Get("door_bedroom")
	assert.True(t, door.Locked())
}

func TestProcess_ReloadsBeforeActing(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(WithMode(ModeRules))

	snap, err := f.store.Load(context.Background())
	require.NoError(t, err)
	for i := range snap.Devices {
		if snap.Devices[i].ID == "light_kitchen" {
			snap.Devices[i].Room = "pantry"
		}
	}
	require.NoError(t, f.store.Save(context.Background(), snap))

	resp := p.Process(context.Background(), "turn on the light in the pantry")

	assert.Equal(t, "Turned on 1 light in pantry", resp)
}

func TestMemoryAndPatterns(t *testing.T) {
	f := newFixture(t)
	f.history.SetClock(func() time.Time { return time.Date(2026, 10, 17, 7, 30, 0, 0, time.UTC) })
	p := f.pipeline(WithMode(ModeRules), WithMemoryLimit(4))
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		p.Process(ctx, "turn off the lights in the kitchen")
	}
	p.Process(ctx, "what's the status of the garage")

	mem := p.Memory()
	require.Len(t, mem, 4)
	assert.Equal(t, RoleUser, mem[2].Role)
	assert.Equal(t, "what's the status of the garage", mem[2].Text)
	assert.Equal(t, RoleAssistant, mem[3].Role)
	assert.Equal(t, p.LastResponse(), mem[3].Text)

	patterns := p.Snapshot().Patterns
	require.Contains(t, patterns, 7)
	assert.Len(t, patterns[7], 12)
}

func TestMetricsPerTier(t *testing.T) {
	f := newFixture(t)
	m := metrics.New()
	p := f.pipeline(WithMode(ModeRules), WithMetrics(m))

	p.Process(context.Background(), "turn on the lights in the kitchen")
	p.Process(context.Background(), "do a backflip")

	count, err := testutil.GatherAndCount(m.Registry(), "homeagent_commands_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per tier")
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeAgent, "Agent": ModeAgent, "direct": ModeDirect, " rules ": ModeRules} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("telepathy")
	assert.Error(t, err)
}

func TestRun_ReturnsOwnObservation(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(WithMode(ModeRules))

	obs := p.Run(context.Background(), "lock the front door")

	assert.Equal(t, "lock the front door", obs.Command)
	assert.Equal(t, TierRules, obs.Tier)
	assert.Equal(t, obs.Response, p.LastResponse())
	require.Len(t, obs.ToolResults, 1)
	assert.Equal(t, tools.ControlDoorLock, obs.ToolResults[0].Tool)
}
