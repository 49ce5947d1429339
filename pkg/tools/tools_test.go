package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urmzd/homeagent/pkg/device"
	"github.com/urmzd/homeagent/pkg/device/jsonstore"
	"github.com/urmzd/homeagent/pkg/history"
)

func newTestSet(t *testing.T) (*Set, *device.Registry, *history.Log) {
	t.Helper()
	snap, err := jsonstore.DefaultHome()
	require.NoError(t, err)
	store := device.NewMemoryStore(snap.Devices...)
	reg, err := device.Open(context.Background(), store)
	require.NoError(t, err)
	hist := history.NewLog()
	return NewSet(reg, hist), reg, hist
}

func mustGet(t *testing.T, reg *device.Registry, id string) *device.Device {
	t.Helper()
	d, err := reg.Get(id)
	require.NoError(t, err)
	return d
}

func TestControlLight_Room(t *testing.T) {
	s, reg, hist := newTestSet(t)

	r := s.ControlLight(context.Background(), "living room", "on")

	assert.True(t, r.Success)
	assert.Equal(t, "Turned on 1 light in living_room", r.Message)
	assert.Equal(t, []string{"light_living"}, r.Devices)
	light := mustGet(t, reg, "light_living")
	assert.Equal(t, "on", light.Power())
	assert.Equal(t, "warm_white", light.Mode(), "turning on from off picks the first color mode")
	assert.Equal(t, 1, hist.Len())
}

func TestControlLight_All(t *testing.T) {
	s, reg, _ := newTestSet(t)

	r := s.ControlLight(context.Background(), "all", "on")
	require.True(t, r.Success)
	assert.Len(t, r.Devices, len(reg.ListByType(device.TypeLight)))

	r = s.ControlLight(context.Background(), "", "off")
	require.True(t, r.Success)
	for _, l := range reg.ListByType(device.TypeLight) {
		assert.Equal(t, "off", l.Power(), l.ID)
	}
}

func TestControlLight_ColorMode(t *testing.T) {
	s, reg, _ := newTestSet(t)

	r := s.ControlLight(context.Background(), "light_bedroom", "cool_blue")
	require.True(t, r.Success, r.Message)
	assert.Equal(t, "cool_blue", mustGet(t, reg, "light_bedroom").Mode())

	r = s.ControlLight(context.Background(), "garage", "warm_white")
	assert.False(t, r.Success)
	assert.Contains(t, r.Message, "Invalid mode")
	assert.Equal(t, "off", mustGet(t, reg, "light_garage").Power(), "rejected mode leaves state untouched")
}

func TestControlLight_NoLights(t *testing.T) {
	s, _, hist := newTestSet(t)

	r := s.ControlLight(context.Background(), "entrance", "on")

	assert.False(t, r.Success)
	assert.Equal(t, "No lights found in entrance", r.Message)
	require.Equal(t, 1, hist.Len(), "failures are logged too")
	assert.False(t, hist.Entries()[0].Success)
}

func TestSetThermostat(t *testing.T) {
	s, reg, _ := newTestSet(t)

	r := s.SetThermostat(context.Background(), "living_room", 22)

	assert.True(t, r.Success)
	assert.Contains(t, r.Message, "22")
	thermo := mustGet(t, reg, "thermostat_living")
	temp, _ := thermo.TargetTemperature()
	assert.Equal(t, 22.0, temp)
	assert.True(t, thermo.IsOn())
}

func TestSetThermostat_NoThermostat(t *testing.T) {
	s, reg, _ := newTestSet(t)
	before := reg.Snapshot()

	r := s.SetThermostat(context.Background(), "kitchen", 22)

	assert.False(t, r.Success)
	assert.Equal(t, "No thermostat found in kitchen", r.Message)
	assert.Equal(t, before, reg.Snapshot(), "registry unchanged")
}

func TestAdjustThermostat(t *testing.T) {
	s, reg, _ := newTestSet(t)

	r := s.AdjustThermostat(context.Background(), "living_room", -2)

	require.True(t, r.Success)
	temp, _ := mustGet(t, reg, "thermostat_living").TargetTemperature()
	assert.Equal(t, 20.0, temp)
}

func TestControlDevice(t *testing.T) {
	s, reg, _ := newTestSet(t)

	r := s.ControlDevice(context.Background(), "fan_bedroom", device.State{"power": "on", "speed": 3})
	require.True(t, r.Success, r.Message)
	assert.Equal(t, "Successfully updated Ceiling Fan", r.Message)
	assert.Equal(t, 3, mustGet(t, reg, "fan_bedroom").State["speed"])

	r = s.ControlDevice(context.Background(), "ghost", device.State{"power": "on"})
	assert.False(t, r.Success)
	assert.Equal(t, "Device ghost not found", r.Message)

	r = s.ControlDevice(context.Background(), "fan_bedroom", device.State{"speed": 9})
	assert.False(t, r.Success)
	assert.Contains(t, r.Message, "Invalid state")
	assert.Equal(t, 3, mustGet(t, reg, "fan_bedroom").State["speed"])
}

func TestControlTV(t *testing.T) {
	s, reg, _ := newTestSet(t)

	r := s.ControlTV(context.Background(), "tv_living", "sports")
	require.True(t, r.Success)
	assert.Equal(t, "Set tv_living to channel: Sports", r.Message)
	tv := mustGet(t, reg, "tv_living")
	assert.Equal(t, 3, tv.Channel())
	assert.True(t, tv.IsOn())

	r = s.ControlTV(context.Background(), "tv_living", "Weather")
	assert.False(t, r.Success)
	assert.Equal(t, "Invalid channel. Available: Off, News, Cartoon, Sports, Movies", r.Message)
	assert.Equal(t, 3, mustGet(t, reg, "tv_living").Channel())

	r = s.ControlTV(context.Background(), "light_living", "News")
	assert.False(t, r.Success)
	assert.Equal(t, "light_living is not a TV", r.Message)
}

func TestControlAC_RangeValidation(t *testing.T) {
	s, reg, _ := newTestSet(t)

	for _, temp := range []float64{17, 28.5, 40} {
		temp := temp
		r := s.ControlAC(context.Background(), "ac_living", "on", &temp)
		assert.False(t, r.Success)
		assert.Equal(t, "Temperature must be between 18°C and 28°C", r.Message)
	}
	ac := mustGet(t, reg, "ac_living")
	current, _ := ac.TargetTemperature()
	assert.Equal(t, 24.0, current, "out-of-range calls do not touch the temperature")
	assert.False(t, ac.IsOn(), "out-of-range calls do not touch power either")

	ok := 21.0
	r := s.ControlAC(context.Background(), "ac_living", "ON", &ok)
	require.True(t, r.Success)
	assert.Equal(t, "Set ac_living to ON at 21°C", r.Message)

	r = s.ControlAC(context.Background(), "ac_living", "off", nil)
	require.True(t, r.Success)
	assert.Equal(t, "Set ac_living to OFF", r.Message)
}

func TestControlDoorLock(t *testing.T) {
	s, reg, _ := newTestSet(t)

	r := s.ControlDoorLock(context.Background(), "door_bedroom", "lock")
	require.True(t, r.Success)
	assert.Equal(t, "door_bedroom is now locked", r.Message)

	r = s.ControlDoorLock(context.Background(), "all", "unlock")
	require.True(t, r.Success)
	assert.Len(t, r.Devices, 2)
	for _, l := range reg.ListByType(device.TypeLock) {
		assert.False(t, l.Locked())
	}

	r = s.ControlDoorLock(context.Background(), "door_bedroom", "open")
	assert.False(t, r.Success)
}

func TestReports(t *testing.T) {
	s, _, hist := newTestSet(t)
	ctx := context.Background()

	status := s.GetRoomStatus(ctx, "the living room")
	require.True(t, status.Success)
	assert.True(t, strings.HasPrefix(status.Message, "Status of living_room:"))
	assert.Contains(t, status.Message, "Living Room TV (tv): channel 0: Off")

	missing := s.GetRoomStatus(ctx, "attic")
	assert.False(t, missing.Success)
	assert.Contains(t, missing.Message, "Room 'attic' not found")

	all := s.GetAllDevices(ctx)
	assert.Contains(t, all.Message, "- lock_front_door (lock in entrance): locked")

	sec := s.GetSecurityStatus(ctx)
	assert.True(t, strings.HasPrefix(sec.Message, "Warning - some doors unlocked"))

	assert.Equal(t, 4, hist.Len())
}

func TestGetEnergyUsage(t *testing.T) {
	s, _, _ := newTestSet(t)
	ctx := context.Background()

	idle := s.GetEnergyUsage(ctx)
	assert.Equal(t, "No devices currently consuming energy", idle.Message)

	s.ControlLight(ctx, "kitchen", "on")
	on := 23.0
	s.ControlAC(ctx, "ac_living", "on", &on)
	s.ControlTV(ctx, "tv_living", "News")

	usage := s.GetEnergyUsage(ctx)
	assert.Contains(t, usage.Message, "light_kitchen: ~10W")
	assert.Contains(t, usage.Message, "ac_living: ~1500W")
	assert.Contains(t, usage.Message, "tv_living: ~100W")
	assert.True(t, strings.HasSuffix(usage.Message, "Total: ~1610W"))
}

func TestCreateScene_Idempotent(t *testing.T) {
	s, reg, _ := newTestSet(t)
	ctx := context.Background()

	r := s.CreateScene(ctx, "movie")
	require.True(t, r.Success)
	assert.Equal(t, "Activated scene: Movie night mode", r.Message)
	once := reg.Snapshot()

	s.CreateScene(ctx, "Movie")
	twice := reg.Snapshot()

	require.Len(t, twice.Devices, len(once.Devices))
	for i := range once.Devices {
		assert.Equal(t, once.Devices[i].State, twice.Devices[i].State, once.Devices[i].ID)
	}
	assert.Equal(t, 4, mustGet(t, reg, "tv_living").Channel())
}

func TestCreateScene_Unknown(t *testing.T) {
	s, _, _ := newTestSet(t)

	r := s.CreateScene(context.Background(), "party")

	assert.False(t, r.Success)
	assert.Equal(t, "Scene 'party' not found. Available: away, morning, movie, sleep", r.Message)
}

func TestTimeAndDate(t *testing.T) {
	snap, err := jsonstore.DefaultHome()
	require.NoError(t, err)
	reg := device.NewRegistry(nil)
	require.NoError(t, reg.Replace(snap))
	at := time.Date(2026, 10, 17, 15, 4, 0, 0, time.UTC)
	s := NewSet(reg, history.NewLog(), WithClock(func() time.Time { return at }))

	assert.Equal(t, "Current time: 03:04 PM", s.GetTime(context.Background()).Message)
	assert.Equal(t, "Today is Saturday, October 17, 2026", s.GetDate(context.Background()).Message)
}

func TestSaveAfterMutation(t *testing.T) {
	snap, err := jsonstore.DefaultHome()
	require.NoError(t, err)
	store := device.NewMemoryStore(snap.Devices...)
	reg, err := device.Open(context.Background(), store)
	require.NoError(t, err)
	s := NewSet(reg, history.NewLog())

	s.ControlDoorLock(context.Background(), "door_bedroom", "lock")

	persisted, err := store.Load(context.Background())
	require.NoError(t, err)
	for _, d := range persisted.Devices {
		if d.ID == "door_bedroom" {
			assert.True(t, d.Locked())
			return
		}
	}
	t.Fatal("door_bedroom missing from store")
}

func TestSetThermostat_RoomWithOnlyAC(t *testing.T) {
	s, reg, hist := newTestSet(t)
	before := reg.Snapshot()

	r := s.SetThermostat(context.Background(), "master_bedroom", 40)
	adj := s.AdjustThermostat(context.Background(), "master_bedroom", 100)

	assert.False(t, r.Success)
	assert.Equal(t, "No thermostat found in master_bedroom", r.Message)
	assert.False(t, adj.Success)
	assert.Equal(t, "No thermostat found in master_bedroom", adj.Message)
	assert.Equal(t, before, reg.Snapshot(), "registry unchanged")
	assert.Equal(t, 2, hist.Len())
}

func TestSetThermostat_OutOfRange(t *testing.T) {
	s, reg, _ := newTestSet(t)

	r := s.SetThermostat(context.Background(), "living_room", 45)

	assert.False(t, r.Success)
	assert.Contains(t, r.Message, "between 16°C and 30°C")
	temp, _ := mustGet(t, reg, "thermostat_living").TargetTemperature()
	assert.Equal(t, 22.0, temp)
}

func TestAdjustThermostat_NoReading(t *testing.T) {
	reg := device.NewRegistry(nil)
	require.NoError(t, reg.Replace(&device.Snapshot{Devices: []device.Device{
		{ID: "thermo_attic", Type: device.TypeThermostat, Room: "attic", State: device.State{"power": "off"}},
	}}))
	s := NewSet(reg, history.NewLog())

	r := s.AdjustThermostat(context.Background(), "attic", 1)

	assert.False(t, r.Success)
	assert.Contains(t, r.Message, "no temperature")
	_, ok := mustGet(t, reg, "thermo_attic").TargetTemperature()
	assert.False(t, ok)
}

func TestUpdate_DeviceGoneAfterLookup(t *testing.T) {
	s, reg, _ := newTestSet(t)
	tv := mustGet(t, reg, "tv_living")
	snap := reg.Snapshot()
	var kept []device.Device
	for _, d := range snap.Devices {
		if d.ID != tv.ID {
			kept = append(kept, d)
		}
	}
	require.NoError(t, reg.Replace(&device.Snapshot{Devices: kept, Rooms: snap.Rooms}))

	r := Result{Tool: ControlTV}
	ok := s.update(&r, tv.ID, device.State{"channel": 1})

	assert.False(t, ok)
	assert.False(t, r.Success)
	assert.Equal(t, "Failed to update tv_living: device is no longer loaded", r.Message)
}
