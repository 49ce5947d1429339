package jsonstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/urmzd/homeagent/pkg/device"
)

const gadgetDoc = `{
  "gadgets": [
    {"id": "light_living", "type": "light", "room": "living", "state": 2,
     "color_modes": ["off", "warm_white", "bright_yellow", "cool_blue"], "x": 10, "y": 20},
    {"id": "ac_living", "type": "ac", "room": "living", "on": true, "temperature": 24, "range": [18, 28]},
    {"id": "tv_living", "type": "tv", "room": "living", "channel": 0,
     "channels": [{"id": 0, "name": "Off"}, {"id": 1, "name": "News"}]},
    {"id": "door_bedroom", "type": "door_lock", "room": "bedroom", "locked": false}
  ],
  "rooms": [{"name": "living", "area": [0, 0, 100, 100]}, {"name": "bedroom", "area": [100, 0, 100, 100]}]
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_GadgetFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")
	writeFile(t, path, gadgetDoc)

	reg, err := device.Open(context.Background(), New(path))
	require.NoError(t, err)

	light, err := reg.Get("light_living")
	require.NoError(t, err)
	assert.Equal(t, "on", light.Power())
	assert.Equal(t, "bright_yellow", light.Mode())
	assert.NotContains(t, light.State, "x")

	ac, err := reg.Get("ac_living")
	require.NoError(t, err)
	lo, hi, ok := ac.TempRange()
	assert.True(t, ok)
	assert.Equal(t, 18.0, lo)
	assert.Equal(t, 28.0, hi)
	temp, _ := ac.TargetTemperature()
	assert.Equal(t, 24.0, temp)
	assert.True(t, ac.IsOn())

	tv, err := reg.Get("tv_living")
	require.NoError(t, err)
	assert.Equal(t, "Off", tv.ChannelName())

	lock, err := reg.Get("door_bedroom")
	require.NoError(t, err)
	assert.Equal(t, device.TypeLock, lock.Type)

	assert.Equal(t, []string{"bedroom", "living"}, reg.Rooms())
}

func TestSaveThenLoad_DevicesFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")
	writeFile(t, path, gadgetDoc)
	store := New(path)

	reg, err := device.Open(context.Background(), store)
	require.NoError(t, err)
	reg.UpdateState("door_bedroom", device.State{"locked": true})
	require.NoError(t, reg.Save(context.Background()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"devices"`)
	assert.NotContains(t, string(raw), `"gadgets"`)

	again, err := device.Open(context.Background(), store)
	require.NoError(t, err)
	lock, err := again.Get("door_bedroom")
	require.NoError(t, err)
	assert.True(t, lock.Locked())
	assert.False(t, lock.LastUpdated.IsZero())
	assert.Equal(t, reg.Len(), again.Len())
}

func TestLoad_Missing(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.json")).Load(context.Background())
	assert.True(t, errors.Is(err, ErrNoDocument))
}

func TestLoad_Corrupt(t *testing.T) {
	tests := map[string]string{
		"not json":       `{"devices": [`,
		"no collections": `{"rooms": []}`,
		"bad room entry": `{"devices": {}, "rooms": [42]}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "devices.json")
			writeFile(t, path, content)
			_, err := New(path).Load(context.Background())
			assert.True(t, errors.Is(err, device.ErrCorruptSnapshot), "got %v", err)
		})
	}
}

func TestDefaultHome(t *testing.T) {
	snap, err := DefaultHome()
	require.NoError(t, err)

	reg := device.NewRegistry(nil)
	require.NoError(t, reg.Replace(snap))
	assert.Equal(t, []string{"entrance", "garage", "kitchen", "living_room", "master_bedroom"}, reg.Rooms())
	for _, typ := range device.Types {
		assert.NotEmpty(t, reg.ListByType(typ), "demo home has no %s", typ)
	}
}

func TestSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "devices.json")

	wrote, err := Seed(path)
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = Seed(path)
	require.NoError(t, err)
	assert.False(t, wrote, "existing documents are never overwritten")
}

func TestWatcher_ReloadsOnExternalWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "devices.json")
	_, err := Seed(path)
	require.NoError(t, err)

	store := New(path)
	reg, err := device.Open(context.Background(), store)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWatcher(path, reg.Reload)
	w.SetDebounce(20 * time.Millisecond)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(50 * time.Millisecond)

	other, err := device.Open(context.Background(), store)
	require.NoError(t, err)
	other.UpdateState("lock_front_door", device.State{"locked": false})
	require.NoError(t, other.Save(context.Background()))

	assert.Eventually(t, func() bool {
		d, err := reg.Get("lock_front_door")
		return err == nil && !d.Locked()
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
