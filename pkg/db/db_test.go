package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urmzd/homeagent/pkg/device"
	"github.com/urmzd/homeagent/pkg/device/jsonstore"
	"github.com/urmzd/homeagent/pkg/history"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	t.Setenv("TZ", "America/Toronto")
	db, err := OpenReady(context.Background(), filepath.Join(t.TempDir(), "nested", "homeagent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func activeProfile(t *testing.T, db *DB) *Profile {
	t.Helper()
	p, err := db.Profiles().GetActive(context.Background())
	require.NoError(t, err)
	return p
}

func TestOpenReady_MigratesAndBootstraps(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	version, err := db.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion(), version)

	cfg, err := db.ActiveConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.Profile.Name)
	assert.Equal(t, "America/Toronto", cfg.Timezone())
	assert.Equal(t, "0.0.0.0:8080", cfg.APIAddress())

	want := DefaultSettings()
	want.ProfileID = cfg.Profile.ID
	if diff := cmp.Diff(want, cfg.Settings, cmpopts.IgnoreFields(Settings{}, "UpdatedAt")); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestMigrateAndBootstrap_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Bootstrap(ctx))

	profiles, err := db.Profiles().List(ctx)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestActiveConfig_NoProfile(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Profiles().Delete(ctx, activeProfile(t, db).ID))

	_, err := db.ActiveConfig(ctx)
	assert.ErrorIs(t, err, ErrNoActiveProfile)
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	assert.Equal(t, "0.0.0.0:8080", cfg.APIAddress())
	assert.Equal(t, "UTC", cfg.Timezone())
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestProfiles(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := db.Profiles()

	cabin := &Profile{Name: "cabin", Timezone: "Not/AZone"}
	require.NoError(t, store.Create(ctx, cabin))
	assert.NotZero(t, cabin.ID)
	assert.Equal(t, time.UTC, cabin.Location())

	require.NoError(t, store.SetActive(ctx, cabin.ID))
	active := activeProfile(t, db)
	assert.Equal(t, "cabin", active.Name)

	byName, err := store.GetByName(ctx, "default")
	require.NoError(t, err)
	assert.False(t, byName.IsActive)

	assert.ErrorIs(t, store.SetActive(ctx, 999), ErrProfileNotFound)
	assert.ErrorIs(t, store.Delete(ctx, 999), ErrProfileNotFound)
	_, err = store.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestAPIServers_Upsert(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := activeProfile(t, db)

	require.NoError(t, db.APIServers().Upsert(ctx, &APIServer{ProfileID: p.ID, Host: "127.0.0.1", Port: 9090}))
	got, err := db.APIServers().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", got.Address())

	assert.Error(t, db.APIServers().Upsert(ctx, &APIServer{ProfileID: p.ID, Port: 70000}))

	require.NoError(t, db.APIServers().Delete(ctx, p.ID))
	_, err = db.APIServers().Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrAPIServerNotFound)
}

func TestSettings_Save(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	p := activeProfile(t, db)

	s := DefaultSettings()
	s.ProfileID = p.ID
	s.Backend = "gemini"
	s.Model = "gemini-2.0-flash"
	s.Timeout = 15 * time.Second
	s.MaxSteps = 4
	s.Mode = "direct"
	s.MQTTBroker = "mqtt://localhost:1883"
	require.NoError(t, db.Settings().Save(ctx, &s))

	got, err := db.Settings().Get(ctx, p.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(s, *got, cmpopts.IgnoreFields(Settings{}, "UpdatedAt")); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}

	s.MaxSteps = 0
	assert.Error(t, db.Settings().Save(ctx, &s))
	_, err = db.Settings().Get(ctx, 999)
	assert.ErrorIs(t, err, ErrSettingsNotFound)
}

func TestDeviceStore_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := db.Devices(activeProfile(t, db).ID)

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Devices)

	snap, err := jsonstore.DefaultHome()
	require.NoError(t, err)
	snap.Devices[0].LastUpdated = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, snap))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(snap, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(snap.Devices), n)
}

func TestDeviceStore_BacksRegistry(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := db.Devices(activeProfile(t, db).ID)

	snap, err := jsonstore.DefaultHome()
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, snap))

	reg, err := device.Open(ctx, store)
	require.NoError(t, err)
	require.True(t, reg.UpdateState("lock_front_door", device.State{"locked": false}))
	require.NoError(t, reg.Save(ctx))

	reopened, err := device.Open(ctx, store)
	require.NoError(t, err)
	lock, err := reopened.Get("lock_front_door")
	require.NoError(t, err)
	assert.False(t, lock.Locked())
}

func TestDeviceStore_ProfilesAreIsolated(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	other := &Profile{Name: "cabin", Timezone: "UTC"}
	require.NoError(t, db.Profiles().Create(ctx, other))

	require.NoError(t, db.Devices(other.ID).Save(ctx, &device.Snapshot{
		Devices: []device.Device{{ID: "light_porch", Name: "Porch", Type: device.TypeLight, Room: "porch", State: device.State{"power": "off"}}},
	}))

	got, err := db.Devices(activeProfile(t, db).ID).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Devices)
}

func TestHistoryJournal(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	journal := db.History(activeProfile(t, db).ID)

	l := history.NewLog()
	l.SetSink(journal)
	l.SetClock(func() time.Time { return time.Date(2026, 10, 17, 7, 15, 0, 0, time.UTC) })
	l.Record(ctx, "turn on the kitchen lights", []string{"light_kitchen"}, "control_light", true)
	l.Record(ctx, "lock all doors", []string{"door_bedroom", "lock_front_door"}, "control_door_lock", true)
	l.Record(ctx, "set ac to 40", []string{"ac_living"}, "control_ac", false)

	recent, err := journal.Recent(ctx, 2)
	require.NoError(t, err)
	if diff := cmp.Diff(l.Recent(2), recent); diff != "" {
		t.Errorf("journal mismatch (-want +got):\n%s", diff)
	}

	none, err := journal.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, journal.Clear(ctx))
	all, err := journal.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, all)
}
