package device

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Registry is the in-memory collection of devices. It owns every Device
// exclusively: readers receive copies, and the only way to mutate state is
// UpdateState.
//
// The mutex protects the map itself. It provides no transactional guarantees:
// concurrent updates to the same field of the same device race, and the last
// writer wins without detection of the lost update.
type Registry struct {
	mu        sync.RWMutex
	devices   map[string]*Device
	order     []string
	rooms     []string
	store     Store
	now       func() time.Time
	observers []func(Change)
}

// NewRegistry creates an empty registry backed by store. store may be nil, in
// which case Reload and Save are no-ops.
func NewRegistry(store Store) *Registry {
	return &Registry{
		devices: make(map[string]*Device),
		store:   store,
		now:     time.Now,
	}
}

// Open creates a registry and performs the initial load. A store that cannot
// be read is a startup failure.
func Open(ctx context.Context, store Store) (*Registry, error) {
	r := NewRegistry(store)
	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// SetClock overrides the timestamp source used for last_updated.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// Subscribe registers fn to be called after every successful UpdateState.
// Callbacks run synchronously on the mutating goroutine, outside the lock.
func (r *Registry) Subscribe(fn func(Change)) {
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}

// Replace swaps the registry contents for snap.
func (r *Registry) Replace(snap *Snapshot) error {
	devices := make(map[string]*Device, len(snap.Devices))
	order := make([]string, 0, len(snap.Devices))
	rooms := make([]string, 0, len(snap.Rooms))

	for i := range snap.Devices {
		d := snap.Devices[i].Clone()
		if d.ID == "" {
			return fmt.Errorf("%w: device at index %d has no id", ErrCorruptSnapshot, i)
		}
		if _, dup := devices[d.ID]; dup {
			return fmt.Errorf("%w: duplicate device id %q", ErrCorruptSnapshot, d.ID)
		}
		t, err := ParseType(string(d.Type))
		if err != nil {
			return fmt.Errorf("%w: device %q: %v", ErrCorruptSnapshot, d.ID, err)
		}
		d.Type = t
		d.Room = CanonicalRoom(d.Room)
		devices[d.ID] = &d
		order = append(order, d.ID)
		if d.Room != "" && !slices.Contains(rooms, d.Room) {
			rooms = append(rooms, d.Room)
		}
	}
	for _, room := range snap.Rooms {
		if c := CanonicalRoom(room); c != "" && !slices.Contains(rooms, c) {
			rooms = append(rooms, c)
		}
	}
	sort.Strings(rooms)

	r.mu.Lock()
	r.devices = devices
	r.order = order
	r.rooms = rooms
	r.mu.Unlock()
	return nil
}

// Reload re-reads the store. Callers invoke it before acting on a command so
// that writes made by another process are visible.
func (r *Registry) Reload(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	snap, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load devices: %w", err)
	}
	return r.Replace(snap)
}

// Save writes the current contents to the store.
func (r *Registry) Save(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	return r.store.Save(ctx, r.Snapshot())
}

// Snapshot returns a deep copy of the registry contents.
func (r *Registry) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := &Snapshot{
		Devices: make([]Device, 0, len(r.order)),
		Rooms:   append([]string(nil), r.rooms...),
	}
	for _, id := range r.order {
		snap.Devices = append(snap.Devices, r.devices[id].Clone())
	}
	return snap
}

// Get returns a copy of the device with the given id.
func (r *Registry) Get(id string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c := d.Clone()
	return &c, nil
}

// List returns every device in load order.
func (r *Registry) List() []Device {
	return r.filter(func(*Device) bool { return true })
}

// ListByRoom returns the devices whose canonical room equals room (case-insensitive).
func (r *Registry) ListByRoom(room string) []Device {
	want := CanonicalRoom(room)
	return r.filter(func(d *Device) bool { return d.Room == want })
}

// ListByType returns the devices of the given type.
func (r *Registry) ListByType(t Type) []Device {
	return r.filter(func(d *Device) bool { return d.Type == t })
}

// Rooms returns the sorted canonical room names.
func (r *Registry) Rooms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.rooms...)
}

// MatchRoom resolves free text against the registry's rooms.
func (r *Registry) MatchRoom(text string) (string, bool) {
	return MatchRoom(text, r.Rooms())
}

// Len returns the number of devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// UpdateState merges patch into the device's state field by field and stamps
// last_updated. It returns false when id is unknown; callers must check it.
func (r *Registry) UpdateState(id string, patch State) bool {
	r.mu.Lock()
	d, ok := r.devices[id]
	if !ok {
		r.mu.Unlock()
		log.Debug().Str("device", id).Msg("update for unknown device ignored")
		return false
	}
	if d.State == nil {
		d.State = State{}
	}
	for k, v := range patch {
		d.State[k] = v
	}
	d.LastUpdated = r.now()
	change := Change{
		DeviceID: d.ID,
		Type:     d.Type,
		Room:     d.Room,
		Patch:    patch.Clone(),
		State:    d.State.Clone(),
		At:       d.LastUpdated,
	}
	observers := slices.Clone(r.observers)
	r.mu.Unlock()

	for _, fn := range observers {
		fn(change)
	}
	return true
}

func (r *Registry) filter(keep func(*Device) bool) []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Device
	for _, id := range r.order {
		d := r.devices[id]
		if keep(d) {
			out = append(out, d.Clone())
		}
	}
	return out
}

// Describe renders a short human-readable status for a device.
func Describe(d *Device) string {
	switch d.Type {
	case TypeLight:
		if !d.IsOn() {
			return "off"
		}
		return "on, " + d.Mode()
	case TypeThermostat, TypeAC:
		status := strings.ToUpper(d.Power())
		if t, ok := d.TargetTemperature(); ok {
			status += fmt.Sprintf(", %g°C", t)
		}
		return status
	case TypeTV:
		return fmt.Sprintf("channel %d: %s", d.Channel(), d.ChannelName())
	case TypeLock:
		if d.Locked() {
			return "locked"
		}
		return "unlocked"
	default:
		return d.Power()
	}
}
