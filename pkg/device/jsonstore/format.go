package jsonstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/urmzd/homeagent/pkg/device"
)

// document is the on-disk shape. Two layouts are accepted: "devices" keyed
// by id, and the older "gadgets" list with flat type-specific fields.
type document struct {
	Rooms   []json.RawMessage    `json:"rooms,omitempty"`
	Devices map[string]docDevice `json:"devices,omitempty"`
	Gadgets []map[string]any     `json:"gadgets,omitempty"`
}

type docDevice struct {
	ID          string         `json:"id"`
	Name        string         `json:"name,omitempty"`
	Type        string         `json:"type"`
	Room        string         `json:"room,omitempty"`
	Location    *docLocation   `json:"location,omitempty"`
	State       map[string]any `json:"state"`
	LastUpdated string         `json:"last_updated,omitempty"`
}

type docLocation struct {
	Room string `json:"room"`
}

// encodedDocument is what Save writes.
type encodedDocument struct {
	Rooms   []string             `json:"rooms"`
	Devices map[string]docDevice `json:"devices"`
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"}

func decode(raw []byte) (*device.Snapshot, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", device.ErrCorruptSnapshot, err)
	}
	if doc.Devices == nil && doc.Gadgets == nil {
		return nil, fmt.Errorf("%w: document has neither \"devices\" nor \"gadgets\"", device.ErrCorruptSnapshot)
	}

	snap := &device.Snapshot{}
	for _, r := range doc.Rooms {
		name, err := roomName(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", device.ErrCorruptSnapshot, err)
		}
		snap.Rooms = append(snap.Rooms, name)
	}

	keys := make([]string, 0, len(doc.Devices))
	for k := range doc.Devices {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d := doc.Devices[k]
		if d.ID == "" {
			d.ID = k
		}
		snap.Devices = append(snap.Devices, d.toDevice())
	}

	for i, g := range doc.Gadgets {
		d, err := fromGadget(g)
		if err != nil {
			return nil, fmt.Errorf("%w: gadget %d: %v", device.ErrCorruptSnapshot, i, err)
		}
		snap.Devices = append(snap.Devices, d)
	}
	return snap, nil
}

func encode(snap *device.Snapshot) ([]byte, error) {
	doc := encodedDocument{
		Rooms:   append([]string{}, snap.Rooms...),
		Devices: make(map[string]docDevice, len(snap.Devices)),
	}
	for _, d := range snap.Devices {
		dd := docDevice{
			ID:       d.ID,
			Name:     d.Name,
			Type:     string(d.Type),
			Location: &docLocation{Room: d.Room},
			State:    d.State,
		}
		if dd.State == nil {
			dd.State = map[string]any{}
		}
		if !d.LastUpdated.IsZero() {
			dd.LastUpdated = d.LastUpdated.Format(time.RFC3339Nano)
		}
		doc.Devices[d.ID] = dd
	}
	return json.MarshalIndent(doc, "", "  ")
}

func (d docDevice) toDevice() device.Device {
	room := d.Room
	if d.Location != nil && d.Location.Room != "" {
		room = d.Location.Room
	}
	out := device.Device{
		ID:    d.ID,
		Name:  d.Name,
		Type:  device.Type(d.Type),
		Room:  room,
		State: device.State(d.State),
	}
	if out.State == nil {
		out.State = device.State{}
	}
	out.LastUpdated = parseTime(d.LastUpdated)
	return out
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func roomName(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil || obj.Name == "" {
		return "", fmt.Errorf("room entry %s is neither a name nor an object with a name", raw)
	}
	return obj.Name, nil
}

// gadgetKeys are consumed by fromGadget; everything else is carried into state.
var gadgetKeys = map[string]bool{
	"id": true, "name": true, "type": true, "room": true, "last_updated": true,
	"state": true, "on": true, "temperature": true, "range": true,
	"x": true, "y": true, "icon": true,
}

// fromGadget converts a flat gadget entry ("state" as a color-mode index,
// "on" as a bool, "range" as [min, max]) into the canonical state fields.
func fromGadget(g map[string]any) (device.Device, error) {
	id := cast.ToString(g["id"])
	if id == "" {
		return device.Device{}, fmt.Errorf("missing id")
	}
	d := device.Device{
		ID:    id,
		Name:  cast.ToString(g["name"]),
		Type:  device.Type(cast.ToString(g["type"])),
		Room:  cast.ToString(g["room"]),
		State: device.State{},
	}
	d.LastUpdated = parseTime(cast.ToString(g["last_updated"]))

	for k, v := range g {
		if !gadgetKeys[k] {
			d.State[k] = v
		}
	}

	switch strings.ToLower(string(d.Type)) {
	case "light":
		modes := cast.ToStringSlice(g[device.FieldColorModes])
		idx := cast.ToInt(g["state"])
		mode := device.PowerOff
		if idx >= 0 && idx < len(modes) {
			mode = modes[idx]
		}
		d.State[device.FieldMode] = mode
		d.State[device.FieldPower] = onOff(idx > 0)
	case "ac", "thermostat", "climate":
		d.State[device.FieldPower] = onOff(cast.ToBool(g["on"]))
		if t, ok := g["temperature"]; ok {
			d.State[device.FieldTargetTemp] = cast.ToFloat64(t)
		}
		if rng := cast.ToSlice(g["range"]); len(rng) == 2 {
			d.State[device.FieldMinTemp] = cast.ToFloat64(rng[0])
			d.State[device.FieldMaxTemp] = cast.ToFloat64(rng[1])
		}
	case "tv", "media", "media_player":
		d.State[device.FieldPower] = onOff(cast.ToInt(g[device.FieldChannel]) != 0)
	default:
		if s, ok := g["state"]; ok {
			d.State["state"] = s
		}
		if on, ok := g["on"]; ok {
			d.State[device.FieldPower] = onOff(cast.ToBool(on))
		}
	}
	return d, nil
}

func onOff(on bool) string {
	if on {
		return device.PowerOn
	}
	return device.PowerOff
}
