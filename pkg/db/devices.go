package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/urmzd/homeagent/pkg/device"
)

// DeviceStore is a device.Store over the devices and rooms tables of one
// profile. Save replaces the profile's rows in a single transaction.
type DeviceStore struct {
	db        *DB
	profileID int64
}

var _ device.Store = (*DeviceStore)(nil)

// Devices returns the device store of a profile.
func (db *DB) Devices(profileID int64) *DeviceStore {
	return &DeviceStore{db: db, profileID: profileID}
}

func (s *DeviceStore) Load(ctx context.Context) (*device.Snapshot, error) {
	snap := &device.Snapshot{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, room, state, last_updated
		FROM devices WHERE profile_id = ? ORDER BY position, id
	`, s.profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var d device.Device
		var typ, state string
		var lastUpdated sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &typ, &d.Room, &state, &lastUpdated); err != nil {
			return nil, err
		}
		if d.Type, err = device.ParseType(typ); err != nil {
			return nil, fmt.Errorf("device %s: %w", d.ID, err)
		}
		if err := json.Unmarshal([]byte(state), &d.State); err != nil {
			return nil, fmt.Errorf("device %s: invalid state: %w", d.ID, err)
		}
		if lastUpdated.Valid {
			d.LastUpdated, _ = time.Parse(time.RFC3339Nano, lastUpdated.String)
		}
		snap.Devices = append(snap.Devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	roomRows, err := s.db.QueryContext(ctx, `
		SELECT name FROM rooms WHERE profile_id = ? ORDER BY position, name
	`, s.profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer func() { _ = roomRows.Close() }()

	for roomRows.Next() {
		var name string
		if err := roomRows.Scan(&name); err != nil {
			return nil, err
		}
		snap.Rooms = append(snap.Rooms, name)
	}
	return snap, roomRows.Err()
}

func (s *DeviceStore) Save(ctx context.Context, snap *device.Snapshot) error {
	return s.db.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM devices WHERE profile_id = ?`, s.profileID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE profile_id = ?`, s.profileID); err != nil {
			return err
		}

		for i, d := range snap.Devices {
			state, err := json.Marshal(d.State.Clone())
			if err != nil {
				return fmt.Errorf("device %s: failed to encode state: %w", d.ID, err)
			}
			var lastUpdated any
			if !d.LastUpdated.IsZero() {
				lastUpdated = d.LastUpdated.UTC().Format(time.RFC3339Nano)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO devices (id, profile_id, name, type, room, state, position, last_updated)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, d.ID, s.profileID, d.Name, string(d.Type), d.Room, string(state), i, lastUpdated)
			if err != nil {
				return fmt.Errorf("failed to save device %s: %w", d.ID, err)
			}
		}

		for i, room := range snap.Rooms {
			_, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO rooms (profile_id, name, position) VALUES (?, ?, ?)
			`, s.profileID, room, i)
			if err != nil {
				return fmt.Errorf("failed to save room %s: %w", room, err)
			}
		}
		return nil
	})
}

// Count returns how many devices the profile has.
func (s *DeviceStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM devices WHERE profile_id = ?`, s.profileID).Scan(&n)
	return n, err
}
