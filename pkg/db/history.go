package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/urmzd/homeagent/pkg/history"
)

// HistoryJournal persists command history entries of one profile.
type HistoryJournal struct {
	db        *DB
	profileID int64
}

var _ history.Sink = (*HistoryJournal)(nil)

// History returns the command journal of a profile.
func (db *DB) History(profileID int64) *HistoryJournal {
	return &HistoryJournal{db: db, profileID: profileID}
}

func (j *HistoryJournal) Append(ctx context.Context, e history.Entry) error {
	devices, err := json.Marshal(e.Devices)
	if err != nil {
		return err
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO command_history (id, profile_id, ts, command, devices, action, success)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, j.profileID, e.Timestamp.UTC().Format(time.RFC3339Nano), e.Command, string(devices), e.Action, e.Success)
	if err != nil {
		return fmt.Errorf("failed to append history entry: %w", err)
	}
	return nil
}

// Recent returns the last n entries, oldest first.
func (j *HistoryJournal) Recent(ctx context.Context, n int) ([]history.Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, ts, command, devices, action, success FROM (
			SELECT rowid AS seq, id, ts, command, devices, action, success
			FROM command_history WHERE profile_id = ?
			ORDER BY seq DESC LIMIT ?
		) ORDER BY seq
	`, j.profileID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []history.Entry
	for rows.Next() {
		var e history.Entry
		var ts, devices string
		if err := rows.Scan(&e.ID, &ts, &e.Command, &devices, &e.Action, &e.Success); err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		if err := json.Unmarshal([]byte(devices), &e.Devices); err != nil {
			return nil, fmt.Errorf("entry %s: invalid devices: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Clear removes the profile's journal.
func (j *HistoryJournal) Clear(ctx context.Context) error {
	_, err := j.db.ExecContext(ctx, `DELETE FROM command_history WHERE profile_id = ?`, j.profileID)
	return err
}
