package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrSettingsNotFound = errors.New("assistant settings not found")

// Settings configures the assistant of a profile.
type Settings struct {
	ProfileID   int64
	Backend     string // ollama, gemini or none
	Model       string
	Host        string
	Timeout     time.Duration
	MaxSteps    int
	Mode        string // agent, direct or rules
	MemoryLimit int    // conversation messages kept for prompts
	DevicesPath string // JSON device document; empty keeps devices in this database
	MQTTBroker  string
	UpdatedAt   time.Time
}

// DefaultSettings mirrors the column defaults of assistant_settings.
func DefaultSettings() Settings {
	return Settings{
		Backend:     "ollama",
		Model:       "llama3.2",
		Host:        "http://localhost:11434",
		Timeout:     60 * time.Second,
		MaxSteps:    6,
		Mode:        "agent",
		MemoryLimit: 50,
	}
}

// SettingsStore reads and writes assistant settings.
type SettingsStore interface {
	Get(ctx context.Context, profileID int64) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}

// Settings returns a SettingsStore for this database.
func (db *DB) Settings() SettingsStore {
	return &settingsStore{db: db}
}

type settingsStore struct {
	db *DB
}

func (st *settingsStore) Get(ctx context.Context, profileID int64) (*Settings, error) {
	s := &Settings{ProfileID: profileID}
	var timeoutMS int64
	var updatedAt string
	err := st.db.QueryRowContext(ctx, `
		SELECT backend, model, host, timeout_ms, max_steps, mode, memory_limit,
		       devices_path, mqtt_broker, updated_at
		FROM assistant_settings WHERE profile_id = ?
	`, profileID).Scan(&s.Backend, &s.Model, &s.Host, &timeoutMS, &s.MaxSteps, &s.Mode,
		&s.MemoryLimit, &s.DevicesPath, &s.MQTTBroker, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Timeout = time.Duration(timeoutMS) * time.Millisecond
	s.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	return s, nil
}

func (st *settingsStore) Save(ctx context.Context, s *Settings) error {
	if s.MaxSteps < 1 {
		return fmt.Errorf("max steps must be at least 1, got %d", s.MaxSteps)
	}
	if s.MemoryLimit < 0 {
		return fmt.Errorf("memory limit must not be negative, got %d", s.MemoryLimit)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", s.Timeout)
	}
	_, err := st.db.ExecContext(ctx, `
		INSERT INTO assistant_settings (profile_id, backend, model, host, timeout_ms, max_steps,
			mode, memory_limit, devices_path, mqtt_broker)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET
			backend = excluded.backend, model = excluded.model, host = excluded.host,
			timeout_ms = excluded.timeout_ms, max_steps = excluded.max_steps, mode = excluded.mode,
			memory_limit = excluded.memory_limit, devices_path = excluded.devices_path,
			mqtt_broker = excluded.mqtt_broker, updated_at = datetime('now')
	`, s.ProfileID, s.Backend, s.Model, s.Host, s.Timeout.Milliseconds(), s.MaxSteps,
		s.Mode, s.MemoryLimit, s.DevicesPath, s.MQTTBroker)
	if err != nil {
		return fmt.Errorf("failed to save assistant settings: %w", err)
	}
	return nil
}
