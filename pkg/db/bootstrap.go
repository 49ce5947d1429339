package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
)

// Bootstrap creates the default profile, listener and assistant settings on
// first run. It does nothing once any profile exists.
func (db *DB) Bootstrap(ctx context.Context) error {
	needed, err := db.NeedsBootstrap(ctx)
	if err != nil {
		return fmt.Errorf("failed to check profiles: %w", err)
	}
	if !needed {
		return nil
	}

	timezone := detectTimezone()
	defaults := DefaultSettings()

	err = db.Tx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO profiles (name, timezone, is_active) VALUES (?, ?, 1)
		`, "default", timezone)
		if err != nil {
			return fmt.Errorf("failed to create default profile: %w", err)
		}
		profileID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get profile ID: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO api_servers (profile_id, host, port) VALUES (?, '0.0.0.0', 8080)
		`, profileID); err != nil {
			return fmt.Errorf("failed to create default API server: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO assistant_settings (profile_id, backend, model, host, timeout_ms, max_steps, mode, memory_limit)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, profileID, defaults.Backend, defaults.Model, defaults.Host, defaults.Timeout.Milliseconds(),
			defaults.MaxSteps, defaults.Mode, defaults.MemoryLimit); err != nil {
			return fmt.Errorf("failed to create default assistant settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("timezone", timezone).Str("path", db.path).Msg("bootstrapped default profile")
	return nil
}

// NeedsBootstrap reports whether the database has no profile yet.
func (db *DB) NeedsBootstrap(ctx context.Context) (bool, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

// detectTimezone asks the OS for its zone name, falling back to TZ and then UTC.
func detectTimezone() string {
	if tz := os.Getenv("TZ"); tz != "" {
		return tz
	}

	switch runtime.GOOS {
	case "darwin":
		out, err := exec.Command("systemsetup", "-gettimezone").Output()
		if err == nil {
			if _, zone, ok := strings.Cut(string(out), ": "); ok {
				return strings.TrimSpace(zone)
			}
		}
	case "linux":
		out, err := exec.Command("timedatectl", "show", "--property=Timezone", "--value").Output()
		if err == nil && len(strings.TrimSpace(string(out))) > 0 {
			return strings.TrimSpace(string(out))
		}
		if data, err := os.ReadFile("/etc/timezone"); err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	if link, err := os.Readlink("/etc/localtime"); err == nil {
		if _, zone, ok := strings.Cut(link, "zoneinfo/"); ok {
			return zone
		}
	}
	return "UTC"
}
