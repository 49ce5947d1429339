package db

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNoActiveProfile = errors.New("no active profile found")

// Config is the runtime configuration of the active profile.
type Config struct {
	Profile   *Profile
	APIServer *APIServer
	Settings  Settings
}

// APIAddress returns the API server listen address.
func (c *Config) APIAddress() string {
	if c.APIServer == nil {
		return "0.0.0.0:8080"
	}
	return c.APIServer.Address()
}

// Timezone returns the profile timezone.
func (c *Config) Timezone() string {
	if c.Profile == nil {
		return "UTC"
	}
	return c.Profile.Timezone
}

// Location returns the profile's time zone for the clock tools.
func (c *Config) Location() *time.Location {
	if c.Profile == nil {
		return time.UTC
	}
	return c.Profile.Location()
}

// ActiveConfig loads the configuration of the active profile. Missing
// listener or settings rows fall back to defaults.
func (db *DB) ActiveConfig(ctx context.Context) (*Config, error) {
	profile, err := db.Profiles().GetActive(ctx)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrNoActiveProfile
		}
		return nil, fmt.Errorf("failed to get active profile: %w", err)
	}

	config := &Config{Profile: profile, Settings: DefaultSettings()}
	config.Settings.ProfileID = profile.ID

	apiServer, err := db.APIServers().Get(ctx, profile.ID)
	if err != nil && !errors.Is(err, ErrAPIServerNotFound) {
		return nil, fmt.Errorf("failed to get API server config: %w", err)
	}
	config.APIServer = apiServer

	settings, err := db.Settings().Get(ctx, profile.ID)
	switch {
	case err == nil:
		config.Settings = *settings
	case !errors.Is(err, ErrSettingsNotFound):
		return nil, fmt.Errorf("failed to get assistant settings: %w", err)
	}

	return config, nil
}
