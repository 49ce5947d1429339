package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

var ErrAPIServerNotFound = errors.New("api server config not found")

// APIServer is the HTTP listener of a profile.
type APIServer struct {
	ID        int64
	ProfileID int64
	Host      string
	Port      int
	CreatedAt time.Time
}

// Address returns the listen address (host:port).
func (a *APIServer) Address() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// APIServerStore reads and writes listener configuration.
type APIServerStore interface {
	Get(ctx context.Context, profileID int64) (*APIServer, error)
	Upsert(ctx context.Context, a *APIServer) error
	Delete(ctx context.Context, profileID int64) error
}

// APIServers returns an APIServerStore for this database.
func (db *DB) APIServers() APIServerStore {
	return &apiServerStore{db: db}
}

type apiServerStore struct {
	db *DB
}

func (s *apiServerStore) Get(ctx context.Context, profileID int64) (*APIServer, error) {
	a := &APIServer{}
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, profile_id, host, port, created_at
		FROM api_servers WHERE profile_id = ?
	`, profileID).Scan(&a.ID, &a.ProfileID, &a.Host, &a.Port, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAPIServerNotFound
	}
	if err != nil {
		return nil, err
	}
	a.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	return a, nil
}

// Upsert writes the listener for a.ProfileID, replacing any existing one.
func (s *apiServerStore) Upsert(ctx context.Context, a *APIServer) error {
	if a.Port <= 0 || a.Port > 65535 {
		return fmt.Errorf("invalid port %d", a.Port)
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO api_servers (profile_id, host, port)
		VALUES (?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET host = excluded.host, port = excluded.port
		RETURNING id
	`, a.ProfileID, a.Host, a.Port).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to save API server config: %w", err)
	}
	return nil
}

func (s *apiServerStore) Delete(ctx context.Context, profileID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM api_servers WHERE profile_id = ?`, profileID)
	if err != nil {
		return err
	}
	return requireRow(result, ErrAPIServerNotFound)
}
