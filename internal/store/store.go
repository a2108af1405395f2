// Package store provides takeaway.Store backends: in-process memory,
// SQLite, PostgreSQL and Redis.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/evcraddock/safety-report/internal/takeaway"
)

// Kinds of backend accepted by Open.
const (
	KindMemory   = "memory"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindRedis    = "redis"
)

// Backend is a takeaway store that may hold a connection.
type Backend interface {
	takeaway.Store
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Kind        string
	SQLite      *sql.DB
	PostgresDSN string
	RedisURL    string
	RedisPrefix string
}

// Open returns the backend named by cfg.Kind.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch strings.ToLower(cfg.Kind) {
	case KindMemory:
		return NewMemory(), nil
	case KindSQLite, "":
		if cfg.SQLite == nil {
			return nil, fmt.Errorf("sqlite store requires an open database")
		}
		return NewSQLite(cfg.SQLite), nil
	case KindPostgres:
		p, err := OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindRedis:
		r, err := OpenRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown store %q: must be memory, sqlite, postgres, or redis", cfg.Kind)
	}
}

func encodeList(items []string) ([]byte, error) {
	if items == nil {
		items = []string{}
	}
	return json.Marshal(items)
}

func decodeList(data []byte) ([]string, error) {
	items := []string{}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}

func validatePut(key string, t *takeaway.Takeaway) error {
	if key == "" {
		return fmt.Errorf("subject key is required")
	}
	if t == nil {
		return fmt.Errorf("takeaway is nil")
	}
	return nil
}
