package settings

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Scopes used by SQLiteStore.
const (
	ScopeLocal  = "local"
	ScopeGlobal = "global"
)

// Store loads and saves a settings bag.
type Store interface {
	Load(ctx context.Context) (Bag, error)
	Save(ctx context.Context, bag Bag) error
}

// SQLiteStore keeps a bag in the settings table under one scope.
type SQLiteStore struct {
	db    *sql.DB
	scope string
}

// NewSQLiteStore returns a store for scope.
func NewSQLiteStore(db *sql.DB, scope string) *SQLiteStore {
	return &SQLiteStore{db: db, scope: scope}
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) (Bag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value
		FROM settings
		WHERE scope = ?
	`, s.scope)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	bag := Bag{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		bag[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}

	return bag.Filter(), nil
}

// Save implements Store. Keys outside the persistent set are dropped.
func (s *SQLiteStore) Save(ctx context.Context, bag Bag) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings transaction: %w", err)
	}

	for key, value := range bag.Filter() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings (scope, key, value, updated_at)
			VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(scope, key) DO UPDATE SET
				value = excluded.value,
				updated_at = CURRENT_TIMESTAMP
		`, s.scope, key, value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings transaction: %w", err)
	}
	return nil
}

// RedisStore keeps a bag in a redis hash shared by every device.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore returns a store writing to the hash at key.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "settings:global"
	}
	return &RedisStore{client: client, key: key}
}

// Load implements Store. A missing hash loads as an empty bag.
func (s *RedisStore) Load(ctx context.Context) (Bag, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", s.key, err)
	}
	return Bag(values).Filter(), nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, bag Bag) error {
	filtered := bag.Filter()
	if len(filtered) == 0 {
		return nil
	}
	values := make(map[string]any, len(filtered))
	for k, v := range filtered {
		values[k] = v
	}
	if err := s.client.HSet(ctx, s.key, values).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", s.key, err)
	}
	return nil
}
