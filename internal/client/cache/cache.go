// Package cache implements the local durable cache: the last-known-good
// snapshot of notes, categories, quick actions and settings, stored as
// JSON-encoded collections in a small SQLite key-value table, plus the
// last-successful-sync marker.
//
// The cache is a best-effort convenience layer. Load returns the zero value
// for missing keys, and callers are expected to treat Save failures as
// non-fatal (log and keep the in-memory state authoritative).
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/ovasilenko/jotkeeper/internal/client/migrations"
	"github.com/ovasilenko/jotkeeper/internal/client/models"
	"github.com/ovasilenko/jotkeeper/internal/dbx"
)

// Collection keys. These are the stable addresses of the persisted state.
const (
	KeyNotes        = "notes"
	KeyCategories   = "categories"
	KeyQuickActions = "quickActions"
	KeySettings     = "settings"
	KeyLastSync     = "lastSync"
)

// Cache is a key-value persistence layer over a SQLite database.
type Cache struct {
	db dbx.DBTX
}

// New returns a Cache bound to the given DBTX.
func New(db dbx.DBTX) *Cache {
	return &Cache{db: db}
}

// RunMigrations applies the embedded cache schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the cache database at dsn and applies
// migrations. The modernc.org/sqlite driver must be registered by the caller.
func Open(ctx context.Context, dsn string) (*Cache, *sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache db: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to migrate cache db: %w", err)
	}
	return New(db), db, nil
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.db.QueryRowContext(ctx, `SELECT value FROM cache WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache[%s]: %w", key, err)
	}
	return value, nil
}

func (c *Cache) set(ctx context.Context, key string, value []byte) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO cache (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set cache[%s]: %w", key, err)
	}
	return nil
}

func loadJSON[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var out T
	data, err := c.get(ctx, key)
	if err != nil || data == nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to decode cache[%s]: %w", key, err)
	}
	return out, nil
}

func saveJSON(ctx context.Context, c *Cache, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache[%s]: %w", key, err)
	}
	return c.set(ctx, key, data)
}

// LoadNotes returns the cached note collection, nil if never saved.
func (c *Cache) LoadNotes(ctx context.Context) ([]models.Note, error) {
	return loadJSON[[]models.Note](ctx, c, KeyNotes)
}

// SaveNotes persists the note collection.
func (c *Cache) SaveNotes(ctx context.Context, notes []models.Note) error {
	return saveJSON(ctx, c, KeyNotes, notes)
}

// LoadCategories returns the cached category collection, nil if never saved.
func (c *Cache) LoadCategories(ctx context.Context) ([]models.Category, error) {
	return loadJSON[[]models.Category](ctx, c, KeyCategories)
}

// SaveCategories persists the category collection.
func (c *Cache) SaveCategories(ctx context.Context, cats []models.Category) error {
	return saveJSON(ctx, c, KeyCategories, cats)
}

// LoadQuickActions returns the cached quick-action collection, nil if never saved.
func (c *Cache) LoadQuickActions(ctx context.Context) ([]models.QuickAction, error) {
	return loadJSON[[]models.QuickAction](ctx, c, KeyQuickActions)
}

// SaveQuickActions persists the quick-action collection.
func (c *Cache) SaveQuickActions(ctx context.Context, actions []models.QuickAction) error {
	return saveJSON(ctx, c, KeyQuickActions, actions)
}

// LoadSettings returns the cached settings record (zero value if never saved).
func (c *Cache) LoadSettings(ctx context.Context) (models.Settings, error) {
	return loadJSON[models.Settings](ctx, c, KeySettings)
}

// SaveSettings persists the settings record, including its LastUpdated clock.
func (c *Cache) SaveSettings(ctx context.Context, s models.Settings) error {
	return saveJSON(ctx, c, KeySettings, s)
}

// LastSync returns the timestamp (millis) of the last successful sync, or 0.
func (c *Cache) LastSync(ctx context.Context) (int64, error) {
	data, err := c.get(ctx, KeyLastSync)
	if err != nil || data == nil {
		return 0, err
	}
	ts, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to decode cache[%s]: %w", KeyLastSync, err)
	}
	return ts, nil
}

// SetLastSync records the timestamp (millis) of the last successful sync.
func (c *Cache) SetLastSync(ctx context.Context, ts int64) error {
	return c.set(ctx, KeyLastSync, []byte(strconv.FormatInt(ts, 10)))
}
