// Package sqlite persists stored responses in a SQLite file so fallback
// entries survive process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	pr "github.com/unkn0wn-root/cachefetch/provider"
)

const schema = `CREATE TABLE IF NOT EXISTS responses (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL
)`

// Provider is a byte store over a single SQLite table.
// expires_at holds unix nanos; 0 means no expiry.
type Provider struct {
	db *sql.DB
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	// Path of the database file. ":memory:" keeps everything in process.
	Path string
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, err
	}
	// one connection: serializes writers and keeps ":memory:" a single database
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Provider{db: db}, nil
}

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value   []byte
		expires int64
	)
	err := p.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM responses WHERE key = ?", key).Scan(&value, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if expires != 0 && time.Now().UnixNano() > expires {
		_ = p.Del(ctx, key)
		return nil, false, nil
	}
	return value, true, nil
}

func (p *Provider) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var expires int64
	if ttl > 0 {
		expires = time.Now().Add(ttl).UnixNano()
	}
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO responses (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expires)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Del(ctx context.Context, key string) error {
	_, err := p.db.ExecContext(ctx, "DELETE FROM responses WHERE key = ?", key)
	return err
}

// Sweep removes expired rows and reports how many were deleted.
func (p *Provider) Sweep(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx,
		"DELETE FROM responses WHERE expires_at != 0 AND expires_at < ?", time.Now().UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (p *Provider) Close(_ context.Context) error {
	return p.db.Close()
}
