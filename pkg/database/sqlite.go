package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	errprocess "owatch_service/pkg/err"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteKV 以 SQLite 檔案實作 KVStore
type sqliteKV struct {
	db *sql.DB
}

// NewSQLiteKV opens (or creates) the database file and runs the kv migration
func NewSQLiteKV(path string) (KVStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errprocess.Wrap(fmt.Sprintf("建立 sqlite 目錄失敗 dir[%s]", dir), err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errprocess.Wrap(fmt.Sprintf("開啟 sqlite 失敗 path[%s]", path), err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	s := &sqliteKV{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *sqliteKV) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return errprocess.Wrap("kv 資料表遷移失敗", err)
	}
	return nil
}

func (s *sqliteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *sqliteKV) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv(key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("set key %s: %w", key, err)
	}
	return nil
}

// IncrBy 單一 upsert 完成加總; a non-integer value leaves the row untouched
func (s *sqliteKV) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO kv(key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = CAST(CAST(value AS INTEGER) + CAST(excluded.value AS INTEGER) AS TEXT),
			updated_at = CURRENT_TIMESTAMP
		WHERE CAST(CAST(value AS INTEGER) AS TEXT) = value
		RETURNING value`,
		key, strconv.FormatInt(delta, 10)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("incr key %s: %w", key, ErrNotInteger)
	}
	if err != nil {
		return 0, fmt.Errorf("incr key %s: %w", key, err)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("incr key %s value %q: %w", key, raw, ErrNotInteger)
	}
	return v, nil
}

func (s *sqliteKV) Close() error {
	return s.db.Close()
}
