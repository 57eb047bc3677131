package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
)

// ErrNotInteger the stored value cannot be incremented
var ErrNotInteger = errors.New("value is not an integer")

// KVStore is a process-external key/value store.
// Get reports found=false for absent keys. IncrBy is atomic per key: an absent
// key starts at zero and the new value is returned.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)
	Close() error
}

// MemoryKV in-memory KVStore
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV create a MemoryKV
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: map[string]string{}}
}

// Get returns the stored value for key
func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set stores value under key, last write wins
func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// IncrBy 在寫鎖內讀取並加上 delta
func (m *MemoryKV) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var current int64
	if raw, ok := m.data[key]; ok {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("key %s value %q: %w", key, raw, ErrNotInteger)
		}
		current = v
	}
	next := current + delta
	m.data[key] = strconv.FormatInt(next, 10)
	return next, nil
}

// Close is a no-op
func (m *MemoryKV) Close() error { return nil }
