package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"owatch_service/internal/reward/domain"
	"owatch_service/pkg/database"
)

// BalanceRepository reward balance keyed by wallet address
type BalanceRepository interface {
	Load(ctx context.Context, address string) (int64, error)
	Save(ctx context.Context, address string, balance int64) error
	Add(ctx context.Context, address string, delta int64) (int64, error)
}

type balanceRepository struct {
	kv     database.KVStore
	prefix string
}

// NewBalanceRepository create a BalanceRepository over kv; an empty prefix uses owatch_balance_
func NewBalanceRepository(kv database.KVStore, prefix string) BalanceRepository {
	if prefix == "" {
		prefix = domain.DefaultBalanceKeyPrefix
	}
	return &balanceRepository{kv: kv, prefix: prefix}
}

// Load returns the stored balance, absent keys read as zero
func (r *balanceRepository) Load(ctx context.Context, address string) (int64, error) {
	key := domain.BalanceKey(r.prefix, address)
	raw, found, err := r.kv.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("load balance %s: %w", key, err)
	}
	if !found {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("key %s value %q: %w", key, raw, domain.ErrCorruptBalance)
	}
	return v, nil
}

// Save stores balance as a base-10 string, last write wins
func (r *balanceRepository) Save(ctx context.Context, address string, balance int64) error {
	key := domain.BalanceKey(r.prefix, address)
	if err := r.kv.Set(ctx, key, strconv.FormatInt(balance, 10)); err != nil {
		return fmt.Errorf("save balance %s: %w", key, err)
	}
	return nil
}

// Add 以 KVStore.IncrBy 原子加總
func (r *balanceRepository) Add(ctx context.Context, address string, delta int64) (int64, error) {
	key := domain.BalanceKey(r.prefix, address)
	next, err := r.kv.IncrBy(ctx, key, delta)
	if errors.Is(err, database.ErrNotInteger) {
		return 0, fmt.Errorf("key %s: %w", key, domain.ErrCorruptBalance)
	}
	if err != nil {
		return 0, fmt.Errorf("add balance %s: %w", key, err)
	}
	return next, nil
}
