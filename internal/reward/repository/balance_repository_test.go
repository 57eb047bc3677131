package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"owatch_service/internal/reward/domain"
	"owatch_service/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKV 是 KVStore 的 Mock
type MockKV struct {
	mock.Mock
}

func (m *MockKV) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockKV) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockKV) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	args := m.Called(ctx, key, delta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockKV) Close() error { return nil }

func TestBalanceRepository(t *testing.T) {
	ctx := context.Background()
	kv := database.NewMemoryKV()
	repo := NewBalanceRepository(kv, "")

	t.Run("absent key reads zero", func(t *testing.T) {
		b, err := repo.Load(ctx, "0xABC")
		require.NoError(t, err)
		assert.Equal(t, int64(0), b)
	})

	t.Run("claim 10 on 0 for 0xABC", func(t *testing.T) {
		b, err := repo.Add(ctx, "0xABC", 10)
		require.NoError(t, err)
		assert.Equal(t, int64(10), b)

		raw, found, err := kv.Get(ctx, "owatch_balance_0xABC")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "10", raw)
	})

	t.Run("addresses are independent", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, "0xDEF", 7))
		_, err := repo.Add(ctx, "0xABC", 5)
		require.NoError(t, err)

		a, _ := repo.Load(ctx, "0xABC")
		d, _ := repo.Load(ctx, "0xDEF")
		assert.Equal(t, int64(15), a)
		assert.Equal(t, int64(7), d)
	})

	t.Run("corrupt value", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "owatch_balance_0xBAD", "ten"))
		_, err := repo.Load(ctx, "0xBAD")
		assert.ErrorIs(t, err, domain.ErrCorruptBalance)
	})

	t.Run("custom prefix", func(t *testing.T) {
		r := NewBalanceRepository(kv, "test_")
		require.NoError(t, r.Save(ctx, "0x1", 3))
		raw, _, _ := kv.Get(ctx, "test_0x1")
		assert.Equal(t, "3", raw)
	})
}

func TestBalanceRepositoryStorageErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("storage unavailable")

	t.Run("load failure", func(t *testing.T) {
		kv := new(MockKV)
		kv.On("Get", ctx, "owatch_balance_0xA").Return("", false, boom).Once()

		_, err := NewBalanceRepository(kv, "").Load(ctx, "0xA")
		assert.ErrorIs(t, err, boom)
		kv.AssertExpectations(t)
	})

	t.Run("add failure", func(t *testing.T) {
		kv := new(MockKV)
		kv.On("IncrBy", ctx, "owatch_balance_0xA", int64(1)).Return(int64(0), boom).Once()

		_, err := NewBalanceRepository(kv, "").Add(ctx, "0xA", 1)
		assert.ErrorIs(t, err, boom)
		kv.AssertExpectations(t)
		kv.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
		kv.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("add on corrupt value", func(t *testing.T) {
		kv := new(MockKV)
		kv.On("IncrBy", ctx, "owatch_balance_0xA", int64(1)).
			Return(int64(0), fmt.Errorf("key owatch_balance_0xA: %w", database.ErrNotInteger)).Once()

		_, err := NewBalanceRepository(kv, "").Add(ctx, "0xA", 1)
		assert.ErrorIs(t, err, domain.ErrCorruptBalance)
	})
}

func TestConcurrentAddSameAddress(t *testing.T) {
	ctx := context.Background()
	repo := NewBalanceRepository(database.NewMemoryKV(), "")

	const claims = 50
	var wg sync.WaitGroup
	for i := 0; i < claims; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Add(ctx, "0xABC", 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	b, err := repo.Load(ctx, "0xABC")
	require.NoError(t, err)
	assert.Equal(t, int64(claims*10), b)
}
