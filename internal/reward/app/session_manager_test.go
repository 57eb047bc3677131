package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"owatch_service/internal/reward/domain"
	"owatch_service/internal/reward/repository"
	"owatch_service/pkg/database"
	"owatch_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestManager(t *testing.T, ledger repository.ClaimLedger) (SessionManager, *ManualScheduler, *manualClock) {
	t.Helper()
	logger.SetNewNop()
	clock := &manualClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	sched := NewManualScheduler()
	m := NewSessionManager(ManagerConfig{
		Balances:  repository.NewBalanceRepository(database.NewMemoryKV(), ""),
		Ledger:    ledger,
		Scheduler: sched,
		IdleTTL:   10 * time.Minute,
		Now:       clock.now,
	})
	t.Cleanup(m.CloseAll)
	return m, sched, clock
}

func TestSessionsAreIsolated(t *testing.T) {
	m, sched, _ := newTestManager(t, nil)

	a, err := m.Create()
	require.NoError(t, err)
	b, err := m.Create()
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, m.Len())

	require.NoError(t, a.Flow.Select(1))
	sched.Tick(30)

	va, _ := a.Videos.GetByID(1)
	vb, _ := b.Videos.GetByID(1)
	assert.Greater(t, va.Progress, 0.0)
	assert.Equal(t, 0.0, vb.Progress, "catalog copies are per session")
	assert.Equal(t, domain.StateIdle, b.Flow.State())

	assert.Len(t, a.Wallet.Connectors(), 4)
}

func TestGetAndClose(t *testing.T) {
	m, sched, _ := newTestManager(t, nil)
	s, err := m.Create()
	require.NoError(t, err)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, s.Flow.Select(1))
	require.NoError(t, m.Close(s.ID))
	assert.Equal(t, 0, sched.Active(), "close cancels the ticker")

	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, m.Close(s.ID), domain.ErrSessionNotFound)
}

func TestSweepClosesIdleSessions(t *testing.T) {
	m, sched, clock := newTestManager(t, nil)
	idle, _ := m.Create()
	busy, _ := m.Create()
	require.NoError(t, idle.Flow.Select(1))

	clock.advance(6 * time.Minute)
	_, err := m.Get(busy.ID)
	require.NoError(t, err)
	clock.advance(6 * time.Minute)

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, sched.Active())

	_, err = m.Get(idle.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = m.Get(busy.ID)
	assert.NoError(t, err)
}

func TestRunJanitorStopsWithContext(t *testing.T) {
	m, _, _ := newTestManager(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.RunJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestSessionHistory(t *testing.T) {
	ledger := new(MockLedger)
	rows := []domain.ClaimRecord{{Address: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", VideoID: 1, Reward: 10}}
	ledger.On("ListByAddress", mock.Anything, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", 20).Return(rows, nil).Once()

	m, _, _ := newTestManager(t, ledger)
	s, _ := m.Create()

	_, err := s.History(context.Background(), 20)
	assert.ErrorIs(t, err, domain.ErrWalletNotConnected)

	require.NoError(t, s.Wallet.Connect("metaMask"))
	_, err = s.Wallet.Approve("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)

	got, err := s.History(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
	ledger.AssertExpectations(t)
}

func TestCloseAll(t *testing.T) {
	m, sched, _ := newTestManager(t, nil)
	for i := 0; i < 3; i++ {
		s, _ := m.Create()
		require.NoError(t, s.Flow.Select(i+1))
	}
	assert.Equal(t, 3, sched.Active())
	m.CloseAll()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, sched.Active())
}
