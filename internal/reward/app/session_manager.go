package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	catalogrepo "owatch_service/internal/catalog/repository"
	"owatch_service/internal/reward/domain"
	"owatch_service/internal/reward/repository"
	walletapp "owatch_service/internal/wallet/app"
	"owatch_service/pkg/config"
	errprocess "owatch_service/pkg/err"
	"owatch_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSessionIdleTTL sessions untouched this long are closed by the janitor
const DefaultSessionIdleTTL = 30 * time.Minute

// Session 一個 dashboard 分頁: its own catalog copy, wallet and watch flow
type Session struct {
	ID     string
	Wallet walletapp.WalletAdapter
	Videos catalogrepo.VideoRepo
	Flow   WatchFlow

	ledger   repository.ClaimLedger
	mu       sync.Mutex
	lastSeen time.Time
}

// History claim ledger rows of the connected address, newest first
func (s *Session) History(ctx context.Context, limit int) ([]domain.ClaimRecord, error) {
	address, ok := s.Wallet.Address()
	if !ok {
		return nil, domain.ErrWalletNotConnected
	}
	return s.ledger.ListByAddress(ctx, address, limit)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// ManagerConfig 建立 session 所需的共用依賴
type ManagerConfig struct {
	Balances   repository.BalanceRepository
	Ledger     repository.ClaimLedger
	Events     repository.EventPublisher
	Scheduler  Scheduler
	Flow       Options
	IdleTTL    time.Duration
	Connectors []string
	NoticeTTL  time.Duration
	Now        func() time.Time
}

// SessionManager 管理所有 dashboard session
type SessionManager interface {
	Create() (*Session, error)
	Get(id string) (*Session, error)
	Close(id string) error
	Len() int
	Sweep() int
	RunJanitor(ctx context.Context, every time.Duration)
	CloseAll()
}

type sessionManager struct {
	cfg ManagerConfig

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager create a SessionManager
func NewSessionManager(cfg ManagerConfig) SessionManager {
	if cfg.Ledger == nil {
		cfg.Ledger = repository.NewNopLedger()
	}
	if cfg.Events == nil {
		cfg.Events = repository.NewNopPublisher()
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = NewTickerScheduler()
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultSessionIdleTTL
	}
	if len(cfg.Connectors) == 0 {
		cfg.Connectors = config.DefaultConnectors
	}
	if cfg.NoticeTTL <= 0 {
		cfg.NoticeTTL = 5 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &sessionManager{cfg: cfg, sessions: map[string]*Session{}}
}

// Create opens a session over a fresh copy of the seed catalog
func (m *sessionManager) Create() (*Session, error) {
	if m.cfg.Balances == nil {
		return nil, errprocess.Set("session manager has no balance repository")
	}
	id := uuid.New().String()
	videos := catalogrepo.NewVideoRepo(catalogrepo.SeedVideos())
	w := walletapp.NewWalletAdapter(m.cfg.Connectors, m.cfg.NoticeTTL)

	s := &Session{
		ID:     id,
		Wallet: w,
		Videos: videos,
		Flow: NewWatchFlow(FlowDeps{
			SessionID: id,
			Videos:    videos,
			Wallet:    w,
			Balances:  m.cfg.Balances,
			Ledger:    m.cfg.Ledger,
			Events:    m.cfg.Events,
			Scheduler: m.cfg.Scheduler,
			Now:       m.cfg.Now,
		}, m.cfg.Flow),
		ledger:   m.cfg.Ledger,
		lastSeen: m.cfg.Now(),
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	logger.Log.Info("dashboard session opened", zap.String("session", id))
	return s, nil
}

// Get 取得 session 並更新最後使用時間
func (m *sessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("sessionID[%s]: %w", id, domain.ErrSessionNotFound)
	}
	s.touch(m.cfg.Now())
	return s, nil
}

func (m *sessionManager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("sessionID[%s]: %w", id, domain.ErrSessionNotFound)
	}
	s.Flow.Close()
	logger.Log.Info("dashboard session closed", zap.String("session", id))
	return nil
}

func (m *sessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep 關閉閒置超過 IdleTTL 的 session, returns how many were closed
func (m *sessionManager) Sweep() int {
	now := m.cfg.Now()
	var stale []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince(now) > m.cfg.IdleTTL {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Flow.Close()
		logger.Log.Info("idle dashboard session closed", zap.String("session", s.ID))
	}
	return len(stale)
}

// RunJanitor sweeps every interval until ctx is done
func (m *sessionManager) RunJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				logger.Log.Debug("session janitor", zap.Int("closed", n), zap.Int("open", m.Len()))
			}
		}
	}
}

func (m *sessionManager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = map[string]*Session{}
	m.mu.Unlock()

	for _, s := range all {
		s.Flow.Close()
	}
	logger.Log.Info("all dashboard sessions closed", zap.Int("count", len(all)))
}
