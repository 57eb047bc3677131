package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	catalog "owatch_service/internal/catalog/domain"
	catalogrepo "owatch_service/internal/catalog/repository"
	"owatch_service/internal/reward/domain"
	"owatch_service/internal/reward/repository"
	wallet "owatch_service/internal/wallet/domain"
	errprocess "owatch_service/pkg/err"
	"owatch_service/pkg/logger"

	"go.uber.org/zap"
)

// 預設值
const (
	DefaultTickInterval    = time.Second
	DefaultEligiblePercent = 80.0

	subscriberBuffer  = 8
	sideEffectTimeout = 5 * time.Second
)

// WalletState 讀取目前連線的錢包
type WalletState interface {
	Address() (string, bool)
	Status() wallet.Status
}

// Options watch flow 參數
type Options struct {
	TickInterval    time.Duration
	EligiblePercent float64
	LoopOnComplete  bool
}

func (o Options) withDefaults() Options {
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.EligiblePercent <= 0 {
		o.EligiblePercent = DefaultEligiblePercent
	}
	return o
}

// FlowDeps collaborators of one dashboard session's flow
type FlowDeps struct {
	SessionID string
	Videos    catalogrepo.VideoRepo
	Wallet    WalletState
	Balances  repository.BalanceRepository
	Ledger    repository.ClaimLedger
	Events    repository.EventPublisher
	Scheduler Scheduler
	Now       func() time.Time
}

// WatchFlow 播放進度與領取獎勵的狀態機
type WatchFlow interface {
	Select(videoID int) error
	Pause() error
	Resume() error
	Reset() error
	Claim(ctx context.Context) (domain.ClaimResult, error)
	Session() domain.WatchSession
	State() domain.State
	Snapshot(ctx context.Context) (domain.Snapshot, error)
	Subscribe() (<-chan domain.Snapshot, func())
	Close()
}

type watchFlow struct {
	deps FlowDeps
	opts Options

	mu       sync.Mutex
	state    domain.State
	session  domain.WatchSession
	total    int
	progress float64
	claimed  map[int]bool
	stopTick func()
	gen      uint64
	closed   bool

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan domain.Snapshot

	bg  sync.WaitGroup
	log *logger.LogInfo
}

// NewWatchFlow create a WatchFlow in the idle state
func NewWatchFlow(deps FlowDeps, opts Options) WatchFlow {
	if deps.Ledger == nil {
		deps.Ledger = repository.NewNopLedger()
	}
	if deps.Events == nil {
		deps.Events = repository.NewNopPublisher()
	}
	if deps.Scheduler == nil {
		deps.Scheduler = NewTickerScheduler()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &watchFlow{
		deps:    deps,
		opts:    opts.withDefaults(),
		state:   domain.StateIdle,
		claimed: map[int]bool{},
		subs:    map[int]chan domain.Snapshot{},
		log:     logger.Log.With(zap.String("session", deps.SessionID)),
	}
}

// Select 選擇影片並從頭開始播放, the previous selection's ticker is cancelled
func (f *watchFlow) Select(videoID int) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return domain.ErrSessionClosed
	}
	v, err := f.deps.Videos.GetByID(videoID)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	total, err := v.TotalSeconds()
	if err != nil {
		f.mu.Unlock()
		return fmt.Errorf("videoID[%d]: %w", videoID, err)
	}

	f.cancelTicker()
	f.session = domain.WatchSession{VideoID: videoID, Playing: true}
	f.total = total
	f.progress = 0
	f.state = domain.StatePlaying
	f.startTicker()
	f.mu.Unlock()

	f.log.Debug("video selected", zap.Int("video", videoID))
	f.publish()
	return nil
}

func (f *watchFlow) Pause() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if f.state != domain.StatePlaying {
		st := f.state
		f.mu.Unlock()
		return fmt.Errorf("pause from %s: %w", st, domain.ErrInvalidTransition)
	}
	f.cancelTicker()
	f.session.Playing = false
	f.state = domain.StatePaused
	f.mu.Unlock()

	f.publish()
	return nil
}

// Resume continues playback from paused, eligible or claimed.
// A video that stopped at completion restarts from zero.
func (f *watchFlow) Resume() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return domain.ErrSessionClosed
	}
	switch f.state {
	case domain.StatePaused, domain.StateEligible, domain.StateClaimed:
	default:
		st := f.state
		f.mu.Unlock()
		return fmt.Errorf("resume from %s: %w", st, domain.ErrInvalidTransition)
	}
	if f.session.Elapsed >= f.total {
		f.session.Elapsed = 0
		f.progress = 0
	}
	f.session.Playing = true
	f.state = domain.StatePlaying
	f.startTicker()
	f.mu.Unlock()

	f.publish()
	return nil
}

// Reset 回到 idle，清除進度與選擇
func (f *watchFlow) Reset() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return domain.ErrSessionClosed
	}
	f.cancelTicker()
	id := f.session.VideoID
	if id != 0 {
		if err := f.deps.Videos.UpdateProgress(id, 0); err != nil {
			f.log.Warn("reset progress failed", zap.Int("video", id), zap.Error(err))
		}
	}
	f.session = domain.WatchSession{}
	f.total = 0
	f.progress = 0
	f.state = domain.StateIdle
	f.mu.Unlock()

	f.publish()
	return nil
}

// Claim 領取目前影片的獎勵; on any failure nothing changes
func (f *watchFlow) Claim(ctx context.Context) (domain.ClaimResult, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return domain.ClaimResult{}, domain.ErrSessionClosed
	}
	address, ok := f.deps.Wallet.Address()
	if !ok {
		f.mu.Unlock()
		return domain.ClaimResult{}, domain.ErrWalletNotConnected
	}
	id := f.session.VideoID
	if id == 0 {
		f.mu.Unlock()
		return domain.ClaimResult{}, domain.ErrNoVideoSelected
	}
	v, err := f.deps.Videos.GetByID(id)
	if err != nil {
		f.mu.Unlock()
		return domain.ClaimResult{}, err
	}
	if f.claimed[id] || v.Watched {
		f.mu.Unlock()
		return domain.ClaimResult{}, fmt.Errorf("videoID[%d]: %w", id, domain.ErrAlreadyClaimed)
	}
	if f.progress < f.opts.EligiblePercent {
		p := f.progress
		f.mu.Unlock()
		return domain.ClaimResult{}, fmt.Errorf("videoID[%d] progress %.1f%%: %w", id, p, domain.ErrNotEligible)
	}

	balance, err := f.deps.Balances.Add(ctx, address, v.Reward)
	if err != nil {
		f.mu.Unlock()
		return domain.ClaimResult{}, errprocess.Wrap(
			fmt.Sprintf("sessionID[%s] address[%s] 儲存餘額失敗", f.deps.SessionID, address), err)
	}

	if err := f.deps.Videos.MarkWatched(id); err != nil {
		f.log.Warn("mark watched failed", zap.Int("video", id), zap.Error(err))
	}
	f.claimed[id] = true
	f.cancelTicker()
	f.session.Playing = false
	f.state = domain.StateClaimed
	claimedAt := f.deps.Now()
	f.bg.Add(1)
	f.mu.Unlock()

	f.log.Info("reward claimed",
		zap.String("address", address),
		zap.Int("video", id),
		zap.Int64("reward", v.Reward),
		zap.Int64("balance", balance))

	f.recordClaim(domain.ClaimRecord{
		Address:      address,
		SessionID:    f.deps.SessionID,
		VideoID:      id,
		Reward:       v.Reward,
		BalanceAfter: balance,
		ClaimedAt:    claimedAt,
	})
	f.publish()
	return domain.ClaimResult{VideoID: id, Reward: v.Reward, Balance: balance}, nil
}

// recordClaim ledger 與 kafka 失敗只記 log. Caller has done f.bg.Add(1) under f.mu so Close waits for it.
func (f *watchFlow) recordClaim(rec domain.ClaimRecord) {
	go func() {
		defer f.bg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()

		if err := f.deps.Ledger.Append(ctx, &rec); err != nil {
			f.log.Warn("append claim ledger failed", zap.Int("video", rec.VideoID), zap.Error(err))
		}
		ev := domain.ClaimEvent{
			Address:   rec.Address,
			VideoID:   rec.VideoID,
			Reward:    rec.Reward,
			Balance:   rec.BalanceAfter,
			ClaimedAt: rec.ClaimedAt,
		}
		if err := f.deps.Events.PublishClaim(ctx, ev); err != nil {
			f.log.Warn("publish claim event failed", zap.Int("video", rec.VideoID), zap.Error(err))
		}
	}()
}

func (f *watchFlow) Session() domain.WatchSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *watchFlow) State() domain.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Snapshot 讀取完整狀態; the balance is loaded for the connected address outside the flow lock
func (f *watchFlow) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	f.mu.Lock()
	snap := domain.Snapshot{
		SessionID:  f.deps.SessionID,
		State:      f.state,
		Elapsed:    f.session.Elapsed,
		Clock:      catalog.FormatClock(f.session.Elapsed),
		Progress:   f.progress,
		ShowPrompt: f.state == domain.StateEligible,
		ClaimedIDs: f.claimedIDs(),
		Videos:     f.deps.Videos.List(),
	}
	if id := f.session.VideoID; id != 0 {
		if v, err := f.deps.Videos.GetByID(id); err == nil {
			snap.Video = &v
		}
	}
	f.mu.Unlock()

	snap.Wallet = f.deps.Wallet.Status()
	if address, ok := f.deps.Wallet.Address(); ok {
		b, err := f.deps.Balances.Load(ctx, address)
		if err != nil {
			return snap, err
		}
		snap.Balance = b
	}
	return snap, nil
}

// Subscribe 訂閱狀態變化; slow subscribers miss snapshots instead of blocking the flow
func (f *watchFlow) Subscribe() (<-chan domain.Snapshot, func()) {
	f.subMu.Lock()
	defer f.subMu.Unlock()

	ch := make(chan domain.Snapshot, subscriberBuffer)
	if f.isClosed() {
		close(ch)
		return ch, func() {}
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.subMu.Lock()
			defer f.subMu.Unlock()
			if c, ok := f.subs[id]; ok {
				delete(f.subs, id)
				close(c)
			}
		})
	}
}

// Close 停止 ticker，關閉所有訂閱並等待背景寫入
func (f *watchFlow) Close() {
	f.mu.Lock()
	f.cancelTicker()
	f.session.Playing = false
	already := f.closed
	f.closed = true
	f.mu.Unlock()
	if already {
		return
	}

	f.subMu.Lock()
	for id, c := range f.subs {
		delete(f.subs, id)
		close(c)
	}
	f.subMu.Unlock()

	f.bg.Wait()
}

func (f *watchFlow) tick(gen uint64) {
	f.mu.Lock()
	if gen != f.gen || f.state != domain.StatePlaying || f.closed {
		f.mu.Unlock()
		return
	}

	id := f.session.VideoID
	f.session.Elapsed++
	f.progress = percent(f.session.Elapsed, f.total)
	if err := f.deps.Videos.UpdateProgress(id, f.progress); err != nil {
		f.log.Warn("update progress failed", zap.Int("video", id), zap.Error(err))
	}

	if f.session.Elapsed >= f.total {
		if f.opts.LoopOnComplete {
			f.session.Elapsed = 0
		} else {
			f.session.Elapsed = f.total
			f.cancelTicker()
			f.session.Playing = false
			f.state = domain.StatePaused
		}
	}

	if f.progress >= f.opts.EligiblePercent && !f.session.Prompted && !f.isClaimed(id) {
		f.cancelTicker()
		f.session.Playing = false
		f.session.Prompted = true
		f.state = domain.StateEligible
		f.log.Debug("claim prompt", zap.Int("video", id))
	}
	f.mu.Unlock()

	f.publish()
}

// startTicker caller holds f.mu
func (f *watchFlow) startTicker() {
	f.cancelTicker()
	gen := f.gen
	f.stopTick = f.deps.Scheduler.Every(f.opts.TickInterval, func() { f.tick(gen) })
}

// cancelTicker caller holds f.mu; bumping gen turns in-flight ticks into no-ops
func (f *watchFlow) cancelTicker() {
	f.gen++
	if f.stopTick != nil {
		f.stopTick()
		f.stopTick = nil
	}
}

// isClaimed caller holds f.mu
func (f *watchFlow) isClaimed(id int) bool {
	if f.claimed[id] {
		return true
	}
	v, err := f.deps.Videos.GetByID(id)
	return err == nil && v.Watched
}

func (f *watchFlow) claimedIDs() []int {
	ids := make([]int, 0, len(f.claimed))
	for id := range f.claimed {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (f *watchFlow) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *watchFlow) publish() {
	f.subMu.Lock()
	n := len(f.subs)
	f.subMu.Unlock()
	if n == 0 {
		return
	}

	snap, err := f.Snapshot(context.Background())
	if err != nil {
		f.log.Warn("snapshot balance failed", zap.Error(err))
	}

	f.subMu.Lock()
	defer f.subMu.Unlock()
	for _, c := range f.subs {
		select {
		case c <- snap:
		default:
		}
	}
}

// percent 100·elapsed/total clamped to [0, 100]
func percent(elapsed, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(elapsed) / float64(total) * 100
	if p > 100 {
		return 100
	}
	return p
}
