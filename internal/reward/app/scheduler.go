package app

import (
	"sync"
	"time"
)

// Scheduler 週期性執行 task，直到呼叫回傳的 stop
type Scheduler interface {
	Every(interval time.Duration, task func()) (stop func())
}

type tickerScheduler struct{}

// NewTickerScheduler Scheduler backed by time.Ticker, one goroutine per Every call
func NewTickerScheduler() Scheduler { return tickerScheduler{} }

// Every 不會等待正在執行的 task 結束, stop may be called while the caller holds locks the task needs
func (tickerScheduler) Every(interval time.Duration, task func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				task()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

// ManualScheduler drives registered tasks by hand. Used by tests and the BDD suite.
type ManualScheduler struct {
	mu    sync.Mutex
	next  int
	tasks map[int]func()
}

// NewManualScheduler create an empty ManualScheduler
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{tasks: map[int]func(){}}
}

func (m *ManualScheduler) Every(_ time.Duration, task func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.tasks[id] = task
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.tasks, id)
	}
}

// Tick runs every active task n times
func (m *ManualScheduler) Tick(n int) {
	for i := 0; i < n; i++ {
		for _, task := range m.snapshot() {
			task()
		}
	}
}

// Active number of tasks not yet stopped
func (m *ManualScheduler) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

func (m *ManualScheduler) snapshot() []func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]func(), 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	return out
}
