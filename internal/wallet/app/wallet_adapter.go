package app

import (
	"fmt"
	"sync"
	"time"

	"owatch_service/internal/wallet/domain"
	"owatch_service/pkg"
	"owatch_service/pkg/encrypt"
	"owatch_service/pkg/logger"

	"go.uber.org/zap"
)

// WalletAdapter 封裝錢包連線狀態
type WalletAdapter interface {
	Connectors() []domain.Connector
	Connect(connectorID string) error
	Approve(address string) (string, error)
	Reject(reason string) error
	Disconnect()
	DismissNotice()
	Status() domain.Status
	Address() (string, bool)
}

type walletAdapter struct {
	mu         sync.Mutex
	connectors []domain.Connector
	noticeTTL  time.Duration
	now        func() time.Time

	address   string
	connector string
	pending   bool
	notice    *domain.Notice
}

// NewWalletAdapter create a WalletAdapter offering connectorIDs
func NewWalletAdapter(connectorIDs []string, noticeTTL time.Duration) WalletAdapter {
	return newWalletAdapter(connectorIDs, noticeTTL, time.Now)
}

func newWalletAdapter(connectorIDs []string, noticeTTL time.Duration, now func() time.Time) *walletAdapter {
	ids := pkg.Unique(connectorIDs)
	cs := make([]domain.Connector, 0, len(ids))
	for _, id := range ids {
		cs = append(cs, domain.NewConnector(id))
	}
	return &walletAdapter{connectors: cs, noticeTTL: noticeTTL, now: now}
}

func (w *walletAdapter) Connectors() []domain.Connector {
	out := make([]domain.Connector, len(w.connectors))
	copy(out, w.connectors)
	return out
}

// Connect begins a connection through connectorID; the adapter stays pending until Approve or Reject
func (w *walletAdapter) Connect(connectorID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.hasConnector(connectorID) {
		err := fmt.Errorf("%w: %s", domain.ErrUnknownConnector, connectorID)
		w.raise(err)
		return err
	}
	w.pending = true
	w.connector = connectorID
	w.notice = nil
	logger.Log.Debug("wallet connect pending", zap.String("connector", connectorID))
	return nil
}

// Approve completes a pending connection with address and returns its checksummed form
func (w *walletAdapter) Approve(address string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.pending {
		return "", domain.ErrNoPendingConnect
	}
	w.pending = false

	checksummed, err := encrypt.ValidateAddress(address)
	if err != nil {
		err = fmt.Errorf("address[%s]: %w", address, err)
		w.connector = ""
		w.raise(err)
		return "", err
	}

	w.address = checksummed
	w.notice = nil
	logger.Log.Info("wallet connected", zap.String("address", checksummed), zap.String("connector", w.connector))
	return checksummed, nil
}

// Reject fails a pending connection; the reason becomes the notice text
func (w *walletAdapter) Reject(reason string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.pending {
		return domain.ErrNoPendingConnect
	}
	w.pending = false
	w.connector = ""
	if reason == "" {
		reason = "user rejected the request"
	}
	w.raise(fmt.Errorf("%w: %s", domain.ErrConnectRejected, reason))
	return nil
}

func (w *walletAdapter) Disconnect() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.address != "" {
		logger.Log.Info("wallet disconnected", zap.String("address", w.address))
	}
	w.address = ""
	w.connector = ""
	w.pending = false
}

func (w *walletAdapter) DismissNotice() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.notice = nil
}

func (w *walletAdapter) Status() domain.Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := domain.Status{
		Address:     w.address,
		Short:       domain.ShortAddress(w.address),
		Connected:   w.address != "",
		Pending:     w.pending,
		ConnectorID: w.connector,
	}
	if w.notice.Active(w.now()) {
		st.Error = w.notice.Message
	} else {
		w.notice = nil
	}
	return st
}

// Address returns the connected address, ok is false when disconnected
func (w *walletAdapter) Address() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.address, w.address != ""
}

func (w *walletAdapter) hasConnector(id string) bool {
	for _, c := range w.connectors {
		if c.ID == id {
			return true
		}
	}
	return false
}

// raise 設定錯誤通知, caller holds w.mu
func (w *walletAdapter) raise(err error) {
	logger.Log.Warn("wallet connection failed", zap.Error(err))
	w.notice = &domain.Notice{Message: err.Error(), ExpiresAt: w.now().Add(w.noticeTTL)}
}
