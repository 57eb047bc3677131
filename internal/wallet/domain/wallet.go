package domain

import (
	"errors"
	"time"
)

// 錯誤定義
var (
	ErrUnknownConnector = errors.New("unknown wallet connector")
	ErrNoPendingConnect = errors.New("no pending wallet connection")
	ErrConnectRejected  = errors.New("wallet connection rejected")
)

// Connector 錢包連線方式
type Connector struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// connectorNames display names of the known connector ids
var connectorNames = map[string]string{
	"metaMask":       "MetaMask",
	"rabby":          "Rabby Wallet",
	"coinbaseWallet": "Coinbase Wallet",
	"walletConnect":  "WalletConnect",
}

// NewConnector builds a Connector, unknown ids use the id as display name
func NewConnector(id string) Connector {
	name, ok := connectorNames[id]
	if !ok {
		name = id
	}
	return Connector{ID: id, Name: name}
}

// Status wallet adapter state as reported to the dashboard
type Status struct {
	Address     string `json:"address"`
	Short       string `json:"short_address,omitempty"`
	Connected   bool   `json:"connected"`
	Pending     bool   `json:"pending"`
	ConnectorID string `json:"connector,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Notice a connection error shown until it expires or is dismissed
type Notice struct {
	Message   string
	ExpiresAt time.Time
}

// Active reports whether the notice is still visible at now
func (n *Notice) Active(now time.Time) bool {
	return n != nil && now.Before(n.ExpiresAt)
}

// ShortAddress formats 0x1234...abcd for display
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
