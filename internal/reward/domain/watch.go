package domain

import (
	"errors"

	catalog "owatch_service/internal/catalog/domain"
	wallet "owatch_service/internal/wallet/domain"
)

// State watch flow 狀態
type State string

const (
	// StateIdle no video selected
	StateIdle State = "idle"
	// StatePlaying ticker running
	StatePlaying State = "playing"
	// StatePaused playback stopped by the user or by completion
	StatePaused State = "paused"
	// StateEligible progress crossed the threshold, claim prompt open
	StateEligible State = "eligible"
	// StateClaimed reward claimed for the selected video
	StateClaimed State = "claimed"
)

// 錯誤定義
var (
	ErrWalletNotConnected = errors.New("please connect your wallet first")
	ErrNoVideoSelected    = errors.New("no video selected")
	ErrAlreadyClaimed     = errors.New("reward already claimed for this video")
	ErrNotEligible        = errors.New("watch progress below claim threshold")
	ErrInvalidTransition  = errors.New("invalid playback transition")
	ErrSessionNotFound    = errors.New("dashboard session not found")
	ErrSessionClosed      = errors.New("dashboard session closed")
)

// WatchSession transient per-selection playback state
type WatchSession struct {
	VideoID  int  `json:"video_id"`
	Elapsed  int  `json:"elapsed"`
	Playing  bool `json:"playing"`
	Prompted bool `json:"prompted"`
}

// Snapshot 一次完整的 dashboard 狀態, pushed to websocket subscribers
type Snapshot struct {
	SessionID  string          `json:"session_id"`
	State      State           `json:"state"`
	Video      *catalog.Video  `json:"video,omitempty"`
	Elapsed    int             `json:"elapsed"`
	Clock      string          `json:"clock"`
	Progress   float64         `json:"progress"`
	ShowPrompt bool            `json:"show_prompt"`
	ClaimedIDs []int           `json:"claimed_ids"`
	Wallet     wallet.Status   `json:"wallet"`
	Balance    int64           `json:"balance"`
	Videos     []catalog.Video `json:"videos,omitempty"`
}

// ClaimResult returned by a successful claim
type ClaimResult struct {
	VideoID int   `json:"video_id"`
	Reward  int64 `json:"reward"`
	Balance int64 `json:"balance"`
}
