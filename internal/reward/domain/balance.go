package domain

import (
	"errors"
	"time"
)

// DefaultBalanceKeyPrefix storage key prefix, key is prefix + address
const DefaultBalanceKeyPrefix = "owatch_balance_"

// ErrCorruptBalance stored value is not a base-10 integer
var ErrCorruptBalance = errors.New("stored balance is not an integer")

// BalanceKey builds the storage key for address
func BalanceKey(prefix, address string) string {
	return prefix + address
}

// ClaimRecord 領取紀錄 ledger row
type ClaimRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Address      string    `gorm:"column:address;not null;index:idx_claim_records_address" json:"address"`
	SessionID    string    `gorm:"column:session_id;not null" json:"session_id"`
	VideoID      int       `gorm:"column:video_id;not null" json:"video_id"`
	Reward       int64     `gorm:"column:reward;not null" json:"reward"`
	BalanceAfter int64     `gorm:"column:balance_after;not null" json:"balance_after"`
	ClaimedAt    time.Time `gorm:"column:claimed_at;not null" json:"claimed_at"`
}

// TableName specifies the table name for the ClaimRecord model
func (ClaimRecord) TableName() string {
	return "claim_records"
}

// ClaimEvent message published after a successful claim
type ClaimEvent struct {
	Address   string    `json:"address"`
	VideoID   int       `json:"video_id"`
	Reward    int64     `json:"reward"`
	Balance   int64     `json:"balance"`
	ClaimedAt time.Time `json:"claimed_at"`
}
