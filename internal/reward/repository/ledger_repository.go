package repository

import (
	"context"

	"owatch_service/internal/reward/domain"

	"gorm.io/gorm"
)

// ClaimLedger append-only claim history
type ClaimLedger interface {
	AutoMigrate() error
	Append(ctx context.Context, record *domain.ClaimRecord) error
	ListByAddress(ctx context.Context, address string, limit int) ([]domain.ClaimRecord, error)
}

type claimLedger struct {
	db *gorm.DB
}

// NewClaimLedger create a gorm backed ClaimLedger
func NewClaimLedger(db *gorm.DB) ClaimLedger {
	return &claimLedger{db: db}
}

// AutoMigrate 建立或更新 claim_records 資料表
func (l *claimLedger) AutoMigrate() error {
	return l.db.AutoMigrate(&domain.ClaimRecord{})
}

func (l *claimLedger) Append(ctx context.Context, record *domain.ClaimRecord) error {
	return l.db.WithContext(ctx).Create(record).Error
}

// ListByAddress newest first
func (l *claimLedger) ListByAddress(ctx context.Context, address string, limit int) ([]domain.ClaimRecord, error) {
	var records []domain.ClaimRecord
	q := l.db.WithContext(ctx).Where("address = ?", address).Order("claimed_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

type nopLedger struct{}

// NewNopLedger ledger used when no database is configured
func NewNopLedger() ClaimLedger { return nopLedger{} }

func (nopLedger) AutoMigrate() error { return nil }

func (nopLedger) Append(context.Context, *domain.ClaimRecord) error { return nil }

func (nopLedger) ListByAddress(context.Context, string, int) ([]domain.ClaimRecord, error) {
	return []domain.ClaimRecord{}, nil
}
