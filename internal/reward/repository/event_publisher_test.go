package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"owatch_service/internal/reward/domain"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockWriter 是 kafka writer 的 Mock
type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestKafkaPublisher(t *testing.T) {
	ctx := context.Background()
	ev := domain.ClaimEvent{
		Address:   "0xABC",
		VideoID:   1,
		Reward:    10,
		Balance:   10,
		ClaimedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("成功發送", func(t *testing.T) {
		w := new(MockWriter)
		w.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 || string(msgs[0].Key) != "0xABC" {
				return false
			}
			var got domain.ClaimEvent
			return json.Unmarshal(msgs[0].Value, &got) == nil && got.VideoID == 1 && got.Reward == 10
		})).Return(nil).Once()

		require.NoError(t, NewKafkaPublisher(w).PublishClaim(ctx, ev))
		w.AssertExpectations(t)
	})

	t.Run("發送失敗", func(t *testing.T) {
		w := new(MockWriter)
		boom := errors.New("broker down")
		w.On("WriteMessages", ctx, mock.Anything).Return(boom).Once()
		w.On("Close").Return(nil).Once()

		p := NewKafkaPublisher(w)
		assert.ErrorIs(t, p.PublishClaim(ctx, ev), boom)
		assert.NoError(t, p.Close())
		w.AssertExpectations(t)
	})
}

func TestNopImplementations(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, NewNopPublisher().PublishClaim(ctx, domain.ClaimEvent{}))

	l := NewNopLedger()
	assert.NoError(t, l.AutoMigrate())
	assert.NoError(t, l.Append(ctx, &domain.ClaimRecord{}))
	rs, err := l.ListByAddress(ctx, "0xABC", 10)
	assert.NoError(t, err)
	assert.Empty(t, rs)
}
