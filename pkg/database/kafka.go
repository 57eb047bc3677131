package database

import (
	"context"
	"fmt"
	"time"

	"owatch_service/pkg/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the subset of *kafka.Writer the publishers use
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriterWithRetry 建立 Kafka Writer 並以 metadata 查詢確認 broker 可連線
func NewKafkaWriterWithRetry(k KafkaConnection) (*kafka.Writer, error) {
	var err error
	attempts := k.RetryCount
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		err = pingBroker(k.Brokers)
		if err == nil {
			logger.Log.Info("kafka broker reachable", zap.Int("attempt", attempt), zap.Strings("brokers", k.Brokers))
			return &kafka.Writer{
				Addr:                   kafka.TCP(k.Brokers...),
				Topic:                  k.Topic,
				Balancer:               &kafka.LeastBytes{},
				AllowAutoTopicCreation: true,
			}, nil
		}

		logger.Log.Warn("kafka broker unreachable, retrying...",
			zap.Int("attempt", attempt), zap.Int("max", attempts), zap.Error(err))
		time.Sleep(k.RetryInterval * time.Second)
	}

	return nil, fmt.Errorf("無法建立 Kafka Writer，經過 %d 次嘗試: %w", attempts, err)
}

func pingBroker(brokers []string) error {
	if len(brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Brokers()
	return err
}
