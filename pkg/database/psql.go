package database

import (
	"fmt"
	"time"

	"owatch_service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewPGConnection create a new postgreSQL connection through gorm, retrying RetryCount times
func NewPGConnection(d Connection) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	attempts := d.RetryCount
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		db, err = gorm.Open(postgres.Open(d.ConnectStr), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err == nil {
			break
		}
		logger.Log.Warn(
			"Failed to connect to postgreSQL database, retrying...",
			zap.Int("attempt", i+1),
			zap.Error(err),
		)
		time.Sleep(d.RetryInterval * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect postgres after %d attempts: %w", attempts, err)
	}

	return db, nil
}

// PostgresDSN builds the key/value DSN gorm's postgres driver expects
func PostgresDSN(host string, port int, user, password, dbName string) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbName, port)
}
