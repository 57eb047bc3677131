package errprocess

import (
	"errors"
	"fmt"

	"owatch_service/pkg/logger"

	"go.uber.org/zap"
)

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}

// Wrap logs errMsg with the cause and returns an error that still matches cause via errors.Is
func Wrap(errMsg string, cause error) error {
	logger.Log.Error(errMsg, zap.Error(cause))
	return fmt.Errorf("%s: %w", errMsg, cause)
}
