package handlers

import (
	"errors"

	catalog "owatch_service/internal/catalog/domain"
	"owatch_service/internal/reward/domain"
	wallet "owatch_service/internal/wallet/domain"
	"owatch_service/pkg/encrypt"
	"owatch_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// statusFor 將 domain 錯誤轉成 HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrWalletNotConnected):
		return fiber.StatusPreconditionFailed
	case errors.Is(err, catalog.ErrVideoNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSessionClosed):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNotEligible),
		errors.Is(err, domain.ErrNoVideoSelected),
		errors.Is(err, domain.ErrAlreadyClaimed):
		return fiber.StatusConflict
	case errors.Is(err, wallet.ErrUnknownConnector),
		errors.Is(err, wallet.ErrNoPendingConnect),
		errors.Is(err, wallet.ErrConnectRejected),
		errors.Is(err, encrypt.ErrInvalidAddress),
		errors.Is(err, encrypt.ErrAddressChecksum),
		errors.Is(err, catalog.ErrInvalidDuration):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func sendError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		logger.Log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	} else {
		logger.Log.Debug("request rejected", zap.String("path", c.Path()), zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
