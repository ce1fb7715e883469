package handlers

import (
	"errors"

	"paperledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	userIDStr, ok := c.Locals("userID").(string)
	if !ok {
		return uuid.Nil, fiber.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, err
	}

	return userID, nil
}

// parsePathID resolves the authenticated user and the :id path parameter.
// Errors are fiber errors and flow to the app error handler.
func parsePathID(c *fiber.Ctx, invalidMsg string) (uuid.UUID, uuid.UUID, error) {
	userID, err := getUserID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.ErrUnauthorized
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, invalidMsg)
	}

	return userID, id, nil
}

// respondError maps the service error taxonomy onto HTTP statuses. Unknown
// errors are logged and reported as a generic 500.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error, action string) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not found",
		})
	case errors.Is(err, service.ErrDuplicateUpload):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Duplicate file already uploaded",
		})
	case errors.Is(err, service.ErrInvalidFileType):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unsupported file type",
		})
	case errors.Is(err, service.ErrFileTooLarge):
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "File exceeds the size limit",
		})
	case errors.Is(err, service.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Operation not allowed in the current state",
		})
	case errors.Is(err, service.ErrHasPayments):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Payments reference this record",
		})
	case errors.Is(err, service.ErrUnknownTarget):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown conversion target",
		})
	case errors.Is(err, service.ErrInvalidDate):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid date format, expected YYYY-MM-DD",
		})
	default:
		logger.Error(action+" failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": action + " failed",
		})
	}
}
