package handlers

import (
	"strconv"

	"paperledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
	logger         *zap.Logger
}

func NewPaymentHandler(paymentService *service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// List godoc
// @Summary List payments
// @Tags payments
// @Produce json
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {array} dto.PaymentResponse
// @Router /api/v1/payments [get]
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	resp, err := h.paymentService.List(c.Context(), userID, limit, offset)
	if err != nil {
		return respondError(c, h.logger, err, "List payments")
	}

	return c.JSON(resp)
}

// Get godoc
// @Summary Get a payment
// @Tags payments
// @Produce json
// @Param id path string true "Payment ID"
// @Security Bearer
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/payments/{id} [get]
func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	userID, paymentID, err := parsePathID(c, "Invalid payment ID")
	if err != nil {
		return err
	}

	resp, err := h.paymentService.Get(c.Context(), userID, paymentID)
	if err != nil {
		return respondError(c, h.logger, err, "Get payment")
	}

	return c.JSON(resp)
}
