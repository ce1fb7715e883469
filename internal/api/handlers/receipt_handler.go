package handlers

import (
	"strconv"

	"paperledger/internal/dto"
	"paperledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReceiptHandler struct {
	receiptService *service.ReceiptService
	logger         *zap.Logger
}

func NewReceiptHandler(receiptService *service.ReceiptService, logger *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		receiptService: receiptService,
		logger:         logger,
	}
}

// List godoc
// @Summary List receipts
// @Tags receipts
// @Produce json
// @Param bill_id query string false "Filter by associated bill"
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Param sort query string false "Sort key"
// @Param dir query string false "Sort direction: asc or desc"
// @Security Bearer
// @Success 200 {array} dto.ReceiptResponse
// @Router /api/v1/receipts [get]
func (h *ReceiptHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	var billFilter *uuid.UUID
	if raw := c.Query("bill_id"); raw != "" {
		billID, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid bill ID",
			})
		}
		billFilter = &billID
	}

	resp, err := h.receiptService.List(c.Context(), userID, billFilter,
		limit, offset, c.Query("sort"), c.Query("dir"))
	if err != nil {
		return respondError(c, h.logger, err, "List receipts")
	}

	return c.JSON(resp)
}

// Get godoc
// @Summary Get a receipt
// @Tags receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Security Bearer
// @Success 200 {object} dto.ReceiptResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/receipts/{id} [get]
func (h *ReceiptHandler) Get(c *fiber.Ctx) error {
	userID, receiptID, err := parsePathID(c, "Invalid receipt ID")
	if err != nil {
		return err
	}

	resp, err := h.receiptService.Get(c.Context(), userID, receiptID)
	if err != nil {
		return respondError(c, h.logger, err, "Get receipt")
	}

	return c.JSON(resp)
}

// Update godoc
// @Summary Edit a receipt
// @Tags receipts
// @Accept json
// @Produce json
// @Param id path string true "Receipt ID"
// @Param request body dto.UpdateReceiptRequest true "Field updates"
// @Security Bearer
// @Success 200 {object} dto.ReceiptResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/receipts/{id} [patch]
func (h *ReceiptHandler) Update(c *fiber.Ctx) error {
	userID, receiptID, err := parsePathID(c, "Invalid receipt ID")
	if err != nil {
		return err
	}

	var req dto.UpdateReceiptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := h.receiptService.Update(c.Context(), userID, receiptID, &req)
	if err != nil {
		return respondError(c, h.logger, err, "Update receipt")
	}

	return c.JSON(resp)
}

// Associate godoc
// @Summary Link a receipt to a bill
// @Tags receipts
// @Accept json
// @Produce json
// @Param id path string true "Receipt ID"
// @Param request body dto.AssociateReceiptRequest true "Bill to link"
// @Security Bearer
// @Success 200 {object} dto.ReceiptResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/receipts/{id}/associate [post]
func (h *ReceiptHandler) Associate(c *fiber.Ctx) error {
	userID, receiptID, err := parsePathID(c, "Invalid receipt ID")
	if err != nil {
		return err
	}

	var req dto.AssociateReceiptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	billID, err := uuid.Parse(req.BillID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid bill ID",
		})
	}

	resp, err := h.receiptService.Associate(c.Context(), userID, receiptID, billID)
	if err != nil {
		return respondError(c, h.logger, err, "Associate receipt")
	}

	return c.JSON(resp)
}

// Disassociate godoc
// @Summary Unlink a receipt from its bill
// @Tags receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Security Bearer
// @Success 200 {object} dto.ReceiptResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/receipts/{id}/disassociate [post]
func (h *ReceiptHandler) Disassociate(c *fiber.Ctx) error {
	userID, receiptID, err := parsePathID(c, "Invalid receipt ID")
	if err != nil {
		return err
	}

	resp, err := h.receiptService.Disassociate(c.Context(), userID, receiptID)
	if err != nil {
		return respondError(c, h.logger, err, "Disassociate receipt")
	}

	return c.JSON(resp)
}

// Accept godoc
// @Summary Accept a receipt as settled
// @Description Record the receipt as paid, optionally linking a bill and creating a payment
// @Tags receipts
// @Accept json
// @Produce json
// @Param id path string true "Receipt ID"
// @Param request body dto.AcceptReceiptRequest false "Optional bill link and payment payload"
// @Security Bearer
// @Success 200 {object} dto.ReceiptAcceptResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/receipts/{id}/accept [post]
func (h *ReceiptHandler) Accept(c *fiber.Ctx) error {
	userID, receiptID, err := parsePathID(c, "Invalid receipt ID")
	if err != nil {
		return err
	}

	var req dto.AcceptReceiptRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	resp, err := h.receiptService.Accept(c.Context(), userID, receiptID, &req)
	if err != nil {
		return respondError(c, h.logger, err, "Accept receipt")
	}

	return c.JSON(resp)
}

// Revert godoc
// @Summary Revert a receipt conversion
// @Description Remove the receipt and restore its source file to the inbox
// @Tags receipts
// @Produce json
// @Param id path string true "Receipt ID"
// @Security Bearer
// @Success 200 {object} dto.IncomingFileResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/receipts/{id}/revert [post]
func (h *ReceiptHandler) Revert(c *fiber.Ctx) error {
	userID, receiptID, err := parsePathID(c, "Invalid receipt ID")
	if err != nil {
		return err
	}

	resp, err := h.receiptService.Revert(c.Context(), userID, receiptID)
	if err != nil {
		return respondError(c, h.logger, err, "Revert receipt")
	}

	return c.JSON(resp)
}

// Delete godoc
// @Summary Delete a receipt
// @Tags receipts
// @Param id path string true "Receipt ID"
// @Security Bearer
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/receipts/{id} [delete]
func (h *ReceiptHandler) Delete(c *fiber.Ctx) error {
	userID, receiptID, err := parsePathID(c, "Invalid receipt ID")
	if err != nil {
		return err
	}

	if err := h.receiptService.Delete(c.Context(), userID, receiptID); err != nil {
		return respondError(c, h.logger, err, "Delete receipt")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Stats godoc
// @Summary Receipt counts
// @Tags receipts
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.ReceiptStatsResponse
// @Router /api/v1/receipts/stats [get]
func (h *ReceiptHandler) Stats(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	resp, err := h.receiptService.Stats(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Get receipt stats")
	}

	return c.JSON(resp)
}
