package handlers

import (
	"strconv"

	"paperledger/internal/dto"
	"paperledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type BillHandler struct {
	billService *service.BillService
	logger      *zap.Logger
}

func NewBillHandler(billService *service.BillService, logger *zap.Logger) *BillHandler {
	return &BillHandler{
		billService: billService,
		logger:      logger,
	}
}

// List godoc
// @Summary List bills
// @Tags bills
// @Produce json
// @Param status query string false "Status filter"
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Param sort query string false "Sort key"
// @Param dir query string false "Sort direction: asc or desc"
// @Security Bearer
// @Success 200 {array} dto.BillResponse
// @Router /api/v1/bills [get]
func (h *BillHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	resp, err := h.billService.List(c.Context(), userID, c.Query("status"),
		limit, offset, c.Query("sort"), c.Query("dir"))
	if err != nil {
		return respondError(c, h.logger, err, "List bills")
	}

	return c.JSON(resp)
}

// Get godoc
// @Summary Get a bill
// @Tags bills
// @Produce json
// @Param id path string true "Bill ID"
// @Security Bearer
// @Success 200 {object} dto.BillResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/bills/{id} [get]
func (h *BillHandler) Get(c *fiber.Ctx) error {
	userID, billID, err := parsePathID(c, "Invalid bill ID")
	if err != nil {
		return err
	}

	resp, err := h.billService.Get(c.Context(), userID, billID)
	if err != nil {
		return respondError(c, h.logger, err, "Get bill")
	}

	return c.JSON(resp)
}

// Update godoc
// @Summary Stage bill edits
// @Description Save draft corrections; they take effect on approval
// @Tags bills
// @Accept json
// @Produce json
// @Param id path string true "Bill ID"
// @Param request body dto.UpdateBillRequest true "Draft updates"
// @Security Bearer
// @Success 200 {object} dto.BillResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/bills/{id} [patch]
func (h *BillHandler) Update(c *fiber.Ctx) error {
	userID, billID, err := parsePathID(c, "Invalid bill ID")
	if err != nil {
		return err
	}

	var req dto.UpdateBillRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := h.billService.Update(c.Context(), userID, billID, &req)
	if err != nil {
		return respondError(c, h.logger, err, "Update bill")
	}

	return c.JSON(resp)
}

// Approve godoc
// @Summary Approve a bill
// @Description Finalize the bill, optionally recording a payment against it
// @Tags bills
// @Accept json
// @Produce json
// @Param id path string true "Bill ID"
// @Param request body dto.ApproveBillRequest false "Optional payment payload"
// @Security Bearer
// @Success 200 {object} dto.BillApprovalResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/bills/{id}/approve [post]
func (h *BillHandler) Approve(c *fiber.Ctx) error {
	userID, billID, err := parsePathID(c, "Invalid bill ID")
	if err != nil {
		return err
	}

	// Body is optional: approval without a payment payload is valid.
	var req dto.ApproveBillRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	resp, err := h.billService.Approve(c.Context(), userID, billID, &req)
	if err != nil {
		return respondError(c, h.logger, err, "Approve bill")
	}

	return c.JSON(resp)
}

// Reject godoc
// @Summary Reject a bill
// @Tags bills
// @Produce json
// @Param id path string true "Bill ID"
// @Security Bearer
// @Success 200 {object} dto.BillResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/bills/{id}/reject [post]
func (h *BillHandler) Reject(c *fiber.Ctx) error {
	userID, billID, err := parsePathID(c, "Invalid bill ID")
	if err != nil {
		return err
	}

	resp, err := h.billService.Reject(c.Context(), userID, billID)
	if err != nil {
		return respondError(c, h.logger, err, "Reject bill")
	}

	return c.JSON(resp)
}

// Revert godoc
// @Summary Revert a bill conversion
// @Description Remove the bill and restore its source file to the inbox
// @Tags bills
// @Produce json
// @Param id path string true "Bill ID"
// @Security Bearer
// @Success 200 {object} dto.IncomingFileResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/bills/{id}/revert [post]
func (h *BillHandler) Revert(c *fiber.Ctx) error {
	userID, billID, err := parsePathID(c, "Invalid bill ID")
	if err != nil {
		return err
	}

	resp, err := h.billService.Revert(c.Context(), userID, billID)
	if err != nil {
		return respondError(c, h.logger, err, "Revert bill")
	}

	return c.JSON(resp)
}

// Delete godoc
// @Summary Delete a bill
// @Description Remove the bill, its source file record and the stored blob
// @Tags bills
// @Param id path string true "Bill ID"
// @Security Bearer
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/bills/{id} [delete]
func (h *BillHandler) Delete(c *fiber.Ctx) error {
	userID, billID, err := parsePathID(c, "Invalid bill ID")
	if err != nil {
		return err
	}

	if err := h.billService.Delete(c.Context(), userID, billID); err != nil {
		return respondError(c, h.logger, err, "Delete bill")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Stats godoc
// @Summary Bill status counts
// @Tags bills
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.StatsResponse
// @Router /api/v1/bills/stats [get]
func (h *BillHandler) Stats(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	resp, err := h.billService.Stats(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Get bill stats")
	}

	return c.JSON(resp)
}
