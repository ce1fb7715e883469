package handlers

import (
	"io"
	"strconv"

	"paperledger/internal/dto"
	"paperledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type InboxHandler struct {
	inboxService *service.InboxService
	logger       *zap.Logger
}

func NewInboxHandler(inboxService *service.InboxService, logger *zap.Logger) *InboxHandler {
	return &InboxHandler{
		inboxService: inboxService,
		logger:       logger,
	}
}

// Upload godoc
// @Summary Upload a document
// @Description Upload an invoice or receipt file into the inbox
// @Tags inbox
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file (image or PDF)"
// @Security Bearer
// @Success 201 {object} dto.IncomingFileResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Router /api/v1/inbox/upload [post]
func (h *InboxHandler) Upload(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}

	resp, err := h.inboxService.Upload(c.Context(), userID, file.Filename, data)
	if err != nil {
		return respondError(c, h.logger, err, "Upload")
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// List godoc
// @Summary List inbox files
// @Description Get uploaded files, optionally filtered by status
// @Tags inbox
// @Produce json
// @Param status query string false "Status filter"
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Param sort query string false "Sort key"
// @Param dir query string false "Sort direction: asc or desc"
// @Security Bearer
// @Success 200 {array} dto.IncomingFileResponse
// @Router /api/v1/inbox [get]
func (h *InboxHandler) List(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	resp, err := h.inboxService.List(c.Context(), userID, c.Query("status"),
		limit, offset, c.Query("sort"), c.Query("dir"))
	if err != nil {
		return respondError(c, h.logger, err, "List files")
	}

	return c.JSON(resp)
}

// Get godoc
// @Summary Get an inbox file
// @Tags inbox
// @Produce json
// @Param id path string true "File ID"
// @Security Bearer
// @Success 200 {object} dto.IncomingFileResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/inbox/{id} [get]
func (h *InboxHandler) Get(c *fiber.Ctx) error {
	userID, fileID, err := h.parseIDs(c)
	if err != nil {
		return err
	}

	resp, err := h.inboxService.Get(c.Context(), userID, fileID)
	if err != nil {
		return respondError(c, h.logger, err, "Get file")
	}

	return c.JSON(resp)
}

// Download godoc
// @Summary Download the stored document
// @Tags inbox
// @Produce octet-stream
// @Param id path string true "File ID"
// @Security Bearer
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Router /api/v1/inbox/{id}/file [get]
func (h *InboxHandler) Download(c *fiber.Ctx) error {
	userID, fileID, err := h.parseIDs(c)
	if err != nil {
		return err
	}

	data, fileName, err := h.inboxService.GetFile(c.Context(), userID, fileID)
	if err != nil {
		return respondError(c, h.logger, err, "Download file")
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	return c.Send(data)
}

// Update godoc
// @Summary Edit extracted fields
// @Description Manually correct the amount, date or provider of a file
// @Tags inbox
// @Accept json
// @Produce json
// @Param id path string true "File ID"
// @Param request body dto.UpdateIncomingFileRequest true "Field updates"
// @Security Bearer
// @Success 200 {object} dto.IncomingFileResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/inbox/{id} [patch]
func (h *InboxHandler) Update(c *fiber.Ctx) error {
	userID, fileID, err := h.parseIDs(c)
	if err != nil {
		return err
	}

	var req dto.UpdateIncomingFileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := h.inboxService.UpdateFields(c.Context(), userID, fileID, &req)
	if err != nil {
		return respondError(c, h.logger, err, "Update file")
	}

	return c.JSON(resp)
}

// TriggerOCR godoc
// @Summary Run text extraction
// @Description Start OCR for a new or failed file. Without a configured engine this is a no-op.
// @Tags inbox
// @Produce json
// @Param id path string true "File ID"
// @Security Bearer
// @Success 202 {object} dto.OCRTriggerResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/inbox/{id}/ocr [post]
func (h *InboxHandler) TriggerOCR(c *fiber.Ctx) error {
	userID, fileID, err := h.parseIDs(c)
	if err != nil {
		return err
	}

	resp, err := h.inboxService.TriggerOCR(c.Context(), userID, fileID)
	if err != nil {
		return respondError(c, h.logger, err, "Trigger OCR")
	}

	return c.Status(fiber.StatusAccepted).JSON(resp)
}

// RetryOCR godoc
// @Summary Retry failed text extraction
// @Tags inbox
// @Produce json
// @Param id path string true "File ID"
// @Security Bearer
// @Success 202 {object} dto.OCRTriggerResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/inbox/{id}/ocr-retry [post]
func (h *InboxHandler) RetryOCR(c *fiber.Ctx) error {
	userID, fileID, err := h.parseIDs(c)
	if err != nil {
		return err
	}

	resp, err := h.inboxService.RetryOCR(c.Context(), userID, fileID)
	if err != nil {
		return respondError(c, h.logger, err, "Retry OCR")
	}

	return c.Status(fiber.StatusAccepted).JSON(resp)
}

// Approve godoc
// @Summary Approve a file for dispatch
// @Tags inbox
// @Produce json
// @Param id path string true "File ID"
// @Security Bearer
// @Success 200 {object} dto.IncomingFileResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/inbox/{id}/approve [post]
func (h *InboxHandler) Approve(c *fiber.Ctx) error {
	userID, fileID, err := h.parseIDs(c)
	if err != nil {
		return err
	}

	resp, err := h.inboxService.Approve(c.Context(), userID, fileID)
	if err != nil {
		return respondError(c, h.logger, err, "Approve file")
	}

	return c.JSON(resp)
}

// Reject godoc
// @Summary Reject a file
// @Tags inbox
// @Produce json
// @Param id path string true "File ID"
// @Security Bearer
// @Success 200 {object} dto.IncomingFileResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/inbox/{id}/reject [post]
func (h *InboxHandler) Reject(c *fiber.Ctx) error {
	userID, fileID, err := h.parseIDs(c)
	if err != nil {
		return err
	}

	resp, err := h.inboxService.Reject(c.Context(), userID, fileID)
	if err != nil {
		return respondError(c, h.logger, err, "Reject file")
	}

	return c.JSON(resp)
}

// Dispatch godoc
// @Summary Convert an approved file
// @Description Convert the file into a bill or a receipt
// @Tags inbox
// @Accept json
// @Produce json
// @Param id path string true "File ID"
// @Param request body dto.DispatchRequest true "Conversion target"
// @Security Bearer
// @Success 201 {object} dto.DispatchResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/inbox/{id}/dispatch [post]
func (h *InboxHandler) Dispatch(c *fiber.Ctx) error {
	userID, fileID, err := h.parseIDs(c)
	if err != nil {
		return err
	}

	var req dto.DispatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	resp, err := h.inboxService.Dispatch(c.Context(), userID, fileID, req.Target)
	if err != nil {
		return respondError(c, h.logger, err, "Dispatch file")
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Delete godoc
// @Summary Delete an inbox file
// @Tags inbox
// @Param id path string true "File ID"
// @Security Bearer
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/inbox/{id} [delete]
func (h *InboxHandler) Delete(c *fiber.Ctx) error {
	userID, fileID, err := h.parseIDs(c)
	if err != nil {
		return err
	}

	if err := h.inboxService.Delete(c.Context(), userID, fileID); err != nil {
		return respondError(c, h.logger, err, "Delete file")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Stats godoc
// @Summary Inbox status counts
// @Tags inbox
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.StatsResponse
// @Router /api/v1/inbox/stats [get]
func (h *InboxHandler) Stats(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	resp, err := h.inboxService.Stats(c.Context(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "Get stats")
	}

	return c.JSON(resp)
}

// Engines godoc
// @Summary List OCR engines
// @Tags ocr
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.OCREnginesResponse
// @Router /api/v1/ocr/engines [get]
func (h *InboxHandler) Engines(c *fiber.Ctx) error {
	if _, err := getUserID(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}
	return c.JSON(h.inboxService.Engines())
}

func (h *InboxHandler) parseIDs(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	return parsePathID(c, "Invalid file ID")
}
