package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"paperledger/internal/dto"
	"paperledger/internal/models"
	"paperledger/internal/repository"
	"paperledger/pkg/checksum"
	"paperledger/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Conversion targets a dispatched file can be classified as.
const (
	TargetBill    = "bill"
	TargetReceipt = "receipt"
)

var inboxSortColumns = map[string]string{
	"uploaded_at": "uploaded_at",
	"file_name":   "file_name",
	"status":      "status",
	"amount":      "amount",
}

// ocrTriggerStates and ocrRetryStates are deliberately distinct: trigger is
// the first attempt, retry re-runs a failed one. Both funnel into the same
// engine call.
var (
	ocrTriggerStates = []models.FileStatus{models.FileStatusNew, models.FileStatusFailed}
	ocrRetryStates   = []models.FileStatus{models.FileStatusFailed}
	reviewableStates = []models.FileStatus{
		models.FileStatusNew, models.FileStatusProcessing,
		models.FileStatusDone, models.FileStatusFailed,
	}
)

// InboxService owns the incoming file lifecycle: upload, OCR trigger and
// retry, review (approve/reject), dispatch toward conversion, and delete.
type InboxService struct {
	files       IncomingFileStore
	storage     FileStore
	ocr         OCRGateway
	conversions *ConversionService
	uploadCfg   config.UploadConfig
	logger      *zap.Logger
}

func NewInboxService(
	files IncomingFileStore,
	storage FileStore,
	ocr OCRGateway,
	conversions *ConversionService,
	uploadCfg config.UploadConfig,
	logger *zap.Logger,
) *InboxService {
	return &InboxService{
		files:       files,
		storage:     storage,
		ocr:         ocr,
		conversions: conversions,
		uploadCfg:   uploadCfg,
		logger:      logger,
	}
}

// Upload validates, stores and registers a new document. The (user,
// checksum) unique constraint is the dedup primitive: a repeated upload
// leaves exactly one row behind and reports ErrDuplicateUpload.
func (s *InboxService) Upload(ctx context.Context, userID uuid.UUID, fileName string, data []byte) (*dto.IncomingFileResponse, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if !s.extAllowed(ext) {
		return nil, ErrInvalidFileType
	}
	if int64(len(data)) > s.uploadCfg.MaxSizeBytes {
		return nil, ErrFileTooLarge
	}

	id := uuid.New()
	storeName := filepath.Join(userID.String(), id.String()+"."+ext)
	storePath, err := s.storage.Save(storeName, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	now := time.Now()
	f := &models.IncomingFile{
		ID:         id,
		UserID:     userID,
		FileName:   fileName,
		StorePath:  storePath,
		Checksum:   checksum.SHA256(data),
		Status:     models.FileStatusNew,
		UploadedAt: now,
		UpdatedAt:  now,
	}

	if err := s.files.Create(ctx, f); err != nil {
		// The blob was written before the row; undo it so a rejected
		// upload leaves no orphan on disk.
		if delErr := s.storage.Delete(storePath); delErr != nil {
			s.logger.Warn("Failed to remove stored file after create failure",
				zap.String("path", storePath), zap.Error(delErr))
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateUpload
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	s.logger.Info("File uploaded",
		zap.String("file_id", f.ID.String()),
		zap.String("file_name", f.FileName),
		zap.Int("size", len(data)),
	)
	return toIncomingFileResponse(f), nil
}

// TriggerOCR starts extraction for a new or previously failed file. When
// no engine is configured the call succeeds with triggered=false and the
// file state is left untouched.
func (s *InboxService) TriggerOCR(ctx context.Context, userID, fileID uuid.UUID) (*dto.OCRTriggerResponse, error) {
	return s.startOCR(ctx, userID, fileID, ocrTriggerStates)
}

// RetryOCR re-runs extraction, allowed only from the failed state.
func (s *InboxService) RetryOCR(ctx context.Context, userID, fileID uuid.UUID) (*dto.OCRTriggerResponse, error) {
	return s.startOCR(ctx, userID, fileID, ocrRetryStates)
}

func (s *InboxService) startOCR(ctx context.Context, userID, fileID uuid.UUID, from []models.FileStatus) (*dto.OCRTriggerResponse, error) {
	if !s.ocr.Available() {
		return &dto.OCRTriggerResponse{
			Triggered: false,
			Reason:    "no OCR engine configured",
		}, nil
	}

	f, err := s.files.GetByIDAndUser(ctx, fileID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	ok, err := s.files.UpdateStatus(ctx, fileID, userID, from, models.FileStatusProcessing)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	// Extraction outlives the request: the caller gets "triggered" now
	// and the row moves to done/failed out of band.
	go s.runExtraction(context.Background(), f)

	return &dto.OCRTriggerResponse{
		Triggered: true,
		Status:    string(models.FileStatusProcessing),
	}, nil
}

func (s *InboxService) runExtraction(ctx context.Context, f *models.IncomingFile) {
	data, err := s.storage.Get(f.StorePath)
	if err != nil {
		s.failExtraction(ctx, f.ID, fmt.Sprintf("reading stored file: %v", err))
		return
	}

	fields, err := s.ocr.Extract(ctx, data, f.FileName)
	if err != nil {
		s.failExtraction(ctx, f.ID, err.Error())
		return
	}

	if err := s.files.SetOCRSuccess(ctx, f.ID, sanitizeUTF8(fields.RawText),
		fields.Amount, fields.DocDate, fields.Provider); err != nil {
		s.logger.Error("Failed to record OCR result",
			zap.String("file_id", f.ID.String()), zap.Error(err))
		return
	}

	s.logger.Info("OCR extraction completed",
		zap.String("file_id", f.ID.String()),
		zap.Int("text_length", len(fields.RawText)),
	)
}

func (s *InboxService) failExtraction(ctx context.Context, fileID uuid.UUID, reason string) {
	s.logger.Warn("OCR extraction failed",
		zap.String("file_id", fileID.String()),
		zap.String("reason", reason),
	)
	if err := s.files.SetOCRFailure(ctx, fileID, reason); err != nil {
		s.logger.Error("Failed to record OCR failure",
			zap.String("file_id", fileID.String()), zap.Error(err))
	}
}

// Approve marks a reviewed file ready for dispatch.
func (s *InboxService) Approve(ctx context.Context, userID, fileID uuid.UUID) (*dto.IncomingFileResponse, error) {
	return s.review(ctx, userID, fileID, models.FileStatusApproved)
}

// Reject closes the file without converting it.
func (s *InboxService) Reject(ctx context.Context, userID, fileID uuid.UUID) (*dto.IncomingFileResponse, error) {
	return s.review(ctx, userID, fileID, models.FileStatusRejected)
}

func (s *InboxService) review(ctx context.Context, userID, fileID uuid.UUID, to models.FileStatus) (*dto.IncomingFileResponse, error) {
	if _, err := s.files.GetByIDAndUser(ctx, fileID, userID); err != nil {
		return nil, mapRepoErr(err)
	}

	ok, err := s.files.UpdateStatus(ctx, fileID, userID, reviewableStates, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	f, err := s.files.GetByIDAndUser(ctx, fileID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return toIncomingFileResponse(f), nil
}

// Dispatch converts an approved file into the chosen target entity.
func (s *InboxService) Dispatch(ctx context.Context, userID, fileID uuid.UUID, target string) (*dto.DispatchResponse, error) {
	f, err := s.files.GetByIDAndUser(ctx, fileID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if f.Status != models.FileStatusApproved {
		return nil, ErrInvalidTransition
	}

	switch target {
	case TargetBill:
		bill, err := s.conversions.ConvertToBill(ctx, userID, fileID)
		if err != nil {
			return nil, err
		}
		return &dto.DispatchResponse{Target: TargetBill, Bill: bill}, nil
	case TargetReceipt:
		receipt, err := s.conversions.ConvertToReceipt(ctx, userID, fileID)
		if err != nil {
			return nil, err
		}
		return &dto.DispatchResponse{Target: TargetReceipt, Receipt: receipt}, nil
	default:
		return nil, ErrUnknownTarget
	}
}

// UpdateFields applies manual edits to the extracted fields.
func (s *InboxService) UpdateFields(ctx context.Context, userID, fileID uuid.UUID, req *dto.UpdateIncomingFileRequest) (*dto.IncomingFileResponse, error) {
	f, err := s.files.GetByIDAndUser(ctx, fileID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if f.Status == models.FileStatusConverted {
		return nil, ErrInvalidTransition
	}

	docDate, err := parseDatePtr(req.DocDate)
	if err != nil {
		return nil, err
	}
	if req.Amount != nil {
		f.Amount = req.Amount
	}
	if docDate != nil {
		f.DocDate = docDate
	}
	if req.Provider != nil {
		f.Provider = req.Provider
	}

	if err := s.files.UpdateFields(ctx, f); err != nil {
		return nil, mapRepoErr(err)
	}
	return toIncomingFileResponse(f), nil
}

// Delete removes the row first, then the blob: a failed blob delete leaves
// an orphan file on disk, never a row pointing at nothing.
func (s *InboxService) Delete(ctx context.Context, userID, fileID uuid.UUID) error {
	f, err := s.files.GetByIDAndUser(ctx, fileID, userID)
	if err != nil {
		return mapRepoErr(err)
	}
	if f.Status == models.FileStatusConverted {
		return ErrInvalidTransition
	}

	if err := s.files.Delete(ctx, fileID, userID); err != nil {
		return mapRepoErr(err)
	}

	if err := s.storage.Delete(f.StorePath); err != nil {
		s.logger.Warn("Failed to delete stored file",
			zap.String("path", f.StorePath), zap.Error(err))
	}
	return nil
}

func (s *InboxService) Get(ctx context.Context, userID, fileID uuid.UUID) (*dto.IncomingFileResponse, error) {
	f, err := s.files.GetByIDAndUser(ctx, fileID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return toIncomingFileResponse(f), nil
}

// GetFile returns the stored document bytes for the owning user.
func (s *InboxService) GetFile(ctx context.Context, userID, fileID uuid.UUID) ([]byte, string, error) {
	f, err := s.files.GetByIDAndUser(ctx, fileID, userID)
	if err != nil {
		return nil, "", mapRepoErr(err)
	}

	data, err := s.storage.Get(f.StorePath)
	if err != nil {
		return nil, "", fmt.Errorf("reading stored file: %w", err)
	}
	return data, f.FileName, nil
}

func (s *InboxService) List(ctx context.Context, userID uuid.UUID, status string, limit, offset int, sort, dir string) ([]*dto.IncomingFileResponse, error) {
	limit, offset = normalizePage(limit, offset)
	orderBy := sortClause(sort, dir, inboxSortColumns, "uploaded_at DESC")

	var statusFilter *models.FileStatus
	if status != "" {
		st := models.FileStatus(status)
		statusFilter = &st
	}

	files, err := s.files.ListByUser(ctx, userID, statusFilter, limit, offset, orderBy)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.IncomingFileResponse, len(files))
	for i, f := range files {
		responses[i] = toIncomingFileResponse(f)
	}
	return responses, nil
}

// Stats returns per-status counts for dashboard badges.
func (s *InboxService) Stats(ctx context.Context, userID uuid.UUID) (*dto.StatsResponse, error) {
	counts, err := s.files.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.StatsResponse{Counts: make(map[string]int64, len(counts))}
	for status, count := range counts {
		resp.Counts[string(status)] = count
	}
	return resp, nil
}

// Engines reports the configured extraction engines.
func (s *InboxService) Engines() *dto.OCREnginesResponse {
	return &dto.OCREnginesResponse{
		Available: s.ocr.Available(),
		Engines:   s.ocr.Engines(),
	}
}

func (s *InboxService) extAllowed(ext string) bool {
	for _, allowed := range s.uploadCfg.AllowedExts {
		if ext == allowed {
			return true
		}
	}
	return false
}

// mapRepoErr translates persistence signals into the service taxonomy.
func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrDuplicateUpload
	case errors.Is(err, repository.ErrAlreadyConverted),
		errors.Is(err, repository.ErrNotConvertible):
		return ErrInvalidTransition
	case errors.Is(err, repository.ErrHasPayments):
		return ErrHasPayments
	default:
		return err
	}
}
