package service

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"paperledger/internal/dto"
	"paperledger/internal/models"
	"paperledger/pkg/config"

	"github.com/google/uuid"
)

func testUploadConfig() config.UploadConfig {
	return config.UploadConfig{
		Dir:          "uploads",
		MaxSizeBytes: 1024,
		AllowedExts:  []string{"pdf", "jpg", "png"},
	}
}

var _ = Describe("InboxService", func() {
	var (
		files    *mockIncomingFileStore
		blobs    *mockFileStore
		ocr      *mockOCR
		bills    *mockBillStore
		receipts *mockReceiptStore
		payments *mockPaymentStore
		inbox    *InboxService
		userID   uuid.UUID
		ctx      context.Context
	)

	BeforeEach(func() {
		files = newMockIncomingFileStore()
		blobs = newMockFileStore()
		ocr = newMockOCR()
		bills = newMockBillStore()
		receipts = newMockReceiptStore()
		payments = newMockPaymentStore()
		conversions := NewConversionService(&mockConversionStore{
			files:    files,
			bills:    bills,
			receipts: receipts,
			payments: payments,
		}, testLogger())
		inbox = NewInboxService(files, blobs, ocr, conversions, testUploadConfig(), testLogger())
		userID = uuid.New()
		ctx = context.Background()
	})

	upload := func(name string, data []byte) (*dto.IncomingFileResponse, error) {
		return inbox.Upload(ctx, userID, name, data)
	}

	Describe("Upload", func() {
		When("the file is valid", func() {
			var resp *dto.IncomingFileResponse
			var err error

			BeforeEach(func() {
				resp, err = upload("invoice.pdf", []byte("pdf bytes"))
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should start in the new state", func() {
				Expect(resp.Status).To(Equal("new"))
			})

			It("should record the checksum", func() {
				Expect(resp.Checksum).To(HaveLen(64))
			})

			It("should store the blob", func() {
				Expect(blobs.files).To(HaveLen(1))
			})
		})

		When("the same content is uploaded twice", func() {
			var err error

			BeforeEach(func() {
				_, err = upload("invoice.pdf", []byte("same bytes"))
				Expect(err).NotTo(HaveOccurred())
				_, err = upload("renamed.pdf", []byte("same bytes"))
			})

			It("reports a duplicate", func() {
				Expect(err).To(MatchError(ErrDuplicateUpload))
			})

			It("keeps exactly one record", func() {
				Expect(files.files).To(HaveLen(1))
			})

			It("removes the second blob", func() {
				Expect(blobs.files).To(HaveLen(1))
			})
		})

		When("the extension is not allowed", func() {
			It("rejects the upload", func() {
				_, err := upload("notes.txt", []byte("text"))
				Expect(err).To(MatchError(ErrInvalidFileType))
			})
		})

		When("the file exceeds the size limit", func() {
			It("rejects the upload", func() {
				_, err := upload("big.pdf", make([]byte, 2048))
				Expect(err).To(MatchError(ErrFileTooLarge))
			})
		})

		When("identical content is uploaded by different users", func() {
			It("accepts both", func() {
				_, err := upload("invoice.pdf", []byte("shared bytes"))
				Expect(err).NotTo(HaveOccurred())
				_, err = inbox.Upload(ctx, uuid.New(), "invoice.pdf", []byte("shared bytes"))
				Expect(err).NotTo(HaveOccurred())
				Expect(files.files).To(HaveLen(2))
			})
		})
	})

	Describe("TriggerOCR", func() {
		var fileID uuid.UUID

		BeforeEach(func() {
			resp, err := upload("scan.jpg", []byte("image bytes"))
			Expect(err).NotTo(HaveOccurred())
			fileID = uuid.MustParse(resp.ID)
		})

		When("no engine is configured", func() {
			BeforeEach(func() {
				ocr.available = false
			})

			It("succeeds without triggering", func() {
				resp, err := inbox.TriggerOCR(ctx, userID, fileID)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Triggered).To(BeFalse())
				Expect(resp.Reason).NotTo(BeEmpty())
			})

			It("leaves the file untouched", func() {
				_, _ = inbox.TriggerOCR(ctx, userID, fileID)
				Expect(files.status(fileID)).To(Equal(models.FileStatusNew))
			})
		})

		When("extraction succeeds", func() {
			It("moves the file to done with extracted fields", func() {
				resp, err := inbox.TriggerOCR(ctx, userID, fileID)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Triggered).To(BeTrue())

				Eventually(func() models.FileStatus {
					return files.status(fileID)
				}).Should(Equal(models.FileStatusDone))

				f, err := files.GetByIDAndUser(ctx, fileID, userID)
				Expect(err).NotTo(HaveOccurred())
				Expect(f.OCRText).NotTo(BeNil())
				Expect(*f.Amount).To(Equal(42.50))
				Expect(*f.Provider).To(Equal("ACME Utilities"))
			})
		})

		When("extraction fails", func() {
			BeforeEach(func() {
				ocr.extractErr = errors.New("engine crashed")
			})

			It("moves the file to failed with the reason", func() {
				_, err := inbox.TriggerOCR(ctx, userID, fileID)
				Expect(err).NotTo(HaveOccurred())

				Eventually(func() models.FileStatus {
					return files.status(fileID)
				}).Should(Equal(models.FileStatusFailed))

				f, _ := files.GetByIDAndUser(ctx, fileID, userID)
				Expect(*f.FailureReason).To(ContainSubstring("engine crashed"))
			})

			It("allows a retry that then succeeds", func() {
				_, err := inbox.TriggerOCR(ctx, userID, fileID)
				Expect(err).NotTo(HaveOccurred())
				Eventually(func() models.FileStatus {
					return files.status(fileID)
				}).Should(Equal(models.FileStatusFailed))

				ocr.extractErr = nil
				resp, err := inbox.RetryOCR(ctx, userID, fileID)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Triggered).To(BeTrue())

				Eventually(func() models.FileStatus {
					return files.status(fileID)
				}).Should(Equal(models.FileStatusDone))
			})
		})

		When("the file belongs to another user", func() {
			It("reports not found", func() {
				_, err := inbox.TriggerOCR(ctx, uuid.New(), fileID)
				Expect(err).To(MatchError(ErrNotFound))
			})
		})

		When("retrying a file that has not failed", func() {
			It("refuses the transition", func() {
				_, err := inbox.RetryOCR(ctx, userID, fileID)
				Expect(err).To(MatchError(ErrInvalidTransition))
			})
		})
	})

	Describe("Approve and Reject", func() {
		var fileID uuid.UUID

		BeforeEach(func() {
			resp, err := upload("invoice.pdf", []byte("bytes"))
			Expect(err).NotTo(HaveOccurred())
			fileID = uuid.MustParse(resp.ID)
		})

		It("approves a new file", func() {
			resp, err := inbox.Approve(ctx, userID, fileID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal("approved"))
		})

		It("rejects a new file", func() {
			resp, err := inbox.Reject(ctx, userID, fileID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal("rejected"))
		})

		It("refuses to approve twice", func() {
			_, err := inbox.Approve(ctx, userID, fileID)
			Expect(err).NotTo(HaveOccurred())
			_, err = inbox.Approve(ctx, userID, fileID)
			Expect(err).To(MatchError(ErrInvalidTransition))
		})
	})

	Describe("Dispatch", func() {
		var fileID uuid.UUID

		BeforeEach(func() {
			resp, err := upload("invoice.pdf", []byte("bytes"))
			Expect(err).NotTo(HaveOccurred())
			fileID = uuid.MustParse(resp.ID)
		})

		When("the file is not approved", func() {
			It("refuses the conversion", func() {
				_, err := inbox.Dispatch(ctx, userID, fileID, TargetBill)
				Expect(err).To(MatchError(ErrInvalidTransition))
			})
		})

		When("the file is approved", func() {
			BeforeEach(func() {
				_, err := inbox.Approve(ctx, userID, fileID)
				Expect(err).NotTo(HaveOccurred())
			})

			It("converts to a bill", func() {
				resp, err := inbox.Dispatch(ctx, userID, fileID, TargetBill)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Target).To(Equal(TargetBill))
				Expect(resp.Bill).NotTo(BeNil())
				Expect(resp.Bill.SourceFileID).To(Equal(fileID.String()))
			})

			It("converts to a receipt", func() {
				resp, err := inbox.Dispatch(ctx, userID, fileID, TargetReceipt)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Receipt).NotTo(BeNil())
			})

			It("marks the source file converted", func() {
				_, err := inbox.Dispatch(ctx, userID, fileID, TargetBill)
				Expect(err).NotTo(HaveOccurred())
				Expect(files.status(fileID)).To(Equal(models.FileStatusConverted))
			})

			It("refuses a second conversion", func() {
				_, err := inbox.Dispatch(ctx, userID, fileID, TargetBill)
				Expect(err).NotTo(HaveOccurred())
				_, err = inbox.Dispatch(ctx, userID, fileID, TargetReceipt)
				Expect(err).To(MatchError(ErrInvalidTransition))
			})

			It("rejects an unknown target", func() {
				_, err := inbox.Dispatch(ctx, userID, fileID, "ledger")
				Expect(err).To(MatchError(ErrUnknownTarget))
			})

			It("excludes converted files from listings", func() {
				_, err := inbox.Dispatch(ctx, userID, fileID, TargetBill)
				Expect(err).NotTo(HaveOccurred())
				listed, err := inbox.List(ctx, userID, "", 0, 0, "", "")
				Expect(err).NotTo(HaveOccurred())
				Expect(listed).To(BeEmpty())
			})
		})
	})

	Describe("UpdateFields", func() {
		var fileID uuid.UUID

		BeforeEach(func() {
			resp, err := upload("invoice.pdf", []byte("bytes"))
			Expect(err).NotTo(HaveOccurred())
			fileID = uuid.MustParse(resp.ID)
		})

		It("applies manual corrections", func() {
			amount := 19.99
			date := "2026-02-01"
			resp, err := inbox.UpdateFields(ctx, userID, fileID, &dto.UpdateIncomingFileRequest{
				Amount:  &amount,
				DocDate: &date,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(*resp.Amount).To(Equal(19.99))
			Expect(resp.DocDate).To(Equal("2026-02-01"))
		})

		It("rejects malformed dates", func() {
			date := "01/02/2026"
			_, err := inbox.UpdateFields(ctx, userID, fileID, &dto.UpdateIncomingFileRequest{
				DocDate: &date,
			})
			Expect(err).To(MatchError(ErrInvalidDate))
		})

		It("refuses edits on converted files", func() {
			_, err := inbox.Approve(ctx, userID, fileID)
			Expect(err).NotTo(HaveOccurred())
			_, err = inbox.Dispatch(ctx, userID, fileID, TargetBill)
			Expect(err).NotTo(HaveOccurred())

			amount := 5.0
			_, err = inbox.UpdateFields(ctx, userID, fileID, &dto.UpdateIncomingFileRequest{Amount: &amount})
			Expect(err).To(MatchError(ErrInvalidTransition))
		})
	})

	Describe("Delete", func() {
		var fileID uuid.UUID
		var storePath string

		BeforeEach(func() {
			resp, err := upload("invoice.pdf", []byte("bytes"))
			Expect(err).NotTo(HaveOccurred())
			fileID = uuid.MustParse(resp.ID)
			f, err := files.GetByIDAndUser(ctx, fileID, userID)
			Expect(err).NotTo(HaveOccurred())
			storePath = f.StorePath
		})

		It("removes the record and the blob", func() {
			Expect(inbox.Delete(ctx, userID, fileID)).To(Succeed())
			Expect(files.files).To(BeEmpty())
			Expect(blobs.has(storePath)).To(BeFalse())
		})

		It("still removes the record when the blob delete fails", func() {
			blobs.deleteErr = errors.New("disk error")
			Expect(inbox.Delete(ctx, userID, fileID)).To(Succeed())
			Expect(files.files).To(BeEmpty())
		})

		It("refuses deleting converted files", func() {
			_, err := inbox.Approve(ctx, userID, fileID)
			Expect(err).NotTo(HaveOccurred())
			_, err = inbox.Dispatch(ctx, userID, fileID, TargetBill)
			Expect(err).NotTo(HaveOccurred())

			Expect(inbox.Delete(ctx, userID, fileID)).To(MatchError(ErrInvalidTransition))
		})

		It("refuses deleting another user's file", func() {
			Expect(inbox.Delete(ctx, uuid.New(), fileID)).To(MatchError(ErrNotFound))
		})
	})

	Describe("Stats", func() {
		It("counts files per status", func() {
			_, err := upload("a.pdf", []byte("a"))
			Expect(err).NotTo(HaveOccurred())
			resp, err := upload("b.pdf", []byte("b"))
			Expect(err).NotTo(HaveOccurred())
			_, err = inbox.Approve(ctx, userID, uuid.MustParse(resp.ID))
			Expect(err).NotTo(HaveOccurred())

			stats, err := inbox.Stats(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Counts).To(HaveKeyWithValue("new", int64(1)))
			Expect(stats.Counts).To(HaveKeyWithValue("approved", int64(1)))
		})
	})
})
