package service

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"paperledger/internal/dto"
	"paperledger/internal/models"

	"github.com/google/uuid"
)

func completePaymentInput() *dto.PaymentInput {
	spID := int64(7)
	pmID := int64(2)
	amount := 42.50
	currency := "EUR"
	invoiceDate := "2026-03-14"
	paymentDate := "2026-03-20"
	return &dto.PaymentInput{
		ServiceProviderID: &spID,
		PaymentMethodID:   &pmID,
		Amount:            &amount,
		Currency:          &currency,
		InvoiceDate:       &invoiceDate,
		PaymentDate:       &paymentDate,
	}
}

var _ = Describe("BillService", func() {
	var (
		files    *mockIncomingFileStore
		blobs    *mockFileStore
		bills    *mockBillStore
		receipts *mockReceiptStore
		payments *mockPaymentStore
		inbox    *InboxService
		billSvc  *BillService
		userID   uuid.UUID
		billID   uuid.UUID
		fileID   uuid.UUID
		ctx      context.Context
	)

	BeforeEach(func() {
		files = newMockIncomingFileStore()
		blobs = newMockFileStore()
		bills = newMockBillStore()
		receipts = newMockReceiptStore()
		payments = newMockPaymentStore()
		conversions := NewConversionService(&mockConversionStore{
			files:    files,
			bills:    bills,
			receipts: receipts,
			payments: payments,
		}, testLogger())
		inbox = NewInboxService(files, blobs, newMockOCR(), conversions, testUploadConfig(), testLogger())
		billSvc = NewBillService(bills, payments, conversions, blobs, testLogger())
		userID = uuid.New()
		ctx = context.Background()

		resp, err := inbox.Upload(ctx, userID, "invoice.pdf", []byte("bill bytes"))
		Expect(err).NotTo(HaveOccurred())
		fileID = uuid.MustParse(resp.ID)
		_, err = inbox.TriggerOCR(ctx, userID, fileID)
		Expect(err).NotTo(HaveOccurred())
		Eventually(func() models.FileStatus {
			return files.status(fileID)
		}).Should(Equal(models.FileStatusDone))
		_, err = inbox.Approve(ctx, userID, fileID)
		Expect(err).NotTo(HaveOccurred())
		dispatched, err := inbox.Dispatch(ctx, userID, fileID, TargetBill)
		Expect(err).NotTo(HaveOccurred())
		billID = uuid.MustParse(dispatched.Bill.ID)
	})

	Describe("Approve", func() {
		When("no payment payload is supplied", func() {
			var resp *dto.BillApprovalResponse
			var err error

			BeforeEach(func() {
				resp, err = billSvc.Approve(ctx, userID, billID, &dto.ApproveBillRequest{})
			})

			It("approves the bill", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Approved).To(BeTrue())
			})

			It("creates no payment", func() {
				Expect(resp.PaymentID).To(BeEmpty())
				Expect(payments.count()).To(BeZero())
			})
		})

		When("a complete payment payload is supplied", func() {
			var resp *dto.BillApprovalResponse
			var err error

			BeforeEach(func() {
				resp, err = billSvc.Approve(ctx, userID, billID,
					&dto.ApproveBillRequest{Payment: completePaymentInput()})
			})

			It("approves and records the payment", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Approved).To(BeTrue())
				Expect(resp.PaymentID).NotTo(BeEmpty())
				Expect(payments.count()).To(Equal(1))
			})

			It("links the payment to the bill", func() {
				listed, err := payments.ListByUser(ctx, userID, 10, 0)
				Expect(err).NotTo(HaveOccurred())
				Expect(listed).To(HaveLen(1))
				Expect(*listed[0].BillID).To(Equal(billID))
				Expect(listed[0].ReceiptID).To(BeNil())
			})
		})

		When("the payment payload is incomplete", func() {
			It("approves without creating a payment", func() {
				input := completePaymentInput()
				input.Currency = nil
				resp, err := billSvc.Approve(ctx, userID, billID, &dto.ApproveBillRequest{Payment: input})
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Approved).To(BeTrue())
				Expect(resp.PaymentID).To(BeEmpty())
				Expect(payments.count()).To(BeZero())
			})
		})

		When("a complete payload carries a malformed date", func() {
			It("fails before approving", func() {
				input := completePaymentInput()
				bad := "14-03-2026"
				input.InvoiceDate = &bad
				_, err := billSvc.Approve(ctx, userID, billID, &dto.ApproveBillRequest{Payment: input})
				Expect(err).To(MatchError(ErrInvalidDate))

				b, getErr := bills.GetByIDAndUser(ctx, billID, userID)
				Expect(getErr).NotTo(HaveOccurred())
				Expect(b.Status).To(Equal(models.BillStatusNew))
			})
		})

		When("the draft fold fails", func() {
			It("aborts the approval with the status untouched", func() {
				bills.applyDraftErr = errors.New("fold refused")
				_, err := billSvc.Approve(ctx, userID, billID,
					&dto.ApproveBillRequest{Payment: completePaymentInput()})
				Expect(err).To(HaveOccurred())

				b, getErr := bills.GetByIDAndUser(ctx, billID, userID)
				Expect(getErr).NotTo(HaveOccurred())
				Expect(b.Status).To(Equal(models.BillStatusNew))
				Expect(payments.count()).To(BeZero())
			})
		})

		When("payment creation fails after approval", func() {
			It("reports the approval with the payment error", func() {
				payments.createErr = errors.New("insert refused")
				resp, err := billSvc.Approve(ctx, userID, billID,
					&dto.ApproveBillRequest{Payment: completePaymentInput()})
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Approved).To(BeTrue())
				Expect(resp.PaymentError).To(ContainSubstring("insert refused"))

				b, _ := bills.GetByIDAndUser(ctx, billID, userID)
				Expect(b.Status).To(Equal(models.BillStatusApproved))
			})
		})

		When("the bill is already approved", func() {
			It("refuses a second approval", func() {
				_, err := billSvc.Approve(ctx, userID, billID, &dto.ApproveBillRequest{})
				Expect(err).NotTo(HaveOccurred())
				_, err = billSvc.Approve(ctx, userID, billID,
					&dto.ApproveBillRequest{Payment: completePaymentInput()})
				Expect(err).To(MatchError(ErrInvalidTransition))
				Expect(payments.count()).To(BeZero())
			})
		})
	})

	Describe("Update", func() {
		It("stages edits as a draft without touching live fields", func() {
			amount := 99.99
			resp, err := billSvc.Update(ctx, userID, billID, &dto.UpdateBillRequest{Amount: &amount})
			Expect(err).NotTo(HaveOccurred())
			Expect(*resp.DraftAmount).To(Equal(99.99))
			Expect(*resp.Amount).To(Equal(42.50))
		})

		It("folds the draft into the live fields on approval", func() {
			amount := 99.99
			_, err := billSvc.Update(ctx, userID, billID, &dto.UpdateBillRequest{Amount: &amount})
			Expect(err).NotTo(HaveOccurred())

			_, err = billSvc.Approve(ctx, userID, billID, &dto.ApproveBillRequest{})
			Expect(err).NotTo(HaveOccurred())

			b, err := bills.GetByIDAndUser(ctx, billID, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*b.Amount).To(Equal(99.99))
			Expect(b.DraftAmount).To(BeNil())
		})

		It("refuses edits after approval", func() {
			_, err := billSvc.Approve(ctx, userID, billID, &dto.ApproveBillRequest{})
			Expect(err).NotTo(HaveOccurred())
			amount := 1.0
			_, err = billSvc.Update(ctx, userID, billID, &dto.UpdateBillRequest{Amount: &amount})
			Expect(err).To(MatchError(ErrInvalidTransition))
		})
	})

	Describe("Reject", func() {
		It("rejects a pending bill", func() {
			resp, err := billSvc.Reject(ctx, userID, billID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal("rejected"))
		})

		It("refuses rejecting an approved bill", func() {
			_, err := billSvc.Approve(ctx, userID, billID, &dto.ApproveBillRequest{})
			Expect(err).NotTo(HaveOccurred())
			_, err = billSvc.Reject(ctx, userID, billID)
			Expect(err).To(MatchError(ErrInvalidTransition))
		})
	})

	Describe("Revert", func() {
		It("removes the bill and reopens the source file", func() {
			resp, err := billSvc.Revert(ctx, userID, billID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.ID).To(Equal(fileID.String()))
			Expect(resp.Status).To(Equal("new"))
			Expect(bills.bills).To(BeEmpty())
		})

		It("preserves the original upload metadata", func() {
			original, err := files.GetByIDAndUser(ctx, fileID, userID)
			Expect(err).NotTo(HaveOccurred())

			resp, err := billSvc.Revert(ctx, userID, billID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Checksum).To(Equal(original.Checksum))
			Expect(resp.FileName).To(Equal(original.FileName))
		})

		It("refuses when payments reference the bill", func() {
			_, err := billSvc.Approve(ctx, userID, billID,
				&dto.ApproveBillRequest{Payment: completePaymentInput()})
			Expect(err).NotTo(HaveOccurred())

			_, err = billSvc.Revert(ctx, userID, billID)
			Expect(err).To(MatchError(ErrHasPayments))
		})

		It("refuses reverting another user's bill", func() {
			_, err := billSvc.Revert(ctx, uuid.New(), billID)
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("Delete", func() {
		It("removes the bill, the source record and the blob", func() {
			Expect(billSvc.Delete(ctx, userID, billID)).To(Succeed())
			Expect(bills.bills).To(BeEmpty())
			Expect(files.files).To(BeEmpty())
			Expect(blobs.files).To(BeEmpty())
		})

		It("refuses when payments reference the bill", func() {
			_, err := billSvc.Approve(ctx, userID, billID,
				&dto.ApproveBillRequest{Payment: completePaymentInput()})
			Expect(err).NotTo(HaveOccurred())

			Expect(billSvc.Delete(ctx, userID, billID)).To(MatchError(ErrHasPayments))
			Expect(bills.bills).To(HaveLen(1))
		})
	})

	Describe("Stats", func() {
		It("counts bills per status", func() {
			stats, err := billSvc.Stats(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Counts).To(HaveKeyWithValue("new", int64(1)))
		})
	})
})
