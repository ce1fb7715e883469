package service

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"paperledger/internal/dto"
	"paperledger/internal/models"

	"github.com/google/uuid"
)

var _ = Describe("ReceiptService", func() {
	var (
		files      *mockIncomingFileStore
		blobs      *mockFileStore
		bills      *mockBillStore
		receipts   *mockReceiptStore
		payments   *mockPaymentStore
		inbox      *InboxService
		receiptSvc *ReceiptService
		userID     uuid.UUID
		receiptID  uuid.UUID
		fileID     uuid.UUID
		ctx        context.Context
	)

	makeBill := func() uuid.UUID {
		resp, err := inbox.Upload(ctx, userID, "bill.pdf", []byte("bill content"))
		Expect(err).NotTo(HaveOccurred())
		id := uuid.MustParse(resp.ID)
		_, err = inbox.Approve(ctx, userID, id)
		Expect(err).NotTo(HaveOccurred())
		dispatched, err := inbox.Dispatch(ctx, userID, id, TargetBill)
		Expect(err).NotTo(HaveOccurred())
		return uuid.MustParse(dispatched.Bill.ID)
	}

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
		receiptSvc = NewReceiptService(receipts, bills, payments, conversions, blobs, testLogger())
		userID = uuid.New()
		ctx = context.Background()

		resp, err := inbox.Upload(ctx, userID, "receipt.jpg", []byte("receipt content"))
		Expect(err).NotTo(HaveOccurred())
		fileID = uuid.MustParse(resp.ID)
		_, err = inbox.Approve(ctx, userID, fileID)
		Expect(err).NotTo(HaveOccurred())
		dispatched, err := inbox.Dispatch(ctx, userID, fileID, TargetReceipt)
		Expect(err).NotTo(HaveOccurred())
		receiptID = uuid.MustParse(dispatched.Receipt.ID)
	})

	Describe("Associate", func() {
		It("links the receipt to an owned bill", func() {
			billID := makeBill()
			resp, err := receiptSvc.Associate(ctx, userID, receiptID, billID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.BillID).To(Equal(billID.String()))
		})

		It("refuses a bill owned by another user", func() {
			billID := makeBill()
			bills.mu.Lock()
			bills.bills[billID].UserID = uuid.New()
			bills.mu.Unlock()

			_, err := receiptSvc.Associate(ctx, userID, receiptID, billID)
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("refuses a nonexistent bill", func() {
			_, err := receiptSvc.Associate(ctx, userID, receiptID, uuid.New())
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("Disassociate", func() {
		It("clears the bill link", func() {
			billID := makeBill()
			_, err := receiptSvc.Associate(ctx, userID, receiptID, billID)
			Expect(err).NotTo(HaveOccurred())

			resp, err := receiptSvc.Disassociate(ctx, userID, receiptID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.BillID).To(BeEmpty())
		})
	})

	Describe("Accept", func() {
		When("no payload is supplied", func() {
			It("accepts without creating a payment", func() {
				resp, err := receiptSvc.Accept(ctx, userID, receiptID, &dto.AcceptReceiptRequest{})
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Accepted).To(BeTrue())
				Expect(resp.PaymentID).To(BeEmpty())
				Expect(payments.count()).To(BeZero())
			})
		})

		When("a complete payment payload is supplied", func() {
			It("creates a payment referencing the receipt", func() {
				resp, err := receiptSvc.Accept(ctx, userID, receiptID,
					&dto.AcceptReceiptRequest{Payment: completePaymentInput()})
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.PaymentID).NotTo(BeEmpty())

				listed, err := payments.ListByUser(ctx, userID, 10, 0)
				Expect(err).NotTo(HaveOccurred())
				Expect(listed).To(HaveLen(1))
				Expect(*listed[0].ReceiptID).To(Equal(receiptID))
				Expect(listed[0].BillID).To(BeNil())
			})
		})

		When("a bill link is included", func() {
			It("associates before recording the payment", func() {
				billID := makeBill()
				billStr := billID.String()
				resp, err := receiptSvc.Accept(ctx, userID, receiptID, &dto.AcceptReceiptRequest{
					BillID:  &billStr,
					Payment: completePaymentInput(),
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.BillID).To(Equal(billStr))

				rc, err := receipts.GetByIDAndUser(ctx, receiptID, userID)
				Expect(err).NotTo(HaveOccurred())
				Expect(*rc.BillID).To(Equal(billID))
			})
		})

		When("the payload is incomplete", func() {
			It("accepts without a payment", func() {
				input := completePaymentInput()
				input.Amount = nil
				resp, err := receiptSvc.Accept(ctx, userID, receiptID,
					&dto.AcceptReceiptRequest{Payment: input})
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.Accepted).To(BeTrue())
				Expect(payments.count()).To(BeZero())
			})
		})

		When("a racing accept slips past the existence check", func() {
			It("is refused by the payment insert", func() {
				payments.staleExists = true
				_, err := receiptSvc.Accept(ctx, userID, receiptID,
					&dto.AcceptReceiptRequest{Payment: completePaymentInput()})
				Expect(err).NotTo(HaveOccurred())

				_, err = receiptSvc.Accept(ctx, userID, receiptID,
					&dto.AcceptReceiptRequest{Payment: completePaymentInput()})
				Expect(err).To(MatchError(ErrInvalidTransition))
				Expect(payments.count()).To(Equal(1))
			})
		})

		When("the receipt already has a payment", func() {
			It("refuses a second accept", func() {
				_, err := receiptSvc.Accept(ctx, userID, receiptID,
					&dto.AcceptReceiptRequest{Payment: completePaymentInput()})
				Expect(err).NotTo(HaveOccurred())

				_, err = receiptSvc.Accept(ctx, userID, receiptID,
					&dto.AcceptReceiptRequest{Payment: completePaymentInput()})
				Expect(err).To(MatchError(ErrInvalidTransition))
				Expect(payments.count()).To(Equal(1))
			})
		})
	})

	Describe("Update", func() {
		It("applies field edits", func() {
			merchant := "Corner Cafe"
			paidOn := "2026-04-02"
			resp, err := receiptSvc.Update(ctx, userID, receiptID, &dto.UpdateReceiptRequest{
				Merchant: &merchant,
				PaidOn:   &paidOn,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Merchant).To(Equal("Corner Cafe"))
			Expect(resp.PaidOn).To(Equal("2026-04-02"))
		})

		It("rejects malformed dates", func() {
			paidOn := "April 2"
			_, err := receiptSvc.Update(ctx, userID, receiptID, &dto.UpdateReceiptRequest{PaidOn: &paidOn})
			Expect(err).To(MatchError(ErrInvalidDate))
		})
	})

	Describe("Revert", func() {
		It("removes the receipt and reopens the source file", func() {
			resp, err := receiptSvc.Revert(ctx, userID, receiptID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.ID).To(Equal(fileID.String()))
			Expect(resp.Status).To(Equal("new"))
			Expect(receipts.receipts).To(BeEmpty())
		})

		It("refuses when a payment references the receipt", func() {
			_, err := receiptSvc.Accept(ctx, userID, receiptID,
				&dto.AcceptReceiptRequest{Payment: completePaymentInput()})
			Expect(err).NotTo(HaveOccurred())

			_, err = receiptSvc.Revert(ctx, userID, receiptID)
			Expect(err).To(MatchError(ErrHasPayments))
		})

		It("refuses receipts without a source file", func() {
			manual := &models.Receipt{ID: uuid.New(), UserID: userID}
			Expect(receipts.Create(ctx, manual)).To(Succeed())

			_, err := receiptSvc.Revert(ctx, userID, manual.ID)
			Expect(err).To(MatchError(ErrInvalidTransition))
		})
	})

	Describe("Delete", func() {
		It("removes the receipt, the source record and the blob", func() {
			Expect(receiptSvc.Delete(ctx, userID, receiptID)).To(Succeed())
			Expect(receipts.receipts).To(BeEmpty())
			Expect(files.files).To(BeEmpty())
			Expect(blobs.files).To(BeEmpty())
		})

		It("refuses when a payment references the receipt", func() {
			_, err := receiptSvc.Accept(ctx, userID, receiptID,
				&dto.AcceptReceiptRequest{Payment: completePaymentInput()})
			Expect(err).NotTo(HaveOccurred())

			Expect(receiptSvc.Delete(ctx, userID, receiptID)).To(MatchError(ErrHasPayments))
		})
	})

	Describe("Stats", func() {
		It("splits associated and standalone receipts", func() {
			billID := makeBill()
			_, err := receiptSvc.Associate(ctx, userID, receiptID, billID)
			Expect(err).NotTo(HaveOccurred())

			manual := &models.Receipt{ID: uuid.New(), UserID: userID}
			Expect(receipts.Create(ctx, manual)).To(Succeed())

			stats, err := receiptSvc.Stats(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Total).To(Equal(int64(2)))
			Expect(stats.Associated).To(Equal(int64(1)))
			Expect(stats.Standalone).To(Equal(int64(1)))
		})
	})
})
