package service

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/google/uuid"
)

var _ = Describe("paymentFromInput", func() {
	var userID uuid.UUID

	BeforeEach(func() {
		userID = uuid.New()
	})

	It("returns nil for a nil payload", func() {
		p, err := paymentFromInput(nil, userID)
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeNil())
	})

	It("returns nil when any required field is missing", func() {
		input := completePaymentInput()
		input.PaymentMethodID = nil
		p, err := paymentFromInput(input, userID)
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(BeNil())
	})

	It("builds a payment from a complete payload", func() {
		p, err := paymentFromInput(completePaymentInput(), userID)
		Expect(err).NotTo(HaveOccurred())
		Expect(p).NotTo(BeNil())
		Expect(p.UserID).To(Equal(userID))
		Expect(p.Amount).To(Equal(42.50))
		Expect(p.Currency).To(Equal("EUR"))
		Expect(p.InvoiceDate.Format(dateLayout)).To(Equal("2026-03-14"))
	})

	It("treats the comment as optional", func() {
		input := completePaymentInput()
		comment := "paid at the branch"
		input.Comment = &comment
		p, err := paymentFromInput(input, userID)
		Expect(err).NotTo(HaveOccurred())
		Expect(*p.Comment).To(Equal("paid at the branch"))
	})

	It("fails on a malformed date in a complete payload", func() {
		input := completePaymentInput()
		bad := "2026/03/14"
		input.PaymentDate = &bad
		_, err := paymentFromInput(input, userID)
		Expect(err).To(MatchError(ErrInvalidDate))
	})
})

var _ = Describe("sortClause", func() {
	allowed := map[string]string{"uploaded_at": "uploaded_at", "amount": "amount"}

	It("maps an allowed key with direction", func() {
		Expect(sortClause("amount", "asc", allowed, "uploaded_at DESC")).To(Equal("amount ASC"))
	})

	It("defaults to descending", func() {
		Expect(sortClause("amount", "", allowed, "uploaded_at DESC")).To(Equal("amount DESC"))
	})

	It("falls back on unknown keys", func() {
		Expect(sortClause("checksum; DROP TABLE", "asc", allowed, "uploaded_at DESC")).To(Equal("uploaded_at DESC"))
	})
})

var _ = Describe("normalizePage", func() {
	It("applies defaults", func() {
		limit, offset := normalizePage(0, -5)
		Expect(limit).To(Equal(20))
		Expect(offset).To(Equal(0))
	})

	It("caps oversized limits", func() {
		limit, _ := normalizePage(1000, 0)
		Expect(limit).To(Equal(20))
	})

	It("passes sane values through", func() {
		limit, offset := normalizePage(50, 10)
		Expect(limit).To(Equal(50))
		Expect(offset).To(Equal(10))
	})
})

var _ = Describe("sanitizeUTF8", func() {
	It("leaves valid strings alone", func() {
		Expect(sanitizeUTF8("Gruße from the café")).To(Equal("Gruße from the café"))
	})

	It("strips invalid byte sequences", func() {
		Expect(sanitizeUTF8("ok\xffbad")).To(Equal("okbad"))
	})
})

var _ = Describe("toReceiptResponse", func() {
	It("formats optional fields only when set", func() {
		p, err := paymentFromInput(completePaymentInput(), uuid.New())
		Expect(err).NotTo(HaveOccurred())
		resp := toPaymentResponse(p)
		Expect(resp.BillID).To(BeEmpty())
		Expect(resp.ReceiptID).To(BeEmpty())
		Expect(resp.PaymentDate).To(Equal("2026-03-20"))
	})
})
