package service

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("parseAmount", func() {
	It("prefers a labeled total over line items", func() {
		text := "Item A $12.00\nItem B $3.50\nTotal: $15.50"
		Expect(parseAmount(text)).To(HaveValue(Equal(15.50)))
	})

	It("reads thousand-grouped amounts", func() {
		Expect(parseAmount("Total: 1,234.56")).To(HaveValue(Equal(1234.56)))
	})

	It("reads European decimal commas", func() {
		Expect(parseAmount("Betrag: 1.234,56")).To(HaveValue(Equal(1234.56)))
	})

	It("falls back to currency-marked numbers without a label", func() {
		Expect(parseAmount("Paid €42.50 by card")).To(HaveValue(Equal(42.50)))
	})

	It("takes the largest candidate", func() {
		text := "Subtotal: $10.00\nTotal: $12.50"
		Expect(parseAmount(text)).To(HaveValue(Equal(12.50)))
	})

	It("returns nil when no amount is present", func() {
		Expect(parseAmount("thank you for your visit")).To(BeNil())
	})

	It("ignores bare numbers without currency context", func() {
		Expect(parseAmount("order 123456 ref 789")).To(BeNil())
	})
})

var _ = Describe("parseDocDate", func() {
	It("reads ISO dates", func() {
		got := parseDocDate("Invoice date: 2026-03-14")
		Expect(got).To(HaveValue(Equal(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))))
	})

	It("reads day-first slashed dates", func() {
		got := parseDocDate("Datum: 14/03/2026")
		Expect(got).To(HaveValue(Equal(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))))
	})

	It("swaps to month-first when day-first is impossible", func() {
		got := parseDocDate("Date: 03/14/2026")
		Expect(got).To(HaveValue(Equal(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))))
	})

	It("returns nil for nonsense numbers", func() {
		Expect(parseDocDate("ref 99/99/2026")).To(BeNil())
	})

	It("returns nil when no date is present", func() {
		Expect(parseDocDate("no dates here")).To(BeNil())
	})
})

var _ = Describe("parseProvider", func() {
	It("takes the first substantial line", func() {
		text := "ACME Utilities GmbH\nInvoice 42\nTotal: $10.00"
		Expect(parseProvider(text)).To(HaveValue(Equal("ACME Utilities GmbH")))
	})

	It("skips short or numeric noise lines", func() {
		text := "--\n42\nCorner Cafe\nTotal 5.00"
		Expect(parseProvider(text)).To(HaveValue(Equal("Corner Cafe")))
	})

	It("returns nil for empty text", func() {
		Expect(parseProvider("")).To(BeNil())
	})
})
