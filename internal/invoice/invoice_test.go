package invoice_test

import (
	"encoding/json"
	"math"
	"time"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/invoice"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func num(f float64) *float64 {
	return &f
}

func validDraft() invoice.Draft {
	return invoice.Draft{
		ID:          "INV-0001",
		CompanyName: "Acme Power",
		Date:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Status:      invoice.StatusPending,
		LineItems: []invoice.LineItem{
			{ID: "r1", Description: "Generator service", Qty: num(1), UnitPrice: num(100)},
		},
	}
}

var _ = Describe("Line items", func() {
	DescribeTable("ParseNumber",
		func(input any, want *float64) {
			Expect(invoice.ParseNumber(input)).To(Equal(want))
		},
		Entry("nil", nil, nil),
		Entry("empty string", "", nil),
		Entry("blank string", "   ", nil),
		Entry("non numeric", "abc", nil),
		Entry("numeric string", "3", num(3)),
		Entry("decimal string", " 12.5 ", num(12.5)),
		Entry("negative string", "-4", num(-4)),
		Entry("float", 2.25, num(2.25)),
		Entry("int", 7, num(7)),
		Entry("json number", json.Number("9"), num(9)),
		Entry("nan", "NaN", nil),
		Entry("infinity", math.Inf(1), nil),
		Entry("bool", true, nil),
	)

	DescribeTable("LineTotal",
		func(item invoice.LineItem, want float64) {
			got := invoice.LineTotal(item)
			Expect(got).To(Equal(want))
			Expect(got).To(BeNumerically(">=", 0))
		},
		Entry("qty times unit price", invoice.LineItem{Qty: num(3), UnitPrice: num(100)}, 300.0),
		Entry("amount override wins", invoice.LineItem{Qty: num(3), UnitPrice: num(100), Amount: num(50)}, 50.0),
		Entry("zero amount override still wins", invoice.LineItem{Qty: num(3), UnitPrice: num(100), Amount: num(0)}, 0.0),
		Entry("negative amount clamps", invoice.LineItem{Amount: num(-10)}, 0.0),
		Entry("negative product clamps", invoice.LineItem{Qty: num(-2), UnitPrice: num(5)}, 0.0),
		Entry("missing qty counts as zero", invoice.LineItem{UnitPrice: num(5)}, 0.0),
		Entry("missing everything", invoice.LineItem{}, 0.0),
	)

	It("totals every line and keeps total equal to subtotal", func() {
		totals := invoice.ComputeTotals([]invoice.LineItem{
			{Qty: num(3), UnitPrice: num(100)},
			{Amount: num(50)},
			{Amount: num(-20)},
		})
		Expect(totals.Subtotal).To(Equal(350.0))
		Expect(totals.Total).To(Equal(totals.Subtotal))

		empty := invoice.ComputeTotals(nil)
		Expect(empty.Total).To(Equal(empty.Subtotal))
	})
})

var _ = Describe("Validate", func() {
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	DescribeTable("reports the first failing rule",
		func(mutate func(d *invoice.Draft), code internal.ErrorCode, message string) {
			d := validDraft()
			mutate(&d)

			err := invoice.Validate(d)
			if code == "" {
				Expect(err).To(BeNil())
				return
			}
			Expect(err).NotTo(BeNil())
			Expect(invoice.FailureCode(err)).To(Equal(string(code)))
			if message != "" {
				Expect(invoice.InlineMessage(err)).To(Equal(message))
			}
		},
		Entry("id first even when everything fails", func(d *invoice.Draft) {
			d.ID = "  "
			d.CompanyName = ""
			d.DueDate = &due
			d.LineItems[0].Description = ""
		}, internal.ErrCodeInvoiceIDRequired, "Invoice ID is required."),
		Entry("id with a path separator", func(d *invoice.Draft) {
			d.ID = "INV/0001"
			d.CompanyName = ""
		}, internal.ErrCodeInvoiceIDInvalid, "Invoice ID cannot contain / . # $ [ ]"),
		Entry("id with a reserved key character", func(d *invoice.Draft) {
			d.ID = "INV.2"
		}, internal.ErrCodeInvoiceIDInvalid, "Invoice ID cannot contain / . # $ [ ]"),
		Entry("id with brackets", func(d *invoice.Draft) {
			d.ID = "INV$[3]"
		}, internal.ErrCodeInvoiceIDInvalid, ""),
		Entry("company before due date", func(d *invoice.Draft) {
			d.CompanyName = " "
			d.DueDate = &due
		}, internal.ErrCodeCompanyRequired, "Company name is required."),
		Entry("due date before lines", func(d *invoice.Draft) {
			d.DueDate = &due
			d.LineItems[0].Description = ""
		}, internal.ErrCodeDueBeforeDate, ""),
		Entry("line description", func(d *invoice.Draft) {
			d.LineItems = append(d.LineItems, invoice.LineItem{ID: "r2", Qty: num(1), UnitPrice: num(1)})
		}, internal.ErrCodeLineDescription, "Line 2: description is required."),
		Entry("negative amount override", func(d *invoice.Draft) {
			d.LineItems[0].Amount = num(-1)
		}, internal.ErrCodeLineAmount, "Line 1: amount cannot be negative."),
		Entry("amount override skips quantity rules", func(d *invoice.Draft) {
			d.LineItems[0].Amount = num(0)
			d.LineItems[0].Qty = nil
			d.LineItems[0].UnitPrice = num(-5)
		}, internal.ErrorCode(""), ""),
		Entry("quantity must be positive", func(d *invoice.Draft) {
			d.LineItems[0].Qty = num(0)
			d.LineItems[0].UnitPrice = num(-1)
		}, internal.ErrCodeLineQuantity, "Line 1: quantity must be greater than 0."),
		Entry("unit price cannot be negative", func(d *invoice.Draft) {
			d.LineItems[0].UnitPrice = num(-1)
		}, internal.ErrCodeLineUnitPrice, "Line 1: unit price cannot be negative."),
		Entry("due date equal to date passes", func(d *invoice.Draft) {
			same := d.Date
			d.DueDate = &same
		}, internal.ErrorCode(""), ""),
	)
})

var _ = Describe("Stored shape", func() {
	It("round trips through the data model at millisecond precision", func() {
		due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		inv := &invoice.Invoice{
			ID:          "INV-7",
			CompanyName: "Acme",
			Date:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			DueDate:     &due,
			Status:      invoice.StatusPaid,
			Amount:      10,
			UpdatedAt:   time.UnixMilli(1706745600123).UTC(),
		}

		dm := invoice.ToDataModel(inv)
		Expect(dm.Date).To(Equal(int64(1706745600000)))
		Expect(dm.DueDate).NotTo(BeNil())
		Expect(*dm.DueDate).To(Equal(due.UnixMilli()))

		back := invoice.FromDataModel("INV-7", dm)
		Expect(back.Date.Equal(inv.Date)).To(BeTrue())
		Expect(back.UpdatedAt.Equal(inv.UpdatedAt)).To(BeTrue())
		Expect(back.Status).To(Equal(invoice.StatusPaid))
	})

	It("clears a missing due date in the update payload", func() {
		fields, err := invoice.PayloadFields(&invoice.Invoice{ID: "INV-1", Status: invoice.StatusPending})
		Expect(err).NotTo(HaveOccurred())

		Expect(fields).To(HaveKeyWithValue("dueDate", BeNil()))
		Expect(fields).To(HaveKeyWithValue("description", ""))
		Expect(fields).NotTo(HaveKey("createdBy"))
	})

	It("writes only status and updatedAt for a status change", func() {
		at := time.UnixMilli(1700000000000)
		Expect(invoice.StatusFields(invoice.StatusPaid, at)).To(Equal(map[string]any{
			"status":    "Paid",
			"updatedAt": int64(1700000000000),
		}))
	})
})
