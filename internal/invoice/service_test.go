package invoice_test

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/invoice"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Service", func() {
	var (
		repo     *mockRepository
		notifier *mockNotifier
		service  *invoice.Service
		ctx      context.Context
	)

	BeforeEach(func() {
		repo = newMockRepository()
		notifier = &mockNotifier{}
		service = invoice.NewService(repo, notifier, invoice.NewDraftRegistry(), quietLogger)
		ctx = context.Background()
	})

	It("lists invoices newest first", func() {
		repo.docs["A"] = &invoice.Invoice{ID: "A", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
		repo.docs["B"] = &invoice.Invoice{ID: "B", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
		repo.docs["C"] = &invoice.Invoice{ID: "C", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

		invoices, err := service.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		ids := []string{}
		for _, inv := range invoices {
			ids = append(ids, inv.ID)
		}
		Expect(ids).To(Equal([]string{"B", "A", "C"}))
	})

	It("maps a missing invoice to not found", func() {
		_, err := service.GetByID(ctx, "nope")
		Expect(err).To(MatchError(internal.ErrInvoiceNotFound))
	})

	Describe("drafts", func() {
		It("opens a create draft and closes it after a successful submit", func() {
			draftID, editor, err := service.OpenDraft(ctx, "client-1", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(editor.Mode()).To(Equal(invoice.ModeCreate))

			Expect(editor.SetID("INV-1")).To(Succeed())
			editor.SetCompanyName("Acme")
			row := editor.Draft().LineItems[0].ID
			Expect(editor.UpdateRow(row, invoice.FieldDescription, "Fuel")).To(Succeed())
			Expect(editor.UpdateRow(row, invoice.FieldAmount, "25")).To(Succeed())

			inv, err := service.SubmitDraft(ctx, "client-1", draftID, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(inv.Amount).To(Equal(25.0))

			_, err = service.Draft("client-1", draftID)
			Expect(err).To(MatchError(internal.ErrDraftNotFound))
		})

		It("keeps a draft open when submit fails", func() {
			draftID, _, err := service.OpenDraft(ctx, "client-1", "")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.SubmitDraft(ctx, "client-1", draftID, "u1")
			Expect(err).To(HaveOccurred())

			_, err = service.Draft("client-1", draftID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("hides drafts from other clients", func() {
			draftID, _, err := service.OpenDraft(ctx, "client-1", "")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Draft("client-2", draftID)
			Expect(err).To(MatchError(internal.ErrDraftNotFound))

			service.CloseDraft("client-2", draftID)
			_, err = service.Draft("client-1", draftID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("opens edit drafts from stored invoices", func() {
			repo.docs["INV-2"] = &invoice.Invoice{ID: "INV-2", CompanyName: "Volt", Status: invoice.StatusPending}

			_, editor, err := service.OpenDraft(ctx, "client-1", "INV-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(editor.Mode()).To(Equal(invoice.ModeEdit))
			Expect(editor.Draft().LineItems).To(HaveLen(1))

			_, _, err = service.OpenDraft(ctx, "client-1", "missing")
			Expect(err).To(MatchError(internal.ErrInvoiceNotFound))
		})
	})

	It("updates the status of a stored invoice", func() {
		repo.docs["INV-3"] = &invoice.Invoice{ID: "INV-3", Status: invoice.StatusPending}

		inv, err := service.UpdateStatus(ctx, "u1", "INV-3", invoice.StatusPaid)
		Expect(err).NotTo(HaveOccurred())
		Expect(inv.Status).To(Equal(invoice.StatusPaid))
		Expect(repo.Updates()).To(HaveLen(1))
		Expect(notifier.Notices()).To(HaveLen(1))
	})

	Describe("MarkOverdue", func() {
		It("moves only pending invoices past their due date", func() {
			past := time.Now().Add(-48 * time.Hour)
			future := time.Now().Add(48 * time.Hour)
			repo.docs["late"] = &invoice.Invoice{ID: "late", Status: invoice.StatusPending, DueDate: &past}
			repo.docs["paid"] = &invoice.Invoice{ID: "paid", Status: invoice.StatusPaid, DueDate: &past}
			repo.docs["soon"] = &invoice.Invoice{ID: "soon", Status: invoice.StatusPending, DueDate: &future}
			repo.docs["open"] = &invoice.Invoice{ID: "open", Status: invoice.StatusPending}

			moved, err := service.MarkOverdue(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(moved).To(Equal(1))

			updates := repo.Updates()
			Expect(updates).To(HaveLen(1))
			Expect(updates[0].ID).To(Equal("late"))
			Expect(updates[0].Fields).To(HaveKeyWithValue("status", "Overdue"))
			Expect(updates[0].Fields).To(HaveLen(2))
			Expect(notifier.Notices()).To(BeEmpty())
		})

		It("reports list failures", func() {
			repo.listErr = errors.New("store down")
			_, err := service.MarkOverdue(ctx)
			Expect(err).To(HaveOccurred())
		})
	})
})
