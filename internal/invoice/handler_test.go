package invoice_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/invoice"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Handler", func() {
	var (
		repo     *mockRepository
		notifier *mockNotifier
		router   *chi.Mux
	)

	BeforeEach(func() {
		repo = newMockRepository()
		notifier = &mockNotifier{}
		handler := invoice.NewHandler(invoice.NewService(repo, notifier, invoice.NewDraftRegistry(), quietLogger))

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := internal.ContextWithClientID(r.Context(), "client-1")
				ctx = internal.ContextWithUserID(ctx, "u1")
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
		router.Get("/invoices", handler.ListInvoices)
		router.Get("/invoices/{id}", handler.GetInvoice)
		router.Patch("/invoices/{id}/status", handler.UpdateStatus)
		router.Post("/invoices/drafts", handler.OpenDraft)
		router.Get("/invoices/drafts/{draftId}", handler.GetDraft)
		router.Patch("/invoices/drafts/{draftId}", handler.UpdateDraft)
		router.Delete("/invoices/drafts/{draftId}", handler.CloseDraft)
		router.Post("/invoices/drafts/{draftId}/rows", handler.AddRow)
		router.Patch("/invoices/drafts/{draftId}/rows/{rowId}", handler.UpdateRow)
		router.Delete("/invoices/drafts/{draftId}/rows/{rowId}", handler.RemoveRow)
		router.Post("/invoices/drafts/{draftId}/submit", handler.SubmitDraft)
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder, dst any) {
		Expect(json.NewDecoder(w.Body).Decode(dst)).To(Succeed())
	}

	It("walks a draft from open to submit", func() {
		w := do(http.MethodPost, "/invoices/drafts", `{}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		var opened invoice.DraftResponse
		decode(w, &opened)
		Expect(opened.DraftID).NotTo(BeEmpty())
		rowID := opened.Draft.LineItems[0].ID
		base := "/invoices/drafts/" + opened.DraftID

		w = do(http.MethodPatch, base, `{"id":"INV-0001","companyName":"Acme","date":"2024-02-01","dueDate":"2024-03-01"}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodPatch, base+"/rows/"+rowID, `{"field":"description","value":"Generator service"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		w = do(http.MethodPatch, base+"/rows/"+rowID, `{"field":"qty","value":"3"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		w = do(http.MethodPatch, base+"/rows/"+rowID, `{"field":"unitPrice","value":100}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		var edited invoice.RowResponse
		decode(w, &edited)
		Expect(edited.Totals.Total).To(Equal(300.0))

		w = do(http.MethodPost, base+"/submit", ``)
		Expect(w.Code).To(Equal(http.StatusOK))
		var submitted invoice.SubmitResponse
		decode(w, &submitted)
		Expect(submitted.Invoice.Amount).To(Equal(300.0))
		Expect(submitted.Closed).To(BeTrue())
		Expect(notifier.Notices()).To(HaveLen(1))

		w = do(http.MethodGet, base, ``)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("answers validation failures with the first failing rule", func() {
		w := do(http.MethodPost, "/invoices/drafts", `{}`)
		var opened invoice.DraftResponse
		decode(w, &opened)

		w = do(http.MethodPost, "/invoices/drafts/"+opened.DraftID+"/submit", ``)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("Invoice ID is required."))

		w = do(http.MethodGet, "/invoices/drafts/"+opened.DraftID, ``)
		var view invoice.DraftResponse
		decode(w, &view)
		Expect(view.InlineError).To(Equal("Invoice ID is required."))
	})

	It("answers a duplicate id with a conflict", func() {
		repo.docs["INV-0001"] = &invoice.Invoice{ID: "INV-0001"}
		w := do(http.MethodPost, "/invoices/drafts", `{}`)
		var opened invoice.DraftResponse
		decode(w, &opened)
		base := "/invoices/drafts/" + opened.DraftID
		rowID := opened.Draft.LineItems[0].ID

		do(http.MethodPatch, base, `{"id":"INV-0001","companyName":"Acme"}`)
		do(http.MethodPatch, base+"/rows/"+rowID, `{"field":"description","value":"x"}`)

		w = do(http.MethodPost, base+"/submit", ``)
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeInvoiceDuplicateID)))
		Expect(repo.Creates()).To(Equal(0))
	})

	It("rejects malformed dates", func() {
		w := do(http.MethodPost, "/invoices/drafts", `{}`)
		var opened invoice.DraftResponse
		decode(w, &opened)

		w = do(http.MethodPatch, "/invoices/drafts/"+opened.DraftID, `{"date":"yesterday"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring(string(internal.ErrCodeInvalidDate)))
	})

	It("keeps the last row when asked to remove it", func() {
		w := do(http.MethodPost, "/invoices/drafts", `{}`)
		var opened invoice.DraftResponse
		decode(w, &opened)

		w = do(http.MethodDelete, "/invoices/drafts/"+opened.DraftID+"/rows/"+opened.Draft.LineItems[0].ID, ``)
		Expect(w.Code).To(Equal(http.StatusOK))
		var view invoice.DraftResponse
		decode(w, &view)
		Expect(view.Draft.LineItems).To(HaveLen(1))
	})

	It("updates the status of a stored invoice", func() {
		repo.docs["INV-7"] = &invoice.Invoice{ID: "INV-7", Status: invoice.StatusPending}

		w := do(http.MethodPatch, "/invoices/INV-7/status", `{"status":"Paid"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(notifier.Notices()).To(Equal([]notice{{Kind: invoice.NoticePaid, ActorID: "u1", InvoiceID: "INV-7"}}))

		w = do(http.MethodPatch, "/invoices/INV-404/status", `{"status":"Paid"}`)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("lists and reads invoices", func() {
		repo.docs["INV-1"] = &invoice.Invoice{ID: "INV-1", CompanyName: "Acme"}

		w := do(http.MethodGet, "/invoices", ``)
		Expect(w.Code).To(Equal(http.StatusOK))
		var list invoice.InvoicesResponse
		decode(w, &list)
		Expect(list.Invoices).To(HaveLen(1))

		w = do(http.MethodGet, "/invoices/INV-1", ``)
		Expect(w.Code).To(Equal(http.StatusOK))
	})
})
