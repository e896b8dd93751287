// Package storetest holds the behaviour every docstore.Store backend must share.
package storetest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/frahmantamala/genops/internal/core/docstore"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type invoiceDoc struct {
	Status      string  `json:"status"`
	Amount      float64 `json:"amount"`
	CompanyName string  `json:"companyName,omitempty"`
}

// DescribeStore registers the shared specs. newStore is called before every spec.
func DescribeStore(name string, newStore func() docstore.Store) bool {
	return Describe(name+" store contract", func() {
		var (
			store docstore.Store
			ctx   context.Context
		)

		BeforeEach(func() {
			store = newStore()
			ctx = context.Background()
		})

		It("reports missing documents without error", func() {
			var doc invoiceDoc
			found, err := store.Get(ctx, "invoices/INV-404", &doc)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())

			exists, err := store.Exists(ctx, "invoices/INV-404")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())
		})

		It("sets and gets a document", func() {
			Expect(store.Set(ctx, "invoices/INV-0001", invoiceDoc{Status: "Pending", Amount: 300})).To(Succeed())

			var doc invoiceDoc
			found, err := store.Get(ctx, "invoices/INV-0001", &doc)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(doc).To(Equal(invoiceDoc{Status: "Pending", Amount: 300}))

			exists, err := store.Exists(ctx, "/invoices/INV-0001/")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())
		})

		It("merges updates into the existing document", func() {
			Expect(store.Set(ctx, "invoices/INV-0002", invoiceDoc{Status: "Pending", Amount: 50, CompanyName: "Acme"})).To(Succeed())
			Expect(store.Update(ctx, "invoices/INV-0002", map[string]any{"status": "Paid"})).To(Succeed())

			var doc invoiceDoc
			_, err := store.Get(ctx, "invoices/INV-0002", &doc)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc).To(Equal(invoiceDoc{Status: "Paid", Amount: 50, CompanyName: "Acme"}))
		})

		It("creates the document on update when missing", func() {
			Expect(store.Update(ctx, "shops/s1", map[string]any{"name": "North"})).To(Succeed())

			var doc map[string]any
			found, err := store.Get(ctx, "shops/s1", &doc)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(doc).To(HaveKeyWithValue("name", "North"))
		})

		It("pushes children under generated keys and lists them", func() {
			first, err := store.Push(ctx, "notifications/u1", map[string]any{"title": "one"})
			Expect(err).NotTo(HaveOccurred())
			time.Sleep(2 * time.Millisecond)
			second, err := store.Push(ctx, "notifications/u1", map[string]any{"title": "two"})
			Expect(err).NotTo(HaveOccurred())
			Expect(first < second).To(BeTrue())

			_, err = store.Push(ctx, "notifications/u2", map[string]any{"title": "other"})
			Expect(err).NotTo(HaveOccurred())

			children, err := store.Children(ctx, "notifications/u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(children).To(HaveLen(2))

			var doc map[string]any
			Expect(json.Unmarshal(children[first], &doc)).To(Succeed())
			Expect(doc).To(HaveKeyWithValue("title", "one"))
		})

		It("returns an empty listing for an unknown parent", func() {
			children, err := store.Children(ctx, "invoices")
			Expect(err).NotTo(HaveOccurred())
			Expect(children).To(BeEmpty())
		})

		It("removes a document and everything below it", func() {
			_, err := store.Push(ctx, "notifications/u1", map[string]any{"title": "one"})
			Expect(err).NotTo(HaveOccurred())
			Expect(store.Set(ctx, "notifications/u10/x", map[string]any{"title": "keep"})).To(Succeed())

			Expect(store.Remove(ctx, "notifications/u1")).To(Succeed())

			children, err := store.Children(ctx, "notifications/u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(children).To(BeEmpty())

			exists, err := store.Exists(ctx, "notifications/u10/x")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())
		})

		It("rejects invalid paths with INVALID_ARGUMENT", func() {
			err := store.Set(ctx, "invoices/INV.1", invoiceDoc{})
			Expect(docstore.CodeOf(err)).To(Equal(docstore.CodeInvalidArgument))
		})

		It("names the rejected path in the error", func() {
			var storeErr *docstore.Error

			_, err := store.Get(ctx, "invoices/INV.2", nil)
			Expect(errors.As(err, &storeErr)).To(BeTrue())
			Expect(storeErr.Path).To(Equal("invoices/INV.2"))

			_, err = store.Push(ctx, "notifications//u1", map[string]any{})
			Expect(errors.As(err, &storeErr)).To(BeTrue())
			Expect(storeErr.Path).To(Equal("notifications//u1"))

			err = store.Remove(ctx, "shops/s#1")
			Expect(errors.As(err, &storeErr)).To(BeTrue())
			Expect(storeErr.Path).To(Equal("shops/s#1"))
			Expect(err.Error()).To(ContainSubstring("remove shops/s#1"))
		})

		It("streams changes below the watched prefix", func() {
			watchCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			changes, err := store.Watch(watchCtx, "invoices")
			Expect(err).NotTo(HaveOccurred())

			Expect(store.Set(ctx, "shops/s9", map[string]any{"name": "ignored"})).To(Succeed())
			Expect(store.Set(ctx, "invoices/INV-0009", invoiceDoc{Status: "Pending"})).To(Succeed())

			var change docstore.Change
			Eventually(changes, time.Second).Should(Receive(&change))
			Expect(change.Kind).To(Equal(docstore.ChangeSet))
			Expect(change.Path).To(Equal("invoices/INV-0009"))
		})

		It("answers pings", func() {
			Expect(store.Ping(ctx)).To(Succeed())
		})
	})
}
