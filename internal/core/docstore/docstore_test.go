package docstore_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/frahmantamala/genops/internal/core/docstore"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestDocstore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Docstore Suite")
}

var _ = Describe("Paths", func() {
	It("cleans surrounding slashes", func() {
		path, err := docstore.Clean("/invoices/INV-0001/")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("invoices/INV-0001"))
	})

	It("rejects empty paths and segments", func() {
		_, err := docstore.Clean("")
		Expect(err).To(HaveOccurred())

		_, err = docstore.Clean("invoices//INV-1")
		Expect(err).To(HaveOccurred())
	})

	It("rejects forbidden key characters", func() {
		for _, path := range []string{"invoices/a.b", "invoices/a#b", "a$", "x/[y]"} {
			_, err := docstore.Clean(path)
			Expect(err).To(HaveOccurred(), path)
		}
	})

	It("splits parent and key", func() {
		parent, key := docstore.Parent("notifications/u1/abc")
		Expect(parent).To(Equal("notifications/u1"))
		Expect(key).To(Equal("abc"))

		parent, key = docstore.Parent("users")
		Expect(parent).To(BeEmpty())
		Expect(key).To(Equal("users"))
	})

	It("lists every ancestor pair", func() {
		Expect(docstore.Ancestors("notifications/u1/abc")).To(Equal([][2]string{
			{"notifications/u1", "abc"},
			{"notifications", "u1"},
			{"", "notifications"},
		}))
	})

	It("matches prefixes on segment boundaries", func() {
		Expect(docstore.Covers("invoices", "invoices/INV-1")).To(BeTrue())
		Expect(docstore.Covers("invoices", "invoices")).To(BeTrue())
		Expect(docstore.Covers("invoices", "invoicesX/1")).To(BeFalse())
		Expect(docstore.Covers("", "anything")).To(BeTrue())
	})

	It("generates time ordered keys", func() {
		first := docstore.NewKey()
		time.Sleep(2 * time.Millisecond)
		second := docstore.NewKey()
		Expect(first).NotTo(ContainSubstring("-"))
		Expect(first < second).To(BeTrue())
	})
})

var _ = Describe("Merge", func() {
	It("overwrites given fields and keeps the rest", func() {
		merged, err := docstore.Merge([]byte(`{"status":"Pending","amount":300}`), map[string]any{
			"status":    "Paid",
			"updatedAt": 1700000000000,
		})
		Expect(err).NotTo(HaveOccurred())

		var doc map[string]any
		Expect(json.Unmarshal(merged, &doc)).To(Succeed())
		Expect(doc).To(HaveKeyWithValue("status", "Paid"))
		Expect(doc).To(HaveKeyWithValue("amount", BeNumerically("==", 300)))
		Expect(doc).To(HaveKey("updatedAt"))
	})

	It("deletes fields set to nil", func() {
		merged, err := docstore.Merge([]byte(`{"notes":"x","name":"Shop"}`), map[string]any{"notes": nil})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(merged)).To(Equal(`{"name":"Shop"}`))
	})

	It("starts from an empty object when there is no document", func() {
		merged, err := docstore.Merge(nil, map[string]any{"a": 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(merged)).To(Equal(`{"a":1}`))
	})
})

var _ = Describe("Error", func() {
	It("exposes its code through wrapping", func() {
		err := fmt.Errorf("save invoice: %w", docstore.NewError(docstore.CodePermissionDenied, "set", "invoices/1", nil))
		Expect(docstore.CodeOf(err)).To(Equal(docstore.CodePermissionDenied))
		Expect(docstore.IsPermissionDenied(err)).To(BeTrue())
	})

	It("reports no code for foreign errors", func() {
		Expect(docstore.CodeOf(errors.New("boom"))).To(BeEmpty())
	})
})

var _ = Describe("Broadcaster", func() {
	It("delivers changes under the watched prefix", func() {
		b := docstore.NewBroadcaster(4)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch := b.Subscribe(ctx, "invoices")
		b.Publish(docstore.Change{Kind: docstore.ChangeSet, Path: "shops/1"})
		b.Publish(docstore.Change{Kind: docstore.ChangeSet, Path: "invoices/INV-1"})

		var change docstore.Change
		Eventually(ch).Should(Receive(&change))
		Expect(change.Path).To(Equal("invoices/INV-1"))
		Consistently(ch, 50*time.Millisecond).ShouldNot(Receive())
	})

	It("closes subscriptions when the context ends", func() {
		b := docstore.NewBroadcaster(1)
		ctx, cancel := context.WithCancel(context.Background())
		ch := b.Subscribe(ctx, "")
		cancel()
		Eventually(ch).Should(BeClosed())
	})

	It("closes everything on Close", func() {
		b := docstore.NewBroadcaster(1)
		ch := b.Subscribe(context.Background(), "")
		b.Close()
		Eventually(ch).Should(BeClosed())
	})
})
