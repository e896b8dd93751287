package notification_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/core/docstore"
	"github.com/frahmantamala/genops/internal/core/docstore/guard"
	"github.com/frahmantamala/genops/internal/core/docstore/storetest"
	"github.com/frahmantamala/genops/internal/core/events"
	"github.com/frahmantamala/genops/internal/invoice"
	"github.com/frahmantamala/genops/internal/notification"
	"github.com/frahmantamala/genops/internal/notification/documents"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestNotification(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Notification Suite")
}

type flakyRepository struct {
	notification.Repository
	mu       sync.Mutex
	failures int
	err      error
	calls    int
}

func (f *flakyRepository) Push(ctx context.Context, userID string, n *notification.Notification) (string, error) {
	f.mu.Lock()
	f.calls++
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return "", f.err
	}
	f.mu.Unlock()
	return f.Repository.Push(ctx, userID, n)
}

func (f *flakyRepository) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var _ = Describe("Notifications", func() {
	var (
		store docstore.Store
		repo  notification.Repository
		ctx   context.Context
	)

	BeforeEach(func() {
		store = storetest.NewMemoryStore()
		repo = documents.NewNotificationRepository(store)
		ctx = context.Background()
	})

	Describe("Service.Emit", func() {
		It("pushes the record under the user's notifications", func() {
			service := notification.NewService(repo, notification.RetryConfig{MaxRetries: 0}, storetest.QuietLogger())
			n := notification.ForInvoice(notification.TypeInvoicePaid, "INV-1", "Acme", 10, time.UnixMilli(1700000000000))

			id, err := service.Emit(ctx, "u1", n)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).NotTo(BeEmpty())

			var raw map[string]any
			found, err := store.Get(ctx, docstore.Join("notifications", "u1", id), &raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(raw).To(HaveKeyWithValue("type", "invoice_paid"))
			Expect(raw).To(HaveKeyWithValue("read", false))
			Expect(raw).To(HaveKeyWithValue("hasIndicator", true))
			Expect(raw).To(HaveKeyWithValue("priority", "high"))
			Expect(raw).To(HaveKeyWithValue("createdAt", 1700000000000.0))
		})

		It("retries transient failures", func() {
			flaky := &flakyRepository{Repository: repo, failures: 2, err: docstore.NewError(docstore.CodeUnavailable, "push", "notifications/u1", errors.New("timeout"))}
			service := notification.NewService(flaky, notification.RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond}, storetest.QuietLogger())

			_, err := service.Emit(ctx, "u1", notification.ForInvoice(notification.TypeInvoiceCreated, "INV-1", "", 0, time.Now()))
			Expect(err).NotTo(HaveOccurred())
			Expect(flaky.Calls()).To(Equal(3))
		})

		It("gives up after the retry budget", func() {
			flaky := &flakyRepository{Repository: repo, failures: 10, err: docstore.NewError(docstore.CodeUnavailable, "push", "notifications/u1", errors.New("timeout"))}
			service := notification.NewService(flaky, notification.RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond}, storetest.QuietLogger())

			_, err := service.Emit(ctx, "u1", notification.ForInvoice(notification.TypeInvoiceCreated, "INV-1", "", 0, time.Now()))
			Expect(err).To(HaveOccurred())
			Expect(flaky.Calls()).To(Equal(3))
		})

		It("does not retry permission denials", func() {
			flaky := &flakyRepository{Repository: repo, failures: 10, err: docstore.NewError(docstore.CodePermissionDenied, "push", "notifications/u1", nil)}
			service := notification.NewService(flaky, notification.RetryConfig{MaxRetries: 5, InitialBackoff: time.Millisecond}, storetest.QuietLogger())

			_, err := service.Emit(ctx, "u1", notification.ForInvoice(notification.TypeInvoiceCreated, "INV-1", "", 0, time.Now()))
			Expect(docstore.IsPermissionDenied(err)).To(BeTrue())
			Expect(flaky.Calls()).To(Equal(1))
		})
	})

	Describe("List and MarkRead", func() {
		It("lists newest first and marks one read", func() {
			service := notification.NewService(repo, notification.RetryConfig{}, storetest.QuietLogger())
			older, err := service.Emit(ctx, "u1", notification.ForInvoice(notification.TypeInvoiceCreated, "INV-1", "", 0, time.UnixMilli(1000)))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Emit(ctx, "u1", notification.ForInvoice(notification.TypeInvoicePaid, "INV-1", "", 0, time.UnixMilli(2000)))
			Expect(err).NotTo(HaveOccurred())

			items, err := service.List(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(2))
			Expect(items[0].Type).To(Equal(notification.TypeInvoicePaid))

			Expect(service.MarkRead(ctx, "u1", older)).To(Succeed())
			items, err = service.List(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(items[1].Read).To(BeTrue())
			Expect(items[1].HasIndicator).To(BeFalse())

			err = service.MarkRead(ctx, "u1", "missing")
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeNotificationMissing))
		})

		It("keeps other users out through the guarded store", func() {
			guarded := guard.New(store, storetest.QuietLogger())
			service := notification.NewService(documents.NewNotificationRepository(guarded), notification.RetryConfig{}, storetest.QuietLogger())

			owner := internal.ContextWithUserID(ctx, "u1")
			_, err := service.Emit(owner, "u1", notification.ForInvoice(notification.TypeInvoiceCreated, "INV-1", "", 0, time.Now()))
			Expect(err).NotTo(HaveOccurred())

			intruder := internal.ContextWithUserID(ctx, "u2")
			_, err = service.List(intruder, "u1")
			Expect(docstore.IsPermissionDenied(err)).To(BeTrue())
		})
	})

	Describe("event pipeline", func() {
		It("records one notification per published invoice event", func() {
			bus := events.NewEventBus(storetest.QuietLogger())
			service := notification.NewService(repo, notification.RetryConfig{}, storetest.QuietLogger())
			notification.NewEventHandler(service, time.Second, storetest.QuietLogger()).Register(bus)
			publisher := notification.NewPublisher(bus, storetest.QuietLogger())

			requestCtx, cancel := context.WithCancel(ctx)
			err := publisher.Notify(requestCtx, invoice.NoticePaid, "u1", &invoice.Invoice{ID: "INV-9", CompanyName: "Acme", Status: invoice.StatusPaid})
			cancel()
			Expect(err).NotTo(HaveOccurred())

			Eventually(func() ([]*notification.Notification, error) {
				return service.List(ctx, "u1")
			}).Should(HaveLen(1))

			items, err := service.List(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(items[0].Type).To(Equal(notification.TypeInvoicePaid))
			Expect(items[0].Message).To(ContainSubstring("INV-9 for Acme"))
		})
	})

	Describe("Handler", func() {
		It("lists the caller's notifications and marks them read", func() {
			service := notification.NewService(repo, notification.RetryConfig{}, storetest.QuietLogger())
			id, err := service.Emit(ctx, "u1", notification.ForInvoice(notification.TypeInvoiceCreated, "INV-1", "", 0, time.Now()))
			Expect(err).NotTo(HaveOccurred())

			handler := notification.NewHandler(service)
			router := chi.NewRouter()
			router.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					next.ServeHTTP(w, r.WithContext(internal.ContextWithUserID(r.Context(), "u1")))
				})
			})
			router.Get("/notifications", handler.ListNotifications)
			router.Patch("/notifications/{id}/read", handler.MarkRead)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications", nil))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"unread":1`))

			w = httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/notifications/"+id+"/read", nil))
			Expect(w.Code).To(Equal(http.StatusNoContent))

			w = httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/notifications/missing/read", nil))
			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("Stream", func() {
		var (
			service *notification.Service
			server  *httptest.Server
		)

		BeforeEach(func() {
			guarded := guard.New(store, storetest.QuietLogger())
			service = notification.NewService(documents.NewNotificationRepository(guarded), notification.RetryConfig{}, storetest.QuietLogger())

			router := chi.NewRouter()
			router.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					uid := r.URL.Query().Get("as")
					next.ServeHTTP(w, r.WithContext(internal.ContextWithUserID(r.Context(), uid)))
				})
			})
			router.Get("/notifications/stream", notification.NewHandler(service).Stream)
			server = httptest.NewServer(router)
			DeferCleanup(server.Close)
		})

		open := func(uid string) (*http.Response, *bufio.Reader) {
			streamCtx, cancel := context.WithCancel(ctx)
			DeferCleanup(cancel)

			req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, server.URL+"/notifications/stream?as="+uid, nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(resp.Body.Close)
			return resp, bufio.NewReader(resp.Body)
		}

		readLine := func(reader *bufio.Reader) string {
			line, err := reader.ReadString('\n')
			Expect(err).NotTo(HaveOccurred())
			return strings.TrimRight(line, "\n")
		}

		It("sends an event when a notification is written for the caller", func() {
			resp, reader := open("u1")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))
			Expect(readLine(reader)).To(Equal(": connected"))
			Expect(readLine(reader)).To(BeEmpty())

			owner := internal.ContextWithUserID(ctx, "u1")
			_, err := service.Emit(owner, "u2", notification.ForInvoice(notification.TypeInvoiceCreated, "INV-0", "", 0, time.Now()))
			Expect(docstore.IsPermissionDenied(err)).To(BeTrue())

			id, err := service.Emit(owner, "u1", notification.ForInvoice(notification.TypeInvoicePaid, "INV-1", "Acme", 10, time.Now()))
			Expect(err).NotTo(HaveOccurred())

			Expect(readLine(reader)).To(Equal("event: notification"))
			data := readLine(reader)
			Expect(data).To(HavePrefix("data: "))

			var event notification.StreamEvent
			Expect(json.Unmarshal([]byte(strings.TrimPrefix(data, "data: ")), &event)).To(Succeed())
			Expect(event.Kind).To(Equal(docstore.ChangeSet))
			Expect(event.ID).To(Equal(id))
		})

		It("rejects a stream without a user", func() {
			resp, _ := open("")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Service.Watch", func() {
		It("requires a user", func() {
			service := notification.NewService(repo, notification.RetryConfig{}, storetest.QuietLogger())
			_, err := service.Watch(ctx, "")
			Expect(err).To(HaveOccurred())
		})

		It("closes the events when the context ends", func() {
			service := notification.NewService(repo, notification.RetryConfig{}, storetest.QuietLogger())
			watchCtx, cancel := context.WithCancel(ctx)
			events, err := service.Watch(watchCtx, "u1")
			Expect(err).NotTo(HaveOccurred())

			cancel()
			Eventually(events).Should(BeClosed())
		})
	})
})
