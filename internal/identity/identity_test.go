package identity_test

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/frahmantamala/genops/internal/identity"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestIdentity(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Identity Suite")
}

const secret = "0123456789abcdef0123456789abcdef"

var _ = Describe("JWTTokens", func() {
	var tokens *identity.JWTTokens

	BeforeEach(func() {
		tokens = identity.NewJWTTokens(secret, "genops-idp", "genops", time.Hour)
	})

	It("verifies tokens it issued", func() {
		token, err := tokens.Issue("u1", "ops@example.com")
		Expect(err).NotTo(HaveOccurred())

		id, err := tokens.Verify(token)
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(&identity.Identity{UID: "u1", Email: "ops@example.com"}))
	})

	It("rejects tokens signed with another secret", func() {
		other := identity.NewJWTTokens("ffffffffffffffffffffffffffffffff", "genops-idp", "genops", time.Hour)
		token, err := other.Issue("u1", "ops@example.com")
		Expect(err).NotTo(HaveOccurred())

		_, err = tokens.Verify(token)
		Expect(err).To(MatchError(identity.ErrInvalidToken))
	})

	It("rejects tokens for another audience", func() {
		other := identity.NewJWTTokens(secret, "genops-idp", "billing", time.Hour)
		token, err := other.Issue("u1", "ops@example.com")
		Expect(err).NotTo(HaveOccurred())

		_, err = tokens.Verify(token)
		Expect(err).To(MatchError(identity.ErrInvalidToken))
	})

	It("reports expired tokens", func() {
		expired := identity.NewJWTTokens(secret, "genops-idp", "genops", time.Hour)
		expired.TTL = -time.Minute
		token, err := expired.Issue("u1", "ops@example.com")
		Expect(err).NotTo(HaveOccurred())

		_, err = tokens.Verify(token)
		Expect(err).To(MatchError(identity.ErrTokenExpired))
	})

	It("rejects garbage", func() {
		_, err := tokens.Verify("not-a-token")
		Expect(err).To(MatchError(identity.ErrInvalidToken))
	})
})

var _ = Describe("Hub", func() {
	var (
		hub    *identity.Hub
		tokens *identity.JWTTokens
		ctx    context.Context
	)

	BeforeEach(func() {
		tokens = identity.NewJWTTokens(secret, "genops-idp", "genops", time.Hour)
		hub = identity.NewHub(tokens, slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
		ctx = context.Background()
	})

	record := func() (identity.Listener, func() []*identity.Identity) {
		var (
			mu   sync.Mutex
			seen []*identity.Identity
		)
		listener := func(id *identity.Identity) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, id)
		}
		return listener, func() []*identity.Identity {
			mu.Lock()
			defer mu.Unlock()
			return append([]*identity.Identity(nil), seen...)
		}
	}

	It("delivers the current state on subscribe", func() {
		listener, seen := record()
		unsubscribe, err := hub.OnAuthStateChanged("c1", listener)
		Expect(err).NotTo(HaveOccurred())
		defer unsubscribe()

		Expect(seen()).To(Equal([]*identity.Identity{nil}))
	})

	It("notifies sign in and sign out in order", func() {
		listener, seen := record()
		unsubscribe, err := hub.OnAuthStateChanged("c1", listener)
		Expect(err).NotTo(HaveOccurred())
		defer unsubscribe()

		token, err := tokens.Issue("u1", "a@example.com")
		Expect(err).NotTo(HaveOccurred())
		_, err = hub.SignIn(ctx, "c1", token)
		Expect(err).NotTo(HaveOccurred())
		Expect(hub.SignOut(ctx, "c1")).To(Succeed())

		events := seen()
		Expect(events).To(HaveLen(3))
		Expect(events[1].UID).To(Equal("u1"))
		Expect(events[2]).To(BeNil())
	})

	It("keeps clients apart", func() {
		listener, seen := record()
		unsubscribe, err := hub.OnAuthStateChanged("c1", listener)
		Expect(err).NotTo(HaveOccurred())
		defer unsubscribe()

		token, err := tokens.Issue("u2", "b@example.com")
		Expect(err).NotTo(HaveOccurred())
		_, err = hub.SignIn(ctx, "c2", token)
		Expect(err).NotTo(HaveOccurred())

		Expect(seen()).To(HaveLen(1))
		Expect(hub.Current("c2").UID).To(Equal("u2"))
		Expect(hub.Current("c1")).To(BeNil())
	})

	It("stops notifying after unsubscribe", func() {
		listener, seen := record()
		unsubscribe, err := hub.OnAuthStateChanged("c1", listener)
		Expect(err).NotTo(HaveOccurred())
		unsubscribe()

		Expect(hub.SignOut(ctx, "c1")).To(Succeed())
		Expect(seen()).To(HaveLen(1))
	})

	It("rejects invalid tokens without changing state", func() {
		_, err := hub.SignIn(ctx, "c1", "bogus")
		Expect(err).To(MatchError(identity.ErrInvalidToken))
		Expect(hub.Current("c1")).To(BeNil())
	})

	It("requires a client id", func() {
		_, err := hub.OnAuthStateChanged("", func(*identity.Identity) {})
		Expect(err).To(MatchError(identity.ErrMissingClient))
	})
})
