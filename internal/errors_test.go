package internal_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/core/docstore"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestInternal(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Internal Suite")
}

var _ = Describe("Store error mapping", func() {
	It("uses the permission message for PERMISSION_DENIED", func() {
		err := docstore.NewError(docstore.CodePermissionDenied, "set", "invoices/INV-1", errors.New("write requires the admin role"))
		Expect(internal.StoreErrorMessage(err)).To(Equal("You do not have permission to perform this action."))

		appErr := internal.FromStoreError(fmt.Errorf("save: %w", err))
		Expect(appErr.StatusCode).To(Equal(http.StatusForbidden))
		Expect(appErr.Code).To(Equal(internal.ErrCodePermissionDenied))
	})

	It("passes other messages through", func() {
		err := docstore.NewError(docstore.CodeUnavailable, "get", "users/u1", errors.New("connection refused"))
		Expect(internal.StoreErrorMessage(err)).To(Equal("get users/u1: UNAVAILABLE: connection refused"))
		Expect(internal.FromStoreError(err).StatusCode).To(Equal(http.StatusServiceUnavailable))
	})

	It("falls back to the generic message for empty errors", func() {
		Expect(internal.StoreErrorMessage(errors.New(""))).To(Equal("Something went wrong. Please try again."))
	})

	It("keeps application errors intact", func() {
		Expect(internal.FromStoreError(internal.ErrInvoiceNotFound)).To(BeIdenticalTo(internal.ErrInvoiceNotFound))
	})
})

var _ = Describe("Context helpers", func() {
	It("round-trips the user id", func() {
		ctx := internal.ContextWithUserID(context.Background(), "u1")
		Expect(internal.UserIDFromContext(ctx)).To(Equal("u1"))
		Expect(internal.IsSystemContext(ctx)).To(BeFalse())
		Expect(internal.IsSystemContext(internal.ContextAsSystem(ctx))).To(BeTrue())
	})
})

var _ = Describe("Config validation", func() {
	valid := func() internal.Config {
		return internal.Config{
			Server:   internal.ServerConfig{Port: 8080},
			Database: internal.DatabaseConfig{MaxOpenConns: 2, MaxIdleConns: 1},
			Store:    internal.StoreConfig{Backend: internal.StoreBackendRedis, RedisURL: "redis://localhost:6379/0"},
			Security: internal.SecurityConfig{
				JWTSecret:     "0123456789abcdef0123456789abcdef",
				JWTIssuer:     "genops-idp",
				AuthRateLimit: 5,
				AuthRateBurst: 10,
			},
			Session: internal.SessionConfig{CookieName: "genops_client", Lifetime: 1},
		}
	}

	It("accepts a complete configuration", func() {
		cfg := valid()
		Expect(cfg.Validate()).To(Succeed())
	})

	It("requires a redis url for the redis backend", func() {
		cfg := valid()
		cfg.Store.RedisURL = ""
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("redis_url is required")))
	})

	It("requires a database source for the postgres backend", func() {
		cfg := valid()
		cfg.Store.Backend = internal.StoreBackendPostgres
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("database.source is required")))
	})

	It("rejects short jwt secrets", func() {
		cfg := valid()
		cfg.Security.JWTSecret = "short"
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("jwt_secret")))
	})

	It("loads defaults from the environment", func() {
		GinkgoT().Setenv("GENOPS_STORE_BACKEND", "sqlite")
		GinkgoT().Setenv("GENOPS_HTTP_SERVER_PORT", "9090")

		cfg, err := internal.LoadConfigFromEnv()
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Store.Backend).To(Equal("sqlite"))
		Expect(cfg.Server.Port).To(Equal(9090))
		Expect(cfg.Scheduler.OverdueSchedule).To(Equal("@every 5m"))
		Expect(cfg.Session.CookieName).To(Equal("genops_client"))
	})
})
