package user_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/genops/internal"
	"github.com/frahmantamala/genops/internal/core/docstore/storetest"
	"github.com/frahmantamala/genops/internal/user"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("User Handler", func() {
	var (
		repo   *MockRepository
		router *chi.Mux
		signIn string
	)

	BeforeEach(func() {
		repo = NewMockRepository()
		repo.users["op-1"] = &user.User{UID: "op-1", Role: "operator", Name: "Budi"}
		repo.users["adm"] = &user.User{UID: "adm", Role: "admin", Name: "Ana"}
		signIn = "adm"

		h := user.NewHandler(user.NewService(repo, storetest.QuietLogger()))
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := r.Context()
				if signIn != "" {
					ctx = internal.ContextWithUserID(ctx, signIn)
				}
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
		router.Get("/users/me", h.GetCurrentUser)
		router.Get("/users/operators", h.ListOperators)
		router.Get("/users/{uid}", h.GetUser)
	})

	serve := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	It("returns the signed-in profile with its dashboard role", func() {
		w := serve("/users/me")
		Expect(w.Code).To(Equal(http.StatusOK))

		var body map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("uid", "adm"))
		Expect(body).To(HaveKeyWithValue("dashboardRole", "admin"))
	})

	It("rejects signed-out callers", func() {
		signIn = ""
		w := serve("/users/me")
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("looks up another profile by uid", func() {
		w := serve("/users/op-1")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"name":"Budi"`))
	})

	It("answers USER_NOT_FOUND for unknown uids", func() {
		w := serve("/users/ghost")
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring("USER_NOT_FOUND"))
	})

	It("lists operators only", func() {
		w := serve("/users/operators")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("op-1"))
		Expect(w.Body.String()).NotTo(ContainSubstring(`"uid":"adm"`))
	})
})
