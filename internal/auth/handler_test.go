package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/internal/role"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

type stubService struct {
	principal internal.Principal
	authErr   error
	signedOut []string
}

func (s *stubService) SignIn(context.Context, SignInDTO) (AuthTokens, error) {
	return AuthTokens{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}, nil
}

func (s *stubService) Refresh(context.Context, RefreshTokenDTO) (AuthTokens, error) {
	return AuthTokens{}, internal.ErrInvalidToken
}

func (s *stubService) SignOut(_ context.Context, p internal.Principal) error {
	s.signedOut = append(s.signedOut, p.SessionID)
	return nil
}

func (s *stubService) Authenticate(_ context.Context, token string) (internal.Principal, error) {
	if s.authErr != nil || token != "good" {
		return internal.Principal{}, internal.ErrUnauthenticated
	}
	return s.principal, nil
}

var _ = ginkgo.Describe("Handler", func() {
	var (
		svc     *stubService
		handler *Handler
		reached bool
		guarded http.Handler
	)

	ginkgo.BeforeEach(func() {
		svc = &stubService{principal: internal.Principal{UserID: 7, Email: "e@x.io", Role: role.Admin, SessionID: "s-1"}}
		handler = NewHandler(svc)
		reached = false
		guarded = handler.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
			p, ok := internal.PrincipalFromContext(r.Context())
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(p.UserID).To(gomega.Equal(int64(7)))
			w.WriteHeader(http.StatusOK)
		}))
	})

	ginkgo.Describe("AuthMiddleware", func() {
		ginkgo.It("returns 401 without a bearer token and never reaches the handler", func() {
			rec := httptest.NewRecorder()
			guarded.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/expenses", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(reached).To(gomega.BeFalse())

			var body map[string]map[string]interface{}
			gomega.Expect(json.NewDecoder(rec.Body).Decode(&body)).To(gomega.Succeed())
			gomega.Expect(body["error"]["code"]).To(gomega.Equal(string(internal.ErrCodeUnauthenticated)))
			gomega.Expect(body["error"]).ToNot(gomega.HaveKey("details"))
		})

		ginkgo.It("returns 401 for a rejected token", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses", nil)
			req.Header.Set("Authorization", "Bearer stale")
			rec := httptest.NewRecorder()
			guarded.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(reached).To(gomega.BeFalse())
		})

		ginkgo.It("injects the principal for a valid token", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses", nil)
			req.Header.Set("Authorization", "Bearer good")
			rec := httptest.NewRecorder()
			guarded.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(reached).To(gomega.BeTrue())
		})
	})

	ginkgo.It("returns the session view", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil)
		req = req.WithContext(internal.ContextWithPrincipal(req.Context(), svc.principal))
		rec := httptest.NewRecorder()
		handler.Session(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		var view SessionView
		gomega.Expect(json.NewDecoder(rec.Body).Decode(&view)).To(gomega.Succeed())
		gomega.Expect(view.Role).To(gomega.Equal(role.Admin))
		gomega.Expect(view.Email).To(gomega.Equal("e@x.io"))
	})

	ginkgo.It("signs out the caller's session", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-out", nil)
		req = req.WithContext(internal.ContextWithPrincipal(req.Context(), svc.principal))
		rec := httptest.NewRecorder()
		handler.SignOut(rec, req)

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
		gomega.Expect(svc.signedOut).To(gomega.Equal([]string{"s-1"}))
	})

	ginkgo.It("rejects malformed sign-in bodies with 400", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/sign-in", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		handler.SignIn(rec, req)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
	})

	ginkgo.It("maps refresh failures to 401", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"x"}`))
		rec := httptest.NewRecorder()
		handler.Refresh(rec, req)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})
})
