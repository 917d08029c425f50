package profile_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/internal/profile"
	"github.com/frahmantamala/expenseflow/internal/role"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubService struct {
	me      *profile.Me
	entries []profile.DirectoryEntry
	err     error
}

func (s *stubService) Me(_ context.Context, _ internal.Principal) (*profile.Me, error) {
	return s.me, s.err
}

func (s *stubService) Directory(_ context.Context, _ internal.Principal) ([]profile.DirectoryEntry, error) {
	return s.entries, s.err
}

var _ = Describe("Handler", func() {
	var (
		svc *stubService
		h   *profile.Handler
		rec *httptest.ResponseRecorder
	)

	withPrincipal := func(req *http.Request, r role.Role) *http.Request {
		p := internal.Principal{UserID: 1, Email: "ana@acme.test", Role: r}
		return req.WithContext(internal.ContextWithPrincipal(req.Context(), p))
	}

	BeforeEach(func() {
		svc = &stubService{}
		h = profile.NewHandler(svc)
		rec = httptest.NewRecorder()
	})

	It("rejects requests without a principal", func() {
		h.GetCurrentUser(rec, httptest.NewRequest(http.MethodGet, "/users/me", nil))
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("returns the current user", func() {
		svc.me = &profile.Me{UserID: 1, Email: "ana@acme.test", Role: role.Admin}
		h.GetCurrentUser(rec, withPrincipal(httptest.NewRequest(http.MethodGet, "/users/me", nil), role.Admin))

		Expect(rec.Code).To(Equal(http.StatusOK))
		var body map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["role"]).To(Equal("admin"))
		Expect(body["company"]).To(BeNil())
	})

	It("wraps the directory with a total", func() {
		svc.entries = []profile.DirectoryEntry{{Profile: profile.Profile{UserID: 1}, Role: role.Admin}}
		h.ListUsers(rec, withPrincipal(httptest.NewRequest(http.MethodGet, "/users", nil), role.Admin))

		Expect(rec.Code).To(Equal(http.StatusOK))
		var body struct {
			Users []map[string]interface{} `json:"users"`
			Total int                      `json:"total"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Total).To(Equal(1))
	})

	It("maps access denied to 403 with the dashboard redirect", func() {
		svc.err = internal.ErrAccessDenied
		h.ListUsers(rec, withPrincipal(httptest.NewRequest(http.MethodGet, "/users", nil), role.Employee))

		Expect(rec.Code).To(Equal(http.StatusForbidden))
		var raw map[string]map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &raw)).To(Succeed())
		Expect(raw["error"]["redirect"]).To(Equal("/dashboard"))
	})
})
