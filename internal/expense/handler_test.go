package expense_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/internal/expense"
	"github.com/frahmantamala/expenseflow/internal/role"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubService struct {
	submitted  *expense.SubmitExpenseDTO
	decisionDT *expense.DecisionDTO
	page       expense.Page
	status     expense.Status
	result     *expense.Expense
	list       []*expense.Expense
	err        error
}

func (s *stubService) Submit(_ context.Context, _ internal.Principal, dto expense.SubmitExpenseDTO) (*expense.Expense, error) {
	s.submitted = &dto
	return s.result, s.err
}

func (s *stubService) ListMine(_ context.Context, _ internal.Principal, page expense.Page) ([]*expense.Expense, error) {
	s.page = page
	return s.list, s.err
}

func (s *stubService) ListPending(_ context.Context, _ internal.Principal, page expense.Page) ([]*expense.Expense, error) {
	s.page = page
	return s.list, s.err
}

func (s *stubService) ListAll(_ context.Context, _ internal.Principal, status expense.Status, page expense.Page) ([]*expense.Expense, error) {
	s.status = status
	s.page = page
	return s.list, s.err
}

func (s *stubService) Get(_ context.Context, _ internal.Principal, _ int64) (*expense.Expense, error) {
	return s.result, s.err
}

func (s *stubService) Approve(_ context.Context, _ internal.Principal, _ int64, dto expense.DecisionDTO) (*expense.Expense, error) {
	s.decisionDT = &dto
	return s.result, s.err
}

func (s *stubService) Reject(_ context.Context, _ internal.Principal, _ int64, dto expense.DecisionDTO) (*expense.Expense, error) {
	s.decisionDT = &dto
	return s.result, s.err
}

var _ = Describe("Handler", func() {
	var (
		svc    *stubService
		router chi.Router
	)

	BeforeEach(func() {
		svc = &stubService{}
		h := expense.NewHandler(svc)
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("X-Test-Anonymous") != "" {
					next.ServeHTTP(w, r)
					return
				}
				p := internal.Principal{UserID: 2, Role: role.Manager, CompanyID: ptr(int64(10))}
				next.ServeHTTP(w, r.WithContext(internal.ContextWithPrincipal(r.Context(), p)))
			})
		})
		router.Post("/expenses", h.SubmitExpense)
		router.Get("/expenses", h.ListMyExpenses)
		router.Get("/expenses/pending", h.ListPendingExpenses)
		router.Get("/expenses/all", h.ListAllExpenses)
		router.Get("/expenses/{id}", h.GetExpense)
		router.Patch("/expenses/{id}/approve", h.ApproveExpense)
		router.Patch("/expenses/{id}/reject", h.RejectExpense)
	})

	do := func(method, path, body string, headers ...string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("requires a principal", func() {
		rec := do(http.MethodGet, "/expenses", "", "X-Test-Anonymous", "1")
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("submits and renders the created expense", func() {
		svc.result = &expense.Expense{
			ID: 1234567890123456789, Amount: 125.5, CurrencyCode: "USD", Status: expense.StatusPending,
			ExpenseDate: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		}
		rec := do(http.MethodPost, "/expenses", `{"amount":125.5,"currency_code":"usd","category":"meals","expense_date":"2025-01-10","description":"Lunch","status":"approved"}`)

		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(*svc.submitted.Amount).To(Equal(125.5))

		var body map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["id"]).To(Equal("1234567890123456789"))
		Expect(body["expense_date"]).To(Equal("2025-01-10"))
		Expect(body["status"]).To(Equal("pending"))
	})

	It("rejects malformed bodies", func() {
		rec := do(http.MethodPost, "/expenses", `{"amount":"lots"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(svc.submitted).To(BeNil())
	})

	It("clamps paging and returns an empty array rather than null", func() {
		rec := do(http.MethodGet, "/expenses/pending?limit=5000&offset=-1", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.page).To(Equal(expense.Page{Limit: 100}))
		Expect(rec.Body.String()).To(ContainSubstring(`"expenses":[]`))
		Expect(rec.Body.String()).To(ContainSubstring(`"limit":100`))
	})

	It("falls back to the default page size for unusable limits", func() {
		do(http.MethodGet, "/expenses/pending?limit=abc", "")
		Expect(svc.page).To(Equal(expense.Page{Limit: 20}))

		do(http.MethodGet, "/expenses/pending?limit=0&offset=40", "")
		Expect(svc.page).To(Equal(expense.Page{Limit: 20, Offset: 40}))
	})

	It("filters the company list by status", func() {
		rec := do(http.MethodGet, "/expenses/all?status=Rejected&limit=10", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.status).To(Equal(expense.StatusRejected))
		Expect(svc.page.Limit).To(Equal(10))

		rec = do(http.MethodGet, "/expenses/all?status=draft", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("approves with an empty body", func() {
		svc.result = &expense.Expense{ID: 7, Status: expense.StatusApproved}
		rec := do(http.MethodPatch, "/expenses/7/approve", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.decisionDT.Comment).To(BeEmpty())
	})

	It("passes the reject comment through", func() {
		svc.result = &expense.Expense{ID: 7, Status: expense.StatusRejected}
		rec := do(http.MethodPatch, "/expenses/7/reject", `{"comment":"no receipt"}`)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(svc.decisionDT.Comment).To(Equal("no receipt"))
	})

	It("validates the id", func() {
		rec := do(http.MethodPatch, "/expenses/abc/approve", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	DescribeTable("maps service errors",
		func(err error, status int) {
			svc.err = err
			rec := do(http.MethodPatch, "/expenses/7/approve", "")
			Expect(rec.Code).To(Equal(status))

			var body map[string]map[string]interface{}
			Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
			Expect(body).To(HaveKey("error"))
		},
		Entry("denied", internal.ErrAccessDenied, http.StatusForbidden),
		Entry("missing", internal.ErrExpenseNotFound, http.StatusNotFound),
		Entry("terminal", internal.ErrInvalidExpenseStatus, http.StatusConflict),
		Entry("no company", internal.ErrCompanyNotFound, http.StatusUnprocessableEntity),
		Entry("storage", internal.NewInternalError("Failed to update expense", nil), http.StatusInternalServerError),
	)
})
