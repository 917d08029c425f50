package expense_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/internal/core/events"
	"github.com/frahmantamala/expenseflow/internal/currency"
	"github.com/frahmantamala/expenseflow/internal/expense"
	"github.com/frahmantamala/expenseflow/internal/role"
	"github.com/frahmantamala/expenseflow/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestExpense(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Expense Module Suite")
}

type memRepo struct {
	mu        sync.Mutex
	rows      map[int64]*expense.Expense
	updates   int
	createErr error
	updateErr error
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[int64]*expense.Expense{}}
}

func (m *memRepo) Create(_ context.Context, e *expense.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *e
	m.rows[e.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id int64) (*expense.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	if !ok {
		return nil, expense.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, f expense.Filter) ([]*expense.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*expense.Expense
	for _, e := range m.rows {
		if f.UserID != 0 && e.UserID != f.UserID {
			continue
		}
		if f.CompanyID != 0 && e.CompanyID != f.CompanyID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memRepo) UpdateDecision(_ context.Context, id int64, d expense.DecisionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates++
	e := m.rows[id]
	e.Status = d.Status
	e.DecisionComment = d.Comment
	e.DecidedBy = &d.DecidedBy
	e.DecidedAt = &d.DecidedAt
	return nil
}

type stubCompanies map[int64]string

func (s stubCompanies) CompanyCurrency(_ context.Context, companyID int64) (string, error) {
	code, ok := s[companyID]
	if !ok {
		return "", internal.ErrCompanyNotFound
	}
	return code, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func principal(userID int64, r role.Role, companyID int64) internal.Principal {
	p := internal.Principal{UserID: userID, Role: r}
	if companyID != 0 {
		p.CompanyID = ptr(companyID)
	}
	return p
}

var _ = Describe("Service", func() {
	var (
		ctx       context.Context
		repo      *memRepo
		published *recordingPublisher
		svc       *expense.Service
		nextID    int64

		employee = principal(1, role.Employee, 10)
		manager  = principal(2, role.Manager, 10)
		admin    = principal(3, role.Admin, 10)
		outsider = principal(4, role.Manager, 20)
	)

	validDTO := func() expense.SubmitExpenseDTO {
		return expense.SubmitExpenseDTO{
			Amount:       ptr(125.50),
			CurrencyCode: "usd",
			Category:     "meals",
			ExpenseDate:  "2025-01-10",
			Description:  "Lunch",
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMemRepo()
		published = &recordingPublisher{}
		nextID = 100
		converter := currency.NewConverter(currency.NewStaticRateProvider(map[string]float64{"usd_idr": 16000}), logger.Discard())
		svc = expense.NewService(repo, stubCompanies{10: "USD", 20: "IDR"}, converter, published, logger.Discard())
		expense.SetClock(svc, func() int64 { nextID++; return nextID }, func() time.Time {
			return time.Date(2025, 1, 11, 9, 0, 0, 0, time.UTC)
		})
	})

	submit := func(p internal.Principal) *expense.Expense {
		e, err := svc.Submit(ctx, p, validDTO())
		Expect(err).NotTo(HaveOccurred())
		return e
	}

	Describe("Submit", func() {
		It("creates exactly one pending record with a normalized currency", func() {
			e := submit(employee)

			Expect(repo.rows).To(HaveLen(1))
			Expect(e.CurrencyCode).To(Equal("USD"))
			Expect(e.Status).To(Equal(expense.StatusPending))
			Expect(e.AmountInCompanyCurrency).To(Equal(125.50))
			Expect(e.ExchangeRate).To(Equal(1.0))
			Expect(e.CompanyID).To(Equal(int64(10)))
			Expect(e.ExpenseDate.Format("2006-01-02")).To(Equal("2025-01-10"))
			Expect(published.types()).To(Equal([]string{events.EventTypeExpenseSubmitted}))
		})

		It("stores the canonical category name", func() {
			dto := validDTO()
			dto.Category = "  Travel "
			e, err := svc.Submit(ctx, employee, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Category).To(Equal("travel"))
		})

		It("converts into the company currency", func() {
			p := principal(5, role.Employee, 20)
			e, err := svc.Submit(ctx, p, validDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(e.AmountInCompanyCurrency).To(Equal(2008000.0))
			Expect(e.ExchangeRate).To(Equal(16000.0))
		})

		It("refuses without a company and writes nothing", func() {
			_, err := svc.Submit(ctx, principal(6, role.Employee, 0), validDTO())
			Expect(errors.Is(err, internal.ErrCompanyNotFound)).To(BeTrue())
			Expect(repo.rows).To(BeEmpty())
		})

		It("refuses when the rate is missing and writes nothing", func() {
			dto := validDTO()
			dto.CurrencyCode = "EUR"
			_, err := svc.Submit(ctx, principal(5, role.Employee, 20), dto)
			Expect(errors.Is(err, internal.ErrRateNotFound)).To(BeTrue())
			Expect(repo.rows).To(BeEmpty())
		})

		DescribeTable("rejects invalid input before any write",
			func(mutate func(*expense.SubmitExpenseDTO), field string) {
				dto := validDTO()
				mutate(&dto)
				_, err := svc.Submit(ctx, employee, dto)

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.StatusCode).To(Equal(400))
				details := appErr.Details.(internal.ValidationErrors)
				Expect(details.Errors[0].Field).To(Equal(field))
				Expect(repo.rows).To(BeEmpty())
			},
			Entry("missing amount", func(d *expense.SubmitExpenseDTO) { d.Amount = nil }, "amount"),
			Entry("zero amount", func(d *expense.SubmitExpenseDTO) { d.Amount = ptr(0.0) }, "amount"),
			Entry("negative amount", func(d *expense.SubmitExpenseDTO) { d.Amount = ptr(-3.0) }, "amount"),
			Entry("amount below a cent", func(d *expense.SubmitExpenseDTO) { d.Amount = ptr(0.004) }, "amount"),
			Entry("amount with fractional cents", func(d *expense.SubmitExpenseDTO) { d.Amount = ptr(12.345) }, "amount"),
			Entry("amount beyond the column range", func(d *expense.SubmitExpenseDTO) { d.Amount = ptr(1e20) }, "amount"),
			Entry("long currency", func(d *expense.SubmitExpenseDTO) { d.CurrencyCode = "usdx" }, "currency_code"),
			Entry("numeric currency", func(d *expense.SubmitExpenseDTO) { d.CurrencyCode = "12a" }, "currency_code"),
			Entry("unknown category", func(d *expense.SubmitExpenseDTO) { d.Category = "gifts" }, "category"),
			Entry("bad date", func(d *expense.SubmitExpenseDTO) { d.ExpenseDate = "10/01/2025" }, "expense_date"),
			Entry("blank description", func(d *expense.SubmitExpenseDTO) { d.Description = "   " }, "description"),
		)

		It("refuses an amount that overflows once converted", func() {
			dto := validDTO()
			dto.Amount = ptr(9000000000000.0)
			_, err := svc.Submit(ctx, principal(5, role.Employee, 20), dto)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			details := appErr.Details.(internal.ValidationErrors)
			Expect(details.Errors[0].Code).To(Equal(string(internal.ErrCodeInvalidAmount)))
			Expect(repo.rows).To(BeEmpty())
		})

		It("does not publish when the write fails", func() {
			repo.createErr = errors.New("insert failed")
			_, err := svc.Submit(ctx, employee, validDTO())
			Expect(err).To(HaveOccurred())
			Expect(published.types()).To(BeEmpty())
		})
	})

	Describe("lists", func() {
		BeforeEach(func() {
			submit(employee)
			submit(manager)
			submit(principal(5, role.Employee, 20))
		})

		It("shows employees only their own expenses", func() {
			mine, err := svc.ListMine(ctx, employee, expense.Page{})
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).To(HaveLen(1))
			Expect(mine[0].UserID).To(Equal(employee.UserID))
		})

		It("keeps pending and all lists inside the company", func() {
			pending, err := svc.ListPending(ctx, manager, expense.Page{})
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(HaveLen(2))

			all, err := svc.ListAll(ctx, admin, "", expense.Page{})
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
			for _, e := range all {
				Expect(e.CompanyID).To(Equal(int64(10)))
			}
		})

		It("denies employees the approver lists", func() {
			_, err := svc.ListPending(ctx, employee, expense.Page{})
			Expect(errors.Is(err, internal.ErrAccessDenied)).To(BeTrue())
			_, err = svc.ListAll(ctx, employee, "", expense.Page{})
			Expect(errors.Is(err, internal.ErrAccessDenied)).To(BeTrue())
		})

		It("scopes visibility by role", func() {
			own, err := svc.Visible(ctx, employee)
			Expect(err).NotTo(HaveOccurred())
			Expect(own).To(HaveLen(1))

			company, err := svc.Visible(ctx, manager)
			Expect(err).NotTo(HaveOccurred())
			Expect(company).To(HaveLen(2))
		})

		It("hides other people's expenses behind not found", func() {
			managerExpense, err := svc.ListMine(ctx, manager, expense.Page{})
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Get(ctx, employee, managerExpense[0].ID)
			Expect(errors.Is(err, internal.ErrExpenseNotFound)).To(BeTrue())

			_, err = svc.Get(ctx, outsider, managerExpense[0].ID)
			Expect(errors.Is(err, internal.ErrExpenseNotFound)).To(BeTrue())

			got, err := svc.Get(ctx, admin, managerExpense[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.UserID).To(Equal(manager.UserID))
		})
	})

	Describe("decisions", func() {
		var pending *expense.Expense

		BeforeEach(func() {
			pending = submit(employee)
		})

		It("approves a pending expense and drops it from the pending list", func() {
			e, err := svc.Approve(ctx, manager, pending.ID, expense.DecisionDTO{})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(expense.StatusApproved))
			Expect(*e.DecidedBy).To(Equal(manager.UserID))
			Expect(e.DecisionComment).To(BeNil())

			list, err := svc.ListPending(ctx, manager, expense.Page{})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())
			Expect(published.types()).To(ContainElement(events.EventTypeExpenseApproved))
		})

		It("rejects with a persisted comment", func() {
			e, err := svc.Reject(ctx, admin, pending.ID, expense.DecisionDTO{Comment: "  missing receipt "})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Status).To(Equal(expense.StatusRejected))
			Expect(*repo.rows[pending.ID].DecisionComment).To(Equal("missing receipt"))
			Expect(published.types()).To(ContainElement(events.EventTypeExpenseRejected))
		})

		It("requires a comment to reject and issues no update", func() {
			_, err := svc.Reject(ctx, manager, pending.ID, expense.DecisionDTO{Comment: " "})
			Expect(errors.Is(err, internal.ErrCommentRequired)).To(BeTrue())
			Expect(repo.updates).To(BeZero())
		})

		It("denies employees before reading anything", func() {
			_, err := svc.Approve(ctx, employee, 999999, expense.DecisionDTO{})
			Expect(errors.Is(err, internal.ErrAccessDenied)).To(BeTrue())
		})

		It("treats another company's expense as missing", func() {
			_, err := svc.Approve(ctx, outsider, pending.ID, expense.DecisionDTO{})
			Expect(errors.Is(err, internal.ErrExpenseNotFound)).To(BeTrue())
			Expect(repo.updates).To(BeZero())
		})

		It("refuses to decide a terminal expense and issues no update", func() {
			_, err := svc.Approve(ctx, manager, pending.ID, expense.DecisionDTO{})
			Expect(err).NotTo(HaveOccurred())
			Expect(repo.updates).To(Equal(1))

			_, err = svc.Reject(ctx, admin, pending.ID, expense.DecisionDTO{Comment: "too late"})
			Expect(errors.Is(err, internal.ErrInvalidExpenseStatus)).To(BeTrue())
			_, err = svc.Approve(ctx, admin, pending.ID, expense.DecisionDTO{})
			Expect(errors.Is(err, internal.ErrInvalidExpenseStatus)).To(BeTrue())
			Expect(repo.updates).To(Equal(1))
			Expect(repo.rows[pending.ID].Status).To(Equal(expense.StatusApproved))
		})

		It("leaves the record untouched when the update fails", func() {
			repo.updateErr = errors.New("write failed")
			_, err := svc.Approve(ctx, manager, pending.ID, expense.DecisionDTO{})
			Expect(err).To(HaveOccurred())
			Expect(repo.rows[pending.ID].Status).To(Equal(expense.StatusPending))
		})

		It("reports a row that vanished before the update as not found", func() {
			repo.updateErr = expense.ErrNotFound
			_, err := svc.Approve(ctx, manager, pending.ID, expense.DecisionDTO{})
			Expect(errors.Is(err, internal.ErrExpenseNotFound)).To(BeTrue())
			Expect(published.types()).NotTo(ContainElement(events.EventTypeExpenseApproved))
		})

		It("returns not found for unknown ids", func() {
			_, err := svc.Approve(ctx, manager, 424242, expense.DecisionDTO{})
			Expect(errors.Is(err, internal.ErrExpenseNotFound)).To(BeTrue())
		})
	})
})
