package postgres

import (
	"context"
	"testing"
	"time"

	expenseDatamodel "github.com/frahmantamala/expenseflow/internal/core/datamodel/expense"
	"github.com/frahmantamala/expenseflow/internal/expense"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestExpenseRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ExpenseRepository Suite")
}

var _ = Describe("ExpenseRepository", func() {
	var (
		db   *gorm.DB
		repo *ExpenseRepository
		ctx  context.Context
		base time.Time
	)

	newExpense := func(id, userID, companyID int64, status expense.Status, offset time.Duration) *expense.Expense {
		return &expense.Expense{
			ID:                      id,
			UserID:                  userID,
			CompanyID:               companyID,
			Amount:                  10,
			CurrencyCode:            "USD",
			AmountInCompanyCurrency: 10,
			ExchangeRate:            1,
			Category:                "meals",
			Description:             "Lunch",
			ExpenseDate:             time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
			Status:                  status,
			CreatedAt:               base.Add(offset),
			UpdatedAt:               base.Add(offset),
		}
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		base = time.Date(2025, 1, 11, 8, 0, 0, 0, time.UTC)
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&expenseDatamodel.Expense{})).To(Succeed())
		repo = NewExpenseRepository(db)

		Expect(repo.Create(ctx, newExpense(1, 1, 10, expense.StatusPending, 0))).To(Succeed())
		Expect(repo.Create(ctx, newExpense(2, 2, 10, expense.StatusApproved, time.Minute))).To(Succeed())
		Expect(repo.Create(ctx, newExpense(3, 1, 10, expense.StatusPending, 2*time.Minute))).To(Succeed())
		Expect(repo.Create(ctx, newExpense(4, 9, 20, expense.StatusPending, 3*time.Minute))).To(Succeed())
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	ids := func(list []*expense.Expense) []int64 {
		out := make([]int64, len(list))
		for i, e := range list {
			out[i] = e.ID
		}
		return out
	}

	It("round-trips an expense", func() {
		e, err := repo.GetByID(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Status).To(Equal(expense.StatusPending))
		Expect(e.CurrencyCode).To(Equal("USD"))
		Expect(e.ExpenseDate.Format("2006-01-02")).To(Equal("2025-01-10"))
	})

	It("maps a missing row to ErrNotFound", func() {
		_, err := repo.GetByID(ctx, 99)
		Expect(err).To(MatchError(expense.ErrNotFound))
	})

	It("filters and orders newest first", func() {
		mine, err := repo.List(ctx, expense.Filter{UserID: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(ids(mine)).To(Equal([]int64{3, 1}))

		pending, err := repo.List(ctx, expense.Filter{CompanyID: 10, Status: expense.StatusPending})
		Expect(err).NotTo(HaveOccurred())
		Expect(ids(pending)).To(Equal([]int64{3, 1}))

		company, err := repo.List(ctx, expense.Filter{CompanyID: 10})
		Expect(err).NotTo(HaveOccurred())
		Expect(ids(company)).To(Equal([]int64{3, 2, 1}))
	})

	It("pages", func() {
		page, err := repo.List(ctx, expense.Filter{CompanyID: 10, Page: expense.Page{Limit: 1, Offset: 1}})
		Expect(err).NotTo(HaveOccurred())
		Expect(ids(page)).To(Equal([]int64{2}))
	})

	It("writes a decision by id", func() {
		comment := "ok"
		at := base.Add(time.Hour)
		Expect(repo.UpdateDecision(ctx, 1, expense.DecisionRecord{
			Status: expense.StatusApproved, Comment: &comment, DecidedBy: 2, DecidedAt: at,
		})).To(Succeed())

		e, err := repo.GetByID(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Status).To(Equal(expense.StatusApproved))
		Expect(*e.DecisionComment).To(Equal("ok"))
		Expect(*e.DecidedBy).To(Equal(int64(2)))
		Expect(e.DecidedAt.Equal(at)).To(BeTrue())
	})

	It("lets the last decision win", func() {
		comment := "changed my mind"
		Expect(repo.UpdateDecision(ctx, 1, expense.DecisionRecord{Status: expense.StatusApproved, DecidedBy: 2, DecidedAt: base})).To(Succeed())
		Expect(repo.UpdateDecision(ctx, 1, expense.DecisionRecord{Status: expense.StatusRejected, Comment: &comment, DecidedBy: 3, DecidedAt: base})).To(Succeed())

		e, err := repo.GetByID(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Status).To(Equal(expense.StatusRejected))
		Expect(*e.DecidedBy).To(Equal(int64(3)))
	})

	It("reports updates to unknown ids", func() {
		err := repo.UpdateDecision(ctx, 99, expense.DecisionRecord{Status: expense.StatusApproved, DecidedBy: 2, DecidedAt: base})
		Expect(err).To(MatchError(expense.ErrNotFound))
	})
})
