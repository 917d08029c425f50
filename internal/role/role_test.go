package role_test

import (
	"context"
	"errors"
	"testing"

	"github.com/frahmantamala/expenseflow/internal/role"
	"github.com/frahmantamala/expenseflow/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRole(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Role Suite")
}

type stubRepository struct {
	value string
	err   error
	calls int
}

func (s *stubRepository) GetRole(_ context.Context, _ int64) (string, error) {
	s.calls++
	return s.value, s.err
}

var _ = Describe("Role", func() {
	DescribeTable("Parse",
		func(in string, want role.Role) {
			Expect(role.Parse(in)).To(Equal(want))
		},
		Entry("admin", "admin", role.Admin),
		Entry("manager with noise", " Manager ", role.Manager),
		Entry("employee", "employee", role.Employee),
		Entry("unknown", "superuser", role.Employee),
		Entry("empty", "", role.Employee),
	)

	It("grants capabilities by tier", func() {
		Expect(role.Employee.Can(role.CapSubmitExpense)).To(BeTrue())
		Expect(role.Employee.Can(role.CapViewPending)).To(BeFalse())
		Expect(role.Employee.Can(role.CapDecideExpense)).To(BeFalse())

		Expect(role.Manager.Can(role.CapDecideExpense)).To(BeTrue())
		Expect(role.Manager.Can(role.CapViewAllExpenses)).To(BeTrue())
		Expect(role.Manager.Can(role.CapViewUserDirectory)).To(BeFalse())

		Expect(role.Admin.Can(role.CapViewUserDirectory)).To(BeTrue())
		Expect(role.Admin.Can(role.CapDecideExpense)).To(BeTrue())
	})
})

var _ = Describe("Resolver", func() {
	var (
		repo     *stubRepository
		resolver *role.Resolver
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = &stubRepository{}
		resolver = role.NewResolver(repo, logger.Discard())
	})

	It("returns the stored role", func() {
		repo.value = "manager"
		Expect(resolver.Resolve(ctx, 1)).To(Equal(role.Manager))
		Expect(repo.calls).To(Equal(1))
	})

	It("defaults to employee when no row exists", func() {
		repo.err = role.ErrRoleNotFound
		Expect(resolver.Resolve(ctx, 1)).To(Equal(role.Employee))
	})

	It("fails closed when the lookup errors", func() {
		repo.value = "admin"
		repo.err = errors.New("connection reset")
		Expect(resolver.Resolve(ctx, 1)).To(Equal(role.Employee))
	})

	It("does not query without a user id", func() {
		Expect(resolver.Resolve(ctx, 0)).To(Equal(role.Employee))
		Expect(repo.calls).To(Equal(0))
	})
})
