package expense_test

import (
	"errors"

	"github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/internal/expense"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Transition", func() {
	DescribeTable("outcomes",
		func(from expense.Status, d expense.Decision, want expense.Status, ok bool) {
			got, err := expense.Transition(from, d)
			if ok {
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(want))
				return
			}
			Expect(errors.Is(err, internal.ErrInvalidExpenseStatus)).To(BeTrue())
			Expect(got).To(Equal(from))
		},
		Entry("pending approve", expense.StatusPending, expense.DecisionApprove, expense.StatusApproved, true),
		Entry("pending reject", expense.StatusPending, expense.DecisionReject, expense.StatusRejected, true),
		Entry("approved approve", expense.StatusApproved, expense.DecisionApprove, expense.StatusApproved, false),
		Entry("approved reject", expense.StatusApproved, expense.DecisionReject, expense.StatusApproved, false),
		Entry("rejected approve", expense.StatusRejected, expense.DecisionApprove, expense.StatusRejected, false),
		Entry("rejected reject", expense.StatusRejected, expense.DecisionReject, expense.StatusRejected, false),
		Entry("unknown status", expense.Status("archived"), expense.DecisionApprove, expense.Status("archived"), false),
		Entry("unknown decision", expense.StatusPending, expense.Decision("escalate"), expense.StatusPending, false),
	)

	It("parses stored statuses", func() {
		s, ok := expense.ParseStatus(" Approved ")
		Expect(ok).To(BeTrue())
		Expect(s).To(Equal(expense.StatusApproved))

		_, ok = expense.ParseStatus("draft")
		Expect(ok).To(BeFalse())
	})
})
