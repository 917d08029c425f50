package validation_test

import (
	"testing"

	errors "github.com/frahmantamala/expenseflow/internal"
	"github.com/frahmantamala/expenseflow/internal/core/common/validation"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestValidation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Validation Suite")
}

func fieldErrors(err *errors.AppError) []errors.ValidationError {
	Expect(err).NotTo(BeNil())
	details, ok := err.Details.(errors.ValidationErrors)
	Expect(ok).To(BeTrue())
	return details.Errors
}

var _ = Describe("ValidationBuilder", func() {
	It("passes when every rule holds", func() {
		v := validation.NewValidator()
		v.Field("amount", 12.5).Money(1e13, errors.ErrCodeInvalidAmount)
		v.Field("currency_code", "USD").Required().CurrencyCode()
		v.Field("expense_date", "2024-02-29").Required().Date()
		Expect(v.Validate()).To(BeNil())
	})

	It("reports one error per failing field", func() {
		v := validation.NewValidator()
		v.Field("description", "   ").Required().MaxLength(500)
		v.Field("amount", 0.0).Money(1e13, errors.ErrCodeInvalidAmount)

		errs := fieldErrors(v.Validate())
		Expect(errs).To(HaveLen(2))
		Expect(errs[0].Field).To(Equal("description"))
		Expect(errs[1].Field).To(Equal("amount"))
		Expect(errs[1].Code).To(Equal(string(errors.ErrCodeInvalidAmount)))
	})

	DescribeTable("money amounts",
		func(amount float64, valid bool) {
			v := validation.NewValidator()
			v.Field("amount", &amount).Money(1e13, errors.ErrCodeInvalidAmount)
			if valid {
				Expect(v.Validate()).To(BeNil())
			} else {
				Expect(fieldErrors(v.Validate())[0].Code).To(Equal(string(errors.ErrCodeInvalidAmount)))
			}
		},
		Entry("whole", 40.0, true),
		Entry("cents", 0.29, true),
		Entry("smallest", 0.01, true),
		Entry("largest", 9999999999999.99, true),
		Entry("negative", -1.0, false),
		Entry("below a cent", 0.004, false),
		Entry("fractional cents", 10.005, false),
		Entry("at the limit", 1e13, false),
		Entry("far beyond the limit", 1e20, false),
	)

	DescribeTable("currency codes",
		func(code string, valid bool) {
			v := validation.NewValidator()
			v.Field("currency_code", code).CurrencyCode()
			if valid {
				Expect(v.Validate()).To(BeNil())
			} else {
				Expect(fieldErrors(v.Validate())[0].Code).To(Equal(string(errors.ErrCodeInvalidCurrency)))
			}
		},
		Entry("upper", "EUR", true),
		Entry("lower", "eur", false),
		Entry("too long", "EURO", false),
		Entry("digits", "E1R", false),
	)

	DescribeTable("dates",
		func(date string, valid bool) {
			v := validation.NewValidator()
			v.Field("expense_date", date).Date()
			Expect(v.Validate() == nil).To(Equal(valid))
		},
		Entry("iso date", "2024-01-31", true),
		Entry("impossible day", "2024-02-30", false),
		Entry("slashes", "2024/01/31", false),
		Entry("timestamp", "2024-01-31T10:00:00Z", false),
	)

	It("rejects values outside an enumeration", func() {
		v := validation.NewValidator()
		v.Field("category", "snacks").OneOf([]string{"meals", "travel"}, errors.ErrCodeInvalidCategory)
		errs := fieldErrors(v.Validate())
		Expect(errs[0].Message).To(ContainSubstring("meals, travel"))
	})

	It("counts characters rather than bytes for length limits", func() {
		v := validation.NewValidator()
		v.Field("description", "ééé").MaxLength(3)
		Expect(v.Validate()).To(BeNil())
	})
})
