// Package tuition holds the tuition formula and its input validation.
package tuition

import (
	"github.com/shopspring/decimal"

	apperrors "tuition/internal/errors"
)

const (
	// SemesterMonths is the fixed semester basis, independent of the installment term.
	SemesterMonths = 6
	// DefaultInstallments is used when the caller leaves the term unset.
	DefaultInstallments = 6
	MinInstallments     = 1
	MaxInstallments     = 10
)

var (
	hundred      = decimal.NewFromInt(100)
	semesterBase = decimal.NewFromInt(SemesterMonths)
)

// Quote is the result of a tuition computation. No rounding is applied.
type Quote struct {
	MonthlyWithDiscount     decimal.Decimal `json:"monthly_with_discount"`
	MonthlyWithoutDiscount  decimal.Decimal `json:"monthly_without_discount"`
	SemesterWithDiscount    decimal.Decimal `json:"semester_with_discount"`
	SemesterWithoutDiscount decimal.Decimal `json:"semester_without_discount"`
	CreditPrice             decimal.Decimal `json:"credit_price"`
}

// Compute applies the tuition formula. installmentMonths must be at least 1;
// zero panics. Other arguments are used as given. Run Validate first.
func Compute(creditPrice, creditCount decimal.Decimal, installmentMonths int, discountPercent decimal.Decimal) Quote {
	semester := creditPrice.Mul(creditCount).Mul(semesterBase)
	monthly := semester.Div(decimal.NewFromInt(int64(installmentMonths)))
	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(hundred))

	return Quote{
		MonthlyWithDiscount:     monthly.Mul(factor),
		MonthlyWithoutDiscount:  monthly,
		SemesterWithDiscount:    semester.Mul(factor),
		SemesterWithoutDiscount: semester,
		CreditPrice:             creditPrice,
	}
}

// Input is the raw form data of a quote request. Nil pointers are unset fields.
type Input struct {
	CourseID          string
	CreditCount       *decimal.Decimal
	InstallmentMonths int
	DiscountPercent   *decimal.Decimal
}

// Normalize fills the installment default.
func (in Input) Normalize() Input {
	if in.InstallmentMonths == 0 {
		in.InstallmentMonths = DefaultInstallments
	}
	return in
}

// Validate checks every field and reports each failure separately.
// courseFound tells whether CourseID resolved to an existing course.
func Validate(in Input, courseFound bool) error {
	var verr apperrors.ValidationError

	if in.CourseID == "" || !courseFound {
		verr.Add("course", "select a course")
	}
	if in.CreditCount == nil || !in.CreditCount.IsPositive() {
		verr.Add("credits", "enter a valid number of credits")
	}
	if in.InstallmentMonths < MinInstallments || in.InstallmentMonths > MaxInstallments {
		verr.Add("installments", "installment term must be between 1 and 10 months")
	}
	switch {
	case in.DiscountPercent == nil:
		verr.Add("discount", "enter the discount (0 when there is none)")
	case in.DiscountPercent.IsNegative() || in.DiscountPercent.GreaterThan(hundred):
		verr.Add("discount", "discount must be between 0 and 100")
	}

	return verr.OrNil()
}
