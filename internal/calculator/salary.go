// Package calculator holds the stateless payroll and menu-engineering
// calculators. Both are pure functions of their input.
package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// StandardMonthlyHours converts a monthly base salary to an hourly rate
	// when no explicit rate is given.
	StandardMonthlyHours = decimal.NewFromInt(225)

	// DefaultOvertimeMultiplier applies when the input omits one.
	DefaultOvertimeMultiplier = decimal.RequireFromString("1.5")
)

// ErrNegativeInput is returned when a money input is negative.
var ErrNegativeInput = errors.New("salary amounts must not be negative")

// SalaryInput is the payroll input for one period. HourlyRate and
// OvertimeMultiplier are optional.
type SalaryInput struct {
	BaseSalary         decimal.Decimal
	TotalHours         decimal.Decimal
	OvertimeHours      decimal.Decimal
	Bonuses            decimal.Decimal
	Deductions         decimal.Decimal
	HourlyRate         *decimal.Decimal
	OvertimeMultiplier *decimal.Decimal
}

// SalaryBreakdown explains how the net figure was reached.
type SalaryBreakdown struct {
	RegularPay         decimal.Decimal
	OvertimePay        decimal.Decimal
	HourlyRate         decimal.Decimal
	OvertimeMultiplier decimal.Decimal
}

// SalaryResult is the computed payslip.
type SalaryResult struct {
	BaseSalary  decimal.Decimal
	OvertimePay decimal.Decimal
	Bonuses     decimal.Decimal
	Deductions  decimal.Decimal
	NetSalary   decimal.Decimal
	Breakdown   SalaryBreakdown
}

// Validate rejects negative money amounts. Hours are not checked here;
// Salary clamps them to zero.
func (in SalaryInput) Validate() error {
	for _, d := range []decimal.Decimal{in.BaseSalary, in.Bonuses, in.Deductions} {
		if d.IsNegative() {
			return ErrNegativeInput
		}
	}
	if in.HourlyRate != nil && in.HourlyRate.IsNegative() {
		return ErrNegativeInput
	}
	if in.OvertimeMultiplier != nil && in.OvertimeMultiplier.IsNegative() {
		return ErrNegativeInput
	}
	return nil
}

// Salary computes
//
//	regular  = rate × max(0, total − overtime)
//	overtime = rate × multiplier × max(0, overtime)
//	net      = max(0, regular + overtime + bonuses − deductions)
//
// where rate defaults to base/225 and multiplier to 1.5.
func Salary(in SalaryInput) SalaryResult {
	rate := in.BaseSalary.Div(StandardMonthlyHours)
	if in.HourlyRate != nil {
		rate = *in.HourlyRate
	}
	multiplier := DefaultOvertimeMultiplier
	if in.OvertimeMultiplier != nil {
		multiplier = *in.OvertimeMultiplier
	}

	regularHours := decimal.Max(decimal.Zero, in.TotalHours.Sub(in.OvertimeHours))
	overtimeHours := decimal.Max(decimal.Zero, in.OvertimeHours)

	regularPay := rate.Mul(regularHours)
	overtimePay := rate.Mul(multiplier).Mul(overtimeHours)
	net := decimal.Max(decimal.Zero, regularPay.Add(overtimePay).Add(in.Bonuses).Sub(in.Deductions))

	return SalaryResult{
		BaseSalary:  in.BaseSalary,
		OvertimePay: overtimePay,
		Bonuses:     in.Bonuses,
		Deductions:  in.Deductions,
		NetSalary:   net,
		Breakdown: SalaryBreakdown{
			RegularPay:         regularPay,
			OvertimePay:        overtimePay,
			HourlyRate:         rate,
			OvertimeMultiplier: multiplier,
		},
	}
}
