package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, d(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestSalary_DefaultRateScenario(t *testing.T) {
	res := Salary(SalaryInput{
		BaseSalary:    d("4500"),
		TotalHours:    d("200"),
		OvertimeHours: d("20"),
	})

	assertDecimal(t, "20", res.Breakdown.HourlyRate)
	assertDecimal(t, "1.5", res.Breakdown.OvertimeMultiplier)
	assertDecimal(t, "3600", res.Breakdown.RegularPay)
	assertDecimal(t, "600", res.OvertimePay)
	assertDecimal(t, "4200", res.NetSalary)
	assertDecimal(t, "4500", res.BaseSalary)
}

func TestSalary_ExplicitRateAndMultiplier(t *testing.T) {
	res := Salary(SalaryInput{
		BaseSalary:         d("0"),
		TotalHours:         d("10"),
		OvertimeHours:      d("2"),
		Bonuses:            d("5"),
		Deductions:         d("3"),
		HourlyRate:         dp("10"),
		OvertimeMultiplier: dp("2"),
	})

	assertDecimal(t, "80", res.Breakdown.RegularPay)
	assertDecimal(t, "40", res.OvertimePay)
	assertDecimal(t, "122", res.NetSalary)
}

func TestSalary_NetNeverNegative(t *testing.T) {
	res := Salary(SalaryInput{
		BaseSalary:    d("225"),
		TotalHours:    d("1"),
		OvertimeHours: d("0"),
		Deductions:    d("1000"),
	})
	assertDecimal(t, "0", res.NetSalary)
	assertDecimal(t, "1000", res.Deductions)
}

func TestSalary_OvertimeExceedsTotal(t *testing.T) {
	res := Salary(SalaryInput{
		BaseSalary:    d("2250"),
		TotalHours:    d("5"),
		OvertimeHours: d("8"),
	})
	assertDecimal(t, "0", res.Breakdown.RegularPay)
	assertDecimal(t, "120", res.OvertimePay)
}

func TestSalary_NegativeOvertimeClamped(t *testing.T) {
	in := SalaryInput{
		BaseSalary:    d("4500"),
		TotalHours:    d("200"),
		OvertimeHours: d("-5"),
	}
	require.NoError(t, in.Validate())

	res := Salary(in)
	assertDecimal(t, "0", res.OvertimePay)
	assertDecimal(t, "4100", res.Breakdown.RegularPay)
	assertDecimal(t, "4100", res.NetSalary)
}

func TestSalary_NegativeTotalHoursClamped(t *testing.T) {
	res := Salary(SalaryInput{
		BaseSalary:    d("4500"),
		TotalHours:    d("-10"),
		OvertimeHours: d("0"),
		Bonuses:       d("50"),
	})
	assertDecimal(t, "0", res.Breakdown.RegularPay)
	assertDecimal(t, "50", res.NetSalary)
}

func TestSalary_Property(t *testing.T) {
	cases := []struct{ base, total, overtime, bonus, deduct string }{
		{"4500", "200", "20", "0", "0"},
		{"9000", "180", "0", "100", "50"},
		{"3150", "160", "40", "0", "10000"},
		{"1234.56", "77.5", "12.25", "10", "5"},
	}
	for _, c := range cases {
		res := Salary(SalaryInput{
			BaseSalary:    d(c.base),
			TotalHours:    d(c.total),
			OvertimeHours: d(c.overtime),
			Bonuses:       d(c.bonus),
			Deductions:    d(c.deduct),
		})
		rate := d(c.base).Div(d("225"))
		want := rate.Mul(d(c.total).Sub(d(c.overtime))).
			Add(rate.Mul(d("1.5")).Mul(d(c.overtime))).
			Add(d(c.bonus)).
			Sub(d(c.deduct))
		want = decimal.Max(decimal.Zero, want)
		assert.True(t, want.Equal(res.NetSalary), "base=%s: want %s got %s", c.base, want, res.NetSalary)
	}
}

func TestSalaryInput_Validate(t *testing.T) {
	require.NoError(t, SalaryInput{BaseSalary: d("1")}.Validate())
	require.NoError(t, SalaryInput{TotalHours: d("-1"), OvertimeHours: d("-5")}.Validate())
	assert.ErrorIs(t, SalaryInput{BaseSalary: d("-1")}.Validate(), ErrNegativeInput)
	assert.ErrorIs(t, SalaryInput{Deductions: d("-0.01")}.Validate(), ErrNegativeInput)
	assert.ErrorIs(t, SalaryInput{HourlyRate: dp("-2")}.Validate(), ErrNegativeInput)
	assert.ErrorIs(t, SalaryInput{OvertimeMultiplier: dp("-0.5")}.Validate(), ErrNegativeInput)
}
