package premium

import "github.com/shopspring/decimal"

var (
	ten = decimal.NewFromInt(10)
	two = decimal.NewFromInt(2)
)

// RoundTotal drops the amount to a multiple of 10 yen. Applied to every
// monthly premium total before it is split.
func RoundTotal(amount decimal.Decimal) decimal.Decimal {
	return amount.Div(ten).Floor().Mul(ten)
}

// RoundEmployeeShare floors the employee's half of a premium.
func RoundEmployeeShare(half decimal.Decimal) decimal.Decimal {
	return half.Floor()
}

// SplitTotal divides a total into employee and employer shares. The employer
// takes the remainder, so the shares always add back to total.
func SplitTotal(total decimal.Decimal) Split {
	employee := RoundEmployeeShare(total.Div(two))
	return Split{
		Total:         total,
		EmployeeShare: employee,
		EmployerShare: total.Sub(employee),
	}
}
