package shop

import "github.com/shopspring/decimal"

// RequireNotEmpty checks that a string field is non-empty.
func RequireNotEmpty(field, errMsg string) *CommandError {
	if field == "" {
		return NewInvalidArgument(errMsg)
	}
	return nil
}

// RequirePositive checks that an amount is greater than zero.
func RequirePositive(value decimal.Decimal, errMsg string) *CommandError {
	if !value.IsPositive() {
		return NewInvalidArgument(errMsg)
	}
	return nil
}

// RequireNonNegative checks that an amount is zero or greater.
func RequireNonNegative(value decimal.Decimal, errMsg string) *CommandError {
	if value.IsNegative() {
		return NewInvalidArgument(errMsg)
	}
	return nil
}

// RequireCovered checks that available covers required.
func RequireCovered(available, required decimal.Decimal, errMsg string) *CommandError {
	if required.GreaterThan(available) {
		return NewFailedPrecondition(errMsg)
	}
	return nil
}
