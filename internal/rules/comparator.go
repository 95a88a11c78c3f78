package rules

import "labqc/internal"

const (
	OpLess      = "<"
	OpLessEq    = "<="
	OpGreater   = ">"
	OpGreaterEq = ">="
	OpEqual     = "="
	OpBetween   = "between"
)

// Compare evaluates one operator/bound pair against a measured value. An
// unknown operator or a missing required bound yields StatusNoRule, never a
// guess. An "=" bound of 0 is the absence requirement (total absence of an
// organism): same equality semantics, distinct business origin.
func Compare(operator string, lower, upper *float64, value float64) internal.AnalyteStatus {
	switch operator {
	case OpLess:
		if upper == nil {
			return internal.StatusNoRule
		}
		return validWhen(value < *upper)
	case OpLessEq:
		if upper == nil {
			return internal.StatusNoRule
		}
		return validWhen(value <= *upper)
	case OpGreater:
		if lower == nil {
			return internal.StatusNoRule
		}
		return validWhen(value > *lower)
	case OpGreaterEq:
		if lower == nil {
			return internal.StatusNoRule
		}
		return validWhen(value >= *lower)
	case OpEqual:
		bound := upper
		if bound == nil {
			bound = lower
		}
		if bound == nil {
			return internal.StatusNoRule
		}
		return validWhen(value == *bound)
	case OpBetween:
		if lower == nil || upper == nil {
			return internal.StatusNoRule
		}
		return validWhen(*lower <= value && value <= *upper)
	default:
		return internal.StatusNoRule
	}
}

func validWhen(ok bool) internal.AnalyteStatus {
	if ok {
		return internal.StatusValid
	}
	return internal.StatusInvalid
}
