package api

import (
	"strconv"
	"strings"
)

// validateDecimal accepts the plain decimal strings the server uses for money
// and multipliers ("1", "0.85", "12.50"). Signs and exponents are rejected.
func validateDecimal(field, value string) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return &ValidationError{Field: field, Reason: "is required"}
	}
	intPart, fracPart, hasDot := strings.Cut(v, ".")
	if intPart == "" || !allDigits(intPart) || (hasDot && (fracPart == "" || !allDigits(fracPart))) {
		return &ValidationError{Field: field, Reason: "must be a non-negative decimal number"}
	}
	return nil
}

// validateSignedDecimal is validateDecimal with an optional leading minus, used
// for balance adjustments.
func validateSignedDecimal(field, value string) error {
	v := strings.TrimSpace(value)
	if rest, ok := strings.CutPrefix(v, "-"); ok {
		v = rest
	}
	return validateDecimal(field, v)
}

func validateStatus(field string, status int) error {
	if status != 0 && status != 1 {
		return &ValidationError{Field: field, Reason: "must be 0 (disabled) or 1 (enabled)"}
	}
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseID parses a CLI or form value into a positive identifier.
func ParseID(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, &ValidationError{Field: field, Reason: "must be a positive integer"}
	}
	return id, nil
}
