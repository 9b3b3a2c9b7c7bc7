package validator

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Email validation
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// Numeric validation
var numericRegex = regexp.MustCompile(`^[0-9]+$`)

func IsNumeric(s string) bool {
	return numericRegex.MatchString(s)
}

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", dateStr)
	return date, err == nil
}

// RUT validation (Chilean legal id). Accepts "12345678-5" or "12.345.678-5"
// and verifies the modulo-11 check digit.
func IsValidRUT(rut string) bool {
	rut = strings.ToUpper(strings.ReplaceAll(rut, ".", ""))
	parts := strings.Split(rut, "-")
	if len(parts) != 2 || len(parts[1]) != 1 {
		return false
	}
	body, dv := parts[0], parts[1]
	if !IsNumeric(body) || len(body) < 6 || len(body) > 9 {
		return false
	}

	sum := 0
	factor := 2
	for i := len(body) - 1; i >= 0; i-- {
		d, _ := strconv.Atoi(string(body[i]))
		sum += d * factor
		factor++
		if factor > 7 {
			factor = 2
		}
	}
	rest := 11 - (sum % 11)
	var expected string
	switch rest {
	case 11:
		expected = "0"
	case 10:
		expected = "K"
	default:
		expected = strconv.Itoa(rest)
	}
	return dv == expected
}

// Slice contains check
func IsInSlice(value string, slice []string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}

// Itoa converts an integer to a string.
func Itoa(i int) string {
	return strconv.Itoa(i)
}

// IsValidPeriod checks a payroll period (calendar month).
func IsValidPeriod(year, month int) bool {
	return month >= 1 && month <= 12 && year >= 2020
}
