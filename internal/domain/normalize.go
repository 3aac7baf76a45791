package domain

import "strings"

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
// It is used for lawyer names and city names.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeEmail lowercases and trims an email address for lookups.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeBarLicense uppercases a bar licence number and strips surrounding whitespace.
func NormalizeBarLicense(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
