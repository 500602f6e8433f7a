package service

import "strings"

// NormalizeEmail trims surrounding whitespace and lowercases the address so
// lookups and the unique index agree on one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
