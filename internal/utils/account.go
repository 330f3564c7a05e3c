package utils

import "regexp"

var nonAlnum = regexp.MustCompile(`[^0-9A-Za-z-]`)

// CleanAccountID strips whitespace and separator noise from a customer
// account id as typed by an operator.
func CleanAccountID(accountID string) string {
	return nonAlnum.ReplaceAllString(accountID, "")
}

// IsValidAccountID reports whether a cleaned account id is plausible. Account
// id formats vary per provider, so this only rejects the obviously broken.
func IsValidAccountID(accountID string) bool {
	n := len(accountID)
	return n >= 4 && n <= 32
}
