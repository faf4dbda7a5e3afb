// Package validate holds the two pure validators from spec.md §3.
package validate

import "unicode/utf8"

// Username reports whether s is a legal display name: 3 to 12
// characters, every character alphanumeric ASCII.
func Username(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < 3 || n > 12 {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isAlpha && !isDigit {
			return false
		}
	}
	return true
}

// Message reports whether s is a legal chat message body: 1 to 1000
// characters. This is a tighter semantic bound than MESSAGE's 4096-byte
// wire payload cap (spec.md §3 note).
func Message(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= 1 && n <= 1000
}
