package domain

import "regexp"

// emailPattern is a syntactic sanity check: something@something.something with no
// whitespace or U+FEFF and exactly one '@'. It accepts plenty of undeliverable addresses.
var emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)

// LooksLikeEmail reports whether s passes the basic address syntax check.
func LooksLikeEmail(s string) bool {
	if s == "" {
		return false
	}
	return emailPattern.MatchString(s)
}
