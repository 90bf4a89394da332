package auth

import "crypto/subtle"

// ComparePassword reports whether supplied matches the stored password.
// Passwords are stored exactly as registered, so this is a byte-for-byte,
// case-sensitive comparison.
func ComparePassword(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
