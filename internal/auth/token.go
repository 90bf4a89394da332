package auth

import "github.com/google/uuid"

// NewToken returns a fresh random (version 4) UUID string. It is issued once
// at registration and acts as the user's bearer credential.
func NewToken() string {
	return uuid.NewString()
}
