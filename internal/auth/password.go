// Package auth implements the portal's password hashing scheme: PBKDF2 with
// HMAC-SHA256, a per-user random salt, and hex-encoded storage of both salt
// and digest.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// saltBytes is the raw salt size; hex-encoded it becomes 32 characters.
	saltBytes = 16

	// iterations is the PBKDF2 iteration count. Derive and Verify must use
	// the same value or every login fails.
	iterations = 100_000

	keyLength = sha256.Size
)

// ErrHashing is returned when the entropy source fails during derivation.
var ErrHashing = errors.New("auth: password derivation failed")

// Derive generates a fresh random salt and computes the PBKDF2 digest of the
// password. Both values are returned hex-encoded, ready for storage. The two
// must always be persisted together.
func Derive(password string) (salt, digest string, err error) {
	var raw [saltBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrHashing, err)
	}

	salt = hex.EncodeToString(raw[:])
	digest = derive(password, salt)
	return salt, digest, nil
}

// Verify recomputes the digest for the candidate password with the stored
// salt and compares it against the stored digest in constant time. It returns
// false, never an error, if any input is empty.
func Verify(salt, storedDigest, candidate string) bool {
	if salt == "" || storedDigest == "" || candidate == "" {
		return false
	}
	computed := derive(candidate, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedDigest)) == 1
}

// derive runs PBKDF2 over the password. The salt is fed in as the bytes of
// its hex representation, matching how stored rows were originally produced.
func derive(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLength, sha256.New)
	return hex.EncodeToString(key)
}
