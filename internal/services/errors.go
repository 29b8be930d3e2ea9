package services

import (
	"errors"
	"fmt"
)

// MinPasswordLength is the minimum accepted length for new passwords.
const MinPasswordLength = 8

// Sentinel errors for every way a portal operation can fail. Handlers map
// these to HTTP statuses; nothing below this layer reaches a client raw.
var (
	// ErrValidation covers missing or malformed input, rejected before any
	// store access.
	ErrValidation = errors.New("invalid input")

	// ErrUserNotFound means the username does not exist in the store.
	ErrUserNotFound = errors.New("user not found")

	// ErrAccountDisabled means the account exists but activo is false.
	// It takes precedence over password correctness.
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrCorruptCredential means the stored row is missing its hash or
	// salt, a store integrity violation.
	ErrCorruptCredential = errors.New("stored credentials are corrupt")

	// ErrInvalidCredential means the password did not match.
	ErrInvalidCredential = errors.New("invalid credentials")

	// ErrDuplicateUser means the username is already taken.
	ErrDuplicateUser = errors.New("username already exists")

	// ErrConcurrentChange means a conditional credential update lost to a
	// concurrent change from another session.
	ErrConcurrentChange = errors.New("credentials changed concurrently")

	// ErrForbidden means the acting identity may not perform the operation.
	ErrForbidden = errors.New("operation not permitted")

	// ErrQuery covers store or connectivity failures. Terminal for the
	// operation; the user resubmits.
	ErrQuery = errors.New("query failed")
)

// Wrapped validation sentinels; errors.Is(err, ErrValidation) holds for all.
var (
	ErrMissingField     = fmt.Errorf("%w: all fields are required", ErrValidation)
	ErrPasswordMismatch = fmt.Errorf("%w: passwords do not match", ErrValidation)
	ErrWeakPassword     = fmt.Errorf("%w: password must have at least %d characters", ErrValidation, MinPasswordLength)
)
