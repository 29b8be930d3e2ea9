package types

// User represents an account in the portal's credential store
// (the usuarios table).
type User struct {
	// ID is the unique identifier of the user, assigned by the store.
	ID int `json:"id" db:"id"`

	// Username is the unique, case-sensitive login name.
	Username string `json:"username" db:"username"`

	// FullName is the user's display name (nombre_completo).
	FullName string `json:"full_name" db:"nombre_completo"`

	// Active indicates whether the account may authenticate. Inactive
	// accounts fail login regardless of password correctness.
	Active bool `json:"active" db:"activo"`

	// PasswordHash is the hex PBKDF2 digest of the user's password.
	// Never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Salt is the per-user random hex salt (sal). Always set together
	// with PasswordHash, never one without the other.
	Salt string `json:"-" db:"sal"`
}

// Credentials is the subset of a user row needed to verify a login.
type Credentials struct {
	Hash   string
	Salt   string
	Active bool
}

// Profile is the subset of a user row attached to an authenticated session.
type Profile struct {
	ID       int    `json:"id"`
	FullName string `json:"full_name"`
}
