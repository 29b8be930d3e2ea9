package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/sapiencia-analitica/matricula-portal/types"
)

const pqUniqueViolation = "23505"

// UserRepository handles persistence for the usuarios table. Every method is
// a single parameterized statement; the pool acquires and releases the
// connection around each call.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindCredentials returns the hash, salt and activation flag for a username.
func (r *UserRepository) FindCredentials(ctx context.Context, username string) (types.Credentials, error) {
	const query = `
		SELECT password_hash, sal, activo
		FROM usuarios
		WHERE username = $1`
	var creds types.Credentials
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&creds.Hash,
		&creds.Salt,
		&creds.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Credentials{}, ErrNotFound
		}
		return types.Credentials{}, err
	}
	return creds, nil
}

// FindProfile returns the id and display name for a username.
func (r *UserRepository) FindProfile(ctx context.Context, username string) (types.Profile, error) {
	const query = `
		SELECT id, nombre_completo
		FROM usuarios
		WHERE username = $1`
	var profile types.Profile
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&profile.ID,
		&profile.FullName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Profile{}, ErrNotFound
		}
		return types.Profile{}, err
	}
	return profile, nil
}

// CountByUsername returns how many rows carry the given username. With the
// unique constraint in place the answer is 0 or 1.
func (r *UserRepository) CountByUsername(ctx context.Context, username string) (int, error) {
	const query = `SELECT COUNT(*) FROM usuarios WHERE username = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Insert creates a new user row. Salt and hash are written together; activo
// takes the table default (TRUE). A unique-constraint violation maps to
// ErrDuplicate, which is the authoritative guard against concurrent
// registrations of the same username.
func (r *UserRepository) Insert(ctx context.Context, username, hash, salt, fullName string) error {
	const query = `
		INSERT INTO usuarios (username, password_hash, sal, nombre_completo)
		VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, username, hash, salt, fullName)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// UpdateCredentials replaces both salt and hash for a username, conditional
// on the stored hash still being oldHash. The compare-and-swap closes the
// race between two concurrent password changes: the loser matches zero rows
// and gets ErrConflict.
func (r *UserRepository) UpdateCredentials(ctx context.Context, username, newHash, newSalt, oldHash string) error {
	const query = `
		UPDATE usuarios
		SET password_hash = $1,
			sal = $2,
			updated_at = now()
		WHERE username = $3 AND password_hash = $4`
	result, err := r.db.ExecContext(ctx, query, newHash, newSalt, username, oldHash)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := r.FindCredentials(ctx, username); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}
