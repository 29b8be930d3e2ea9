package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sapiencia-analitica/matricula-portal/internal/auth"
	"github.com/sapiencia-analitica/matricula-portal/internal/store"
	"github.com/sapiencia-analitica/matricula-portal/types"
)

// AdminUsername is the privileged identity allowed to register new users.
const AdminUsername = "admin"

// UserRepository defines the credential-store operations used by AuthService.
type UserRepository interface {
	FindCredentials(ctx context.Context, username string) (types.Credentials, error)
	FindProfile(ctx context.Context, username string) (types.Profile, error)
	CountByUsername(ctx context.Context, username string) (int, error)
	Insert(ctx context.Context, username, hash, salt, fullName string) error
	UpdateCredentials(ctx context.Context, username, newHash, newSalt, oldHash string) error
}

// Auditor records security-relevant events. Recording is best-effort; an
// implementation must never fail the operation it observes.
type Auditor interface {
	Record(ctx context.Context, event types.AuditEvent)
}

// AuthService orchestrates login, password change and user registration over
// the credential store and the hashing scheme.
type AuthService struct {
	repo    UserRepository
	auditor Auditor
}

func NewAuthService(repo UserRepository, auditor Auditor) *AuthService {
	return &AuthService{repo: repo, auditor: auditor}
}

// Login authenticates a username/password pair and returns the user profile
// attached to the new session. The checks run in a fixed order: presence,
// existence, activation, stored-credential integrity, password match.
func (s *AuthService) Login(ctx context.Context, username, password string) (types.User, error) {
	if username == "" || password == "" {
		return types.User{}, ErrMissingField
	}

	creds, err := s.repo.FindCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUserNotFound
		}
		return types.User{}, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	if !creds.Active {
		s.audit(ctx, types.AuditLoginFailed, username, "account disabled")
		return types.User{}, ErrAccountDisabled
	}

	if creds.Hash == "" || creds.Salt == "" {
		return types.User{}, ErrCorruptCredential
	}

	if !auth.Verify(creds.Salt, creds.Hash, password) {
		s.audit(ctx, types.AuditLoginFailed, username, "wrong password")
		return types.User{}, ErrInvalidCredential
	}

	profile, err := s.repo.FindProfile(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUserNotFound
		}
		return types.User{}, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	s.audit(ctx, types.AuditLoginSucceeded, username, "")
	return types.User{
		ID:       profile.ID,
		Username: username,
		FullName: profile.FullName,
		Active:   true,
	}, nil
}

// ChangePassword replaces the caller's salt and hash after re-verifying the
// current password. All validation happens before any store access; a
// rejected attempt leaves the store untouched. The final update is
// conditional on the old hash, so a concurrent change from another session
// surfaces as ErrConcurrentChange instead of silently winning.
func (s *AuthService) ChangePassword(ctx context.Context, username, current, newPassword, confirm string) error {
	if username == "" || current == "" || newPassword == "" || confirm == "" {
		return ErrMissingField
	}
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	creds, err := s.repo.FindCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}

	if creds.Hash == "" || creds.Salt == "" {
		return ErrCorruptCredential
	}
	if !auth.Verify(creds.Salt, creds.Hash, current) {
		return ErrInvalidCredential
	}

	salt, digest, err := auth.Derive(newPassword)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateCredentials(ctx, username, digest, salt, creds.Hash); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return ErrConcurrentChange
		case errors.Is(err, store.ErrNotFound):
			return ErrUserNotFound
		default:
			return fmt.Errorf("%w: %v", ErrQuery, err)
		}
	}

	s.audit(ctx, types.AuditPasswordChanged, username, "")
	return nil
}

// Register creates a new account. Only the privileged identity may call it;
// the gate is checked before anything touches the store. The friendly
// existence check runs first, but the unique constraint behind Insert is the
// authoritative guard against a concurrent registration.
func (s *AuthService) Register(ctx context.Context, actor, username, fullName, password, confirm string) (types.User, error) {
	if actor != AdminUsername {
		return types.User{}, ErrForbidden
	}
	if username == "" || fullName == "" || password == "" || confirm == "" {
		return types.User{}, ErrMissingField
	}
	if password != confirm {
		return types.User{}, ErrPasswordMismatch
	}
	if len(password) < MinPasswordLength {
		return types.User{}, ErrWeakPassword
	}

	count, err := s.repo.CountByUsername(ctx, username)
	if err != nil {
		return types.User{}, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if count > 0 {
		return types.User{}, ErrDuplicateUser
	}

	salt, digest, err := auth.Derive(password)
	if err != nil {
		return types.User{}, err
	}

	if err := s.repo.Insert(ctx, username, digest, salt, fullName); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return types.User{}, ErrDuplicateUser
		}
		return types.User{}, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	profile, err := s.repo.FindProfile(ctx, username)
	if err != nil {
		return types.User{}, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	s.audit(ctx, types.AuditUserRegistered, actor, username)
	return types.User{
		ID:       profile.ID,
		Username: username,
		FullName: fullName,
		Active:   true,
	}, nil
}

// Profile returns the id and display name for a username.
func (s *AuthService) Profile(ctx context.Context, username string) (types.Profile, error) {
	profile, err := s.repo.FindProfile(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Profile{}, ErrUserNotFound
		}
		return types.Profile{}, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return profile, nil
}

func (s *AuthService) audit(ctx context.Context, action, username, subject string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, types.AuditEvent{
		Action:   action,
		Username: username,
		Subject:  subject,
	})
}
