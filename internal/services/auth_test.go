package services

import (
	"context"
	"errors"
	"testing"

	"github.com/sapiencia-analitica/matricula-portal/internal/auth"
	"github.com/sapiencia-analitica/matricula-portal/internal/store"
	"github.com/sapiencia-analitica/matricula-portal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRow struct {
	id       int
	hash     string
	salt     string
	fullName string
	active   bool
}

// fakeUserRepo is an in-memory UserRepository that counts mutations so tests
// can assert a rejected operation never touched the store.
type fakeUserRepo struct {
	rows      map[string]*fakeUserRow
	nextID    int
	mutations int
	failWith  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{rows: map[string]*fakeUserRow{}, nextID: 1}
}

func (f *fakeUserRepo) add(username, password, fullName string, active bool) *fakeUserRow {
	salt, digest, err := auth.Derive(password)
	if err != nil {
		panic(err)
	}
	row := &fakeUserRow{id: f.nextID, hash: digest, salt: salt, fullName: fullName, active: active}
	f.nextID++
	f.rows[username] = row
	return row
}

func (f *fakeUserRepo) FindCredentials(_ context.Context, username string) (types.Credentials, error) {
	if f.failWith != nil {
		return types.Credentials{}, f.failWith
	}
	row, ok := f.rows[username]
	if !ok {
		return types.Credentials{}, store.ErrNotFound
	}
	return types.Credentials{Hash: row.hash, Salt: row.salt, Active: row.active}, nil
}

func (f *fakeUserRepo) FindProfile(_ context.Context, username string) (types.Profile, error) {
	row, ok := f.rows[username]
	if !ok {
		return types.Profile{}, store.ErrNotFound
	}
	return types.Profile{ID: row.id, FullName: row.fullName}, nil
}

func (f *fakeUserRepo) CountByUsername(_ context.Context, username string) (int, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	if _, ok := f.rows[username]; ok {
		return 1, nil
	}
	return 0, nil
}

func (f *fakeUserRepo) Insert(_ context.Context, username, hash, salt, fullName string) error {
	if _, ok := f.rows[username]; ok {
		return store.ErrDuplicate
	}
	f.mutations++
	row := &fakeUserRow{id: f.nextID, hash: hash, salt: salt, fullName: fullName, active: true}
	f.nextID++
	f.rows[username] = row
	return nil
}

func (f *fakeUserRepo) UpdateCredentials(_ context.Context, username, newHash, newSalt, oldHash string) error {
	row, ok := f.rows[username]
	if !ok {
		return store.ErrNotFound
	}
	if row.hash != oldHash {
		return store.ErrConflict
	}
	f.mutations++
	row.hash = newHash
	row.salt = newSalt
	return nil
}

func TestLoginSuccess(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add("alice", "Sup3rSecret!", "Alice Example", true)
	svc := NewAuthService(repo, nil)

	user, err := svc.Login(context.Background(), "alice", "Sup3rSecret!")
	require.NoError(t, err)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "Alice Example", user.FullName)
	assert.Equal(t, 1, user.ID)
	assert.True(t, user.Active)
	assert.Empty(t, user.PasswordHash)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add("alice", "Sup3rSecret!", "Alice Example", true)
	svc := NewAuthService(repo, nil)

	_, err := svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), nil)

	_, err := svc.Login(context.Background(), "nobody", "whatever")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLoginDisabledAccountBeatsCorrectPassword(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add("bob", "Sup3rSecret!", "Bob Example", false)
	svc := NewAuthService(repo, nil)

	_, err := svc.Login(context.Background(), "bob", "Sup3rSecret!")
	assert.ErrorIs(t, err, ErrAccountDisabled)
	assert.NotErrorIs(t, err, ErrInvalidCredential)
}

func TestLoginCorruptCredentials(t *testing.T) {
	repo := newFakeUserRepo()
	row := repo.add("carol", "Sup3rSecret!", "Carol Example", true)
	row.salt = ""
	svc := NewAuthService(repo, nil)

	_, err := svc.Login(context.Background(), "carol", "Sup3rSecret!")
	assert.ErrorIs(t, err, ErrCorruptCredential)
}

func TestLoginEmptyFields(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), nil)

	_, err := svc.Login(context.Background(), "", "password")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Login(context.Background(), "alice", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLoginStoreFailure(t *testing.T) {
	repo := newFakeUserRepo()
	repo.failWith = errors.New("connection refused")
	svc := NewAuthService(repo, nil)

	_, err := svc.Login(context.Background(), "alice", "whatever")
	assert.ErrorIs(t, err, ErrQuery)
}

func TestChangePasswordSuccess(t *testing.T) {
	repo := newFakeUserRepo()
	before := *repo.add("alice", "OldPassw0rd!", "Alice Example", true)
	svc := NewAuthService(repo, nil)

	err := svc.ChangePassword(context.Background(), "alice", "OldPassw0rd!", "NewPassw0rd!", "NewPassw0rd!")
	require.NoError(t, err)

	after := repo.rows["alice"]
	assert.NotEqual(t, before.hash, after.hash)
	assert.NotEqual(t, before.salt, after.salt)

	// The new credentials must authenticate and the old ones must not.
	_, err = svc.Login(context.Background(), "alice", "NewPassw0rd!")
	assert.NoError(t, err)
	_, err = svc.Login(context.Background(), "alice", "OldPassw0rd!")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestChangePasswordValidationBeforeStore(t *testing.T) {
	tests := []struct {
		name    string
		current string
		new     string
		confirm string
		want    error
	}{
		{"empty current", "", "NewPassw0rd!", "NewPassw0rd!", ErrValidation},
		{"empty new", "OldPassw0rd!", "", "NewPassw0rd!", ErrValidation},
		{"empty confirm", "OldPassw0rd!", "NewPassw0rd!", "", ErrValidation},
		{"mismatch", "OldPassw0rd!", "NewPassw0rd!", "Different1!", ErrPasswordMismatch},
		{"too short", "OldPassw0rd!", "short", "short", ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			repo.add("alice", "OldPassw0rd!", "Alice Example", true)
			svc := NewAuthService(repo, nil)

			err := svc.ChangePassword(context.Background(), "alice", tt.current, tt.new, tt.confirm)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, repo.mutations, "store must be unchanged after a rejected attempt")
		})
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add("alice", "OldPassw0rd!", "Alice Example", true)
	svc := NewAuthService(repo, nil)

	err := svc.ChangePassword(context.Background(), "alice", "wrong", "NewPassw0rd!", "NewPassw0rd!")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.Zero(t, repo.mutations)
}

func TestChangePasswordConcurrentConflict(t *testing.T) {
	repo := newFakeUserRepo()
	row := repo.add("alice", "OldPassw0rd!", "Alice Example", true)

	// Another session swaps the credentials between our verify and update.
	conflicting := &conflictingRepo{fakeUserRepo: repo, oldSalt: row.salt, oldHash: row.hash}
	svc := NewAuthService(conflicting, nil)

	err := svc.ChangePassword(context.Background(), "alice", "OldPassw0rd!", "NewPassw0rd!", "NewPassw0rd!")
	assert.ErrorIs(t, err, ErrConcurrentChange)
}

// conflictingRepo serves the pre-change credentials on read but has already
// moved on underneath, so the conditional update misses.
type conflictingRepo struct {
	*fakeUserRepo
	oldSalt string
	oldHash string
}

func (c *conflictingRepo) FindCredentials(ctx context.Context, username string) (types.Credentials, error) {
	creds, err := c.fakeUserRepo.FindCredentials(ctx, username)
	if err != nil {
		return creds, err
	}
	c.fakeUserRepo.rows[username].hash = "someone-else-won"
	return types.Credentials{Hash: c.oldHash, Salt: c.oldSalt, Active: creds.Active}, nil
}

func TestRegisterSuccess(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add("admin", "AdminPass1!", "Administrador", true)
	svc := NewAuthService(repo, nil)

	user, err := svc.Register(context.Background(), "admin", "dora", "Dora Example", "DoraPass1!", "DoraPass1!")
	require.NoError(t, err)

	assert.Equal(t, "dora", user.Username)
	assert.True(t, user.Active)

	_, err = svc.Login(context.Background(), "dora", "DoraPass1!")
	assert.NoError(t, err)
}

func TestRegisterNonAdminRejected(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add("alice", "Sup3rSecret!", "Alice Example", true)
	svc := NewAuthService(repo, nil)

	_, err := svc.Register(context.Background(), "alice", "dora", "Dora Example", "DoraPass1!", "DoraPass1!")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Zero(t, repo.mutations)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add("admin", "AdminPass1!", "Administrador", true)
	repo.add("dora", "DoraPass1!", "Dora Example", true)
	svc := NewAuthService(repo, nil)

	_, err := svc.Register(context.Background(), "admin", "dora", "Someone Else", "OtherPass1!", "OtherPass1!")
	assert.ErrorIs(t, err, ErrDuplicateUser)
	assert.Zero(t, repo.mutations)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		fullName string
		password string
		confirm  string
		want     error
	}{
		{"empty username", "", "Dora Example", "DoraPass1!", "DoraPass1!", ErrValidation},
		{"empty full name", "dora", "", "DoraPass1!", "DoraPass1!", ErrValidation},
		{"mismatch", "dora", "Dora Example", "DoraPass1!", "Different1!", ErrPasswordMismatch},
		{"too short", "dora", "Dora Example", "short", "short", ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			repo.add("admin", "AdminPass1!", "Administrador", true)
			svc := NewAuthService(repo, nil)

			_, err := svc.Register(context.Background(), "admin", tt.username, tt.fullName, tt.password, tt.confirm)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, repo.mutations)
		})
	}
}
