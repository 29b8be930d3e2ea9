package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sapiencia-analitica/matricula-portal/internal/auth"
	"github.com/sapiencia-analitica/matricula-portal/internal/services"
	"github.com/sapiencia-analitica/matricula-portal/internal/store"
	"github.com/sapiencia-analitica/matricula-portal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

type fakeUserRow struct {
	id       int
	hash     string
	salt     string
	fullName string
	active   bool
}

type fakeUserRepo struct {
	rows   map[string]*fakeUserRow
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{rows: map[string]*fakeUserRow{}, nextID: 1}
}

func (f *fakeUserRepo) add(username, password, fullName string, active bool) {
	salt, digest, err := auth.Derive(password)
	if err != nil {
		panic(err)
	}
	f.rows[username] = &fakeUserRow{id: f.nextID, hash: digest, salt: salt, fullName: fullName, active: active}
	f.nextID++
}

func (f *fakeUserRepo) FindCredentials(_ context.Context, username string) (types.Credentials, error) {
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
	if _, ok := f.rows[username]; ok {
		return 1, nil
	}
	return 0, nil
}

func (f *fakeUserRepo) Insert(_ context.Context, username, hash, salt, fullName string) error {
	if _, ok := f.rows[username]; ok {
		return store.ErrDuplicate
	}
	f.rows[username] = &fakeUserRow{id: f.nextID, hash: hash, salt: salt, fullName: fullName, active: true}
	f.nextID++
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
	row.hash = newHash
	row.salt = newSalt
	return nil
}

func newAuthServer(repo *fakeUserRepo) *httptest.Server {
	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, services.NewAuthService(repo, nil), testJWTSecret)
	})
	return httptest.NewServer(router)
}

func postJSON(t *testing.T, url, token string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func login(t *testing.T, serverURL, username, password string) (int, AuthResponse) {
	t.Helper()

	resp := postJSON(t, serverURL+"/auth/login", "", LoginRequest{Username: username, Password: password})
	defer resp.Body.Close()

	var payload AuthResponse
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return resp.StatusCode, payload
}

func TestLoginEndpoint(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add("alice", "Sup3rSecret!", "Alice Example", true)
	server := newAuthServer(repo)
	defer server.Close()

	status, payload := login(t, server.URL, "alice", "Sup3rSecret!")
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, payload.Token)
	assert.Equal(t, "alice", payload.User.Username)
	assert.Equal(t, "Alice Example", payload.User.FullName)

	status, _ = login(t, server.URL, "alice", "wrong")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = login(t, server.URL, "nobody", "whatever")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = login(t, server.URL, "", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoginDisabledAccount(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add("bob", "Sup3rSecret!", "Bob Example", false)
	server := newAuthServer(repo)
	defer server.Close()

	status, _ := login(t, server.URL, "bob", "Sup3rSecret!")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestMeEndpoint(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add("alice", "Sup3rSecret!", "Alice Example", true)
	server := newAuthServer(repo)
	defer server.Close()

	_, payload := login(t, server.URL, "alice", "Sup3rSecret!")

	req, err := http.NewRequest(http.MethodGet, server.URL+"/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+payload.Token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me MeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "Alice Example", me.Profile.FullName)
}

func TestMeRequiresToken(t *testing.T) {
	server := newAuthServer(newFakeUserRepo())
	defer server.Close()

	resp, err := http.Get(server.URL + "/auth/me")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChangePasswordEndpoint(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add("alice", "OldPassw0rd!", "Alice Example", true)
	server := newAuthServer(repo)
	defer server.Close()

	_, payload := login(t, server.URL, "alice", "OldPassw0rd!")

	resp := postJSON(t, server.URL+"/auth/change-password", payload.Token, ChangePasswordRequest{
		CurrentPassword: "OldPassw0rd!",
		NewPassword:     "NewPassw0rd!",
		ConfirmPassword: "NewPassw0rd!",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, _ := login(t, server.URL, "alice", "NewPassw0rd!")
	assert.Equal(t, http.StatusOK, status)
	status, _ = login(t, server.URL, "alice", "OldPassw0rd!")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestChangePasswordValidation(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add("alice", "OldPassw0rd!", "Alice Example", true)
	server := newAuthServer(repo)
	defer server.Close()

	_, payload := login(t, server.URL, "alice", "OldPassw0rd!")

	resp := postJSON(t, server.URL+"/auth/change-password", payload.Token, ChangePasswordRequest{
		CurrentPassword: "OldPassw0rd!",
		NewPassword:     "short",
		ConfirmPassword: "short",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterEndpoint(t *testing.T) {
	repo := newFakeUserRepo()
	repo.add("admin", "AdminPass1!", "Administrador", true)
	repo.add("alice", "Sup3rSecret!", "Alice Example", true)
	server := newAuthServer(repo)
	defer server.Close()

	_, adminSession := login(t, server.URL, "admin", "AdminPass1!")
	_, aliceSession := login(t, server.URL, "alice", "Sup3rSecret!")

	// No token at all.
	resp := postJSON(t, server.URL+"/auth/register", "", RegisterRequest{
		Username: "dora", FullName: "Dora Example",
		Password: "DoraPass1!", ConfirmPassword: "DoraPass1!",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Authenticated but not admin.
	resp = postJSON(t, server.URL+"/auth/register", aliceSession.Token, RegisterRequest{
		Username: "dora", FullName: "Dora Example",
		Password: "DoraPass1!", ConfirmPassword: "DoraPass1!",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_, exists := repo.rows["dora"]
	assert.False(t, exists, "rejected registration must not create a row")

	// Admin succeeds.
	resp = postJSON(t, server.URL+"/auth/register", adminSession.Token, RegisterRequest{
		Username: "dora", FullName: "Dora Example",
		Password: "DoraPass1!", ConfirmPassword: "DoraPass1!",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	status, _ := login(t, server.URL, "dora", "DoraPass1!")
	assert.Equal(t, http.StatusOK, status)

	// Duplicate username.
	resp = postJSON(t, server.URL+"/auth/register", adminSession.Token, RegisterRequest{
		Username: "dora", FullName: "Someone Else",
		Password: "OtherPass1!", ConfirmPassword: "OtherPass1!",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
