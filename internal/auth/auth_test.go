package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/kirana-store/kirana/internal/platform/httpx"
	"github.com/kirana-store/kirana/internal/rbac"
	"github.com/kirana-store/kirana/internal/users"
	_ "github.com/kirana-store/kirana/testing"
)

type stubStore struct {
	byName  map[string]users.User
	granted int
}

func (s *stubStore) GetByUsername(_ context.Context, username string) (users.User, error) {
	u, ok := s.byName[username]
	if !ok {
		return users.User{}, users.ErrUserNotFound
	}
	return u, nil
}

func (s *stubStore) Create(_ context.Context, _ int64, in users.CreateInput) (users.User, error) {
	if _, ok := s.byName[in.Username]; ok {
		return users.User{}, users.ErrUsernameTaken
	}
	flags := rbac.FlagColumns{}
	for _, c := range rbac.All {
		v := in.Flags[c]
		flags[c] = &v
	}
	hash, _ := users.HashPassword(in.Password)
	u := users.User{ID: int64(len(s.byName) + 1), Username: in.Username, Email: in.Email, PasswordHash: hash, Flags: flags, IsActive: true}
	s.byName[in.Username] = u
	return u, nil
}

func (s *stubStore) GrantAll(_ context.Context, u users.User) (users.User, error) {
	s.granted++
	u.Flags = users.AllFlags()
	s.byName[u.Username] = u
	return u, nil
}

func newService(t *testing.T) (*Service, *stubStore) {
	t.Helper()
	hash, err := users.HashPassword("secret1")
	require.NoError(t, err)
	store := &stubStore{byName: map[string]users.User{
		"raza123": {ID: 1, Username: "raza123", PasswordHash: hash, Flags: rbac.FlagColumns{}},
		"legacy":  {ID: 2, Username: "legacy", PasswordHash: "plain", Role: "employee", Flags: rbac.FlagColumns{}},
	}}
	return NewService(store, NewTokenService("test-secret", time.Hour), "raza123", nil), store
}

func TestLoginGrantsAdminEverything(t *testing.T) {
	svc, store := newService(t)
	res, err := svc.Login(context.Background(), "raza123", "secret1")
	require.NoError(t, err)
	require.Equal(t, "bearer", res.TokenType)
	require.Len(t, res.User.Permissions, len(rbac.All))
	require.Equal(t, 1, store.granted)

	username, err := svc.VerifyToken(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "raza123", username)

	_, err = svc.Login(context.Background(), "raza123", "secret1")
	require.NoError(t, err)
	require.Equal(t, 1, store.granted)
}

func TestLoginPlainTextFallback(t *testing.T) {
	svc, _ := newService(t)
	res, err := svc.Login(context.Background(), "legacy", "plain")
	require.NoError(t, err)
	require.Equal(t, []string{"sales", "purchase"}, res.User.Permissions)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Login(context.Background(), "raza123", "wrong")
	require.ErrorIs(t, err, ErrInvalidLogin)
	_, err = svc.Login(context.Background(), "ghost", "secret1")
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
	require.EqualError(t, err, "Invalid username or password")
}

func TestRegister(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "new", "123")
	require.ErrorIs(t, err, ErrPasswordTooShort)
	_, err = svc.Register(ctx, "", "123456")
	require.ErrorIs(t, err, ErrMissingCredentials)

	user, err := svc.Register(ctx, "new", "123456")
	require.NoError(t, err)
	require.Equal(t, "new@example.com", user.Email)
	require.Equal(t, []string{"sales", "purchase"}, user.Permissions())

	_, err = svc.Register(ctx, "new", "123456")
	require.ErrorIs(t, err, users.ErrUsernameTaken)
}

func TestTokenExpiry(t *testing.T) {
	tokens := NewTokenService("k", time.Minute)
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issued }
	token, err := tokens.Issue("asha")
	require.NoError(t, err)

	tokens.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = tokens.Verify(token)
	require.ErrorIs(t, err, ErrExpiredToken)

	_, err = NewTokenService("other", time.Minute).Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = tokens.Verify("garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestHandlerPermissionsFlow(t *testing.T) {
	svc, _ := newService(t)
	r := chi.NewRouter()
	r.Route("/auth", NewHandler(nil, svc).MountRoutes)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"legacy","password":"plain"}`)))
	require.Equal(t, http.StatusOK, rr.Code)
	var login LoginResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &login))

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/permissions", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/auth/permissions", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var view PermissionsView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.Equal(t, []string{"sales", "purchase"}, view.Permissions)
	require.True(t, view.AccessibleFeatures["sales"])
	require.False(t, view.AccessibleFeatures["profit_loss"])
	require.NotNil(t, view.User.Role)
	require.Equal(t, "employee", *view.User.Role)
}
