package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirana-store/kirana/internal/platform/httpx"
	"github.com/kirana-store/kirana/internal/rbac"
	"github.com/kirana-store/kirana/internal/shared"
)

type memoryRepo struct {
	nextID int64
	users  map[int64]User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, users: map[int64]User{}}
}

func (m *memoryRepo) List(context.Context) ([]User, error) {
	out := make([]User, 0, len(m.users))
	for id := int64(1); id < m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *memoryRepo) GetByUsername(_ context.Context, username string) (User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (m *memoryRepo) UsernameTaken(ctx context.Context, username string) (bool, error) {
	_, err := m.GetByUsername(ctx, username)
	return err == nil, nil
}

func (m *memoryRepo) EmailTaken(_ context.Context, email string, exceptID int64) (bool, error) {
	for _, u := range m.users {
		if u.Email == email && u.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepo) Insert(_ context.Context, u User) (User, error) {
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	return u, nil
}

func (m *memoryRepo) Update(_ context.Context, u User) (User, error) {
	if _, ok := m.users[u.ID]; !ok {
		return User{}, ErrUserNotFound
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func TestCreateStoresExplicitFlags(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	user, err := svc.Create(context.Background(), 0, CreateInput{
		Username: "asha", Email: "asha@example.com", Password: "secret1",
		Flags: map[rbac.Capability]bool{rbac.Sales: true, rbac.ProfitLoss: true},
	})
	require.NoError(t, err)
	require.True(t, user.IsActive)
	require.Equal(t, []string{"sales", "profit_loss"}, user.Permissions())
	require.NotNil(t, user.Flags[rbac.Purchase])
	require.False(t, *user.Flags[rbac.Purchase])
	require.True(t, VerifyPassword(user.PasswordHash, "secret1"))
	require.IsType(t, rbac.ModernPermissions{}, user.Identity())
}

func TestCreateRejectsDuplicates(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, 0, CreateInput{Username: "asha", Email: "a@x.in", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, 0, CreateInput{Username: "asha", Email: "b@x.in", Password: "secret1"})
	require.ErrorIs(t, err, ErrUsernameTaken)
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(ctx, 0, CreateInput{Username: "ravi", Email: "a@x.in", Password: "secret1"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdateIsPartial(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()
	user, err := svc.Create(ctx, 0, CreateInput{
		Username: "asha", Email: "a@x.in", Password: "secret1",
		Flags: map[rbac.Capability]bool{rbac.Sales: true},
	})
	require.NoError(t, err)
	oldHash := user.PasswordHash

	on := true
	updated, err := svc.Update(ctx, 0, user.ID, UpdateInput{
		Flags: map[rbac.Capability]*bool{rbac.StockLedger: &on, rbac.Purchase: nil},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"sales", "stock_ledger"}, updated.Permissions())
	require.Equal(t, oldHash, updated.PasswordHash)
	require.Equal(t, "a@x.in", updated.Email)

	pw := "newpass"
	updated, err = svc.Update(ctx, 0, user.ID, UpdateInput{Password: &pw})
	require.NoError(t, err)
	require.NotEqual(t, oldHash, updated.PasswordHash)
	require.True(t, VerifyPassword(updated.PasswordHash, "newpass"))

	_, err = svc.Update(ctx, 0, 99, UpdateInput{})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteRefusesSelf(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	admin, _ := svc.Create(ctx, 0, CreateInput{Username: "admin", Email: "admin@x.in", Password: "secret1"})
	clerk, _ := svc.Create(ctx, 0, CreateInput{Username: "clerk", Email: "clerk@x.in", Password: "secret1"})

	_, err := svc.Delete(ctx, shared.Principal{UserID: admin.ID, Username: "admin"}, admin.ID)
	require.ErrorIs(t, err, ErrDeleteSelf)

	deleted, err := svc.Delete(ctx, shared.Principal{UserID: admin.ID, Username: "admin"}, clerk.ID)
	require.NoError(t, err)
	require.Equal(t, "clerk", deleted.Username)
	require.Len(t, repo.users, 1)
}

func TestLegacyUserResponseCarriesRole(t *testing.T) {
	resp := ToResponse(User{ID: 4, Username: "old", Role: "manager", Flags: rbac.FlagColumns{}})
	require.NotNil(t, resp.Role)
	require.Equal(t, "manager", *resp.Role)
	require.Contains(t, resp.Permissions, "opening_stock")
}

func TestVerifyPasswordPlainFallback(t *testing.T) {
	require.True(t, VerifyPassword("letmein", "letmein"))
	require.False(t, VerifyPassword("letmein", "nope"))
	require.False(t, VerifyPassword("", ""))
}
