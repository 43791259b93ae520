package rbac

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/kirana-store/kirana/internal/platform/httpx"
	"github.com/kirana-store/kirana/internal/shared"
)

type memoryLoader map[string]Subject

func (m memoryLoader) LoadSubject(_ context.Context, username string) (Subject, error) {
	s, ok := m[username]
	if !ok {
		return Subject{}, ErrIdentityNotFound
	}
	return s, nil
}

func boolp(v bool) *bool { return &v }

func modern(flags ...Capability) Identity {
	cols := FlagColumns{Sales: boolp(false)}
	for _, c := range flags {
		cols[c] = boolp(true)
	}
	return ResolveIdentity(cols, "")
}

func TestResolveIdentity(t *testing.T) {
	require.IsType(t, LegacyRole{}, ResolveIdentity(FlagColumns{}, "manager"))
	require.IsType(t, ModernPermissions{}, ResolveIdentity(FlagColumns{Sales: boolp(false)}, "manager"))
}

func TestLegacyRoleTable(t *testing.T) {
	admin := LegacyRole{Role: "admin"}.Capabilities()
	require.True(t, admin.Has(UserManagement))
	require.False(t, admin.Has(CreateCategory))
	require.False(t, admin.Has(DeleteCategory))

	manager := LegacyRole{Role: "manager"}.Capabilities()
	require.ElementsMatch(t, []string{"sales", "purchase", "sales_ledger", "purchase_ledger", "stock_ledger", "opening_stock"}, manager.List())

	require.Equal(t, []string{"sales", "purchase"}, LegacyRole{Role: "employee"}.Capabilities().List())
	require.Empty(t, LegacyRole{Role: "ghost"}.Capabilities())
}

func TestAuthorize(t *testing.T) {
	gate := NewGate(memoryLoader{
		"asha":  {UserID: 1, Username: "asha", Identity: modern(Sales, ProfitLoss)},
		"ravi":  {UserID: 2, Username: "ravi", Identity: LegacyRole{Role: "employee"}},
		"admin": {UserID: 3, Username: "admin", Identity: LegacyRole{Role: "admin"}},
	})
	ctx := context.Background()

	require.NoError(t, gate.Authorize(ctx, "asha", ProfitLoss))

	err := gate.Authorize(ctx, "asha", Purchase)
	require.ErrorIs(t, err, httpx.ErrForbidden)
	require.EqualError(t, err, "Permission required: purchase")

	err = gate.Authorize(ctx, "ravi", StockLedger)
	require.ErrorIs(t, err, httpx.ErrForbidden)
	require.EqualError(t, err, "Authentication required for stock_ledger")

	err = gate.Authorize(ctx, "admin", CreateCategory)
	require.ErrorIs(t, err, httpx.ErrForbidden)

	err = gate.Authorize(ctx, "nobody", Sales)
	require.ErrorIs(t, err, ErrIdentityNotFound)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func allExcept(denied Capability) Identity {
	flags := make([]Capability, 0, len(All))
	for _, c := range All {
		if c != denied {
			flags = append(flags, c)
		}
	}
	return modern(flags...)
}

func TestSingleFlagOffIsDenied(t *testing.T) {
	gate := NewGate(memoryLoader{
		"meena": {UserID: 4, Username: "meena", Identity: allExcept(SalesLedger)},
	})
	ctx := context.Background()

	err := gate.Authorize(ctx, "meena", SalesLedger)
	require.ErrorIs(t, err, httpx.ErrForbidden)
	require.EqualError(t, err, "Permission required: sales_ledger")
	for _, c := range All {
		if c == SalesLedger {
			continue
		}
		require.NoError(t, gate.Authorize(ctx, "meena", c), string(c))
	}

	mw := Middleware{Gate: gate}
	r := chi.NewRouter()
	r.With(mw.Require(SalesLedger)).Get("/ledger/sales", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.With(mw.Require(PurchaseLedger)).Get("/ledger/purchases", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	for path, status := range map[string]int{"/ledger/sales": http.StatusForbidden, "/ledger/purchases": http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), shared.Principal{Username: "meena"}))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		require.Equal(t, status, rr.Code, path)
	}
}

type failingLoader struct{}

func (failingLoader) LoadSubject(context.Context, string) (Subject, error) {
	return Subject{}, errors.New("db down")
}

func TestAuthorizeWrapsLoaderFailure(t *testing.T) {
	err := NewGate(failingLoader{}).Authorize(context.Background(), "x", Sales)
	require.Error(t, err)
	require.NotErrorIs(t, err, httpx.ErrForbidden)
}

func TestMiddlewareRequire(t *testing.T) {
	mw := Middleware{Gate: NewGate(memoryLoader{
		"asha": {UserID: 1, Username: "asha", Identity: modern(Sales)},
	})}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	cases := []struct {
		name   string
		user   string
		cap    Capability
		status int
	}{
		{"anonymous", "", Sales, http.StatusUnauthorized},
		{"granted", "asha", Sales, http.StatusNoContent},
		{"denied", "asha", Purchase, http.StatusForbidden},
		{"unknown user", "ghost", Sales, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.user != "" {
				req = req.WithContext(shared.ContextWithPrincipal(req.Context(), shared.Principal{Username: tc.user}))
			}
			rr := httptest.NewRecorder()
			mw.Require(tc.cap)(ok).ServeHTTP(rr, req)
			require.Equal(t, tc.status, rr.Code)
		})
	}
}

func TestCapabilitySetRendering(t *testing.T) {
	set := NewCapabilitySet(StockLedger, Sales)
	require.Equal(t, []string{"sales", "stock_ledger"}, set.List())
	features := set.Features()
	require.Len(t, features, len(All))
	require.True(t, features["stock_ledger"])
	require.False(t, features["purchase"])

	c, ok := ParseCapability(" Profit_Loss ")
	require.True(t, ok)
	require.Equal(t, ProfitLoss, c)
}

func TestFlagScanner(t *testing.T) {
	var f FlagScanner
	targets := f.Targets()
	require.Len(t, targets, len(All))
	*(targets[0].(**bool)) = boolp(true)

	cols := f.Columns()
	require.True(t, *cols[Sales])
	require.Nil(t, cols[Purchase])
	require.IsType(t, ModernPermissions{}, ResolveIdentity(cols, ""))
	require.Contains(t, FlagSelectList("u"), "u.sales, u.purchase, u.create_product")
}
