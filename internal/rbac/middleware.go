package rbac

import (
	"log/slog"
	"net/http"

	"github.com/kirana-store/kirana/internal/platform/httpx"
	"github.com/kirana-store/kirana/internal/shared"
)

// Middleware wires capability checks into chi routes. It expects an upstream
// authenticator to have stored a shared.Principal in the request context.
type Middleware struct {
	Gate   *Gate
	Logger *slog.Logger
}

// Require rejects requests whose principal lacks c.
func (m Middleware) Require(c Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.Errorf(httpx.ErrUnauthorized, "Not authenticated"))
				return
			}
			if err := m.Gate.Authorize(r.Context(), principal.Username, c); err != nil {
				if m.Logger != nil {
					m.Logger.Debug("capability denied",
						slog.String("username", principal.Username),
						slog.String("capability", string(c)),
						slog.Any("error", err))
				}
				httpx.RespondErrorLogged(w, m.Logger, "rbac authorize", err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
