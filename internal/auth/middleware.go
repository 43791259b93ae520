package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kirana-store/kirana/internal/platform/httpx"
	"github.com/kirana-store/kirana/internal/shared"
	"github.com/kirana-store/kirana/internal/users"
)

// RequireToken resolves the bearer token into a shared.Principal. Requests
// without a valid token are rejected with 401.
func (s *Service) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		scheme, token, found := strings.Cut(raw, " ")
		if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			httpx.RespondError(w, httpx.Errorf(httpx.ErrUnauthorized, "Not authenticated"))
			return
		}
		username, err := s.tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		principal := shared.Principal{Username: username}
		if user, err := s.users.GetByUsername(r.Context(), username); err == nil {
			principal.UserID = user.ID
		} else if !errors.Is(err, users.ErrUserNotFound) {
			s.logger.Error("resolve principal", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}
