package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/kirana-store/kirana/internal/rbac"
	"github.com/kirana-store/kirana/internal/users"
)

// UserStore is the subset of the users service needed for authentication.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (users.User, error)
	Create(ctx context.Context, actorID int64, in users.CreateInput) (users.User, error)
	GrantAll(ctx context.Context, u users.User) (users.User, error)
}

// Service wraps authentication business rules.
type Service struct {
	users         UserStore
	tokens        *TokenService
	adminUsername string
	logger        *slog.Logger
}

// NewService constructs a new Service. The account named adminUsername is
// granted every capability whenever it logs in.
func NewService(store UserStore, tokens *TokenService, adminUsername string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: store, tokens: tokens, adminUsername: adminUsername, logger: logger}
}

// Authenticate validates username/password credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (users.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return users.User{}, ErrInvalidLogin
		}
		return users.User{}, err
	}
	if !users.VerifyPassword(user.PasswordHash, password) {
		return users.User{}, ErrInvalidLogin
	}
	return user, nil
}

// Login authenticates and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return LoginResult{}, err
	}
	if s.adminUsername != "" && user.Username == s.adminUsername && !hasEveryFlag(user) {
		granted, err := s.users.GrantAll(ctx, user)
		if err != nil {
			return LoginResult{}, err
		}
		s.logger.Info("granted all permissions to admin", slog.String("username", user.Username))
		user = granted
	}
	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{AccessToken: token, TokenType: "bearer", User: users.ToResponse(user)}, nil
}

// Register creates a self-service account with the sales and purchase flags.
func (s *Service) Register(ctx context.Context, username, password string) (users.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return users.User{}, ErrMissingCredentials
	}
	if len(password) < minPasswordLength {
		return users.User{}, ErrPasswordTooShort
	}
	return s.users.Create(ctx, 0, users.CreateInput{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
		Flags:    map[rbac.Capability]bool{rbac.Sales: true, rbac.Purchase: true},
	})
}

// Me returns the stored account for username.
func (s *Service) Me(ctx context.Context, username string) (users.User, error) {
	return s.users.GetByUsername(ctx, username)
}

// Permissions describes the capabilities of username.
func (s *Service) Permissions(ctx context.Context, username string) (PermissionsView, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return PermissionsView{}, err
	}
	caps := user.Identity().Capabilities()
	return PermissionsView{
		User:               users.ToResponse(user),
		Permissions:        caps.List(),
		AccessibleFeatures: caps.Features(),
	}, nil
}

// VerifyToken returns the username behind an access token.
func (s *Service) VerifyToken(token string) (string, error) {
	return s.tokens.Verify(token)
}

func hasEveryFlag(u users.User) bool {
	for _, c := range rbac.All {
		if v := u.Flags[c]; v == nil || !*v {
			return false
		}
	}
	return true
}
