package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirana-store/kirana/internal/rbac"
	"github.com/kirana-store/kirana/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	Insert(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, u User) (User, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles user business logic.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// AuditPort records user administration events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// GetByUsername fetches a user by username.
func (s *Service) GetByUsername(ctx context.Context, username string) (User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// Create registers a new active account.
func (s *Service) Create(ctx context.Context, actorID int64, in CreateInput) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	taken, err := s.repo.UsernameTaken(ctx, in.Username)
	if err != nil {
		return User{}, fmt.Errorf("users: check username: %w", err)
	}
	if taken {
		return User{}, ErrUsernameTaken
	}
	taken, err = s.repo.EmailTaken(ctx, in.Email, 0)
	if err != nil {
		return User{}, fmt.Errorf("users: check email: %w", err)
	}
	if taken {
		return User{}, ErrEmailTaken
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}
	created, err := s.repo.Insert(ctx, User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Flags:        explicitFlags(in.Flags),
		IsActive:     true,
	})
	if err != nil {
		return User{}, mapUniqueViolation(err)
	}
	s.record(ctx, actorID, "user.create", created)
	return created, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, actorID, id int64, in UpdateInput) (User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		taken, err := s.repo.EmailTaken(ctx, email, id)
		if err != nil {
			return User{}, fmt.Errorf("users: check email: %w", err)
		}
		if taken {
			return User{}, ErrEmailTaken
		}
		user.Email = email
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := HashPassword(*in.Password)
		if err != nil {
			return User{}, err
		}
		user.PasswordHash = hash
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if len(in.Flags) > 0 {
		merged := make(rbac.FlagColumns, len(rbac.All))
		for _, c := range rbac.All {
			merged[c] = user.Flags[c]
			if v, ok := in.Flags[c]; ok && v != nil {
				b := *v
				merged[c] = &b
			}
		}
		user.Flags = merged
	}
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return User{}, mapUniqueViolation(err)
	}
	s.record(ctx, actorID, "user.update", updated)
	return updated, nil
}

// GrantAll turns every capability flag on for the user.
func (s *Service) GrantAll(ctx context.Context, u User) (User, error) {
	u.Flags = AllFlags()
	return s.repo.Update(ctx, u)
}

// Delete removes the user unless it is the acting account.
func (s *Service) Delete(ctx context.Context, actor shared.Principal, id int64) (User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if actor.UserID == id || actor.Username == user.Username {
		return User{}, ErrDeleteSelf
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return User{}, fmt.Errorf("users: delete: %w", err)
	}
	s.record(ctx, actor.UserID, "user.delete", user)
	return user, nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, u User) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: fmt.Sprint(u.ID),
		Meta:     map[string]any{"username": u.Username, "permissions": u.Permissions()},
	})
}

func mapUniqueViolation(err error) error {
	if !shared.IsUniqueViolation(err) {
		return fmt.Errorf("users: persist: %w", err)
	}
	if strings.Contains(err.Error(), "email") {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}
