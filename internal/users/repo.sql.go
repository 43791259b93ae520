package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirana-store/kirana/internal/rbac"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var selectColumns = `id, username, email, password_hash, role, ` + rbac.FlagSelectList("") + `, is_active, created_at`

func scanUser(row pgx.Row) (User, error) {
	var (
		u     User
		role  *string
		flags rbac.FlagScanner
	)
	dest := []any{&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role}
	dest = append(dest, flags.Targets()...)
	dest = append(dest, &u.IsActive, &u.CreatedAt)
	if err := row.Scan(dest...); err != nil {
		return User{}, err
	}
	if role != nil {
		u.Role = *role
	}
	u.Flags = flags.Columns()
	return u, nil
}

func (r *Repository) one(ctx context.Context, sql string, args ...any) (User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return u, nil
}

// List returns all users ordered by id.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Get fetches a user by id.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	return r.one(ctx, `SELECT `+selectColumns+` FROM users WHERE id = $1`, id)
}

// GetByUsername fetches a user by username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (User, error) {
	return r.one(ctx, `SELECT `+selectColumns+` FROM users WHERE username = $1`, username)
}

// UsernameTaken reports whether username is registered.
func (r *Repository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

// EmailTaken reports whether another user holds email.
func (r *Repository) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`, email, exceptID).Scan(&exists)
	return exists, err
}

func flagArgs(flags rbac.FlagColumns) []any {
	args := make([]any, len(rbac.All))
	for i, c := range rbac.All {
		args[i] = flags[c]
	}
	return args
}

func placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(parts, ", ")
}

// Insert stores a new user and returns the persisted row.
func (r *Repository) Insert(ctx context.Context, u User) (User, error) {
	args := []any{u.Username, u.Email, u.PasswordHash, nullableRole(u.Role), u.IsActive}
	args = append(args, flagArgs(u.Flags)...)
	sql := `INSERT INTO users (username, email, password_hash, role, is_active, ` + rbac.FlagSelectList("") + `)
VALUES (` + placeholders(1, len(args)) + `) RETURNING ` + selectColumns
	return scanUser(r.pool.QueryRow(ctx, sql, args...))
}

// Update overwrites the mutable columns of u.
func (r *Repository) Update(ctx context.Context, u User) (User, error) {
	sets := []string{"email = $2", "password_hash = $3", "is_active = $4"}
	args := []any{u.ID, u.Email, u.PasswordHash, u.IsActive}
	for _, c := range rbac.All {
		args = append(args, u.Flags[c])
		sets = append(sets, fmt.Sprintf("%s = $%d", c, len(args)))
	}
	sql := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + selectColumns
	updated, err := scanUser(r.pool.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return updated, err
}

// Delete removes a user.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func nullableRole(role string) *string {
	if role == "" {
		return nil
	}
	return &role
}

var _ RepositoryPort = (*Repository)(nil)
