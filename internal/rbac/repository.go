package rbac

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FlagSelectList is the users-table column list for every capability flag,
// in All order.
func FlagSelectList(alias string) string {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	cols := make([]string, len(All))
	for i, c := range All {
		cols[i] = prefix + string(c)
	}
	return strings.Join(cols, ", ")
}

// FlagScanner collects the nullable flag columns of one row.
type FlagScanner struct {
	vals []*bool
}

// Targets returns scan destinations matching FlagSelectList.
func (f *FlagScanner) Targets() []any {
	f.vals = make([]*bool, len(All))
	targets := make([]any, len(All))
	for i := range All {
		targets[i] = &f.vals[i]
	}
	return targets
}

// Columns returns the scanned flags keyed by capability.
func (f *FlagScanner) Columns() FlagColumns {
	cols := make(FlagColumns, len(All))
	for i, c := range All {
		if i < len(f.vals) {
			cols[c] = f.vals[i]
		}
	}
	return cols
}

// Repository loads subjects from the users table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LoadSubject implements IdentityLoader.
func (r *Repository) LoadSubject(ctx context.Context, username string) (Subject, error) {
	var (
		subject Subject
		role    *string
	)
	var flags FlagScanner
	dest := append([]any{&subject.UserID, &subject.Username, &role}, flags.Targets()...)
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, role, `+FlagSelectList("")+` FROM users WHERE username = $1`,
		username).Scan(dest...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subject{}, ErrIdentityNotFound
		}
		return Subject{}, err
	}
	roleName := ""
	if role != nil {
		roleName = *role
	}
	subject.Identity = ResolveIdentity(flags.Columns(), roleName)
	return subject, nil
}
