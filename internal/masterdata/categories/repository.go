package categories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirana-store/kirana/internal/platform/db"
	"github.com/kirana-store/kirana/internal/shared"
)

type Repository interface {
	List(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id int64) (Category, error)
	FindByName(ctx context.Context, name string) (Category, bool, error)
	Create(ctx context.Context, name string) (Category, error)
	Delete(ctx context.Context, id int64) error
	CountProducts(ctx context.Context, name string) (int, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, created_at FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.db.QueryRow(ctx, `SELECT id, name, created_at FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrCategoryNotFound
	}
	return c, err
}

func (r *repository) FindByName(ctx context.Context, name string) (Category, bool, error) {
	var c Category
	err := r.db.QueryRow(ctx, `SELECT id, name, created_at FROM categories WHERE name ILIKE $1 ORDER BY id LIMIT 1`, db.EscapeLike(name)).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, false, nil
	}
	if err != nil {
		return Category{}, false, err
	}
	return c, true, nil
}

func (r *repository) Create(ctx context.Context, name string) (Category, error) {
	c := Category{Name: name}
	err := r.db.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id, created_at`, name).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return Category{}, ErrCategoryExists
		}
		return Category{}, err
	}
	return c, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (r *repository) CountProducts(ctx context.Context, name string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE category ILIKE $1`, db.EscapeLike(name)).Scan(&n)
	return n, err
}
