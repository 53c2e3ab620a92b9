package repository

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CategoryRepository manages category persistence.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	List(ctx context.Context, page, perPage int) (Page[domain.Category], error)
	ListAll(ctx context.Context) ([]domain.Category, error)
}

type categoryRepository struct {
	db DBTX
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (title)
        VALUES ($1)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, category.Title).
		Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	return mapWriteError(err)
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	const query = `
        SELECT id, title, created_at, updated_at
        FROM categories WHERE id=$1`
	var category domain.Category
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Title,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, mapReadError(err)
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context, page, perPage int) (Page[domain.Category], error) {
	page, perPage = normalizePage(page, perPage)
	result := Page[domain.Category]{Page: page, PerPage: perPage}
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&result.Total); err != nil {
		return result, err
	}

	const query = `
        SELECT id, title, created_at, updated_at
        FROM categories ORDER BY id ASC LIMIT $1 OFFSET $2`
	items, err := r.query(ctx, query, perPage, (page-1)*perPage)
	if err != nil {
		return result, err
	}
	result.Items = items
	return result, nil
}

func (r *categoryRepository) ListAll(ctx context.Context) ([]domain.Category, error) {
	return r.query(ctx, `SELECT id, title, created_at, updated_at FROM categories ORDER BY id ASC`)
}

func (r *categoryRepository) query(ctx context.Context, query string, args ...any) ([]domain.Category, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Category{}
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(&category.ID, &category.Title, &category.CreatedAt, &category.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}
