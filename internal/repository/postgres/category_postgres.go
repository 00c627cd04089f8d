package postgres

import (
	"context"
	"database/sql"

	"lifevault/internal/model"
	"lifevault/internal/repository"
)

// defaultCategories are seeded for owners that have none yet.
var defaultCategories = []string{"Education", "Career", "Travel"}

// CategoryPostgres is a PostgreSQL implementation of repository.CategoryRepository.
type CategoryPostgres struct {
	db *sql.DB
}

// NewCategoryPostgres creates a new CategoryPostgres repository.
func NewCategoryPostgres(db *sql.DB) *CategoryPostgres {
	return &CategoryPostgres{db: db}
}

var _ repository.CategoryRepository = (*CategoryPostgres)(nil)

const categoryColumns = `id, owner_id, name, created_at, updated_at`

func scanCategory(row rowScanner) (*model.Category, error) {
	var c model.Category
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByID fetches a category scoped to its owner.
func (r *CategoryPostgres) FindByID(ctx context.Context, ownerID, id string) (*model.Category, error) {
	const q = `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE id = $1 AND owner_id = $2
	`
	return scanCategory(r.db.QueryRowContext(ctx, q, id, ownerID))
}

// FindByName fetches a category by case-insensitive name match.
func (r *CategoryPostgres) FindByName(ctx context.Context, ownerID, name string) (*model.Category, error) {
	const q = `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE owner_id = $1 AND lower(name) = lower($2)
	`
	return scanCategory(r.db.QueryRowContext(ctx, q, ownerID, name))
}

// List returns the owner's categories sorted by name.
func (r *CategoryPostgres) List(ctx context.Context, ownerID string) ([]model.Category, error) {
	const q = `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE owner_id = $1
		ORDER BY name ASC
	`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateDefaults seeds the standard categories, skipping names the owner
// already has.
func (r *CategoryPostgres) CreateDefaults(ctx context.Context, ownerID string) error {
	const q = `
		INSERT INTO categories (owner_id, name)
		VALUES ($1, $2)
		ON CONFLICT (owner_id, name) DO NOTHING
	`
	for _, name := range defaultCategories {
		if _, err := r.db.ExecContext(ctx, q, ownerID, name); err != nil {
			return err
		}
	}
	return nil
}
