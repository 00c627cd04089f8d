package repository

import (
	"context"

	"lifevault/internal/model"
)

// CategoryRepository defines data access for record categories.
type CategoryRepository interface {
	// FindByID returns the category owned by ownerID with the given id.
	// Returns sql.ErrNoRows when absent or owned by someone else.
	FindByID(ctx context.Context, ownerID, id string) (*model.Category, error)

	// FindByName looks a category up by name, case-insensitively.
	FindByName(ctx context.Context, ownerID, name string) (*model.Category, error)

	// List returns the owner's categories sorted by name.
	List(ctx context.Context, ownerID string) ([]model.Category, error)

	// CreateDefaults seeds the standard category set for a new owner.
	// Already-present names are left untouched.
	CreateDefaults(ctx context.Context, ownerID string) error
}
