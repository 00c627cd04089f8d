package repository

import (
	"context"

	"lifevault/internal/model"
)

// RecordRepository defines data access for records using SQL queries only.
// No business logic here — strictly persistence operations. Every lookup is
// owner-scoped so a caller can never reach another owner's record; a record
// that exists but belongs to someone else is indistinguishable from one
// that does not exist.
type RecordRepository interface {
	// Create inserts a new record row. Returns the stored record including
	// values set by the database (id, timestamps).
	Create(ctx context.Context, rec *model.Record) (*model.Record, error)

	// FindByOwner returns the record with the given id owned by ownerID.
	// Returns sql.ErrNoRows when absent or owned by someone else.
	FindByOwner(ctx context.Context, ownerID, id string) (*model.Record, error)

	// ListByCategory returns the owner's records in a category ordered for
	// the owner's own view (start date descending, newest created first).
	ListByCategory(ctx context.Context, ownerID, categoryID string) ([]model.Record, error)

	// ListRecentByCategory returns the owner's records in a category by
	// recency (most recently updated first), the ordering shared views use.
	ListRecentByCategory(ctx context.Context, ownerID, categoryID string) ([]model.Record, error)

	// SetDocuments replaces the record's document list in a single
	// conditional write keyed by (id, owner). The stored documents_count is
	// derived from the new list inside the same statement, so a concurrent
	// reader never observes a count that disagrees with the list length.
	// Returns sql.ErrNoRows when the record is absent or not owned.
	SetDocuments(ctx context.Context, ownerID, recordID string, docs []model.Document) error
}
