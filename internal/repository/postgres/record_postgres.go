package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"lifevault/internal/model"
	"lifevault/internal/repository"
)

// recordColumns is the scan order shared by every record query.
const recordColumns = `id, owner_id, category_id, title, notes, start_date, end_date, highlight, tags, details, documents, documents_count, created_at, updated_at`

// RecordPostgres is a PostgreSQL implementation of repository.RecordRepository.
// Documents, tags and details live in JSONB columns on the records row, so a
// document-list replacement is a single-row update with no join bookkeeping.
type RecordPostgres struct {
	db *sql.DB
}

// NewRecordPostgres creates a new RecordPostgres repository.
func NewRecordPostgres(db *sql.DB) *RecordPostgres {
	return &RecordPostgres{db: db}
}

var _ repository.RecordRepository = (*RecordPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.Record, error) {
	var (
		r                   model.Record
		tags, details, docs []byte
	)
	if err := row.Scan(
		&r.ID,
		&r.OwnerID,
		&r.CategoryID,
		&r.Title,
		&r.Notes,
		&r.StartDate,
		&r.EndDate,
		&r.Highlight,
		&tags,
		&details,
		&docs,
		&r.DocumentsCount,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tags, &r.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal(details, &r.Details); err != nil {
		return nil, fmt.Errorf("decode details: %w", err)
	}
	if err := json.Unmarshal(docs, &r.Documents); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return &r, nil
}

// Create inserts a new record row and returns the stored record.
// The document list always starts empty with a matching zero count.
func (r *RecordPostgres) Create(ctx context.Context, rec *model.Record) (*model.Record, error) {
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	details, err := json.Marshal(rec.Details)
	if err != nil {
		return nil, fmt.Errorf("encode details: %w", err)
	}

	const q = `
		INSERT INTO records (owner_id, category_id, title, notes, start_date, end_date, highlight, tags, details, documents, documents_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, '[]'::jsonb, 0)
		RETURNING ` + recordColumns
	row := r.db.QueryRowContext(ctx, q,
		rec.OwnerID,
		rec.CategoryID,
		rec.Title,
		rec.Notes,
		rec.StartDate,
		rec.EndDate,
		rec.Highlight,
		tags,
		details,
	)
	return scanRecord(row)
}

// FindByOwner fetches a single record scoped to its owner.
func (r *RecordPostgres) FindByOwner(ctx context.Context, ownerID, id string) (*model.Record, error) {
	const q = `
		SELECT ` + recordColumns + `
		FROM records
		WHERE id = $1 AND owner_id = $2
	`
	return scanRecord(r.db.QueryRowContext(ctx, q, id, ownerID))
}

// ListByCategory returns the owner's records in a category ordered the way
// the owner's own list view shows them.
func (r *RecordPostgres) ListByCategory(ctx context.Context, ownerID, categoryID string) ([]model.Record, error) {
	const q = `
		SELECT ` + recordColumns + `
		FROM records
		WHERE owner_id = $1 AND category_id = $2
		ORDER BY start_date DESC NULLS LAST, created_at DESC
	`
	return r.queryRecords(ctx, q, ownerID, categoryID)
}

// ListRecentByCategory returns the owner's records in a category by recency.
func (r *RecordPostgres) ListRecentByCategory(ctx context.Context, ownerID, categoryID string) ([]model.Record, error) {
	const q = `
		SELECT ` + recordColumns + `
		FROM records
		WHERE owner_id = $1 AND category_id = $2
		ORDER BY updated_at DESC, created_at DESC
	`
	return r.queryRecords(ctx, q, ownerID, categoryID)
}

func (r *RecordPostgres) queryRecords(ctx context.Context, q string, args ...any) ([]model.Record, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SetDocuments replaces the document list in one conditional write. The
// stored count is recomputed from the new list inside the statement, never
// incremented, so it cannot drift from the list length.
func (r *RecordPostgres) SetDocuments(ctx context.Context, ownerID, recordID string, docs []model.Document) error {
	if docs == nil {
		docs = []model.Document{}
	}
	payload, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}

	const q = `
		UPDATE records
		SET documents = $3::jsonb,
		    documents_count = jsonb_array_length($3::jsonb),
		    updated_at = now()
		WHERE id = $1 AND owner_id = $2
	`
	res, err := r.db.ExecContext(ctx, q, recordID, ownerID, payload)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
