package postgres

import (
	"context"
	"database/sql"
	"time"

	"lifevault/internal/model"
	"lifevault/internal/repository"
)

// SharePostgres is a PostgreSQL implementation of repository.ShareRepository.
// The table is keyed by the unique token; rows are append-only except for
// the one-way revoked_at stamp.
type SharePostgres struct {
	db *sql.DB
}

// NewSharePostgres creates a new SharePostgres repository.
func NewSharePostgres(db *sql.DB) *SharePostgres {
	return &SharePostgres{db: db}
}

var _ repository.ShareRepository = (*SharePostgres)(nil)

const shareColumns = `token, owner_id, scope_kind, category_id, include_docs, expires_at, revoked_at, created_at`

func scanShare(row rowScanner) (*model.ShareLink, error) {
	var l model.ShareLink
	if err := row.Scan(
		&l.Token,
		&l.OwnerID,
		&l.Scope.Kind,
		&l.Scope.CategoryID,
		&l.IncludeDocs,
		&l.ExpiresAt,
		&l.RevokedAt,
		&l.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts a new share link row and returns the stored link.
func (r *SharePostgres) Create(ctx context.Context, link *model.ShareLink) (*model.ShareLink, error) {
	const q = `
		INSERT INTO share_links (token, owner_id, scope_kind, category_id, include_docs, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + shareColumns
	row := r.db.QueryRowContext(ctx, q,
		link.Token,
		link.OwnerID,
		link.Scope.Kind,
		link.Scope.CategoryID,
		link.IncludeDocs,
		link.ExpiresAt,
	)
	return scanShare(row)
}

// FindByToken fetches a link by token alone (anonymous redemption path).
func (r *SharePostgres) FindByToken(ctx context.Context, token string) (*model.ShareLink, error) {
	const q = `
		SELECT ` + shareColumns + `
		FROM share_links
		WHERE token = $1
	`
	return scanShare(r.db.QueryRowContext(ctx, q, token))
}

// FindByOwnerToken fetches a link scoped to its owner.
func (r *SharePostgres) FindByOwnerToken(ctx context.Context, ownerID, token string) (*model.ShareLink, error) {
	const q = `
		SELECT ` + shareColumns + `
		FROM share_links
		WHERE token = $1 AND owner_id = $2
	`
	return scanShare(r.db.QueryRowContext(ctx, q, token, ownerID))
}

// Revoke stamps revoked_at once; an already-revoked row keeps its original
// timestamp. Affecting zero rows is not an error here — the service decides
// between "unknown link" and "already revoked".
func (r *SharePostgres) Revoke(ctx context.Context, ownerID, token string, at time.Time) error {
	const q = `
		UPDATE share_links
		SET revoked_at = $3
		WHERE token = $1 AND owner_id = $2 AND revoked_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, q, token, ownerID, at)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
