package repository

import (
	"context"
	"time"

	"lifevault/internal/model"
)

// ShareRepository defines data access for share links. Links are keyed by
// their unique token with a secondary (owner, token) lookup for revocation;
// rows are never deleted, revocation is a one-way timestamp.
type ShareRepository interface {
	// Create inserts a new share link row.
	Create(ctx context.Context, link *model.ShareLink) (*model.ShareLink, error)

	// FindByToken returns the link for a token regardless of owner; this is
	// the anonymous redemption path. Returns sql.ErrNoRows when unknown.
	FindByToken(ctx context.Context, token string) (*model.ShareLink, error)

	// FindByOwnerToken returns the link only if it belongs to ownerID.
	FindByOwnerToken(ctx context.Context, ownerID, token string) (*model.ShareLink, error)

	// Revoke stamps revoked_at for the owner's link. Rows already revoked
	// are left untouched so the original revocation time is preserved.
	Revoke(ctx context.Context, ownerID, token string, at time.Time) error
}
