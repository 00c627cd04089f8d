package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"lifevault/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shareRow(link *model.ShareLink) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"token", "owner_id", "scope_kind", "category_id", "include_docs", "expires_at", "revoked_at", "created_at",
	}).AddRow(
		link.Token, link.OwnerID, link.Scope.Kind, link.Scope.CategoryID,
		link.IncludeDocs, link.ExpiresAt, link.RevokedAt, link.CreatedAt,
	)
}

func testShareLink() *model.ShareLink {
	now := time.Now().UTC()
	return &model.ShareLink{
		Token:       "tok-abc",
		OwnerID:     "owner-1",
		Scope:       model.ShareScope{Kind: model.ScopeCategory, CategoryID: "cat-1"},
		IncludeDocs: true,
		ExpiresAt:   now.Add(72 * time.Hour),
		CreatedAt:   now,
	}
}

func TestSharePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSharePostgres(db)
	link := testShareLink()

	mock.ExpectQuery("INSERT INTO share_links").
		WithArgs(link.Token, link.OwnerID, link.Scope.Kind, link.Scope.CategoryID, link.IncludeDocs, link.ExpiresAt).
		WillReturnRows(shareRow(link))

	got, err := repo.Create(context.Background(), link)

	assert.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, link.Token, got.Token)
	assert.Nil(t, got.RevokedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSharePostgres_FindByToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSharePostgres(db)
	ctx := context.Background()

	t.Run("found with revocation stamp", func(t *testing.T) {
		link := testShareLink()
		revoked := time.Now().UTC()
		link.RevokedAt = &revoked

		mock.ExpectQuery("SELECT (.+) FROM share_links").
			WithArgs(link.Token).
			WillReturnRows(shareRow(link))

		got, err := repo.FindByToken(ctx, link.Token)

		assert.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.RevokedAt)
		assert.Equal(t, model.ScopeCategory, got.Scope.Kind)
	})

	t.Run("unknown token", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM share_links").
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByToken(ctx, "nope")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
	})
}

func TestSharePostgres_Revoke(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSharePostgres(db)
	at := time.Now().UTC()

	t.Run("stamps once", func(t *testing.T) {
		mock.ExpectExec("UPDATE share_links").
			WithArgs("tok-abc", "owner-1", at).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Revoke(context.Background(), "owner-1", "tok-abc", at))
	})

	t.Run("already revoked is a no-op", func(t *testing.T) {
		mock.ExpectExec("UPDATE share_links").
			WithArgs("tok-abc", "owner-1", at).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.Revoke(context.Background(), "owner-1", "tok-abc", at))
	})
}
