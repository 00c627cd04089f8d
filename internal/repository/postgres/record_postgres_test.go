package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"lifevault/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordRow(t *testing.T, rec *model.Record) *sqlmock.Rows {
	t.Helper()
	tags, err := json.Marshal(rec.Tags)
	require.NoError(t, err)
	details, err := json.Marshal(rec.Details)
	require.NoError(t, err)
	docs, err := json.Marshal(rec.Documents)
	require.NoError(t, err)

	return sqlmock.NewRows([]string{
		"id", "owner_id", "category_id", "title", "notes", "start_date", "end_date",
		"highlight", "tags", "details", "documents", "documents_count", "created_at", "updated_at",
	}).AddRow(
		rec.ID, rec.OwnerID, rec.CategoryID, rec.Title, rec.Notes, rec.StartDate, rec.EndDate,
		rec.Highlight, tags, details, docs, rec.DocumentsCount, rec.CreatedAt, rec.UpdatedAt,
	)
}

func testRecord() *model.Record {
	now := time.Now().UTC()
	return &model.Record{
		ID:         "rec-1",
		OwnerID:    "owner-1",
		CategoryID: "cat-1",
		Title:      "BSc Computer Science",
		Tags:       []string{"university"},
		Details:    model.RecordDetails{Kind: model.DetailsEducation, DegreeName: "BSc"},
		Documents: []model.Document{
			{ID: "doc-1", Filename: "1__diploma.pdf", StorageKey: "owner-1/rec-1/1__diploma.pdf"},
		},
		DocumentsCount: 1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestRecordPostgres_FindByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRecordPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rec := testRecord()
		mock.ExpectQuery("SELECT (.+) FROM records").
			WithArgs("rec-1", "owner-1").
			WillReturnRows(recordRow(t, rec))

		got, err := repo.FindByOwner(ctx, "owner-1", "rec-1")

		assert.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "rec-1", got.ID)
		assert.Len(t, got.Documents, 1)
		assert.Equal(t, 1, got.DocumentsCount)
		assert.Equal(t, model.DetailsEducation, got.Details.Kind)
	})

	t.Run("not owned looks like missing", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM records").
			WithArgs("rec-1", "other-owner").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByOwner(ctx, "other-owner", "rec-1")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
	})
}

func TestRecordPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRecordPostgres(db)
	rec := testRecord()
	rec.Documents = nil
	rec.DocumentsCount = 0

	mock.ExpectQuery("INSERT INTO records").
		WillReturnRows(recordRow(t, rec))

	got, err := repo.Create(context.Background(), rec)

	assert.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Title, got.Title)
	assert.Equal(t, 0, got.DocumentsCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordPostgres_SetDocuments(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRecordPostgres(db)
	ctx := context.Background()
	docs := []model.Document{{ID: "doc-1"}, {ID: "doc-2"}}
	payload, _ := json.Marshal(docs)

	t.Run("updated", func(t *testing.T) {
		mock.ExpectExec("UPDATE records").
			WithArgs("rec-1", "owner-1", payload).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SetDocuments(ctx, "owner-1", "rec-1", docs)
		assert.NoError(t, err)
	})

	t.Run("no matching row maps to ErrNoRows", func(t *testing.T) {
		mock.ExpectExec("UPDATE records").
			WithArgs("rec-1", "intruder", payload).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SetDocuments(ctx, "intruder", "rec-1", docs)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("nil list stored as empty array", func(t *testing.T) {
		empty, _ := json.Marshal([]model.Document{})
		mock.ExpectExec("UPDATE records").
			WithArgs("rec-1", "owner-1", empty).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.SetDocuments(ctx, "owner-1", "rec-1", nil)
		assert.NoError(t, err)
	})
}

func TestRecordPostgres_ListRecentByCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRecordPostgres(db)

	rec := testRecord()
	mock.ExpectQuery("SELECT (.+) FROM records").
		WithArgs("owner-1", "cat-1").
		WillReturnRows(recordRow(t, rec))

	items, err := repo.ListRecentByCategory(context.Background(), "owner-1", "cat-1")

	assert.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "rec-1", items[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
