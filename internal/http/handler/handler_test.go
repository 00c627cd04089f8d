package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"lifevault/internal/http/middleware"
	"lifevault/internal/model"
	"lifevault/internal/service"
	svcMocks "lifevault/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newTestApp builds a Fiber app with the error handler and a stand-in for
// the auth middleware that pins the owner identity.
func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.OwnerIDLocalKey, "owner-1")
		return c.Next()
	})
	return app
}

func decodeBody(t *testing.T, body io.Reader, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(body).Decode(out))
}

func errorCode(t *testing.T, body io.Reader) string {
	t.Helper()
	var payload errorPayload
	decodeBody(t, body, &payload)
	return payload.Error.Code
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		dbMock.ExpectPing()

		app := newTestApp()
		app.Get("/health", HealthCheck(db))

		resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("db down", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		dbMock.ExpectPing().WillReturnError(errors.New("connection refused"))

		app := newTestApp()
		app.Get("/health", HealthCheck(db))

		resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", errorCode(t, resp.Body))
	})
}

func TestLivenessProbe(t *testing.T) {
	app := newTestApp()
	app.Get("/healthz", LivenessProbe())

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestListCategories(t *testing.T) {
	mSvc := new(svcMocks.MockRecordService)
	mSvc.On("Categories", mock.Anything, "owner-1").
		Return([]model.Category{{ID: "cat-1", Name: "Education"}}, nil)

	app := newTestApp()
	app.Get("/api/v1/categories", ListCategories(mSvc))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/categories", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []model.Category `json:"data"`
	}
	decodeBody(t, resp.Body, &body)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Education", body.Data[0].Name)
}

func TestListRecords(t *testing.T) {
	t.Run("by category name", func(t *testing.T) {
		mSvc := new(svcMocks.MockRecordService)
		mSvc.On("ListByCategory", mock.Anything, "owner-1", service.CategoryRef{Name: "Career"}).
			Return([]model.Record{{ID: "rec-1", Title: "Dev"}}, nil)

		app := newTestApp()
		app.Get("/api/v1/records", ListRecords(mSvc))

		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/records?category=Career", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		mSvc.AssertExpectations(t)
	})

	t.Run("category required", func(t *testing.T) {
		mSvc := new(svcMocks.MockRecordService)
		mSvc.On("ListByCategory", mock.Anything, "owner-1", service.CategoryRef{}).
			Return(nil, service.ErrInvalidCategory)

		app := newTestApp()
		app.Get("/api/v1/records", ListRecords(mSvc))

		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/records", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", errorCode(t, resp.Body))
	})
}

func TestCreateRecord(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		mSvc := new(svcMocks.MockRecordService)
		mSvc.On("Create", mock.Anything, "owner-1", mock.MatchedBy(func(in service.CreateRecordInput) bool {
			return in.CategoryID == "cat-1" && in.Title == "MSc"
		})).Return(&model.Record{ID: "rec-1", Title: "MSc"}, nil)

		app := newTestApp()
		app.Post("/api/v1/records", CreateRecord(mSvc))

		body := bytes.NewBufferString(`{"category_id":"cat-1","title":"MSc"}`)
		req := httptest.NewRequest("POST", "/api/v1/records", body)
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	})

	t.Run("title required", func(t *testing.T) {
		mSvc := new(svcMocks.MockRecordService)
		mSvc.On("Create", mock.Anything, "owner-1", mock.Anything).
			Return(nil, service.ErrTitleRequired)

		app := newTestApp()
		app.Post("/api/v1/records", CreateRecord(mSvc))

		req := httptest.NewRequest("POST", "/api/v1/records", bytes.NewBufferString(`{"category_id":"cat-1"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		app := newTestApp()
		app.Post("/api/v1/records", CreateRecord(new(svcMocks.MockRecordService)))

		req := httptest.NewRequest("POST", "/api/v1/records", bytes.NewBufferString(`{broken`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestListDocuments(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		mSvc := new(svcMocks.MockDocumentService)
		mSvc.On("List", mock.Anything, "owner-1", "rec-1").
			Return([]model.Document{{ID: "doc-1"}}, nil)

		app := newTestApp()
		app.Get("/api/v1/records/:id/documents", ListDocuments(mSvc))

		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/records/rec-1/documents", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("record not found", func(t *testing.T) {
		mSvc := new(svcMocks.MockDocumentService)
		mSvc.On("List", mock.Anything, "owner-1", "rec-x").
			Return(nil, service.ErrNotFound)

		app := newTestApp()
		app.Get("/api/v1/records/:id/documents", ListDocuments(mSvc))

		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/records/rec-x/documents", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", errorCode(t, resp.Body))
	})
}

func multipartBody(t *testing.T, files map[string]string, displayNames []string) (*bytes.Buffer, string) {
	t.Helper()
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for _, dn := range displayNames {
		require.NoError(t, w.WriteField("display_names", dn))
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestAttachDocuments(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		mSvc := new(svcMocks.MockDocumentService)
		mSvc.On("Attach", mock.Anything, "owner-1", "rec-1",
			mock.MatchedBy(func(uploads []service.Upload) bool {
				return len(uploads) == 1 && uploads[0].Name == "cv.pdf"
			}),
			[]string{"My CV"},
		).Return(&service.AttachResult{Attached: []model.Document{{ID: "doc-1", DisplayName: "My CV"}}}, nil)

		app := newTestApp()
		app.Post("/api/v1/records/:id/documents", AttachDocuments(mSvc))

		body, ct := multipartBody(t, map[string]string{"cv.pdf": "content"}, []string{"My CV"})
		req := httptest.NewRequest("POST", "/api/v1/records/rec-1/documents", body)
		req.Header.Set(fiber.HeaderContentType, ct)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		mSvc.AssertExpectations(t)
	})

	t.Run("no files", func(t *testing.T) {
		app := newTestApp()
		app.Post("/api/v1/records/:id/documents", AttachDocuments(new(svcMocks.MockDocumentService)))

		body, ct := multipartBody(t, nil, nil)
		req := httptest.NewRequest("POST", "/api/v1/records/rec-1/documents", body)
		req.Header.Set(fiber.HeaderContentType, ct)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "FILE_REQUIRED", errorCode(t, resp.Body))
	})

	t.Run("name count mismatch", func(t *testing.T) {
		mSvc := new(svcMocks.MockDocumentService)
		mSvc.On("Attach", mock.Anything, "owner-1", "rec-1", mock.Anything, mock.Anything).
			Return(nil, service.ErrNameCountMismatch)

		app := newTestApp()
		app.Post("/api/v1/records/:id/documents", AttachDocuments(mSvc))

		body, ct := multipartBody(t, map[string]string{"a.txt": "x"}, []string{"one", "two"})
		req := httptest.NewRequest("POST", "/api/v1/records/rec-1/documents", body)
		req.Header.Set(fiber.HeaderContentType, ct)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "NAME_COUNT_MISMATCH", errorCode(t, resp.Body))
	})

	t.Run("record not found", func(t *testing.T) {
		mSvc := new(svcMocks.MockDocumentService)
		mSvc.On("Attach", mock.Anything, "owner-1", "rec-x", mock.Anything, mock.Anything).
			Return(nil, service.ErrNotFound)

		app := newTestApp()
		app.Post("/api/v1/records/:id/documents", AttachDocuments(mSvc))

		body, ct := multipartBody(t, map[string]string{"a.txt": "x"}, nil)
		req := httptest.NewRequest("POST", "/api/v1/records/rec-x/documents", body)
		req.Header.Set(fiber.HeaderContentType, ct)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestDeleteDocument(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		mSvc := new(svcMocks.MockDocumentService)
		mSvc.On("Detach", mock.Anything, "owner-1", "rec-1", "doc-1").Return(nil)

		app := newTestApp()
		app.Delete("/api/v1/records/:id/documents/:docId", DeleteDocument(mSvc))

		resp, err := app.Test(httptest.NewRequest("DELETE", "/api/v1/records/rec-1/documents/doc-1", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	})

	t.Run("unresolved", func(t *testing.T) {
		mSvc := new(svcMocks.MockDocumentService)
		mSvc.On("Detach", mock.Anything, "owner-1", "rec-1", "nope").Return(service.ErrNotFound)

		app := newTestApp()
		app.Delete("/api/v1/records/:id/documents/:docId", DeleteDocument(mSvc))

		resp, err := app.Test(httptest.NewRequest("DELETE", "/api/v1/records/rec-1/documents/nope", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestCreateCategoryShare(t *testing.T) {
	opts := ShareLinkOptions{BaseURL: "http://localhost:8080", DefaultTTL: 72 * time.Hour}

	t.Run("created with default ttl", func(t *testing.T) {
		expires := time.Now().UTC().Add(72 * time.Hour)
		mSvc := new(svcMocks.MockShareService)
		mSvc.On("Issue", mock.Anything, "owner-1", service.CategoryRef{ID: "cat-1"}, true, 72*time.Hour).
			Return(&model.ShareLink{Token: "tok-abc", IncludeDocs: true, ExpiresAt: expires}, nil)

		app := newTestApp()
		app.Post("/api/v1/shares/category", CreateCategoryShare(mSvc, opts))

		req := httptest.NewRequest("POST", "/api/v1/shares/category",
			bytes.NewBufferString(`{"category_id":"cat-1","include_docs":true}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

		var body createShareResponse
		decodeBody(t, resp.Body, &body)
		assert.Equal(t, "http://localhost:8080/api/v1/public/shares/tok-abc", body.URL)
		assert.True(t, body.IncludeDocs)
		mSvc.AssertExpectations(t)
	})

	t.Run("explicit ttl", func(t *testing.T) {
		mSvc := new(svcMocks.MockShareService)
		mSvc.On("Issue", mock.Anything, "owner-1", service.CategoryRef{Name: "Travel"}, false, 24*time.Hour).
			Return(&model.ShareLink{Token: "tok-xyz", ExpiresAt: time.Now().Add(24 * time.Hour)}, nil)

		app := newTestApp()
		app.Post("/api/v1/shares/category", CreateCategoryShare(mSvc, opts))

		req := httptest.NewRequest("POST", "/api/v1/shares/category",
			bytes.NewBufferString(`{"category_name":"Travel","ttl_hours":24}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		mSvc.AssertExpectations(t)
	})

	t.Run("invalid scope", func(t *testing.T) {
		mSvc := new(svcMocks.MockShareService)
		mSvc.On("Issue", mock.Anything, "owner-1", mock.Anything, false, mock.Anything).
			Return(nil, service.ErrInvalidScope)

		app := newTestApp()
		app.Post("/api/v1/shares/category", CreateCategoryShare(mSvc, opts))

		req := httptest.NewRequest("POST", "/api/v1/shares/category",
			bytes.NewBufferString(`{"category_id":"cat-9"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_SCOPE", errorCode(t, resp.Body))
	})
}

func TestLoadPublicShare(t *testing.T) {
	t.Run("active link", func(t *testing.T) {
		link := &model.ShareLink{
			Token:       "tok-1",
			OwnerID:     "owner-1",
			Scope:       model.ShareScope{Kind: model.ScopeCategory, CategoryID: "cat-1"},
			IncludeDocs: false,
			ExpiresAt:   time.Now().UTC().Add(time.Hour),
		}
		mSvc := new(svcMocks.MockShareService)
		mSvc.On("Validate", mock.Anything, "tok-1").Return(link, nil)
		mSvc.On("Project", mock.Anything, link).Return(&service.SharePayload{
			Type:     model.ScopeCategory,
			Category: service.SharedCategory{ID: "cat-1", Name: "Education"},
			Items:    []service.ShareItem{{ID: "rec-1", Title: "MSc"}},
		}, nil)

		app := newTestApp()
		app.Get("/api/v1/public/shares/:token", LoadPublicShare(mSvc))

		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/public/shares/tok-1", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var payload service.SharePayload
		decodeBody(t, resp.Body, &payload)
		assert.Equal(t, "Education", payload.Category.Name)
		require.Len(t, payload.Items, 1)
		assert.Nil(t, payload.Items[0].Documents)
	})

	t.Run("inactive link", func(t *testing.T) {
		mSvc := new(svcMocks.MockShareService)
		mSvc.On("Validate", mock.Anything, "tok-dead").Return(nil, service.ErrShareInactive)

		app := newTestApp()
		app.Get("/api/v1/public/shares/:token", LoadPublicShare(mSvc))

		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/public/shares/tok-dead", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusGone, resp.StatusCode)
		assert.Equal(t, "SHARE_INACTIVE", errorCode(t, resp.Body))
	})

	t.Run("unsupported scope", func(t *testing.T) {
		link := &model.ShareLink{Token: "tok-2", Scope: model.ShareScope{Kind: "record"}, ExpiresAt: time.Now().Add(time.Hour)}
		mSvc := new(svcMocks.MockShareService)
		mSvc.On("Validate", mock.Anything, "tok-2").Return(link, nil)
		mSvc.On("Project", mock.Anything, link).Return(nil, service.ErrUnsupportedScope)

		app := newTestApp()
		app.Get("/api/v1/public/shares/:token", LoadPublicShare(mSvc))

		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/public/shares/tok-2", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "UNSUPPORTED_SCOPE", errorCode(t, resp.Body))
	})
}

func TestRevokeShare(t *testing.T) {
	t.Run("revoked", func(t *testing.T) {
		mSvc := new(svcMocks.MockShareService)
		mSvc.On("Revoke", mock.Anything, "owner-1", "tok-1").Return(nil)

		app := newTestApp()
		app.Post("/api/v1/shares/:token/revoke", RevokeShare(mSvc))

		resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/shares/tok-1/revoke", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	})

	t.Run("unknown token", func(t *testing.T) {
		mSvc := new(svcMocks.MockShareService)
		mSvc.On("Revoke", mock.Anything, "owner-1", "tok-x").Return(service.ErrNotFound)

		app := newTestApp()
		app.Post("/api/v1/shares/:token/revoke", RevokeShare(mSvc))

		resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/shares/tok-x/revoke", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

// Route registration: bearer auth gates the API group but not the public
// share route.
func TestRegisterRoutesAuthBoundary(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mShares := new(svcMocks.MockShareService)
	mShares.On("Validate", mock.Anything, "tok-1").Return(nil, service.ErrShareInactive)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	RegisterRoutes(app, db, Services{
		Records:   new(svcMocks.MockRecordService),
		Documents: new(svcMocks.MockDocumentService),
		Shares:    mShares,
	}, "secret", ShareLinkOptions{BaseURL: "http://localhost:8080", DefaultTTL: 72 * time.Hour})

	t.Run("api requires bearer token", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/categories", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", errorCode(t, resp.Body))
	})

	t.Run("public share route is open", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/public/shares/tok-1", nil))
		require.NoError(t, err)
		// The token was inactive, but the request reached the handler
		// without credentials.
		assert.Equal(t, fiber.StatusGone, resp.StatusCode)
	})
}
