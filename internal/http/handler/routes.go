package handler

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"lifevault/internal/http/middleware"
	"lifevault/internal/model"
	"lifevault/internal/service"
)

// Services bundles the business services the HTTP layer fronts.
type Services struct {
	Records   service.RecordService
	Documents service.DocumentService
	Shares    service.ShareService
}

// ShareLinkOptions carries what CreateCategoryShare needs to mint link URLs.
type ShareLinkOptions struct {
	BaseURL    string
	DefaultTTL time.Duration
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// stay thin: parse, call a service, translate sentinel errors to the wire.
func RegisterRoutes(app *fiber.App, db *sql.DB, svcs Services, jwtSecret string, shareOpts ShareLinkOptions) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api/v1")

	// Possession of the token is the whole credential here; no bearer auth.
	api.Get("/public/shares/:token", LoadPublicShare(svcs.Shares))

	authed := api.Group("", middleware.Auth(jwtSecret))
	authed.Get("/categories", ListCategories(svcs.Records))
	authed.Get("/records", ListRecords(svcs.Records))
	authed.Post("/records", CreateRecord(svcs.Records))
	authed.Get("/records/:id/documents", ListDocuments(svcs.Documents))
	authed.Post("/records/:id/documents", AttachDocuments(svcs.Documents))
	authed.Delete("/records/:id/documents/:docId", DeleteDocument(svcs.Documents))
	authed.Post("/shares/category", CreateCategoryShare(svcs.Shares, shareOpts))
	authed.Post("/shares/:token/revoke", RevokeShare(svcs.Shares))
}

// HealthCheck reports readiness: the database must answer a ping.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a bare liveness check.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListCategories returns the caller's categories, seeding the defaults for a
// fresh owner.
func ListCategories(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := svc.Categories(c.UserContext(), middleware.OwnerIDFromCtx(c))
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"data": cats})
	}
}

// ListRecords returns the caller's records for one category, selected by
// ?category_id= or by ?category= name.
func ListRecords(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ref := service.CategoryRef{
			ID:   c.Query("category_id"),
			Name: c.Query("category"),
		}
		recs, err := svc.ListByCategory(c.UserContext(), middleware.OwnerIDFromCtx(c), ref)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCategory) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "category or category_id is required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"data": recs})
	}
}

type createRecordRequest struct {
	CategoryID string              `json:"category_id"`
	Title      string              `json:"title"`
	Notes      string              `json:"notes"`
	StartDate  *time.Time          `json:"start_date"`
	EndDate    *time.Time          `json:"end_date"`
	Highlight  bool                `json:"highlight"`
	Tags       []string            `json:"tags"`
	Details    model.RecordDetails `json:"details"`
}

// CreateRecord creates a record in one of the caller's categories.
func CreateRecord(svc service.RecordService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createRecordRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed request body")
		}

		rec, err := svc.Create(c.UserContext(), middleware.OwnerIDFromCtx(c), service.CreateRecordInput{
			CategoryID: req.CategoryID,
			Title:      req.Title,
			Notes:      req.Notes,
			StartDate:  req.StartDate,
			EndDate:    req.EndDate,
			Highlight:  req.Highlight,
			Tags:       req.Tags,
			Details:    req.Details,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTitleRequired):
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "title is required")
			case errors.Is(err, service.ErrInvalidCategory):
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "category missing or not owned")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// ListDocuments returns the document list of one owned record.
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := svc.List(c.UserContext(), middleware.OwnerIDFromCtx(c), c.Params("id"))
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "record not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"data": docs})
	}
}

// AttachDocuments stores a multipart batch (field "files", optional parallel
// "display_names" values) against one owned record. Files whose storage
// write fails are reported in the body; the rest still attach.
func AttachDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "multipart form with files is required")
		}
		headers := form.File["files"]
		if len(headers) == 0 {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "at least one file is required")
		}

		uploads := make([]service.Upload, 0, len(headers))
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()
			uploads = append(uploads, service.Upload{
				Name:        fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Reader:      f,
			})
		}

		res, err := svc.Attach(c.UserContext(), middleware.OwnerIDFromCtx(c), c.Params("id"), uploads, form.Value["display_names"])
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNoFiles):
				return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "at least one file is required")
			case errors.Is(err, service.ErrTooManyFiles):
				return writeError(c, fiber.StatusBadRequest, "TOO_MANY_FILES", "too many files in one batch")
			case errors.Is(err, service.ErrNameCountMismatch):
				return writeError(c, fiber.StatusBadRequest, "NAME_COUNT_MISMATCH", "display_names must match files pairwise")
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "record not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// DeleteDocument detaches one document, resolved by id, filename, original
// name, URL or storage key.
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := svc.Detach(c.UserContext(), middleware.OwnerIDFromCtx(c), c.Params("id"), c.Params("docId"))
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type createShareRequest struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	IncludeDocs  bool   `json:"include_docs"`
	TTLHours     int    `json:"ttl_hours"`
}

type createShareResponse struct {
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expires_at"`
	IncludeDocs bool      `json:"include_docs"`
}

// CreateCategoryShare issues a share link for one of the caller's categories.
func CreateCategoryShare(svc service.ShareService, opts ShareLinkOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createShareRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed request body")
		}

		ttl := opts.DefaultTTL
		if req.TTLHours != 0 {
			ttl = time.Duration(req.TTLHours) * time.Hour
		}

		link, err := svc.Issue(c.UserContext(), middleware.OwnerIDFromCtx(c),
			service.CategoryRef{ID: req.CategoryID, Name: req.CategoryName}, req.IncludeDocs, ttl)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidScope):
				return writeError(c, fiber.StatusBadRequest, "INVALID_SCOPE", "category missing or not owned")
			case errors.Is(err, service.ErrInvalidTTL):
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "ttl_hours must be positive")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		return c.Status(fiber.StatusCreated).JSON(createShareResponse{
			URL:         opts.BaseURL + "/api/v1/public/shares/" + link.Token,
			ExpiresAt:   link.ExpiresAt,
			IncludeDocs: link.IncludeDocs,
		})
	}
}

// LoadPublicShare redeems a share token and returns the redacted view it
// grants. Unauthenticated on purpose.
func LoadPublicShare(svc service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		link, err := svc.Validate(c.UserContext(), c.Params("token"))
		if err != nil {
			if errors.Is(err, service.ErrShareInactive) {
				return writeError(c, fiber.StatusGone, "SHARE_INACTIVE", "share link expired, revoked or unknown")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		payload, err := svc.Project(c.UserContext(), link)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrShareInactive):
				return writeError(c, fiber.StatusGone, "SHARE_INACTIVE", "share link expired, revoked or unknown")
			case errors.Is(err, service.ErrUnsupportedScope):
				return writeError(c, fiber.StatusBadRequest, "UNSUPPORTED_SCOPE", "unsupported share scope")
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "shared category not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(payload)
	}
}

// RevokeShare permanently deactivates one of the caller's share links.
// Revoking an already-revoked link succeeds.
func RevokeShare(svc service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := svc.Revoke(c.UserContext(), middleware.OwnerIDFromCtx(c), c.Params("token"))
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "share link not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
