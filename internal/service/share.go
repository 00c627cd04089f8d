package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"lifevault/internal/model"
	"lifevault/internal/repository"
)

var (
	ErrInvalidScope     = errors.New("category missing or not owned by caller")
	ErrShareInactive    = errors.New("share link expired, revoked or unknown")
	ErrUnsupportedScope = errors.New("unsupported share scope")
	ErrInvalidTTL       = errors.New("ttl must be positive")
)

// tokenBytes of entropy per share token. 24 random bytes (192 bits) make
// guessing infeasible; base64url keeps the token safe in a path segment.
const tokenBytes = 24

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SharedCategory is the category header of a projected share payload.
type SharedCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ShareItem is one record as a link holder may see it. The owner identity
// is never present. Documents and DocumentsCount are pointers so that a
// redacted payload omits the keys entirely — a viewer cannot distinguish
// "no documents" from "documents hidden".
type ShareItem struct {
	ID             string              `json:"id"`
	CategoryID     string              `json:"category_id"`
	Title          string              `json:"title"`
	Notes          string              `json:"notes,omitempty"`
	StartDate      *time.Time          `json:"start_date,omitempty"`
	EndDate        *time.Time          `json:"end_date,omitempty"`
	Highlight      bool                `json:"highlight"`
	Tags           []string            `json:"tags"`
	Details        model.RecordDetails `json:"details"`
	Documents      *[]model.Document   `json:"documents,omitempty"`
	DocumentsCount *int                `json:"documents_count,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// SharePayload is exactly what a holder of an active link may see.
type SharePayload struct {
	Type        string         `json:"type"`
	Category    SharedCategory `json:"category"`
	IncludeDocs bool           `json:"include_docs"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Items       []ShareItem    `json:"items"`
}

// ShareService issues, validates and revokes capability tokens, and
// projects the redacted view an active token grants. Possession of the
// token is the entire authorization for reading; the owner-scoped
// issue/revoke boundary and token unguessability are the only security
// controls.
type ShareService interface {
	// Issue creates a share link for one of the owner's categories,
	// resolved by id or by case-insensitive name. Returns ErrInvalidScope
	// when the category is missing or owned by someone else.
	Issue(ctx context.Context, ownerID string, ref CategoryRef, includeDocs bool, ttl time.Duration) (*model.ShareLink, error)

	// Validate looks a token up and checks it is active. Pure predicate, no
	// side effects; unknown, revoked and expired all report ErrShareInactive.
	Validate(ctx context.Context, token string) (*model.ShareLink, error)

	// Revoke permanently deactivates the owner's link. Idempotent: revoking
	// an already-revoked link is a no-op. ErrNotFound for unknown tokens.
	Revoke(ctx context.Context, ownerID, token string) error

	// Project builds the payload an active link grants access to. Rejects
	// inactive links with ErrShareInactive and unknown scope kinds with
	// ErrUnsupportedScope.
	Project(ctx context.Context, link *model.ShareLink) (*SharePayload, error)
}

// shareService is a concrete implementation of ShareService.
type shareService struct {
	shares     repository.ShareRepository
	categories repository.CategoryRepository
	records    repository.RecordRepository
}

// NewShareService constructs a new ShareService.
func NewShareService(shares repository.ShareRepository, categories repository.CategoryRepository, records repository.RecordRepository) ShareService {
	return &shareService{shares: shares, categories: categories, records: records}
}

func (s *shareService) Issue(ctx context.Context, ownerID string, ref CategoryRef, includeDocs bool, ttl time.Duration) (*model.ShareLink, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	cat, err := s.resolveCategory(ctx, ownerID, ref)
	if err != nil {
		return nil, err
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	link := &model.ShareLink{
		Token:       token,
		OwnerID:     ownerID,
		Scope:       model.ShareScope{Kind: model.ScopeCategory, CategoryID: cat.ID},
		IncludeDocs: includeDocs,
		// Server time on both issue and redemption sides; no background
		// sweep, expiry is compared lazily at validation.
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	return s.shares.Create(ctx, link)
}

func (s *shareService) Validate(ctx context.Context, token string) (*model.ShareLink, error) {
	if token == "" {
		return nil, ErrShareInactive
	}
	link, err := s.shares.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShareInactive
		}
		return nil, err
	}
	if !link.Active(time.Now().UTC()) {
		return nil, ErrShareInactive
	}
	return link, nil
}

func (s *shareService) Revoke(ctx context.Context, ownerID, token string) error {
	link, err := s.shares.FindByOwnerToken(ctx, ownerID, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if link.RevokedAt != nil {
		return nil
	}
	return s.shares.Revoke(ctx, ownerID, token, time.Now().UTC())
}

func (s *shareService) Project(ctx context.Context, link *model.ShareLink) (*SharePayload, error) {
	if !link.Active(time.Now().UTC()) {
		return nil, ErrShareInactive
	}
	if link.Scope.Kind != model.ScopeCategory {
		return nil, ErrUnsupportedScope
	}

	cat, err := s.categories.FindByID(ctx, link.OwnerID, link.Scope.CategoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	recs, err := s.records.ListRecentByCategory(ctx, link.OwnerID, cat.ID)
	if err != nil {
		return nil, err
	}

	items := make([]ShareItem, 0, len(recs))
	for i := range recs {
		items = append(items, projectItem(&recs[i], link.IncludeDocs))
	}

	return &SharePayload{
		Type:        model.ScopeCategory,
		Category:    SharedCategory{ID: cat.ID, Name: cat.Name},
		IncludeDocs: link.IncludeDocs,
		ExpiresAt:   link.ExpiresAt,
		Items:       items,
	}, nil
}

// projectItem copies the viewer-safe fields of a record. The owner identity
// never crosses; the document fields cross only when the link says so.
func projectItem(rec *model.Record, includeDocs bool) ShareItem {
	item := ShareItem{
		ID:         rec.ID,
		CategoryID: rec.CategoryID,
		Title:      rec.Title,
		Notes:      rec.Notes,
		StartDate:  rec.StartDate,
		EndDate:    rec.EndDate,
		Highlight:  rec.Highlight,
		Tags:       rec.Tags,
		Details:    rec.Details,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
	if includeDocs {
		docs := rec.Documents
		if docs == nil {
			docs = []model.Document{}
		}
		count := rec.DocumentsCount
		item.Documents = &docs
		item.DocumentsCount = &count
	}
	return item
}

func (s *shareService) resolveCategory(ctx context.Context, ownerID string, ref CategoryRef) (*model.Category, error) {
	var (
		cat *model.Category
		err error
	)
	switch {
	case ref.ID != "":
		cat, err = s.categories.FindByID(ctx, ownerID, ref.ID)
	case ref.Name != "":
		cat, err = s.categories.FindByName(ctx, ownerID, ref.Name)
	default:
		return nil, ErrInvalidScope
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidScope
		}
		return nil, err
	}
	return cat, nil
}
