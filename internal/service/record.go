package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"lifevault/internal/model"
	"lifevault/internal/repository"
)

var (
	ErrTitleRequired   = errors.New("title is required")
	ErrInvalidCategory = errors.New("category missing or not owned by caller")
)

// CategoryRef identifies a category either by id or by name. Exactly one
// side should be set; id wins when both are.
type CategoryRef struct {
	ID   string
	Name string
}

// CreateRecordInput carries the caller-supplied fields of a new record.
type CreateRecordInput struct {
	CategoryID string
	Title      string
	Notes      string
	StartDate  *time.Time
	EndDate    *time.Time
	Highlight  bool
	Tags       []string
	Details    model.RecordDetails
}

// RecordService is the thin record/category surface around the document
// core: list and create records, list categories (seeding the defaults for
// a fresh owner).
type RecordService interface {
	ListByCategory(ctx context.Context, ownerID string, ref CategoryRef) ([]model.Record, error)
	Create(ctx context.Context, ownerID string, in CreateRecordInput) (*model.Record, error)
	Categories(ctx context.Context, ownerID string) ([]model.Category, error)
}

// recordService is a concrete implementation of RecordService.
type recordService struct {
	records    repository.RecordRepository
	categories repository.CategoryRepository
}

// NewRecordService constructs a new RecordService.
func NewRecordService(records repository.RecordRepository, categories repository.CategoryRepository) RecordService {
	return &recordService{records: records, categories: categories}
}

func (s *recordService) ListByCategory(ctx context.Context, ownerID string, ref CategoryRef) ([]model.Record, error) {
	categoryID := ref.ID
	if categoryID == "" {
		if ref.Name == "" {
			return nil, ErrInvalidCategory
		}
		cat, err := s.categories.FindByName(ctx, ownerID, ref.Name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// No such category yet means no records yet, not an error.
				return []model.Record{}, nil
			}
			return nil, err
		}
		categoryID = cat.ID
	}
	return s.records.ListByCategory(ctx, ownerID, categoryID)
}

func (s *recordService) Create(ctx context.Context, ownerID string, in CreateRecordInput) (*model.Record, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrTitleRequired
	}
	if in.CategoryID == "" {
		return nil, ErrInvalidCategory
	}

	// Ensure the category belongs to this owner.
	if _, err := s.categories.FindByID(ctx, ownerID, in.CategoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCategory
		}
		return nil, err
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	rec := &model.Record{
		OwnerID:    ownerID,
		CategoryID: in.CategoryID,
		Title:      strings.TrimSpace(in.Title),
		Notes:      in.Notes,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		Highlight:  in.Highlight,
		Tags:       tags,
		Details:    in.Details,
	}
	return s.records.Create(ctx, rec)
}

func (s *recordService) Categories(ctx context.Context, ownerID string) ([]model.Category, error) {
	cats, err := s.categories.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(cats) == 0 {
		if err := s.categories.CreateDefaults(ctx, ownerID); err != nil {
			return nil, err
		}
		return s.categories.List(ctx, ownerID)
	}
	return cats, nil
}
