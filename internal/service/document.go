package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lifevault/internal/model"
	"lifevault/internal/repository"
	"lifevault/internal/storage"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrNoFiles           = errors.New("no files supplied")
	ErrTooManyFiles      = errors.New("too many files in one batch")
	ErrNameCountMismatch = errors.New("display names must match files pairwise")
)

// maxAttachFiles caps a single attach batch.
const maxAttachFiles = 10

// Upload is one incoming file in an attach batch.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// AttachFailure reports a file whose physical write failed. The rest of the
// batch still attaches; a put failure is surfaced per file, never silently
// dropped.
type AttachFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// AttachResult is the outcome of one attach batch.
type AttachResult struct {
	Attached []model.Document `json:"data"`
	Failed   []AttachFailure  `json:"failed,omitempty"`
}

// DocumentService is the document ledger: the owner of the invariant that a
// record's stored document list and its cached count stay consistent across
// attaches and detaches. The count is recomputed from the list on every
// write, inside a single conditional update on the record row, so a
// concurrent reader can never observe a mismatch.
type DocumentService interface {
	// List returns the record's current document list, owner-scoped.
	List(ctx context.Context, ownerID, recordID string) ([]model.Document, error)

	// Attach stores each file and appends the resulting document entries to
	// the record's list in one update. displayNames, when non-empty, renames
	// files pairwise by position and must match the batch length. Files
	// whose physical write fails are reported in the result and excluded;
	// the rest still attach.
	Attach(ctx context.Context, ownerID, recordID string, uploads []Upload, displayNames []string) (*AttachResult, error)

	// Detach resolves candidateID against the record's documents, deletes
	// the physical object best-effort, and removes the entry. Returns
	// ErrNotFound when the record isn't owned or nothing resolves.
	Detach(ctx context.Context, ownerID, recordID, candidateID string) error
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store   storage.Backend
	records repository.RecordRepository
	log     *zap.SugaredLogger
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Backend, records repository.RecordRepository, log *zap.SugaredLogger) DocumentService {
	return &documentService{store: store, records: records, log: log}
}

func (s *documentService) List(ctx context.Context, ownerID, recordID string) ([]model.Document, error) {
	rec, err := s.records.FindByOwner(ctx, ownerID, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rec.Documents == nil {
		return []model.Document{}, nil
	}
	return rec.Documents, nil
}

func (s *documentService) Attach(ctx context.Context, ownerID, recordID string, uploads []Upload, displayNames []string) (*AttachResult, error) {
	if len(uploads) == 0 {
		return nil, ErrNoFiles
	}
	if len(uploads) > maxAttachFiles {
		return nil, ErrTooManyFiles
	}
	if len(displayNames) > 0 && len(displayNames) != len(uploads) {
		return nil, ErrNameCountMismatch
	}

	rec, err := s.records.FindByOwner(ctx, ownerID, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	res := &AttachResult{Attached: make([]model.Document, 0, len(uploads))}
	for i, up := range uploads {
		if up.Reader == nil {
			res.Failed = append(res.Failed, AttachFailure{Name: up.Name, Reason: "empty file stream"})
			continue
		}
		obj, err := s.store.Put(ctx, ownerID, recordID, up.Name, up.Reader, storage.PutOptions{
			Size:        up.Size,
			ContentType: up.ContentType,
		})
		if err != nil {
			s.log.Warnw("document upload failed",
				"owner_id", ownerID,
				"record_id", recordID,
				"file", up.Name,
				"error", err,
			)
			res.Failed = append(res.Failed, AttachFailure{Name: up.Name, Reason: "storage write failed"})
			continue
		}

		display := up.Name
		if len(displayNames) > 0 && displayNames[i] != "" {
			display = displayNames[i]
		}
		ct := up.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}

		res.Attached = append(res.Attached, model.Document{
			ID:           uuid.New().String(),
			Filename:     obj.Filename,
			OriginalName: up.Name,
			DisplayName:  display,
			MimeType:     ct,
			Size:         obj.Size,
			StorageKey:   obj.Key,
			URL:          obj.URL,
			CreatedAt:    time.Now().UTC(),
		})
	}

	if len(res.Attached) == 0 {
		return res, nil
	}

	// One conditional write: the new list plus a count derived from it.
	list := append(rec.Documents, res.Attached...)
	if err := s.records.SetDocuments(ctx, ownerID, recordID, list); err != nil {
		// The objects are stored but never made it into the ledger. Clean
		// them up best-effort; an orphan is acceptable, a dangling ledger
		// entry is not.
		for _, doc := range res.Attached {
			if delErr := s.store.Delete(ctx, doc.StorageKey); delErr != nil {
				s.log.Warnw("rollback delete failed",
					"storage_key", doc.StorageKey,
					"error", delErr,
				)
			}
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("persist documents: %w", err)
	}

	return res, nil
}

func (s *documentService) Detach(ctx context.Context, ownerID, recordID, candidateID string) error {
	rec, err := s.records.FindByOwner(ctx, ownerID, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	idx, ok := resolveDocument(rec, candidateID)
	if !ok {
		return ErrNotFound
	}
	doc := rec.Documents[idx]

	// Physical delete is best-effort: the ledger is the source of truth for
	// what the user sees, so a failed unlink must never block removal.
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil {
		s.log.Warnw("document delete failed, leaving orphan",
			"owner_id", ownerID,
			"record_id", recordID,
			"storage_key", doc.StorageKey,
			"error", err,
		)
	}

	list := append(rec.Documents[:idx:idx], rec.Documents[idx+1:]...)
	if err := s.records.SetDocuments(ctx, ownerID, recordID, list); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("persist documents: %w", err)
	}
	return nil
}
