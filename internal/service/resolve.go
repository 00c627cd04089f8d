package service

import (
	"strings"

	"github.com/google/uuid"

	"lifevault/internal/model"
)

// resolveDocument finds the document a caller means by an identifier of
// unknown provenance. Clients reach documents through several handles (the
// document id from the upload response, the stored filename, the tail of
// the serving URL, the raw storage key) and deletion must work with
// whichever one the caller retained.
//
// Tiers are tried in order, first match wins; within a tier, list order
// decides, which keeps deletion deterministic even for duplicated
// original names. Returns the index into rec.Documents.
func resolveDocument(rec *model.Record, candidate string) (int, bool) {
	if candidate == "" {
		return 0, false
	}

	// Document id, only when the candidate is syntactically an id.
	if _, err := uuid.Parse(candidate); err == nil {
		for i := range rec.Documents {
			if rec.Documents[i].ID == candidate {
				return i, true
			}
		}
	}

	for i := range rec.Documents {
		if rec.Documents[i].Filename == candidate {
			return i, true
		}
	}

	for i := range rec.Documents {
		if rec.Documents[i].OriginalName == candidate {
			return i, true
		}
	}

	for i := range rec.Documents {
		if urlTail(rec.Documents[i].URL) == candidate {
			return i, true
		}
	}

	for i := range rec.Documents {
		key := rec.Documents[i].StorageKey
		if key == candidate || strings.HasSuffix(key, "/"+candidate) {
			return i, true
		}
	}

	return 0, false
}

func urlTail(u string) string {
	if u == "" {
		return ""
	}
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}
