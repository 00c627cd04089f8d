package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"
)

// Package storage contains the document storage backend abstraction.
// Two interchangeable implementations exist: a local filesystem tree and an
// S3-compatible object store. The backend is selected once at process start;
// business logic only ever sees the Backend interface.

// PutOptions define optional parameters for storing a document.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutOptions struct {
	Size        int64
	ContentType string
}

// Object describes a stored document. Key alone is sufficient to delete the
// object later without consulting anything else; URL is the resolvable
// address derived from it.
type Object struct {
	Key      string
	Filename string
	Size     int64
	URL      string
}

// Backend is the uniform put/delete/address contract over a physical medium.
// Put failures are surfaced to callers; Delete is treated as best-effort by
// the ledger (an orphaned physical object is acceptable, a ledger entry
// pointing at a missing object is not).
type Backend interface {
	// Put stores the content under a key derived from the owner, record and
	// original filename, and returns the stored object's metadata.
	Put(ctx context.Context, ownerID, recordID, originalName string, r io.Reader, opt PutOptions) (Object, error)
	// Delete removes an object by its storage key.
	Delete(ctx context.Context, key string) error
	// URL returns the resolvable address for a storage key.
	URL(key string) string
}

// timeNow is stubbed in tests to make object keys deterministic.
var timeNow = time.Now

// unsafeChars matches everything outside the filename allow-set; runs are
// collapsed to a single underscore to prevent path traversal and shell
// surprises in stored names.
var unsafeChars = regexp.MustCompile(`[^\w.\-()+@ ]+`)

// sanitizeName strips directory components supplied by the client and
// rewrites unsafe characters. A name that sanitizes to nothing usable
// becomes "file".
func sanitizeName(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	safe := unsafeChars.ReplaceAllString(base, "_")
	if strings.Trim(safe, "._ ") == "" {
		return "file"
	}
	return safe
}

// objectKey builds the backend-independent storage key. The millisecond
// timestamp prefix keeps repeated uploads of the same filename distinct
// within a record.
func objectKey(ownerID, recordID, originalName string) string {
	return fmt.Sprintf("%s/%s/%d__%s", ownerID, recordID, timeNow().UnixMilli(), sanitizeName(originalName))
}
