package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// localBackend stores documents on a local filesystem tree rooted at the
// configured directory. Physical layout mirrors the storage key:
// <root>/<ownerID>/<recordID>/<timestamp>__<sanitizedName>.
// The filesystem is abstracted behind billy so tests run on memfs.
type localBackend struct {
	fs      billy.Filesystem
	baseURL string
}

// NewLocal creates a local filesystem backend rooted at root. Stored files
// are addressed under <baseURL>/uploads/<key>.
func NewLocal(root, baseURL string) (Backend, error) {
	if root == "" {
		return nil, fmt.Errorf("local storage root is required")
	}
	return newLocalFS(osfs.New(root), baseURL), nil
}

func newLocalFS(fs billy.Filesystem, baseURL string) *localBackend {
	return &localBackend{fs: fs, baseURL: strings.TrimRight(baseURL, "/")}
}

var _ Backend = (*localBackend)(nil)

// Put writes the content under the derived key, creating directories on
// demand. The write is not visible to the ledger until it has fully
// completed, so a failed write never leaves a referenced half-object.
func (l *localBackend) Put(ctx context.Context, ownerID, recordID, originalName string, r io.Reader, opt PutOptions) (Object, error) {
	if r == nil {
		return Object{}, fmt.Errorf("reader is nil")
	}
	key := objectKey(ownerID, recordID, originalName)

	if err := l.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return Object{}, fmt.Errorf("create storage dir: %w", err)
	}

	f, err := l.fs.Create(key)
	if err != nil {
		return Object{}, fmt.Errorf("create file: %w", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Remove the partial file so the tree holds complete objects only.
		_ = l.fs.Remove(key)
		return Object{}, fmt.Errorf("write file: %w", err)
	}

	return Object{
		Key:      key,
		Filename: path.Base(key),
		Size:     n,
		URL:      l.URL(key),
	}, nil
}

// Delete removes the file for the key. Missing files are reported as errors
// and left to the caller's best-effort policy.
func (l *localBackend) Delete(ctx context.Context, key string) error {
	return l.fs.Remove(key)
}

// URL returns the address the HTTP layer serves the file under.
func (l *localBackend) URL(key string) string {
	return l.baseURL + "/uploads/" + key
}
