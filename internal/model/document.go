package model

import "time"

// Document is a file attached to a Record. It has no lifecycle of its own:
// it is created and destroyed only through ledger operations on its parent
// record, and lives embedded in the record's document list.
type Document struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	DisplayName  string    `json:"display_name"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	StorageKey   string    `json:"storage_key"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"created_at"`
}
