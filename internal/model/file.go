// Package model contains the domain models shared across layers.
// These are pure value structures with no persistence concerns: a
// stored file has no identity beyond its path under the upload root.
package model

import "time"

// FileInfo is a metadata snapshot of an upload before it is persisted.
// Size stays zero until the physical write completes.
type FileInfo struct {
	Filename    string `json:"filename"`
	Extension   string `json:"extension"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// FileStats mirrors filesystem metadata for a stored file. Values are
// re-read from the filesystem on every query, never cached.
type FileStats struct {
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	AccessedAt time.Time `json:"accessed_at"`
}

// StoredFile describes a file that was written under the upload root.
// Path is relative to the upload root and uses forward slashes.
type StoredFile struct {
	Filename    string    `json:"filename"`
	Group       string    `json:"group"`
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
