package domain

import (
	"time"
)

// ImageRecord describes one successfully ingested asset. Records are
// immutable once inserted into the catalog; there is no update operation.
type ImageRecord struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Filename   string    `json:"filename"`
	Category   string    `json:"category,omitempty"`
	Size       int64     `json:"size"`
	Format     string    `json:"format,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
	// StoreKey is the object's full key in the remote store; deletion goes
	// through it. ID stays slash-free so it can travel in a route segment.
	StoreKey string `json:"storeKey"`
}

// UploadRequest carries the client-supplied parts of a multipart upload.
// HasFile is false when the request contained no file part at all.
type UploadRequest struct {
	Filename    string
	ContentType string
	Size        int64
	Category    string
	Payload     []byte
	HasFile     bool
}
