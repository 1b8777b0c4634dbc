package service

import (
	"fmt"
	"strings"

	"imagegate/internal/domain"
)

// Limits are the configurable validation parameters.
type Limits struct {
	MaxUploadSize   int64
	RequireCategory bool
}

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// validateUpload is the validation gate: a pure predicate over the request,
// short-circuiting on the first failure. It runs before any remote I/O.
func validateUpload(req *domain.UploadRequest, limits Limits) error {
	if !req.HasFile {
		return domain.ErrMissingFile
	}
	if req.Size == 0 {
		return domain.ErrEmptyFile
	}
	if req.Size > limits.MaxUploadSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", domain.ErrFileTooLarge, req.Size, limits.MaxUploadSize)
	}
	if limits.RequireCategory && req.Category == "" {
		return domain.ErrMissingCategory
	}
	mime := strings.ToLower(strings.TrimSpace(req.ContentType))
	if _, ok := allowedTypes[mime]; !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedType, req.ContentType)
	}
	return nil
}
