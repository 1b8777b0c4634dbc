package domain

import "errors"

// Validation failures. Expected, client-caused; mapped to 400 by the HTTP layer.
var (
	ErrMissingFile     = errors.New("no image file provided")
	ErrEmptyFile       = errors.New("image file is empty")
	ErrFileTooLarge    = errors.New("image file exceeds the size limit")
	ErrMissingCategory = errors.New("category is required")
	ErrUnsupportedType = errors.New("unsupported image type")
)

// ErrNotFound means the id is not in the catalog. Mapped to 404.
var ErrNotFound = errors.New("image not found")

// Infrastructure faults. Mapped to 500; the cause is logged server-side.
var (
	ErrStoreUpload = errors.New("remote store upload failed")
	ErrStoreDelete = errors.New("remote store delete failed")
)

// IsValidationError reports whether err is one of the upload validation failures.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingFile) ||
		errors.Is(err, ErrEmptyFile) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrMissingCategory) ||
		errors.Is(err, ErrUnsupportedType)
}
