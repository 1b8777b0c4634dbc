// Package imagemeta derives image metadata from raw payload bytes.
package imagemeta

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"
)

// DetectFormat returns the normalized format name ("jpeg", "png", "gif",
// "webp") for payload. When the bytes do not decode as a registered image
// format it falls back to the filename extension; unknown inputs yield "".
func DetectFormat(payload []byte, filename string) string {
	if _, format, err := image.DecodeConfig(bytes.NewReader(payload)); err == nil {
		return normalize(format)
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	switch ext {
	case "jpg", "jpeg", "png", "gif", "webp":
		return normalize(ext)
	}
	return ""
}

func normalize(format string) string {
	if format == "jpg" {
		return "jpeg"
	}
	return format
}
