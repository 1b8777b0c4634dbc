package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"imagegate/internal/config"
	"imagegate/internal/domain"
	"imagegate/internal/service"
)

type Handler struct {
	service service.ImageService
	cfg     *config.Config
	log     *zap.Logger
}

func NewHandler(service service.ImageService, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		cfg:     cfg,
		log:     log,
	}
}

// maxMultipartOverhead is the body-cap headroom over the configured upload
// limit: multipart framing plus the category field.
const maxMultipartOverhead = 1 << 20 // 1 MB

// UploadImage handles POST /upload: multipart body with file field "image"
// and form field "category".
func (h *Handler) UploadImage(c *gin.Context) {
	// Oversize bodies are cut off at the wire instead of being received in
	// full; anything between the limit and the cap is caught by the
	// validation gate on the declared size.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.App.MaxUploadSize+maxMultipartOverhead)

	req := &domain.UploadRequest{}

	file, err := c.FormFile("image")
	if err != nil && bodyTooLarge(err) {
		h.renderError(c, fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrFileTooLarge, h.cfg.App.MaxUploadSize))
		return
	}
	if err == nil {
		req.HasFile = true
		req.Filename = file.Filename
		req.Size = file.Size
		req.ContentType = file.Header.Get("Content-Type")

		// Buffer the payload only when it can possibly pass the size check;
		// the validation gate rejects oversize uploads on the declared size.
		if file.Size > 0 && file.Size <= h.cfg.App.MaxUploadSize {
			f, err := file.Open()
			if err != nil {
				h.log.Error("Failed to open uploaded file", zap.Error(err))
				h.renderError(c, err)
				return
			}
			defer f.Close()

			req.Payload, err = io.ReadAll(f)
			if err != nil {
				h.log.Error("Failed to read uploaded file", zap.Error(err))
				h.renderError(c, err)
				return
			}
		}
	}

	req.Category = c.PostForm("category")

	rec, err := h.service.UploadImage(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Image uploaded successfully",
		"image":   rec,
	})
}

// ListImages handles GET /images: the full catalog as a bare JSON array in
// upload order.
func (h *Handler) ListImages(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ListImages())
}

// DeleteImage handles DELETE /images/:id.
func (h *Handler) DeleteImage(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.DeleteImage(c.Request.Context(), id); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Image deleted successfully",
	})
}

// Test handles GET /test, a diagnostic endpoint reporting catalog and store
// configuration.
func (h *Handler) Test(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"message":     "Server is running",
		"imagesCount": h.service.Count(),
		"bucket":      h.cfg.S3.BucketName,
		"folder":      h.cfg.App.StorageFolder,
	})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

// renderError maps service errors onto HTTP responses: a machine-readable
// kind plus a human-readable message. Infrastructure fault details are
// redacted in production.
func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingFile):
		h.respondError(c, http.StatusBadRequest, "missing_file", err.Error())
	case errors.Is(err, domain.ErrEmptyFile):
		h.respondError(c, http.StatusBadRequest, "empty_file", err.Error())
	case errors.Is(err, domain.ErrFileTooLarge):
		h.respondError(c, http.StatusBadRequest, "file_too_large", err.Error())
	case errors.Is(err, domain.ErrMissingCategory):
		h.respondError(c, http.StatusBadRequest, "missing_category", err.Error())
	case errors.Is(err, domain.ErrUnsupportedType):
		h.respondError(c, http.StatusBadRequest, "unsupported_type", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.respondError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrStoreUpload):
		h.respondError(c, http.StatusInternalServerError, "store_upload_failed", h.redact(err, "failed to upload image to remote store"))
	case errors.Is(err, domain.ErrStoreDelete):
		h.respondError(c, http.StatusInternalServerError, "store_delete_failed", h.redact(err, "failed to delete image from remote store"))
	default:
		h.log.Error("Unexpected error", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "internal_error", h.redact(err, "internal server error"))
	}
}

func (h *Handler) respondError(c *gin.Context, status int, kind, message string) {
	c.JSON(status, gin.H{
		"error":   kind,
		"message": message,
	})
}

func (h *Handler) redact(err error, generic string) string {
	if h.cfg.IsProduction() {
		return generic
	}
	return err.Error()
}

// bodyTooLarge reports whether the multipart parse failed because the
// request body hit the MaxBytesReader cap. The string check covers Go
// versions where the multipart reader does not wrap *http.MaxBytesError.
func bodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr) ||
		strings.Contains(err.Error(), "request body too large")
}
