package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"imagegate/internal/catalog"
	"imagegate/internal/config"
	"imagegate/internal/domain"
	"imagegate/internal/repository"
)

// ImageService orchestrates uploads and deletions: validation, remote store
// I/O, and catalog reconciliation. Within one call the remote operation
// strictly precedes the catalog mutation.
type ImageService interface {
	UploadImage(ctx context.Context, req *domain.UploadRequest) (*domain.ImageRecord, error)
	ListImages() []domain.ImageRecord
	DeleteImage(ctx context.Context, id string) error
	Count() int
}

type imageService struct {
	store repository.StoreRepository
	cat   *catalog.Catalog
	cfg   *config.Config
	log   *zap.Logger

	mu       sync.Mutex
	deleting map[string]struct{}
}

func NewImageService(store repository.StoreRepository, cat *catalog.Catalog, cfg *config.Config, log *zap.Logger) ImageService {
	return &imageService{
		store:    store,
		cat:      cat,
		cfg:      cfg,
		log:      log,
		deleting: make(map[string]struct{}),
	}
}

// UploadImage validates the request, stores the payload remotely, and only
// then records the asset in the catalog. A failed upload leaves zero trace:
// no catalog entry, no local artifacts. Once UploadImage returns the record,
// it is already visible to ListImages.
func (s *imageService) UploadImage(ctx context.Context, req *domain.UploadRequest) (*domain.ImageRecord, error) {
	limits := Limits{
		MaxUploadSize:   s.cfg.App.MaxUploadSize,
		RequireCategory: s.cfg.App.RequireCategory,
	}
	if err := validateUpload(req, limits); err != nil {
		s.log.Warn("Upload rejected",
			zap.String("filename", req.Filename),
			zap.Error(err))
		return nil, err
	}

	obj, err := s.store.Put(ctx, s.cfg.App.StorageFolder, req.Filename, req.ContentType, req.Payload)
	if err != nil {
		s.log.Error("Remote store upload failed",
			zap.String("filename", req.Filename),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUpload, err)
	}

	rec := domain.ImageRecord{
		ID:         obj.ID,
		URL:        obj.URL,
		Filename:   req.Filename,
		Category:   req.Category,
		Size:       req.Size,
		Format:     obj.Format,
		UploadedAt: time.Now().UTC(),
		StoreKey:   obj.Key,
	}
	s.cat.Insert(rec)

	s.log.Info("Image uploaded successfully",
		zap.String("id", rec.ID),
		zap.String("filename", rec.Filename),
		zap.String("category", rec.Category),
		zap.Int64("size", rec.Size),
		zap.Int("imagesCount", s.cat.Len()))

	return &rec, nil
}

// ListImages returns the catalog snapshot in upload order.
func (s *imageService) ListImages() []domain.ImageRecord {
	return s.cat.List()
}

// Count returns the number of cataloged images.
func (s *imageService) Count() int {
	return s.cat.Len()
}

// DeleteImage removes an asset. The remote delete is attempted first; the
// catalog entry goes away only after the remote store confirms. On a remote
// failure the entry is retained so the object is never silently lost track
// of. Concurrent deletes of the same id issue a single remote call; the
// losers observe NotFound.
func (s *imageService) DeleteImage(ctx context.Context, id string) error {
	if !s.claimDelete(id) {
		return domain.ErrNotFound
	}
	defer s.releaseDelete(id)

	rec, ok := s.cat.Find(id)
	if !ok {
		return domain.ErrNotFound
	}

	if err := s.store.Delete(ctx, rec.StoreKey); err != nil {
		s.log.Error("Remote store delete failed, keeping catalog entry",
			zap.String("id", id),
			zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrStoreDelete, err)
	}

	s.cat.Remove(id)

	s.log.Info("Image deleted",
		zap.String("id", id),
		zap.String("filename", rec.Filename),
		zap.Int("imagesCount", s.cat.Len()))

	return nil
}

// claimDelete marks id as having an in-flight deletion. Only the claim
// holder may call the remote store, so a lost race can never turn into a
// double remote delete.
func (s *imageService) claimDelete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, inFlight := s.deleting[id]; inFlight {
		return false
	}
	s.deleting[id] = struct{}{}
	return true
}

func (s *imageService) releaseDelete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deleting, id)
}
