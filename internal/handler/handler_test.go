package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"imagegate/internal/catalog"
	"imagegate/internal/config"
	"imagegate/internal/repository"
	"imagegate/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeStore lets tests inject remote-store failures behind the HTTP surface.
type fakeStore struct {
	mu          sync.Mutex
	putErr      error
	deleteErr   error
	deletedKeys []string
	nextID      int
}

func (f *fakeStore) Put(ctx context.Context, folder, filename, contentType string, payload []byte) (*repository.StoredObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.nextID++
	id := fmt.Sprintf("object-%d", f.nextID)
	key := folder + "/" + id
	return &repository.StoredObject{
		ID:     id,
		Key:    key,
		URL:    "http://store.local/" + key,
		Format: "jpeg",
	}, nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedKeys = append(f.deletedKeys, key)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		S3: config.S3Config{
			BucketName: "images",
		},
		App: config.AppConfig{
			Env:             "test",
			MaxUploadSize:   1024,
			RequireCategory: true,
			StorageFolder:   "my_images",
		},
	}
}

func setupRouter(store *fakeStore, cfg *config.Config) *gin.Engine {
	log := zap.NewNop()
	svc := service.NewImageService(store, catalog.New(), cfg, log)
	h := NewHandler(svc, cfg, log)

	router := gin.New()
	router.POST("/upload", h.UploadImage)
	router.GET("/images", h.ListImages)
	router.DELETE("/images/:id", h.DeleteImage)
	router.GET("/test", h.Test)
	router.GET("/health", h.HealthCheck)
	return router
}

// uploadBody builds a multipart body with an optional "image" file part and
// an optional "category" field.
func uploadBody(t *testing.T, filename, contentType string, payload []byte, category string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if filename != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, filename))
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(payload)
		require.NoError(t, err)
	}
	if category != "" {
		require.NoError(t, w.WriteField("category", category))
	}
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func doUpload(t *testing.T, router *gin.Engine, filename, contentType string, payload []byte, category string) *httptest.ResponseRecorder {
	t.Helper()

	body, bodyType := uploadBody(t, filename, contentType, payload, category)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", bodyType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func listImages(t *testing.T, router *gin.Engine) []map[string]any {
	t.Helper()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestUploadRoundTrip(t *testing.T) {
	store := &fakeStore{}
	router := setupRouter(store, testConfig())

	rec := doUpload(t, router, "cat.jpg", "image/jpeg", []byte("fake jpeg bytes"), "pets")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])

	image, ok := body["image"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "cat.jpg", image["filename"])
	assert.Equal(t, "pets", image["category"])
	assert.Equal(t, float64(15), image["size"])
	assert.Equal(t, "jpeg", image["format"])
	assert.NotEmpty(t, image["id"])
	assert.NotEmpty(t, image["url"])

	// The id travels in a route segment, so it must not contain a slash;
	// the store key carries the folder.
	assert.NotContains(t, image["id"], "/")
	assert.Equal(t, "my_images/"+image["id"].(string), image["storeKey"])

	list := listImages(t, router)
	require.Len(t, list, 1)
	assert.Equal(t, image["id"], list[0]["id"])

	// Delete it and verify the catalog no longer lists it.
	del := httptest.NewRecorder()
	router.ServeHTTP(del, httptest.NewRequest(http.MethodDelete, "/images/"+image["id"].(string), nil))
	require.Equal(t, http.StatusOK, del.Code)
	assert.Equal(t, true, decode(t, del)["success"])

	assert.Empty(t, listImages(t, router))

	// The remote store was asked to delete the full key.
	store.mu.Lock()
	deleted := store.deletedKeys
	store.mu.Unlock()
	assert.Equal(t, []string{"my_images/" + image["id"].(string)}, deleted)
}

func TestUploadValidationResponses(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		payload     []byte
		category    string
		wantKind    string
	}{
		{
			name:     "no file part",
			category: "pets",
			wantKind: "missing_file",
		},
		{
			name:        "empty file",
			filename:    "empty.jpg",
			contentType: "image/jpeg",
			payload:     []byte{},
			category:    "pets",
			wantKind:    "empty_file",
		},
		{
			name:        "file too large",
			filename:    "big.jpg",
			contentType: "image/jpeg",
			payload:     bytes.Repeat([]byte("x"), 2048),
			category:    "pets",
			wantKind:    "file_too_large",
		},
		{
			name:        "missing category",
			filename:    "cat.jpg",
			contentType: "image/jpeg",
			payload:     []byte("fake jpeg bytes"),
			wantKind:    "missing_category",
		},
		{
			name:        "unsupported type",
			filename:    "doc.pdf",
			contentType: "application/pdf",
			payload:     []byte("%PDF-1.4"),
			category:    "pets",
			wantKind:    "unsupported_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupRouter(&fakeStore{}, testConfig())

			rec := doUpload(t, router, tt.filename, tt.contentType, tt.payload, tt.category)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			body := decode(t, rec)
			assert.Equal(t, tt.wantKind, body["error"])
			assert.NotEmpty(t, body["message"])

			assert.Empty(t, listImages(t, router))
		})
	}
}

func TestUploadBodyBeyondCapIsTooLarge(t *testing.T) {
	router := setupRouter(&fakeStore{}, testConfig())

	// Far beyond limit + headroom: the body is cut off at the wire and the
	// upload still reports file_too_large rather than a parse error.
	payload := bytes.Repeat([]byte("x"), 2<<20)
	rec := doUpload(t, router, "huge.jpg", "image/jpeg", payload, "pets")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "file_too_large", body["error"])
	assert.Empty(t, listImages(t, router))
}

func TestUploadStoreFailure(t *testing.T) {
	store := &fakeStore{putErr: errors.New("connection refused")}
	router := setupRouter(store, testConfig())

	rec := doUpload(t, router, "cat.jpg", "image/jpeg", []byte("fake jpeg bytes"), "pets")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "store_upload_failed", body["error"])

	// Failed upload leaves the catalog untouched.
	assert.Empty(t, listImages(t, router))
}

func TestUploadStoreFailureRedactedInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.App.Env = "production"
	store := &fakeStore{putErr: errors.New("secret endpoint detail")}
	router := setupRouter(store, cfg)

	rec := doUpload(t, router, "cat.jpg", "image/jpeg", []byte("fake jpeg bytes"), "pets")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "store_upload_failed", body["error"])
	assert.Equal(t, "failed to upload image to remote store", body["message"])
	assert.NotContains(t, body["message"], "secret")
}

func TestDeleteUnknownID(t *testing.T) {
	router := setupRouter(&fakeStore{}, testConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/images/does-not-exist", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "not_found", body["error"])
}

func TestDeleteStoreFailureRetainsRecord(t *testing.T) {
	store := &fakeStore{}
	router := setupRouter(store, testConfig())

	up := doUpload(t, router, "cat.jpg", "image/jpeg", []byte("fake jpeg bytes"), "pets")
	require.Equal(t, http.StatusOK, up.Code)
	id := decode(t, up)["image"].(map[string]any)["id"].(string)

	store.mu.Lock()
	store.deleteErr = errors.New("remote store unavailable")
	store.mu.Unlock()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/images/"+id, nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "store_delete_failed", body["error"])

	list := listImages(t, router)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0]["id"])
}

func TestListOrderFollowsUploads(t *testing.T) {
	router := setupRouter(&fakeStore{}, testConfig())

	for i := 0; i < 3; i++ {
		rec := doUpload(t, router, fmt.Sprintf("cat-%d.jpg", i), "image/jpeg", []byte("fake jpeg bytes"), "pets")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	list := listImages(t, router)
	require.Len(t, list, 3)
	for i, rec := range list {
		assert.Equal(t, fmt.Sprintf("cat-%d.jpg", i), rec["filename"])
	}
}

func TestTestEndpoint(t *testing.T) {
	router := setupRouter(&fakeStore{}, testConfig())

	up := doUpload(t, router, "cat.jpg", "image/jpeg", []byte("fake jpeg bytes"), "pets")
	require.Equal(t, http.StatusOK, up.Code)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, float64(1), body["imagesCount"])
	assert.Equal(t, "images", body["bucket"])
	assert.Equal(t, "my_images", body["folder"])
}

func TestHealthCheck(t *testing.T) {
	router := setupRouter(&fakeStore{}, testConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", decode(t, rec)["status"])
}
