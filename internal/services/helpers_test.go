// internal/services/helpers_test.go
package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/javajoker/party-props-backend/internal/config"
	"github.com/javajoker/party-props-backend/internal/database"
	"github.com/javajoker/party-props-backend/internal/models"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\nfake image body")
	jpegBytes = []byte("\xff\xd8\xff\xe0fake jpeg body")
)

func testStorageConfig() config.StorageConfig {
	return config.StorageConfig{
		Driver:        "local",
		ImageFolder:   "product-images",
		MaxImageSize:  1024 * 1024,
		MaxImages:     5,
		AllowedImages: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
	}
}

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{DefaultLimit: 50, MaxLimit: 100}
}

func testIdentity() *models.Identity {
	return &models.Identity{UserID: "user-1", DisplayName: "Casey Seller", PhotoURL: "https://example.com/casey.png"}
}

func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func pngImages(n int) []ImageUpload {
	images := make([]ImageUpload, n)
	for i := range images {
		images[i] = ImageUpload{Filename: "photo.png", ContentType: "image/png", Data: pngBytes}
	}
	return images
}

// fakeBlobStore records puts and can be told to fail on the nth one.
type fakeBlobStore struct {
	mu      sync.Mutex
	puts    []string
	deletes []string
	failAt  int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{failAt: -1}
}

func (f *fakeBlobStore) Put(ctx context.Context, path string, body io.ReadSeeker, size int64, contentType string, progress ProgressFunc) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAt == len(f.puts) {
		f.puts = append(f.puts, path)
		return "", errors.New("connection reset")
	}
	f.puts = append(f.puts, path)

	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if progress != nil {
		progress(int64(len(data))/2, size)
		progress(int64(len(data)), size)
	}
	return "https://blobs.test/" + path, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, path)
	return nil
}

func (f *fakeBlobStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.puts)
}

// faultyStore fails selected operations of an otherwise working memory store.
type faultyStore struct {
	*database.MemoryStore
	createErr error
	queryErr  error
}

func (s *faultyStore) Create(ctx context.Context, collection string, doc database.Document) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	return s.MemoryStore.Create(ctx, collection, doc)
}

func (s *faultyStore) Query(ctx context.Context, q database.Query, dst interface{}) error {
	if s.queryErr != nil {
		return s.queryErr
	}
	return s.MemoryStore.Query(ctx, q, dst)
}

type countingCache struct {
	NoopSearchCache
	invalidations int
}

func (c *countingCache) Invalidate(context.Context) error {
	c.invalidations++
	return nil
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*ChargeResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) Refund(ctx context.Context, reference string, reason string) error {
	args := m.Called(ctx, reference, reason)
	return args.Error(0)
}
