// internal/services/storage_firebase.go
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go"
	"github.com/google/uuid"
)

// FirebaseBlobStore writes objects to the project's Cloud Storage bucket and returns
// token-based download URLs, the same URLs the Firebase client SDKs hand out.
type FirebaseBlobStore struct {
	bucket     *gcs.BucketHandle
	bucketName string
}

func NewFirebaseBlobStore(ctx context.Context, app *firebase.App, bucketName string) (*FirebaseBlobStore, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase storage client: %w", err)
	}

	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", bucketName, err)
	}

	return &FirebaseBlobStore{bucket: bucket, bucketName: bucketName}, nil
}

func (s *FirebaseBlobStore) Put(ctx context.Context, path string, body io.ReadSeeker, size int64, contentType string, progress ProgressFunc) (string, error) {
	token := uuid.NewString()

	w := s.bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{"firebaseStorageDownloadTokens": token}
	if progress != nil {
		w.ProgressFunc = func(written int64) {
			progress(written, size)
		}
	}

	if _, err := io.Copy(w, body); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to upload to firebase storage: %w", err)
	}
	// The object only exists once Close succeeds.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload to firebase storage: %w", err)
	}
	if progress != nil {
		progress(size, size)
	}

	return firebaseDownloadURL(s.bucketName, path, token), nil
}

func (s *FirebaseBlobStore) Delete(ctx context.Context, path string) error {
	err := s.bucket.Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete file from firebase storage: %w", err)
	}
	return nil
}

func firebaseDownloadURL(bucket, path, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(path), token)
}
