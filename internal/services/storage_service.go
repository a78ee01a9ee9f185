// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	firebase "firebase.google.com/go"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/javajoker/party-props-backend/internal/config"
)

// ProgressFunc receives the bytes transferred so far for one blob.
type ProgressFunc func(transferred, total int64)

// BlobStore puts and removes objects by path. Put either stores the whole object and returns a
// retrievable URL or fails; there is no partial object.
type BlobStore interface {
	Put(ctx context.Context, path string, body io.ReadSeeker, size int64, contentType string, progress ProgressFunc) (string, error)
	Delete(ctx context.Context, path string) error
}

// ImageUpload is one selected image file.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (u ImageUpload) Size() int64 {
	return int64(len(u.Data))
}

// Extension is the lowercased extension without the dot.
func (u ImageUpload) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(u.Filename)), ".")
}

// NewBlobStore builds the blob store selected by STORAGE_DRIVER.
func NewBlobStore(ctx context.Context, cfg *config.Config, app *firebase.App) (BlobStore, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return NewS3BlobStore(cfg.AWS)
	case "firebase":
		if app == nil {
			return nil, fmt.Errorf("firebase storage requires a firebase app")
		}
		return NewFirebaseBlobStore(ctx, app, cfg.Firebase.StorageBucket)
	case "local":
		return NewLocalBlobStore(cfg.Storage.LocalPath, strings.TrimSuffix(cfg.Server.PublicURL, "/")+"/uploads")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// ValidateImage checks the extension, size and file signature of one image.
func ValidateImage(img ImageUpload, opts config.StorageConfig) error {
	ext := "." + img.Extension()
	if len(opts.AllowedImages) > 0 {
		allowed := false
		for _, allowedType := range opts.AllowedImages {
			if ext == strings.ToLower(allowedType) {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("file type %s is not allowed", ext)
		}
	}

	if img.Size() == 0 {
		return fmt.Errorf("file %s is empty", img.Filename)
	}
	if opts.MaxImageSize > 0 && img.Size() > opts.MaxImageSize {
		return fmt.Errorf("file size %d bytes exceeds maximum allowed size %d bytes", img.Size(), opts.MaxImageSize)
	}

	if !isValidImageType(img.Data) {
		return fmt.Errorf("%s is not a valid image file", img.Filename)
	}

	return nil
}

func isValidImageType(buffer []byte) bool {
	// JPEG
	if len(buffer) >= 3 && buffer[0] == 0xFF && buffer[1] == 0xD8 && buffer[2] == 0xFF {
		return true
	}

	// PNG
	if len(buffer) >= 8 && bytes.Equal(buffer[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}) {
		return true
	}

	// GIF
	if len(buffer) >= 6 && (string(buffer[0:6]) == "GIF87a" || string(buffer[0:6]) == "GIF89a") {
		return true
	}

	// WEBP
	if len(buffer) >= 12 && string(buffer[0:4]) == "RIFF" && string(buffer[8:12]) == "WEBP" {
		return true
	}

	return false
}

// progressReader reports monotonically increasing progress even when the body is rewound,
// which the S3 client does after signing.
type progressReader struct {
	r        io.ReadSeeker
	total    int64
	pos      int64
	reported int64
	fn       ProgressFunc
}

func newProgressReader(r io.ReadSeeker, total int64, fn ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.pos += int64(n)
		if p.fn != nil && p.pos > p.reported {
			p.reported = p.pos
			p.fn(p.pos, p.total)
		}
	}
	return n, err
}

func (p *progressReader) Seek(offset int64, whence int) (int64, error) {
	pos, err := p.r.Seek(offset, whence)
	if err == nil {
		p.pos = pos
	}
	return pos, err
}

type S3BlobStore struct {
	client s3iface.S3API
	bucket string
	urlFor func(key string) string
}

func NewS3BlobStore(cfg config.AWSConfig) (*S3BlobStore, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.S3Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.S3Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return newS3BlobStore(s3.New(sess), cfg), nil
}

func newS3BlobStore(client s3iface.S3API, cfg config.AWSConfig) *S3BlobStore {
	return &S3BlobStore{
		client: client,
		bucket: cfg.S3Bucket,
		urlFor: func(key string) string { return s3URL(cfg, key) },
	}
}

func (s *S3BlobStore) Put(ctx context.Context, path string, body io.ReadSeeker, size int64, contentType string, progress ProgressFunc) (string, error) {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(path),
		Body:          newProgressReader(body, size, progress),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.urlFor(path), nil
}

func (s *S3BlobStore) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

func s3URL(cfg config.AWSConfig, key string) string {
	if cfg.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(cfg.CloudFrontURL, "/"), key)
	}
	if cfg.S3Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(cfg.S3Endpoint, "/"), cfg.S3Bucket, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.S3Bucket, cfg.Region, key)
}
