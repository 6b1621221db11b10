package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"artesanos/internal/models"
)

const cacheControl = "max-age=3600"

var ErrExists = errors.New("object already exists")

// objectAPI is the part of *minio.Client the store needs.
type objectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucket, object string, opts minio.GetObjectOptions) (*minio.Object, error)
	RemoveObject(ctx context.Context, bucket, object string, opts minio.RemoveObjectOptions) error
}

// Store keeps product images in a MinIO or S3 compatible bucket.
type Store struct {
	client     objectAPI
	bucket     string
	publicBase string
}

func New(cfg models.MinioConfig) (*Store, error) {
	const op = "blob.New"

	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	if i := strings.Index(endpoint, "/"); i != -1 {
		endpoint = endpoint[:i]
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	base := cfg.PublicBaseURL
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + endpoint
	}
	return newStore(client, cfg.Bucket, base), nil
}

func newStore(client objectAPI, bucket, publicBase string) *Store {
	return &Store{client: client, bucket: bucket, publicBase: strings.TrimSuffix(publicBase, "/")}
}

// EnsureBucket creates the bucket on first start.
func (s *Store) EnsureBucket(ctx context.Context) error {
	const op = "blob.EnsureBucket"

	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ok {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Upload stores data under path. Existing objects are never overwritten.
func (s *Store) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	const op = "blob.Upload"

	if _, err := s.client.StatObject(ctx, s.bucket, path, minio.StatObjectOptions{}); err == nil {
		return "", fmt.Errorf("%s: %w: %s", op, ErrExists, path)
	} else if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	info, err := s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: cacheControl,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return info.Key, nil
}

// Put writes data under path, replacing whatever was there.
func (s *Store) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	const op = "blob.Put"

	info, err := s.client.PutObject(ctx, s.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: cacheControl,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return info.Key, nil
}

func (s *Store) Download(ctx context.Context, key string) ([]byte, error) {
	const op = "blob.Download"

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "blob.Delete"

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PublicURL is where browsers fetch the object from.
func (s *Store) PublicURL(key string) string {
	return s.publicBase + "/" + s.bucket + "/" + strings.TrimPrefix(key, "/")
}

// KeyFromURL reverses PublicURL. ok is false for URLs outside this bucket.
func (s *Store) KeyFromURL(url string) (string, bool) {
	return strings.CutPrefix(url, s.publicBase+"/"+s.bucket+"/")
}
