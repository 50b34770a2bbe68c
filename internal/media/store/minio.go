package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Store is an optional direct S3-compatible tier for deployments that
// expose R2 (or any S3 endpoint) credentials to this service, bypassing
// the edge functions.
type S3Store struct {
	client     *minio.Client
	endpoint   string
	bucket     string
	useSSL     bool
	httpClient *http.Client
}

// S3Config configures the direct S3-compatible store.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewS3Store creates a direct S3-compatible store tier.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &S3Store{
		client:     client,
		endpoint:   cfg.Endpoint,
		bucket:     cfg.Bucket,
		useSSL:     cfg.UseSSL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Name identifies the tier.
func (s *S3Store) Name() string { return "s3" }

// Upload streams the source asset into the bucket.
func (s *S3Store) Upload(ctx context.Context, task UploadTask) (AssetRef, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, task.SourceURL, nil)
	if err != nil {
		return AssetRef{}, fmt.Errorf("create source request: %w", err)
	}

	resp, err := s.httpClient.Do(request)
	if err != nil {
		return AssetRef{}, fmt.Errorf("fetch source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return AssetRef{}, fmt.Errorf("source returned %d", resp.StatusCode)
	}

	contentType := task.ContentType
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		contentType = ct
	}

	size := task.Size
	if resp.ContentLength > 0 {
		size = resp.ContentLength
	}

	key := task.ObjectPath()
	var reader io.Reader = resp.Body
	if _, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return AssetRef{}, fmt.Errorf("put object: %w", err)
	}

	return AssetRef{Key: key, URL: s.publicURL(key), Filename: task.Filename}, nil
}

// List returns the objects stored under the record/category prefix.
func (s *S3Store) List(ctx context.Context, recordID, category string) ([]AssetRef, error) {
	prefix := fmt.Sprintf("airtable/%s/%s/", recordID, category)

	var refs []AssetRef
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		refs = append(refs, AssetRef{Key: obj.Key, URL: s.publicURL(obj.Key), Filename: path.Base(obj.Key)})
	}
	return refs, nil
}

func (s *S3Store) publicURL(key string) string {
	scheme := "https"
	if !s.useSSL {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, strings.TrimRight(s.endpoint, "/"), s.bucket, key)
}
