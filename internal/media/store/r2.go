package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"
)

// R2Store is the primary tier. Uploads and listings go through the edge
// functions deployment, which holds the actual R2 credentials; this
// service never talks to R2 directly.
type R2Store struct {
	edgeURL    string
	serviceKey string
	accountID  string
	bucket     string
	httpClient *http.Client
}

// R2Config configures the edge-function backed R2 store.
type R2Config struct {
	EdgeFunctionsURL string
	ServiceKey       string
	AccountID        string
	Bucket           string
	Timeout          time.Duration
}

// NewR2Store creates the primary R2 store tier.
func NewR2Store(cfg R2Config) *R2Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &R2Store{
		edgeURL:    strings.TrimRight(cfg.EdgeFunctionsURL, "/"),
		serviceKey: cfg.ServiceKey,
		accountID:  cfg.AccountID,
		bucket:     cfg.Bucket,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name identifies the tier.
func (s *R2Store) Name() string { return "r2" }

type r2UploadRequest struct {
	Path        string `json:"path"`
	FileURL     string `json:"fileUrl"`
	ContentType string `json:"contentType,omitempty"`
}

type r2UploadResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// Upload asks the edge function to fetch the source asset and store it
// under the canonical path.
func (s *R2Store) Upload(ctx context.Context, task UploadTask) (AssetRef, error) {
	key := task.ObjectPath()
	body := r2UploadRequest{Path: key, FileURL: task.SourceURL, ContentType: task.ContentType}

	var decoded r2UploadResponse
	if err := s.call(ctx, "r2-upload", body, &decoded); err != nil {
		return AssetRef{}, err
	}

	url := decoded.URL
	if url == "" {
		url = s.publicURL(key)
	}
	return AssetRef{Key: key, URL: url, Filename: task.Filename}, nil
}

type r2ListRequest struct {
	Prefix string `json:"prefix"`
}

type r2ListResponse struct {
	Objects []struct {
		Key string `json:"key"`
		URL string `json:"url"`
	} `json:"objects"`
}

// List returns the objects stored under the record/category prefix.
func (s *R2Store) List(ctx context.Context, recordID, category string) ([]AssetRef, error) {
	prefix := fmt.Sprintf("airtable/%s/%s/", recordID, category)

	var decoded r2ListResponse
	if err := s.call(ctx, "r2-list", r2ListRequest{Prefix: prefix}, &decoded); err != nil {
		return nil, err
	}

	refs := make([]AssetRef, 0, len(decoded.Objects))
	for _, obj := range decoded.Objects {
		url := obj.URL
		if url == "" {
			url = s.publicURL(obj.Key)
		}
		refs = append(refs, AssetRef{Key: obj.Key, URL: url, Filename: path.Base(obj.Key)})
	}
	return refs, nil
}

func (s *R2Store) call(ctx context.Context, fn string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", fn, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.edgeURL+"/"+fn, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create %s request: %w", fn, err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+s.serviceKey)
	request.Header.Set("apikey", s.serviceKey)

	resp, err := s.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", fn, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s returned %d: %s", fn, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", fn, err)
		}
	}
	return nil
}

func (s *R2Store) publicURL(key string) string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com/%s/%s", s.accountID, s.bucket, key)
}
