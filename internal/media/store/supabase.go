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

// SupabaseStore is the secondary tier: the Supabase storage REST API.
// Unlike the R2 edge function, Supabase cannot fetch the source itself,
// so this store downloads the asset and re-uploads the raw bytes.
type SupabaseStore struct {
	baseURL    string
	serviceKey string
	bucket     string
	httpClient *http.Client
}

// SupabaseConfig configures the secondary Supabase store.
type SupabaseConfig struct {
	URL        string
	ServiceKey string
	Bucket     string
	Timeout    time.Duration
}

// NewSupabaseStore creates the secondary store tier.
func NewSupabaseStore(cfg SupabaseConfig) *SupabaseStore {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &SupabaseStore{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		serviceKey: cfg.ServiceKey,
		bucket:     cfg.Bucket,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name identifies the tier.
func (s *SupabaseStore) Name() string { return "supabase" }

// Upload downloads the source asset and writes the bytes to the bucket.
func (s *SupabaseStore) Upload(ctx context.Context, task UploadTask) (AssetRef, error) {
	data, contentType, err := s.fetchSource(ctx, task)
	if err != nil {
		return AssetRef{}, err
	}

	key := task.ObjectPath()
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, key)

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return AssetRef{}, fmt.Errorf("create upload request: %w", err)
	}
	request.Header.Set("Content-Type", contentType)
	request.Header.Set("Authorization", "Bearer "+s.serviceKey)
	request.Header.Set("apikey", s.serviceKey)
	// Re-running a sync must not fail on objects that already exist.
	request.Header.Set("x-upsert", "true")

	resp, err := s.httpClient.Do(request)
	if err != nil {
		return AssetRef{}, fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return AssetRef{}, fmt.Errorf("upload returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return AssetRef{Key: key, URL: s.publicURL(key), Filename: task.Filename}, nil
}

type supabaseListRequest struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type supabaseObject struct {
	Name string `json:"name"`
}

// List returns the objects stored under the record/category prefix.
func (s *SupabaseStore) List(ctx context.Context, recordID, category string) ([]AssetRef, error) {
	prefix := fmt.Sprintf("airtable/%s/%s", recordID, category)

	payload, err := json.Marshal(supabaseListRequest{Prefix: prefix, Limit: 100, Offset: 0})
	if err != nil {
		return nil, fmt.Errorf("encode list request: %w", err)
	}

	listURL := fmt.Sprintf("%s/storage/v1/object/list/%s", s.baseURL, s.bucket)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, listURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create list request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+s.serviceKey)
	request.Header.Set("apikey", s.serviceKey)

	resp, err := s.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("list failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("list returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var objects []supabaseObject
	if err := json.NewDecoder(resp.Body).Decode(&objects); err != nil {
		return nil, fmt.Errorf("decode list response: %w", err)
	}

	refs := make([]AssetRef, 0, len(objects))
	for _, obj := range objects {
		if obj.Name == "" || strings.HasPrefix(obj.Name, ".") {
			continue
		}
		key := prefix + "/" + obj.Name
		refs = append(refs, AssetRef{Key: key, URL: s.publicURL(key), Filename: path.Base(obj.Name)})
	}
	return refs, nil
}

func (s *SupabaseStore) fetchSource(ctx context.Context, task UploadTask) ([]byte, string, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, task.SourceURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create source request: %w", err)
	}

	resp, err := s.httpClient.Do(request)
	if err != nil {
		return nil, "", fmt.Errorf("fetch source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("source returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read source: %w", err)
	}

	contentType := task.ContentType
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		contentType = ct
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

func (s *SupabaseStore) publicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, key)
}
