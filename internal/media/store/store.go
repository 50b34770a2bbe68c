// Package store implements the blob store tiers the media pipeline
// uploads to: the primary R2 edge-function store, the secondary Supabase
// storage API, and an optional direct S3-compatible tier.
package store

import (
	"context"
	"fmt"
	"time"
)

// AssetRef identifies a stored object and its public URL.
type AssetRef struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// UploadTask describes one asset to mirror into a blob store.
type UploadTask struct {
	RecordID    string
	Category    string
	SourceURL   string
	Filename    string
	ContentType string
	Size        int64
}

// ObjectPath builds the canonical storage key for the task. Every tier
// uses the same layout so existence probes line up across stores.
func (t UploadTask) ObjectPath() string {
	return fmt.Sprintf("airtable/%s/%s/%s", t.RecordID, t.Category, t.Filename)
}

// BlobStore is one storage tier the pipeline can upload to and list from.
type BlobStore interface {
	// Name identifies the tier in logs and summaries.
	Name() string
	// Upload mirrors the task's source asset into the store and returns
	// the resulting public reference.
	Upload(ctx context.Context, task UploadTask) (AssetRef, error)
	// List returns the objects already stored under the record/category
	// prefix.
	List(ctx context.Context, recordID, category string) ([]AssetRef, error)
}

// RetryPolicy bounds upload retries within a tier.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DelayFor returns the backoff before the next attempt. The delay grows
// linearly with the attempt number.
func (p RetryPolicy) DelayFor(attempt int) time.Duration {
	return time.Duration(attempt) * p.BaseDelay
}

// Tier pairs a store with its retry policy. Tiers are tried in order;
// the first successful upload wins.
type Tier struct {
	Store BlobStore
	Retry RetryPolicy
}
