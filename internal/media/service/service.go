// Package service implements the media sync pipeline: validate record
// attachments, mirror them into the blob store tiers and write the
// resulting public URLs back to the record.
package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"trefa_backend/internal/events"
	"trefa_backend/internal/media/store"
	"trefa_backend/platform/apperr"
	"trefa_backend/platform/logger"

	"golang.org/x/sync/errgroup"
)

// Attachment is one source asset attached to a record field.
type Attachment struct {
	URL         string
	Filename    string
	ContentType string
	Size        int64
}

// RecordSource reads attachments from and writes URLs back to the
// external record store.
type RecordSource interface {
	// FetchAttachments returns the attachments in each of the requested
	// record fields. Fields without attachments map to empty slices.
	FetchAttachments(ctx context.Context, recordID string, fields []string) (map[string][]Attachment, error)
	// WriteAssetURLs writes the uploaded asset URLs back to the record,
	// one comma-joined value per field.
	WriteAssetURLs(ctx context.Context, recordID string, urls map[string]string) error
}

// CategoryMapping ties a record attachment field to its storage category
// and the record field receiving the uploaded URLs.
type CategoryMapping struct {
	SourceField string
	Category    string
	URLField    string
}

// Categories lists the attachment fields the sync pipeline mirrors.
var Categories = []CategoryMapping{
	{SourceField: "Foto", Category: "feature_image", URLField: "feature_image"},
	{SourceField: "fotos_exterior_archivos", Category: "fotos_exterior", URLField: "fotos_exterior_url"},
	{SourceField: "fotos_interior_archivos", Category: "fotos_interior", URLField: "fotos_interior_url"},
}

// Upload outcome statuses.
const (
	StatusUploaded = "uploaded"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

// AssetResult is the outcome of one asset in a batch.
type AssetResult struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	URL      string `json:"url,omitempty"`
	Store    string `json:"store,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// BatchSummary aggregates a batch of asset outcomes.
type BatchSummary struct {
	Uploaded int           `json:"uploaded"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	URLs     []string      `json:"urls"`
	Assets   []AssetResult `json:"assets"`
}

// SyncResult is the outcome of a full record sync across all categories.
type SyncResult struct {
	RecordID   string                  `json:"recordId"`
	Uploaded   int                     `json:"uploaded"`
	Skipped    int                     `json:"skipped"`
	Failed     int                     `json:"failed"`
	Categories map[string]BatchSummary `json:"categories"`
}

var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/webp": {},
}

const uploadConcurrency = 4

// Service runs the media sync pipeline over the configured store tiers.
type Service struct {
	tiers       []store.Tier
	records     RecordSource
	bus         events.Bus
	log         *logger.Logger
	maxFileSize int64
}

// New creates the media service. Tiers are tried in order; the first must
// be the primary store. records and bus may be nil for batch-only use.
func New(tiers []store.Tier, records RecordSource, bus events.Bus, log *logger.Logger, maxFileSize int64) *Service {
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	return &Service{tiers: tiers, records: records, bus: bus, log: log, maxFileSize: maxFileSize}
}

// SyncRecord mirrors every mapped attachment category of the record into
// the blob stores and writes the resulting URLs back.
func (s *Service) SyncRecord(ctx context.Context, recordID string) (*SyncResult, error) {
	if s.records == nil {
		return nil, apperr.Unavailable("record store is not configured")
	}

	fields := make([]string, 0, len(Categories))
	for _, m := range Categories {
		fields = append(fields, m.SourceField)
	}

	attachments, err := s.records.FetchAttachments(ctx, recordID, fields)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to read record attachments", err)
	}

	result := &SyncResult{RecordID: recordID, Categories: make(map[string]BatchSummary, len(Categories))}
	urlUpdates := make(map[string]string)

	for _, mapping := range Categories {
		assets := attachments[mapping.SourceField]
		if len(assets) == 0 {
			continue
		}

		summary := s.syncCategory(ctx, recordID, mapping.Category, assets)
		result.Categories[mapping.Category] = summary
		result.Uploaded += summary.Uploaded
		result.Skipped += summary.Skipped
		result.Failed += summary.Failed

		if len(summary.URLs) > 0 {
			urlUpdates[mapping.URLField] = strings.Join(summary.URLs, ",")
		}
	}

	if len(urlUpdates) > 0 {
		if err := s.records.WriteAssetURLs(ctx, recordID, urlUpdates); err != nil {
			s.log.Error("failed to write asset urls back to record", "record_id", recordID, "error", err)
		}
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.MediaSynced{
			BaseEvent: events.NewBaseEvent(),
			RecordID:  recordID,
			Uploaded:  result.Uploaded,
			Skipped:   result.Skipped,
			Failed:    result.Failed,
		})
	}

	return result, nil
}

// syncCategory uploads one category's attachments. Any object already
// stored short-circuits the whole category: a partially synced record is
// treated as synced and its stored URLs are reused, never re-uploaded.
func (s *Service) syncCategory(ctx context.Context, recordID, category string, assets []Attachment) BatchSummary {
	existing := s.ProbeExisting(ctx, recordID, category)
	if len(existing) > 0 {
		urls := make([]string, 0, len(existing))
		results := make([]AssetResult, 0, len(existing))
		for _, ref := range existing {
			urls = append(urls, ref.URL)
			results = append(results, AssetResult{Filename: ref.Filename, Status: StatusSkipped, URL: ref.URL, Reason: "already stored"})
		}
		return BatchSummary{Skipped: len(existing), URLs: urls, Assets: results}
	}

	tasks := make([]store.UploadTask, 0, len(assets))
	for _, a := range assets {
		tasks = append(tasks, store.UploadTask{
			RecordID:    recordID,
			Category:    category,
			SourceURL:   a.URL,
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Size:        a.Size,
		})
	}
	return s.UploadBatch(ctx, tasks)
}

// UploadBatch uploads the tasks concurrently. One asset failing never
// aborts the rest of the batch.
func (s *Service) UploadBatch(ctx context.Context, tasks []store.UploadTask) BatchSummary {
	results := make([]AssetResult, len(tasks))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for i, task := range tasks {
		g.Go(func() error {
			res := s.uploadOne(gctx, task)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; failures land in their result slots.
	_ = g.Wait()

	summary := BatchSummary{Assets: results}
	for _, res := range results {
		switch res.Status {
		case StatusUploaded:
			summary.Uploaded++
			summary.URLs = append(summary.URLs, res.URL)
		case StatusSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}
	return summary
}

// uploadOne validates the task and walks the store tiers until one
// accepts the asset.
func (s *Service) uploadOne(ctx context.Context, task store.UploadTask) AssetResult {
	if reason, ok := s.validate(task); !ok {
		s.log.UploadOutcome(task.RecordID, task.Category, task.Filename, StatusSkipped, nil)
		return AssetResult{Filename: task.Filename, Status: StatusSkipped, Reason: reason}
	}

	var lastErr error
	for _, tier := range s.tiers {
		attempts := tier.Retry.MaxAttempts
		if attempts < 1 {
			attempts = 1
		}
		for attempt := 1; attempt <= attempts; attempt++ {
			ref, err := tier.Store.Upload(ctx, task)
			if err == nil {
				s.log.UploadOutcome(task.RecordID, task.Category, task.Filename, StatusUploaded, nil)
				return AssetResult{Filename: task.Filename, Status: StatusUploaded, URL: ref.URL, Store: tier.Store.Name()}
			}
			lastErr = err
			s.log.UploadOutcome(task.RecordID, task.Category, task.Filename, StatusFailed, err)

			if attempt < attempts {
				if !sleepCtx(ctx, tier.Retry.DelayFor(attempt)) {
					return AssetResult{Filename: task.Filename, Status: StatusFailed, Reason: ctx.Err().Error()}
				}
			}
		}
	}

	reason := "all store tiers failed"
	if lastErr != nil {
		reason = lastErr.Error()
	}
	return AssetResult{Filename: task.Filename, Status: StatusFailed, Reason: reason}
}

// validate rejects oversized assets and disallowed content types before
// any network call is made.
func (s *Service) validate(task store.UploadTask) (string, bool) {
	if task.Size > s.maxFileSize {
		return "file exceeds maximum size", false
	}
	ct := strings.ToLower(strings.TrimSpace(task.ContentType))
	if idx := strings.IndexByte(ct, ';'); idx != -1 {
		ct = strings.TrimSpace(ct[:idx])
	}
	if _, ok := allowedContentTypes[ct]; !ok {
		return "unsupported content type", false
	}
	return "", true
}

// ProbeExisting checks the store tiers in order for objects already
// uploaded for the record/category. Probe failures are treated as "no
// existing objects": a broken listing must not block uploads.
func (s *Service) ProbeExisting(ctx context.Context, recordID, category string) []store.AssetRef {
	for _, tier := range s.tiers {
		refs, err := tier.Store.List(ctx, recordID, category)
		if err != nil {
			s.log.Warn("existing asset probe failed",
				"store", tier.Store.Name(), "record_id", recordID, "category", category, "error", err)
			continue
		}
		if len(refs) > 0 {
			sort.Slice(refs, func(i, j int) bool { return refs[i].Key < refs[j].Key })
			return refs
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
