package records

import (
	"context"

	mediaservice "trefa_backend/internal/media/service"
)

// InventoryStore adapts the Airtable inventory table to the media
// pipeline's record source.
type InventoryStore struct {
	client *Client
	table  string
}

// NewInventoryStore creates the inventory adapter.
func NewInventoryStore(client *Client, table string) *InventoryStore {
	return &InventoryStore{client: client, table: table}
}

// FetchAttachments fetches the record once and parses each requested
// attachment field.
func (s *InventoryStore) FetchAttachments(ctx context.Context, recordID string, fields []string) (map[string][]mediaservice.Attachment, error) {
	record, err := s.client.GetRecord(ctx, s.table, recordID)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]mediaservice.Attachment, len(fields))
	for _, field := range fields {
		parsed := ParseAttachments(record.Fields[field])
		attachments := make([]mediaservice.Attachment, 0, len(parsed))
		for _, att := range parsed {
			attachments = append(attachments, mediaservice.Attachment{
				URL:         att.URL,
				Filename:    att.Filename,
				ContentType: att.ContentType,
				Size:        att.Size,
			})
		}
		result[field] = attachments
	}
	return result, nil
}

// WriteAssetURLs patches the uploaded URL fields back onto the record.
func (s *InventoryStore) WriteAssetURLs(ctx context.Context, recordID string, urls map[string]string) error {
	fields := make(map[string]any, len(urls))
	for field, value := range urls {
		fields[field] = value
	}
	return s.client.UpdateRecord(ctx, s.table, recordID, fields)
}

var _ mediaservice.RecordSource = (*InventoryStore)(nil)

// ValuationStore adapts the Airtable valuations table to the valuation
// pipeline's record store.
type ValuationStore struct {
	client *Client
	table  string
}

// NewValuationStore creates the valuations adapter.
func NewValuationStore(client *Client, table string) *ValuationStore {
	return &ValuationStore{client: client, table: table}
}

// SaveValuation creates one row for a resolved valuation.
func (s *ValuationStore) SaveValuation(ctx context.Context, fields map[string]any) error {
	return s.client.CreateRecord(ctx, s.table, fields)
}
