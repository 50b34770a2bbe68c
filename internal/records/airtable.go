// Package records implements the external record store client (Airtable)
// and the adapters the valuation and media pipelines consume.
package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// Client is a minimal Airtable REST client scoped to one base.
type Client struct {
	baseURL    string
	apiKey     string
	baseID     string
	httpClient *http.Client
}

// Config configures the Airtable client.
type Config struct {
	APIKey  string
	BaseID  string
	BaseURL string
	Timeout time.Duration
}

// NewClient creates an Airtable client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     cfg.APIKey,
		baseID:     cfg.BaseID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Record is one Airtable record with its raw field values.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Attachment is one parsed attachment cell entry.
type Attachment struct {
	ID          string
	URL         string
	Filename    string
	ContentType string
	Size        int64
}

// GetRecord fetches one record by ID.
func (c *Client) GetRecord(ctx context.Context, table, recordID string) (*Record, error) {
	var record Record
	if err := c.call(ctx, http.MethodGet, c.recordURL(table, recordID), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateRecord patches the given fields on a record, leaving other
// fields untouched.
func (c *Client) UpdateRecord(ctx context.Context, table, recordID string, fields map[string]any) error {
	body := map[string]any{"fields": fields}
	return c.call(ctx, http.MethodPatch, c.recordURL(table, recordID), body, nil)
}

// CreateRecord creates one record in the table.
func (c *Client) CreateRecord(ctx context.Context, table string, fields map[string]any) error {
	body := map[string]any{
		"records": []map[string]any{{"fields": fields}},
	}
	return c.call(ctx, http.MethodPost, c.tableURL(table), body, nil)
}

func (c *Client) recordURL(table, recordID string) string {
	return c.tableURL(table) + "/" + url.PathEscape(recordID)
}

func (c *Client) tableURL(table string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(c.baseID), url.PathEscape(table))
}

func (c *Client) call(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode record request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create record request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("record store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("record store returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode record response: %w", err)
		}
	}
	return nil
}

// ParseAttachments converts an attachment cell value into typed entries.
// Non-attachment cells yield an empty slice, never an error.
func ParseAttachments(cell any) []Attachment {
	items, ok := cell.([]any)
	if !ok {
		return nil
	}

	attachments := make([]Attachment, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		att := Attachment{
			ID:          stringField(obj, "id"),
			URL:         stringField(obj, "url"),
			Filename:    stringField(obj, "filename"),
			ContentType: stringField(obj, "type"),
		}
		if size, ok := obj["size"].(float64); ok {
			att.Size = int64(size)
		}
		if att.URL == "" {
			continue
		}
		attachments = append(attachments, att)
	}
	return attachments
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
