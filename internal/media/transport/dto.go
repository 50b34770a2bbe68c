// Package transport defines the DTOs for the media sync HTTP API.
package transport

// SyncAccepted is returned when a background sync is queued.
type SyncAccepted struct {
	RecordID string `json:"recordId"`
	Status   string `json:"status"`
}
