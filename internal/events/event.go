// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"trefa_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Valuation Domain Events
// =============================================================================

// ValuationResolved is published when the pricing pipeline produced a
// positive suggested offer for a vehicle.
type ValuationResolved struct {
	BaseEvent
	ValuationID    uuid.UUID `json:"valuationId"`
	VehicleLabel   string    `json:"vehicleLabel"`
	Kms            int       `json:"kms"`
	SuggestedOffer float64   `json:"suggestedOffer"`
	ContactName    string    `json:"contactName,omitempty"`
	ContactEmail   string    `json:"contactEmail,omitempty"`
	ContactPhone   string    `json:"contactPhone,omitempty"`
}

func (e ValuationResolved) EventName() string { return "valuation.resolved" }

// =============================================================================
// Media Domain Events
// =============================================================================

// MediaSynced is published after an upload batch for a record completes.
type MediaSynced struct {
	BaseEvent
	RecordID string `json:"recordId"`
	Uploaded int    `json:"uploaded"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}

func (e MediaSynced) EventName() string { return "media.synced" }
