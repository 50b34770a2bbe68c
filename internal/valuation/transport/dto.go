// Package transport defines the request and response DTOs for the
// valuation HTTP API.
package transport

import "github.com/google/uuid"

// ValuationRequest is the public quote request submitted by a seller.
// The catalog IDs are the upstream pricing catalog identifiers selected
// in the frontend flow.
type ValuationRequest struct {
	BrandID      string `json:"brandId" validate:"required"`
	ModelID      string `json:"modelId" validate:"required"`
	YearID       string `json:"yearId" validate:"required"`
	TrimID       string `json:"trimId" validate:"required"`
	VehicleLabel string `json:"vehicleLabel" validate:"required,max=200"`
	Kms          int    `json:"kms" validate:"required,gt=0"`
	ContactName  string `json:"contactName" validate:"omitempty,max=120"`
	ContactPhone string `json:"contactPhone" validate:"omitempty,max=30"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
}

// ValuationResponse is the resolved offer returned to the caller.
type ValuationResponse struct {
	ValuationID     uuid.UUID `json:"valuationId"`
	VehicleLabel    string    `json:"vehicleLabel"`
	Kms             int       `json:"kms"`
	SuggestedOffer  float64   `json:"suggestedOffer"`
	SecondaryOffer  *float64  `json:"secondaryOffer,omitempty"`
	HighMarketValue *float64  `json:"highMarketValue,omitempty"`
	LowMarketValue  *float64  `json:"lowMarketValue,omitempty"`
	AvgDaysOnMarket *float64  `json:"avgDaysOnMarket,omitempty"`
	AvgKms          *float64  `json:"avgKms,omitempty"`
}
