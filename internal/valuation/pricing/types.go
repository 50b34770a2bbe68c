// Package pricing implements the client and payload handling for the
// upstream vehicle pricing service, reached through a relay endpoint.
package pricing

// VehicleDescriptor identifies a vehicle in the upstream pricing catalog.
// The IDs are opaque external-system identifiers selected by the caller.
type VehicleDescriptor struct {
	BrandID string
	ModelID string
	YearID  string
	TrimID  string
	Label   string
}

// QuoteRequest is a single valuation attempt against the upstream service.
type QuoteRequest struct {
	Vehicle        VehicleDescriptor
	Kms            int
	BusinessUnitID string
}

// OfferResult is the priced outcome of a resolved valuation.
// SuggestedOffer always comes verbatim from the upstream payload; it is
// never computed locally. All other fields are opportunistic extras pulled
// from the same payload that produced the winning offer.
type OfferResult struct {
	SuggestedOffer  float64
	SecondaryOffer  *float64
	HighMarketValue *float64
	LowMarketValue  *float64
	AvgDaysOnMarket *float64
	AvgKms          *float64
}
