// Package service implements the valuation orchestration: submit a quote
// request upstream, poll for completion under a deadline, and extract the
// offer from the loosely structured payload.
package service

import (
	"context"
	"time"

	"trefa_backend/internal/events"
	"trefa_backend/internal/valuation/pricing"
	"trefa_backend/internal/valuation/repository"
	"trefa_backend/internal/valuation/transport"
	"trefa_backend/platform/logger"
	"trefa_backend/platform/phone"

	"github.com/google/uuid"
)

// PricingClient abstracts the relay client for testing.
type PricingClient interface {
	Submit(ctx context.Context, req pricing.QuoteRequest) (any, error)
	FetchStatus(ctx context.Context, handle string) (any, error)
}

// RecordStore persists a resolved valuation to the external record store.
type RecordStore interface {
	SaveValuation(ctx context.Context, fields map[string]any) error
}

// Config holds the orchestration tuning knobs.
type Config struct {
	BusinessUnitID string
	Deadline       time.Duration
	PollInterval   time.Duration
	MaxAttempts    int
}

// Service drives the two-phase valuation protocol.
type Service struct {
	client  PricingClient
	repo    repository.Repository
	records RecordStore
	bus     events.Bus
	log     *logger.Logger
	cfg     Config
}

// New creates the valuation service. repo, records and bus may be nil; the
// orchestration itself never depends on them.
func New(client PricingClient, repo repository.Repository, records RecordStore, bus events.Bus, log *logger.Logger, cfg Config) *Service {
	if cfg.Deadline <= 0 {
		cfg.Deadline = 60 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 12
	}
	return &Service{client: client, repo: repo, records: records, bus: bus, log: log, cfg: cfg}
}

// RequestValuation runs the full pipeline for an API request: orchestrate
// the upstream quote, record the attempt, persist the resolved offer to the
// record store and publish the domain event.
func (s *Service) RequestValuation(ctx context.Context, req transport.ValuationRequest) (*transport.ValuationResponse, error) {
	quote := pricing.QuoteRequest{
		Vehicle: pricing.VehicleDescriptor{
			BrandID: req.BrandID,
			ModelID: req.ModelID,
			YearID:  req.YearID,
			TrimID:  req.TrimID,
			Label:   req.VehicleLabel,
		},
		Kms:            req.Kms,
		BusinessUnitID: s.cfg.BusinessUnitID,
	}

	valuationID := uuid.New()
	contactPhone := phone.NormalizeE164(req.ContactPhone)

	result, err := s.Valuate(ctx, quote)
	s.recordAttempt(ctx, valuationID, req, contactPhone, result, err)
	if err != nil {
		return nil, err
	}

	s.persistOffer(ctx, valuationID, req, contactPhone, result)

	if s.bus != nil {
		s.bus.Publish(ctx, events.ValuationResolved{
			BaseEvent:      events.NewBaseEvent(),
			ValuationID:    valuationID,
			VehicleLabel:   req.VehicleLabel,
			Kms:            req.Kms,
			SuggestedOffer: result.SuggestedOffer,
			ContactName:    req.ContactName,
			ContactEmail:   req.ContactEmail,
			ContactPhone:   contactPhone,
		})
	}

	return &transport.ValuationResponse{
		ValuationID:     valuationID,
		VehicleLabel:    req.VehicleLabel,
		Kms:             req.Kms,
		SuggestedOffer:  result.SuggestedOffer,
		SecondaryOffer:  result.SecondaryOffer,
		HighMarketValue: result.HighMarketValue,
		LowMarketValue:  result.LowMarketValue,
		AvgDaysOnMarket: result.AvgDaysOnMarket,
		AvgKms:          result.AvgKms,
	}, nil
}

// Valuate runs the submit-then-poll protocol under the configured deadline.
// The returned error is always a typed *pricing.Error on failure.
func (s *Service) Valuate(ctx context.Context, quote pricing.QuoteRequest) (pricing.OfferResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Deadline)
	defer cancel()

	result, err := s.run(ctx, quote)
	if err != nil && ctx.Err() != nil && !pricing.IsKind(err, pricing.FailureAuth) {
		// The deadline elapsing may surface as a transport error from an
		// in-flight call; classify it as the deadline, not the upstream.
		return pricing.OfferResult{}, &pricing.Error{
			Kind:    pricing.FailureDeadline,
			Message: "valuation did not complete within the deadline",
			Err:     ctx.Err(),
		}
	}
	return result, err
}

func (s *Service) run(ctx context.Context, quote pricing.QuoteRequest) (pricing.OfferResult, error) {
	payload, err := s.client.Submit(ctx, quote)
	if err != nil {
		// Submission is never retried.
		return pricing.OfferResult{}, err
	}

	// The upstream sometimes prices synchronously; a positive offer in the
	// submission payload skips polling entirely.
	if offer, ok := pricing.Extract(payload, pricing.SuggestedOfferPaths); ok {
		return buildResult(payload, offer), nil
	}

	handle, ok := pricing.ExtractString(payload, pricing.QuoteHandlePaths)
	if !ok {
		return pricing.OfferResult{}, &pricing.Error{
			Kind:    pricing.FailureProtocol,
			Message: "submission succeeded but returned no valuation id to poll",
		}
	}

	lastPayload := payload
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if err := sleepCtx(ctx, s.cfg.PollInterval); err != nil {
			return pricing.OfferResult{}, &pricing.Error{
				Kind:    pricing.FailureDeadline,
				Message: "valuation did not complete within the deadline",
				Err:     err,
			}
		}

		statusPayload, err := s.client.FetchStatus(ctx, handle)
		if err != nil {
			if ctx.Err() != nil {
				return pricing.OfferResult{}, &pricing.Error{
					Kind:    pricing.FailureDeadline,
					Message: "valuation did not complete within the deadline",
					Err:     ctx.Err(),
				}
			}
			// A failed poll attempt does not abort the loop.
			if s.log != nil {
				s.log.PollAttempt(handle, attempt, s.cfg.MaxAttempts, err)
			}
			continue
		}

		lastPayload = statusPayload
		if s.log != nil {
			s.log.PollAttempt(handle, attempt, s.cfg.MaxAttempts, nil)
		}

		if offer, ok := pricing.Extract(statusPayload, pricing.SuggestedOfferPaths); ok {
			return buildResult(statusPayload, offer), nil
		}
	}

	// The diagnostic automatic offer is surfaced for support tooling only;
	// it never turns exhaustion into success.
	exhausted := &pricing.Error{
		Kind:    pricing.FailureExhausted,
		Message: "could not price this vehicle",
	}
	if diag, ok := pricing.Extract(lastPayload, pricing.AutomaticOfferPaths); ok {
		exhausted.DiagnosticOffer = diag
	}
	return pricing.OfferResult{}, exhausted
}

// buildResult assembles the OfferResult from the payload that produced the
// winning extraction. Everything beyond the suggested offer is optional.
func buildResult(payload any, offer float64) pricing.OfferResult {
	result := pricing.OfferResult{SuggestedOffer: offer}
	result.SecondaryOffer = optional(payload, pricing.AutomaticOfferPaths)
	result.HighMarketValue = optional(payload, pricing.HighMarketValuePaths)
	result.LowMarketValue = optional(payload, pricing.LowMarketValuePaths)
	result.AvgDaysOnMarket = optional(payload, pricing.AvgDaysOnMarketPaths)
	result.AvgKms = optional(payload, pricing.AvgKmsPaths)
	return result
}

func optional(payload any, table []pricing.Path) *float64 {
	if n, ok := pricing.Extract(payload, table); ok {
		return &n
	}
	return nil
}

func (s *Service) recordAttempt(ctx context.Context, id uuid.UUID, req transport.ValuationRequest, contactPhone string, result pricing.OfferResult, valErr error) {
	if s.repo == nil {
		return
	}

	attempt := repository.Attempt{
		ID:           id,
		VehicleLabel: req.VehicleLabel,
		BrandID:      req.BrandID,
		ModelID:      req.ModelID,
		YearID:       req.YearID,
		TrimID:       req.TrimID,
		Kms:          req.Kms,
		ContactName:  req.ContactName,
		ContactPhone: contactPhone,
		ContactEmail: req.ContactEmail,
	}

	if valErr == nil {
		attempt.Status = "resolved"
		attempt.SuggestedOffer = &result.SuggestedOffer
		attempt.SecondaryOffer = result.SecondaryOffer
	} else if kind, ok := pricing.KindOf(valErr); ok {
		attempt.Status = kind.String()
	} else {
		attempt.Status = "error"
	}

	// Auditing must never fail the valuation itself.
	if err := s.repo.InsertAttempt(context.WithoutCancel(ctx), attempt); err != nil && s.log != nil {
		s.log.DatabaseError("insert valuation attempt", err)
	}
}

func (s *Service) persistOffer(ctx context.Context, id uuid.UUID, req transport.ValuationRequest, contactPhone string, result pricing.OfferResult) {
	if s.records == nil {
		return
	}

	fields := map[string]any{
		"Valuation ID":    id.String(),
		"Vehicle Name":    req.VehicleLabel,
		"Kilometraje":     req.Kms,
		"Oferta Sugerida": result.SuggestedOffer,
	}
	if req.ContactName != "" {
		fields["Nombre"] = req.ContactName
	}
	if contactPhone != "" {
		fields["Telefono"] = contactPhone
	}
	if req.ContactEmail != "" {
		fields["Email"] = req.ContactEmail
	}

	if err := s.records.SaveValuation(context.WithoutCancel(ctx), fields); err != nil && s.log != nil {
		s.log.Error("failed to persist valuation to record store", "valuation_id", id.String(), "error", err)
	}
}

// ListRecent returns the most recent valuation attempts for back-office use.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]repository.Attempt, error) {
	if s.repo == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListRecent(ctx, limit)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
