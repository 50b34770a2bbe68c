package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"trefa_backend/internal/valuation/pricing"
)

type fakeClient struct {
	submitPayload any
	submitErr     error
	submitCalls   int

	statusFn    func(call int) (any, error)
	statusCalls int
}

func (f *fakeClient) Submit(ctx context.Context, req pricing.QuoteRequest) (any, error) {
	f.submitCalls++
	return f.submitPayload, f.submitErr
}

func (f *fakeClient) FetchStatus(ctx context.Context, handle string) (any, error) {
	f.statusCalls++
	return f.statusFn(f.statusCalls)
}

func newTestService(client *fakeClient, maxAttempts int, deadline time.Duration) *Service {
	return New(client, nil, nil, nil, nil, Config{
		BusinessUnitID: "bu-1",
		Deadline:       deadline,
		PollInterval:   time.Millisecond,
		MaxAttempts:    maxAttempts,
	})
}

func TestValuateImmediateOffer(t *testing.T) {
	client := &fakeClient{
		submitPayload: map[string]any{"suggestedOffer": float64(185000)},
		statusFn: func(int) (any, error) {
			return nil, errors.New("should not be called")
		},
	}
	svc := newTestService(client, 12, 5*time.Second)

	result, err := svc.Valuate(context.Background(), pricing.QuoteRequest{})
	if err != nil {
		t.Fatalf("valuate failed: %v", err)
	}
	if result.SuggestedOffer != 185000 {
		t.Fatalf("expected 185000, got %v", result.SuggestedOffer)
	}
	if client.statusCalls != 0 {
		t.Fatalf("synchronous offer must skip polling, got %d status calls", client.statusCalls)
	}
}

func TestValuateResolvesOnFinalPoll(t *testing.T) {
	client := &fakeClient{
		submitPayload: map[string]any{"id": "val_1"},
		statusFn: func(call int) (any, error) {
			if call < 12 {
				return map[string]any{"status": "processing"}, nil
			}
			return map[string]any{"suggestedOffer": float64(142500)}, nil
		},
	}
	svc := newTestService(client, 12, 5*time.Second)

	result, err := svc.Valuate(context.Background(), pricing.QuoteRequest{})
	if err != nil {
		t.Fatalf("valuate failed: %v", err)
	}
	if result.SuggestedOffer != 142500 {
		t.Fatalf("expected 142500, got %v", result.SuggestedOffer)
	}
	if client.statusCalls != 12 {
		t.Fatalf("expected exactly 12 polls, got %d", client.statusCalls)
	}
}

func TestValuateToleratesPollTransportErrors(t *testing.T) {
	client := &fakeClient{
		submitPayload: map[string]any{"id": "val_1"},
		statusFn: func(call int) (any, error) {
			if call <= 3 {
				return nil, &pricing.Error{Kind: pricing.FailureTransport, Message: "connection reset"}
			}
			return map[string]any{"data": map[string]any{"suggestedOffer": float64(99000)}}, nil
		},
	}
	svc := newTestService(client, 12, 5*time.Second)

	result, err := svc.Valuate(context.Background(), pricing.QuoteRequest{})
	if err != nil {
		t.Fatalf("expected poll errors to be tolerated, got %v", err)
	}
	if result.SuggestedOffer != 99000 {
		t.Fatalf("expected 99000, got %v", result.SuggestedOffer)
	}
	if client.statusCalls != 4 {
		t.Fatalf("expected 4 polls, got %d", client.statusCalls)
	}
}

func TestValuateExhaustedKeepsDiagnosticOffer(t *testing.T) {
	client := &fakeClient{
		submitPayload: map[string]any{"id": "val_1"},
		statusFn: func(int) (any, error) {
			// A secondary offer alone never resolves the valuation.
			return map[string]any{"ofertaAutomatica": float64(120000)}, nil
		},
	}
	svc := newTestService(client, 5, 5*time.Second)

	_, err := svc.Valuate(context.Background(), pricing.QuoteRequest{})
	if !pricing.IsKind(err, pricing.FailureExhausted) {
		t.Fatalf("expected exhaustion, got %v", err)
	}

	var pe *pricing.Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected typed pricing error, got %T", err)
	}
	if pe.DiagnosticOffer != 120000 {
		t.Fatalf("expected diagnostic offer 120000, got %v", pe.DiagnosticOffer)
	}
	if client.statusCalls != 5 {
		t.Fatalf("expected 5 polls, got %d", client.statusCalls)
	}
}

func TestValuateMissingHandleIsProtocolViolation(t *testing.T) {
	client := &fakeClient{
		submitPayload: map[string]any{"status": "accepted"},
		statusFn: func(int) (any, error) {
			return nil, errors.New("should not be called")
		},
	}
	svc := newTestService(client, 12, 5*time.Second)

	_, err := svc.Valuate(context.Background(), pricing.QuoteRequest{})
	if !pricing.IsKind(err, pricing.FailureProtocol) {
		t.Fatalf("expected protocol violation, got %v", err)
	}
	if client.statusCalls != 0 {
		t.Fatalf("expected no polling without a handle, got %d calls", client.statusCalls)
	}
}

func TestValuateDeadline(t *testing.T) {
	client := &fakeClient{
		submitPayload: map[string]any{"id": "val_1"},
		statusFn: func(int) (any, error) {
			return map[string]any{"status": "processing"}, nil
		},
	}
	svc := New(client, nil, nil, nil, nil, Config{
		Deadline:     20 * time.Millisecond,
		PollInterval: 50 * time.Millisecond,
		MaxAttempts:  12,
	})

	_, err := svc.Valuate(context.Background(), pricing.QuoteRequest{})
	if !pricing.IsKind(err, pricing.FailureDeadline) {
		t.Fatalf("expected deadline failure, got %v", err)
	}
}

func TestValuateSubmitNotRetried(t *testing.T) {
	client := &fakeClient{
		submitErr: &pricing.Error{Kind: pricing.FailureTransport, Message: "boom"},
		statusFn: func(int) (any, error) {
			return nil, errors.New("should not be called")
		},
	}
	svc := newTestService(client, 12, 5*time.Second)

	_, err := svc.Valuate(context.Background(), pricing.QuoteRequest{})
	if !pricing.IsKind(err, pricing.FailureTransport) {
		t.Fatalf("expected transport failure, got %v", err)
	}
	if client.submitCalls != 1 {
		t.Fatalf("submission must never be retried, got %d calls", client.submitCalls)
	}
}

func TestValuateAuthFailurePassesThrough(t *testing.T) {
	client := &fakeClient{
		submitErr: &pricing.Error{Kind: pricing.FailureAuth, Status: 401, Message: "bad creds"},
		statusFn: func(int) (any, error) {
			return nil, errors.New("should not be called")
		},
	}
	svc := newTestService(client, 12, 5*time.Second)

	_, err := svc.Valuate(context.Background(), pricing.QuoteRequest{})
	if !pricing.IsKind(err, pricing.FailureAuth) {
		t.Fatalf("expected auth failure, got %v", err)
	}
}

func TestValuateExtractsMarketStats(t *testing.T) {
	client := &fakeClient{
		submitPayload: map[string]any{"id": "val_1"},
		statusFn: func(int) (any, error) {
			return map[string]any{
				"stats": []any{
					map[string]any{"values": map[string]any{
						"suggestedOffer":  float64(150000),
						"highMarketValue": float64(180000),
						"lowMarketValue":  float64(130000),
						"avgDaysOnMarket": float64(45),
						"avgKms":          float64(72000),
					}},
				},
			}, nil
		},
	}
	svc := newTestService(client, 12, 5*time.Second)

	result, err := svc.Valuate(context.Background(), pricing.QuoteRequest{})
	if err != nil {
		t.Fatalf("valuate failed: %v", err)
	}
	if result.SuggestedOffer != 150000 {
		t.Fatalf("expected 150000, got %v", result.SuggestedOffer)
	}
	if result.HighMarketValue == nil || *result.HighMarketValue != 180000 {
		t.Fatalf("expected high market value 180000, got %v", result.HighMarketValue)
	}
	if result.LowMarketValue == nil || *result.LowMarketValue != 130000 {
		t.Fatalf("expected low market value 130000, got %v", result.LowMarketValue)
	}
	if result.AvgDaysOnMarket == nil || *result.AvgDaysOnMarket != 45 {
		t.Fatalf("expected avg days 45, got %v", result.AvgDaysOnMarket)
	}
	if result.AvgKms == nil || *result.AvgKms != 72000 {
		t.Fatalf("expected avg kms 72000, got %v", result.AvgKms)
	}
}
