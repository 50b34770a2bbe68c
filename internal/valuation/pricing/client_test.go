package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(relayURL string) *Client {
	return NewClient(Config{
		RelayURL:  relayURL,
		BaseURL:   "https://pricing.example.com/api",
		APIKey:    "test-key",
		APISecret: "test-secret",
	})
}

func TestSubmitSendsEnvelope(t *testing.T) {
	var captured relayEnvelope
	var capturedHeaders http.Header

	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedHeaders = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode envelope: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "val_1"}`))
	}))
	defer relay.Close()

	client := newTestClient(relay.URL)
	req := QuoteRequest{
		Vehicle:        VehicleDescriptor{BrandID: "b1", ModelID: "m1", YearID: "y1", TrimID: "t1"},
		Kms:            60000,
		BusinessUnitID: "bu-1",
	}

	if _, err := client.Submit(context.Background(), req); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if captured.URL != "https://pricing.example.com/api/valuations" {
		t.Fatalf("unexpected relayed url: %s", captured.URL)
	}
	if captured.Method != http.MethodPost {
		t.Fatalf("expected relayed POST, got %s", captured.Method)
	}
	if captured.Body == nil {
		t.Fatalf("expected submission body")
	}

	body, ok := captured.Body.(map[string]any)
	if !ok {
		t.Fatalf("unexpected body type %T", captured.Body)
	}
	if body["businessUnitId"] != "bu-1" {
		t.Fatalf("expected businessUnitId bu-1, got %v", body["businessUnitId"])
	}
	if body["lite"] != true {
		t.Fatalf("expected lite flag, got %v", body["lite"])
	}
	if body["kms"] != float64(60000) {
		t.Fatalf("expected kms 60000, got %v", body["kms"])
	}

	// Credentials travel as relay headers, never inside the envelope.
	if capturedHeaders.Get("x-api-key") != "test-key" {
		t.Fatalf("expected api key header, got %q", capturedHeaders.Get("x-api-key"))
	}
	if capturedHeaders.Get("x-api-secret") != "test-secret" {
		t.Fatalf("expected api secret header, got %q", capturedHeaders.Get("x-api-secret"))
	}
	for _, v := range captured.Headers {
		if v == "test-key" || v == "test-secret" {
			t.Fatalf("credentials leaked into the relayed headers")
		}
	}
}

func TestFetchStatusOmitsBody(t *testing.T) {
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("failed to decode envelope: %v", err)
		}
		if _, hasBody := raw["body"]; hasBody {
			t.Errorf("GET envelope must not carry a body")
		}

		var envelope relayEnvelope
		json.Unmarshal(mustMarshal(t, raw), &envelope)
		if envelope.Method != http.MethodGet {
			t.Errorf("expected relayed GET, got %s", envelope.Method)
		}
		if envelope.URL != "https://pricing.example.com/api/valuations/val_42" {
			t.Errorf("unexpected relayed url: %s", envelope.URL)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "processing"}`))
	}))
	defer relay.Close()

	client := newTestClient(relay.URL)
	if _, err := client.FetchStatus(context.Background(), "val_42"); err != nil {
		t.Fatalf("fetch status failed: %v", err)
	}
}

func TestUnauthorizedMapsToAuthFailure(t *testing.T) {
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer relay.Close()

	client := newTestClient(relay.URL)
	_, err := client.Submit(context.Background(), QuoteRequest{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsKind(err, FailureAuth) {
		t.Fatalf("expected auth failure, got %v", err)
	}
}

func TestServerErrorMapsToTransportFailure(t *testing.T) {
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer relay.Close()

	client := newTestClient(relay.URL)
	_, err := client.Submit(context.Background(), QuoteRequest{})
	if !IsKind(err, FailureTransport) {
		t.Fatalf("expected transport failure, got %v", err)
	}

	var pe *Error
	if !asPricingError(err, &pe) || pe.Status != http.StatusBadGateway {
		t.Fatalf("expected status 502 on the error, got %+v", pe)
	}
}

func TestMalformedJSONMapsToTransportFailure(t *testing.T) {
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer relay.Close()

	client := newTestClient(relay.URL)
	_, err := client.Submit(context.Background(), QuoteRequest{})
	if !IsKind(err, FailureTransport) {
		t.Fatalf("expected transport failure for malformed body, got %v", err)
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func asPricingError(err error, target **Error) bool {
	pe, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = pe
	return true
}
