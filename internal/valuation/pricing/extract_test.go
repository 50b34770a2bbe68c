package pricing

import (
	"encoding/json"
	"testing"
)

func decodePayload(t *testing.T, raw string) any {
	t.Helper()
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	return payload
}

func TestExtractTopLevelOffer(t *testing.T) {
	payload := decodePayload(t, `{"suggestedOffer": 185000}`)

	offer, ok := Extract(payload, SuggestedOfferPaths)
	if !ok {
		t.Fatalf("expected offer to be found")
	}
	if offer != 185000 {
		t.Fatalf("expected 185000, got %v", offer)
	}
}

func TestExtractNestedRegionStats(t *testing.T) {
	payload := decodePayload(t, `{"data": {"regions": [{"stats": {"suggestedOffer": 185000}}]}}`)

	offer, ok := Extract(payload, SuggestedOfferPaths)
	if !ok {
		t.Fatalf("expected offer to be found")
	}
	if offer != 185000 {
		t.Fatalf("expected 185000, got %v", offer)
	}
}

func TestExtractFirstPathWins(t *testing.T) {
	payload := decodePayload(t, `{"suggestedOffer": 100, "offer": {"suggestedOffer": 200}}`)

	offer, ok := Extract(payload, SuggestedOfferPaths)
	if !ok || offer != 100 {
		t.Fatalf("expected first path to win with 100, got %v (found=%v)", offer, ok)
	}

	// Reordering the table changes the winner: precedence lives in the
	// table, not the payload.
	reordered := []Path{"offer.suggestedOffer", "suggestedOffer"}
	offer, ok = Extract(payload, reordered)
	if !ok || offer != 200 {
		t.Fatalf("expected reordered table to return 200, got %v (found=%v)", offer, ok)
	}
}

func TestExtractSkipsZeroAndNegative(t *testing.T) {
	payload := decodePayload(t, `{"suggestedOffer": 0, "offer": {"suggestedOffer": -50, "amount": 142500}}`)

	offer, ok := Extract(payload, SuggestedOfferPaths)
	if !ok || offer != 142500 {
		t.Fatalf("expected zero and negative values to be skipped, got %v (found=%v)", offer, ok)
	}
}

func TestExtractCurrencyString(t *testing.T) {
	payload := decodePayload(t, `{"suggestedOffer": "$185,000"}`)

	offer, ok := Extract(payload, SuggestedOfferPaths)
	if !ok || offer != 185000 {
		t.Fatalf("expected currency string to parse to 185000, got %v (found=%v)", offer, ok)
	}
}

func TestExtractMalformedStringSkipped(t *testing.T) {
	payload := decodePayload(t, `{"suggestedOffer": "pending", "data": {"suggestedOffer": 90000}}`)

	offer, ok := Extract(payload, SuggestedOfferPaths)
	if !ok || offer != 90000 {
		t.Fatalf("expected malformed string to be skipped, got %v (found=%v)", offer, ok)
	}
}

func TestExtractMissingEverywhere(t *testing.T) {
	payload := decodePayload(t, `{"status": "processing", "data": {"id": "abc"}}`)

	if offer, ok := Extract(payload, SuggestedOfferPaths); ok {
		t.Fatalf("expected no offer, got %v", offer)
	}
}

func TestExtractNonObjectPayload(t *testing.T) {
	if _, ok := Extract("not an object", SuggestedOfferPaths); ok {
		t.Fatalf("expected no offer from non-object payload")
	}
	if _, ok := Extract(nil, SuggestedOfferPaths); ok {
		t.Fatalf("expected no offer from nil payload")
	}
}

func TestAutomaticOfferPathsDisjoint(t *testing.T) {
	// The diagnostic offer must never satisfy a primary extraction and
	// vice versa, so the two tables may not share a path.
	primary := make(map[Path]struct{}, len(SuggestedOfferPaths))
	for _, p := range SuggestedOfferPaths {
		primary[p] = struct{}{}
	}
	for _, p := range AutomaticOfferPaths {
		if _, overlap := primary[p]; overlap {
			t.Fatalf("path %q appears in both tables", p)
		}
	}

	payload := decodePayload(t, `{"ofertaAutomatica": 120000}`)
	if offer, ok := Extract(payload, SuggestedOfferPaths); ok {
		t.Fatalf("automatic offer leaked into primary extraction: %v", offer)
	}
	if offer, ok := Extract(payload, AutomaticOfferPaths); !ok || offer != 120000 {
		t.Fatalf("expected automatic offer 120000, got %v (found=%v)", offer, ok)
	}
}

func TestExtractStringHandle(t *testing.T) {
	payload := decodePayload(t, `{"data": {"id": "val_123"}}`)

	handle, ok := ExtractString(payload, QuoteHandlePaths)
	if !ok || handle != "val_123" {
		t.Fatalf("expected handle val_123, got %q (found=%v)", handle, ok)
	}
}

func TestExtractStringNumericHandle(t *testing.T) {
	payload := decodePayload(t, `{"id": 98765}`)

	handle, ok := ExtractString(payload, QuoteHandlePaths)
	if !ok || handle != "98765" {
		t.Fatalf("expected numeric handle formatted as 98765, got %q (found=%v)", handle, ok)
	}
}

func TestExtractStringSkipsBlank(t *testing.T) {
	payload := decodePayload(t, `{"id": "  ", "valuationId": "val_9"}`)

	handle, ok := ExtractString(payload, QuoteHandlePaths)
	if !ok || handle != "val_9" {
		t.Fatalf("expected blank id to be skipped, got %q (found=%v)", handle, ok)
	}
}

func TestResolveIndexOutOfRange(t *testing.T) {
	payload := decodePayload(t, `{"stats": []}`)

	if offer, ok := Extract(payload, SuggestedOfferPaths); ok {
		t.Fatalf("expected empty stats array to yield nothing, got %v", offer)
	}
}

func TestParseNumberVariants(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{float64(185000), 185000, true},
		{"185000", 185000, true},
		{"$185,000", 185000, true},
		{" 142,500.50 ", 142500.50, true},
		{"", 0, false},
		{"n/a", 0, false},
		{true, 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := parseNumber(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("parseNumber(%v) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
