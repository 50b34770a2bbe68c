package pricing

import (
	"strconv"
	"strings"
)

// Path is a dotted/indexed path expression into a decoded JSON payload,
// e.g. "data.regions[0].stats.suggestedOffer".
type Path string

// SuggestedOfferPaths lists every location the upstream service has been
// observed returning the authoritative offer, in priority order. The first
// path holding a positive number wins. Keep the fragile "where might the
// field be" knowledge here and nowhere else.
var SuggestedOfferPaths = []Path{
	"suggestedOffer",
	"offer.suggestedOffer",
	"offer.amount",
	"data.suggestedOffer",
	"data.offer.suggestedOffer",
	"valuation.suggestedOffer",
	"valuation.offer.suggestedOffer",
	"stats[0].values.suggestedOffer",
	"data.stats[0].values.suggestedOffer",
	"regions[0].stats.suggestedOffer",
	"data.regions[0].stats.suggestedOffer",
}

// AutomaticOfferPaths lists the locations of the diagnostic automatic
// offer. Disjoint from SuggestedOfferPaths: the diagnostic value must
// never substitute for the primary offer.
var AutomaticOfferPaths = []Path{
	"ofertaAutomatica",
	"automaticOffer",
	"data.ofertaAutomatica",
	"data.automaticOffer",
	"valuation.ofertaAutomatica",
	"valuation.automaticOffer",
}

// QuoteHandlePaths lists where the pollable valuation id may appear in a
// submission response.
var QuoteHandlePaths = []Path{
	"id",
	"valuationId",
	"data.id",
	"data.valuationId",
}

// Market statistic paths, extracted opportunistically from the winning payload.
var (
	HighMarketValuePaths = []Path{"stats[0].values.highMarketValue", "data.stats[0].values.highMarketValue"}
	LowMarketValuePaths  = []Path{"stats[0].values.lowMarketValue", "data.stats[0].values.lowMarketValue"}
	AvgDaysOnMarketPaths = []Path{"stats[0].values.avgDaysOnMarket", "data.stats[0].values.avgDaysOnMarket"}
	AvgKmsPaths          = []Path{"stats[0].values.avgKms", "data.stats[0].values.avgKms"}
)

// Extract walks the path table in order and returns the first value that
// parses as a number greater than zero. Missing or malformed paths are
// skipped, never errors.
func Extract(payload any, table []Path) (float64, bool) {
	for _, path := range table {
		value, ok := resolve(payload, path)
		if !ok {
			continue
		}
		if n, ok := parseNumber(value); ok && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// ExtractString walks the path table in order and returns the first
// non-empty string value. Numeric ids are formatted as strings.
func ExtractString(payload any, table []Path) (string, bool) {
	for _, path := range table {
		value, ok := resolve(payload, path)
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed, true
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		}
	}
	return "", false
}

// resolve walks one path expression through nested maps and arrays.
func resolve(payload any, path Path) (any, bool) {
	current := payload
	for _, segment := range strings.Split(string(path), ".") {
		name, indexes, ok := splitSegment(segment)
		if !ok {
			return nil, false
		}

		if name != "" {
			obj, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			current, ok = obj[name]
			if !ok {
				return nil, false
			}
		}

		for _, idx := range indexes {
			arr, ok := current.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, false
			}
			current = arr[idx]
		}
	}
	return current, true
}

// splitSegment parses a segment like "regions[0]" into its field name and
// any trailing array indexes.
func splitSegment(segment string) (string, []int, bool) {
	open := strings.IndexByte(segment, '[')
	if open == -1 {
		return segment, nil, segment != ""
	}

	name := segment[:open]
	rest := segment[open:]
	var indexes []int
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, false
		}
		close := strings.IndexByte(rest, ']')
		if close == -1 {
			return "", nil, false
		}
		idx, err := strconv.Atoi(rest[1:close])
		if err != nil {
			return "", nil, false
		}
		indexes = append(indexes, idx)
		rest = rest[close+1:]
	}
	return name, indexes, true
}

// parseNumber converts a payload value to a float64. Strings are tolerated
// with currency symbols, commas and surrounding spaces stripped.
func parseNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		cleaned := strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(v))
		if cleaned == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
