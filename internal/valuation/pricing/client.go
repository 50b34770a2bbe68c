package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client calls the upstream pricing service through the relay endpoint.
// The upstream API is never called directly: every request is wrapped in a
// forwarding envelope and POSTed to the relay, with the API credentials
// attached as headers (never embedded in the relayed URL).
type Client struct {
	relayURL   string
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// Config configures the pricing relay client.
type Config struct {
	RelayURL  string
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// NewClient creates a new pricing relay client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		relayURL:   strings.TrimRight(cfg.RelayURL, "/"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		apiSecret:  strings.TrimSpace(cfg.APISecret),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// relayEnvelope is the generic "forward this request" body the relay accepts.
type relayEnvelope struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    any               `json:"body,omitempty"`
}

// Submit creates a new valuation upstream and returns the decoded payload.
func (c *Client) Submit(ctx context.Context, req QuoteRequest) (any, error) {
	body := map[string]any{
		"businessUnitId": strings.TrimSpace(req.BusinessUnitID),
		"brandIds":       []string{req.Vehicle.BrandID},
		"modelIds":       []string{req.Vehicle.ModelID},
		"yearIds":        []string{req.Vehicle.YearID},
		"trimIds":        []string{req.Vehicle.TrimID},
		"kms":            req.Kms,
		"lite":           true,
	}
	return c.call(ctx, http.MethodPost, "valuations", body)
}

// FetchStatus polls an in-flight valuation by its handle. The relayed
// request is a GET and carries no body: the upstream silently breaks on
// GET requests with a body.
func (c *Client) FetchStatus(ctx context.Context, handle string) (any, error) {
	return c.call(ctx, http.MethodGet, "valuations/"+handle, nil)
}

func (c *Client) call(ctx context.Context, method, endpoint string, body any) (any, error) {
	envelope := relayEnvelope{
		URL:     c.baseURL + "/" + endpoint,
		Method:  method,
		Headers: map[string]string{"Content-Type": "application/json"},
	}
	if method != http.MethodGet && body != nil {
		envelope.Body = body
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, &Error{Kind: FailureTransport, Message: "failed to encode relay envelope", Err: err}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relayURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Kind: FailureTransport, Message: "failed to create relay request", Err: err}
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("x-api-key", c.apiKey)
	request.Header.Set("x-api-secret", c.apiSecret)

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return nil, &Error{Kind: FailureTransport, Message: "relay request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &Error{
			Kind:    FailureAuth,
			Status:  resp.StatusCode,
			Message: "pricing service authentication failed: check API key and secret",
		}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &Error{
			Kind:    FailureTransport,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("relay returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	}

	var decoded any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &Error{Kind: FailureTransport, Message: "failed to decode relay response", Err: err}
	}
	return decoded, nil
}
