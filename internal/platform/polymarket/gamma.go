// Package polymarket provides the Gamma discovery client, the CLOB trading
// client, and the venue adapter for Polymarket.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/alanyoungcy/crossarb/internal/domain"
)

// DefaultGammaURL is the production Gamma API root.
const DefaultGammaURL = "https://gamma-api.polymarket.com"

// GammaClient is the REST client for the Polymarket Gamma API, which serves
// market discovery and metadata. Gamma requests are unauthenticated.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGammaClient creates a Gamma API client rooted at baseURL, e.g.
// DefaultGammaURL.
func NewGammaClient(baseURL string) *GammaClient {
	if baseURL == "" {
		baseURL = DefaultGammaURL
	}
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Sports returns the sports metadata listing, mapping sport names to their
// Gamma series IDs.
func (g *GammaClient) Sports(ctx context.Context) ([]APISport, error) {
	body, err := g.doGet(ctx, "/sports")
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get sports: %w", err)
	}

	var sports []APISport
	if err := json.Unmarshal(body, &sports); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode sports: %w", err)
	}
	return sports, nil
}

// EventsBySeries returns open events under a series ID, newest first.
func (g *GammaClient) EventsBySeries(ctx context.Context, seriesID string) ([]APIEvent, error) {
	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("limit", "100")
	params.Set("closed", "false")

	body, err := g.doGet(ctx, "/events?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get events for series %s: %w", seriesID, err)
	}

	var events []APIEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode events: %w", err)
	}
	return events, nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// checkHTTPStatus maps non-2xx statuses to domain errors where a sentinel
// exists. Shared by the Gamma and CLOB clients.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	detail := string(body)
	if len(detail) > 200 {
		detail = detail[:200]
	}

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", detail, domain.ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w", detail, domain.ErrUnauthorized)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", detail, domain.ErrRateLimited)
	case http.StatusBadRequest:
		return fmt.Errorf("%s: %w", detail, domain.ErrOrderRejected)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, detail)
	}
}
