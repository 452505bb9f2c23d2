package alphavantage

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"

	"quotechart/internal/provider"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// GetGlobalQuote performs one GLOBAL_QUOTE request and returns the raw body.
// Any transport failure or non-200 status is reported as provider.ErrNetwork.
func (c *AlphaVantageAPIClient) GetGlobalQuote(ctx context.Context, symbol string, opts ...AlphaVantageAPIClientOption) ([]byte, error) {
	var override = &AlphaVantageAPIClient{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		header:     c.header.Clone(),
		query:      maps.Clone(c.query),
	}
	for _, opt := range opts {
		opt(override)
	}

	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("creating request: empty symbol")
	}

	query := maps.Clone(override.query)
	query.Set("function", "GLOBAL_QUOTE")
	query.Set("symbol", symbol)

	url := fmt.Sprintf("%s/query?%s", strings.TrimRight(override.baseURL, "/"), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	res, err := override.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: performing request: %w", provider.ErrNetwork, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<10))
		return nil, fmt.Errorf("%w: GET %s -> %d: %s", provider.ErrNetwork, redact(req), res.StatusCode, strings.TrimSpace(string(b)))
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", provider.ErrNetwork, err)
	}
	return body, nil
}

// redact renders the request URL without the api key.
func redact(req *http.Request) string {
	u := *req.URL
	q := u.Query()
	if q.Has("apikey") {
		q.Set("apikey", "***")
	}
	u.RawQuery = q.Encode()
	return u.String()
}
