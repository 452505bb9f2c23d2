package alphavantage

import (
	"net/http"
	"net/url"
)

const (
	baseURL = "https://www.alphavantage.co"

	// EntitlementDelayed requests the 15-minute delayed feed.
	EntitlementDelayed = "delayed"
	// EntitlementRealtime requests the realtime feed.
	EntitlementRealtime = "realtime"
)

// HTTPClient is the subset of *http.Client the API client needs.
//
//go:generate mockgen -package=alphavantage_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// AlphaVantageAPIClient talks to the /query endpoint. The zero value is not
// usable; build one with NewAlphaVantageAPIClient.
type AlphaVantageAPIClient struct {
	baseURL    string
	httpClient HTTPClient
	// header is copied onto every request.
	header http.Header
	// query carries apikey and entitlement into every request.
	query url.Values
}

// AlphaVantageAPIClientOption adjusts a client at construction or per call.
type AlphaVantageAPIClientOption func(*AlphaVantageAPIClient)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(baseURL string) AlphaVantageAPIClientOption {
	return func(c *AlphaVantageAPIClient) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(httpClient HTTPClient) AlphaVantageAPIClientOption {
	return func(c *AlphaVantageAPIClient) {
		c.httpClient = httpClient
	}
}

// WithHeader appends header values; existing values are kept.
func WithHeader(header http.Header) AlphaVantageAPIClientOption {
	return func(c *AlphaVantageAPIClient) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithEntitlement selects the delayed or realtime feed. An empty value drops
// the parameter and leaves the choice to the API.
func WithEntitlement(entitlement string) AlphaVantageAPIClientOption {
	return func(c *AlphaVantageAPIClient) {
		if entitlement == "" {
			c.query.Del("entitlement")
			return
		}
		c.query.Set("entitlement", entitlement)
	}
}

// NewAlphaVantageAPIClient returns a client for the given key. Requests go
// to the public endpoint on the delayed feed unless options say otherwise.
// An empty key is accepted so callers can log and keep running; the API
// answers such requests with an advisory instead of a quote.
func NewAlphaVantageAPIClient(key string, options ...AlphaVantageAPIClientOption) (*AlphaVantageAPIClient, error) {
	query := url.Values{"entitlement": {EntitlementDelayed}}
	if key != "" {
		query.Set("apikey", key)
	}
	c := &AlphaVantageAPIClient{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     make(http.Header),
		query:      query,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}
