package alphavantage_test

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"quotechart/internal/provider"
	alphavantage "quotechart/internal/provider/alphavantage"
)

func TestGetGlobalQuote(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	payload := `{"Global Quote":{"01. symbol":"DIA","05. price":"426.7500"}}`

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Equal(t, "/query", req.URL.Path)
			require.Equal(t, "test-key", req.URL.Query().Get("apikey"))
			require.Equal(t, "GLOBAL_QUOTE", req.URL.Query().Get("function"))
			require.Equal(t, "DIA", req.URL.Query().Get("symbol"))
			require.Equal(t, "delayed", req.URL.Query().Get("entitlement"))
			return okResponse(payload), nil
		}).
		Times(1)

	// Arrange: setup a new Alpha Vantage API client
	client, err := alphavantage.NewAlphaVantageAPIClient("test-key", alphavantage.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act: call GetGlobalQuote
	body, err := client.GetGlobalQuote(t.Context(), " DIA ")
	require.NoError(t, err)

	// Assert: the raw body is returned untouched
	require.Equal(t, payload, string(body))
}

func TestGetGlobalQuote_ErrEmptySymbol(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(gomock.NewController(t))

	// Assert: no request is made
	httpClient.EXPECT().
		Do(gomock.Any()).
		Times(0)

	client, err := alphavantage.NewAlphaVantageAPIClient("", alphavantage.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act: call GetGlobalQuote with a blank symbol
	body, err := client.GetGlobalQuote(t.Context(), "  ")
	require.Error(t, err)
	require.Nil(t, body)
}

func TestGetGlobalQuote_ErrCreatingRequest(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(gomock.NewController(t))

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		Times(0)

	// Arrange: setup a new Alpha Vantage API client
	client, err := alphavantage.NewAlphaVantageAPIClient("", alphavantage.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act: call GetGlobalQuote with an unparsable base URL
	body, err := client.GetGlobalQuote(t.Context(), "DIA", alphavantage.WithBaseURL(string([]rune{0x7f})))
	require.Error(t, err)
	require.NotErrorIs(t, err, provider.ErrNetwork)
	require.Nil(t, body)
}

func TestGetGlobalQuote_ErrPerformingRequest(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(gomock.NewController(t))

	// Assert: stub the Do method
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("connection refused")
		}).
		Times(1)

	// Arrange: setup a new Alpha Vantage API client
	client, err := alphavantage.NewAlphaVantageAPIClient("", alphavantage.WithHTTPClient(httpClient))
	require.NoError(t, err)

	// Act: call GetGlobalQuote
	body, err := client.GetGlobalQuote(t.Context(), "DIA")

	// Assert: transport failures are network errors
	require.ErrorIs(t, err, provider.ErrNetwork)
	require.Equal(t, "network", provider.Kind(err))
	require.Nil(t, body)
}

func TestGetGlobalQuote_ErrUnexpectedStatusCode(t *testing.T) {
	t.Parallel()

	for _, code := range []int{http.StatusBadRequest, http.StatusForbidden, http.StatusTooManyRequests, http.StatusInternalServerError} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			t.Parallel()

			// Arrange: create a mock HTTP client
			httpClient := NewMockHTTPClient(gomock.NewController(t))

			// Assert: stub the Do method
			httpClient.EXPECT().
				Do(gomock.Any()).
				DoAndReturn(func(req *http.Request) (*http.Response, error) {
					return &http.Response{
						StatusCode: code,
						Body:       io.NopCloser(bytes.NewReader([]byte("upstream says no"))),
					}, nil
				}).
				Times(1)

			// Arrange: setup a new Alpha Vantage API client
			client, err := alphavantage.NewAlphaVantageAPIClient("secret-key", alphavantage.WithHTTPClient(httpClient))
			require.NoError(t, err)

			// Act: call GetGlobalQuote
			body, err := client.GetGlobalQuote(t.Context(), "DIA")

			// Assert: non-200 is a network error and the key is not leaked
			require.ErrorIs(t, err, provider.ErrNetwork)
			require.Contains(t, err.Error(), fmt.Sprintf("%d", code))
			require.NotContains(t, err.Error(), "secret-key")
			require.Nil(t, body)
		})
	}
}
