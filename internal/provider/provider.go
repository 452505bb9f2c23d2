package provider

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"
)

var (
	// ErrNetwork covers transport failures and non-200 responses.
	ErrNetwork = errors.New("network error")
	// ErrParse means the response body was not a JSON object.
	ErrParse = errors.New("parse error")
	// ErrSchema means neither quote key was present in the payload.
	ErrSchema = errors.New("schema error")
)

// Quote is a single price observation for the tracked symbol.
// Price is NaN when the upstream value was missing or not numeric.
type Quote struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}

// Valid reports whether the quote carries a usable price.
func (q Quote) Valid() bool { return !math.IsNaN(q.Price) && !math.IsInf(q.Price, 0) }

// MarshalJSON writes an invalid price as null; encoding/json rejects NaN.
func (q Quote) MarshalJSON() ([]byte, error) {
	var price *float64
	if q.Valid() {
		p := q.Price
		price = &p
	}
	return json.Marshal(struct {
		Symbol     string    `json:"symbol"`
		Price      *float64  `json:"price"`
		ObservedAt time.Time `json:"observed_at"`
	}{q.Symbol, price, q.ObservedAt})
}

type Provider interface {
	Name() string
	Fetch(ctx context.Context) (Quote, error)
}

// Kind labels an error for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrSchema):
		return "schema"
	default:
		return "unknown"
	}
}
