package alphavantage

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"quotechart/internal/provider"
)

const (
	// QuoteKey labels the quote object on the realtime feed.
	QuoteKey = "Global Quote"
	// DelayedQuoteKey labels the quote object on the delayed feed.
	DelayedQuoteKey = "Global Quote - DATA DELAYED BY 15 MINUTES"
	// PriceField is the nested field holding the last price.
	PriceField = "05. price"
)

// advisoryKeys are the top-level keys Alpha Vantage uses instead of a
// quote when a request is throttled or rejected.
var advisoryKeys = []string{"Error Message", "Note", "Information"}

// ExtractPrice returns the price held in a GLOBAL_QUOTE payload.
//
// Malformed JSON yields provider.ErrParse and a payload without either quote
// key yields provider.ErrSchema. A missing or non-numeric price is not an
// error: it is reported as NaN.
func ExtractPrice(raw []byte) (float64, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return math.NaN(), fmt.Errorf("%w: %w", provider.ErrParse, err)
	}
	if top == nil {
		return math.NaN(), fmt.Errorf("%w: top-level value is null", provider.ErrParse)
	}

	body, key, ok := lookupQuote(top)
	if !ok {
		if msg := advisory(top); msg != "" {
			return math.NaN(), fmt.Errorf("%w: quote not found: %s", provider.ErrSchema, msg)
		}
		return math.NaN(), fmt.Errorf("%w: neither %q nor %q present", provider.ErrSchema, QuoteKey, DelayedQuoteKey)
	}

	var quote map[string]json.RawMessage
	if err := json.Unmarshal(body, &quote); err != nil {
		return math.NaN(), fmt.Errorf("%w: %q is not an object: %w", provider.ErrSchema, key, err)
	}
	if quote == nil {
		return math.NaN(), fmt.Errorf("%w: %q is null", provider.ErrSchema, key)
	}
	return coerce(quote[PriceField]), nil
}

func lookupQuote(top map[string]json.RawMessage) (json.RawMessage, string, bool) {
	for _, key := range []string{QuoteKey, DelayedQuoteKey} {
		if v, ok := top[key]; ok {
			return v, key, true
		}
	}
	return nil, "", false
}

func advisory(top map[string]json.RawMessage) string {
	for _, key := range advisoryKeys {
		v, ok := top[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil && strings.TrimSpace(s) != "" {
			return fmt.Sprintf("%s: %s", key, strings.TrimSpace(s))
		}
	}
	return ""
}

// coerce reads a JSON number or a string-encoded decimal, defaulting to NaN.
// Values outside the float64 range are NaN as well.
func coerce(v json.RawMessage) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	var s string
	switch v[0] {
	case '"':
		if err := json.Unmarshal(v, &s); err != nil {
			return math.NaN()
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		s = string(v)
	default:
		return math.NaN()
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return math.NaN()
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}
