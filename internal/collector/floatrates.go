package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"RatePulse/internal/model"

	"github.com/go-resty/resty/v2"
)

// FloatRatesFetcher reads daily rates from a floatrates-style endpoint:
// GET {base}/{currency}.json returns an object keyed by lowercase code,
// and the rate against Quote sits at body[quote].rate.
type FloatRatesFetcher struct {
	Quote  model.Currency
	client *resty.Client
}

// NewFloatRatesFetcher creates a fetcher with optional proxy support.
func NewFloatRatesFetcher(baseURL string, quote model.Currency, proxyURL string, timeout time.Duration) *FloatRatesFetcher {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "RatePulse/1.0")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &FloatRatesFetcher{Quote: quote, client: client}
}

func (f *FloatRatesFetcher) Name() string { return "floatrates" }

type floatRate struct {
	Code string   `json:"code"`
	Rate *float64 `json:"rate"`
}

func (f *FloatRatesFetcher) FetchRate(ctx context.Context, currency model.Currency) (float64, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("currency", string(currency)).
		Get("/{currency}.json")
	if err != nil {
		return 0, &FetchError{Currency: currency, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, &FetchError{Currency: currency, Err: fmt.Errorf("status %d", resp.StatusCode())}
	}

	var payload map[string]floatRate
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return 0, &FetchError{Currency: currency, Err: fmt.Errorf("decode payload: %w", err)}
	}
	entry, ok := payload[string(f.Quote)]
	if !ok || entry.Rate == nil {
		return 0, &FetchError{Currency: currency, Err: ErrMissingRate}
	}
	rate := *entry.Rate
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, &FetchError{Currency: currency, Err: fmt.Errorf("%w: invalid value %v", ErrMissingRate, rate)}
	}
	return rate, nil
}
