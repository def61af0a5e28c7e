package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"RatePulse/internal/model"

	"github.com/rs/zerolog"
)

// MockFetcher returns controllable fixed rates for development and testing.
// A currency listed in Errs fails with that error.
type MockFetcher struct {
	mu    sync.Mutex
	Rates map[model.Currency]float64
	Errs  map[model.Currency]error
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchRate(_ context.Context, currency model.Currency) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if err, ok := m.Errs[currency]; ok {
		return 0, &FetchError{Currency: currency, Err: err}
	}
	rate, ok := m.Rates[currency]
	if !ok {
		return 0, &FetchError{Currency: currency, Err: ErrMissingRate}
	}
	return rate, nil
}

// Set replaces the rate returned for currency.
func (m *MockFetcher) Set(currency model.Currency, rate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Rates == nil {
		m.Rates = make(map[model.Currency]float64)
	}
	m.Rates[currency] = rate
}

// Collector fetches every tracked currency, each under its own timeout.
type Collector struct {
	Fetcher    Fetcher
	Currencies []model.Currency
	Timeout    time.Duration
	log        zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, currencies []model.Currency, timeout time.Duration, log zerolog.Logger) *Collector {
	return &Collector{
		Fetcher:    fetcher,
		Currencies: currencies,
		Timeout:    timeout,
		log:        log.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
	}
}

// Collect returns one observation per currency that was fetched successfully,
// in configured order, plus one error per currency that failed. A failure
// never stops the remaining currencies from being fetched.
func (c *Collector) Collect(ctx context.Context) ([]model.Observation, []error) {
	obs := make([]model.Observation, 0, len(c.Currencies))
	var errs []error
	for _, cur := range c.Currencies {
		rate, err := c.fetchOne(ctx, cur)
		if err != nil {
			c.log.Warn().Err(err).Str("currency", string(cur)).Msg("rate fetch failed")
			errs = append(errs, err)
			continue
		}
		obs = append(obs, model.Observation{Currency: cur, Rate: rate, ObservedAt: time.Now()})
	}
	return obs, errs
}

func (c *Collector) fetchOne(ctx context.Context, cur model.Currency) (float64, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	rate, err := c.Fetcher.FetchRate(ctx, cur)
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = &FetchError{Currency: cur, Err: err}
		}
		return 0, err
	}
	if rate <= 0 {
		return 0, &FetchError{Currency: cur, Err: fmt.Errorf("%w: invalid value %v", ErrMissingRate, rate)}
	}
	return rate, nil
}
